package domain

import "time"

// MediaKind selects the collection a media item lives in.
type MediaKind string

const (
	MediaKindGallery        MediaKind = "gallery"
	MediaKindCertifications MediaKind = "certifications"
)

// Valid reports whether k names a media collection.
func (k MediaKind) Valid() bool {
	return k == MediaKindGallery || k == MediaKindCertifications
}

// MediaItem describes a gallery image or a certification scan.
type MediaItem struct {
	ID          string    `bson:"_id"`
	Kind        MediaKind `bson:"-"`
	Title       string    `bson:"title"`
	Description string    `bson:"description,omitempty"`
	ImageURL    string    `bson:"imageUrl"`
	ThumbURL    string    `bson:"thumbUrl,omitempty"`
	StorageKey  string    `bson:"storageKey"`
	ThumbKey    string    `bson:"thumbKey,omitempty"`
	ContentType string    `bson:"contentType"`
	SizeBytes   int64     `bson:"sizeBytes"`
	Visible     bool      `bson:"visible"`
	Note        string    `bson:"note,omitempty"`
	Order       int       `bson:"order"`
	Views       int64     `bson:"views"`
	Likes       int64     `bson:"likes"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}
