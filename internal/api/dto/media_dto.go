package dto

import (
	"time"

	"github.com/nxl-pharma/crm-api/internal/domain"
)

// MediaUpdateRequest payload for PATCH.
type MediaUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Visible     *bool   `json:"visible"`
	Note        *string `json:"note"`
	Order       *int    `json:"order"`
}

// ReorderRequest payload.
type ReorderRequest struct {
	IDs []string `json:"ids"`
}

// LikeRequest payload.
type LikeRequest struct {
	Kind domain.MediaKind `json:"kind"`
	ID   string           `json:"id"`
}

// TrackRequest payload.
type TrackRequest struct {
	Path     string `json:"path"`
	Referrer string `json:"referrer"`
}

// MediaResponse is the admin view of a media item.
type MediaResponse struct {
	ID          string           `json:"id"`
	Kind        domain.MediaKind `json:"kind"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	ImageURL    string           `json:"imageUrl"`
	ThumbURL    string           `json:"thumbUrl,omitempty"`
	ContentType string           `json:"contentType"`
	SizeBytes   int64            `json:"sizeBytes"`
	Visible     bool             `json:"visible"`
	Note        string           `json:"note,omitempty"`
	Order       int              `json:"order"`
	Views       int64            `json:"views"`
	Likes       int64            `json:"likes"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// PublicMediaResponse omits admin-only fields.
type PublicMediaResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"imageUrl"`
	ThumbURL    string `json:"thumbUrl,omitempty"`
	Order       int    `json:"order"`
	Views       int64  `json:"views"`
	Likes       int64  `json:"likes"`
}

// NewMediaResponse maps an item for the dashboard.
func NewMediaResponse(m *domain.MediaItem) MediaResponse {
	return MediaResponse{
		ID:          m.ID,
		Kind:        m.Kind,
		Title:       m.Title,
		Description: m.Description,
		ImageURL:    m.ImageURL,
		ThumbURL:    m.ThumbURL,
		ContentType: m.ContentType,
		SizeBytes:   m.SizeBytes,
		Visible:     m.Visible,
		Note:        m.Note,
		Order:       m.Order,
		Views:       m.Views,
		Likes:       m.Likes,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// NewMediaResponses maps a list for the dashboard.
func NewMediaResponses(items []domain.MediaItem) []MediaResponse {
	out := make([]MediaResponse, 0, len(items))
	for i := range items {
		out = append(out, NewMediaResponse(&items[i]))
	}
	return out
}

// NewPublicMediaResponses maps a list for the public site.
func NewPublicMediaResponses(items []domain.MediaItem) []PublicMediaResponse {
	out := make([]PublicMediaResponse, 0, len(items))
	for _, m := range items {
		out = append(out, PublicMediaResponse{
			ID:          m.ID,
			Title:       m.Title,
			Description: m.Description,
			ImageURL:    m.ImageURL,
			ThumbURL:    m.ThumbURL,
			Order:       m.Order,
			Views:       m.Views,
			Likes:       m.Likes,
		})
	}
	return out
}
