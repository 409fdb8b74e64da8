package storage

import (
	"bytes"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// Content types accepted for uploads.
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeWebP = "image/webp"
)

var extensions = map[string]string{
	ContentTypeJPEG: ".jpg",
	ContentTypePNG:  ".png",
	ContentTypeWebP: ".webp",
}

// DetectImageType sniffs data and returns the content type and file extension.
// ok is false for anything that is not JPEG, PNG or WebP.
func DetectImageType(data []byte) (contentType, ext string, ok bool) {
	contentType = http.DetectContentType(data)
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	ext, ok = extensions[contentType]
	return contentType, ext, ok
}

// ObjectKey builds `<prefix>/<slug>-<uuid><ext>`. Empty titles slug to "image".
func ObjectKey(prefix, title, ext string) string {
	name := slug.Make(title)
	if name == "" {
		name = "image"
	}
	if len(name) > 60 {
		name = strings.Trim(name[:60], "-")
	}
	return path.Join(prefix, fmt.Sprintf("%s-%s%s", name, uuid.NewString(), ext))
}

// ThumbKey derives the thumbnail key from the original object key.
func ThumbKey(key string) string {
	ext := path.Ext(key)
	return strings.TrimSuffix(key, ext) + "-thumb" + ext
}

// Thumbnail downsizes JPEG and PNG images to width, keeping the aspect ratio.
// Images already narrower than width are re-encoded unchanged. ok is false
// for formats without a pure Go encoder.
func Thumbnail(data []byte, contentType string, width int) (thumb []byte, ok bool, err error) {
	var format imaging.Format
	switch contentType {
	case ContentTypeJPEG:
		format = imaging.JPEG
	case ContentTypePNG:
		format = imaging.PNG
	default:
		return nil, false, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode image: %w", err)
	}
	if width > 0 && img.Bounds().Dx() > width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(82)); err != nil {
		return nil, false, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), true, nil
}
