package storage

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngFixture(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.NRGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDetectImageType(t *testing.T) {
	ct, ext, ok := DetectImageType(pngFixture(t, 4, 4))
	assert.True(t, ok)
	assert.Equal(t, ContentTypePNG, ct)
	assert.Equal(t, ".png", ext)

	_, _, ok = DetectImageType([]byte("plain text"))
	assert.False(t, ok)
}

func TestObjectKey(t *testing.T) {
	key := ObjectKey("gallery", "Clean Room Ü 2024", ".jpg")
	assert.True(t, strings.HasPrefix(key, "gallery/clean-room-u-2024-"), key)
	assert.True(t, strings.HasSuffix(key, ".jpg"))

	assert.True(t, strings.HasPrefix(ObjectKey("certifications", "", ".png"), "certifications/image-"))
}

func TestThumbKey(t *testing.T) {
	assert.Equal(t, "gallery/a-1-thumb.jpg", ThumbKey("gallery/a-1.jpg"))
}

func TestThumbnail_ResizesWideImages(t *testing.T) {
	thumb, ok, err := Thumbnail(pngFixture(t, 1000, 500), ContentTypePNG, 480)
	require.NoError(t, err)
	require.True(t, ok)

	img, err := imaging.Decode(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.Equal(t, 480, img.Bounds().Dx())
	assert.Equal(t, 240, img.Bounds().Dy())
}

func TestThumbnail_KeepsSmallImages(t *testing.T) {
	thumb, ok, err := Thumbnail(pngFixture(t, 100, 50), ContentTypePNG, 480)
	require.NoError(t, err)
	require.True(t, ok)
	img, err := imaging.Decode(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
}

func TestThumbnail_SkipsWebP(t *testing.T) {
	_, ok, err := Thumbnail([]byte("RIFF"), ContentTypeWebP, 480)
	require.NoError(t, err)
	assert.False(t, ok)
}
