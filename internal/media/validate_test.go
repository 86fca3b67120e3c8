package media

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelchamgl/analog-threads/internal/models"
)

func encodeTestPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	buf := bytes.NewBuffer(nil)
	require.NoError(t, png.Encode(buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func encodeTestJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	buf := bytes.NewBuffer(nil)
	require.NoError(t, jpeg.Encode(buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil))
	return buf.Bytes()
}

func TestValidateUpload(t *testing.T) {
	tests := []struct {
		name     string
		content  []byte
		wantKind Kind
		wantErr  bool
	}{
		{name: "png image", content: encodeTestPNG(t, 10, 10), wantKind: KindImage},
		{name: "jpeg image", content: encodeTestJPEG(t, 10, 10), wantKind: KindImage},
		{name: "gif counts as video", content: []byte("GIF89a\x01\x00\x01\x00"), wantKind: KindVideo},
		{name: "empty upload", content: nil, wantErr: true},
		{name: "unsupported type", content: []byte("%PDF-1.4 not a picture"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, err := ValidateUpload(tt.content)
			if tt.wantErr {
				require.Error(t, err)
				appErr, ok := err.(*models.AppError)
				require.True(t, ok)
				assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, kind)
		})
	}
}

func TestValidateUploadRejectsOversizedImage(t *testing.T) {
	// Noise does not compress, so the encoded png stays above the 3MB cap.
	img := image.NewRGBA(image.Rect(0, 0, 1200, 1200))
	seed := uint32(1)
	for i := range img.Pix {
		seed = seed*1664525 + 1013904223
		img.Pix[i] = byte(seed >> 24)
	}
	buf := bytes.NewBuffer(nil)
	require.NoError(t, png.Encode(buf, img))
	require.Greater(t, buf.Len(), MaxImageSizeBytes)

	_, err := ValidateUpload(buf.Bytes())
	require.Error(t, err)
}

func TestEncodeAvatarWebPDownscales(t *testing.T) {
	src := encodeTestJPEG(t, 1024, 768)

	out, err := EncodeAvatarWebP(src)
	require.NoError(t, err)
	require.NotEmpty(t, out)

	decoded, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.LessOrEqual(t, decoded.Bounds().Dx(), AvatarMaxSize)
	assert.LessOrEqual(t, decoded.Bounds().Dy(), AvatarMaxSize)
}

func TestEncodeAvatarWebPRejectsGarbage(t *testing.T) {
	_, err := EncodeAvatarWebP([]byte("definitely not an image"))
	require.Error(t, err)
}
