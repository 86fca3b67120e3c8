package media

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/pavelchamgl/analog-threads/internal/models"
)

// Uploader stores an uploaded file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, content []byte, folder string) (string, error)
}

// CloudinaryUploader stores media in Cloudinary.
type CloudinaryUploader struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryUploader builds an uploader from a cloudinary:// URL.
func NewCloudinaryUploader(cloudinaryURL string) (*CloudinaryUploader, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	return &CloudinaryUploader{cld: cld}, nil
}

// Upload pushes the file into the given Cloudinary folder. The public id is
// derived from the content hash so re-uploading the same bytes is a no-op.
func (u *CloudinaryUploader) Upload(ctx context.Context, content []byte, folder string) (string, error) {
	resp, err := u.cld.Upload.Upload(ctx, bytes.NewReader(content), uploader.UploadParams{
		Folder:   folder,
		PublicID: contentHash(content),
	})
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return resp.SecureURL, nil
}

// LocalUploader writes media to local disk. Used in development where no
// Cloudinary account is configured.
type LocalUploader struct {
	Dir     string
	BaseURL string
}

// Upload writes the file under Dir/folder and returns its serving path.
func (u *LocalUploader) Upload(_ context.Context, content []byte, folder string) (string, error) {
	name := contentHash(content)
	rel := filepath.ToSlash(filepath.Join(folder, name))
	full := filepath.Join(u.Dir, rel)

	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return "", models.NewInternalError(err)
	}
	if err := os.WriteFile(full, content, 0o600); err != nil {
		return "", models.NewInternalError(err)
	}
	return u.BaseURL + "/" + rel, nil
}

func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
