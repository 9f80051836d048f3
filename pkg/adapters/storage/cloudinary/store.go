// Package cloudinary stores template thumbnails on Cloudinary.
package cloudinary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/caffeinepub/liinks/pkg/ports"
)

const thumbnailFolder = "liinks/templates"

type Store struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// New connects using a CLOUDINARY_URL style connection string.
func New(cloudinaryURL string) (*Store, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init: %w", err)
	}
	return &Store{cld: cld, folder: thumbnailFolder}, nil
}

// Upload pushes r and returns its secure URL. The extension of name is
// dropped from the public id.
func (s *Store) Upload(ctx context.Context, name string, r io.Reader) (string, error) {
	res, err := s.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		PublicID: publicID(name),
		Folder:   s.folder,
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return "", errors.New("cloudinary upload: " + res.Error.Message)
	}
	return res.SecureURL, nil
}

func publicID(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}

var _ ports.BlobStore = (*Store)(nil)
