// Package media stores uploaded images and returns their public URLs.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp"

	"vidtube/internal/config"
)

var ErrUnsupportedMedia = errors.New("unsupported media type")

// Folders group objects by purpose.
const (
	FolderAvatars     = "avatars"
	FolderCoverImages = "covers"
)

// File is an uploaded file held in memory. A nil *File means no file was sent.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Uploader persists a file and returns the URL it is reachable at.
type Uploader interface {
	Upload(ctx context.Context, folder string, f *File) (string, error)
}

var extensions = map[string]string{
	"jpeg": ".jpg",
	"png":  ".png",
	"gif":  ".gif",
	"webp": ".webp",
}

var contentTypes = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// DetectImage sniffs data and returns its image format.
func DetectImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrUnsupportedMedia
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedMedia, err)
	}
	if _, ok := extensions[format]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMedia, format)
	}
	return format, nil
}

// objectKey names a stored object. Client-supplied names are never used.
func objectKey(folder, format string) string {
	return path.Join(folder, uuid.NewString()+extensions[format])
}

// New returns the object store when an endpoint is configured and the local
// disk store otherwise.
func New(ctx context.Context, cfg *config.Config) (Uploader, error) {
	maxBytes := int64(cfg.MaxUploadSizeMB) << 20
	if cfg.MediaEndpoint == "" {
		return NewDiskStore(cfg.MediaDir, "/media", maxBytes)
	}
	return NewMinioStore(ctx, MinioConfig{
		Endpoint:  cfg.MediaEndpoint,
		AccessKey: cfg.MediaAccessKey,
		SecretKey: cfg.MediaSecretKey,
		Bucket:    cfg.MediaBucket,
		UseSSL:    cfg.MediaUseSSL,
		PublicURL: cfg.MediaPublicURL,
		MaxBytes:  maxBytes,
	})
}

func checkFile(f *File, maxBytes int64) (string, error) {
	if f == nil {
		return "", errors.New("no file")
	}
	if maxBytes > 0 && int64(len(f.Data)) > maxBytes {
		return "", fmt.Errorf("file exceeds %d bytes", maxBytes)
	}
	return DetectImage(f.Data)
}
