package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// MaxAvatarBytes caps the size of an uploaded avatar.
const MaxAvatarBytes = 5 << 20

var (
	ErrUnsupportedImage = errors.New("avatar must be a jpeg, png, gif or webp image")
	ErrImageTooLarge    = errors.New("avatar exceeds the maximum size")
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// AvatarUpload is an image received from a client.
type AvatarUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// AvatarStore places avatars under <folder>/<userId>/<uuid><ext>.
type AvatarStore struct {
	objects ObjectStore
	folder  string
}

// NewAvatarStore wraps an object store.
func NewAvatarStore(objects ObjectStore, folder string) *AvatarStore {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		folder = "avatars"
	}
	return &AvatarStore{objects: objects, folder: folder}
}

// Upload stores the image and returns the avatar reference to persist.
func (s *AvatarStore) Upload(ctx context.Context, userID string, upload AvatarUpload) (domain.Avatar, error) {
	contentType := strings.ToLower(strings.TrimSpace(strings.SplitN(upload.ContentType, ";", 2)[0]))
	ext, ok := imageExtensions[contentType]
	if !ok {
		return domain.Avatar{}, ErrUnsupportedImage
	}
	if upload.Size <= 0 || upload.Size > MaxAvatarBytes {
		return domain.Avatar{}, ErrImageTooLarge
	}
	if fileExt := strings.ToLower(path.Ext(upload.Filename)); fileExt == ".jpeg" || fileExt == ext {
		ext = fileExt
	}

	key := fmt.Sprintf("%s/%s/%s%s", s.folder, userID, uuid.NewString(), ext)
	if err := s.objects.Put(ctx, key, contentType, upload.Body, upload.Size); err != nil {
		return domain.Avatar{}, err
	}
	return domain.Avatar{URL: s.objects.URL(key), PublicID: key}, nil
}

// Delete removes a previously uploaded avatar. An empty avatar is a no-op.
func (s *AvatarStore) Delete(ctx context.Context, avatar domain.Avatar) error {
	if avatar.PublicID == "" {
		return nil
	}
	return s.objects.Delete(ctx, avatar.PublicID)
}
