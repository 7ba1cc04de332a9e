package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/gosimple/slug"

	apperrors "storefront/internal/errors"
	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/storage"
)

const (
	// MaxProductImageSize is the upload ceiling for product images.
	MaxProductImageSize = 5 << 20
	// MaxAvatarSize is the upload ceiling for avatars.
	MaxAvatarSize = 2 << 20

	sniffLen = 3072
)

var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// StoredObject is the result of an upload.
type StoredObject struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// MediaService validates and stores images.
type MediaService interface {
	UploadProductImage(ctx context.Context, productSlug string, file *multipart.FileHeader) (*StoredObject, error)
	DeleteProductImage(ctx context.Context, key string) error
	// UploadAvatar stores the image and points the user's image at it.
	UploadAvatar(ctx context.Context, userID uuid.UUID, file *multipart.FileHeader) (*StoredObject, *model.User, error)
}

type mediaService struct {
	store storage.ObjectStore
	users UserService
}

// NewMediaService creates a new media service.
func NewMediaService(store storage.ObjectStore, users UserService) MediaService {
	return &mediaService{store: store, users: users}
}

func (s *mediaService) UploadProductImage(ctx context.Context, productSlug string, file *multipart.FileHeader) (obj *StoredObject, err error) {
	defer func() { metrics.RecordUpload("product", err) }()

	productSlug = strings.TrimSpace(productSlug)
	if !slug.IsSlug(productSlug) {
		return nil, apperrors.ErrInvalidSlug
	}

	src, contentType, err := openImage(file, MaxProductImageSize)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	key := storage.ProductImageKey(productSlug, file.Filename)
	if err := s.store.Put(ctx, key, src, file.Size, contentType); err != nil {
		return nil, fmt.Errorf("store %s: %w", key, err)
	}
	return &StoredObject{Key: key, URL: s.store.URL(key)}, nil
}

func (s *mediaService) DeleteProductImage(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if !storage.IsProductImageKey(key) {
		return apperrors.ErrInvalidObjectKey
	}
	if err := s.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *mediaService) UploadAvatar(ctx context.Context, userID uuid.UUID, file *multipart.FileHeader) (obj *StoredObject, user *model.User, err error) {
	defer func() { metrics.RecordUpload("avatar", err) }()

	current, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	src, contentType, err := openImage(file, MaxAvatarSize)
	if err != nil {
		return nil, nil, err
	}
	defer src.Close()

	key := storage.AvatarKey(userID, imageExtensions[contentType])
	if err := s.store.Put(ctx, key, src, file.Size, contentType); err != nil {
		return nil, nil, fmt.Errorf("store %s: %w", key, err)
	}
	url := s.store.URL(key)

	user, err = s.users.UpdateImage(ctx, userID, url)
	if err != nil {
		return nil, nil, err
	}

	// A previous avatar with another extension would otherwise linger.
	if oldKey := s.avatarKeyFromURL(userID, current.Image); oldKey != "" && oldKey != key {
		_ = s.store.Delete(ctx, oldKey)
	}
	return &StoredObject{Key: key, URL: url}, user, nil
}

func (s *mediaService) avatarKeyFromURL(userID uuid.UUID, url string) string {
	prefix := storage.UserPrefix + userID.String() + "/"
	base := s.store.URL(prefix)
	if url == "" || !strings.HasPrefix(url, base) {
		return ""
	}
	return prefix + strings.TrimPrefix(url, base)
}

// openImage checks the declared size and the sniffed content type before
// anything is written, and returns the file rewound to its start.
func openImage(file *multipart.FileHeader, limit int64) (multipart.File, string, error) {
	if file == nil {
		return nil, "", apperrors.ErrInvalidFileType
	}
	if file.Size > limit {
		return nil, "", apperrors.ErrFileTooLarge
	}
	if declared := file.Header.Get("Content-Type"); declared != "" && declared != "application/octet-stream" {
		if _, ok := imageExtensions[strings.ToLower(strings.TrimSpace(strings.Split(declared, ";")[0]))]; !ok {
			return nil, "", apperrors.ErrInvalidFileType
		}
	}

	src, err := file.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open upload: %w", err)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(src, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		src.Close()
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	detected := mimetype.Detect(head[:n])
	contentType := ""
	for allowed := range imageExtensions {
		if detected.Is(allowed) {
			contentType = allowed
			break
		}
	}
	if contentType == "" {
		src.Close()
		return nil, "", apperrors.ErrInvalidFileType
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		src.Close()
		return nil, "", fmt.Errorf("rewind upload: %w", err)
	}
	return src, contentType, nil
}
