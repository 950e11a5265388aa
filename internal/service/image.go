package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/platefeed/backend/config"
)

// ImageStore persists decoded image bytes and returns a public URL.
type ImageStore interface {
	Save(ctx context.Context, data []byte, ext string) (string, error)
}

// LocalImageStore writes images under a media directory served by the router.
type LocalImageStore struct {
	Dir     string
	BaseURL string
}

func (s *LocalImageStore) Save(ctx context.Context, data []byte, ext string) (string, error) {
	dir := filepath.Join(s.Dir, "recipes")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}

	name := uuid.New().String() + ext
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	return s.BaseURL + "/recipes/" + name, nil
}

// S3ImageStore uploads images to the configured bucket.
type S3ImageStore struct {
	S3 *config.S3Config
}

func (s *S3ImageStore) Save(ctx context.Context, data []byte, ext string) (string, error) {
	key := "recipes/" + uuid.New().String() + ext
	_, err := s.S3.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.S3.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/" + strings.TrimPrefix(ext, ".")),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.S3.BucketName, key), nil
}

// ImageService decodes embedded base64 image payloads and stores them.
type ImageService struct {
	store ImageStore
}

func NewImageService(store ImageStore) *ImageService {
	return &ImageService{store: store}
}

// SaveDataURL decodes a `data:image/...;base64,` payload and stores it.
// Invalid payloads are reported as image field validation errors.
func (s *ImageService) SaveDataURL(ctx context.Context, dataURL string) (string, error) {
	header, encoded, found := strings.Cut(dataURL, ",")
	if !found || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
		return "", NewValidationError("image", "image must be a base64-encoded data URL")
	}

	mediaType := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	ext := extensionFor(mediaType)

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", NewValidationError("image", "invalid base64 image payload")
	}

	return s.store.Save(ctx, data, ext)
}

func extensionFor(mediaType string) string {
	switch mediaType {
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
