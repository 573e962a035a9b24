package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pageza/pantry-chef/backend/config"
	"github.com/pageza/pantry-chef/backend/internal/logger"
)

// MaxImageBytes caps recipe image uploads
const MaxImageBytes = 5 << 20

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ImageExtension returns the file extension for a supported image content type
func ImageExtension(contentType string) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	ext, ok := imageExtensions[ct]
	if !ok {
		return "", ErrUnsupportedImage
	}
	return ext, nil
}

// RecipeImageKey builds the object key for a new image of recipeID
func RecipeImageKey(recipeID uuid.UUID, ext string) string {
	return fmt.Sprintf("recipes/%s/%s%s", recipeID, uuid.New(), ext)
}

// ImageService stores recipe photos in S3 and hands out presigned read URLs
type ImageService struct {
	s3Config   *config.S3Config
	presignTTL time.Duration
	logger     *zap.Logger
}

// NewImageService creates a new ImageService instance
func NewImageService(s3Config *config.S3Config, presignTTL time.Duration, l *zap.Logger) *ImageService {
	if presignTTL <= 0 {
		presignTTL = 15 * time.Minute
	}
	return &ImageService{
		s3Config:   s3Config,
		presignTTL: presignTTL,
		logger:     logger.OrNop(l),
	}
}

// UploadRecipeImage puts the image under recipes/<recipe id>/ and returns its key
func (s *ImageService) UploadRecipeImage(ctx context.Context, recipeID uuid.UUID, contentType string, body io.Reader) (string, error) {
	ext, err := ImageExtension(contentType)
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(io.LimitReader(body, MaxImageBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > MaxImageBytes {
		return "", ErrImageTooLarge
	}
	if len(data) == 0 {
		return "", ErrUnsupportedImage
	}
	key := RecipeImageKey(recipeID, ext)

	_, err = s.s3Config.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Config.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	s.logger.Info("recipe image uploaded", zap.String("recipe_id", recipeID.String()), zap.String("key", key))
	return key, nil
}

// ImageURL returns a short lived presigned GET URL for key
func (s *ImageService) ImageURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	return s.s3Config.GeneratePresignedURL(ctx, key, s.presignTTL)
}
