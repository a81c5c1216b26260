package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"xclone/internal/config"
	"xclone/internal/logger"
	"xclone/internal/metrics"
	domain "xclone/internal/model"
)

// AssetStore stores transformed images and removes them by key.
type AssetStore interface {
	Upload(ctx context.Context, file multipart.File, header *multipart.FileHeader, policy domain.ImagePolicy) (*domain.Asset, error)
	Delete(ctx context.Context, key string) error
}

// ObjectStorage is the subset of the S3 client the media service uses.
type ObjectStorage interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Upload is a multipart file part waiting to be stored.
type Upload struct {
	File   multipart.File
	Header *multipart.FileHeader
}

// MediaService stores images in Cloudflare R2 through the S3 API.
type MediaService struct {
	client    ObjectStorage
	bucket    string
	publicURL string
	maxBytes  int64
	timeout   time.Duration
}

// NewMediaService constructs an S3-compatible client for Cloudflare R2.
func NewMediaService(ctx context.Context, cfg *config.Config) (*MediaService, error) {
	if cfg.R2AccountID == "" || cfg.R2AccessKeyID == "" || cfg.R2SecretAccessKey == "" || cfg.R2BucketName == "" || cfg.R2PublicURL == "" {
		return nil, fmt.Errorf("missing Cloudflare R2 configuration")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for R2: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return NewMediaServiceWithClient(client, cfg.R2BucketName, cfg.R2PublicURL, cfg.UploadMaxBytes, cfg.UploadTimeout), nil
}

func NewMediaServiceWithClient(client ObjectStorage, bucket, publicURL string, maxBytes int64, timeout time.Duration) *MediaService {
	if maxBytes <= 0 {
		maxBytes = domain.DefaultMaxUploadBytes
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &MediaService{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimSuffix(publicURL, "/"),
		maxBytes:  maxBytes,
		timeout:   timeout,
	}
}

// Upload validates, transforms per policy, encodes as JPEG and stores the image.
func (s *MediaService) Upload(ctx context.Context, file multipart.File, header *multipart.FileHeader, policy domain.ImagePolicy) (*domain.Asset, error) {
	asset, err := s.upload(ctx, file, header, policy)
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.AssetUploads.WithLabelValues(policy.Name, result).Inc()
	return asset, err
}

func (s *MediaService) upload(ctx context.Context, file multipart.File, header *multipart.FileHeader, policy domain.ImagePolicy) (*domain.Asset, error) {
	data, _, err := readAndValidateImage(file, header, s.maxBytes)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidImageType, err)
	}

	out, bounds, err := transformToJPEG(img, policy)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/%s%s", policy.Folder, uuid.NewString(), domain.AssetExt)
	if err := s.putWithFallback(ctx, key, out); err != nil {
		return nil, err
	}

	return &domain.Asset{
		URL:    fmt.Sprintf("%s/%s", s.publicURL, key),
		Key:    key,
		Bytes:  len(out),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Format: "jpg",
	}, nil
}

// readAndValidateImage loads the upload into memory with size and type checks.
func readAndValidateImage(file multipart.File, header *multipart.FileHeader, maxSize int64) ([]byte, string, error) {
	if header.Size > maxSize {
		return nil, "", domain.ErrFileTooLarge
	}

	limitedReader := io.LimitReader(file, maxSize+1)
	data, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, "", domain.ErrFileTooLarge
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data[:min(len(data), 512)])
	}
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	if !domain.IsAllowedImageType(contentType) {
		return nil, "", domain.ErrInvalidImageType
	}

	return data, contentType, nil
}

// transformToJPEG applies the policy box: crop policies fill it from the
// centre, others scale down to fit inside it.
func transformToJPEG(img image.Image, policy domain.ImagePolicy) ([]byte, image.Rectangle, error) {
	var resized image.Image
	if policy.Crop {
		resized = imaging.Fill(img, policy.Width, policy.Height, imaging.Center, imaging.Lanczos)
	} else {
		resized = imaging.Fit(img, policy.Width, policy.Height, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(domain.AssetJPEGQuality)); err != nil {
		return nil, image.Rectangle{}, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), resized.Bounds(), nil
}

// putWithFallback makes one direct attempt and, if it fails, a single
// retry. Each attempt gets its own timeout.
func (s *MediaService) putWithFallback(ctx context.Context, key string, body []byte) error {
	err := s.putObject(ctx, key, body)
	if err == nil {
		return nil
	}
	logger.Log.Warn("[MediaService] Direct upload failed, retrying", zap.String("key", key), zap.Error(err))

	if err := s.putObject(ctx, key, body); err != nil {
		logger.Log.Error("[MediaService] Upload failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}
	return nil
}

func (s *MediaService) putObject(ctx context.Context, key string, body []byte) error {
	attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.client.PutObject(attemptCtx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(domain.ContentTypeJPEG),
		CacheControl:  aws.String(domain.AssetCacheControl),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to r2: %w", err)
	}
	return nil
}

// Delete removes an object by key. Callers go through the janitor, which
// filters the shared default keys.
func (s *MediaService) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from r2: %w", err)
	}
	return nil
}
