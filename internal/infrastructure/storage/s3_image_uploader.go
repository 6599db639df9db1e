// Package storage stores variation images in S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stockwave/harmony/internal/domain/integration"
	"github.com/stockwave/harmony/internal/domain/variation"
	"github.com/stockwave/harmony/internal/infrastructure/config"
)

// DefaultMaxImageBytes caps an upload when no limit is configured
const DefaultMaxImageBytes int64 = 10 << 20

// S3ImageUploader implements integration.ImageUploader on any S3-compatible
// storage (AWS S3, MinIO, RustFS). The returned ImageRef carries only Src;
// the store imports the image by URL when the variation is submitted.
type S3ImageUploader struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
	publicURL string
	maxBytes  int64
	logger    *zap.Logger
	newKey    func() string
}

// S3ImageUploaderOption is a functional option for configuring S3ImageUploader
type S3ImageUploaderOption func(*S3ImageUploader)

// WithLogger sets a custom logger for S3ImageUploader
func WithLogger(logger *zap.Logger) S3ImageUploaderOption {
	return func(u *S3ImageUploader) {
		u.logger = logger
	}
}

// WithMaxBytes sets the largest accepted image
func WithMaxBytes(n int64) S3ImageUploaderOption {
	return func(u *S3ImageUploader) {
		if n > 0 {
			u.maxBytes = n
		}
	}
}

// NewS3ImageUploader creates an uploader from configuration.
func NewS3ImageUploader(cfg *config.S3Config, opts ...S3ImageUploaderOption) (*S3ImageUploader, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if (cfg.AccessKey == "") != (cfg.SecretKey == "") {
		return nil, errors.New("storage access key and secret key must be set together")
	}

	endpoint := cfg.Endpoint
	if endpoint != "" && !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if cfg.UseSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	if endpoint != "" {
		if _, err := url.Parse(endpoint); err != nil {
			return nil, fmt.Errorf("invalid storage endpoint: %w", err)
		}
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" {
		// Static keys; otherwise the default chain (env, shared config, IAM role) applies.
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			// S3-compatible servers lag behind on the flexible checksum headers.
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		}
	})

	u := &S3ImageUploader{
		client:    client,
		bucket:    cfg.Bucket,
		keyPrefix: strings.Trim(cfg.KeyPrefix, "/"),
		publicURL: publicBaseURL(cfg, endpoint, region),
		maxBytes:  DefaultMaxImageBytes,
		logger:    zap.NewNop(),
		newKey:    func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(u)
	}
	return u, nil
}

// publicBaseURL is where uploaded objects are reachable from the store
func publicBaseURL(cfg *config.S3Config, endpoint, region string) string {
	switch {
	case cfg.PublicURL != "":
		return strings.TrimRight(cfg.PublicURL, "/")
	case endpoint != "":
		return strings.TrimRight(endpoint, "/") + "/" + cfg.Bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, region)
	}
}

// EnsureBucket creates the bucket if it doesn't exist.
// Call this during application startup to ensure the bucket is ready.
func (u *S3ImageUploader) EnsureBucket(ctx context.Context) error {
	_, err := u.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(u.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	u.logger.Info("Creating image bucket", zap.String("bucket", u.bucket))
	_, err = u.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(u.bucket),
	})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// UploadVariationImage stores the image under
// <prefix>/product-<id>/<uuid><ext> and returns its public URL.
func (u *S3ImageUploader) UploadVariationImage(ctx context.Context, upload integration.ImageUpload) (variation.ImageRef, error) {
	if upload.ProductID < 0 {
		return variation.ImageRef{}, fmt.Errorf("%w: invalid product id %d", integration.ErrImageInvalid, upload.ProductID)
	}
	data, err := readImage(upload.Body, u.maxBytes)
	if err != nil {
		return variation.ImageRef{}, err
	}

	contentType := upload.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return variation.ImageRef{}, fmt.Errorf("%w: content type %q", integration.ErrImageInvalid, contentType)
	}

	key := u.objectKey(upload.ProductID, upload.Filename, contentType)
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return variation.ImageRef{}, fmt.Errorf("%w: %v", integration.ErrImageUploadFailed, err)
	}

	u.logger.Info("variation image stored",
		zap.Int64("product_id", upload.ProductID),
		zap.String("bucket", u.bucket),
		zap.String("key", key),
	)
	return variation.ImageRef{Src: u.publicURL + "/" + key}, nil
}

// DeleteImage removes a previously uploaded image given its public URL.
// URLs outside this bucket are ignored.
func (u *S3ImageUploader) DeleteImage(ctx context.Context, ref variation.ImageRef) error {
	key, ok := strings.CutPrefix(ref.Src, u.publicURL+"/")
	if !ok || key == "" {
		return nil
	}
	_, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// Bucket returns the bucket name
func (u *S3ImageUploader) Bucket() string {
	return u.bucket
}

func (u *S3ImageUploader) objectKey(productID int64, filename, contentType string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, "\\", "/"))))
	if ext == "" || len(ext) > 6 {
		ext = ""
		if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
			ext = exts[0]
		}
	}
	parts := []string{"product-" + strconv.FormatInt(productID, 10), u.newKey() + ext}
	if u.keyPrefix != "" {
		parts = append([]string{u.keyPrefix}, parts...)
	}
	return strings.Join(parts, "/")
}

func readImage(body io.Reader, maxBytes int64) ([]byte, error) {
	if body == nil {
		return nil, fmt.Errorf("%w: empty body", integration.ErrImageInvalid)
	}
	data, err := io.ReadAll(io.LimitReader(body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrImageInvalid, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty body", integration.ErrImageInvalid)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: larger than %d bytes", integration.ErrImageInvalid, maxBytes)
	}
	return data, nil
}

// Ensure S3ImageUploader implements ImageUploader
var _ integration.ImageUploader = (*S3ImageUploader)(nil)
