// Package storage uploads captured screenshots to S3-compatible object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/smazurov/doorbell/internal/logging"
)

// Defaults matching the deployed doorbell bucket.
const (
	DefaultBucket = "smart-doorbell-bucket"
	DefaultRegion = "us-east-1"
	DefaultPrefix = "screenshots"

	jpegContentType = "image/jpeg"
)

// ErrUploadFailed is matched by every UploadError.
var ErrUploadFailed = errors.New("screenshot upload failed")

// UploadError reports a failed upload. The local file is left in place.
type UploadError struct {
	Bucket    string
	Key       string
	LocalPath string
	Err       error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("failed to upload %s to s3://%s/%s: %v", e.LocalPath, e.Bucket, e.Key, e.Err)
}

// Unwrap returns the underlying cause.
func (e *UploadError) Unwrap() error { return e.Err }

// Is reports whether target is ErrUploadFailed.
func (e *UploadError) Is(target error) bool { return target == ErrUploadFailed }

// Uploader stores a local file under key and returns a retrievable URL.
type Uploader interface {
	Upload(ctx context.Context, key, localPath string) (string, error)
}

// PutObjectAPI is the subset of the S3 client used for uploads.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Config configures the S3 uploader.
type Config struct {
	Bucket        string
	Region        string
	Prefix        string
	Endpoint      string // custom S3-compatible endpoint, e.g. http://minio:9000
	PathStyle     bool
	PublicBaseURL string // overrides the generated object URL
}

func (c Config) withDefaults() Config {
	if c.Bucket == "" {
		c.Bucket = DefaultBucket
	}
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	return c
}

// S3Uploader uploads objects with PutObject.
type S3Uploader struct {
	client PutObjectAPI
	cfg    Config
	logger logging.Logger
}

// NewS3Uploader loads AWS credentials from the default chain (env, shared config, IMDS)
// and builds an uploader for cfg. An empty Region uses the chain's region, then DefaultRegion.
func NewS3Uploader(ctx context.Context, cfg Config) (*S3Uploader, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if awsCfg.Region == "" {
		awsCfg.Region = DefaultRegion
	}
	cfg.Region = awsCfg.Region
	cfg = cfg.withDefaults()

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	return NewS3UploaderWithClient(client, cfg), nil
}

// NewS3UploaderWithClient builds an uploader around an existing client.
func NewS3UploaderWithClient(client PutObjectAPI, cfg Config) *S3Uploader {
	return &S3Uploader{
		client: client,
		cfg:    cfg.withDefaults(),
		logger: logging.GetLogger("storage"),
	}
}

// Upload puts localPath at key as image/jpeg.
func (u *S3Uploader) Upload(ctx context.Context, key, localPath string) (string, error) {
	uploadErr := func(err error) error {
		return &UploadError{Bucket: u.cfg.Bucket, Key: key, LocalPath: localPath, Err: err}
	}

	file, err := os.Open(localPath)
	if err != nil {
		return "", uploadErr(err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", uploadErr(err)
	}

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.cfg.Bucket),
		Key:           aws.String(key),
		Body:          file,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String(jpegContentType),
	})
	if err != nil {
		u.logger.Error("Upload failed", "bucket", u.cfg.Bucket, "key", key, "error", err)
		return "", uploadErr(err)
	}

	objectURL := u.URL(key)
	u.logger.Info("Uploaded object", "bucket", u.cfg.Bucket, "key", key, "size", info.Size(), "url", objectURL)
	return objectURL, nil
}

// URL returns the retrievable URL of key.
func (u *S3Uploader) URL(key string) string {
	return ObjectURL(u.cfg, key)
}

// ObjectKey joins prefix and timestamp into "<prefix>/<timestamp>.jpg".
func ObjectKey(prefix, timestamp string) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return path.Join(strings.Trim(prefix, "/"), timestamp+".jpg")
}

// ObjectURL builds the public URL for key.
func ObjectURL(cfg Config, key string) string {
	cfg = cfg.withDefaults()
	escaped := escapeKey(key)

	if cfg.PublicBaseURL != "" {
		return strings.TrimRight(cfg.PublicBaseURL, "/") + "/" + escaped
	}
	if cfg.Endpoint != "" {
		base := strings.TrimRight(cfg.Endpoint, "/")
		if cfg.PathStyle {
			return fmt.Sprintf("%s/%s/%s", base, cfg.Bucket, escaped)
		}
		if u, err := url.Parse(base); err == nil && u.Host != "" {
			u.Host = cfg.Bucket + "." + u.Host
			return strings.TrimRight(u.String(), "/") + "/" + escaped
		}
		return fmt.Sprintf("%s/%s/%s", base, cfg.Bucket, escaped)
	}
	if cfg.PathStyle {
		return fmt.Sprintf("https://s3.%s.amazonaws.com/%s/%s", cfg.Region, cfg.Bucket, escaped)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", cfg.Bucket, cfg.Region, escaped)
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
