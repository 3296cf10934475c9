package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Static errors for S3 archival.
var (
	// ErrBucketRequired is returned when the bucket name is not provided.
	ErrBucketRequired = errors.New("archive: bucket is required")
	// ErrRegionRequired is returned when the region is not provided.
	ErrRegionRequired = errors.New("archive: region is required")
	// ErrNoVideoURL is returned when the video URL is not provided.
	ErrNoVideoURL = errors.New("archive: video URL is required")
	// ErrDownloadFailed is returned when the video cannot be fetched from the provider.
	ErrDownloadFailed = errors.New("archive: video download failed")
)

// Config holds the configuration for S3 archival.
type Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string // Optional: AWS access key ID
	SecretAccessKey string // Optional: AWS secret access key
	TempDir         string // Spool directory for downloads; os.TempDir() if empty
}

// objectPutter is the slice of the S3 API the archiver uses.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Compile-time check that S3Archiver implements Archiver.
var _ Archiver = (*S3Archiver)(nil)

// S3Archiver downloads a generated video to a spool file and uploads it to S3.
// The spool file is removed after the upload attempt.
type S3Archiver struct {
	client     objectPutter
	httpClient *http.Client
	bucket     string
	region     string
	tempDir    string
}

// Option is a function that configures an S3Archiver.
type Option func(*S3Archiver)

// WithHTTPClient sets a custom HTTP client for downloading videos.
func WithHTTPClient(c *http.Client) Option {
	return func(a *S3Archiver) {
		a.httpClient = c
	}
}

// NewS3Archiver creates an archiver that stores videos in the given bucket.
// Static credentials are used when provided; otherwise the default AWS
// credential chain applies. The spool directory is created if missing.
func NewS3Archiver(cfg Config, opts ...Option) (*S3Archiver, error) {
	if cfg.Bucket == "" {
		return nil, ErrBucketRequired
	}
	if cfg.Region == "" {
		return nil, ErrRegionRequired
	}

	tempDir := cfg.TempDir
	if tempDir == "" {
		tempDir = filepath.Join(os.TempDir(), "i2v")
	}
	if err := os.MkdirAll(tempDir, 0750); err != nil {
		return nil, fmt.Errorf("archive: create spool directory: %w", err)
	}

	var configOpts []func(*awsconfig.LoadOptions) error
	configOpts = append(configOpts, awsconfig.WithRegion(cfg.Region))

	// Use static credentials if provided
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOpts = append(configOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), configOpts...)
	if err != nil {
		return nil, fmt.Errorf("archive: load AWS config: %w", err)
	}

	a := &S3Archiver{
		client:     s3.NewFromConfig(awsCfg),
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		bucket:     cfg.Bucket,
		region:     cfg.Region,
		tempDir:    tempDir,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a, nil
}

// Archive downloads the video to a spool file, uploads it to S3 under
// videos/<requestID>.mp4, and returns the bucket URL.
func (a *S3Archiver) Archive(ctx context.Context, requestID, videoURL string) (string, error) {
	if videoURL == "" {
		return "", ErrNoVideoURL
	}

	spool, err := a.download(ctx, videoURL)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = spool.Close()
		_ = os.Remove(spool.Name())
	}()

	key := fmt.Sprintf("videos/%s.mp4", requestID)

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        spool,
		ContentType: aws.String("video/mp4"),
	})
	if err != nil {
		return "", fmt.Errorf("archive: upload to S3: %w", err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", a.bucket, a.region, key), nil
}

// download fetches the video into a spool file and returns it seeked to the start.
func (a *S3Archiver) download(ctx context.Context, videoURL string) (*os.File, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, videoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("archive: create download request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrDownloadFailed, resp.StatusCode)
	}

	f, err := os.CreateTemp(a.tempDir, "video_*.mp4")
	if err != nil {
		return nil, fmt.Errorf("archive: create spool file: %w", err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("archive: write spool file: %w", err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("archive: rewind spool file: %w", err)
	}

	return f, nil
}
