// Package mirror uploads a published HLS package to S3-compatible storage.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"hlspack/internal/config"
	"hlspack/internal/logging"
)

// ObjectUploader is the subset of the S3 upload manager used here.
type ObjectUploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Result summarises an upload.
type Result struct {
	Objects int
	Bytes   int64
}

// Mirror copies directory trees into one bucket under a key prefix.
type Mirror struct {
	bucket   string
	prefix   string
	uploader ObjectUploader
	logger   *slog.Logger
}

// New builds a Mirror backed by a static-credential S3 client.
func New(cfg config.Mirror, logger *slog.Logger) (*Mirror, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("mirror: bucket is required")
	}
	opts := s3.Options{
		Region:      cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
	}
	if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
		opts.BaseEndpoint = aws.String(endpoint)
		opts.UsePathStyle = true
	}
	client := s3.New(opts)
	return NewWithUploader(cfg.Bucket, cfg.Prefix, manager.NewUploader(client), logger), nil
}

// NewWithUploader builds a Mirror around an existing uploader.
func NewWithUploader(bucket, prefix string, uploader ObjectUploader, logger *slog.Logger) *Mirror {
	return &Mirror{
		bucket:   strings.TrimSpace(bucket),
		prefix:   strings.Trim(strings.TrimSpace(prefix), "/"),
		uploader: uploader,
		logger:   logging.NewComponentLogger(logger, "mirror"),
	}
}

// Key returns the object key for a file at rel inside the package named base.
func (m *Mirror) Key(base, rel string) string {
	rel = filepath.ToSlash(rel)
	if m.prefix == "" {
		return path.Join(base, rel)
	}
	return path.Join(m.prefix, base, rel)
}

// ContentType returns the MIME type served for an HLS file.
func ContentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".m3u8":
		return "application/vnd.apple.mpegurl"
	case ".ts":
		return "video/mp2t"
	default:
		return "application/octet-stream"
	}
}

// UploadTree uploads every regular file under root using base as the
// package name in the key. The first failed upload stops the walk.
func (m *Mirror) UploadTree(ctx context.Context, root, base string) (Result, error) {
	var result Result
	if m == nil || m.uploader == nil {
		return result, errors.New("mirror: not configured")
	}
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		size, err := m.uploadFile(ctx, p, m.Key(base, rel))
		if err != nil {
			return err
		}
		result.Objects++
		result.Bytes += size
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("mirror %s: %w", root, err)
	}
	m.logger.Info("mirror upload complete",
		logging.String("bucket", m.bucket),
		logging.String("key_prefix", m.Key(base, "")),
		logging.Int("objects", result.Objects),
		logging.Int64("bytes", result.Bytes),
	)
	return result, nil
}

func (m *Mirror) uploadFile(ctx context.Context, p, key string) (int64, error) {
	file, err := os.Open(p)
	if err != nil {
		return 0, err
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return 0, err
	}

	_, err = m.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(ContentType(p)),
	})
	if err != nil {
		return 0, fmt.Errorf("upload object %s to bucket %s: %w", key, m.bucket, err)
	}
	m.logger.Debug("uploaded object", logging.String("key", key), logging.Int64("bytes", info.Size()))
	return info.Size(), nil
}
