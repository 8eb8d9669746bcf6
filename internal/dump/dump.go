// Package dump writes raw and cleaned email bodies somewhere a developer
// can inspect them: a local directory or an S3 bucket.
package dump

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/nhle/inboundkit/internal/model"
)

// Sink stores a named blob.
type Sink interface {
	Put(ctx context.Context, name string, data []byte) (location string, err error)
}

// Names returns the raw and cleaned blob names for an email id. An empty
// id gets a random one so concurrent dumps never collide.
func Names(id string) (raw, cleaned string) {
	base := safeName(id)
	if base == "" {
		base = uuid.NewString()
	}
	return base + ".raw.html", base + ".cleaned.html"
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func safeName(id string) string {
	return strings.Trim(unsafeChars.ReplaceAllString(id, "_"), "._")
}

// New builds the sink selected by cfg.Type ("local" or "s3").
func New(ctx context.Context, cfg model.DumpConfig) (Sink, error) {
	switch cfg.Type {
	case "", "local":
		dir := cfg.LocalDir
		if dir == "" {
			dir = "emails"
		}
		return &FileSink{Dir: dir}, nil
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("dump.s3_bucket is required for the s3 sink")
		}
		region := cfg.S3Region
		if region == "" {
			region = "us-east-1"
		}
		awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		return NewS3Sink(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.S3Prefix), nil
	default:
		return nil, fmt.Errorf("unknown dump type %q", cfg.Type)
	}
}

// FileSink writes blobs under Dir.
type FileSink struct {
	Dir string
}

// Put writes data to Dir/name, creating Dir when needed.
func (s *FileSink) Put(_ context.Context, name string, data []byte) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating dump directory %s: %w", s.Dir, err)
	}
	path := filepath.Join(s.Dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// ObjectPutter is the subset of *s3.Client the S3 sink needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink writes blobs to a bucket under a key prefix.
type S3Sink struct {
	client ObjectPutter
	bucket string
	prefix string
}

// NewS3Sink returns a sink writing to bucket/prefix.
func NewS3Sink(client ObjectPutter, bucket, prefix string) *S3Sink {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Sink{client: client, bucket: bucket, prefix: prefix}
}

// Put uploads data as an HTML object.
func (s *S3Sink) Put(ctx context.Context, name string, data []byte) (string, error) {
	key := s.prefix + name
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/html; charset=utf-8"),
	})
	if err != nil {
		return "", fmt.Errorf("uploading s3://%s/%s: %w", s.bucket, key, err)
	}
	return "s3://" + s.bucket + "/" + key, nil
}
