// Package store is a thin client over the S3-compatible object store API,
// covering the two operations deployment needs: a startup reachability probe
// and a one-shot prefix download for model preload.
package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// Options configures the object store client.
type Options struct {
	// Endpoint overrides the SDK's endpoint resolution; required for gs://
	// buckets (interop endpoint) and local S3 stands.
	Endpoint string
	Region   string
	// Static HMAC credentials. When empty the SDK's default chain applies.
	AccessKey string
	SecretKey string
}

// Client wraps the S3 API client.
type Client struct {
	s3  *s3.Client
	log zerolog.Logger
}

// New builds a client from the default AWS config chain plus overrides.
func New(ctx context.Context, log zerolog.Logger, opts Options) (*Client, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			awscreds.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load store config: %w", err)
	}
	cli := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &Client{s3: cli, log: log}, nil
}

// Probe issues a trivial list against the bucket to exercise the credential.
// Callers log the result; a probe failure is never fatal.
func (c *Client) Probe(ctx context.Context, bucket string) error {
	_, err := c.s3.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return fmt.Errorf("list %s: %w", bucket, err)
	}
	return nil
}

// FetchPrefix downloads every object under uri into destDir, preserving key
// paths relative to the prefix. Returns the number of objects fetched; zero
// objects is an error since a model artifact cannot be empty.
func (c *Client) FetchPrefix(ctx context.Context, uri URI, destDir string) (int, error) {
	prefix := uri.Prefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	p := s3.NewListObjectsV2Paginator(c.s3, &s3.ListObjectsV2Input{
		Bucket: aws.String(uri.Bucket),
		Prefix: aws.String(prefix),
	})
	n := 0
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return n, fmt.Errorf("list %s: %w", uri, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			rel := strings.TrimPrefix(key, prefix)
			if rel == "" || strings.HasSuffix(rel, "/") {
				continue
			}
			dest, err := safeJoin(destDir, rel)
			if err != nil {
				return n, fmt.Errorf("object %s/%s: %w", uri.Bucket, key, err)
			}
			if err := c.fetchObject(ctx, uri.Bucket, key, dest); err != nil {
				return n, err
			}
			n++
		}
	}
	if n == 0 {
		return 0, fmt.Errorf("no objects under %s", uri)
	}
	c.log.Info().Str("uri", uri.String()).Int("objects", n).Msg("artifact fetched")
	return n, nil
}

// safeJoin joins rel under destDir, rejecting keys whose path would resolve
// outside it (`..` segments, absolute paths).
func safeJoin(destDir, rel string) (string, error) {
	rel = filepath.FromSlash(rel)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("key escapes destination directory: %q", rel)
	}
	return filepath.Join(destDir, rel), nil
}

func (c *Client) fetchObject(ctx context.Context, bucket, key, dest string) error {
	out, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("get %s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("mkdir for %s: %w", dest, err)
	}
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, out.Body); err != nil {
		return fmt.Errorf("download %s/%s: %w", bucket, key, err)
	}
	return nil
}
