// Package s3keys loads payload keys stored as objects in an S3 bucket, one
// object per key name under an optional prefix.
package s3keys

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"vozsegura/internal/secrets"
	"vozsegura/pkg/platform/sentinel"
)

const maxKeyObjectSize = 4 << 10

// ObjectGetter is the subset of *s3.Client the provider needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type Config struct {
	Bucket   string
	Prefix   string
	Region   string
	Endpoint string
}

type Provider struct {
	client ObjectGetter
	bucket string
	prefix string
}

// New builds a provider from the default AWS credential chain.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("key bucket is required")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

func NewWithClient(client ObjectGetter, bucket, prefix string) *Provider {
	return &Provider{client: client, bucket: bucket, prefix: prefix}
}

// GetKey reads the object <prefix><name> and decodes it as hex or base64.
func (p *Provider) GetKey(ctx context.Context, name string) ([]byte, error) {
	out, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(p.prefix + name),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get key %q: %v: %w", name, err, sentinel.ErrUnavailable)
	}
	defer func() { _ = out.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(out.Body, maxKeyObjectSize))
	if err != nil {
		return nil, fmt.Errorf("read key %q: %v: %w", name, err, sentinel.ErrUnavailable)
	}
	key, err := secrets.DecodeKey(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("decode key %q: %v: %w", name, err, sentinel.ErrUnavailable)
	}
	return key, nil
}
