package s3

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	s3aws "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrymomot/dimreg/core/ingest"
)

var _ ingest.Source = (*Source)(nil)

// Client is the subset of the S3 API the source uses.
type Client interface {
	ListObjectsV2(ctx context.Context, params *s3aws.ListObjectsV2Input, optFns ...func(*s3aws.Options)) (*s3aws.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3aws.GetObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.GetObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3aws.HeadBucketInput, optFns ...func(*s3aws.Options)) (*s3aws.HeadBucketOutput, error)
}

// Source lists and fetches constraint documents stored as objects under a
// key prefix. Document names are full object keys.
type Source struct {
	client        Client
	bucket        string
	prefix        string
	maxObjectSize int64
	match         func(key string) bool
}

// Option configures a Source.
type Option func(*options)

type options struct {
	client        Client
	httpClient    *http.Client
	configOptions []func(*config.LoadOptions) error
	clientOptions []func(*s3aws.Options)
	match         func(key string) bool
}

// WithClient sets a pre-configured client. Used by tests and for advanced setups.
func WithClient(c Client) Option {
	return func(o *options) {
		o.client = c
	}
}

// WithHTTPClient sets the HTTP client for SDK requests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithConfigOption adds an AWS config load option.
func WithConfigOption(opt func(*config.LoadOptions) error) Option {
	return func(o *options) {
		o.configOptions = append(o.configOptions, opt)
	}
}

// WithClientOption adds an S3 client option.
func WithClientOption(opt func(*s3aws.Options)) Option {
	return func(o *options) {
		o.clientOptions = append(o.clientOptions, opt)
	}
}

// WithKeyFilter replaces the default filter, which accepts keys named like
// constraints_<dataset>.json or .yaml.
func WithKeyFilter(fn func(key string) bool) Option {
	return func(o *options) {
		o.match = fn
	}
}

// New creates a Source. Without WithClient it builds an SDK client from cfg.
func New(ctx context.Context, cfg Config, opts ...Option) (*Source, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, ErrInvalidConfig
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	client := o.client
	if client == nil {
		awsOptions := []func(*config.LoadOptions) error{
			config.WithRegion(cfg.Region),
		}
		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			awsOptions = append(awsOptions,
				config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
					cfg.AccessKeyID,
					cfg.SecretKey,
					"",
				)),
			)
		}
		if o.httpClient != nil {
			awsOptions = append(awsOptions, config.WithHTTPClient(o.httpClient))
		}
		awsOptions = append(awsOptions, o.configOptions...)

		awsConfig, err := config.LoadDefaultConfig(ctx, awsOptions...)
		if err != nil {
			return nil, fmt.Errorf("s3: load AWS config: %w", err)
		}
		client = s3aws.NewFromConfig(awsConfig, func(so *s3aws.Options) {
			if cfg.Endpoint != "" {
				so.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			so.UsePathStyle = cfg.ForcePathStyle
			for _, opt := range o.clientOptions {
				opt(so)
			}
		})
	}

	match := o.match
	if match == nil {
		match = func(key string) bool {
			_, ok := ingest.DatasetIDFromName(key)
			return ok
		}
	}

	prefix := strings.TrimPrefix(cfg.Prefix, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	return &Source{
		client:        client,
		bucket:        cfg.Bucket,
		prefix:        prefix,
		maxObjectSize: cfg.MaxObjectSize,
		match:         match,
	}, nil
}

// List returns the matching keys under the prefix, sorted. All pages are read.
func (s *Source) List(ctx context.Context) ([]string, error) {
	paginator := s3aws.NewListObjectsV2Paginator(s.client, &s3aws.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classifyError(err, "list objects")
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if key == "" || strings.HasSuffix(key, "/") || !s.match(key) {
				continue
			}
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

// Fetch downloads one object. Objects larger than the configured limit are rejected.
func (s *Source) Fetch(ctx context.Context, key string) ([]byte, error) {
	if key == "" || strings.Contains(key, "..") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	out, err := s.client.GetObject(ctx, &s3aws.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, classifyError(err, "get object "+key)
	}
	defer func() { _ = out.Body.Close() }()

	var r io.Reader = out.Body
	if s.maxObjectSize > 0 {
		r = io.LimitReader(out.Body, s.maxObjectSize+1)
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, classifyError(err, "read object "+key)
	}
	if s.maxObjectSize > 0 && int64(len(raw)) > s.maxObjectSize {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", ErrTooLarge, key, s.maxObjectSize)
	}
	return raw, nil
}

// Healthcheck returns a readiness check that verifies the bucket is reachable.
func Healthcheck(s *Source) func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := s.client.HeadBucket(ctx, &s3aws.HeadBucketInput{Bucket: aws.String(s.bucket)})
		return classifyError(err, "head bucket")
	}
}
