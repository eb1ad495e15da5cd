package minio

import (
	"fmt"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/streamwell/connect/objectstore"
)

// clientConfig holds the configuration assembled from Option values.
type clientConfig struct {
	accessKey    string
	secretKey    string
	sessionToken string
	region       string
	secure       bool
	partSize     int64
	transport    http.RoundTripper
}

// Option configures the MinIO client during construction.
type Option func(*clientConfig)

// WithCredentials sets static access credentials for the endpoint.
// When no credentials are provided the client falls back to the
// MINIO_ACCESS_KEY / MINIO_SECRET_KEY environment variables.
func WithCredentials(accessKey, secretKey string) Option {
	return func(c *clientConfig) {
		c.accessKey = accessKey
		c.secretKey = secretKey
	}
}

// WithSessionToken sets the STS session token used with static credentials.
func WithSessionToken(token string) Option {
	return func(c *clientConfig) {
		c.sessionToken = token
	}
}

// WithRegion sets the region sent on bucket-creating requests.
func WithRegion(region string) Option {
	return func(c *clientConfig) {
		c.region = region
	}
}

// WithSecure toggles TLS for the endpoint connection. TLS is on by default.
func WithSecure(secure bool) Option {
	return func(c *clientConfig) {
		c.secure = secure
	}
}

// WithPartSize sets the default part size for streaming multipart uploads.
// Values below the provider minimum of 5MB are raised to it.
func WithPartSize(partSize int64) Option {
	return func(c *clientConfig) {
		if partSize > 0 {
			c.partSize = partSize
		}
	}
}

// WithTransport sets a custom HTTP transport for the underlying client.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *clientConfig) {
		c.transport = rt
	}
}

// Client is a MinIO connector handle. It is safe for concurrent use.
type Client struct {
	mc       *minio.Client
	core     coreAPI
	region   string
	partSize int64
}

// New creates a MinIO client for the given endpoint.
//
// Example:
//
//	client, err := minio.New("localhost:9000",
//	    minio.WithCredentials("minioadmin", "minioadmin"),
//	    minio.WithSecure(false),
//	)
func New(endpoint string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		secure:   true,
		partSize: objectstore.MinPartSize,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	var creds *credentials.Credentials
	if cfg.accessKey != "" {
		creds = credentials.NewStaticV4(cfg.accessKey, cfg.secretKey, cfg.sessionToken)
	} else {
		creds = credentials.NewEnvMinio()
	}

	core, err := minio.NewCore(endpoint, &minio.Options{
		Creds:     creds,
		Secure:    cfg.secure,
		Region:    cfg.region,
		Transport: cfg.transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &Client{
		mc:       core.Client,
		core:     core,
		region:   cfg.region,
		partSize: cfg.partSize,
	}, nil
}
