package gcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	conerrors "github.com/streamwell/connect/errors"
	"github.com/streamwell/connect/objectstore"
	"github.com/streamwell/connect/stream"
)

// clientConfig holds the configuration assembled from Option values.
type clientConfig struct {
	chunkSize       int
	endpoint        string
	credentialsFile string
	withoutAuth     bool
}

// Option configures the GCS client during construction.
type Option func(*clientConfig)

// WithChunkSize sets the resumable writer chunk size for streaming uploads.
// Values below the 5MB floor shared with the multipart connectors are raised
// to it.
func WithChunkSize(chunkSize int) Option {
	return func(c *clientConfig) {
		if chunkSize > 0 {
			c.chunkSize = chunkSize
		}
	}
}

// WithEndpoint sets a custom storage endpoint, e.g. a fake-gcs-server URL.
func WithEndpoint(endpoint string) Option {
	return func(c *clientConfig) {
		c.endpoint = endpoint
	}
}

// WithCredentialsFile sets the service account JSON file used for auth.
func WithCredentialsFile(path string) Option {
	return func(c *clientConfig) {
		c.credentialsFile = path
	}
}

// WithoutAuthentication disables authentication, for use against emulators.
func WithoutAuthentication() Option {
	return func(c *clientConfig) {
		c.withoutAuth = true
	}
}

// UploadOption configures a single upload operation.
type UploadOption func(*uploadConfig)

type uploadConfig struct {
	contentType  string
	metadata     map[string]string
	storageClass string
	chunkSize    int
}

// WithContentType sets the MIME type of the uploaded object.
func WithContentType(contentType string) UploadOption {
	return func(c *uploadConfig) {
		c.contentType = contentType
	}
}

// WithMetadata sets user-defined metadata on the uploaded object.
func WithMetadata(metadata map[string]string) UploadOption {
	return func(c *uploadConfig) {
		c.metadata = metadata
	}
}

// WithStorageClass sets the storage class for the uploaded object.
func WithStorageClass(storageClass string) UploadOption {
	return func(c *uploadConfig) {
		c.storageClass = storageClass
	}
}

// WithUploadChunkSize sets the writer chunk size for this specific upload,
// overriding the client-level default.
func WithUploadChunkSize(chunkSize int) UploadOption {
	return func(c *uploadConfig) {
		if chunkSize > 0 {
			c.chunkSize = chunkSize
		}
	}
}

// Client is a Google Cloud Storage connector handle. It is safe for
// concurrent use.
type Client struct {
	gc        *storage.Client
	chunkSize int
}

// New creates a GCS client using application default credentials unless
// overridden by options.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		chunkSize: objectstore.MinPartSize,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	var clientOpts []option.ClientOption
	if cfg.endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(cfg.endpoint))
	}
	if cfg.credentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.credentialsFile))
	}
	if cfg.withoutAuth {
		clientOpts = append(clientOpts, option.WithoutAuthentication())
	}

	gc, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &Client{
		gc:        gc,
		chunkSize: cfg.chunkSize,
	}, nil
}

// Close releases resources held by the underlying storage client.
func (c *Client) Close() error {
	if err := c.gc.Close(); err != nil {
		return fmt.Errorf("failed to close storage client: %w", err)
	}
	return nil
}

// Upload streams chunks from src into bucket/key through a resumable writer
// and returns the number of bytes written.
//
// The writer buffers up to the configured chunk size before each resumable
// request, mirroring the part accumulation of the multipart connectors. On
// source or write failure the writer's context is canceled so the partial
// upload is discarded; on success the final Close commits the object.
//
// Errors:
//   - ErrInvalidInput: If bucket, key, or src is missing
//   - ErrCompletion: If the final commit fails after all chunks were written
func (c *Client) Upload(
	ctx context.Context,
	bucket string,
	key string,
	src stream.Source,
	opts ...UploadOption,
) (int64, error) {
	if bucket == "" {
		return 0, conerrors.NewError("upload", conerrors.ErrInvalidInput).
			WithMessage("bucket name cannot be empty")
	}
	if key == "" {
		return 0, conerrors.NewError("upload", conerrors.ErrInvalidInput).
			WithBucket(bucket).
			WithMessage("object key cannot be empty")
	}
	if src == nil {
		return 0, conerrors.NewError("upload", conerrors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage("source cannot be nil")
	}

	cfg := &uploadConfig{chunkSize: c.chunkSize}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	// Canceling wctx is the storage API's abort: buffered and already-sent
	// data is discarded and no object becomes visible.
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := c.gc.Bucket(bucket).Object(key).NewWriter(wctx)
	w.ChunkSize = cfg.chunkSize
	w.ContentType = cfg.contentType
	w.Metadata = cfg.metadata
	w.StorageClass = cfg.storageClass

	written, err := drainSource(wctx, w, cancel, src)
	if err != nil {
		return written, conerrors.NewError("upload", err).WithBucket(bucket).WithKey(key)
	}

	return written, nil
}

// drainSource copies src into w and finalizes the writer with exactly one
// of commit/abort. abort cancels the writer's context before Close so the
// upload is dropped rather than committed.
func drainSource(ctx context.Context, w io.WriteCloser, abort context.CancelFunc, src stream.Source) (int64, error) {
	written, err := stream.Copy(ctx, w, src)
	if err != nil {
		abort()
		_ = w.Close()
		return written, err
	}

	if err := w.Close(); err != nil {
		return written, fmt.Errorf("%w: %w", conerrors.ErrCompletion, err)
	}

	return written, nil
}

// UploadReader streams the contents of reader into bucket/key.
func (c *Client) UploadReader(
	ctx context.Context,
	bucket string,
	key string,
	reader io.Reader,
	opts ...UploadOption,
) (int64, error) {
	if reader == nil {
		return 0, conerrors.NewError("upload", conerrors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage("reader cannot be nil")
	}

	return c.Upload(ctx, bucket, key, stream.FromReader(reader, stream.DefaultReadSize), opts...)
}

// Put uploads a byte slice as a single object.
func (c *Client) Put(ctx context.Context, bucket, key string, data []byte, opts ...UploadOption) error {
	_, err := c.Upload(ctx, bucket, key, stream.FromChunks(data), opts...)
	return err
}

// Get downloads an entire object into memory.
//
// Use GetSource or Download for large objects.
func (c *Client) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := c.Download(ctx, bucket, key, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Download streams an object into writer and returns the number of bytes
// written.
func (c *Client) Download(ctx context.Context, bucket, key string, writer io.Writer) (int64, error) {
	if writer == nil {
		return 0, conerrors.NewError("download", conerrors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage("writer cannot be nil")
	}

	r, err := c.gc.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		return 0, conerrors.NewError("download", convertError(err)).WithBucket(bucket).WithKey(key)
	}
	defer r.Close()

	written, err := io.Copy(writer, r)
	if err != nil {
		return written, conerrors.NewError("download", err).WithBucket(bucket).WithKey(key)
	}

	return written, nil
}

// GetSource opens an object as a chunk source for downstream consumers.
// The returned source closes the underlying reader once it is exhausted or
// fails.
func (c *Client) GetSource(ctx context.Context, bucket, key string) (stream.Source, error) {
	r, err := c.gc.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, conerrors.NewError("getSource", convertError(err)).WithBucket(bucket).WithKey(key)
	}

	return stream.FromReadCloser(r, stream.DefaultReadSize), nil
}

// Delete removes an object.
func (c *Client) Delete(ctx context.Context, bucket, key string) error {
	if err := c.gc.Bucket(bucket).Object(key).Delete(ctx); err != nil {
		return conerrors.NewError("delete", convertError(err)).WithBucket(bucket).WithKey(key)
	}
	return nil
}

// Exists checks whether an object exists.
func (c *Client) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := c.gc.Bucket(bucket).Object(key).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		}
		return false, conerrors.NewError("exists", err).WithBucket(bucket).WithKey(key)
	}
	return true, nil
}

// Attrs returns the metadata of an object.
func (c *Client) Attrs(ctx context.Context, bucket, key string) (*storage.ObjectAttrs, error) {
	attrs, err := c.gc.Bucket(bucket).Object(key).Attrs(ctx)
	if err != nil {
		return nil, conerrors.NewError("attrs", convertError(err)).WithBucket(bucket).WithKey(key)
	}
	return attrs, nil
}

// BucketExists checks whether a bucket exists.
func (c *Client) BucketExists(ctx context.Context, bucket string) (bool, error) {
	_, err := c.gc.Bucket(bucket).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrBucketNotExist) {
			return false, nil
		}
		return false, conerrors.NewError("bucketExists", err).WithBucket(bucket)
	}
	return true, nil
}

// convertError maps storage sentinel errors onto the shared taxonomy.
func convertError(err error) error {
	switch {
	case errors.Is(err, storage.ErrObjectNotExist):
		return fmt.Errorf("%w: %w", conerrors.ErrObjectNotFound, err)
	case errors.Is(err, storage.ErrBucketNotExist):
		return fmt.Errorf("%w: %w", conerrors.ErrBucketNotFound, err)
	}
	return err
}
