package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"

	conerrors "github.com/streamwell/connect/errors"
	"github.com/streamwell/connect/objectstore"
	"github.com/streamwell/connect/stream"
)

// uploadConfig holds per-upload settings assembled from UploadOption values.
type uploadConfig struct {
	settings objectstore.UploadSettings
	partSize int64
}

// UploadOption configures a single upload operation.
type UploadOption func(*uploadConfig)

// WithContentType sets the MIME type of the uploaded object.
func WithContentType(contentType string) UploadOption {
	return func(c *uploadConfig) {
		c.settings.ContentType = contentType
	}
}

// WithMetadata sets user-defined metadata on the uploaded object.
func WithMetadata(metadata map[string]string) UploadOption {
	return func(c *uploadConfig) {
		c.settings.Metadata = metadata
	}
}

// WithStorageClass sets the storage class for the uploaded object.
func WithStorageClass(storageClass string) UploadOption {
	return func(c *uploadConfig) {
		c.settings.StorageClass = storageClass
	}
}

// WithTagging sets object tags in query-string form, e.g. "env=prod&team=data".
func WithTagging(tagging string) UploadOption {
	return func(c *uploadConfig) {
		c.settings.Tagging = tagging
	}
}

// WithSSEKMS enables KMS-managed server-side encryption with the given key.
func WithSSEKMS(kmsKeyID string) UploadOption {
	return func(c *uploadConfig) {
		c.settings.SSE = &objectstore.SSESettings{
			Type:     "aws:kms",
			KMSKeyID: kmsKeyID,
		}
	}
}

// WithUploadPartSize sets the part size for this specific upload,
// overriding the client-level default.
func WithUploadPartSize(partSize int64) UploadOption {
	return func(c *uploadConfig) {
		if partSize > 0 {
			c.partSize = partSize
		}
	}
}

// Upload streams chunks from src into a multipart upload for bucket/key.
//
// Chunks are accumulated until a full part is available, parts are written
// sequentially, and the upload is finalized once src terminates. On part or
// source failure the multipart session is aborted so no partial object
// becomes visible.
//
// Errors:
//   - ErrInvalidInput: If bucket, key, or src is missing
//   - ErrSessionCreate, ErrPartUpload, ErrCompletion: For multipart failures
func (c *Client) Upload(
	ctx context.Context,
	bucket string,
	key string,
	src stream.Source,
	opts ...UploadOption,
) (*objectstore.CompletionInfo, error) {
	if bucket == "" {
		return nil, conerrors.NewError("upload", conerrors.ErrInvalidInput).
			WithMessage("bucket name cannot be empty")
	}
	if key == "" {
		return nil, conerrors.NewError("upload", conerrors.ErrInvalidInput).
			WithBucket(bucket).
			WithMessage("object key cannot be empty")
	}
	if src == nil {
		return nil, conerrors.NewError("upload", conerrors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage("source cannot be nil")
	}

	cfg := &uploadConfig{partSize: c.partSize}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	uploader := objectstore.NewChunkUploader(c.MultipartSession(bucket), key, cfg.settings, cfg.partSize)
	info, err := uploader.Upload(ctx, src)
	if err != nil {
		return nil, conerrors.NewError("upload", err).WithBucket(bucket)
	}

	return info, nil
}

// UploadReader streams the contents of reader into bucket/key.
func (c *Client) UploadReader(
	ctx context.Context,
	bucket string,
	key string,
	reader io.Reader,
	opts ...UploadOption,
) (*objectstore.CompletionInfo, error) {
	if reader == nil {
		return nil, conerrors.NewError("upload", conerrors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage("reader cannot be nil")
	}

	return c.Upload(ctx, bucket, key, stream.FromReader(reader, stream.DefaultReadSize), opts...)
}

// Put uploads a byte slice as a single object.
//
// Use Upload for payloads of unknown or unbounded size.
func (c *Client) Put(ctx context.Context, bucket, key string, data []byte, opts ...UploadOption) error {
	if bucket == "" {
		return conerrors.NewError("put", conerrors.ErrInvalidInput).
			WithMessage("bucket name cannot be empty")
	}
	if key == "" {
		return conerrors.NewError("put", conerrors.ErrInvalidInput).
			WithBucket(bucket).
			WithMessage("object key cannot be empty")
	}

	cfg := &uploadConfig{partSize: c.partSize}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	putOpts, err := putOptionsFrom(cfg.settings)
	if err != nil {
		return conerrors.NewError("put", err).WithBucket(bucket).WithKey(key)
	}

	_, err = c.mc.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), putOpts)
	if err != nil {
		return conerrors.NewError("put", c.convertError(err)).WithBucket(bucket).WithKey(key)
	}

	return nil
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
	if bucket == "" {
		return 0, conerrors.NewError("download", conerrors.ErrInvalidInput).
			WithMessage("bucket name cannot be empty")
	}
	if key == "" {
		return 0, conerrors.NewError("download", conerrors.ErrInvalidInput).
			WithBucket(bucket).
			WithMessage("object key cannot be empty")
	}
	if writer == nil {
		return 0, conerrors.NewError("download", conerrors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage("writer cannot be nil")
	}

	obj, err := c.mc.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return 0, conerrors.NewError("download", c.convertError(err)).WithBucket(bucket).WithKey(key)
	}
	defer obj.Close()

	written, err := io.Copy(writer, obj)
	if err != nil {
		return written, conerrors.NewError("download", c.convertError(err)).WithBucket(bucket).WithKey(key)
	}

	return written, nil
}

// GetSource opens an object as a chunk source for downstream consumers.
// The returned source closes the underlying connection once it is exhausted
// or fails.
func (c *Client) GetSource(ctx context.Context, bucket, key string) (stream.Source, error) {
	if bucket == "" {
		return nil, conerrors.NewError("getSource", conerrors.ErrInvalidInput).
			WithMessage("bucket name cannot be empty")
	}
	if key == "" {
		return nil, conerrors.NewError("getSource", conerrors.ErrInvalidInput).
			WithBucket(bucket).
			WithMessage("object key cannot be empty")
	}

	obj, err := c.mc.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, conerrors.NewError("getSource", c.convertError(err)).WithBucket(bucket).WithKey(key)
	}

	// GetObject defers errors until the first read; surface missing objects now.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, conerrors.NewError("getSource", c.convertError(err)).WithBucket(bucket).WithKey(key)
	}

	return stream.FromReadCloser(obj, stream.DefaultReadSize), nil
}

// Stat returns the metadata of an object.
func (c *Client) Stat(ctx context.Context, bucket, key string) (minio.ObjectInfo, error) {
	info, err := c.mc.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return minio.ObjectInfo{}, conerrors.NewError("stat", c.convertError(err)).
			WithBucket(bucket).
			WithKey(key)
	}
	return info, nil
}

// Exists checks whether an object exists.
func (c *Client) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := c.mc.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NotFound" {
			return false, nil
		}
		return false, conerrors.NewError("exists", err).WithBucket(bucket).WithKey(key)
	}
	return true, nil
}

// Remove deletes an object.
func (c *Client) Remove(ctx context.Context, bucket, key string) error {
	if err := c.mc.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return conerrors.NewError("remove", c.convertError(err)).WithBucket(bucket).WithKey(key)
	}
	return nil
}

// List returns all objects in a bucket with the given prefix.
func (c *Client) List(ctx context.Context, bucket, prefix string) ([]minio.ObjectInfo, error) {
	var objects []minio.ObjectInfo
	for obj := range c.mc.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, conerrors.NewError("list", c.convertError(obj.Err)).WithBucket(bucket)
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

// Copy performs a server-side copy of an object.
func (c *Client) Copy(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	if srcBucket == dstBucket && srcKey == dstKey {
		return conerrors.NewError("copy", conerrors.ErrInvalidInput).
			WithBucket(srcBucket).
			WithKey(srcKey).
			WithMessage("cannot copy object to itself")
	}

	_, err := c.mc.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: dstBucket, Object: dstKey},
		minio.CopySrcOptions{Bucket: srcBucket, Object: srcKey},
	)
	if err != nil {
		return conerrors.NewError("copy", c.convertError(err)).WithBucket(dstBucket).WithKey(dstKey)
	}

	return nil
}

// MakeBucket creates a bucket in the client's configured region.
func (c *Client) MakeBucket(ctx context.Context, bucket string) error {
	err := c.mc.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: c.region})
	if err != nil {
		return conerrors.NewError("makeBucket", c.convertError(err)).WithBucket(bucket)
	}
	return nil
}

// RemoveBucket deletes an empty bucket.
func (c *Client) RemoveBucket(ctx context.Context, bucket string) error {
	if err := c.mc.RemoveBucket(ctx, bucket); err != nil {
		return conerrors.NewError("removeBucket", c.convertError(err)).WithBucket(bucket)
	}
	return nil
}

// BucketExists checks whether a bucket exists.
func (c *Client) BucketExists(ctx context.Context, bucket string) (bool, error) {
	exists, err := c.mc.BucketExists(ctx, bucket)
	if err != nil {
		return false, conerrors.NewError("bucketExists", err).WithBucket(bucket)
	}
	return exists, nil
}

// convertError maps MinIO response codes onto the shared sentinel errors.
func (c *Client) convertError(err error) error {
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey":
		return fmt.Errorf("%w: %w", conerrors.ErrObjectNotFound, err)
	case "NoSuchBucket":
		return fmt.Errorf("%w: %w", conerrors.ErrBucketNotFound, err)
	case "AccessDenied":
		return fmt.Errorf("%w: %w", conerrors.ErrAccessDenied, err)
	case "BucketAlreadyOwnedByYou", "BucketAlreadyExists":
		return fmt.Errorf("%w: %w", conerrors.ErrBucketAlreadyExists, err)
	case "BucketNotEmpty":
		return fmt.Errorf("%w: %w", conerrors.ErrBucketNotEmpty, err)
	}
	return err
}
