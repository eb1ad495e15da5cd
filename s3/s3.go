// Package s3 provides the S3 client and core object operations.
package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gabriel-vasile/mimetype"

	s3errors "github.com/streamwell/connect/errors"
	"github.com/streamwell/connect/objectstore"
	"github.com/streamwell/connect/s3/internal/validation"
	"github.com/streamwell/connect/s3/s3types"
	"github.com/streamwell/connect/stream"
)

const (
	// DefaultContentType is the default content type used when content type detection fails
	DefaultContentType = "application/octet-stream"
)

// Upload streams a chunk sequence into an S3 object using multipart upload.
// Chunks are accumulated to the configured part size and uploaded strictly
// in order; the upload resolves with the assembled object's metadata.
//
// The source is pulled lazily, so arbitrarily large inputs upload in
// bounded memory. A zero-length chunk from src ends the upload early.
//
// Errors:
//   - ErrInvalidInput: If bucket is empty, key is invalid, or src is nil
//   - ErrSessionCreate / ErrPartUpload / ErrCompletion: Depending on which
//     phase of the multipart session failed
//
// Example:
//
//	file, _ := os.Open("data.bin")
//	defer file.Close()
//
//	result, err := client.Upload(ctx, "my-bucket", "data.bin",
//	    stream.FromReader(file, stream.DefaultReadSize),
//	    s3.WithContentType("application/octet-stream"),
//	)
func (c *Client) Upload(
	ctx context.Context,
	bucket, key string,
	src stream.Source,
	opts ...s3types.UploadOption,
) (*s3types.UploadResult, error) {
	if bucket == "" {
		return nil, s3errors.NewError("upload", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage("bucket name cannot be empty")
	}
	if err := validation.ValidateObjectKey(key); err != nil {
		return nil, s3errors.NewError("upload", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage(err.Error())
	}
	if src == nil {
		return nil, s3errors.NewError("upload", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage("source cannot be nil")
	}

	config := c.applyUploadOptions(key, opts)
	startTime := time.Now()

	if config.ProgressTracker != nil {
		src = observeSource(src, config.ProgressTracker)
	}

	uploader := objectstore.NewChunkUploader(
		c.MultipartSession(bucket),
		key,
		uploadSettingsFrom(config),
		config.PartSize,
	)

	info, err := uploader.Upload(ctx, src)
	if err != nil {
		if config.ProgressTracker != nil {
			config.ProgressTracker.Error(err)
		}
		return nil, s3errors.NewError("upload", err).WithBucket(bucket)
	}
	if config.ProgressTracker != nil {
		config.ProgressTracker.Complete()
	}

	return &s3types.UploadResult{
		Key:      info.Key,
		Size:     info.Size,
		ETag:     info.ETag,
		Location: info.Location,
		Duration: time.Since(startTime),
	}, nil
}

// UploadReader streams data from an io.Reader to S3. It is a convenience
// wrapper around Upload for callers holding a reader rather than a chunk
// source.
func (c *Client) UploadReader(
	ctx context.Context,
	bucket, key string,
	reader io.Reader,
	opts ...s3types.UploadOption,
) (*s3types.UploadResult, error) {
	if reader == nil {
		return nil, s3errors.NewError("upload", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage("reader cannot be nil")
	}
	return c.Upload(ctx, bucket, key, stream.FromReader(reader, stream.DefaultReadSize), opts...)
}

// UploadFile uploads a file from the local filesystem to S3 using the
// streaming multipart path. Content type is sniffed from the file when not
// explicitly set.
//
// Errors:
//   - ErrInvalidInput: If bucket is empty, key is invalid, or path is
//     empty or a directory
//   - File system errors if the file cannot be read
func (c *Client) UploadFile(
	ctx context.Context,
	bucket, key, path string,
	opts ...s3types.UploadOption,
) (*s3types.UploadResult, error) {
	if bucket == "" {
		return nil, s3errors.NewError("uploadFile", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage("bucket name cannot be empty")
	}
	if err := validation.ValidateObjectKey(key); err != nil {
		return nil, s3errors.NewError("uploadFile", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage(err.Error())
	}
	if path == "" {
		return nil, s3errors.NewError("uploadFile", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage("path cannot be empty")
	}

	info, err := c.fs.Stat(path)
	if err != nil {
		return nil, s3errors.NewError("uploadFile", err).WithBucket(bucket).WithKey(key)
	}
	if info.IsDir() {
		return nil, s3errors.NewError("uploadFile", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage("path points to a directory, not a file")
	}

	file, err := c.fs.Open(path)
	if err != nil {
		return nil, s3errors.NewError("uploadFile", err).WithBucket(bucket).WithKey(key)
	}
	defer file.Close()

	// Sniff content type from the file unless the caller set one.
	opts = append([]s3types.UploadOption{
		WithContentType(c.detectContentType(path)),
	}, opts...)

	return c.Upload(ctx, bucket, key, stream.FromReader(file, stream.DefaultReadSize), opts...)
}

// Put uploads byte data to S3 in a single request.
// This is a convenience method for small amounts of data that fit in memory;
// use Upload for streams of unknown or unbounded size.
//
// Errors:
//   - ErrInvalidInput: If bucket is empty or key is invalid
//   - ErrAccessDenied: If the credentials lack permission to upload
//   - Network errors or AWS SDK errors wrapped in Error type
func (c *Client) Put(ctx context.Context, bucket, key string, data []byte, opts ...s3types.UploadOption) error {
	if bucket == "" {
		return s3errors.NewError("put", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage("bucket name cannot be empty")
	}
	if err := validation.ValidateObjectKey(key); err != nil {
		return s3errors.NewError("put", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage(err.Error())
	}

	config := c.applyUploadOptions(key, opts)

	input := &awss3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(config.ContentType),
	}
	if len(config.Metadata) > 0 {
		input.Metadata = config.Metadata
	}
	if config.StorageClass != "" {
		input.StorageClass = types.StorageClass(config.StorageClass)
	}
	if config.ACL != "" {
		input.ACL = types.ObjectCannedACL(config.ACL)
	}
	if config.Tagging != "" {
		input.Tagging = aws.String(config.Tagging)
	}
	if config.SSE != nil {
		input.ServerSideEncryption = types.ServerSideEncryption(config.SSE.Type)
		if config.SSE.KMSKeyID != "" {
			input.SSEKMSKeyId = aws.String(config.SSE.KMSKeyID)
		}
	}

	if _, err := c.s3Client.PutObject(ctx, input); err != nil {
		return s3errors.NewError("put", err).WithBucket(bucket).WithKey(key)
	}
	return nil
}

// Download streams an object from S3 into an io.Writer.
// Use DownloadOption parameters to track progress or request byte ranges.
//
// Errors:
//   - ErrInvalidInput: If bucket is empty, key is invalid, or writer is nil
//   - ErrObjectNotFound: If the specified object doesn't exist
//   - Network errors or AWS SDK errors wrapped in Error type
func (c *Client) Download(
	ctx context.Context,
	bucket, key string,
	writer io.Writer,
	opts ...s3types.DownloadOption,
) (*s3types.DownloadResult, error) {
	if bucket == "" {
		return nil, s3errors.NewError("download", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage("bucket name cannot be empty")
	}
	if err := validation.ValidateObjectKey(key); err != nil {
		return nil, s3errors.NewError("download", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage(err.Error())
	}
	if writer == nil {
		return nil, s3errors.NewError("download", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage("writer cannot be nil")
	}

	config := &s3types.DownloadOptionConfig{}
	for _, opt := range opts {
		opt(config)
	}

	startTime := time.Now()

	input := &awss3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if config.RangeSpec != "" {
		input.Range = aws.String(config.RangeSpec)
	}

	result, err := c.s3Client.GetObject(ctx, input)
	if err != nil {
		return nil, s3errors.NewError("download", c.convertAWSError(err)).WithBucket(bucket).WithKey(key)
	}
	defer result.Body.Close()

	written, err := io.Copy(writer, result.Body)
	if err != nil {
		if config.ProgressTracker != nil {
			config.ProgressTracker.Error(err)
		}
		return nil, s3errors.NewError("download", err).WithBucket(bucket).WithKey(key)
	}
	if config.ProgressTracker != nil {
		config.ProgressTracker.Update(written, aws.ToInt64(result.ContentLength))
		config.ProgressTracker.Complete()
	}

	return &s3types.DownloadResult{
		Key:      key,
		Size:     written,
		ETag:     aws.ToString(result.ETag),
		Duration: time.Since(startTime),
	}, nil
}

// DownloadFile streams an object from S3 into a local file. The file is
// created if it does not exist and truncated if it does.
//
// Errors:
//   - ErrInvalidInput: If bucket is empty, key is invalid, or path is empty
//   - ErrObjectNotFound: If the specified object doesn't exist
//   - File system errors if the file cannot be created or written
func (c *Client) DownloadFile(
	ctx context.Context,
	bucket, key, path string,
	opts ...s3types.DownloadOption,
) (*s3types.DownloadResult, error) {
	if path == "" {
		return nil, s3errors.NewError("downloadFile", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage("path cannot be empty")
	}

	file, err := c.fs.Create(path)
	if err != nil {
		return nil, s3errors.NewError("downloadFile", err).WithBucket(bucket).WithKey(key)
	}

	result, err := c.Download(ctx, bucket, key, file, opts...)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if err := file.Close(); err != nil {
		return nil, s3errors.NewError("downloadFile", err).WithBucket(bucket).WithKey(key)
	}
	return result, nil
}

// Get downloads an entire object from S3 and returns it as a byte slice.
// This is a convenience method for small objects that can fit in memory.
// For large objects, use Download or GetSource instead.
func (c *Client) Get(ctx context.Context, bucket, key string, opts ...s3types.DownloadOption) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := c.Download(ctx, bucket, key, &buf, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GetSource opens an object as a lazily-pulled chunk source.
// The returned source yields the object's bytes in order and io.EOF at the
// end; it is the download-side counterpart of Upload.
func (c *Client) GetSource(ctx context.Context, bucket, key string) (stream.Source, error) {
	if bucket == "" {
		return nil, s3errors.NewError("getSource", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage("bucket name cannot be empty")
	}
	if err := validation.ValidateObjectKey(key); err != nil {
		return nil, s3errors.NewError("getSource", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage(err.Error())
	}

	result, err := c.s3Client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, s3errors.NewError("getSource", c.convertAWSError(err)).WithBucket(bucket).WithKey(key)
	}

	return stream.FromReadCloser(result.Body, stream.DefaultReadSize), nil
}

// List lists objects in an S3 bucket with pagination and prefix filtering.
// Use opts to specify delimiter, max keys, and pagination options.
//
// Errors:
//   - ErrInvalidInput: If bucket is empty
//   - ErrBucketNotFound: If the specified bucket doesn't exist
//   - Network errors or AWS SDK errors wrapped in Error type
func (c *Client) List(
	ctx context.Context,
	bucket, prefix string,
	opts ...s3types.ListOption,
) (*s3types.ListResult, error) {
	if bucket == "" {
		return nil, s3errors.NewError("list", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithMessage("bucket name cannot be empty")
	}

	config := &s3types.ListOptionConfig{
		Prefix:  prefix,
		MaxKeys: 1000,
	}
	for _, opt := range opts {
		opt(config)
	}

	startTime := time.Now()

	input := &awss3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		Prefix:  aws.String(config.Prefix),
		MaxKeys: aws.Int32(config.MaxKeys),
	}
	if config.Delimiter != "" {
		input.Delimiter = aws.String(config.Delimiter)
	}
	if config.StartAfter != "" {
		input.StartAfter = aws.String(config.StartAfter)
	}

	result, err := c.s3Client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, s3errors.NewError("list", err).WithBucket(bucket)
	}

	listResult := &s3types.ListResult{
		Objects:     make([]s3types.Object, 0, len(result.Contents)),
		IsTruncated: aws.ToBool(result.IsTruncated),
		Duration:    time.Since(startTime),
	}
	if result.NextContinuationToken != nil {
		listResult.NextContinuationToken = aws.ToString(result.NextContinuationToken)
	}

	for _, obj := range result.Contents {
		listResult.Objects = append(listResult.Objects, s3types.Object{
			Key:          aws.ToString(obj.Key),
			Size:         aws.ToInt64(obj.Size),
			LastModified: aws.ToTime(obj.LastModified),
			ETag:         aws.ToString(obj.ETag),
			StorageClass: string(obj.StorageClass),
		})
	}

	return listResult, nil
}

// ListAll lists all objects in an S3 bucket using channel-based streaming.
// It handles pagination internally and closes the channel when all objects
// have been sent, an error occurs, or the context is cancelled.
//
// Always consume the channel completely or cancel the context to avoid
// goroutine leaks.
func (c *Client) ListAll(ctx context.Context, bucket, prefix string) <-chan s3types.Object {
	objectChan := make(chan s3types.Object, 100)

	go func() {
		defer close(objectChan)

		var continuationToken *string

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			input := &awss3.ListObjectsV2Input{
				Bucket:  aws.String(bucket),
				Prefix:  aws.String(prefix),
				MaxKeys: aws.Int32(1000),
			}
			if continuationToken != nil {
				input.ContinuationToken = continuationToken
			}

			result, err := c.s3Client.ListObjectsV2(ctx, input)
			if err != nil {
				return
			}

			for _, obj := range result.Contents {
				object := s3types.Object{
					Key:          aws.ToString(obj.Key),
					Size:         aws.ToInt64(obj.Size),
					LastModified: aws.ToTime(obj.LastModified),
					ETag:         aws.ToString(obj.ETag),
					StorageClass: string(obj.StorageClass),
				}

				select {
				case objectChan <- object:
				case <-ctx.Done():
					return
				}
			}

			if !aws.ToBool(result.IsTruncated) {
				break
			}
			continuationToken = result.NextContinuationToken
		}
	}()

	return objectChan
}

// Delete deletes a single object from S3.
// This operation is idempotent; deleting a non-existent object doesn't
// return an error.
func (c *Client) Delete(ctx context.Context, bucket, key string) error {
	if bucket == "" {
		return s3errors.NewError("delete", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage("bucket name cannot be empty")
	}
	if err := validation.ValidateObjectKey(key); err != nil {
		return s3errors.NewError("delete", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage(err.Error())
	}

	_, err := c.s3Client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return s3errors.NewError("delete", err).WithBucket(bucket).WithKey(key)
	}
	return nil
}

// DeleteMany deletes multiple objects from S3 in a single batch request.
// S3 allows up to 1000 objects per request; each object deletion succeeds
// or fails independently and failures are reported in the result.
//
// Errors:
//   - ErrInvalidInput: If bucket is empty, keys is empty, or >1000 keys
//   - Network errors or AWS SDK errors wrapped in Error type
func (c *Client) DeleteMany(ctx context.Context, bucket string, keys []string) (*s3types.DeleteResult, error) {
	if bucket == "" {
		return nil, s3errors.NewError("deleteMany", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithMessage("bucket name cannot be empty")
	}
	if len(keys) == 0 {
		return nil, s3errors.NewError("deleteMany", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithMessage("keys cannot be empty")
	}

	const maxKeysPerRequest = 1000
	if len(keys) > maxKeysPerRequest {
		return nil, s3errors.NewError("deleteMany", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithMessage("too many keys: maximum is 1000 per request")
	}

	startTime := time.Now()

	deleteObjects := make([]types.ObjectIdentifier, 0, len(keys))
	for _, key := range keys {
		if key == "" {
			return nil, s3errors.NewError("deleteMany", s3errors.ErrInvalidInput).
				WithBucket(bucket).
				WithMessage("empty key in keys slice")
		}
		deleteObjects = append(deleteObjects, types.ObjectIdentifier{
			Key: aws.String(key),
		})
	}

	result, err := c.s3Client.DeleteObjects(ctx, &awss3.DeleteObjectsInput{
		Bucket: aws.String(bucket),
		Delete: &types.Delete{
			Objects: deleteObjects,
		},
	})
	if err != nil {
		return nil, s3errors.NewError("deleteMany", err).WithBucket(bucket)
	}

	deleteResult := &s3types.DeleteResult{
		Duration: time.Since(startTime),
	}
	if result.Deleted != nil {
		deleteResult.Deleted = make([]s3types.Object, 0, len(result.Deleted))
		for _, deleted := range result.Deleted {
			deleteResult.Deleted = append(deleteResult.Deleted, s3types.Object{
				Key: aws.ToString(deleted.Key),
			})
		}
	}
	if result.Errors != nil {
		deleteResult.Errors = make([]s3types.DeleteError, 0, len(result.Errors))
		for _, delErr := range result.Errors {
			deleteResult.Errors = append(deleteResult.Errors, s3types.DeleteError{
				Key:     aws.ToString(delErr.Key),
				Version: aws.ToString(delErr.VersionId),
				Code:    aws.ToString(delErr.Code),
				Message: aws.ToString(delErr.Message),
			})
		}
	}

	return deleteResult, nil
}

// Exists checks if an object exists in S3 using a HEAD request.
// Returns true if the object exists, false if it doesn't, and an error only
// for other failures (network issues, permissions).
func (c *Client) Exists(ctx context.Context, bucket, key string) (bool, error) {
	if bucket == "" {
		return false, s3errors.NewError("exists", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage("bucket name cannot be empty")
	}
	if err := validation.ValidateObjectKey(key); err != nil {
		return false, s3errors.NewError("exists", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage(err.Error())
	}

	_, err := c.s3Client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		errMsg := err.Error()
		if strings.Contains(errMsg, "NotFound") || strings.Contains(errMsg, "NoSuchKey") {
			return false, nil
		}
		return false, s3errors.NewError("exists", err).WithBucket(bucket).WithKey(key)
	}

	return true, nil
}

// GetMetadata retrieves metadata for an S3 object without downloading the
// content. Uses a HEAD request, so it is cheap even for large objects.
func (c *Client) GetMetadata(ctx context.Context, bucket, key string) (*s3types.ObjectMetadata, error) {
	if bucket == "" {
		return nil, s3errors.NewError("getMetadata", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage("bucket name cannot be empty")
	}
	if err := validation.ValidateObjectKey(key); err != nil {
		return nil, s3errors.NewError("getMetadata", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage(err.Error())
	}

	result, err := c.s3Client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, s3errors.NewError("getMetadata", err).WithBucket(bucket).WithKey(key)
	}

	metadata := &s3types.ObjectMetadata{
		ContentType:   aws.ToString(result.ContentType),
		ContentLength: aws.ToInt64(result.ContentLength),
		LastModified:  aws.ToTime(result.LastModified),
		ETag:          aws.ToString(result.ETag),
	}
	if result.Metadata != nil {
		metadata.Metadata = make(map[string]string, len(result.Metadata))
		for k, v := range result.Metadata {
			metadata.Metadata[k] = v
		}
	}

	return metadata, nil
}

// Copy copies an object from one location to another within S3.
// This is a server-side operation; no data is transferred to the client.
func (c *Client) Copy(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	if srcBucket == "" {
		return s3errors.NewError("copy", s3errors.ErrInvalidInput).
			WithBucket(srcBucket).
			WithKey(srcKey).
			WithMessage("source bucket name cannot be empty")
	}
	if err := validation.ValidateObjectKey(srcKey); err != nil {
		return s3errors.NewError("copy", s3errors.ErrInvalidInput).
			WithBucket(srcBucket).
			WithKey(srcKey).
			WithMessage(err.Error())
	}
	if dstBucket == "" {
		return s3errors.NewError("copy", s3errors.ErrInvalidInput).
			WithBucket(dstBucket).
			WithKey(dstKey).
			WithMessage("destination bucket name cannot be empty")
	}
	if err := validation.ValidateObjectKey(dstKey); err != nil {
		return s3errors.NewError("copy", s3errors.ErrInvalidInput).
			WithBucket(dstBucket).
			WithKey(dstKey).
			WithMessage(err.Error())
	}
	if srcBucket == dstBucket && srcKey == dstKey {
		return s3errors.NewError("copy", s3errors.ErrInvalidInput).
			WithBucket(srcBucket).
			WithKey(srcKey).
			WithMessage("cannot copy object to itself")
	}

	_, err := c.s3Client.CopyObject(ctx, &awss3.CopyObjectInput{
		Bucket:     aws.String(dstBucket),
		Key:        aws.String(dstKey),
		CopySource: aws.String(srcBucket + "/" + srcKey),
	})
	if err != nil {
		return s3errors.NewError("copy", err).
			WithBucket(dstBucket).
			WithKey(dstKey).
			WithMessage("failed to copy from " + srcBucket + "/" + srcKey)
	}
	return nil
}

// Move moves an object by copying it and then deleting the original.
// If the copy succeeds but the delete fails, the object exists in both
// locations; verify critical moves completed.
func (c *Client) Move(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	if err := c.Copy(ctx, srcBucket, srcKey, dstBucket, dstKey); err != nil {
		return s3errors.NewError("move", err).
			WithBucket(srcBucket).
			WithKey(srcKey).
			WithMessage("failed to copy object during move")
	}
	if err := c.Delete(ctx, srcBucket, srcKey); err != nil {
		return s3errors.NewError("move", err).
			WithBucket(srcBucket).
			WithKey(srcKey).
			WithMessage("failed to delete original object after copy")
	}
	return nil
}

// CreateBucket creates a new S3 bucket.
// The bucket name must be DNS-compliant and globally unique.
// Use opts to specify the region where the bucket should be created.
//
// Errors:
//   - ErrInvalidBucketName: If the bucket name doesn't comply with naming rules
//   - ErrBucketAlreadyExists: If a bucket with this name already exists
func (c *Client) CreateBucket(ctx context.Context, bucket string, opts ...s3types.BucketOption) error {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return s3errors.NewError("createBucket", s3errors.ErrInvalidBucketName).
			WithBucket(bucket).
			WithMessage(err.Error())
	}

	config := &s3types.BucketOptionConfig{}
	for _, opt := range opts {
		opt(config)
	}

	input := &awss3.CreateBucketInput{
		Bucket: aws.String(bucket),
	}
	if config.Region != "" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(config.Region),
		}
	}

	if _, err := c.s3Client.CreateBucket(ctx, input); err != nil {
		return s3errors.NewError("createBucket", c.convertAWSError(err)).WithBucket(bucket)
	}
	return nil
}

// DeleteBucket deletes an S3 bucket. The bucket must be empty.
//
// Errors:
//   - ErrBucketNotFound: If the bucket doesn't exist
//   - ErrBucketNotEmpty: If the bucket contains objects
func (c *Client) DeleteBucket(ctx context.Context, bucket string) error {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return s3errors.NewError("deleteBucket", s3errors.ErrInvalidBucketName).
			WithBucket(bucket).
			WithMessage(err.Error())
	}

	if _, err := c.s3Client.DeleteBucket(ctx, &awss3.DeleteBucketInput{
		Bucket: aws.String(bucket),
	}); err != nil {
		return s3errors.NewError("deleteBucket", c.convertAWSError(err)).WithBucket(bucket)
	}
	return nil
}

// applyUploadOptions resolves the upload option set for key, including
// extension-based content type detection when none is set.
func (c *Client) applyUploadOptions(key string, opts []s3types.UploadOption) *s3types.UploadOptionConfig {
	config := &s3types.UploadOptionConfig{
		ContentType:  DefaultContentType,
		StorageClass: s3types.StorageClassStandard,
		Metadata:     make(map[string]string),
		PartSize:     c.getClientConfig().PartSize,
	}
	for _, opt := range opts {
		opt(config)
	}
	if config.ContentType == DefaultContentType {
		config.ContentType = c.detectContentTypeFromExtension(key)
	}
	return config
}

// uploadSettingsFrom maps the S3 option bag onto the provider-agnostic
// upload settings carried by the multipart session.
func uploadSettingsFrom(config *s3types.UploadOptionConfig) objectstore.UploadSettings {
	settings := objectstore.UploadSettings{
		ContentType:  config.ContentType,
		Metadata:     config.Metadata,
		StorageClass: string(config.StorageClass),
		ACL:          string(config.ACL),
		Tagging:      config.Tagging,
		RequestPayer: config.RequestPayer,
	}
	if config.SSE != nil {
		settings.SSE = &objectstore.SSESettings{
			Type:     string(config.SSE.Type),
			KMSKeyID: config.SSE.KMSKeyID,
		}
	}
	return settings
}

// observeSource wraps src so every pulled chunk is reported to tracker.
// Total size is unknown for a lazy stream, so Update receives -1 for it.
func observeSource(src stream.Source, tracker s3types.ProgressTracker) stream.Source {
	var transferred int64
	return stream.SourceFunc(func(ctx context.Context) ([]byte, error) {
		chunk, err := src.Next(ctx)
		if err == nil && len(chunk) > 0 {
			transferred += int64(len(chunk))
			tracker.Update(transferred, -1)
		}
		return chunk, err
	})
}

// convertAWSError converts AWS SDK errors to our custom error types
func (c *Client) convertAWSError(err error) error {
	if err == nil {
		return nil
	}

	var bucketAlreadyExists *types.BucketAlreadyExists
	if errors.As(err, &bucketAlreadyExists) {
		return s3errors.ErrBucketAlreadyExists
	}

	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &noSuchBucket) {
		return s3errors.ErrBucketNotFound
	}

	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return s3errors.ErrObjectNotFound
	}

	errMsg := err.Error()
	switch {
	case strings.Contains(errMsg, "BucketNotEmpty"):
		return s3errors.ErrBucketNotEmpty
	case strings.Contains(errMsg, "BucketAlreadyExists"):
		return s3errors.ErrBucketAlreadyExists
	case strings.Contains(errMsg, "NoSuchBucket"):
		return s3errors.ErrBucketNotFound
	case strings.Contains(errMsg, "NoSuchKey"):
		return s3errors.ErrObjectNotFound
	}

	return err
}

// detectContentType determines the content type using mimetype where
// possible, falling back to extension-based lookup when the path is not a
// readable local file.
func (c *Client) detectContentType(path string) string {
	info, err := c.fs.Stat(path)
	if err != nil || info.IsDir() {
		return c.detectContentTypeFromExtension(path)
	}

	file, err := c.fs.Open(path)
	if err != nil {
		return c.detectContentTypeFromExtension(path)
	}
	defer file.Close()

	buf := make([]byte, 512)
	n, _ := file.Read(buf)
	if n > 0 {
		if mt := mimetype.Detect(buf[:n]); mt != nil {
			return mt.String()
		}
	}

	return c.detectContentTypeFromExtension(path)
}

// detectContentTypeFromExtension detects content type from file extension
func (c *Client) detectContentTypeFromExtension(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			return byExt
		}
	}
	return DefaultContentType
}
