package mongodb

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	conerrors "github.com/streamwell/connect/errors"
	"github.com/streamwell/connect/stream"
)

// uploadSink is the finalization surface of a GridFS upload stream: commit
// with Close, discard with Abort. Factored out so the drain logic can be
// tested without a deployment.
type uploadSink interface {
	io.WriteCloser
	Abort() error
}

var _ uploadSink = (*gridfs.UploadStream)(nil)

// uploadConfig holds per-upload settings assembled from UploadOption values.
type uploadConfig struct {
	chunkSize int32
	metadata  any
}

// UploadOption configures a single GridFS upload.
type UploadOption func(*uploadConfig)

// WithChunkSize sets the GridFS chunk size in bytes for this upload.
func WithChunkSize(chunkSize int32) UploadOption {
	return func(c *uploadConfig) {
		if chunkSize > 0 {
			c.chunkSize = chunkSize
		}
	}
}

// WithFileMetadata attaches a metadata document to the uploaded file.
func WithFileMetadata(metadata any) UploadOption {
	return func(c *uploadConfig) {
		c.metadata = metadata
	}
}

// UploadStream streams chunks from src into a GridFS file named filename
// and returns the number of bytes written.
//
// On source or write failure the upload stream is aborted so the chunks
// written so far are removed and no file document becomes visible. The
// driver's GridFS streams carry deadlines rather than contexts; a deadline
// on ctx is propagated to the stream.
//
// Errors:
//   - ErrInvalidInput: If filename or src is missing
//   - ErrCompletion: If the final commit fails after all chunks were written
func (c *Client) UploadStream(
	ctx context.Context,
	filename string,
	src stream.Source,
	opts ...UploadOption,
) (int64, error) {
	if filename == "" {
		return 0, conerrors.NewError("uploadStream", conerrors.ErrInvalidInput).
			WithMessage("filename cannot be empty")
	}
	if src == nil {
		return 0, conerrors.NewError("uploadStream", conerrors.ErrInvalidInput).
			WithKey(filename).
			WithMessage("source cannot be nil")
	}

	cfg := &uploadConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	bucketOpts := options.GridFSBucket()
	if cfg.chunkSize > 0 {
		bucketOpts = bucketOpts.SetChunkSizeBytes(cfg.chunkSize)
	}

	bucket, err := gridfs.NewBucket(c.db, bucketOpts)
	if err != nil {
		return 0, conerrors.NewError("uploadStream",
			fmt.Errorf("%w: %w", conerrors.ErrSessionCreate, err)).WithKey(filename)
	}

	uploadOpts := options.GridFSUpload()
	if cfg.metadata != nil {
		uploadOpts = uploadOpts.SetMetadata(cfg.metadata)
	}

	us, err := bucket.OpenUploadStream(filename, uploadOpts)
	if err != nil {
		return 0, conerrors.NewError("uploadStream",
			fmt.Errorf("%w: %w", conerrors.ErrSessionCreate, err)).WithKey(filename)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = us.SetWriteDeadline(deadline)
	}

	written, err := drainUpload(ctx, us, src)
	if err != nil {
		return written, conerrors.NewError("uploadStream", err).WithKey(filename)
	}

	return written, nil
}

// drainUpload copies src into us and finalizes with exactly one of
// Close (commit) or Abort (discard written chunks).
func drainUpload(ctx context.Context, us uploadSink, src stream.Source) (int64, error) {
	written, err := stream.Copy(ctx, us, src)
	if err != nil {
		_ = us.Abort()
		return written, err
	}

	if err := us.Close(); err != nil {
		return written, fmt.Errorf("%w: %w", conerrors.ErrCompletion, err)
	}

	return written, nil
}

// FileSource opens the newest GridFS file named filename as a chunk source.
// The returned source closes the underlying download stream once it is
// exhausted or fails.
func (c *Client) FileSource(ctx context.Context, filename string) (stream.Source, error) {
	if filename == "" {
		return nil, conerrors.NewError("fileSource", conerrors.ErrInvalidInput).
			WithMessage("filename cannot be empty")
	}

	bucket, err := gridfs.NewBucket(c.db)
	if err != nil {
		return nil, conerrors.NewError("fileSource", err).WithKey(filename)
	}

	ds, err := bucket.OpenDownloadStreamByName(filename)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, conerrors.NewError("fileSource",
				fmt.Errorf("%w: %w", conerrors.ErrObjectNotFound, err)).WithKey(filename)
		}
		return nil, conerrors.NewError("fileSource", err).WithKey(filename)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = ds.SetReadDeadline(deadline)
	}

	return stream.FromReadCloser(ds, stream.DefaultReadSize), nil
}

// DownloadToWriter copies the newest GridFS file named filename into w and
// returns the number of bytes written.
func (c *Client) DownloadToWriter(ctx context.Context, filename string, w io.Writer) (int64, error) {
	src, err := c.FileSource(ctx, filename)
	if err != nil {
		return 0, err
	}

	written, err := stream.Copy(ctx, w, src)
	if err != nil {
		return written, conerrors.NewError("download", err).WithKey(filename)
	}

	return written, nil
}

// DeleteFile removes all revisions of the GridFS file named filename.
func (c *Client) DeleteFile(ctx context.Context, filename string) error {
	bucket, err := gridfs.NewBucket(c.db)
	if err != nil {
		return conerrors.NewError("deleteFile", err).WithKey(filename)
	}

	cursor, err := bucket.Find(map[string]string{"filename": filename})
	if err != nil {
		return conerrors.NewError("deleteFile", err).WithKey(filename)
	}
	defer cursor.Close(ctx)

	var file struct {
		ID any `bson:"_id"`
	}
	for cursor.Next(ctx) {
		if err := cursor.Decode(&file); err != nil {
			return conerrors.NewError("deleteFile", err).WithKey(filename)
		}
		if err := bucket.Delete(file.ID); err != nil {
			return conerrors.NewError("deleteFile", err).WithKey(filename)
		}
	}

	return nil
}
