package objectstore

import (
	"context"
	goerrors "errors"
	"fmt"
	"io"

	"github.com/streamwell/connect/errors"
	"github.com/streamwell/connect/stream"
)

// MinPartSize is the provider-mandated minimum size for every part except
// the last (5 MiB in the S3 case). It is also the default part size.
const MinPartSize = 5 * 1024 * 1024

// ChunkUploader converts an unbounded sequence of byte chunks into a
// provider-compliant multipart upload.
//
// Incoming chunks are accumulated until the configured part size is reached,
// then flushed as one part. Chunks are processed strictly in arrival order
// and at most one session call is in flight at a time; the uploader owns its
// state exclusively and must not be shared across streams.
type ChunkUploader struct {
	session  Session
	key      string
	settings UploadSettings
	partSize int64
}

// NewChunkUploader creates an uploader writing to key through session.
// A partSize <= 0 selects MinPartSize; values below MinPartSize are raised
// to it, since providers reject smaller non-final parts.
func NewChunkUploader(session Session, key string, settings UploadSettings, partSize int64) *ChunkUploader {
	if partSize < MinPartSize {
		partSize = MinPartSize
	}
	return &ChunkUploader{
		session:  session,
		key:      key,
		settings: settings,
		partSize: partSize,
	}
}

// pendingUpload is the in-progress multipart session state. It exists from
// session creation until exactly one of complete or abort.
type pendingUpload struct {
	id       UploadID
	nextPart int32
	buffer   []byte
	parts    []Part
	size     int64
}

// Upload consumes src until exhaustion (or an explicit zero-length chunk)
// and resolves to the provider completion result.
//
// Failure semantics: a session-creation failure is terminal with nothing to
// abort; a part-upload failure aborts the session before propagating; a
// completion failure propagates without an abort attempt, since providers
// expire incomplete uploads on their own. External cancellation aborts the
// open session on a best-effort basis after the in-flight call resolves.
// Exactly one of complete or abort is issued per created session.
func (u *ChunkUploader) Upload(ctx context.Context, src stream.Source) (*CompletionInfo, error) {
	id, err := u.session.CreateMultipartUpload(ctx, u.key, u.settings)
	if err != nil {
		return nil, errors.NewError("objectstore.createMultipartUpload",
			fmt.Errorf("%w: %w", errors.ErrSessionCreate, err)).WithKey(u.key)
	}

	up := &pendingUpload{id: id, nextPart: 1}

	for {
		chunk, err := src.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			// Upstream failure (including cancellation): the session must not
			// leak, so abort before propagating.
			abortErr := u.abort(ctx, up.id)
			return nil, goerrors.Join(
				errors.NewError("objectstore.upload", err).WithKey(u.key),
				abortErr,
			)
		}
		if len(chunk) == 0 {
			// Explicit termination signal; finalize without pulling further.
			break
		}

		up.buffer = append(up.buffer, chunk...)
		if int64(len(up.buffer)) >= u.partSize {
			if err := u.flushPart(ctx, up); err != nil {
				abortErr := u.abort(ctx, up.id)
				return nil, goerrors.Join(err, abortErr)
			}
		}
	}

	// Flush the remainder as the final part. A session that never saw a byte
	// still uploads one empty part: S3 rejects completions with an empty part
	// list, and resolving to an empty object preserves "complete" semantics.
	if len(up.buffer) > 0 || len(up.parts) == 0 {
		if err := u.flushPart(ctx, up); err != nil {
			abortErr := u.abort(ctx, up.id)
			return nil, goerrors.Join(err, abortErr)
		}
	}

	info, err := u.session.CompleteMultipartUpload(ctx, up.id, up.parts)
	if err != nil {
		return nil, errors.NewError("objectstore.completeMultipartUpload",
			fmt.Errorf("%w: %w", errors.ErrCompletion, err)).WithKey(u.key)
	}
	if info == nil {
		info = &CompletionInfo{Key: u.key}
	}
	if info.Size == 0 {
		info.Size = up.size
	}
	return info, nil
}

// flushPart uploads the buffered bytes as the next part. The part is
// recorded and the buffer cleared only after the provider acknowledges it.
func (u *ChunkUploader) flushPart(ctx context.Context, up *pendingUpload) error {
	tag, err := u.session.UploadPart(ctx, up.id, up.nextPart, up.buffer)
	if err != nil {
		return errors.NewError("objectstore.uploadPart",
			fmt.Errorf("%w: part %d: %w", errors.ErrPartUpload, up.nextPart, err)).WithKey(u.key)
	}

	up.parts = append(up.parts, Part{Number: up.nextPart, Tag: tag})
	up.size += int64(len(up.buffer))
	up.nextPart++
	up.buffer = up.buffer[:0]
	return nil
}

// abort cancels the session on a best-effort basis. It runs detached from
// the caller's cancellation so an already-cancelled stream still releases
// the provider-side session.
func (u *ChunkUploader) abort(ctx context.Context, id UploadID) error {
	if err := u.session.AbortMultipartUpload(context.WithoutCancel(ctx), id); err != nil {
		return errors.NewError("objectstore.abortMultipartUpload", err).WithKey(u.key)
	}
	return nil
}
