package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/encrypt"

	"github.com/streamwell/connect/objectstore"
)

// coreAPI is the low-level multipart surface of minio.Core consumed by
// multipartSession. It exists so the session can be tested without a live
// endpoint.
type coreAPI interface {
	NewMultipartUpload(ctx context.Context, bucket, object string, opts minio.PutObjectOptions) (string, error)
	PutObjectPart(ctx context.Context, bucket, object, uploadID string, partID int, data io.Reader, size int64, opts minio.PutObjectPartOptions) (minio.ObjectPart, error)
	CompleteMultipartUpload(ctx context.Context, bucket, object, uploadID string, parts []minio.CompletePart, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	AbortMultipartUpload(ctx context.Context, bucket, object, uploadID string) error
}

// Compile-time check that the real SDK core satisfies the interface.
var _ coreAPI = (*minio.Core)(nil)

// multipartSession adapts minio.Core to the objectstore.Session capability.
//
// MinIO requires the object key on every multipart call while the capability
// only carries it at creation time, so the session keeps an upload-id to key
// map for the lifetime of each upload.
type multipartSession struct {
	core   coreAPI
	bucket string

	mu   sync.Mutex
	keys map[objectstore.UploadID]string
}

// MultipartSession returns the multipart upload capability for a bucket.
// The returned session is safe for use by multiple concurrent uploads.
func (c *Client) MultipartSession(bucket string) objectstore.Session {
	return &multipartSession{
		core:   c.core,
		bucket: bucket,
		keys:   make(map[objectstore.UploadID]string),
	}
}

// CreateMultipartUpload starts a multipart session for key.
func (s *multipartSession) CreateMultipartUpload(
	ctx context.Context,
	key string,
	settings objectstore.UploadSettings,
) (objectstore.UploadID, error) {
	opts, err := putOptionsFrom(settings)
	if err != nil {
		return "", err
	}

	uploadID, err := s.core.NewMultipartUpload(ctx, s.bucket, key, opts)
	if err != nil {
		return "", fmt.Errorf("failed to create multipart upload: %w", err)
	}

	id := objectstore.UploadID(uploadID)
	s.mu.Lock()
	s.keys[id] = key
	s.mu.Unlock()

	return id, nil
}

// UploadPart uploads one part of the session.
func (s *multipartSession) UploadPart(
	ctx context.Context,
	id objectstore.UploadID,
	partNumber int32,
	data []byte,
) (objectstore.PartTag, error) {
	part, err := s.core.PutObjectPart(
		ctx,
		s.bucket,
		s.keyFor(id),
		string(id),
		int(partNumber),
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectPartOptions{},
	)
	if err != nil {
		return "", fmt.Errorf("failed to upload part: %w", err)
	}

	return objectstore.PartTag(part.ETag), nil
}

// CompleteMultipartUpload finalizes the session from its acknowledged parts.
func (s *multipartSession) CompleteMultipartUpload(
	ctx context.Context,
	id objectstore.UploadID,
	parts []objectstore.Part,
) (*objectstore.CompletionInfo, error) {
	completed := make([]minio.CompletePart, 0, len(parts))
	for _, part := range parts {
		completed = append(completed, minio.CompletePart{
			PartNumber: int(part.Number),
			ETag:       string(part.Tag),
		})
	}

	info, err := s.core.CompleteMultipartUpload(
		ctx,
		s.bucket,
		s.keyFor(id),
		string(id),
		completed,
		minio.PutObjectOptions{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to complete multipart upload: %w", err)
	}

	s.forget(id)

	return &objectstore.CompletionInfo{
		Key:      info.Key,
		ETag:     info.ETag,
		Location: info.Location,
		Size:     info.Size,
	}, nil
}

// AbortMultipartUpload cancels the session and releases server-side parts.
func (s *multipartSession) AbortMultipartUpload(ctx context.Context, id objectstore.UploadID) error {
	if err := s.core.AbortMultipartUpload(ctx, s.bucket, s.keyFor(id), string(id)); err != nil {
		return fmt.Errorf("failed to abort multipart upload: %w", err)
	}

	s.forget(id)
	return nil
}

func (s *multipartSession) keyFor(id objectstore.UploadID) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys[id]
}

func (s *multipartSession) forget(id objectstore.UploadID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, id)
}

// putOptionsFrom maps the provider-agnostic settings onto MinIO put options.
// ACL and RequestPayer have no MinIO equivalent and are ignored.
func putOptionsFrom(settings objectstore.UploadSettings) (minio.PutObjectOptions, error) {
	opts := minio.PutObjectOptions{
		ContentType:  settings.ContentType,
		UserMetadata: settings.Metadata,
		StorageClass: settings.StorageClass,
	}

	if settings.Tagging != "" {
		values, err := url.ParseQuery(settings.Tagging)
		if err != nil {
			return minio.PutObjectOptions{}, fmt.Errorf("invalid tagging string: %w", err)
		}
		tags := make(map[string]string, len(values))
		for k, v := range values {
			if len(v) > 0 {
				tags[k] = v[0]
			}
		}
		opts.UserTags = tags
	}

	if settings.SSE != nil {
		switch settings.SSE.Type {
		case "aws:kms":
			sse, err := encrypt.NewSSEKMS(settings.SSE.KMSKeyID, nil)
			if err != nil {
				return minio.PutObjectOptions{}, fmt.Errorf("invalid KMS encryption settings: %w", err)
			}
			opts.ServerSideEncryption = sse
		default:
			opts.ServerSideEncryption = encrypt.NewSSE()
		}
	}

	return opts, nil
}
