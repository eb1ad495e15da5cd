package s3

import (
	"bytes"
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/streamwell/connect/objectstore"
	"github.com/streamwell/connect/s3/internal/s3api"
)

// multipartSession adapts the S3 multipart API onto the provider-agnostic
// objectstore.Session capability. One instance serves one bucket.
//
// S3 requires the object key on every multipart call, while the capability
// only carries the opaque upload ID after creation; the session keeps the
// ID-to-key mapping for its open uploads.
type multipartSession struct {
	api    s3api.S3API
	bucket string

	mu   sync.Mutex
	keys map[objectstore.UploadID]string
}

// MultipartSession returns an objectstore.Session writing into bucket.
// It is the S3 binding used by streaming uploads; other providers plug the
// same uploader through their own Session.
func (c *Client) MultipartSession(bucket string) objectstore.Session {
	return &multipartSession{
		api:    c.s3Client,
		bucket: bucket,
		keys:   make(map[objectstore.UploadID]string),
	}
}

func (s *multipartSession) CreateMultipartUpload(
	ctx context.Context,
	key string,
	settings objectstore.UploadSettings,
) (objectstore.UploadID, error) {
	input := &awss3.CreateMultipartUploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}

	if settings.ContentType != "" {
		input.ContentType = aws.String(settings.ContentType)
	}
	if len(settings.Metadata) > 0 {
		input.Metadata = settings.Metadata
	}
	if settings.StorageClass != "" {
		input.StorageClass = types.StorageClass(settings.StorageClass)
	}
	if settings.ACL != "" {
		input.ACL = types.ObjectCannedACL(settings.ACL)
	}
	if settings.Tagging != "" {
		input.Tagging = aws.String(settings.Tagging)
	}
	if settings.RequestPayer != "" {
		input.RequestPayer = types.RequestPayer(settings.RequestPayer)
	}
	if settings.SSE != nil {
		input.ServerSideEncryption = types.ServerSideEncryption(settings.SSE.Type)
		if settings.SSE.KMSKeyID != "" {
			input.SSEKMSKeyId = aws.String(settings.SSE.KMSKeyID)
		}
	}

	out, err := s.api.CreateMultipartUpload(ctx, input)
	if err != nil {
		return "", err
	}

	id := objectstore.UploadID(aws.ToString(out.UploadId))
	s.mu.Lock()
	s.keys[id] = key
	s.mu.Unlock()
	return id, nil
}

func (s *multipartSession) UploadPart(
	ctx context.Context,
	id objectstore.UploadID,
	partNumber int32,
	data []byte,
) (objectstore.PartTag, error) {
	out, err := s.api.UploadPart(ctx, &awss3.UploadPartInput{
		Bucket:     aws.String(s.bucket),
		Key:        aws.String(s.keyFor(id)),
		UploadId:   aws.String(string(id)),
		PartNumber: aws.Int32(partNumber),
		Body:       bytes.NewReader(data),
	})
	if err != nil {
		return "", err
	}
	return objectstore.PartTag(aws.ToString(out.ETag)), nil
}

func (s *multipartSession) CompleteMultipartUpload(
	ctx context.Context,
	id objectstore.UploadID,
	parts []objectstore.Part,
) (*objectstore.CompletionInfo, error) {
	completed := make([]types.CompletedPart, 0, len(parts))
	for _, p := range parts {
		completed = append(completed, types.CompletedPart{
			PartNumber: aws.Int32(p.Number),
			ETag:       aws.String(string(p.Tag)),
		})
	}

	out, err := s.api.CompleteMultipartUpload(ctx, &awss3.CompleteMultipartUploadInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(s.keyFor(id)),
		UploadId: aws.String(string(id)),
		MultipartUpload: &types.CompletedMultipartUpload{
			Parts: completed,
		},
	})
	if err != nil {
		return nil, err
	}
	s.forget(id)

	return &objectstore.CompletionInfo{
		Key:      aws.ToString(out.Key),
		ETag:     aws.ToString(out.ETag),
		Location: aws.ToString(out.Location),
	}, nil
}

func (s *multipartSession) AbortMultipartUpload(ctx context.Context, id objectstore.UploadID) error {
	_, err := s.api.AbortMultipartUpload(ctx, &awss3.AbortMultipartUploadInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(s.keyFor(id)),
		UploadId: aws.String(string(id)),
	})
	if err != nil {
		return err
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
