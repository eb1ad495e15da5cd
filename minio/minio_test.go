package minio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	conerrors "github.com/streamwell/connect/errors"
	"github.com/streamwell/connect/objectstore"
	"github.com/streamwell/connect/stream"
)

// mockCore implements coreAPI with configurable function fields and records
// the multipart traffic it receives.
type mockCore struct {
	NewMultipartUploadFunc      func(ctx context.Context, bucket, object string, opts minio.PutObjectOptions) (string, error)
	PutObjectPartFunc           func(ctx context.Context, bucket, object, uploadID string, partID int, data io.Reader, size int64, opts minio.PutObjectPartOptions) (minio.ObjectPart, error)
	CompleteMultipartUploadFunc func(ctx context.Context, bucket, object, uploadID string, parts []minio.CompletePart, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	AbortMultipartUploadFunc    func(ctx context.Context, bucket, object, uploadID string) error

	parts     [][]byte
	partNums  []int
	completed int
	aborted   int
}

func (m *mockCore) NewMultipartUpload(ctx context.Context, bucket, object string, opts minio.PutObjectOptions) (string, error) {
	if m.NewMultipartUploadFunc != nil {
		return m.NewMultipartUploadFunc(ctx, bucket, object, opts)
	}
	return "test-upload-id", nil
}

func (m *mockCore) PutObjectPart(ctx context.Context, bucket, object, uploadID string, partID int, data io.Reader, size int64, opts minio.PutObjectPartOptions) (minio.ObjectPart, error) {
	if m.PutObjectPartFunc != nil {
		return m.PutObjectPartFunc(ctx, bucket, object, uploadID, partID, data, size, opts)
	}
	buf, err := io.ReadAll(data)
	if err != nil {
		return minio.ObjectPart{}, err
	}
	m.parts = append(m.parts, buf)
	m.partNums = append(m.partNums, partID)
	return minio.ObjectPart{PartNumber: partID, ETag: "part-etag", Size: size}, nil
}

func (m *mockCore) CompleteMultipartUpload(ctx context.Context, bucket, object, uploadID string, parts []minio.CompletePart, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if m.CompleteMultipartUploadFunc != nil {
		return m.CompleteMultipartUploadFunc(ctx, bucket, object, uploadID, parts, opts)
	}
	m.completed++
	return minio.UploadInfo{Bucket: bucket, Key: object, ETag: "multipart-etag"}, nil
}

func (m *mockCore) AbortMultipartUpload(ctx context.Context, bucket, object, uploadID string) error {
	if m.AbortMultipartUploadFunc != nil {
		return m.AbortMultipartUploadFunc(ctx, bucket, object, uploadID)
	}
	m.aborted++
	return nil
}

func newTestClient(core coreAPI) *Client {
	return &Client{core: core, partSize: objectstore.MinPartSize}
}

func TestClient_Upload(t *testing.T) {
	t.Run("small stream uploads as one part", func(t *testing.T) {
		core := &mockCore{}
		client := newTestClient(core)

		info, err := client.Upload(context.Background(), "test-bucket", "test-key",
			stream.FromChunks([]byte("hello minio")))

		require.NoError(t, err)
		assert.Equal(t, "test-key", info.Key)
		assert.Equal(t, int64(len("hello minio")), info.Size)
		assert.Equal(t, 1, core.completed)
		assert.Zero(t, core.aborted)
		require.Len(t, core.parts, 1)
		assert.Equal(t, "hello minio", string(core.parts[0]))
	})

	t.Run("large stream splits into ordered parts", func(t *testing.T) {
		core := &mockCore{}
		client := newTestClient(core)

		big := bytes.Repeat([]byte("A"), 6*1024*1024)
		tail := bytes.Repeat([]byte("B"), 2048)
		info, err := client.Upload(context.Background(), "test-bucket", "large-key",
			stream.FromChunks(big, tail))

		require.NoError(t, err)
		assert.Equal(t, int64(len(big)+len(tail)), info.Size)
		require.Len(t, core.parts, 2)
		assert.Len(t, core.parts[0], len(big))
		assert.Len(t, core.parts[1], len(tail))
		assert.Equal(t, []int{1, 2}, core.partNums)
	})

	t.Run("settings propagate to session creation", func(t *testing.T) {
		core := &mockCore{}
		var created minio.PutObjectOptions
		core.NewMultipartUploadFunc = func(ctx context.Context, bucket, object string, opts minio.PutObjectOptions) (string, error) {
			created = opts
			return "test-upload-id", nil
		}
		client := newTestClient(core)

		_, err := client.Upload(context.Background(), "test-bucket", "test.json",
			stream.FromChunks([]byte(`{"a":1}`)),
			WithContentType("application/json"),
			WithMetadata(map[string]string{"author": "test-author"}),
			WithStorageClass("REDUCED_REDUNDANCY"),
			WithTagging("env=test&team=data"),
		)

		require.NoError(t, err)
		assert.Equal(t, "application/json", created.ContentType)
		assert.Equal(t, "test-author", created.UserMetadata["author"])
		assert.Equal(t, "REDUCED_REDUNDANCY", created.StorageClass)
		assert.Equal(t, map[string]string{"env": "test", "team": "data"}, created.UserTags)
	})

	t.Run("part failure aborts the session", func(t *testing.T) {
		core := &mockCore{}
		core.PutObjectPartFunc = func(ctx context.Context, bucket, object, uploadID string, partID int, data io.Reader, size int64, opts minio.PutObjectPartOptions) (minio.ObjectPart, error) {
			return minio.ObjectPart{}, errors.New("connection reset")
		}
		client := newTestClient(core)

		_, err := client.Upload(context.Background(), "test-bucket", "test-key",
			stream.FromChunks([]byte("payload")))

		require.Error(t, err)
		assert.ErrorIs(t, err, conerrors.ErrPartUpload)
		assert.Equal(t, 1, core.aborted)
		assert.Zero(t, core.completed)
	})

	t.Run("session creation failure", func(t *testing.T) {
		core := &mockCore{}
		core.NewMultipartUploadFunc = func(ctx context.Context, bucket, object string, opts minio.PutObjectOptions) (string, error) {
			return "", errors.New("access denied")
		}
		client := newTestClient(core)

		_, err := client.Upload(context.Background(), "test-bucket", "test-key",
			stream.FromChunks([]byte("payload")))

		require.Error(t, err)
		assert.ErrorIs(t, err, conerrors.ErrSessionCreate)
		assert.Empty(t, core.parts)
		assert.Zero(t, core.aborted)
	})

	t.Run("completion failure does not abort", func(t *testing.T) {
		core := &mockCore{}
		core.CompleteMultipartUploadFunc = func(ctx context.Context, bucket, object, uploadID string, parts []minio.CompletePart, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
			return minio.UploadInfo{}, errors.New("internal error")
		}
		client := newTestClient(core)

		_, err := client.Upload(context.Background(), "test-bucket", "test-key",
			stream.FromChunks([]byte("payload")))

		require.Error(t, err)
		assert.ErrorIs(t, err, conerrors.ErrCompletion)
		assert.Zero(t, core.aborted)
	})

	t.Run("empty stream uploads a single empty part", func(t *testing.T) {
		core := &mockCore{}
		client := newTestClient(core)

		info, err := client.Upload(context.Background(), "test-bucket", "empty-key",
			stream.FromChunks())

		require.NoError(t, err)
		assert.Zero(t, info.Size)
		require.Len(t, core.parts, 1)
		assert.Empty(t, core.parts[0])
		assert.Equal(t, 1, core.completed)
	})

	t.Run("empty bucket name", func(t *testing.T) {
		client := newTestClient(&mockCore{})
		_, err := client.Upload(context.Background(), "", "test-key", stream.FromChunks())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket name cannot be empty")
	})

	t.Run("empty key name", func(t *testing.T) {
		client := newTestClient(&mockCore{})
		_, err := client.Upload(context.Background(), "test-bucket", "", stream.FromChunks())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "object key cannot be empty")
	})

	t.Run("nil source", func(t *testing.T) {
		client := newTestClient(&mockCore{})
		_, err := client.Upload(context.Background(), "test-bucket", "test-key", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "source cannot be nil")
	})
}

func TestClient_UploadReader(t *testing.T) {
	core := &mockCore{}
	client := newTestClient(core)

	content := strings.Repeat("m", 300*1024)
	info, err := client.UploadReader(context.Background(), "test-bucket", "test-key",
		strings.NewReader(content))

	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), info.Size)

	var got []byte
	for _, part := range core.parts {
		got = append(got, part...)
	}
	assert.Equal(t, content, string(got))
}

func TestMultipartSession_KeyTracking(t *testing.T) {
	var partObjects []string
	var completeObject, abortObject string

	core := &mockCore{}
	core.PutObjectPartFunc = func(ctx context.Context, bucket, object, uploadID string, partID int, data io.Reader, size int64, opts minio.PutObjectPartOptions) (minio.ObjectPart, error) {
		partObjects = append(partObjects, object)
		return minio.ObjectPart{PartNumber: partID, ETag: "part-etag"}, nil
	}
	core.CompleteMultipartUploadFunc = func(ctx context.Context, bucket, object, uploadID string, parts []minio.CompletePart, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
		completeObject = object
		return minio.UploadInfo{Key: object}, nil
	}
	core.AbortMultipartUploadFunc = func(ctx context.Context, bucket, object, uploadID string) error {
		abortObject = object
		return nil
	}

	session := newTestClient(core).MultipartSession("test-bucket")
	ctx := context.Background()

	id, err := session.CreateMultipartUpload(ctx, "tracked-key", objectstore.UploadSettings{})
	require.NoError(t, err)

	_, err = session.UploadPart(ctx, id, 1, []byte("data"))
	require.NoError(t, err)

	_, err = session.CompleteMultipartUpload(ctx, id, []objectstore.Part{{Number: 1, Tag: "part-etag"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"tracked-key"}, partObjects)
	assert.Equal(t, "tracked-key", completeObject)

	// A second session aborts and the key is still resolved correctly.
	id2, err := session.CreateMultipartUpload(ctx, "aborted-key", objectstore.UploadSettings{})
	require.NoError(t, err)
	require.NoError(t, session.AbortMultipartUpload(ctx, id2))
	assert.Equal(t, "aborted-key", abortObject)
}

func TestPutOptionsFrom(t *testing.T) {
	t.Run("maps basic settings", func(t *testing.T) {
		opts, err := putOptionsFrom(objectstore.UploadSettings{
			ContentType:  "text/plain",
			Metadata:     map[string]string{"k": "v"},
			StorageClass: "STANDARD",
		})
		require.NoError(t, err)
		assert.Equal(t, "text/plain", opts.ContentType)
		assert.Equal(t, "v", opts.UserMetadata["k"])
		assert.Equal(t, "STANDARD", opts.StorageClass)
		assert.Nil(t, opts.ServerSideEncryption)
	})

	t.Run("parses tagging query string", func(t *testing.T) {
		opts, err := putOptionsFrom(objectstore.UploadSettings{Tagging: "a=1&b=2"})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"a": "1", "b": "2"}, opts.UserTags)
	})

	t.Run("rejects malformed tagging", func(t *testing.T) {
		_, err := putOptionsFrom(objectstore.UploadSettings{Tagging: "a=%zz"})
		require.Error(t, err)
	})

	t.Run("maps server-side encryption", func(t *testing.T) {
		opts, err := putOptionsFrom(objectstore.UploadSettings{
			SSE: &objectstore.SSESettings{Type: "AES256"},
		})
		require.NoError(t, err)
		assert.NotNil(t, opts.ServerSideEncryption)
	})
}
