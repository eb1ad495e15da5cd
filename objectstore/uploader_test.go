package objectstore

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamwell/connect/errors"
	"github.com/streamwell/connect/stream"
)

// mockSession implements Session using function fields, so each test
// overrides exactly the calls it cares about.
type mockSession struct {
	CreateMultipartUploadFunc   func(ctx context.Context, key string, settings UploadSettings) (UploadID, error)
	UploadPartFunc              func(ctx context.Context, id UploadID, partNumber int32, data []byte) (PartTag, error)
	CompleteMultipartUploadFunc func(ctx context.Context, id UploadID, parts []Part) (*CompletionInfo, error)
	AbortMultipartUploadFunc    func(ctx context.Context, id UploadID) error
}

func (m *mockSession) CreateMultipartUpload(ctx context.Context, key string, settings UploadSettings) (UploadID, error) {
	if m.CreateMultipartUploadFunc != nil {
		return m.CreateMultipartUploadFunc(ctx, key, settings)
	}
	return "test-upload-id", nil
}

func (m *mockSession) UploadPart(ctx context.Context, id UploadID, partNumber int32, data []byte) (PartTag, error) {
	if m.UploadPartFunc != nil {
		return m.UploadPartFunc(ctx, id, partNumber, data)
	}
	return PartTag(fmt.Sprintf("etag-%d", partNumber)), nil
}

func (m *mockSession) CompleteMultipartUpload(ctx context.Context, id UploadID, parts []Part) (*CompletionInfo, error) {
	if m.CompleteMultipartUploadFunc != nil {
		return m.CompleteMultipartUploadFunc(ctx, id, parts)
	}
	return &CompletionInfo{Key: "test-key", ETag: "final-etag"}, nil
}

func (m *mockSession) AbortMultipartUpload(ctx context.Context, id UploadID) error {
	if m.AbortMultipartUploadFunc != nil {
		return m.AbortMultipartUploadFunc(ctx, id)
	}
	return nil
}

// recordingSession wraps mockSession and records every call in order, for
// asserting call sequencing and exactly-one-finalizer behavior.
type recordingSession struct {
	mockSession
	calls     []string
	partSizes []int
	partNums  []int32
	completed [][]Part
	aborted   int
}

func (r *recordingSession) CreateMultipartUpload(ctx context.Context, key string, settings UploadSettings) (UploadID, error) {
	r.calls = append(r.calls, "create")
	return r.mockSession.CreateMultipartUpload(ctx, key, settings)
}

func (r *recordingSession) UploadPart(ctx context.Context, id UploadID, partNumber int32, data []byte) (PartTag, error) {
	r.calls = append(r.calls, fmt.Sprintf("uploadPart:%d", partNumber))
	r.partNums = append(r.partNums, partNumber)
	r.partSizes = append(r.partSizes, len(data))
	return r.mockSession.UploadPart(ctx, id, partNumber, data)
}

func (r *recordingSession) CompleteMultipartUpload(ctx context.Context, id UploadID, parts []Part) (*CompletionInfo, error) {
	r.calls = append(r.calls, "complete")
	r.completed = append(r.completed, parts)
	return r.mockSession.CompleteMultipartUpload(ctx, id, parts)
}

func (r *recordingSession) AbortMultipartUpload(ctx context.Context, id UploadID) error {
	r.calls = append(r.calls, "abort")
	r.aborted++
	return r.mockSession.AbortMultipartUpload(ctx, id)
}

const mib = 1024 * 1024

func chunkOf(b byte, n int) []byte {
	return bytes.Repeat([]byte{b}, n)
}

func TestChunkUploader_AccumulatesBelowThreshold(t *testing.T) {
	// Three 2 MiB chunks cross the 5 MiB threshold once, so a single 6 MiB
	// part is uploaded and no trailing empty part follows.
	session := &recordingSession{}
	u := NewChunkUploader(session, "test-key", UploadSettings{}, MinPartSize)

	src := stream.FromChunks(chunkOf('a', 2*mib), chunkOf('b', 2*mib), chunkOf('c', 2*mib))
	info, err := u.Upload(context.Background(), src)
	require.NoError(t, err)
	require.NotNil(t, info)

	assert.Equal(t, []string{"create", "uploadPart:1", "complete"}, session.calls)
	assert.Equal(t, []int{6 * mib}, session.partSizes)
	require.Len(t, session.completed, 1)
	assert.Equal(t, []Part{{Number: 1, Tag: "etag-1"}}, session.completed[0])
}

func TestChunkUploader_MultiplePartsInOrder(t *testing.T) {
	session := &recordingSession{}
	u := NewChunkUploader(session, "test-key", UploadSettings{}, MinPartSize)

	src := stream.FromChunks(chunkOf('a', 6*mib), chunkOf('b', 6*mib))
	_, err := u.Upload(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, []string{"create", "uploadPart:1", "uploadPart:2", "complete"}, session.calls)
	assert.Equal(t, []int32{1, 2}, session.partNums)
	assert.Equal(t, []int{6 * mib, 6 * mib}, session.partSizes)
}

func TestChunkUploader_FinalPartBelowMinimum(t *testing.T) {
	// 3 MiB total never crosses the threshold; it ships as the sole final
	// part, which is exempt from the minimum size rule.
	session := &recordingSession{}
	u := NewChunkUploader(session, "test-key", UploadSettings{}, MinPartSize)

	src := stream.FromChunks(chunkOf('a', 3*mib))
	_, err := u.Upload(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, []string{"create", "uploadPart:1", "complete"}, session.calls)
	assert.Equal(t, []int{3 * mib}, session.partSizes)
}

func TestChunkUploader_RemainderFlushedAsFinalPart(t *testing.T) {
	// 7 MiB crosses once (one 7 MiB part, since the buffer flushes whole)
	// then 1 MiB remains for the final part.
	session := &recordingSession{}
	u := NewChunkUploader(session, "test-key", UploadSettings{}, MinPartSize)

	src := stream.FromChunks(chunkOf('a', 7*mib), chunkOf('b', 1*mib))
	_, err := u.Upload(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, []int{7 * mib, 1 * mib}, session.partSizes)
	require.Len(t, session.completed, 1)
	assert.Equal(t, []Part{{Number: 1, Tag: "etag-1"}, {Number: 2, Tag: "etag-2"}}, session.completed[0])
}

func TestChunkUploader_EmptyStream(t *testing.T) {
	// A stream with no bytes still resolves: one empty part, then complete.
	session := &recordingSession{}
	u := NewChunkUploader(session, "test-key", UploadSettings{}, MinPartSize)

	_, err := u.Upload(context.Background(), stream.FromChunks())
	require.NoError(t, err)

	assert.Equal(t, []string{"create", "uploadPart:1", "complete"}, session.calls)
	assert.Equal(t, []int{0}, session.partSizes)
	assert.Zero(t, session.aborted)
}

func TestChunkUploader_EmptyChunkTerminates(t *testing.T) {
	// A zero-length chunk ends the upload even though the source has more
	// data queued behind it.
	session := &recordingSession{}
	u := NewChunkUploader(session, "test-key", UploadSettings{}, MinPartSize)

	src := stream.FromChunks(chunkOf('a', 2*mib), []byte{}, chunkOf('x', 6*mib))
	_, err := u.Upload(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, []string{"create", "uploadPart:1", "complete"}, session.calls)
	assert.Equal(t, []int{2 * mib}, session.partSizes)
}

func TestChunkUploader_SessionCreateFailure(t *testing.T) {
	createErr := stderrors.New("access denied")
	session := &recordingSession{
		mockSession: mockSession{
			CreateMultipartUploadFunc: func(ctx context.Context, key string, settings UploadSettings) (UploadID, error) {
				return "", createErr
			},
		},
	}
	u := NewChunkUploader(session, "test-key", UploadSettings{}, MinPartSize)

	_, err := u.Upload(context.Background(), stream.FromChunks(chunkOf('a', 6*mib)))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrSessionCreate)
	assert.ErrorIs(t, err, createErr)

	// No session exists, so nothing may be uploaded, completed, or aborted.
	assert.Equal(t, []string{"create"}, session.calls)
}

func TestChunkUploader_PartUploadFailureAborts(t *testing.T) {
	partErr := stderrors.New("connection reset")
	session := &recordingSession{
		mockSession: mockSession{
			UploadPartFunc: func(ctx context.Context, id UploadID, partNumber int32, data []byte) (PartTag, error) {
				if partNumber == 2 {
					return "", partErr
				}
				return PartTag(fmt.Sprintf("etag-%d", partNumber)), nil
			},
		},
	}
	u := NewChunkUploader(session, "test-key", UploadSettings{}, MinPartSize)

	src := stream.FromChunks(chunkOf('a', 6*mib), chunkOf('b', 6*mib))
	_, err := u.Upload(context.Background(), src)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrPartUpload)
	assert.ErrorIs(t, err, partErr)

	assert.Equal(t, []string{"create", "uploadPart:1", "uploadPart:2", "abort"}, session.calls)
	assert.Equal(t, 1, session.aborted)
	assert.Empty(t, session.completed)
}

func TestChunkUploader_UpstreamFailureAborts(t *testing.T) {
	srcErr := stderrors.New("read failed")
	pulls := 0
	src := stream.SourceFunc(func(ctx context.Context) ([]byte, error) {
		pulls++
		if pulls == 1 {
			return chunkOf('a', 2*mib), nil
		}
		return nil, srcErr
	})

	session := &recordingSession{}
	u := NewChunkUploader(session, "test-key", UploadSettings{}, MinPartSize)

	_, err := u.Upload(context.Background(), src)
	require.Error(t, err)
	assert.ErrorIs(t, err, srcErr)

	assert.Equal(t, []string{"create", "abort"}, session.calls)
	assert.Empty(t, session.completed)
}

func TestChunkUploader_CancellationAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	pulls := 0
	src := stream.SourceFunc(func(ctx context.Context) ([]byte, error) {
		pulls++
		if pulls == 1 {
			return chunkOf('a', 2*mib), nil
		}
		cancel()
		return nil, ctx.Err()
	})

	var abortCtxErr error
	session := &recordingSession{
		mockSession: mockSession{
			AbortMultipartUploadFunc: func(ctx context.Context, id UploadID) error {
				abortCtxErr = ctx.Err()
				return nil
			},
		},
	}
	u := NewChunkUploader(session, "test-key", UploadSettings{}, MinPartSize)

	_, err := u.Upload(ctx, src)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	// The abort still ran, on a context detached from the cancellation.
	assert.Equal(t, 1, session.aborted)
	assert.NoError(t, abortCtxErr)
}

func TestChunkUploader_CompletionFailureDoesNotAbort(t *testing.T) {
	completeErr := stderrors.New("upload no longer exists")
	session := &recordingSession{
		mockSession: mockSession{
			CompleteMultipartUploadFunc: func(ctx context.Context, id UploadID, parts []Part) (*CompletionInfo, error) {
				return nil, completeErr
			},
		},
	}
	u := NewChunkUploader(session, "test-key", UploadSettings{}, MinPartSize)

	_, err := u.Upload(context.Background(), stream.FromChunks(chunkOf('a', 6*mib)))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrCompletion)
	assert.ErrorIs(t, err, completeErr)
	assert.Zero(t, session.aborted)
}

func TestChunkUploader_AbortFailureJoinedWithCause(t *testing.T) {
	partErr := stderrors.New("part rejected")
	abortErr := stderrors.New("abort rejected")
	session := &recordingSession{
		mockSession: mockSession{
			UploadPartFunc: func(ctx context.Context, id UploadID, partNumber int32, data []byte) (PartTag, error) {
				return "", partErr
			},
			AbortMultipartUploadFunc: func(ctx context.Context, id UploadID) error {
				return abortErr
			},
		},
	}
	u := NewChunkUploader(session, "test-key", UploadSettings{}, MinPartSize)

	_, err := u.Upload(context.Background(), stream.FromChunks(chunkOf('a', 6*mib)))
	require.Error(t, err)
	assert.ErrorIs(t, err, partErr)
	assert.ErrorIs(t, err, abortErr)
}

func TestChunkUploader_BufferClearedOnlyAfterAck(t *testing.T) {
	// The buffered bytes handed to UploadPart must be the accumulated data,
	// and the next part must not re-send them.
	var seen [][]byte
	session := &mockSession{
		UploadPartFunc: func(ctx context.Context, id UploadID, partNumber int32, data []byte) (PartTag, error) {
			cp := make([]byte, len(data))
			copy(cp, data)
			seen = append(seen, cp)
			return PartTag(fmt.Sprintf("etag-%d", partNumber)), nil
		},
	}
	u := NewChunkUploader(session, "test-key", UploadSettings{}, MinPartSize)

	src := stream.FromChunks(chunkOf('a', 5*mib), chunkOf('b', 5*mib))
	_, err := u.Upload(context.Background(), src)
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Equal(t, chunkOf('a', 5*mib), seen[0])
	assert.Equal(t, chunkOf('b', 5*mib), seen[1])
}

func TestChunkUploader_ReportsSize(t *testing.T) {
	session := &mockSession{}
	u := NewChunkUploader(session, "test-key", UploadSettings{}, MinPartSize)

	info, err := u.Upload(context.Background(), stream.FromChunks(chunkOf('a', 6*mib), chunkOf('b', 1*mib)))
	require.NoError(t, err)
	assert.Equal(t, int64(7*mib), info.Size)
}

func TestChunkUploader_PartSizeClampedToMinimum(t *testing.T) {
	session := &recordingSession{}
	u := NewChunkUploader(session, "test-key", UploadSettings{}, 1024)

	// With the configured size clamped to 5 MiB, 4 MiB stays buffered until
	// the stream ends.
	_, err := u.Upload(context.Background(), stream.FromChunks(chunkOf('a', 4*mib)))
	require.NoError(t, err)
	assert.Equal(t, []int{4 * mib}, session.partSizes)
}

func TestChunkUploader_SourceNotPulledAfterPartFailure(t *testing.T) {
	partErr := stderrors.New("part rejected")
	pulls := 0
	src := stream.SourceFunc(func(ctx context.Context) ([]byte, error) {
		pulls++
		if pulls == 1 {
			return chunkOf('a', 6*mib), nil
		}
		return nil, io.EOF
	})

	session := &mockSession{
		UploadPartFunc: func(ctx context.Context, id UploadID, partNumber int32, data []byte) (PartTag, error) {
			return "", partErr
		},
	}
	u := NewChunkUploader(session, "test-key", UploadSettings{}, MinPartSize)

	_, err := u.Upload(context.Background(), src)
	require.Error(t, err)
	assert.Equal(t, 1, pulls)
}
