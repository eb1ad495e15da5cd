package mongodb

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	conerrors "github.com/streamwell/connect/errors"
	"github.com/streamwell/connect/stream"
)

// fakeUploadStream records which finalizer ran and the bytes written.
type fakeUploadStream struct {
	buf      bytes.Buffer
	closed   bool
	aborted  bool
	closeErr error
	writeErr error
}

func (f *fakeUploadStream) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	return f.buf.Write(p)
}

func (f *fakeUploadStream) Close() error {
	f.closed = true
	return f.closeErr
}

func (f *fakeUploadStream) Abort() error {
	f.aborted = true
	return nil
}

func TestDrainUpload(t *testing.T) {
	t.Run("commits after source exhaustion", func(t *testing.T) {
		us := &fakeUploadStream{}

		written, err := drainUpload(context.Background(), us,
			stream.FromChunks([]byte("grid"), []byte("fs")))

		require.NoError(t, err)
		assert.Equal(t, int64(len("gridfs")), written)
		assert.Equal(t, "gridfs", us.buf.String())
		assert.True(t, us.closed)
		assert.False(t, us.aborted, "a committed upload must not also abort")
	})

	t.Run("empty chunk terminates and commits", func(t *testing.T) {
		us := &fakeUploadStream{}

		written, err := drainUpload(context.Background(), us,
			stream.FromChunks([]byte("kept"), []byte{}, []byte("dropped")))

		require.NoError(t, err)
		assert.Equal(t, int64(len("kept")), written)
		assert.True(t, us.closed)
		assert.False(t, us.aborted)
	})

	t.Run("source failure aborts", func(t *testing.T) {
		us := &fakeUploadStream{}
		srcErr := errors.New("upstream failed")
		src := stream.SourceFunc(func(ctx context.Context) ([]byte, error) {
			return nil, srcErr
		})

		_, err := drainUpload(context.Background(), us, src)

		require.Error(t, err)
		assert.ErrorIs(t, err, srcErr)
		assert.True(t, us.aborted)
		assert.False(t, us.closed, "an aborted upload must not also commit")
	})

	t.Run("write failure aborts", func(t *testing.T) {
		us := &fakeUploadStream{writeErr: errors.New("write failed")}

		_, err := drainUpload(context.Background(), us,
			stream.FromChunks([]byte("data")))

		require.Error(t, err)
		assert.True(t, us.aborted)
		assert.False(t, us.closed)
	})

	t.Run("commit failure maps to completion error", func(t *testing.T) {
		us := &fakeUploadStream{closeErr: errors.New("commit rejected")}

		_, err := drainUpload(context.Background(), us,
			stream.FromChunks([]byte("data")))

		require.Error(t, err)
		assert.ErrorIs(t, err, conerrors.ErrCompletion)
		assert.False(t, us.aborted)
	})
}

func TestClient_UploadStream_Validation(t *testing.T) {
	client := &Client{}

	t.Run("empty filename", func(t *testing.T) {
		_, err := client.UploadStream(context.Background(), "", stream.FromChunks())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "filename cannot be empty")
	})

	t.Run("nil source", func(t *testing.T) {
		_, err := client.UploadStream(context.Background(), "file.bin", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "source cannot be nil")
	})
}

func TestClient_FileSource_Validation(t *testing.T) {
	client := &Client{}

	_, err := client.FileSource(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "filename cannot be empty")
}
