package gcs

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

// fakeWriter records writes and whether abort ran before Close.
type fakeWriter struct {
	buf           bytes.Buffer
	closed        bool
	closeErr      error
	abortedBefore bool

	writeErrAfter int // fail writes once this many bytes were accepted, 0 disables
}

func (w *fakeWriter) Write(p []byte) (int, error) {
	if w.writeErrAfter > 0 && w.buf.Len() >= w.writeErrAfter {
		return 0, errors.New("write failed")
	}
	return w.buf.Write(p)
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return w.closeErr
}

func TestDrainSource(t *testing.T) {
	t.Run("commits after source exhaustion", func(t *testing.T) {
		w := &fakeWriter{}
		aborted := false
		abort := func() { aborted = true }

		written, err := drainSource(context.Background(), w,
			func() { abort(); w.abortedBefore = !w.closed },
			stream.FromChunks([]byte("hello "), []byte("world")))

		require.NoError(t, err)
		assert.Equal(t, int64(len("hello world")), written)
		assert.Equal(t, "hello world", w.buf.String())
		assert.True(t, w.closed)
		assert.False(t, aborted)
	})

	t.Run("empty chunk terminates the copy", func(t *testing.T) {
		w := &fakeWriter{}

		written, err := drainSource(context.Background(), w, func() {},
			stream.FromChunks([]byte("kept"), []byte{}, []byte("dropped")))

		require.NoError(t, err)
		assert.Equal(t, int64(len("kept")), written)
		assert.Equal(t, "kept", w.buf.String())
	})

	t.Run("source failure aborts before closing", func(t *testing.T) {
		w := &fakeWriter{}
		srcErr := errors.New("upstream failed")
		src := stream.SourceFunc(func(ctx context.Context) ([]byte, error) {
			return nil, srcErr
		})

		_, err := drainSource(context.Background(), w,
			func() { w.abortedBefore = !w.closed }, src)

		require.Error(t, err)
		assert.ErrorIs(t, err, srcErr)
		assert.True(t, w.closed)
		assert.True(t, w.abortedBefore, "abort must run before the writer is closed")
	})

	t.Run("write failure aborts", func(t *testing.T) {
		w := &fakeWriter{writeErrAfter: 4}

		_, err := drainSource(context.Background(), w,
			func() { w.abortedBefore = !w.closed },
			stream.FromChunks([]byte("1234"), []byte("5678")))

		require.Error(t, err)
		assert.True(t, w.abortedBefore)
	})

	t.Run("commit failure maps to completion error", func(t *testing.T) {
		w := &fakeWriter{closeErr: errors.New("commit rejected")}

		_, err := drainSource(context.Background(), w, func() {},
			stream.FromChunks([]byte("data")))

		require.Error(t, err)
		assert.ErrorIs(t, err, conerrors.ErrCompletion)
	})
}

func TestClient_Upload_Validation(t *testing.T) {
	client := &Client{}

	t.Run("empty bucket name", func(t *testing.T) {
		_, err := client.Upload(context.Background(), "", "key", stream.FromChunks())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket name cannot be empty")
	})

	t.Run("empty key name", func(t *testing.T) {
		_, err := client.Upload(context.Background(), "bucket", "", stream.FromChunks())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "object key cannot be empty")
	})

	t.Run("nil source", func(t *testing.T) {
		_, err := client.Upload(context.Background(), "bucket", "key", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "source cannot be nil")
	})

	t.Run("nil reader", func(t *testing.T) {
		_, err := client.UploadReader(context.Background(), "bucket", "key", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reader cannot be nil")
	})
}
