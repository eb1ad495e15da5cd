package stream

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromChunks(t *testing.T) {
	ctx := context.Background()
	src := FromChunks([]byte("one"), []byte("two"), []byte("three"))

	var got []string
	for {
		chunk, err := src.Next(ctx)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, string(chunk))
	}

	assert.Equal(t, []string{"one", "two", "three"}, got)

	// Exhausted sources keep returning io.EOF.
	_, err := src.Next(ctx)
	assert.Equal(t, io.EOF, err)
}

func TestFromReader(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		readSize   int
		wantChunks []string
	}{
		{
			name:       "splits at read size",
			input:      "abcdefgh",
			readSize:   3,
			wantChunks: []string{"abc", "def", "gh"},
		},
		{
			name:       "single chunk when input fits",
			input:      "abc",
			readSize:   16,
			wantChunks: []string{"abc"},
		},
		{
			name:       "empty reader yields no chunks",
			input:      "",
			readSize:   4,
			wantChunks: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			src := FromReader(strings.NewReader(tt.input), tt.readSize)

			var got []string
			for {
				chunk, err := src.Next(ctx)
				if err == io.EOF {
					break
				}
				require.NoError(t, err)
				got = append(got, string(chunk))
			}
			assert.Equal(t, tt.wantChunks, got)
		})
	}
}

func TestFromReader_DefaultReadSize(t *testing.T) {
	ctx := context.Background()
	input := bytes.Repeat([]byte("x"), DefaultReadSize+1)
	src := FromReader(bytes.NewReader(input), 0)

	first, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Len(t, first, DefaultReadSize)
}

func TestFromChannel(t *testing.T) {
	t.Run("drains until close", func(t *testing.T) {
		ch := make(chan []byte, 2)
		ch <- []byte("a")
		ch <- []byte("b")
		close(ch)

		src := FromChannel(ch)
		all, err := ReadAll(context.Background(), src)
		require.NoError(t, err)
		assert.Equal(t, "ab", string(all))
	})

	t.Run("cancellation interrupts a blocked pull", func(t *testing.T) {
		ch := make(chan []byte)
		src := FromChannel(ch)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := src.Next(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCopy(t *testing.T) {
	t.Run("writes all chunks in order", func(t *testing.T) {
		var buf bytes.Buffer
		n, err := Copy(context.Background(), &buf, FromChunks([]byte("hello "), []byte("world")))
		require.NoError(t, err)
		assert.Equal(t, int64(11), n)
		assert.Equal(t, "hello world", buf.String())
	})

	t.Run("empty chunk terminates the copy", func(t *testing.T) {
		var buf bytes.Buffer
		src := FromChunks([]byte("kept"), []byte{}, []byte("dropped"))
		n, err := Copy(context.Background(), &buf, src)
		require.NoError(t, err)
		assert.Equal(t, int64(4), n)
		assert.Equal(t, "kept", buf.String())
	})
}

func TestReadAll_EmptyChunkTerminates(t *testing.T) {
	src := FromChunks([]byte("abc"), []byte{}, []byte("def"))
	all, err := ReadAll(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(all))
}
