// Package stream provides the chunk-oriented streaming abstraction consumed
// by the connector sinks.
//
// A Source is a lazy, pull-based sequence of byte chunks. Consumers pull one
// chunk at a time and never observe two chunks concurrently, which is what
// lets the sinks keep single-writer state without locking.
package stream

import (
	"context"
	"io"
)

// Source is a lazy sequence of byte chunks.
//
// Next returns the next chunk in arrival order. It returns io.EOF when the
// sequence is exhausted. A zero-length chunk is a valid, explicit end-of-input
// signal: consumers finalize as if the stream had completed and must not pull
// further chunks after observing one.
//
// Implementations are not safe for concurrent use; a Source is owned by
// exactly one consumer.
type Source interface {
	Next(ctx context.Context) ([]byte, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) ([]byte, error)

// Next calls f.
func (f SourceFunc) Next(ctx context.Context) ([]byte, error) {
	return f(ctx)
}

// DefaultReadSize is the read size used by FromReader when none is given.
const DefaultReadSize = 64 * 1024

// FromReader adapts an io.Reader into a Source reading up to readSize bytes
// per chunk. A readSize <= 0 uses DefaultReadSize.
func FromReader(r io.Reader, readSize int) Source {
	if readSize <= 0 {
		readSize = DefaultReadSize
	}
	return &readerSource{r: r, size: readSize}
}

type readerSource struct {
	r    io.Reader
	size int
}

func (s *readerSource) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf := make([]byte, s.size)
	n, err := s.r.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	if err == nil {
		// A zero-byte read with no error; try again on the next pull.
		return s.Next(ctx)
	}
	return nil, err
}

// FromReadCloser adapts an io.ReadCloser into a Source, closing it when the
// reader is exhausted or fails. Useful for response bodies that must be
// released once drained.
func FromReadCloser(rc io.ReadCloser, readSize int) Source {
	inner := FromReader(rc, readSize)
	closed := false
	return SourceFunc(func(ctx context.Context) ([]byte, error) {
		if closed {
			return nil, io.EOF
		}
		chunk, err := inner.Next(ctx)
		if err != nil {
			closed = true
			if cerr := rc.Close(); cerr != nil && err == io.EOF {
				return nil, cerr
			}
		}
		return chunk, err
	})
}

// FromChunks returns a Source yielding the given chunks in order.
func FromChunks(chunks ...[]byte) Source {
	return &sliceSource{chunks: chunks}
}

type sliceSource struct {
	chunks [][]byte
	pos    int
}

func (s *sliceSource) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.chunks) {
		return nil, io.EOF
	}
	chunk := s.chunks[s.pos]
	s.pos++
	return chunk, nil
}

// FromChannel adapts a channel of chunks into a Source. The Source ends when
// the channel is closed or the context is cancelled.
func FromChannel(ch <-chan []byte) Source {
	return SourceFunc(func(ctx context.Context) ([]byte, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case chunk, ok := <-ch:
			if !ok {
				return nil, io.EOF
			}
			return chunk, nil
		}
	})
}

// Copy consumes src into w, honoring the empty-chunk termination signal.
// It returns the number of bytes written. Used by the writer-shaped sinks
// (GCS resumable writer, GridFS upload stream).
func Copy(ctx context.Context, w io.Writer, src Source) (int64, error) {
	var written int64
	for {
		chunk, err := src.Next(ctx)
		if err == io.EOF {
			return written, nil
		}
		if err != nil {
			return written, err
		}
		if len(chunk) == 0 {
			// Explicit termination; stop pulling.
			return written, nil
		}
		n, err := w.Write(chunk)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
}

// ReadAll drains src and returns the concatenation of its chunks, honoring
// the empty-chunk termination signal.
func ReadAll(ctx context.Context, src Source) ([]byte, error) {
	var all []byte
	for {
		chunk, err := src.Next(ctx)
		if err == io.EOF {
			return all, nil
		}
		if err != nil {
			return all, err
		}
		if len(chunk) == 0 {
			return all, nil
		}
		all = append(all, chunk...)
	}
}
