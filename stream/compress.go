package stream

import (
	"bytes"
	"context"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Gzip returns a Source yielding the gzip-compressed form of src.
//
// Compressed output is emitted as it becomes available; the final flush is
// emitted after src is exhausted. An explicit empty-chunk terminator from src
// ends the compressed stream the same way natural exhaustion does.
func Gzip(src Source) Source {
	c := &compressSource{src: src}
	c.wc = gzip.NewWriter(&c.buf)
	return c
}

// Zstd returns a Source yielding the Zstandard-compressed form of src.
// Zstd provides higher compression ratios and faster decompression than gzip.
func Zstd(src Source) Source {
	c := &compressSource{src: src}
	w, err := zstd.NewWriter(&c.buf)
	if err != nil {
		c.err = err
		return c
	}
	c.wc = w
	return c
}

// compressSource pulls chunks from the inner source, feeds them through a
// streaming compressor, and yields whatever compressed bytes the compressor
// has produced so far.
type compressSource struct {
	src  Source
	wc   io.WriteCloser
	buf  bytes.Buffer
	err  error
	done bool
}

func (c *compressSource) Next(ctx context.Context) ([]byte, error) {
	if c.err != nil {
		return nil, c.err
	}
	for {
		if c.done {
			if c.buf.Len() == 0 {
				return nil, io.EOF
			}
			return c.drain(), nil
		}

		chunk, err := c.src.Next(ctx)
		if err == io.EOF || (err == nil && len(chunk) == 0) {
			// End of input: close the compressor to flush its trailer, then
			// emit the remaining bytes on this and subsequent pulls.
			c.done = true
			if cerr := c.wc.Close(); cerr != nil {
				c.err = cerr
				return nil, cerr
			}
			continue
		}
		if err != nil {
			c.err = err
			return nil, err
		}

		if _, werr := c.wc.Write(chunk); werr != nil {
			c.err = werr
			return nil, werr
		}
		if c.buf.Len() > 0 {
			return c.drain(), nil
		}
		// Compressor is still buffering internally; pull more input.
	}
}

func (c *compressSource) drain() []byte {
	out := make([]byte, c.buf.Len())
	copy(out, c.buf.Bytes())
	c.buf.Reset()
	return out
}
