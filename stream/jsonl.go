package stream

import (
	"context"
	"io"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DocumentSource yields one document per call. Returning ok=false ends the
// stream. Used to bridge document stores (e.g. MongoDB cursors) into the
// byte-chunk world.
type DocumentSource func() (doc any, ok bool)

// FromDocuments returns a DocumentSource yielding the given documents in order.
func FromDocuments(docs ...any) DocumentSource {
	pos := 0
	return func() (any, bool) {
		if pos >= len(docs) {
			return nil, false
		}
		doc := docs[pos]
		pos++
		return doc, true
	}
}

// JSONLines returns a Source encoding each document from docs as one
// newline-terminated JSON chunk. Chunk boundaries align with document
// boundaries, so a downstream sink may re-batch them freely.
func JSONLines(docs DocumentSource) Source {
	return SourceFunc(func(ctx context.Context) ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, ok := docs()
		if !ok {
			return nil, io.EOF
		}
		line, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}
		return append(line, '\n'), nil
	})
}
