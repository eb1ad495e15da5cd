package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	conerrors "github.com/streamwell/connect/errors"
)

// MaxBatchWrites is the provider limit on write requests per BatchWriteItem
// call. It plays the part-size role for the item sink: a flush happens as
// soon as this many writes have accumulated.
const MaxBatchWrites = 25

// maxFlushAttempts bounds the retry loop for unprocessed items within one
// flush. DynamoDB returns throttled requests as UnprocessedItems rather
// than errors.
const maxFlushAttempts = 5

// BatchSink accumulates item writes and flushes them as full BatchWriteItem
// batches, with a final partial flush on Close.
//
// A sink is bound to one table and is not safe for concurrent use; writes
// are issued strictly in accumulation order with one provider call in
// flight at a time.
type BatchSink struct {
	api     API
	table   string
	pending []types.WriteRequest
	written int
}

// NewBatchSink creates a write sink for table.
func (c *Client) NewBatchSink(table string) *BatchSink {
	return &BatchSink{
		api:     c.api,
		table:   table,
		pending: make([]types.WriteRequest, 0, MaxBatchWrites),
	}
}

// Put queues an item write, flushing if a full batch has accumulated.
func (s *BatchSink) Put(ctx context.Context, item any) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return conerrors.NewError("batchSink.put", fmt.Errorf("failed to marshal item: %w", err)).
			WithBucket(s.table)
	}

	s.pending = append(s.pending, types.WriteRequest{
		PutRequest: &types.PutRequest{Item: av},
	})

	return s.maybeFlush(ctx)
}

// Delete queues an item deletion, flushing if a full batch has accumulated.
func (s *BatchSink) Delete(ctx context.Context, key any) error {
	av, err := attributevalue.MarshalMap(key)
	if err != nil {
		return conerrors.NewError("batchSink.delete", fmt.Errorf("failed to marshal key: %w", err)).
			WithBucket(s.table)
	}

	s.pending = append(s.pending, types.WriteRequest{
		DeleteRequest: &types.DeleteRequest{Key: av},
	})

	return s.maybeFlush(ctx)
}

// Written returns the number of write requests acknowledged by the provider
// so far.
func (s *BatchSink) Written() int {
	return s.written
}

// Flush sends all pending writes now, regardless of batch fill.
func (s *BatchSink) Flush(ctx context.Context) error {
	if len(s.pending) == 0 {
		return nil
	}

	batch := s.pending
	for attempt := 0; len(batch) > 0; attempt++ {
		if attempt >= maxFlushAttempts {
			return conerrors.NewError("batchSink.flush",
				fmt.Errorf("%d write requests still unprocessed after %d attempts",
					len(batch), maxFlushAttempts)).
				WithBucket(s.table)
		}

		out, err := s.api.BatchWriteItem(ctx, &awsdynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				s.table: batch,
			},
		})
		if err != nil {
			return conerrors.NewError("batchSink.flush", convertError(err)).WithBucket(s.table)
		}

		unprocessed := out.UnprocessedItems[s.table]
		s.written += len(batch) - len(unprocessed)
		batch = unprocessed
	}

	// Pending is cleared only after every request was acknowledged.
	s.pending = s.pending[:0]
	return nil
}

// Close flushes any remaining partial batch. The sink can be reused after
// a successful Close.
func (s *BatchSink) Close(ctx context.Context) error {
	return s.Flush(ctx)
}

func (s *BatchSink) maybeFlush(ctx context.Context) error {
	if len(s.pending) >= MaxBatchWrites {
		return s.Flush(ctx)
	}
	return nil
}
