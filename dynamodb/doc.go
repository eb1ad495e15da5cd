// Package dynamodb provides a streaming connector for AWS DynamoDB.
//
// Item and table operations are thin passthroughs over the AWS SDK v2
// client with attributevalue marshaling at the boundary. BatchSink applies
// the same accumulate-and-flush pattern as the multipart uploaders to item
// writes: writes are buffered up to the 25-request BatchWriteItem limit and
// flushed as full batches, with a final partial flush on Close.
package dynamodb
