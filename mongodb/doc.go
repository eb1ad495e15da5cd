// Package mongodb provides a streaming connector for MongoDB.
//
// Collection operations are thin passthroughs over the official driver with
// opaque filters and documents. Binary payloads stream into GridFS: the
// upload sink consumes a stream.Source chunk by chunk and finalizes the
// upload stream with exactly one of Close (commit) or Abort (discard), the
// same finalize discipline as the multipart object-store uploaders.
package mongodb
