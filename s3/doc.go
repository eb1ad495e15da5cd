// Package s3 provides a streaming connector for AWS S3.
// It wraps AWS SDK v2 to provide an intuitive and efficient interface
// for common S3 operations while maintaining flexibility for advanced use cases.
//
// Uploads consume a stream.Source chunk by chunk and are written to S3
// through multipart sessions, so arbitrarily large payloads can be
// transferred without buffering them in memory or knowing their size
// up front.
//
// Key features:
//   - Simple, zero-configuration usage with AWS credential chain
//   - Progressive enhancement through functional options
//   - Chunked multipart uploads driven by reactive sources
//   - Comprehensive error handling with context
//   - Streaming downloads through writers or sources
//
// Example usage:
//
//	client, err := s3.New()
//	if err != nil {
//	    return err
//	}
//
//	// Upload a stream of chunks
//	result, err := client.Upload(ctx, "my-bucket", "path/file.txt", src)
//	if err != nil {
//	    return err
//	}
package s3
