// Package gcs provides a streaming connector for Google Cloud Storage.
//
// GCS exposes no public multipart API; instead, uploads stream through a
// resumable storage.Writer whose chunk size plays the part-size role. The
// Upload method consumes a stream.Source chunk by chunk, and on source or
// write failure the writer's context is canceled so the partial upload is
// discarded and never becomes a visible object.
//
// Example usage:
//
//	client, err := gcs.New(ctx)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	written, err := client.Upload(ctx, "my-bucket", "path/file.bin", src)
//	if err != nil {
//	    return err
//	}
package gcs
