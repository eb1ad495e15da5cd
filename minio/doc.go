// Package minio provides a streaming connector for MinIO and other
// S3-compatible object stores reachable through the MinIO client SDK.
//
// Uploads consume a stream.Source chunk by chunk and are written through
// low-level multipart sessions on minio.Core, so arbitrarily large payloads
// can be transferred without buffering them in memory or knowing their size
// up front. Simple object and bucket operations are thin wrappers over the
// regular minio.Client calls.
//
// Example usage:
//
//	client, err := minio.New("play.min.io",
//	    minio.WithCredentials(accessKey, secretKey),
//	)
//	if err != nil {
//	    return err
//	}
//
//	result, err := client.Upload(ctx, "my-bucket", "path/file.bin", src)
//	if err != nil {
//	    return err
//	}
package minio
