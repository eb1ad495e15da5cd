// streamcp copies a local file or stdin into a storage connector sink.
//
// The destination selects the connector by URL scheme:
//
//	streamcp ./dump.bin s3://my-bucket/backups/dump.bin
//	cat dump.bin | streamcp - gs://my-bucket/backups/dump.bin
//	streamcp ./dump.bin minio://my-bucket/dump.bin --endpoint localhost:9000
package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/streamwell/connect/gcs"
	"github.com/streamwell/connect/minio"
	"github.com/streamwell/connect/s3"
	"github.com/streamwell/connect/s3/s3types"
	"github.com/streamwell/connect/stream"
)

var log = logrus.New()

var copyCmdConfig struct {
	endpoint    string
	partSize    string
	region      string
	contentType string
	accessKey   string
	secretKey   string
	gzip        bool
	insecure    bool
	verbose     bool
}

var rootCmd = &cobra.Command{
	Use:   "streamcp SRC DST",
	Short: "Stream a file or stdin into a storage connector",
	Long: `streamcp pipes a local file (or stdin when SRC is "-") into an object
store through a chunked streaming upload. The destination scheme selects the
connector: s3://bucket/key, gs://bucket/key, or minio://bucket/key.`,
	Args: cobra.ExactArgs(2),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if copyCmdConfig.verbose {
			log.SetLevel(logrus.DebugLevel)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCopy(cmd.Context(), args[0], args[1])
	},
}

func init() {
	rootCmd.Flags().StringVar(&copyCmdConfig.endpoint, "endpoint", "",
		"custom endpoint (required for minio://, optional for s3://)")
	rootCmd.Flags().StringVar(&copyCmdConfig.partSize, "part-size", "5MB",
		"upload part size in human units, e.g. 16MB")
	rootCmd.Flags().StringVar(&copyCmdConfig.region, "region", "",
		"region for the s3 connector")
	rootCmd.Flags().StringVar(&copyCmdConfig.contentType, "content-type", "",
		"content type of the uploaded object")
	rootCmd.Flags().StringVar(&copyCmdConfig.accessKey, "access-key", "",
		"access key for the minio connector")
	rootCmd.Flags().StringVar(&copyCmdConfig.secretKey, "secret-key", "",
		"secret key for the minio connector")
	rootCmd.Flags().BoolVar(&copyCmdConfig.gzip, "gzip", false,
		"gzip-compress the stream before uploading")
	rootCmd.Flags().BoolVar(&copyCmdConfig.insecure, "insecure", false,
		"disable TLS for the minio connector")
	rootCmd.Flags().BoolVarP(&copyCmdConfig.verbose, "verbose", "v", false,
		"enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func runCopy(ctx context.Context, srcArg, dstArg string) error {
	partSize, err := units.RAMInBytes(copyCmdConfig.partSize)
	if err != nil {
		return fmt.Errorf("invalid part size %q: %w", copyCmdConfig.partSize, err)
	}

	scheme, bucket, key, err := parseDestination(dstArg)
	if err != nil {
		return err
	}

	src, closeSrc, err := openSource(srcArg)
	if err != nil {
		return err
	}
	defer closeSrc()

	if copyCmdConfig.gzip {
		log.Debug("gzip compression enabled")
		src = stream.Gzip(src)
	}

	start := time.Now()
	var written int64

	switch scheme {
	case "s3":
		written, err = copyToS3(ctx, bucket, key, src, partSize)
	case "gs":
		written, err = copyToGCS(ctx, bucket, key, src, partSize)
	case "minio":
		written, err = copyToMinIO(ctx, bucket, key, src, partSize)
	default:
		return fmt.Errorf("unsupported destination scheme %q", scheme)
	}
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"destination": dstArg,
		"bytes":       written,
		"duration":    time.Since(start).Round(time.Millisecond).String(),
	}).Info("upload complete")

	return nil
}

// parseDestination splits scheme://bucket/key into its parts.
func parseDestination(dstArg string) (scheme, bucket, key string, err error) {
	dst, err := url.Parse(dstArg)
	if err != nil {
		return "", "", "", fmt.Errorf("invalid destination %q: %w", dstArg, err)
	}
	bucket = dst.Host
	key = strings.TrimPrefix(dst.Path, "/")
	if dst.Scheme == "" || bucket == "" || key == "" {
		return "", "", "", fmt.Errorf("destination must be scheme://bucket/key, got %q", dstArg)
	}
	return dst.Scheme, bucket, key, nil
}

// openSource opens srcArg as a chunk source, with "-" meaning stdin.
func openSource(srcArg string) (stream.Source, func(), error) {
	if srcArg == "-" {
		log.Debug("reading from stdin")
		return stream.FromReader(os.Stdin, stream.DefaultReadSize), func() {}, nil
	}

	f, err := os.Open(srcArg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open source: %w", err)
	}
	return stream.FromReader(f, stream.DefaultReadSize), func() { _ = f.Close() }, nil
}

func copyToS3(ctx context.Context, bucket, key string, src stream.Source, partSize int64) (int64, error) {
	clientOpts := []s3types.Option{s3.WithPartSize(partSize)}
	if copyCmdConfig.region != "" {
		clientOpts = append(clientOpts, s3.WithRegion(copyCmdConfig.region))
	}
	if copyCmdConfig.endpoint != "" {
		clientOpts = append(clientOpts,
			s3.WithEndpoint(copyCmdConfig.endpoint),
			s3.WithForcePathStyle(true),
		)
	}

	client, err := s3.New(clientOpts...)
	if err != nil {
		return 0, err
	}

	var uploadOpts []s3types.UploadOption
	if copyCmdConfig.contentType != "" {
		uploadOpts = append(uploadOpts, s3.WithContentType(copyCmdConfig.contentType))
	}

	result, err := client.Upload(ctx, bucket, key, src, uploadOpts...)
	if err != nil {
		return 0, err
	}
	return result.Size, nil
}

func copyToGCS(ctx context.Context, bucket, key string, src stream.Source, partSize int64) (int64, error) {
	clientOpts := []gcs.Option{gcs.WithChunkSize(int(partSize))}
	if copyCmdConfig.endpoint != "" {
		clientOpts = append(clientOpts, gcs.WithEndpoint(copyCmdConfig.endpoint))
	}

	client, err := gcs.New(ctx, clientOpts...)
	if err != nil {
		return 0, err
	}
	defer func() { _ = client.Close() }()

	var uploadOpts []gcs.UploadOption
	if copyCmdConfig.contentType != "" {
		uploadOpts = append(uploadOpts, gcs.WithContentType(copyCmdConfig.contentType))
	}

	return client.Upload(ctx, bucket, key, src, uploadOpts...)
}

func copyToMinIO(ctx context.Context, bucket, key string, src stream.Source, partSize int64) (int64, error) {
	if copyCmdConfig.endpoint == "" {
		return 0, fmt.Errorf("minio destinations require --endpoint")
	}

	clientOpts := []minio.Option{
		minio.WithPartSize(partSize),
		minio.WithSecure(!copyCmdConfig.insecure),
	}
	if copyCmdConfig.accessKey != "" {
		clientOpts = append(clientOpts,
			minio.WithCredentials(copyCmdConfig.accessKey, copyCmdConfig.secretKey))
	}
	if copyCmdConfig.region != "" {
		clientOpts = append(clientOpts, minio.WithRegion(copyCmdConfig.region))
	}

	client, err := minio.New(copyCmdConfig.endpoint, clientOpts...)
	if err != nil {
		return 0, err
	}

	var uploadOpts []minio.UploadOption
	if copyCmdConfig.contentType != "" {
		uploadOpts = append(uploadOpts, minio.WithContentType(copyCmdConfig.contentType))
	}

	info, err := client.Upload(ctx, bucket, key, src, uploadOpts...)
	if err != nil {
		return 0, err
	}
	return info.Size, nil
}
