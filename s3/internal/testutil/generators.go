// Package testutil provides test data generators.
package testutil

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// TestDataGenerator provides methods for generating test data.
type TestDataGenerator struct {
	rand *rand.Rand
}

// NewTestDataGenerator creates a new test data generator with a seeded random source.
func NewTestDataGenerator(seed int64) *TestDataGenerator {
	return &TestDataGenerator{
		rand: rand.New(rand.NewSource(seed)),
	}
}

// GenerateBucketName returns a unique, DNS-compliant bucket name.
func GenerateBucketName(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}

// GenerateUploadID returns a unique multipart upload identifier.
func GenerateUploadID() string {
	return uuid.NewString()
}

// GenerateObjectList generates a list of test S3 objects.
func (g *TestDataGenerator) GenerateObjectList(count int, prefix string) []types.Object {
	objects := make([]types.Object, count)
	baseTime := time.Now().Add(-24 * time.Hour)

	for i := 0; i < count; i++ {
		key := fmt.Sprintf("%sobject-%04d.txt", prefix, i)
		size := int64(g.rand.Intn(1000000) + 1000) // 1KB to 1MB
		modified := baseTime.Add(time.Duration(i) * time.Minute)
		objects[i] = CreateTestObject(key, size, modified)
	}

	return objects
}

// GenerateCommonPrefixes generates common prefixes for directory-like structures.
func (g *TestDataGenerator) GenerateCommonPrefixes(count int, base string) []types.CommonPrefix {
	prefixes := make([]types.CommonPrefix, count)

	for i := 0; i < count; i++ {
		prefixes[i] = types.CommonPrefix{
			Prefix: StringPtr(fmt.Sprintf("%sdir%02d/", base, i)),
		}
	}

	return prefixes
}

// GenerateChunks generates count random chunks of the given size, for
// feeding streaming upload tests.
func (g *TestDataGenerator) GenerateChunks(count, size int) [][]byte {
	chunks := make([][]byte, count)
	for i := range chunks {
		chunk := make([]byte, size)
		g.rand.Read(chunk)
		chunks[i] = chunk
	}
	return chunks
}

// GenerateMultipartUpload generates a test multipart upload structure.
func (g *TestDataGenerator) GenerateMultipartUpload(key, uploadID string) types.MultipartUpload {
	return types.MultipartUpload{
		Key:          StringPtr(key),
		UploadId:     StringPtr(uploadID),
		StorageClass: types.StorageClassStandard,
		Initiated:    TimePtr(time.Now()),
	}
}

// GenerateCompletedParts generates completed multipart upload parts.
func (g *TestDataGenerator) GenerateCompletedParts(count int) []types.CompletedPart {
	parts := make([]types.CompletedPart, count)

	for i := 0; i < count; i++ {
		parts[i] = types.CompletedPart{
			PartNumber: Int32Ptr(int32(i + 1)),
			ETag:       StringPtr(fmt.Sprintf(`"%x"`, g.rand.Int63())),
		}
	}

	return parts
}

// GenerateObjectMetadata generates test object metadata.
func (g *TestDataGenerator) GenerateObjectMetadata(size int64) map[string]string {
	return map[string]string{
		"test-key-1": fmt.Sprintf("test-value-%d", g.rand.Intn(100)),
		"test-key-2": fmt.Sprintf("test-value-%d", g.rand.Intn(100)),
		"size":       fmt.Sprintf("%d", size),
	}
}
