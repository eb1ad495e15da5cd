// Package objectstore defines the provider-agnostic multipart upload
// capability and the streaming uploader built on top of it.
//
// A Session is implemented once per provider (S3, MinIO, ...); the uploader
// is written once against the capability and never against vendor types.
package objectstore

import "context"

// UploadID is the opaque provider handle for an in-progress multipart session.
type UploadID string

// PartTag is the opaque acknowledgment tag a provider returns for an
// uploaded part (the ETag in the S3 case).
type PartTag string

// Part identifies one acknowledged part of a multipart session.
type Part struct {
	// Number is the ascending part number, starting at 1
	Number int32

	// Tag is the provider acknowledgment for the part
	Tag PartTag
}

// SSESettings contains server-side encryption settings.
type SSESettings struct {
	// Type is the encryption algorithm (e.g. "AES256", "aws:kms")
	Type string

	// KMSKeyID is the KMS key ID (required for KMS-managed encryption)
	KMSKeyID string
}

// UploadSettings is the immutable option bag captured once at upload start
// and passed through unchanged to every session call where applicable.
// The uploader never inspects these values; each provider maps the fields it
// supports onto its SDK request types and ignores the rest.
type UploadSettings struct {
	// ContentType is the MIME type of the target object
	ContentType string

	// Metadata contains user-defined metadata
	Metadata map[string]string

	// StorageClass is the provider storage class (e.g. "STANDARD")
	StorageClass string

	// ACL is the canned access-control setting (e.g. "private")
	ACL string

	// SSE is the server-side encryption configuration
	SSE *SSESettings

	// Tagging is the provider tag set in query-string form
	Tagging string

	// RequestPayer selects who pays for the request ("requester" on S3)
	RequestPayer string
}

// CompletionInfo is the provider result of a completed multipart upload.
type CompletionInfo struct {
	// Key is the object key that was written
	Key string

	// ETag is the provider entity tag for the assembled object
	ETag string

	// Location is the provider URL of the object, when reported
	Location string

	// Size is the total number of bytes uploaded across all parts
	Size int64
}

// Session is the abstract multipart upload capability of an object store.
//
// Implementations adapt one vendor SDK. All methods are expected to be
// blocking network calls honoring ctx cancellation; none are called
// concurrently for the same upload.
type Session interface {
	// CreateMultipartUpload starts a multipart session for key and returns
	// the provider handle for it.
	CreateMultipartUpload(ctx context.Context, key string, settings UploadSettings) (UploadID, error)

	// UploadPart uploads one part. partNumber starts at 1 and is never
	// reused within a session.
	UploadPart(ctx context.Context, id UploadID, partNumber int32, data []byte) (PartTag, error)

	// CompleteMultipartUpload finalizes the session. parts must be ordered
	// by ascending part number.
	CompleteMultipartUpload(ctx context.Context, id UploadID, parts []Part) (*CompletionInfo, error)

	// AbortMultipartUpload cancels the session and releases provider-side
	// resources held for it.
	AbortMultipartUpload(ctx context.Context, id UploadID) error
}
