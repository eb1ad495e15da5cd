// Package errors provides error types and handling shared by all connectors.
package errors

import (
	"errors"
	"fmt"
)

// Error represents a connector operation error with context about the
// operation that failed. It wraps the underlying SDK error with additional
// context for better debugging.
type Error struct {
	// Op is the operation that failed (e.g., "s3.upload", "gcs.put")
	Op string

	// Bucket is the bucket, table, or collection name (if applicable)
	Bucket string

	// Key is the object key or document identifier (if applicable)
	Key string

	// Err is the underlying error from the vendor SDK or other source
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	if e.Bucket != "" && e.Key != "" {
		return fmt.Sprintf("%s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	}
	if e.Bucket != "" {
		return fmt.Sprintf("%s bucket %s: %v", e.Op, e.Bucket, e.Err)
	}
	if e.Key != "" {
		return fmt.Sprintf("%s object %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithBucket adds bucket context to an existing error.
func (e *Error) WithBucket(bucket string) *Error {
	e.Bucket = bucket
	return e
}

// WithKey adds object key context to an existing error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// NewError creates a new Error with the given operation and underlying error.
func NewError(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: err,
	}
}

// NewBucketError creates a new Error with bucket context.
func NewBucketError(op, bucket string, err error) *Error {
	return &Error{
		Op:     op,
		Bucket: bucket,
		Err:    err,
	}
}

// NewObjectError creates a new Error with bucket and key context.
func NewObjectError(op, bucket, key string, err error) *Error {
	return &Error{
		Op:     op,
		Bucket: bucket,
		Key:    key,
		Err:    err,
	}
}

// Sentinel errors for the multipart upload lifecycle.
// Exactly one of these classifies every terminal streaming-upload failure.
var (
	// ErrSessionCreate indicates the initial multipart-session creation
	// failed; nothing was uploaded and there is nothing to abort
	ErrSessionCreate = errors.New("connect: multipart session creation failed")

	// ErrPartUpload indicates a part upload failed; the session was aborted
	ErrPartUpload = errors.New("connect: part upload failed")

	// ErrCompletion indicates the finalize call failed after all parts were
	// uploaded; the session is left in a provider-defined incomplete state
	ErrCompletion = errors.New("connect: multipart completion failed")
)

// Sentinel errors for common connector operation failures.
// These can be used with errors.Is() for error checking.
var (
	// ErrObjectNotFound indicates that the requested object does not exist
	ErrObjectNotFound = errors.New("connect: object not found")

	// ErrBucketNotFound indicates that the requested bucket does not exist
	ErrBucketNotFound = errors.New("connect: bucket not found")

	// ErrAccessDenied indicates that access to the resource is denied
	ErrAccessDenied = errors.New("connect: access denied")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("connect: invalid input")

	// ErrBucketAlreadyExists indicates that the bucket already exists
	ErrBucketAlreadyExists = errors.New("connect: bucket already exists")

	// ErrBucketNotEmpty indicates that the bucket is not empty and cannot be deleted
	ErrBucketNotEmpty = errors.New("connect: bucket not empty")

	// ErrInvalidBucketName indicates that the bucket name is invalid
	ErrInvalidBucketName = errors.New("connect: invalid bucket name")

	// ErrInvalidObjectKey indicates that the object key is invalid
	ErrInvalidObjectKey = errors.New("connect: invalid object key")

	// ErrTableNotFound indicates that the requested table does not exist
	ErrTableNotFound = errors.New("connect: table not found")

	// ErrTableAlreadyExists indicates that the table already exists
	ErrTableAlreadyExists = errors.New("connect: table already exists")
)

// IsSessionCreate checks if an error indicates a failed multipart-session creation.
func IsSessionCreate(err error) bool {
	return errors.Is(err, ErrSessionCreate)
}

// IsPartUpload checks if an error indicates a failed part upload.
func IsPartUpload(err error) bool {
	return errors.Is(err, ErrPartUpload)
}

// IsCompletion checks if an error indicates a failed multipart completion.
func IsCompletion(err error) bool {
	return errors.Is(err, ErrCompletion)
}

// IsObjectNotFound checks if an error indicates that an object was not found.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsObjectNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound)
}

// IsBucketNotFound checks if an error indicates that a bucket was not found.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsBucketNotFound(err error) bool {
	return errors.Is(err, ErrBucketNotFound)
}

// IsInvalidInput checks if an error indicates invalid input.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
