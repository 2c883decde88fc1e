// Package objectstore abstracts the blob store holding uploaded videos and
// derived thumbnails behind a small client interface with MinIO and local
// directory implementations.
package objectstore

import (
	"context"
	"fmt"
	"time"
)

// Client describes the object-store operations the ingest pipeline needs.
type Client interface {
	// Download fetches an object into a local file.
	Download(ctx context.Context, bucket, objectPath, destFile string) error
	// Upload stores a local file at the given object path.
	Upload(ctx context.Context, bucket, objectPath, srcFile, contentType string) error
	// SignedURL returns a time-limited read URL for an object.
	SignedURL(ctx context.Context, bucket, objectPath string, expiry time.Duration) (string, error)
}

// Error wraps an object-store failure with the operation and object involved.
type Error struct {
	Op         string
	Bucket     string
	ObjectPath string
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("object store %s %s/%s: %v", e.Op, e.Bucket, e.ObjectPath, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapErr(op, bucket, objectPath string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Bucket: bucket, ObjectPath: objectPath, Err: err}
}
