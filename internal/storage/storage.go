package storage

import "context"

// Object is a blob to be written to remote object storage.
type Object struct {
	Bucket      string
	Key         string
	ContentType string
	Body        []byte
}

// Service writes evidence blobs to remote object storage.
type Service interface {
	// PutObject uploads obj and returns its s3:// location.
	PutObject(ctx context.Context, obj Object) (string, error)
}
