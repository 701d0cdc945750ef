package evidence

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"civic-complaints/internal/storage"
)

// Kind groups archived evidence by lifecycle stage.
type Kind string

const (
	KindSubmission Kind = "submission"
	KindResolution Kind = "resolution"
)

// Archive copies evidence into object storage under <prefix>/<kind>/<uuid><ext>.
type Archive struct {
	store  storage.Service
	bucket string
	prefix string
	newKey func() string
}

func NewArchive(store storage.Service, bucket, prefix string) *Archive {
	return &Archive{
		store:  store,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		newKey: uuid.NewString,
	}
}

// Store decodes payload and uploads it, returning the object location.
func (a *Archive) Store(ctx context.Context, kind Kind, payload string) (string, error) {
	blob, err := Decode(payload)
	if err != nil {
		return "", err
	}

	key := path.Join(a.prefix, string(kind), a.newKey()+blob.Extension)
	location, err := a.store.PutObject(ctx, storage.Object{
		Bucket:      a.bucket,
		Key:         key,
		ContentType: blob.ContentType,
		Body:        blob.Data,
	})
	if err != nil {
		return "", fmt.Errorf("archive %s evidence: %w", kind, err)
	}
	return location, nil
}
