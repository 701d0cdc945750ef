// Package evidence decodes photo evidence sent by clients and archives it to
// object storage.
package evidence

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var ErrEmpty = errors.New("evidence is empty")

// Blob is decoded evidence.
type Blob struct {
	ContentType string
	Extension   string
	Data        []byte
}

// Decode accepts either a data URL ("data:image/jpeg;base64,...") or bare
// base64 and returns the raw bytes with their content type.
func Decode(payload string) (Blob, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return Blob{}, ErrEmpty
	}

	var declared string
	encoded := payload
	if strings.HasPrefix(payload, "data:") {
		header, body, ok := strings.Cut(payload[len("data:"):], ",")
		if !ok {
			return Blob{}, fmt.Errorf("malformed data url")
		}
		params := strings.Split(header, ";")
		if params[len(params)-1] != "base64" {
			return Blob{}, fmt.Errorf("data url is not base64 encoded")
		}
		declared = strings.TrimSpace(params[0])
		encoded = body
	}

	data, err := decodeBase64(encoded)
	if err != nil {
		return Blob{}, fmt.Errorf("decode base64: %w", err)
	}
	if len(data) == 0 {
		return Blob{}, ErrEmpty
	}

	detected := mimetype.Detect(data)
	blob := Blob{
		ContentType: detected.String(),
		Extension:   detected.Extension(),
		Data:        data,
	}
	if declared != "" {
		blob.ContentType = declared
		if m := mimetype.Lookup(declared); m != nil && m.Extension() != "" {
			blob.Extension = m.Extension()
		}
	}
	return blob, nil
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}
