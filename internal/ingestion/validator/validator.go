// Package validator checks an uploaded blob before it is published: size
// limits, a recognised wrapper format and a fully decodable index.
package validator

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/descriptor"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/segment"
	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
)

// DefaultMaxBytes bounds an uploaded blob.
const DefaultMaxBytes = 64 << 20

// ValidationError holds per-field failure messages. It unwraps to the
// sentinel that classifies the failure.
type ValidationError struct {
	Err    error
	Fields map[string]string
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

// Validated is a blob that unwrapped and decoded cleanly.
type Validated struct {
	Blob  *segment.Blob
	Index *descriptor.Index
}

// Validate unwraps and decodes data. maxBytes <= 0 means DefaultMaxBytes.
func Validate(data []byte, maxBytes int) (*Validated, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	switch {
	case len(data) == 0:
		return nil, &ValidationError{Err: apperrors.ErrInvalidInput, Fields: map[string]string{"blob": "blob is empty"}}
	case len(data) > maxBytes:
		return nil, &ValidationError{
			Err:    apperrors.ErrBlobTooLarge,
			Fields: map[string]string{"blob": fmt.Sprintf("blob must be at most %d bytes", maxBytes)},
		}
	}

	blob, err := segment.Unwrap(data)
	if err != nil {
		return nil, &ValidationError{Err: apperrors.ErrCorruptIndex, Fields: map[string]string{"format": err.Error()}}
	}
	idx, err := descriptor.Decode(blob.Payload)
	if err != nil {
		fields := map[string]string{"index": err.Error()}
		var de *descriptor.DecodeError
		if errors.As(err, &de) && de.Crate != "" {
			fields["crate"] = de.Crate
		}
		return nil, &ValidationError{Err: apperrors.ErrCorruptIndex, Fields: fields}
	}
	return &Validated{Blob: blob, Index: idx}, nil
}
