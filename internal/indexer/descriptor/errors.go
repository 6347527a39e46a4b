package descriptor

import (
	"fmt"

	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
)

// DecodeError reports structural corruption of the blob. Index is -1 when
// the problem is not tied to one column entry.
type DecodeError struct {
	Crate  string
	Field  string
	Index  int
	Reason string
}

func (e *DecodeError) Error() string {
	switch {
	case e.Crate == "":
		return fmt.Sprintf("decoding index: %s", e.Reason)
	case e.Index < 0:
		return fmt.Sprintf("decoding crate %q field %q: %s", e.Crate, e.Field, e.Reason)
	default:
		return fmt.Sprintf("decoding crate %q field %q[%d]: %s", e.Crate, e.Field, e.Index, e.Reason)
	}
}

func (e *DecodeError) Unwrap() error {
	return apperrors.ErrCorruptIndex
}

func decodeErr(crate, field string, index int, format string, args ...any) *DecodeError {
	return &DecodeError{
		Crate:  crate,
		Field:  field,
		Index:  index,
		Reason: fmt.Sprintf(format, args...),
	}
}
