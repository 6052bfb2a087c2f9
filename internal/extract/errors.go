package extract

import (
	"errors"
	"fmt"

	"github.com/mabhi256/bpmx/internal/walker"
)

var (
	// ErrSourceUnavailable wraps failures to open or read the input path.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrTruncatedCapture marks a capture that was still open when the
	// document ended. The partial fragment is discarded.
	ErrTruncatedCapture = errors.New("truncated capture")
)

// MalformedDocumentError is returned when the document is not well-formed.
type MalformedDocumentError = walker.MalformedDocumentError

type FailureKind string

const (
	FailureTruncatedCapture FailureKind = "truncated-capture"
	FailureWrite            FailureKind = "write"
)

// Failure is a per-component problem. The scan that produced it still
// completes and reports everything else it found.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Type    string      `json:"type"`
	ID      string      `json:"id,omitempty"`
	Line    int         `json:"line"`
	Message string      `json:"message"`
	Err     error       `json:"-"`
}

func (f Failure) Error() string {
	if f.ID != "" {
		return fmt.Sprintf("%s: <%s id=%q> at line %d: %s", f.Kind, f.Type, f.ID, f.Line, f.Message)
	}
	return fmt.Sprintf("%s: <%s> at line %d: %s", f.Kind, f.Type, f.Line, f.Message)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// IsFatal reports whether err aborts a scan as a whole.
func IsFatal(err error) bool {
	var malformed *MalformedDocumentError
	return errors.Is(err, ErrSourceUnavailable) || errors.As(err, &malformed)
}
