package mapping

import (
	"fmt"

	"github.com/pkg/errors"
)

// Common errors.
var (
	ErrNoMappingFile  = errors.New("mapping file path is empty")
	ErrNegativeIndex  = errors.New("negative fine label index")
	ErrNotAnInteger   = errors.New("token is not an integer")
	ErrIndexTooLarge  = errors.New("fine label index too large")
	ErrFineOutOfRange = errors.New("fine label index out of range")
	ErrUnmapped       = errors.New("fine label index is not in any group")
)

// ParseError describes a malformed token in a mapping file.
type ParseError struct {
	Line  int    // 1-based line number
	Token string // Offending token as it appears in the file
	Err   error  // ErrNotAnInteger, ErrNegativeIndex or ErrIndexTooLarge
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: token %q: %v", e.Line, e.Token, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Err
}
