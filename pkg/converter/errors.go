package converter

import (
	"errors"
	"fmt"
)

// Sentinel causes wrapped by DecodeError.
var (
	ErrIndexOutOfRange = errors.New("string index out of range")
	ErrUnknownArgType  = errors.New("unknown argument type")
	ErrMalformedField  = errors.New("malformed field")
)

// DecodeError reports why one bundle entry could not be turned into a
// ScriptFile. Path locates the offending field, e.g.
// "Scripts[2].Commands[0].Arg[1].data".
type DecodeError struct {
	PathID int64
	Path   string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("decode entry %d: %v", e.PathID, e.Err)
	}
	return fmt.Sprintf("decode entry %d at %s: %v", e.PathID, e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
