package app

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedField  = errors.New("malformed field")
	ErrNativeRejected  = errors.New("bad request")
	ErrNativeFault     = errors.New("internal server error")
	ErrCallbackMissing = errors.New("callback is not set")
	ErrNotFound        = errors.New("not found")
)

// MalformedFieldError names the request field that could not be turned
// into a native string.
type MalformedFieldError struct {
	Field string
	Err   error
}

func (e *MalformedFieldError) Error() string {
	return fmt.Sprintf("%s cannot be converted into c string: %v", e.Field, e.Err)
}

func (e *MalformedFieldError) Is(target error) bool { return target == ErrMalformedField }

func (e *MalformedFieldError) Unwrap() error { return e.Err }
