// Package errors defines the error taxonomy shared by the defect pipeline.
//
// Every pipeline failure is an *Error carrying a Kind. Callers test for a kind
// with the standard library's errors.Is against the exported sentinels:
//
//	if errors.Is(err, apperrors.ErrCalibration) { ... }
package errors

import (
	"fmt"
)

// Kind represents a category of pipeline failure.
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindCalibration   Kind = "calibration"
	KindEmptyShape    Kind = "empty_shape"
	KindFrameRead     Kind = "frame_read"
)

// Sentinels for errors.Is comparisons. They match any *Error of the same Kind.
var (
	ErrConfiguration = &Error{Kind: KindConfiguration, Message: "invalid configuration"}
	ErrCalibration   = &Error{Kind: KindCalibration, Message: "calibration failed"}
	ErrEmptyShape    = &Error{Kind: KindEmptyShape, Message: "shape comparison on empty mask"}
	ErrFrameRead     = &Error{Kind: KindFrameRead, Message: "frame could not be read"}
)

// Error is a structured pipeline error.
type Error struct {
	Kind    Kind
	Frame   int // 1-based frame index, 0 when not frame scoped
	Message string
	Cause   error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Frame > 0 {
		msg = fmt.Sprintf("frame %d: %s", e.Frame, msg)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (caused by: %v)", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(message string, cause error) *Error {
	return &Error{Kind: KindConfiguration, Message: message, Cause: cause}
}

// NewCalibrationError creates a new calibration error
func NewCalibrationError(message string, cause error) *Error {
	return &Error{Kind: KindCalibration, Message: message, Cause: cause}
}

// NewEmptyShapeError creates a new empty shape error
func NewEmptyShapeError(message string) *Error {
	return &Error{Kind: KindEmptyShape, Message: message}
}

// NewFrameReadError creates a new frame read error for the given frame index
func NewFrameReadError(frame int, cause error) *Error {
	return &Error{Kind: KindFrameRead, Frame: frame, Message: "frame could not be read", Cause: cause}
}

// WithFrame returns a copy of err tagged with a frame index. Errors that are
// not *Error are wrapped unchanged.
func WithFrame(err error, frame int) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		c := *e
		c.Frame = frame
		return &c
	}
	return fmt.Errorf("frame %d: %w", frame, err)
}

// KindOf extracts the Kind from an error chain, or "" if none is present.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}
