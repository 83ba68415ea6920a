// Package audioerr defines the error taxonomy shared across the audio
// engine. Errors are values with a Kind and a message; nothing in this
// package panics or throws across an audio-thread boundary.
package audioerr

import "fmt"

// Kind classifies an engine error without pinning it to a concrete type.
type Kind string

const (
	// KindDeviceError means the native backend refused to init, start, or switch.
	KindDeviceError Kind = "device_error"
	// KindFormatUnsupported means a sample rate, channel count, or encoding is not representable.
	KindFormatUnsupported Kind = "format_unsupported"
	// KindNotSeekable means the provider does not support seeking.
	KindNotSeekable Kind = "not_seekable"
	// KindEndOfStream marks normal termination; callers should not surface it as a failure.
	KindEndOfStream Kind = "end_of_stream"
	// KindTimeout means a control-thread wait exceeded its deadline.
	KindTimeout Kind = "timeout"
	// KindNotSupported means a capability is missing on the current platform.
	KindNotSupported Kind = "not_supported"
	// KindDisposed means the operation targeted an already-disposed resource.
	KindDisposed Kind = "disposed"
	// KindInvalidArgument means a bad range, bad channel count, or missing required input.
	KindInvalidArgument Kind = "invalid_argument"
	// KindRouteFaulted means a MIDI route's destination repeatedly failed and the route is dead.
	KindRouteFaulted Kind = "route_faulted"
	// KindDecoderError is surfaced opaquely from the codec collaborator.
	KindDecoderError Kind = "decoder_error"
	// KindEncoderError is surfaced opaquely from the codec collaborator.
	KindEncoderError Kind = "encoder_error"
)

// Error is the concrete error value used throughout the engine.
type Error struct {
	Kind    Kind
	Message string
	Wrapped error
}

func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Wrapped }

// Is lets errors.Is match on Kind alone, so callers can write
// errors.Is(err, audioerr.NotSeekable) without caring about the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New creates an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given kind that wraps an underlying error.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Wrapped: err}
}

// Sentinel values for errors.Is comparisons where no extra message is needed.
var (
	NotSeekable  = &Error{Kind: KindNotSeekable, Message: "provider does not support seeking"}
	EndOfStream  = &Error{Kind: KindEndOfStream, Message: "end of stream"}
	Disposed     = &Error{Kind: KindDisposed, Message: "resource already disposed"}
	RouteFaulted = &Error{Kind: KindRouteFaulted, Message: "route is faulted"}
)

// KindOf extracts the Kind from err, or "" if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if aerr, ok := err.(*Error); ok {
		e = aerr
	} else {
		return ""
	}
	return e.Kind
}
