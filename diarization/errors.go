package diarization

import "errors"

// ErrorKind classifies why a diarization operation failed, so callers can
// branch on recovery policy (retry, skip region, abort recording) without
// string-matching error messages.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindInvalidInput
	KindModelUnavailable
	KindInferenceFailure
	KindEmptyRegion
	KindInvalidEmbedding
	KindAnnotationMissing
	KindThresholdExceeded
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindModelUnavailable:
		return "model_unavailable"
	case KindInferenceFailure:
		return "inference_failure"
	case KindEmptyRegion:
		return "empty_region"
	case KindInvalidEmbedding:
		return "invalid_embedding"
	case KindAnnotationMissing:
		return "annotation_missing"
	case KindThresholdExceeded:
		return "threshold_exceeded"
	default:
		return "unknown"
	}
}

// Error wraps an underlying cause with a kind the caller can dispatch on via
// Kind().
type Error struct {
	kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Kind reports why the operation failed.
func (e *Error) Kind() ErrorKind { return e.kind }

func newError(kind ErrorKind, msg string, cause error) *Error {
	return &Error{kind: kind, Msg: msg, Err: cause}
}

// KindOf extracts the ErrorKind from err, or KindUnknown if err was not
// produced by this package.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.kind
	}
	return KindUnknown
}
