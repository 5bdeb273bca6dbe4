package domain

import "fmt"

// PlaybackErrorCode classifies playback failures
type PlaybackErrorCode string

const (
	ErrCodeLoadFailed PlaybackErrorCode = "LOAD_FAILED"
	ErrCodeNetwork    PlaybackErrorCode = "NETWORK_ERROR"
	ErrCodeDecoding   PlaybackErrorCode = "DECODING_ERROR"
	ErrCodeDRM        PlaybackErrorCode = "DRM_ERROR"
	ErrCodeUnknown    PlaybackErrorCode = "UNKNOWN"
)

// PlaybackError is the error taxonomy carried by Failed states and actions.
// Only network errors are recoverable; recovery happens via an explicit
// Retry action, never automatically.
type PlaybackError struct {
	Code   PlaybackErrorCode
	Reason string
}

func (e *PlaybackError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Reason)
}

// IsRecoverable reports whether a Retry action is allowed for this error.
func (e *PlaybackError) IsRecoverable() bool {
	return e.Code == ErrCodeNetwork
}

func NewLoadFailedError(reason string) *PlaybackError {
	return &PlaybackError{Code: ErrCodeLoadFailed, Reason: reason}
}

func NewNetworkError(reason string) *PlaybackError {
	return &PlaybackError{Code: ErrCodeNetwork, Reason: reason}
}

func NewDecodingError(reason string) *PlaybackError {
	return &PlaybackError{Code: ErrCodeDecoding, Reason: reason}
}

func NewDRMError(reason string) *PlaybackError {
	return &PlaybackError{Code: ErrCodeDRM, Reason: reason}
}

func NewUnknownError(reason string) *PlaybackError {
	return &PlaybackError{Code: ErrCodeUnknown, Reason: reason}
}

// playbackErrorsEqual compares errors by code and reason so that state
// equality (and Transition.Changed) stays well-defined.
func playbackErrorsEqual(a, b *PlaybackError) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Code == b.Code && a.Reason == b.Reason
}
