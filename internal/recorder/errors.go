package recorder

import "errors"

var (
	ErrCameraNotFound    = errors.New("camera not found")
	ErrRecordingNotFound = errors.New("recording not found")
	ErrAlreadyRecording  = errors.New("recording already in progress")
	ErrQuotaExceeded     = errors.New("storage quota exceeded")
	ErrNotRecording      = errors.New("no active recording")

	// ErrProcessFailure is the generic caller-facing encoder failure; the
	// underlying detail is logged, never returned.
	ErrProcessFailure = errors.New("encoder process failure")
)
