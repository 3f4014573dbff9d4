// Package pipeline drives videos through the processing stages. It owns
// the stage state machine, the worker pool that claims runnable videos,
// the retry policy, and the error taxonomy the stages report through.
package pipeline

import (
	"context"
	"errors"
	"fmt"
)

// Stage failure sentinels. Handlers wrap their root cause with the
// sentinel of the stage that failed so the manager can record which
// stage broke without parsing messages.
var (
	ErrIngest        = errors.New("ingest failed")
	ErrTranscription = errors.New("transcription failed")
	ErrSelection     = errors.New("clip selection failed")
	ErrExtraction    = errors.New("clip extraction failed")
	ErrCaption       = errors.New("caption generation failed")
)

// ErrTransient marks failures worth retrying: network errors, rate
// limits, upstream 5xx. Anything not marked transient is permanent.
var ErrTransient = errors.New("transient failure")

// Transient wraps err so IsTransient reports true for it.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// IsTransient reports whether err is worth retrying. Deadline expiry is
// treated as transient; explicit cancellation is not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, ErrTransient) || errors.Is(err, context.DeadlineExceeded)
}
