package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound marks a source file that is missing after path
	// translation. The item is skipped before any claim is taken.
	ErrNotFound = errors.New("source not found")
	// ErrRemote marks a catalog call that was rejected or unreachable.
	ErrRemote = errors.New("catalog error")
	// ErrDuration marks an unusable duration probe result.
	ErrDuration = errors.New("duration unavailable")
	// ErrTranscode marks a single failed extraction or encode.
	ErrTranscode = errors.New("transcode failed")
	// ErrSprite marks a sprite build aborted by a frame failure.
	ErrSprite = errors.New("sprite generation failed")
	// ErrNoClips marks a preview build where no clip survived.
	ErrNoClips = errors.New("no preview clips produced")
	// ErrExternalTool marks a failure in a required external binary.
	ErrExternalTool = errors.New("external tool error")
	// ErrConfiguration marks unusable configuration detected at startup.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes item and step context while
// tagging it with the provided marker for later classification. The
// marker should be one of the exported sentinel errors above.
func Wrap(marker error, step, operation, message string, err error) error {
	detail := buildDetail(step, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Step extracts the human-readable step label recorded by Wrap, or an
// empty string when the error carries none.
func Step(err error) string {
	var stepErr *stepError
	if errors.As(err, &stepErr) {
		return stepErr.step
	}
	return ""
}

// WithStep annotates err with the pipeline step that produced it so the
// item-boundary handler can name the step in its diagnostic line.
func WithStep(step string, err error) error {
	if err == nil {
		return nil
	}
	return &stepError{step: step, err: err}
}

type stepError struct {
	step string
	err  error
}

func (e *stepError) Error() string {
	if e.step == "" {
		return e.err.Error()
	}
	return e.step + ": " + e.err.Error()
}

func (e *stepError) Unwrap() error { return e.err }

func buildDetail(step, operation, message string) string {
	parts := make([]string, 0, 3)
	if step = strings.TrimSpace(step); step != "" {
		parts = append(parts, step)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
