package audioerr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrCaptureStart     = errors.New("capture start error")
	ErrFinalize         = errors.New("finalize error")
	ErrLoad             = errors.New("load error")
	ErrPlayback         = errors.New("playback error")
	ErrRender           = errors.New("render error")
	ErrNotFound         = errors.New("not found")
	ErrInvalidState     = errors.New("invalid state")
)

var markers = []error{
	ErrPermissionDenied,
	ErrCaptureStart,
	ErrFinalize,
	ErrLoad,
	ErrPlayback,
	ErrRender,
	ErrNotFound,
	ErrInvalidState,
}

// Wrap builds an error tagged with marker so callers can classify it with
// errors.Is. The cause, when present, stays reachable through errors.Unwrap.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrPlayback
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Reason returns the marker an error was tagged with, or nil for untagged errors.
func Reason(err error) error {
	if err == nil {
		return nil
	}
	for _, m := range markers {
		if errors.Is(err, m) {
			return m
		}
	}
	return nil
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "studio failure"
	}
	return strings.Join(parts, ": ")
}
