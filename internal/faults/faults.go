// Package faults classifies low-level failures into a small set of
// user-actionable categories. Layers that first observe a failure attach a
// category via New; Classify falls back to message-text matching for errors
// that arrive uncategorized. The text fallback is best effort and can
// misclassify messages containing coincidental substrings.
package faults

import (
	"errors"
	"fmt"
	"strings"
)

// Category is a coarse failure class shown to the operator.
type Category int

const (
	Unclassified Category = iota
	Connection
	Auth
	TranscoderMissing
	Timeout
	NotFound
	Unsupported
)

// Error carries a Category alongside the underlying failure.
type Error struct {
	Category Category
	Op       string
	Err      error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with a category at the point the failure is first observed.
func New(cat Category, op string, err error) *Error {
	return &Error{Category: cat, Op: op, Err: err}
}

// Is reports whether err carries the given structured category.
func Is(err error, cat Category) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Category == cat
}

// Classify returns the category for err. Structured categories win;
// otherwise the message text is matched against known substrings in fixed
// priority order, first match wins.
func Classify(err error) Category {
	var fe *Error
	if errors.As(err, &fe) && fe.Category != Unclassified {
		return fe.Category
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "no route to host"),
		strings.Contains(msg, "network is unreachable"),
		strings.Contains(msg, "i/o timeout"):
		return Connection
	case strings.Contains(msg, "401"),
		strings.Contains(msg, "unauthorized"),
		strings.Contains(msg, "not authorized"):
		return Auth
	case strings.Contains(msg, "ffmpeg") && strings.Contains(msg, "executable file not found"):
		return TranscoderMissing
	case strings.Contains(msg, "timeout"),
		strings.Contains(msg, "timed out"),
		strings.Contains(msg, "deadline exceeded"):
		return Timeout
	}
	return Unclassified
}

// headlines and suggestions keyed by category. Unclassified errors pass
// through Describe unchanged.
var headlines = map[Category]string{
	Connection:        "connection failed",
	Auth:              "authentication failed",
	TranscoderMissing: "transcoder missing",
	Timeout:           "operation timed out",
	NotFound:          "not found",
	Unsupported:       "not supported by this device",
}

var suggestions = map[Category]string{
	Connection:        "check that the camera is online and ONVIF is enabled in its settings",
	Auth:              "check the configured username and password",
	TranscoderMissing: "install ffmpeg and make sure it is on PATH",
	Timeout:           "try again with a longer timeout",
}

// Describe renders err for the operator: classified failures get a category
// headline and a suggestion, everything else is passed through unchanged.
func Describe(err error) string {
	cat := Classify(err)
	headline, ok := headlines[cat]
	if !ok {
		return err.Error()
	}
	if suggestion, ok := suggestions[cat]; ok {
		return fmt.Sprintf("%s: %v (%s)", headline, err, suggestion)
	}
	return fmt.Sprintf("%s: %v", headline, err)
}
