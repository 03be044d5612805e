// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package outcome holds the result types shared by every stage of a sync pass:
the user-facing log lines accumulated along the way and the typed error that
terminates a pass.
*/
package outcome

import (
	"strings"
)

// Kind tags the stage that failed.
type Kind string

// Error kinds reported to hosts.
const (
	KindAPIUnavailable Kind = "translations-api-unavailable"
	KindDownload       Kind = "download-translation"
	KindGeneratePO     Kind = "generate-po"
	KindExtract        Kind = "extract-translations"
	KindGenerateMO     Kind = "generate-mo"
	KindGeneratePHP    Kind = "generate-php"
	KindGenerateJSON   Kind = "generate-json"
)

// Error is the terminal failure of a sync stage.
type Error struct {
	Kind Kind

	// Message is human readable and already translated for the caller.
	Message string

	// Err is the underlying cause, if any. It is not shown to users.
	Err error
}

// New returns an *Error of the given kind.
func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(string(e.Kind))

	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}

	if e.Err != nil {
		b.WriteString(" (")
		b.WriteString(e.Err.Error())
		b.WriteString(")")
	}

	return b.String()
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Log is an ordered list of user-facing log lines.
type Log []string

// Add appends a single line. Empty lines are dropped.
func (l *Log) Add(line string) {
	if line == "" {
		return
	}

	*l = append(*l, line)
}

// Append appends every line in lines.
func (l *Log) Append(lines ...string) {
	for _, line := range lines {
		l.Add(line)
	}
}

// Result is the outcome of one sync pass.
type Result struct {
	Log Log
	Err *Error
}

// OK reports whether the pass finished without error.
func (r Result) OK() bool {
	return r.Err == nil
}
