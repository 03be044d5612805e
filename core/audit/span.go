// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package audit

import (
	"context"
	"encoding/base64"
	"fmt"
	"runtime/trace"
	"strconv"
	"time"

	servertiming "github.com/mitchellh/go-server-timing"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"codeberg.org/ttools/ttsync/core/fsys"
)

// Span records one HTTP exchange: an outbound call to the translation
// service or a response served to a client.
type Span struct {
	task     *trace.Task
	start    time.Time
	duration time.Duration
	metric   *servertiming.Metric

	Destination TrafficDestination
	RequestID   string
	Method      string
	URL         string
	StatusCode  int
	Error       error
	Body        []byte // only used for response saving

	savedAs string
}

// TrafficDestination is the logical peer of a request.
type TrafficDestination string

const (
	ToUser      TrafficDestination = "user"
	ToTranslate TrafficDestination = "translate"
)

// responses receives the bodies of outbound responses when not nil.
var responses afero.Fs

// SaveResponsesTo stores every outbound response body under dir, named after
// its request ID. An empty dir disables saving.
func SaveResponsesTo(dir string) error {
	if dir == "" {
		responses = nil

		return nil
	}

	fs, err := fsys.New(dir)
	if err != nil {
		return err
	}

	responses = fs

	return nil
}

// ServerTimingName encodes the span as a Server-Timing metric name:
// destination, method and base64url URL joined by "$".
func (span Span) ServerTimingName() string {
	return string(span.Destination) + "$" + span.Method + "$" + base64.RawURLEncoding.EncodeToString([]byte(span.URL))
}

// Begin starts the span's trace task and, when ctx carries a Server-Timing
// header, its metric.
func (span *Span) Begin(ctx context.Context) context.Context {
	span.start = time.Now()

	ctx, span.task = trace.NewTask(ctx, "http."+string(span.Destination))

	if timing := servertiming.FromContext(ctx); timing != nil {
		span.metric = timing.NewMetric(span.ServerTimingName())
		span.metric.Extra = map[string]string{
			"start": strconv.FormatFloat(float64(span.start.UnixNano())/float64(time.Millisecond), 'f', -1, 64),
		}
	}

	return ctx
}

// End stops the clock. Only the first call has an effect.
func (span *Span) End() {
	if span.task == nil {
		return
	}

	span.duration = time.Since(span.start)
	span.task.End()
	span.task = nil

	if span.metric != nil {
		span.metric.Duration = span.duration
	}
}

// Duration is the time between Begin and End.
func (span *Span) Duration() time.Duration {
	return span.duration
}

// Log writes the span at debug level, saving the body first if enabled.
func (span *Span) Log() {
	if span.Destination == ToTranslate && len(span.Body) > 0 && responses != nil {
		name := span.RequestID + ".body"

		if err := fsys.WriteFile(responses, name, span.Body); err != nil {
			log.Err(err).
				Str("request_id", span.RequestID).
				Msg("Failed to save response")
		} else {
			span.savedAs = name
		}
	}

	event := log.Debug().
		Str("sys", "http").
		Str("method", span.Method).
		Str("url", span.URL).
		Int("status_code", span.StatusCode).
		Str("len", humanizeSize(len(span.Body))).
		Dur("dur", span.duration).
		Str("destination", string(span.Destination)).
		Str("request_id", span.RequestID)

	if span.savedAs != "" {
		event = event.Str("response_filename", span.savedAs)
	}

	if span.Error != nil {
		event = event.Err(span.Error)
	}

	event.Send()
}

const (
	bytesInKB = 1024
	bytesInMB = bytesInKB * bytesInKB
)

func humanizeSize(x int) string {
	switch {
	case x < bytesInKB:
		return strconv.Itoa(x)
	case x < bytesInMB:
		return fmt.Sprintf("%.2fK", float64(x)/bytesInKB)
	default:
		return fmt.Sprintf("%.2fM", float64(x)/bytesInMB)
	}
}
