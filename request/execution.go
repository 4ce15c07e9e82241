// Copyright 2021 The proxyx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"net/http"
	"time"

	"github.com/gogama/proxyx/paths"
	"github.com/gogama/proxyx/transient"
)

// An Execution represents the state of a single fallback request: one
// logical request tried over an ordered list of paths until one
// attempt succeeds, one fails non-transiently, or the paths run out.
//
// When a fallback request is made, an Execution is created for it. The
// Execution is updated as attempts are made and is ultimately returned
// as the return value of the request. Each Execution is owned by
// exactly one call and is never shared between calls.
//
// Timeout policies and event handlers may set values on an Execution
// using its SetValue method and read them back using the Value method.
// However, they should treat the structure's exported field values as
// immutable and leave them unmodified, as the execution state is vital
// to the correct functioning of the fallback logic.
type Execution struct {
	// ID uniquely identifies the execution in diagnostics.
	ID string

	// Target is the request target address.
	Target string

	// Options is the caller's option set. It is never modified; each
	// attempt sends AttemptOptions instead.
	Options *Options

	// Paths is the ordered list of paths to try. It may be empty, in
	// which case a single direct attempt is made.
	Paths []paths.Path

	// Start is the start time of the execution. It is assigned a
	// non-zero value when the execution starts, and this value remains
	// constant thereafter.
	Start time.Time

	// End is the end time of the execution. It contains the zero value
	// until the execution ends, when it is set to the current time.
	End time.Time

	// Attempt is the zero-based number of the current attempt. When
	// Paths is non-empty it is also the index into Paths of the path
	// taken by the current attempt.
	Attempt int

	// Path is the path taken by the current attempt, or nil if the
	// attempt goes direct.
	Path paths.Path

	// AttemptOptions is the option set sent in the current attempt: a
	// copy of Options with Path attached, or Options itself when there
	// are no paths.
	AttemptOptions *Options

	// AttemptTimeouts is the count of attempts which timed out during
	// the execution.
	AttemptTimeouts int

	// Kind is the outcome kind of the most recent attempt. It is
	// Unknown while an attempt is underway and before the execution
	// starts.
	Kind Kind

	// Response is the response received in the most recent attempt. It
	// is nil unless Kind is Success.
	Response *Response

	// Err is the error from the most recent attempt, or, once the
	// execution has ended, the error returned to the caller.
	Err error

	// LastTransient is the most recent transient failure seen during
	// the execution. If every path fails transiently, it is the error
	// returned to the caller.
	LastTransient error

	// TransientFailures is the count of attempts which failed
	// transiently.
	TransientFailures int

	data context.Context
}

// StatusCode returns the status code of the response from the most
// recent attempt, or 0 if there is no response.
func (e *Execution) StatusCode() int {
	if e.Response == nil {
		return 0
	}

	return e.Response.StatusCode
}

// Header returns the response headers from the most recent attempt. If
// there is no response, the nil header is returned, which is safe for
// read-only operations.
func (e *Execution) Header() http.Header {
	if e.Response == nil {
		var nilHeader http.Header
		return nilHeader
	}

	return e.Response.Header
}

// Remaining returns the number of paths left to try after the current
// attempt.
func (e *Execution) Remaining() int {
	n := len(e.Paths) - e.Attempt - 1
	if n < 0 {
		return 0
	}
	return n
}

// Duration returns the duration of the execution.
//
// If the execution has not yet started, the duration is zero. If the
// execution has Ended, the duration returned is equal to End minus
// Start. Otherwise, it is equal to the current time minus Start.
func (e *Execution) Duration() time.Duration {
	if !e.Started() {
		return time.Duration(0)
	} else if !e.Ended() {
		return time.Since(e.Start)
	}

	return e.End.Sub(e.Start)
}

// Started indicates whether the execution has started.
func (e *Execution) Started() bool {
	return e.Start != (time.Time{})
}

// Ended indicates whether the execution has ended. Once it has, there
// will be no further changes to the execution.
func (e *Execution) Ended() bool {
	return e.End != (time.Time{})
}

// Timeout indicates whether Err currently contains a non-nil value
// which indicates a timeout.
func (e *Execution) Timeout() bool {
	return transient.Categorize(e.Err) == transient.Timeout
}

// SetValue allows event handlers to store arbitrary data in the
// execution.
//
// The key must follow the same rules as the key parameter in
// context.WithValue: it may not be nil, it must be comparable, and it
// should not be of a built-in type, to avoid collisions between
// different event handlers.
func (e *Execution) SetValue(key, value interface{}) {
	ctx := e.data
	if ctx == nil {
		ctx = context.Background()
	}

	e.data = context.WithValue(ctx, key, value)
}

// Value returns the data value associated with this execution for key,
// or nil if there is no value associated with key.
func (e *Execution) Value(key interface{}) interface{} {
	ctx := e.data
	if ctx == nil {
		return nil
	}

	return ctx.Value(key)
}
