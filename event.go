// Copyright 2021 The proxyx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package proxyx

// An Event identifies the event type when installing or running a
// Handler. Install event handlers in a Requester to observe the
// progress of fallback requests.
type Event int

const (
	// BeforeExecutionStart identifies the event that occurs before the
	// execution starts.
	//
	// When Requester fires BeforeExecutionStart, the execution is
	// non-nil but the only fields that have been set are the ID,
	// target, options, and paths.
	BeforeExecutionStart Event = iota
	// BeforeAttempt identifies the event that occurs before each
	// attempt to send the request over a path.
	//
	// When Requester fires BeforeAttempt, the execution's Attempt,
	// Path, and AttemptOptions fields describe the attempt that WILL
	// BE made after all BeforeAttempt handlers have finished. Handlers
	// must not modify AttemptOptions, which may be the caller's own
	// option set.
	BeforeAttempt
	// AfterAttemptTimeout identifies the event that occurs after an
	// attempt failed because of a timeout error.
	//
	// When Requester fires AfterAttemptTimeout, the execution's error
	// field is set to the timeout error, and its attempt timeout
	// counter has been incremented.
	AfterAttemptTimeout
	// AfterAttempt identifies the event that occurs after an attempt
	// is concluded, regardless of whether it concluded successfully or
	// not.
	//
	// When Requester fires AfterAttempt, the execution's Kind field
	// holds the attempt's outcome kind. Response is non-nil only if
	// Kind is Success, and Err is non-nil only if it is not.
	AfterAttempt
	// AfterPathFailure identifies the event that occurs after an
	// attempt over a path failed transiently, before the next path is
	// tried. It fires exactly once for each transient failure on a
	// path, including the failure on the last path.
	//
	// When Requester fires AfterPathFailure, the execution's Path is
	// the path that failed, Err is its error, and LastTransient
	// references the same error.
	//
	// AfterPathFailure never fires when the paths list is empty.
	AfterPathFailure
	// AfterExecutionEnd identifies the event that occurs after the
	// execution ends.
	//
	// When Requester fires AfterExecutionEnd, the execution is in the
	// same state it was in after the final attempt EXCEPT that the end
	// time is set, and, if every path failed, Err is set to the error
	// that will be returned to the caller.
	AfterExecutionEnd
	// eventSentinel provides the total number of events typed as an
	// Event.
	eventSentinel

	// numEvents provides the total number of events types as an int.
	numEvents = int(eventSentinel)
)

var eventNames = []string{
	"BeforeExecutionStart",
	"BeforeAttempt",
	"AfterAttemptTimeout",
	"AfterAttempt",
	"AfterPathFailure",
	"AfterExecutionEnd",
}

// Events returns a slice containing all events which can occur in a
// fallback request execution by Requester, in the order in which they
// would occur.
func Events() []Event {
	return []Event{
		BeforeExecutionStart,
		BeforeAttempt,
		AfterAttemptTimeout,
		AfterAttempt,
		AfterPathFailure,
		AfterExecutionEnd,
	}
}

// Name returns the name of the event.
func (evt Event) Name() string {
	return eventNames[int(evt)]
}

// String returns the name of the event.
func (evt Event) String() string {
	return evt.Name()
}
