// Copyright 2021 The proxyx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

// A Kind tags the outcome of one request attempt.
type Kind int

const (
	// Unknown is the zero Kind. It marks an attempt that failed without
	// being classified as either Transient or NonTransient.
	Unknown Kind = iota
	// Success marks an attempt which produced a Response.
	Success
	// Transient marks an attempt which failed at the connection level
	// (DNS, TCP, TLS handshake, socket, or proxy connection). The same
	// request may succeed over a different path.
	Transient
	// NonTransient marks an attempt which failed for any other reason,
	// such as malformed options or a caller abort. Trying another path
	// would not help.
	NonTransient
)

var kindNames = []string{
	"Unknown",
	"Success",
	"Transient",
	"NonTransient",
}

// String returns the name of the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[Unknown]
	}
	return kindNames[k]
}

// An Outcome is the tagged result of one request attempt: either a
// Success carrying a Response, or a failure of some Kind carrying the
// original error.
//
// The transport adapter produces an Outcome for every attempt, so the
// fallback requester only ever branches on Kind and never inspects the
// error itself.
type Outcome struct {
	Kind     Kind
	Response *Response
	Err      error
}

// Succeeded returns a Success outcome carrying r.
func Succeeded(r *Response) Outcome {
	return Outcome{Kind: Success, Response: r}
}

// Failed returns a failure outcome of kind k carrying err.
func Failed(k Kind, err error) Outcome {
	if k == Success {
		panic("proxyx/request: failed outcome may not have kind Success")
	}
	return Outcome{Kind: k, Err: err}
}
