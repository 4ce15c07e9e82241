// Copyright 2021 The proxyx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package proxyx

import (
	"context"
	"errors"
	"time"

	"github.com/gogama/proxyx/paths"
	"github.com/gogama/proxyx/request"
	"github.com/gogama/proxyx/timeout"
	"github.com/gogama/proxyx/transport"
	"github.com/google/uuid"
)

// ErrAllAttemptsFailed is returned when every path was tried without
// success and no transient failure was recorded to report instead.
var ErrAllAttemptsFailed = errors.New("proxyx: all attempts failed")

var emptyHandlers = HandlerGroup{}

// A Requester makes fallback HTTP requests: one logical request tried
// over an ordered list of network paths (typically proxies) until one
// attempt succeeds. Its zero value is a valid configuration.
//
// The zero value requester uses a transport.Adapter wrapping
// transport.DefaultHTTP as the transport, timeout.DefaultPolicy as the
// timeout policy, and an empty handler group (no diagnostic sink).
//
// The transport typically has internal state (cached connections to
// each proxy) so Requester instances should be reused instead of
// created as needed. Requester is safe for concurrent use by multiple
// goroutines.
//
// For each path, in order, Requester makes exactly one attempt:
//
// • if the attempt succeeds, its response is returned at once and no
// further paths are tried;
//
// • if the attempt fails non-transiently (bad options, a rejected
// request, a caller abort), its error is returned at once;
//
// • if the attempt fails transiently (DNS, TCP, TLS, or proxy
// connection failure, or an attempt timeout), the failure is recorded,
// the AfterPathFailure event fires, and the next path is tried.
//
// When the paths run out, the error from the last transient failure is
// returned, or ErrAllAttemptsFailed if there was none. Attempts are
// strictly sequential, with no delay between them.
type Requester struct {
	// Transport makes the individual attempts and classifies their
	// outcomes.
	//
	// If Transport is nil, a transport.Adapter using
	// transport.DefaultHTTP is used.
	Transport transport.Attempter
	// TimeoutPolicy specifies how to set timeouts on individual
	// attempts.
	//
	// If TimeoutPolicy is nil, timeout.DefaultPolicy is used.
	TimeoutPolicy timeout.Policy
	// Handlers allows custom handler chains to be invoked when
	// designated events occur during a fallback request.
	//
	// If Handlers is nil, no custom handlers will be run.
	Handlers *HandlerGroup
}

var defaultTransport = &transport.Adapter{}

// Do sends a request to target with options opts, trying each of the
// given paths in order, and returns the execution record.
//
// The options are never modified: each attempt sends a copy with the
// path attached (see request.Options.WithPath). A nil opts sends a
// GET with no body. If no paths are given, exactly one attempt is made
// with opts unmodified, and its outcome is returned verbatim.
//
// The returned Execution is never nil. If the returned error is nil,
// the execution's Response is non-nil. Otherwise the execution's Err
// field references the returned error. Errors are the attempt errors
// themselves, never wrapped, so callers may inspect them with
// errors.Is and errors.As.
//
// A non-2XX status code is a successful response, not an error.
func (r *Requester) Do(ctx context.Context, target string, opts *request.Options, ps ...paths.Path) (*request.Execution, error) {
	if ctx == nil {
		panic("proxyx: nil context")
	}

	e := request.Execution{
		ID:      uuid.NewString(),
		Target:  target,
		Options: opts,
		Paths:   ps,
	}

	attempter := r.attempter()

	timeoutPolicy := r.TimeoutPolicy
	if timeoutPolicy == nil {
		timeoutPolicy = timeout.DefaultPolicy
	}

	handlers := r.Handlers
	if handlers == nil {
		handlers = &emptyHandlers
	}
	handlers.run(BeforeExecutionStart, &e)
	e.Start = time.Now()

	if len(ps) == 0 {
		e.AttemptOptions = opts
		attempt(ctx, &e, attempter, handlers, timeoutPolicy)
	} else {
	PathLoop:
		for i, p := range ps {
			e.Attempt = i
			e.Path = p
			e.AttemptOptions = opts.WithPath(p)
			attempt(ctx, &e, attempter, handlers, timeoutPolicy)
			switch e.Kind {
			case request.Success, request.NonTransient:
				break PathLoop
			case request.Transient:
				e.LastTransient = e.Err
				e.TransientFailures++
				handlers.run(AfterPathFailure, &e)
			}
		}
		if e.Kind != request.Success && e.Kind != request.NonTransient {
			e.Err = e.LastTransient
		}
	}

	if e.Kind != request.Success && e.Err == nil {
		e.Err = ErrAllAttemptsFailed
	}

	e.End = time.Now()
	handlers.run(AfterExecutionEnd, &e)
	if e.Kind == request.Success {
		return &e, nil
	}
	return &e, e.Err
}

// Request is like Do but returns only the response from the successful
// attempt.
func (r *Requester) Request(ctx context.Context, target string, opts *request.Options, ps ...paths.Path) (*request.Response, error) {
	e, err := r.Do(ctx, target, opts, ps...)
	if err != nil {
		return nil, err
	}
	return e.Response, nil
}

func attempt(ctx context.Context, e *request.Execution, attempter transport.Attempter, handlers *HandlerGroup, timeoutPolicy timeout.Policy) {
	// The policy sees the previous attempt's error before it is cleared.
	d := timeoutPolicy.Timeout(e)
	e.Kind = request.Unknown
	e.Response = nil
	e.Err = nil

	attemptCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	handlers.run(BeforeAttempt, e)
	o := attempter.Attempt(attemptCtx, e.Target, e.AttemptOptions)
	e.Kind = o.Kind
	if o.Kind == request.Success {
		e.Response = o.Response
	} else {
		e.Err = o.Err
		// A caller abort is never a path problem.
		if ctx.Err() != nil {
			e.Kind = request.NonTransient
		}
		if e.Timeout() {
			e.AttemptTimeouts++
			handlers.run(AfterAttemptTimeout, e)
		}
	}
	handlers.run(AfterAttempt, e)
}

// Get issues a GET to the specified URL over the given paths, using
// the same policies followed by Do.
//
// To send custom headers, use request.NewOptions and Requester.Do.
func (r *Requester) Get(ctx context.Context, url string, ps ...paths.Path) (*request.Execution, error) {
	return Get(ctx, r, url, ps...)
}

// Head issues a HEAD to the specified URL over the given paths, using
// the same policies followed by Do.
func (r *Requester) Head(ctx context.Context, url string, ps ...paths.Path) (*request.Execution, error) {
	return Head(ctx, r, url, ps...)
}

// Post issues a POST to the specified URL over the given paths, using
// the same policies followed by Do.
//
// The body parameter may be nil for an empty body, or may be any of the
// types supported by request.BodyBytes: string, []byte,
// url.Values, or an io.Reader.
func (r *Requester) Post(ctx context.Context, url, contentType string, body interface{}, ps ...paths.Path) (*request.Execution, error) {
	return Post(ctx, r, url, contentType, body, ps...)
}

// CloseIdleConnections invokes the same method on the requester's
// transport.
//
// If the transport has no CloseIdleConnections method, this method
// does nothing.
func (r *Requester) CloseIdleConnections() {
	if ic, ok := r.attempter().(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}

func (r *Requester) attempter() transport.Attempter {
	if r.Transport == nil {
		return defaultTransport
	}

	return r.Transport
}
