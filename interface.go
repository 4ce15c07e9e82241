// Copyright 2021 The proxyx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package proxyx

import (
	"context"
	"net/url"

	"github.com/gogama/proxyx/paths"
	"github.com/gogama/proxyx/request"
)

// Doer is the interface that wraps the basic Do method.
//
// Do sends a request to a target over an ordered list of paths and
// returns the final execution state (and error, if any). Requester
// implements the Doer interface, and any other Doer implementation must
// behave substantially the same as Requester.Do.
//
// Any Doer can be converted into an Executor via the Inflate function.
type Doer interface {
	Do(ctx context.Context, target string, opts *request.Options, ps ...paths.Path) (*request.Execution, error)
}

// Getter is the interface that wraps the basic Get method.
//
// Get issues a GET to the specified URL over the given paths and
// returns the final execution state (and error, if any). Requester
// implements the Getter interface, and any other Getter implementation
// must behave substantially the same as Requester.Get.
//
// Any Doer can be used to emulate a Getter via the Get function.
type Getter interface {
	Get(ctx context.Context, url string, ps ...paths.Path) (*request.Execution, error)
}

// Header is the interface that wraps the basic Head method.
//
// Head issues a HEAD to the specified URL over the given paths and
// returns the final execution state (and error, if any).
//
// Any Doer can be used to emulate a Header via the Head function.
type Header interface {
	Head(ctx context.Context, url string, ps ...paths.Path) (*request.Execution, error)
}

// Poster is the interface that wraps the basic Post method.
//
// Post issues a POST to the specified URL over the given paths and
// returns the final execution state (and error, if any). Requester
// implements the Poster interface, and any other Poster implementation
// must behave substantially the same as Requester.Post.
//
// The body parameter may be nil for an empty body, or may be any of the
// types supported by request.BodyBytes: string, []byte,
// url.Values, or an io.Reader.
//
// Any Doer can be used to emulate a Poster via the Post function.
type Poster interface {
	Post(ctx context.Context, url, contentType string, body interface{}, ps ...paths.Path) (*request.Execution, error)
}

// IdleCloser is the interface that wraps the basic CloseIdleConnections
// method.
//
// If the underlying implementation supports it, CloseIdleConnections
// closes any connections to targets or proxies which were previously
// connected from previous requests but are now sitting idle in a
// "keep-alive" state. It does not interrupt any connections currently
// in use.
//
// If the underlying implementation does not support this ability,
// CloseIdleConnections does nothing.
type IdleCloser interface {
	CloseIdleConnections()
}

// Executor is the interface that groups the basic Do, Get, Head, Post,
// and CloseIdleConnections methods.
//
// Any Doer can be converted into an Executor via the Inflate function.
type Executor interface {
	Doer
	Getter
	Header
	Poster
	IdleCloser
}

// Get uses the specified Doer to issue a GET to the specified URL over
// the given paths, using the same policies as d.Do.
//
// To send custom headers, use request.NewOptions and d.Do.
func Get(ctx context.Context, d Doer, url string, ps ...paths.Path) (*request.Execution, error) {
	opts, err := request.NewOptions("GET", nil)
	if err != nil {
		return nil, err
	}
	return d.Do(ctx, url, opts, ps...)
}

// Head uses the specified Doer to issue a HEAD to the specified URL
// over the given paths, using the same policies as d.Do.
func Head(ctx context.Context, d Doer, url string, ps ...paths.Path) (*request.Execution, error) {
	opts, err := request.NewOptions("HEAD", nil)
	if err != nil {
		return nil, err
	}
	return d.Do(ctx, url, opts, ps...)
}

// Post uses the specified Doer to issue a POST to the specified URL
// over the given paths, using the same policies as d.Do.
//
// The body parameter may be nil for an empty body, or may be any of the
// types supported by request.BodyBytes: string, []byte,
// url.Values, or an io.Reader. If contentType is empty
// and body is url.Values, the content type is set to
// application/x-www-form-urlencoded.
func Post(ctx context.Context, d Doer, url, contentType string, body interface{}, ps ...paths.Path) (*request.Execution, error) {
	opts, err := request.NewOptions("POST", body)
	if err != nil {
		return nil, err
	}
	if contentType == "" && isForm(body) {
		contentType = "application/x-www-form-urlencoded"
	}
	if contentType != "" {
		opts.Header.Set("Content-Type", contentType)
	}
	return d.Do(ctx, url, opts, ps...)
}

func isForm(body interface{}) bool {
	_, ok := body.(url.Values)
	return ok
}

// Inflate converts any non-nil Doer into an Executor. This may be
// helpful for interop across library boundaries, i.e. if code that only
// has access to a Doer needs to call a function that requires an
// Executor.
func Inflate(d Doer) Executor {
	if d == nil {
		panic("proxyx: nil doer")
	}

	if e, ok := d.(Executor); ok {
		return e
	}

	return inflated{d}
}

type inflated struct {
	doer Doer
}

func (i inflated) Do(ctx context.Context, target string, opts *request.Options, ps ...paths.Path) (*request.Execution, error) {
	return i.doer.Do(ctx, target, opts, ps...)
}

func (i inflated) Get(ctx context.Context, url string, ps ...paths.Path) (*request.Execution, error) {
	return Get(ctx, i.doer, url, ps...)
}

func (i inflated) Head(ctx context.Context, url string, ps ...paths.Path) (*request.Execution, error) {
	return Head(ctx, i.doer, url, ps...)
}

func (i inflated) Post(ctx context.Context, url, contentType string, body interface{}, ps ...paths.Path) (*request.Execution, error) {
	return Post(ctx, i.doer, url, contentType, body, ps...)
}

func (i inflated) CloseIdleConnections() {
	if ic, ok := i.doer.(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}
