// Copyright 2021 The proxyx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"net/http"

	"github.com/gogama/proxyx/paths"
)

// A Response is the fully-buffered result of a successful request
// attempt. Any HTTP response counts as success, whatever its status
// code; only a failure to obtain a response is an error.
type Response struct {
	// Status is the status line text, e.g. "200 OK".
	Status string

	// StatusCode is the HTTP status code, e.g. 200.
	StatusCode int

	// Proto is the protocol version, e.g. "HTTP/1.1".
	Proto string

	// Header contains the response headers.
	Header http.Header

	// Trailer contains the response trailers, if any, after the body
	// was read to the end.
	Trailer http.Header

	// Body is the complete response body.
	Body []byte

	// Path is the network path the response was received through. It
	// is nil for a direct request.
	Path paths.Path
}

// NewResponse copies the metadata of an http.Response into a Response
// with the given fully-read body. The body of r is not touched.
func NewResponse(r *http.Response, body []byte, p paths.Path) *Response {
	return &Response{
		Status:     r.Status,
		StatusCode: r.StatusCode,
		Proto:      r.Proto,
		Header:     r.Header,
		Trailer:    r.Trailer,
		Body:       body,
		Path:       p,
	}
}

// OK reports whether the status code is in the 2XX range.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}
