// Copyright 2021 The proxyx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	urlpkg "net/url"
	"strings"

	"github.com/gogama/proxyx/paths"
	"golang.org/x/net/http/httpguts"
)

const (
	nilCtxMsg = "proxyx/request: nil context"
)

// Options contains the option set for a logical request: everything
// except the target address and the network path. The fallback
// requester passes Options through unmodified except that, when paths
// are supplied, it attaches one path per attempt to a shallow copy
// made with WithPath.
//
// The field structure of Options mirrors the client-side fields of
// http.Request with the following differences. The URL is supplied
// separately as the request target. Body is a pre-buffered []byte so
// that the same options can be sent over several paths.
//
// Options must not be mutated while a request using them is in flight.
type Options struct {
	// Method specifies the HTTP method (GET, POST, PUT, etc.).
	// An empty string means GET.
	Method string

	// Header contains the request header fields to be sent.
	//
	// For further details, see the documentation of Request.Header in
	// the net/http package.
	Header http.Header

	// Body is the pre-buffered request body to be sent. A nil or
	// empty body indicates no request body should be sent, for example
	// on a GET or DELETE request.
	Body []byte

	// TransferEncoding lists the transfer encodings from outermost to
	// innermost. An empty list denotes the "identity" encoding.
	TransferEncoding []string

	// Close stipulates whether to close the connection after sending
	// the request and reading the response.
	Close bool

	// Host optionally overrides the Host header to send. If empty, the
	// host of the request target is sent.
	Host string

	// Path is the network path the attempt should take. It is nil when
	// the request should go directly to the target.
	//
	// The fallback requester sets Path on a copy of the options for
	// each attempt, so callers usually leave it nil.
	Path paths.Path
}

// NewOptions returns new Options given a method and optional body.
//
// Parameter body may be nil (empty body), or it may be a string,
// []byte, io.Reader, or io.ReadCloser. If body is an io.Reader, it is
// read to the end and buffered into a []byte. If body is an
// io.ReadCloser, it is closed after buffering.
func NewOptions(method string, body interface{}) (*Options, error) {
	if method == "" {
		method = "GET"
	}
	if !validMethod(method) {
		return nil, fmt.Errorf("proxyx/request: invalid method %q", method)
	}
	b, err := BodyBytes(body)
	if err != nil {
		return nil, err
	}
	return &Options{
		Method: method,
		Header: make(http.Header),
		Body:   b,
	}, nil
}

// WithPath returns a shallow copy of o with its Path set to p. The
// receiver is never modified. A nil receiver is treated as the zero
// Options.
func (o *Options) WithPath(p paths.Path) *Options {
	o2 := new(Options)
	if o != nil {
		*o2 = *o
	}
	o2.Path = p
	return o2
}

// AddCookie adds a cookie to the options. Per RFC 6265 section 5.4,
// AddCookie does not attach more than one Cookie header field. That
// means all cookies, if any, are written into the same line,
// separated by semicolons.
func (o *Options) AddCookie(c *http.Cookie) {
	if o.Header == nil {
		o.Header = make(http.Header)
	}
	c2 := &http.Cookie{Name: c.Name, Value: c.Value}
	s := c2.String()
	if h := o.Header.Get("Cookie"); h != "" {
		o.Header.Set("Cookie", h+"; "+s)
	} else {
		o.Header.Set("Cookie", s)
	}
}

// SetBasicAuth sets the Authorization header to use HTTP Basic
// Authentication with the provided username and password.
//
// This authenticates against the target. Proxy credentials belong in
// the proxy URL of the path.
func (o *Options) SetBasicAuth(username, password string) {
	if o.Header == nil {
		o.Header = make(http.Header)
	}
	auth := username + ":" + password
	o.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(auth)))
}

// ToRequest creates an HTTP request for one attempt to send these
// options to target. The context of the new request is set to ctx,
// which may not be nil.
//
// The returned request gets its own copy of the header, so the
// caller's options are untouched by anything the client adds, such as
// cookies from a jar.
func (o *Options) ToRequest(ctx context.Context, target string) (*http.Request, error) {
	if ctx == nil {
		return nil, errors.New(nilCtxMsg)
	}
	if o == nil {
		o = &Options{}
	}
	method := o.Method
	if method == "" {
		method = "GET"
	}
	if !validMethod(method) {
		return nil, fmt.Errorf("proxyx/request: invalid method %q", method)
	}
	u, err := urlpkg.Parse(target)
	if err != nil {
		return nil, err
	}
	u.Host = removeEmptyPort(u.Host)
	var body io.Reader
	if len(o.Body) > 0 {
		body = bytes.NewReader(o.Body)
	}
	r, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	if o.Header != nil {
		r.Header = o.Header.Clone()
	}
	r.TransferEncoding = o.TransferEncoding
	r.Close = o.Close
	if o.Host != "" {
		r.Host = o.Host
	}
	return r, nil
}

func validMethod(method string) bool {
	return strings.IndexFunc(method, isNotToken) == -1
}

func isNotToken(r rune) bool {
	return !httpguts.IsTokenRune(r)
}

// hasPort is lifted verbatim from net/http/http.go
//
// Given a string of the form "host", "host:port", or "[ipv6::address]:port",
// return true if the string includes a port.
func hasPort(s string) bool { return strings.LastIndex(s, ":") > strings.LastIndex(s, "]") }

// removeEmptyPort is lifted verbatim from net/http/http.go
//
// removeEmptyPort strips the empty port in ":port" to ""
// as mandated by RFC 3986 Section 6.2.3.
func removeEmptyPort(host string) string {
	if hasPort(host) {
		return strings.TrimSuffix(host, ":")
	}
	return host
}
