// Copyright 2021 The proxyx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package paths

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// A Path is an opaque token identifying one network route a request
// attempt may take, for example a particular proxy server.
//
// The fallback requester never inspects a Path. It only attaches it to
// the request options of an attempt, and leaves it to the transport to
// interpret. The String method is used for diagnostics only, so it
// must not leak credentials.
type Path interface {
	String() string
}

// Proxy schemes understood by ParseProxy.
const (
	SchemeHTTP    = "http"
	SchemeHTTPS   = "https"
	SchemeSOCKS5  = "socks5"
	SchemeSOCKS5H = "socks5h"
)

// ErrUnsupportedScheme indicates a proxy URL with a scheme other than
// http, https, socks5, or socks5h.
var ErrUnsupportedScheme = errors.New("proxyx/paths: unsupported proxy scheme")

// A Proxy is a Path which routes request attempts through a proxy
// server. HTTP and HTTPS proxies are spoken to using CONNECT (or
// absolute-form requests for plain HTTP targets), while SOCKS5 proxies
// are dialed through golang.org/x/net/proxy by package transport.
type Proxy struct {
	// URL is the proxy URL, including optional user info for proxy
	// authentication. It is never nil for a Proxy returned by
	// ParseProxy.
	URL *url.URL
}

// ParseProxy parses a proxy URL into a Proxy path.
//
// A URL without a scheme, such as "10.0.0.1:3128", is treated as an
// HTTP proxy.
func ParseProxy(raw string) (*Proxy, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, errors.New("proxyx/paths: empty proxy URL")
	}
	if !strings.Contains(s, "://") {
		s = SchemeHTTP + "://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	u.Scheme = strings.ToLower(u.Scheme)
	switch u.Scheme {
	case SchemeHTTP, SchemeHTTPS, SchemeSOCKS5, SchemeSOCKS5H:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("proxyx/paths: missing host in proxy URL %q", u.Redacted())
	}
	return &Proxy{URL: u}, nil
}

// MustParseProxy is like ParseProxy but panics if the URL cannot be
// parsed. It simplifies initialization of package-level proxy lists.
func MustParseProxy(raw string) *Proxy {
	p, err := ParseProxy(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// ParseProxies parses each URL in raws into a Proxy path, preserving
// order. The first parse error is returned.
func ParseProxies(raws ...string) ([]Path, error) {
	ps := make([]Path, 0, len(raws))
	for _, raw := range raws {
		p, err := ParseProxy(raw)
		if err != nil {
			return nil, err
		}
		ps = append(ps, p)
	}
	return ps, nil
}

// IsSOCKS reports whether the proxy is a SOCKS5 proxy.
func (p *Proxy) IsSOCKS() bool {
	return p.URL.Scheme == SchemeSOCKS5 || p.URL.Scheme == SchemeSOCKS5H
}

// String returns the proxy URL with any password redacted.
func (p *Proxy) String() string {
	return p.URL.Redacted()
}

// A Func is a Path that carries its own round tripper, for routes that
// can't be described by a proxy URL (a tunnel, a pre-configured
// http.Transport, a test double, and so on).
type Func struct {
	// Name identifies the path in diagnostics.
	Name string
	// RoundTripper sends request attempts taking this path.
	RoundTripper http.RoundTripper
}

// NewFunc constructs a Func path.
func NewFunc(name string, rt http.RoundTripper) *Func {
	if rt == nil {
		panic("proxyx/paths: nil round tripper")
	}
	return &Func{Name: name, RoundTripper: rt}
}

func (f *Func) String() string {
	return f.Name
}

// DirectName is the diagnostic name of a direct attempt, one made
// without any path.
const DirectName = "direct"

// Name returns the diagnostic name of p. A nil path names a direct
// attempt and is named DirectName.
func Name(p Path) string {
	if p == nil {
		return DirectName
	}
	return p.String()
}

// Names returns the diagnostic names of ps in order. Unlike Name, a nil
// entry in a path list is not a direct attempt, and is named "<nil>".
func Names(ps []Path) []string {
	names := make([]string, len(ps))
	for i, p := range ps {
		if p == nil {
			names[i] = "<nil>"
			continue
		}
		names[i] = p.String()
	}
	return names
}
