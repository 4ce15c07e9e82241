// Copyright 2021 The proxyx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gogama/proxyx/paths"
	"github.com/gogama/proxyx/request"
	"golang.org/x/net/proxy"
)

// ErrUnsupportedPath indicates the HTTP transport does not know how to
// send a request over the path attached to the options. It is never
// transient: the same path will fail the same way every time.
var ErrUnsupportedPath = errors.New("proxyx/transport: unsupported path")

// ErrReadBody marks a failure to read the response body after the
// response headers arrived. The target has already seen the request,
// so DefaultClassifier never treats it as Transient.
var ErrReadBody = errors.New("proxyx/transport: failed to read response body")

// A Doer performs one request attempt: it sends the options to the
// target over the path attached to the options (or directly, if there
// is none) and returns the fully-read response.
//
// Any HTTP response, whatever its status code, is a success. An error
// is returned only if no complete response could be obtained.
type Doer interface {
	Do(ctx context.Context, target string, opts *request.Options) (*request.Response, error)
}

// The DoerFunc type is an adapter to allow the use of ordinary
// functions as Doers.
type DoerFunc func(ctx context.Context, target string, opts *request.Options) (*request.Response, error)

// Do calls f(ctx, target, opts).
func (f DoerFunc) Do(ctx context.Context, target string, opts *request.Options) (*request.Response, error) {
	return f(ctx, target, opts)
}

// DefaultHTTP is the HTTP transport used by the zero value Adapter.
var DefaultHTTP = &HTTP{}

// HTTP is a Doer built on the standard net/http client. Its zero value
// is ready to use.
//
// HTTP keeps one http.Transport per distinct path (plus one for direct
// requests), so connections to a proxy are reused across attempts and
// across requests. HTTP is safe for concurrent use by multiple
// goroutines and should be reused rather than created as needed.
//
// Supported paths are:
//
// • nil, meaning a direct connection to the target;
//
// • *paths.Proxy with an http or https scheme, used through
// http.Transport's own proxy support;
//
// • *paths.Proxy with a socks5 or socks5h scheme, dialed through
// golang.org/x/net/proxy;
//
// • *paths.Func, whose round tripper is used as-is.
type HTTP struct {
	// Base is the template transport cloned for each path. If nil, a
	// transport with settings equivalent to http.DefaultTransport is
	// used, except that the environment proxy settings are ignored.
	//
	// Base's Proxy field is always overridden. Its DialContext field is
	// overridden for SOCKS5 paths, which dial through the proxy.
	Base *http.Transport

	// Dialer dials TCP connections to targets and proxies. If nil, a
	// dialer with a 30 second connect timeout is used.
	Dialer *net.Dialer

	// CheckRedirect specifies the redirect policy, with the same
	// meaning as http.Client.CheckRedirect.
	CheckRedirect func(req *http.Request, via []*http.Request) error

	// Jar specifies the cookie jar, with the same meaning as
	// http.Client.Jar.
	Jar http.CookieJar

	lock   sync.Mutex
	direct *http.Transport
	routes map[string]*http.Transport
}

// Do implements Doer.
func (h *HTTP) Do(ctx context.Context, target string, opts *request.Options) (*request.Response, error) {
	var p paths.Path
	if opts != nil {
		p = opts.Path
	}

	rt, err := h.roundTripper(p)
	if err != nil {
		return nil, err
	}

	req, err := opts.ToRequest(ctx, target)
	if err != nil {
		return nil, err
	}

	client := &http.Client{
		Transport:     rt,
		CheckRedirect: h.CheckRedirect,
		Jar:           h.Jar,
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &url.Error{
			Op:  urlErrorOp(req.Method),
			URL: req.URL.String(),
			Err: fmt.Errorf("%w: %w", ErrReadBody, err),
		}
	}

	return request.NewResponse(resp, body, p), nil
}

// CloseIdleConnections closes idle connections on every transport the
// HTTP transport has created. The round trippers of paths.Func paths
// belong to their paths and are left alone.
func (h *HTTP) CloseIdleConnections() {
	h.lock.Lock()
	ts := make([]*http.Transport, 0, len(h.routes)+1)
	if h.direct != nil {
		ts = append(ts, h.direct)
	}
	for _, t := range h.routes {
		ts = append(ts, t)
	}
	h.lock.Unlock()

	for _, t := range ts {
		t.CloseIdleConnections()
	}
}

func (h *HTTP) roundTripper(p paths.Path) (http.RoundTripper, error) {
	switch x := p.(type) {
	case nil:
		return h.directTransport(), nil
	case *paths.Proxy:
		if x == nil || x.URL == nil {
			return nil, fmt.Errorf("%w: nil proxy URL", ErrUnsupportedPath)
		}
		return h.proxyTransport(x)
	case *paths.Func:
		if x == nil || x.RoundTripper == nil {
			return nil, fmt.Errorf("%w: nil round tripper", ErrUnsupportedPath)
		}
		return x.RoundTripper, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedPath, p)
	}
}

func (h *HTTP) directTransport() *http.Transport {
	h.lock.Lock()
	defer h.lock.Unlock()

	if h.direct == nil {
		t := h.base()
		t.Proxy = nil
		h.direct = t
	}

	return h.direct
}

func (h *HTTP) proxyTransport(p *paths.Proxy) (*http.Transport, error) {
	key := p.URL.String()

	h.lock.Lock()
	defer h.lock.Unlock()

	if t, ok := h.routes[key]; ok {
		return t, nil
	}

	t := h.base()
	if p.IsSOCKS() {
		d, err := proxy.FromURL(p.URL, h.dialer())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedPath, err)
		}
		cd, ok := d.(proxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("%w: %s dialer does not support contexts", ErrUnsupportedPath, p.URL.Scheme)
		}
		t.Proxy = nil
		t.DialContext = cd.DialContext
	} else {
		t.Proxy = http.ProxyURL(p.URL)
	}

	if h.routes == nil {
		h.routes = make(map[string]*http.Transport)
	}
	h.routes[key] = t
	return t, nil
}

func (h *HTTP) base() *http.Transport {
	if h.Base != nil {
		return h.Base.Clone()
	}

	return &http.Transport{
		DialContext:           h.dialer().DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

func (h *HTTP) dialer() *net.Dialer {
	if h.Dialer != nil {
		return h.Dialer
	}

	return &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
}

// urlErrorOp is lifted verbatim from net/http/client.go
func urlErrorOp(method string) string {
	if method == "" {
		return "Get"
	}
	return method[:1] + strings.ToLower(method[1:])
}
