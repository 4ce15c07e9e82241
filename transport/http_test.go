// Copyright 2021 The proxyx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gogama/proxyx/paths"
	"github.com/gogama/proxyx/request"
	"github.com/gogama/proxyx/transient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTP(t *testing.T) {
	t.Run("direct", func(t *testing.T) {
		h := &HTTP{}
		defer h.CloseIdleConnections()
		opts, err := request.NewOptions("POST", "ping")
		require.NoError(t, err)

		resp, err := h.Do(context.Background(), targetServer.URL, opts)

		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, "hello:ping", resp.Text())
		assert.Equal(t, "POST", resp.Header.Get("X-Method"))
		assert.Empty(t, resp.Header.Get(proxiedByHeader))
		assert.Nil(t, resp.Path)
	})
	t.Run("nil options", func(t *testing.T) {
		h := &HTTP{}
		defer h.CloseIdleConnections()

		resp, err := h.Do(context.Background(), targetServer.URL, nil)

		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, "GET", resp.Header.Get("X-Method"))
	})
	t.Run("error status is a response", func(t *testing.T) {
		h := &HTTP{}
		defer h.CloseIdleConnections()

		resp, err := h.Do(context.Background(), targetServer.URL+"?status=503", nil)

		require.NoError(t, err)
		assert.Equal(t, 503, resp.StatusCode)
		assert.False(t, resp.OK())
	})
	t.Run("http proxy", func(t *testing.T) {
		h := &HTTP{}
		defer h.CloseIdleConnections()
		p := paths.MustParseProxy(httpProxyServer.URL)
		opts := (&request.Options{Method: "GET"}).WithPath(p)

		resp, err := h.Do(context.Background(), targetServer.URL, opts)

		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, "http", resp.Header.Get(proxiedByHeader))
		assert.Same(t, p, resp.Path)
	})
	t.Run("socks5 proxy", func(t *testing.T) {
		h := &HTTP{}
		defer h.CloseIdleConnections()
		before := atomic.LoadInt64(&socksConns)
		p := paths.MustParseProxy("socks5://" + socksAddr)

		resp, err := h.Do(context.Background(), targetServer.URL, (*request.Options)(nil).WithPath(p))

		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, "hello:", resp.Text())
		assert.Greater(t, atomic.LoadInt64(&socksConns), before)
	})
	t.Run("socks5 proxy with credentials", func(t *testing.T) {
		h := &HTTP{}
		defer h.CloseIdleConnections()
		p := paths.MustParseProxy("socks5h://alice:secret@" + socksAuthAddr)

		resp, err := h.Do(context.Background(), targetServer.URL, (*request.Options)(nil).WithPath(p))

		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})
	t.Run("socks5 proxy with bad credentials", func(t *testing.T) {
		h := &HTTP{}
		defer h.CloseIdleConnections()
		p := paths.MustParseProxy("socks5://alice:wrong@" + socksAuthAddr)

		resp, err := h.Do(context.Background(), targetServer.URL, (*request.Options)(nil).WithPath(p))

		assert.Nil(t, resp)
		assert.Error(t, err)
	})
	t.Run("refused http proxy", func(t *testing.T) {
		h := &HTTP{}
		defer h.CloseIdleConnections()
		p := paths.MustParseProxy("http://" + refusedAddr)

		resp, err := h.Do(context.Background(), targetServer.URL, (*request.Options)(nil).WithPath(p))

		assert.Nil(t, resp)
		require.Error(t, err)
		assert.True(t, transient.IsTransport(err))
	})
	t.Run("refused socks5 proxy", func(t *testing.T) {
		h := &HTTP{}
		defer h.CloseIdleConnections()
		p := paths.MustParseProxy("socks5://" + refusedAddr)

		resp, err := h.Do(context.Background(), targetServer.URL, (*request.Options)(nil).WithPath(p))

		assert.Nil(t, resp)
		require.Error(t, err)
		assert.True(t, transient.IsTransport(err))
	})
	t.Run("cookie jar leaves options untouched", func(t *testing.T) {
		jar, err := cookiejar.New(nil)
		require.NoError(t, err)
		u, err := url.Parse(targetServer.URL)
		require.NoError(t, err)
		jar.SetCookies(u, []*http.Cookie{{Name: "s", Value: "1"}})
		h := &HTTP{Jar: jar}
		defer h.CloseIdleConnections()
		opts, err := request.NewOptions("GET", nil)
		require.NoError(t, err)
		opts.Header.Set("X-Test", "yes")
		refused := paths.MustParseProxy("http://" + refusedAddr)

		_, err = h.Do(context.Background(), targetServer.URL, opts.WithPath(refused))
		require.Error(t, err)
		resp, err := h.Do(context.Background(), targetServer.URL, opts)
		require.NoError(t, err)
		resp2, err := h.Do(context.Background(), targetServer.URL, opts)
		require.NoError(t, err)

		assert.Equal(t, "s=1", resp.Header.Get("X-Cookie"))
		assert.Equal(t, "s=1", resp2.Header.Get("X-Cookie"))
		assert.Equal(t, http.Header{"X-Test": {"yes"}}, opts.Header)
	})
	t.Run("truncated body", func(t *testing.T) {
		h := &HTTP{}
		defer h.CloseIdleConnections()

		resp, err := h.Do(context.Background(), targetServer.URL+"?truncate=1", nil)

		assert.Nil(t, resp)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrReadBody)
		var urlErr *url.Error
		require.ErrorAs(t, err, &urlErr)
		assert.Equal(t, "Get", urlErr.Op)
		assert.Equal(t, request.NonTransient, DefaultClassifier.Classify(err))
	})
	t.Run("func path", func(t *testing.T) {
		h := &HTTP{}
		var called bool
		p := paths.NewFunc("stub", roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			called = true
			return &http.Response{
				Status:     "202 Accepted",
				StatusCode: 202,
				Proto:      "HTTP/1.1",
				ProtoMajor: 1,
				ProtoMinor: 1,
				Header:     http.Header{},
				Body:       io.NopCloser(strings.NewReader("stubbed")),
				Request:    req,
			}, nil
		}))

		resp, err := h.Do(context.Background(), "http://example.invalid/", (*request.Options)(nil).WithPath(p))

		require.NoError(t, err)
		assert.True(t, called)
		assert.Equal(t, 202, resp.StatusCode)
		assert.Equal(t, "stubbed", resp.Text())
		assert.Same(t, p, resp.Path)
	})
	t.Run("unsupported path", func(t *testing.T) {
		h := &HTTP{}

		resp, err := h.Do(context.Background(), targetServer.URL, (*request.Options)(nil).WithPath(namedPath("weird")))

		assert.Nil(t, resp)
		assert.True(t, errors.Is(err, ErrUnsupportedPath))
		assert.False(t, transient.IsTransport(err))
	})
	t.Run("nil proxy", func(t *testing.T) {
		h := &HTTP{}

		resp, err := h.Do(context.Background(), targetServer.URL, (*request.Options)(nil).WithPath(&paths.Proxy{}))

		assert.Nil(t, resp)
		assert.True(t, errors.Is(err, ErrUnsupportedPath))
	})
	t.Run("invalid method", func(t *testing.T) {
		h := &HTTP{}

		resp, err := h.Do(context.Background(), targetServer.URL, &request.Options{Method: "BAD METHOD"})

		assert.Nil(t, resp)
		require.Error(t, err)
		assert.False(t, transient.IsTransport(err))
	})
	t.Run("canceled context", func(t *testing.T) {
		h := &HTTP{}
		defer h.CloseIdleConnections()
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(50 * time.Millisecond)
			cancel()
		}()

		resp, err := h.Do(ctx, targetServer.URL+"?pause=5s", nil)

		assert.Nil(t, resp)
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
		assert.False(t, transient.IsTransport(err))
	})
	t.Run("deadline exceeded", func(t *testing.T) {
		h := &HTTP{}
		defer h.CloseIdleConnections()
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		resp, err := h.Do(ctx, targetServer.URL+"?pause=5s", nil)

		assert.Nil(t, resp)
		require.Error(t, err)
		assert.Equal(t, transient.Timeout, transient.Categorize(err))
	})
}

func TestHTTPTransportCache(t *testing.T) {
	h := &HTTP{}
	defer h.CloseIdleConnections()
	p1 := paths.MustParseProxy(httpProxyServer.URL)
	p2 := paths.MustParseProxy(httpProxyServer.URL)
	p3 := paths.MustParseProxy("socks5://" + socksAddr)

	for _, p := range []paths.Path{p1, p2, p3, nil, nil} {
		_, err := h.Do(context.Background(), targetServer.URL, (*request.Options)(nil).WithPath(p))
		require.NoError(t, err)
	}

	h.lock.Lock()
	defer h.lock.Unlock()
	assert.Len(t, h.routes, 2)
	assert.NotNil(t, h.direct)
}

func TestHTTPCloseIdleConnections(t *testing.T) {
	h := &HTTP{}
	rt := &idleCloserRoundTripper{}
	fp := paths.NewFunc("owned", rt)
	_, err := h.Do(context.Background(), targetServer.URL, nil)
	require.NoError(t, err)
	_, err = h.Do(context.Background(), targetServer.URL, (*request.Options)(nil).WithPath(fp))
	require.NoError(t, err)

	h.CloseIdleConnections()

	assert.Equal(t, int32(1), atomic.LoadInt32(&rt.trips))
	assert.Zero(t, atomic.LoadInt32(&rt.closes))
	h.lock.Lock()
	defer h.lock.Unlock()
	assert.NotNil(t, h.direct)
	assert.Empty(t, h.routes)
}

func TestHTTPBase(t *testing.T) {
	base := &http.Transport{MaxIdleConnsPerHost: 7}
	h := &HTTP{Base: base}
	defer h.CloseIdleConnections()

	_, err := h.Do(context.Background(), targetServer.URL, nil)

	require.NoError(t, err)
	require.NotNil(t, h.direct)
	assert.NotSame(t, base, h.direct)
	assert.Equal(t, 7, h.direct.MaxIdleConnsPerHost)
	assert.Nil(t, h.direct.Proxy)
	assert.Nil(t, base.Proxy)
}

type namedPath string

func (p namedPath) String() string {
	return string(p)
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

type idleCloserRoundTripper struct {
	trips  int32
	closes int32
}

func (rt *idleCloserRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	atomic.AddInt32(&rt.trips, 1)
	return &http.Response{
		Status:     "200 OK",
		StatusCode: 200,
		Proto:      "HTTP/1.1",
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader("")),
		Request:    req,
	}, nil
}

func (rt *idleCloserRoundTripper) CloseIdleConnections() {
	atomic.AddInt32(&rt.closes, 1)
}
