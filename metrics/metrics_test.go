// Copyright 2021 The proxyx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package metrics

import (
	"context"
	"errors"
	"net"
	"syscall"
	"testing"

	"github.com/gogama/proxyx"
	"github.com/gogama/proxyx/paths"
	"github.com/gogama/proxyx/request"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	proxy1 = paths.MustParseProxy("http://proxy-1:3128")
	proxy2 = paths.MustParseProxy("http://proxy-2:3128")
)

type attempterFunc func(ctx context.Context, target string, opts *request.Options) request.Outcome

func (f attempterFunc) Attempt(ctx context.Context, target string, opts *request.Options) request.Outcome {
	return f(ctx, target, opts)
}

func newMeteredRequester(a attempterFunc) (*proxyx.Requester, *Handler) {
	h := NewHandler(prometheus.NewRegistry())
	g := &proxyx.HandlerGroup{}
	h.Install(g)
	return &proxyx.Requester{Transport: a, Handlers: g}, h
}

func TestHandler(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}

	t.Run("fallback then success", func(t *testing.T) {
		r, h := newMeteredRequester(func(_ context.Context, _ string, o *request.Options) request.Outcome {
			if o.Path == proxy1 {
				return request.Failed(request.Transient, refused)
			}
			return request.Succeeded(&request.Response{StatusCode: 200})
		})

		_, err := r.Do(context.Background(), "http://target.test", nil, proxy1, proxy2)

		require.NoError(t, err)
		assert.Equal(t, 1.0, testutil.ToFloat64(h.attempts.WithLabelValues("http://proxy-1:3128", "Transient")))
		assert.Equal(t, 1.0, testutil.ToFloat64(h.attempts.WithLabelValues("http://proxy-2:3128", "Success")))
		assert.Equal(t, 1.0, testutil.ToFloat64(h.pathFailures.WithLabelValues("http://proxy-1:3128", "ConnRefused")))
		assert.Equal(t, 1, testutil.CollectAndCount(h.pathFailures))
		assert.Equal(t, 1.0, testutil.ToFloat64(h.executions.WithLabelValues(ResultSuccess)))
		assert.Equal(t, 1, testutil.CollectAndCount(h.duration))
	})
	t.Run("exhausted", func(t *testing.T) {
		r, h := newMeteredRequester(func(context.Context, string, *request.Options) request.Outcome {
			return request.Failed(request.Transient, refused)
		})

		for i := 0; i < 3; i++ {
			_, err := r.Do(context.Background(), "http://target.test", nil, proxy1, proxy2)
			require.Error(t, err)
		}

		assert.Equal(t, 3.0, testutil.ToFloat64(h.pathFailures.WithLabelValues("http://proxy-1:3128", "ConnRefused")))
		assert.Equal(t, 3.0, testutil.ToFloat64(h.pathFailures.WithLabelValues("http://proxy-2:3128", "ConnRefused")))
		assert.Equal(t, 3.0, testutil.ToFloat64(h.executions.WithLabelValues(ResultExhausted)))
		assert.Equal(t, 1, testutil.CollectAndCount(h.executions))
	})
	t.Run("direct", func(t *testing.T) {
		r, h := newMeteredRequester(func(context.Context, string, *request.Options) request.Outcome {
			return request.Failed(request.Transient, refused)
		})

		_, err := r.Do(context.Background(), "http://target.test", nil)

		require.Error(t, err)
		assert.Equal(t, 1.0, testutil.ToFloat64(h.attempts.WithLabelValues("direct", "Transient")))
		assert.Equal(t, 0, testutil.CollectAndCount(h.pathFailures))
		assert.Equal(t, 1.0, testutil.ToFloat64(h.executions.WithLabelValues(ResultTransient)))
	})
}

func TestResult(t *testing.T) {
	testCases := []struct {
		name     string
		e        request.Execution
		expected string
	}{
		{"success", request.Execution{Kind: request.Success}, ResultSuccess},
		{"non-transient", request.Execution{Kind: request.NonTransient, Paths: []paths.Path{proxy1}}, ResultNonTransient},
		{"exhausted", request.Execution{Kind: request.Transient, Paths: []paths.Path{proxy1}}, ResultExhausted},
		{"exhausted unclassified", request.Execution{Kind: request.Unknown, Paths: []paths.Path{proxy1}}, ResultExhausted},
		{"direct transient", request.Execution{Kind: request.Transient}, ResultTransient},
		{"direct unclassified", request.Execution{Kind: request.Unknown, Err: errors.New("?")}, ResultNonTransient},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, Result(&testCase.e))
		})
	}
}

func TestNewHandler(t *testing.T) {
	t.Run("duplicate registration", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		NewHandler(reg)
		assert.Panics(t, func() { NewHandler(reg) })
	})
	t.Run("collectors are registered", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		h := NewHandler(reg)
		h.executions.WithLabelValues(ResultSuccess).Inc()

		n, err := testutil.GatherAndCount(reg, "proxyx_executions_total")

		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}
