// Copyright 2021 The proxyx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"time"

	"github.com/gogama/proxyx/request"
)

// A Policy defines a timeout policy which may be plugged into the
// fallback requester (proxyx.Requester) to direct how to set the
// timeout for each attempt, one attempt per path.
//
// Implementations of Policy must be safe for concurrent use by multiple
// goroutines.
type Policy interface {
	// Timeout returns the timeout to set on the next attempt within
	// the execution.
	//
	// Parameter e contains the current state of the execution. When
	// Timeout is called, e.Attempt and e.Path already identify the
	// attempt about to be made, while e.Err and e.AttemptTimeouts still
	// describe the previous attempts.
	Timeout(e *request.Execution) time.Duration
}

// DefaultPolicy is the default timeout policy. It sets a fixed timeout
// of 30 seconds on each attempt.
var DefaultPolicy Policy = Fixed(30 * time.Second)

// Infinite is a built-in timeout policy which never times out. Use it
// to leave attempt timeouts entirely to the transport.
var Infinite Policy = Fixed(1<<63 - 1)

// Fixed constructs a timeout policy that uses the same value to set
// every attempt timeout. The return value is a timeout policy that
// always returns the value d.
func Fixed(d time.Duration) Policy {
	return policy([]time.Duration{d})
}

// Adaptive constructs a timeout policy that varies the next timeout
// value if the previous attempt timed out.
//
// Parameter usual represents the timeout value the policy will return
// for the first attempt and for any attempt where the immediately
// preceding attempt did not time out.
//
// Parameter after contains timeout values the policy will return if
// the previous attempt timed out. If this was the first timeout of the
// execution, after[0] is returned; if the second, after[1], and so on.
// If more attempts have timed out within the execution than after has
// elements, then the last element of after is returned.
//
// When every path in a list is slow, Adaptive gives later paths more
// room instead of timing all of them out at the same short deadline:
//
//	p := Adaptive(2*time.Second, 5*time.Second, 15*time.Second)
func Adaptive(usual time.Duration, after ...time.Duration) Policy {
	p := make([]time.Duration, 1, 1+len(after))
	p[0] = usual
	return policy(append(p, after...))
}

type policy []time.Duration

func (p policy) Timeout(e *request.Execution) time.Duration {
	if !e.Timeout() {
		return p[0]
	}

	i := e.AttemptTimeouts
	if i > len(p)-1 {
		i = len(p) - 1
	}

	return p[i]
}

// PerPath constructs a timeout policy with a dedicated timeout for some
// paths, keyed by the path's String value. Attempts over any other
// path, and direct attempts, use the fallback policy.
//
// Use PerPath when some proxies are known to be slower than others,
// for example a SOCKS tunnel next to a local HTTP proxy.
func PerPath(fallback Policy, timeouts map[string]time.Duration) Policy {
	if fallback == nil {
		panic("proxyx/timeout: nil fallback policy")
	}
	m := make(map[string]time.Duration, len(timeouts))
	for k, v := range timeouts {
		m[k] = v
	}
	return perPath{fallback: fallback, timeouts: m}
}

type perPath struct {
	fallback Policy
	timeouts map[string]time.Duration
}

func (p perPath) Timeout(e *request.Execution) time.Duration {
	if e.Path != nil {
		if d, ok := p.timeouts[e.Path.String()]; ok {
			return d
		}
	}
	return p.fallback.Timeout(e)
}
