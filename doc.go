// Copyright 2021 The proxyx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package proxyx makes HTTP requests that fall back across an ordered list
of network paths, typically proxies, within a simple and familiar
interface.

Create a Requester and give each request the paths to try, in order:

	ps, err := paths.ParseProxies(
		"http://proxy-a.example.com:3128",
		"socks5://proxy-b.example.com:1080",
	)
	...
	requester := &proxyx.Requester{}
	resp, err := requester.Request(ctx, "https://www.example.com", nil, ps...)

Each path gets exactly one attempt. The first success wins. A
connection-level failure (DNS, TCP, TLS, or proxy handshake) moves on to
the next path, while any other failure is returned at once. If every
path fails, the error from the last path is returned. With no paths, a
single direct attempt is made.

For control over how attempts are sent and how their failures are
classified, use a custom transport from package transport:

	requester := &proxyx.Requester{
		Transport: &transport.Adapter{
			Doer: &transport.HTTP{
				Dialer: &net.Dialer{Timeout: 5 * time.Second},
			},
			Classifier: transport.DefaultClassifier,
		},
	}

For control over the individual attempt timeouts, set a custom timeout
policy using package timeout:

	requester := &proxyx.Requester{
		TimeoutPolicy: timeout.Fixed(10 * time.Second),
	}

To observe the fallback logic, for example to log each path failure,
install a handler into the appropriate handler chain:

	handlers := &proxyx.HandlerGroup{}
	handlers.PushBack(proxyx.AfterPathFailure, proxyx.HandlerFunc(
		func(_ proxyx.Event, e *request.Execution) {
			log.Printf("path %v failed: %v", e.Path, e.Err)
		}),
	)
	requester := &proxyx.Requester{
		Handlers: handlers,
	}

Ready-made handlers for structured logging and Prometheus metrics live
in packages logging and metrics.

Package proxyx provides basic interfaces for each method of the
requester (Doer, Getter, Header, Poster, and IdleCloser); a combined
interface that composes all the basic methods (Executor); and utility
functions for working with a Doer (Inflate, Get, Head, and Post).
*/
package proxyx
