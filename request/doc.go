// Copyright 2021 The proxyx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request contains the core data types of a fallback request:
Options (what to send), Response (what came back), Outcome (the tagged
result of one attempt), and Execution (the state of one fallback
request across all of its attempts).

Options is the option set for a logical request, minus the target
address. It looks like a stripped-down http.Request with the URL
removed and the body replaced by a pre-buffered []byte, so that the same
options can be replayed over every path:

	opts, err := request.NewOptions("POST", body)
	...
	resp, err := requester.Request(ctx, "https://example.com/upload", opts, ps...)
	...

Options carries one special field, Path, which names the network path
an attempt takes. The fallback requester never modifies the caller's
Options; it attaches each path to a copy made with WithPath.

An Outcome is produced by the transport adapter for every attempt. It
is either a Success carrying a Response, or a failure tagged Transient
(connection-level, worth trying over the next path) or NonTransient
(anything else, surfaced to the caller at once).

Execution is both the output type of proxyx.Requester.Do and the input
type for callbacks invoked while the request runs: timeout policies and
event handlers. You will typically not allocate Execution instances
yourself.
*/
package request
