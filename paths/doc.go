// Copyright 2021 The proxyx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package paths defines Path, the opaque token naming one network route
// a request attempt can take, and the built-in path types Proxy and
// Func.
//
// Paths are tried in order by the fallback requester in package proxyx:
//
//	ps, err := paths.ParseProxies("http://proxy1:3128", "socks5://proxy2:1080")
//	...
//	resp, err := requester.Request(ctx, "https://example.com", nil, ps...)
package paths
