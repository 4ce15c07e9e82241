// Copyright 2021 The proxyx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package timeout defines policies for setting the timeout of each
// attempt during a fallback request. A generic interface for timeout
// policies is provided, Policy, along with several useful policy
// generating functions and built-in policies.
//
// Attempt timeouts bound a single attempt over a single path. Nothing
// is waited between attempts: when an attempt times out the next path
// is tried at once.
package timeout
