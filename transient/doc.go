// Copyright 2021 The proxyx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transient classifies errors from request attempts as
// connection-level (transient, worth trying over another network path)
// or not. This is what the fallback requester uses to decide whether to
// fall through to the next path, and it is handy for other purposes
// such as bucketing error metrics.
//
// Package transient is extremely lightweight, as it depends only on
// standard library packages, so it doesn't bring any significant
// dependencies when imported as a standalone package.
package transient
