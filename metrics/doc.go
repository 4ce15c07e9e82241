// Copyright 2021 The proxyx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package metrics provides a diagnostic sink that records fallback
// request metrics in Prometheus collectors.
//
// The collectors are:
//
//	proxyx_attempts_total{path,kind}
//	proxyx_path_failures_total{path,category}
//	proxyx_executions_total{result}
//	proxyx_execution_duration_seconds
//
// Install the handler in the requester's handler group:
//
//	handlers := &proxyx.HandlerGroup{}
//	metrics.NewHandler(prometheus.DefaultRegisterer).Install(handlers)
//	requester := &proxyx.Requester{Handlers: handlers}
package metrics
