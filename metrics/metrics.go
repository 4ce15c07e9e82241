// Copyright 2021 The proxyx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package metrics

import (
	"github.com/gogama/proxyx"
	"github.com/gogama/proxyx/paths"
	"github.com/gogama/proxyx/request"
	"github.com/gogama/proxyx/transient"
	"github.com/prometheus/client_golang/prometheus"
)

// Values of the result label on the executions counter.
const (
	ResultSuccess      = "success"
	ResultTransient    = "transient"
	ResultNonTransient = "non_transient"
	ResultExhausted    = "exhausted"
)

// summaryObjectives returns the quantiles tracked by the duration
// summary, with their allowed absolute error.
func summaryObjectives() map[float64]float64 {
	return map[float64]float64{
		0.5:  0.010,
		0.9:  0.010,
		0.99: 0.001,
	}
}

// Handler is a proxyx.Handler that records fallback request metrics in
// Prometheus collectors.
type Handler struct {
	attempts     *prometheus.CounterVec
	pathFailures *prometheus.CounterVec
	executions   *prometheus.CounterVec
	duration     prometheus.Summary
}

// NewHandler creates a Handler and registers its collectors with reg.
// If reg is nil, prometheus.DefaultRegisterer is used. NewHandler
// panics if the collectors cannot be registered, for example because
// another Handler is already registered with reg.
func NewHandler(reg prometheus.Registerer) *Handler {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	h := &Handler{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "proxyx_attempts_total",
			Help: "Total number of request attempts, by path and outcome kind",
		}, []string{"path", "kind"}),

		pathFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "proxyx_path_failures_total",
			Help: "Total number of transient path failures, by path and failure category",
		}, []string{"path", "category"}),

		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "proxyx_executions_total",
			Help: "Total number of fallback requests, by result",
		}, []string{"result"}),

		duration: prometheus.NewSummary(prometheus.SummaryOpts{
			Name:       "proxyx_execution_duration_seconds",
			Help:       "Summarizes the time to complete a fallback request across all its attempts (in seconds)",
			Objectives: summaryObjectives(),
		}),
	}

	reg.MustRegister(h.attempts, h.pathFailures, h.executions, h.duration)
	return h
}

// Events lists the events the handler records.
var Events = []proxyx.Event{
	proxyx.AfterAttempt,
	proxyx.AfterPathFailure,
	proxyx.AfterExecutionEnd,
}

// Install adds the handler to g for each event it records.
func (h *Handler) Install(g *proxyx.HandlerGroup) {
	g.PushBackAll(h, Events...)
}

// Handle implements proxyx.Handler.
func (h *Handler) Handle(evt proxyx.Event, e *request.Execution) {
	switch evt {
	case proxyx.AfterAttempt:
		h.attempts.WithLabelValues(paths.Name(e.Path), e.Kind.String()).Inc()
	case proxyx.AfterPathFailure:
		h.pathFailures.WithLabelValues(paths.Name(e.Path), transient.Categorize(e.Err).String()).Inc()
	case proxyx.AfterExecutionEnd:
		h.executions.WithLabelValues(Result(e)).Inc()
		h.duration.Observe(e.Duration().Seconds())
	}
}

// Result classifies an ended execution for the result label.
//
// A request whose every path failed is "exhausted". A request made
// without paths reports the kind of its single attempt.
func Result(e *request.Execution) string {
	switch e.Kind {
	case request.Success:
		return ResultSuccess
	case request.NonTransient:
		return ResultNonTransient
	}
	if len(e.Paths) > 0 {
		return ResultExhausted
	}
	if e.Kind == request.Transient {
		return ResultTransient
	}
	return ResultNonTransient
}
