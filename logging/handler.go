// Copyright 2021 The proxyx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package logging

import (
	"github.com/gogama/proxyx"
	"github.com/gogama/proxyx/paths"
	"github.com/gogama/proxyx/request"
	"github.com/gogama/proxyx/transient"
	"go.uber.org/zap"
)

// Handler is a proxyx.Handler that writes fallback request diagnostics
// to a zap logger.
//
// Path failures are logged at Warn level, since each one means a proxy
// is unusable. Attempts and attempt timeouts are logged at Debug level.
// The end of each request is logged at Info level if it succeeded and
// at Warn level otherwise.
type Handler struct {
	logger *zap.Logger
}

// NewHandler returns a Handler logging to logger. A nil logger
// discards everything.
func NewHandler(logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{logger: logger}
}

// Events lists the events the handler logs.
var Events = []proxyx.Event{
	proxyx.BeforeAttempt,
	proxyx.AfterAttemptTimeout,
	proxyx.AfterPathFailure,
	proxyx.AfterExecutionEnd,
}

// Install adds the handler to g for each event it logs.
func (h *Handler) Install(g *proxyx.HandlerGroup) {
	g.PushBackAll(h, Events...)
}

// Handle implements proxyx.Handler.
func (h *Handler) Handle(evt proxyx.Event, e *request.Execution) {
	switch evt {
	case proxyx.BeforeAttempt:
		h.logger.Debug("attempting request", attemptFields(e)...)
	case proxyx.AfterAttemptTimeout:
		h.logger.Debug("attempt timed out",
			append(attemptFields(e), zap.Int("attempt_timeouts", e.AttemptTimeouts))...)
	case proxyx.AfterPathFailure:
		fields := append(attemptFields(e),
			zap.String("category", transient.Categorize(e.Err).String()),
			zap.Int("remaining", e.Remaining()),
			zap.Error(e.Err),
		)
		if e.Remaining() > 0 {
			h.logger.Warn("path failed, trying next path", fields...)
		} else {
			h.logger.Warn("path failed, no paths left", fields...)
		}
	case proxyx.AfterExecutionEnd:
		fields := []zap.Field{
			zap.String("id", e.ID),
			zap.String("target", e.Target),
			zap.Int("attempts", e.Attempt+1),
			zap.Int("transient_failures", e.TransientFailures),
			zap.Duration("duration", e.Duration()),
		}
		if e.Kind == request.Success {
			h.logger.Info("request succeeded", append(fields,
				zap.String("path", paths.Name(e.Path)),
				zap.Int("status", e.StatusCode()),
			)...)
		} else {
			h.logger.Warn("request failed", append(fields,
				zap.String("kind", e.Kind.String()),
				zap.Error(e.Err),
			)...)
		}
	}
}

func attemptFields(e *request.Execution) []zap.Field {
	return []zap.Field{
		zap.String("id", e.ID),
		zap.String("target", e.Target),
		zap.String("path", paths.Name(e.Path)),
		zap.Int("attempt", e.Attempt),
	}
}
