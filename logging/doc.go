// Copyright 2021 The proxyx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package logging builds zap loggers and provides a diagnostic sink that
// logs the progress of fallback requests.
//
//	logger, err := logging.New(logging.Config{Level: "debug"})
//	...
//	handlers := &proxyx.HandlerGroup{}
//	logging.NewHandler(logger).Install(handlers)
//	requester := &proxyx.Requester{Handlers: handlers}
package logging
