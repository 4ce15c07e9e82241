// Copyright 2021 The proxyx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gogama/proxyx"
	"github.com/gogama/proxyx/config"
	"github.com/gogama/proxyx/logging"
	"github.com/gogama/proxyx/metrics"
	"github.com/gogama/proxyx/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// watchOptions contains the flags of the watch command.
type watchOptions struct {
	Interval    time.Duration
	MetricsAddr string
	Count       int
}

func registerWatch(rootCmd *cobra.Command, globalOptions *globalOptions) {
	requestOptions := &requestOptions{}
	watchOptions := &watchOptions{}
	subCmd := &cobra.Command{
		Use:   "watch [URL]",
		Short: "Sends a request periodically and exports metrics",
		Long: "Sends a request at a fixed interval, logging each result and " +
			"exporting Prometheus metrics. When a config file is given, it is " +
			"reloaded whenever it changes.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd, args, globalOptions, requestOptions, watchOptions)
		},
	}
	addRequestFlags(subCmd, requestOptions)
	flags := subCmd.Flags()
	flags.DurationVar(&watchOptions.Interval, "interval", 0, "time between requests")
	flags.StringVar(&watchOptions.MetricsAddr, "metrics-addr", "", `address to serve Prometheus metrics on, e.g. ":9090"`)
	flags.IntVar(&watchOptions.Count, "count", 0, "stop after this many requests (0 means run until interrupted)")
	rootCmd.AddCommand(subCmd)
}

func runWatch(ctx context.Context, cmd *cobra.Command, args []string, globalOptions *globalOptions, requestOptions *requestOptions, watchOptions *watchOptions) error {
	resolve := func(c *config.Config) (*plan, error) {
		if err := applyFlags(cmd, c, globalOptions, requestOptions, args); err != nil {
			return nil, err
		}
		if cmd.Flags().Changed("interval") {
			c.Watch.Interval = watchOptions.Interval
		}
		if watchOptions.MetricsAddr != "" {
			c.Metrics.Addr = watchOptions.MetricsAddr
		}
		if c.Watch.Interval <= 0 {
			return nil, errors.New("watch interval must be positive")
		}
		return newPlan(c)
	}

	c, err := loadConfig(globalOptions)
	if err != nil {
		return err
	}
	p, err := resolve(c)
	if err != nil {
		return err
	}

	logger, err := logging.New(c.Logging)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	var current atomic.Pointer[plan]
	current.Store(p)

	if globalOptions.ConfigPath != "" {
		w, err := config.NewWatcher(globalOptions.ConfigPath, logger)
		if err != nil {
			return err
		}
		defer func() {
			_ = w.Close()
		}()
		w.OnReload(func(c *config.Config) {
			p, err := resolve(c)
			if err != nil {
				logger.Error("ignoring reloaded config", zap.Error(err))
				return
			}
			current.Store(p)
		})
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	handlers := &proxyx.HandlerGroup{}
	logging.NewHandler(logger).Install(handlers)
	metrics.NewHandler(registry).Install(handlers)

	if c.Metrics.Addr != "" {
		srv, err := serveMetrics(c.Metrics, registry, logger)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	tr := transport.NewAdapter(&transport.HTTP{})
	defer tr.CloseIdleConnections()

	for n := 1; ; n++ {
		p := current.Load()
		requester := &proxyx.Requester{
			Transport:     tr,
			TimeoutPolicy: p.policy,
			Handlers:      handlers,
		}
		// Failures are logged and counted by the handlers.
		_, _ = requester.Do(ctx, p.target, p.opts, p.paths...)

		if watchOptions.Count > 0 && n >= watchOptions.Count {
			return nil
		}

		timer := time.NewTimer(p.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info("watch stopped", zap.Int("requests", n))
			return nil
		case <-timer.C:
		}
	}
}

func serveMetrics(mc config.MetricsConfig, gatherer prometheus.Gatherer, logger *zap.Logger) (*http.Server, error) {
	listener, err := net.Listen("tcp", mc.Addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle(mc.Path, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	logger.Info("serving prometheus metrics", zap.String("addr", listener.Addr().String()), zap.String("path", mc.Path))
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	return srv, nil
}
