// Copyright 2021 The proxyx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gogama/proxyx/config"
	"github.com/gogama/proxyx/paths"
	"github.com/gogama/proxyx/request"
	"github.com/gogama/proxyx/timeout"
	"github.com/spf13/cobra"
)

var errNoTarget = errors.New("no target URL: pass one as an argument or set target in the config file")

// requestOptions contains the flags describing the request to send.
// Flags set on the command line override the config file.
type requestOptions struct {
	Proxies []string
	Method  string
	Headers []string
	Data    string
	Timeout time.Duration
}

func addRequestFlags(cmd *cobra.Command, requestOptions *requestOptions) {
	flags := cmd.Flags()
	flags.StringArrayVarP(&requestOptions.Proxies, "proxy", "x", nil, "proxy URL to try, in order (repeatable)")
	flags.StringVarP(&requestOptions.Method, "method", "X", "", "HTTP method")
	flags.StringArrayVarP(&requestOptions.Headers, "header", "H", nil, `request header as "Name: value" (repeatable)`)
	flags.StringVarP(&requestOptions.Data, "data", "d", "", "request body")
	flags.DurationVar(&requestOptions.Timeout, "timeout", 0, "per-attempt timeout")
}

// plan is everything needed to send one request, resolved from
// configuration and flags.
type plan struct {
	target   string
	opts     *request.Options
	paths    []paths.Path
	policy   timeout.Policy
	interval time.Duration
}

func loadConfig(globalOptions *globalOptions) (*config.Config, error) {
	if globalOptions.ConfigPath == "" {
		return config.Parse(nil)
	}
	return config.Load(globalOptions.ConfigPath)
}

// applyFlags overlays the command line onto c.
func applyFlags(cmd *cobra.Command, c *config.Config, globalOptions *globalOptions, requestOptions *requestOptions, args []string) error {
	if len(args) > 0 {
		c.Target = args[0]
	}
	if globalOptions.LogLevel != "" {
		c.Logging.Level = globalOptions.LogLevel
	}
	if globalOptions.LogFormat != "" {
		c.Logging.Format = globalOptions.LogFormat
	}

	flags := cmd.Flags()
	if flags.Changed("method") {
		c.Method = requestOptions.Method
	}
	if flags.Changed("data") {
		c.Body = requestOptions.Data
	}
	if flags.Changed("timeout") {
		if requestOptions.Timeout <= 0 {
			return fmt.Errorf("invalid --timeout %v: must be positive", requestOptions.Timeout)
		}
		c.Timeout = requestOptions.Timeout
	}
	if len(requestOptions.Headers) > 0 && c.Headers == nil {
		c.Headers = make(map[string]string, len(requestOptions.Headers))
	}
	for _, h := range requestOptions.Headers {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return fmt.Errorf(`invalid --header %q: want "Name: value"`, h)
		}
		c.Headers[name] = strings.TrimSpace(value)
	}
	if len(requestOptions.Proxies) > 0 {
		c.Proxies = make([]config.ProxyConfig, len(requestOptions.Proxies))
		for i, raw := range requestOptions.Proxies {
			c.Proxies[i] = config.ProxyConfig{URL: raw}
		}
	}

	return nil
}

func newPlan(c *config.Config) (*plan, error) {
	if c.Target == "" {
		return nil, errNoTarget
	}
	opts, err := c.Options()
	if err != nil {
		return nil, err
	}
	ps, err := c.Paths()
	if err != nil {
		return nil, err
	}
	return &plan{
		target:   c.Target,
		opts:     opts,
		paths:    ps,
		policy:   c.TimeoutPolicy(),
		interval: c.Watch.Interval,
	}, nil
}
