// Copyright 2021 The proxyx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/gogama/proxyx"
	"github.com/gogama/proxyx/logging"
	"github.com/gogama/proxyx/transport"
	"github.com/spf13/cobra"
)

func registerGet(rootCmd *cobra.Command, globalOptions *globalOptions) {
	requestOptions := &requestOptions{}
	var fail bool
	subCmd := &cobra.Command{
		Use:   "get [URL]",
		Short: "Sends one request and prints the response body",
		Long: "Sends one request, trying each proxy in order until one works, " +
			"and prints the response body to standard output.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd, args, globalOptions, requestOptions, fail)
		},
	}
	addRequestFlags(subCmd, requestOptions)
	subCmd.Flags().BoolVarP(&fail, "fail", "f", false, "exit non-zero on an HTTP status of 400 or more")
	rootCmd.AddCommand(subCmd)
}

func runGet(cmd *cobra.Command, args []string, globalOptions *globalOptions, requestOptions *requestOptions, fail bool) error {
	c, err := loadConfig(globalOptions)
	if err != nil {
		return err
	}
	if err = applyFlags(cmd, c, globalOptions, requestOptions, args); err != nil {
		return err
	}
	p, err := newPlan(c)
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

	handlers := &proxyx.HandlerGroup{}
	logging.NewHandler(logger).Install(handlers)
	requester := &proxyx.Requester{
		Transport:     transport.NewAdapter(&transport.HTTP{}),
		TimeoutPolicy: p.policy,
		Handlers:      handlers,
	}
	defer requester.CloseIdleConnections()

	e, err := requester.Do(cmd.Context(), p.target, p.opts, p.paths...)
	if err != nil {
		return fmt.Errorf("request failed after %d attempt(s): %w", e.Attempt+1, err)
	}

	if _, err = cmd.OutOrStdout().Write(e.Response.Body); err != nil {
		return err
	}
	if fail && e.StatusCode() >= 400 {
		return fmt.Errorf("server returned %s", e.Response.Status)
	}
	return nil
}
