// Copyright 2021 The proxyx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Command proxyx sends HTTP requests that fall back across an ordered
// list of proxies.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// globalOptions contains the flags shared by every subcommand.
type globalOptions struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
}

func newRootCommand() *cobra.Command {
	globalOptions := &globalOptions{}
	rootCmd := &cobra.Command{
		Use:          "proxyx",
		Short:        "HTTP requests with ordered proxy fallback",
		SilenceUsage: true,
	}
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&globalOptions.ConfigPath, "config", "c", "", "path to a YAML configuration file")
	flags.StringVar(&globalOptions.LogLevel, "log-level", "", "log level: debug, info, warn, or error")
	flags.StringVar(&globalOptions.LogFormat, "log-format", "", "log format: console or json")

	registerGet(rootCmd, globalOptions)
	registerWatch(rootCmd, globalOptions)
	return rootCmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
