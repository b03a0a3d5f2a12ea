// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/relabs-tech/walking_detector/internal/config"
)

// DefaultConfigFile is read when --config is not given.
const DefaultConfigFile = "walking_config.txt"

// NewCommand wraps a runner in a cobra command that loads the configuration,
// sets up logging and cancels the context on SIGINT or SIGTERM.
func NewCommand(use, short string, run func(context.Context) error) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.InitGlobal(configPath); err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			closeLog := SetupLogging(config.Get())
			defer closeLog()

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			log.Printf("%s: using config %s", use, configPath)
			return run(ctx)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", DefaultConfigFile, "path to the KEY=VALUE config file")
	return cmd
}
