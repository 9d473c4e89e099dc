// Copyright 2024 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cmd wires spec.md §6's file/dir verb tree, plus the mount and
// serve front ends, onto the VFS core via cobra and viper.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ellabellla/servefs/internal/config"
	"github.com/ellabellla/servefs/internal/logger"
	"github.com/ellabellla/servefs/internal/vfs"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:           "servefs",
	Short:         "A relational-database-backed virtual filesystem.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := viper.Unmarshal(&cfg, viper.DecodeHook(config.DecodeHook())); err != nil {
			return fmt.Errorf("parsing configuration: %w", err)
		}
		if cfg.Database.Path == "" {
			def, err := config.DefaultDatabasePath()
			if err != nil {
				return fmt.Errorf("resolving default database path: %w", err)
			}
			cfg.Database.Path = config.ResolvedPath(def)
		}
		if cfg.Database.TablePrefix == "" {
			cfg.Database.TablePrefix = config.DefaultTablePrefix
		}

		logger.SetLogFormat(cfg.Logging.Format)
		if err := logger.InitLogFile(cfg.Logging); err != nil {
			return fmt.Errorf("initializing log file: %w", err)
		}
		return nil
	},
}

func init() {
	if err := config.BindFlags(rootCmd.PersistentFlags()); err != nil {
		panic(fmt.Sprintf("binding flags: %v", err))
	}
	rootCmd.AddCommand(fileCmd, dirCmd, mountCmd, serveCmd)
}

// Execute runs the root command, exiting 1 on any returned error per
// spec.md §6.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "servefs:", err)
		os.Exit(1)
	}
}

// openStore opens the configured database, creating it (and its schema) on
// first use.
func openStore(ctx context.Context) (*vfs.Store, error) {
	return vfs.Open(ctx, string(cfg.Database.Path), cfg.Database.TablePrefix, true)
}
