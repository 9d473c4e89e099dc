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

package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jacobsa/daemonize"
	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseutil"
	"github.com/spf13/cobra"

	"github.com/ellabellla/servefs/internal/fusefs"
	"github.com/ellabellla/servefs/internal/logger"
	"github.com/ellabellla/servefs/internal/metrics"
)

// daemonizeMarkerEnv, when present, tells this process it is the
// re-exec'd child of a backgrounded `servefs mount`; it then reports
// success/failure back to the waiting parent via daemonize.SignalOutcome
// instead of mounting in the foreground directly.
const daemonizeMarkerEnv = "SERVEFS_DAEMONIZED"

var mountCmd = &cobra.Command{
	Use:   "mount MOUNTPOINT",
	Args:  cobra.ExactArgs(1),
	Short: "Mount the virtual filesystem read-only via FUSE.",
	RunE: func(cmd *cobra.Command, args []string) error {
		mountPoint := args[0]

		if !cfg.Fuse.Foreground && os.Getenv(daemonizeMarkerEnv) == "" {
			return daemonizeMount(mountPoint)
		}
		return runMount(cmd.Context(), mountPoint)
	},
}

// daemonizeMount re-execs the current binary with daemonizeMarkerEnv set,
// so the actual mount happens in a detached child, and blocks until that
// child reports success or failure.
func daemonizeMount(mountPoint string) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolving executable path: %w", err)
	}

	logFile := string(cfg.Logging.FilePath)
	if logFile == "" {
		logFile = os.DevNull
	}

	return daemonize.Daemonize(
		exe,
		os.Args[1:],
		append(os.Environ(), daemonizeMarkerEnv+"=1"),
		logFile,
	)
}

func runMount(ctx context.Context, mountPoint string) error {
	store, err := openStore(ctx)
	if err != nil {
		reportDaemonOutcome(err)
		return err
	}
	defer store.Close()

	var m metrics.MetricHandle = metrics.NewNoop()
	if cfg.Metrics.Enabled {
		m, err = metrics.New()
		if err != nil {
			reportDaemonOutcome(err)
			return err
		}
	}

	server := fusefs.New(store, m)

	mountCfg := &fuse.MountConfig{
		ReadOnly:   true,
		FSName:     "servefs",
		VolumeName: "servefs",
	}
	if cfg.Fuse.Debug {
		mountCfg.DebugLogger = log.New(os.Stderr, "fuse: ", log.LstdFlags)
	}

	mfs, err := fuse.Mount(mountPoint, fuseutil.NewFileSystemServer(server), mountCfg)
	if err != nil {
		reportDaemonOutcome(fmt.Errorf("mounting %s: %w", mountPoint, err))
		return err
	}

	reportDaemonOutcome(nil)
	logger.Infof("mounted servefs at %s", mountPoint)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		logger.Infof("unmounting %s", mountPoint)
		_ = fuse.Unmount(mountPoint)
	}()

	return mfs.Join(ctx)
}

// reportDaemonOutcome signals the parent daemonize.Daemonize call, if this
// process was re-exec'd as a daemon child; it is a no-op in the foreground
// case.
func reportDaemonOutcome(err error) {
	if os.Getenv(daemonizeMarkerEnv) == "" {
		return
	}
	if sigErr := daemonize.SignalOutcome(err); sigErr != nil {
		logger.Errorf("signaling daemonize outcome: %v", sigErr)
	}
}
