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
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/ellabellla/servefs/internal/logger"
	"github.com/ellabellla/servefs/internal/metrics"
	"github.com/ellabellla/servefs/internal/servehttp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the virtual filesystem read-only over HTTP.",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		var m metrics.MetricHandle = metrics.NewNoop()
		var metricsProvider *metrics.Provider
		if cfg.Metrics.Enabled {
			metricsProvider, err = metrics.NewProvider()
			if err != nil {
				return fmt.Errorf("starting metrics provider: %w", err)
			}
			m, err = metrics.New()
			if err != nil {
				return fmt.Errorf("registering metrics: %w", err)
			}
		}

		handler, err := servehttp.New(store, m, string(cfg.Http.Template))
		if err != nil {
			return fmt.Errorf("loading index template: %w", err)
		}

		r := chi.NewRouter()
		handler.Routes(r)

		addr := cfg.Http.Address
		if addr == "" {
			addr = ":8080"
		}

		if metricsProvider != nil && cfg.Metrics.PrometheusPort != 0 {
			metricsAddr := fmt.Sprintf(":%d", cfg.Metrics.PrometheusPort)
			go func() {
				logger.Infof("serving metrics on %s/metrics", metricsAddr)
				if err := http.ListenAndServe(metricsAddr, metricsProvider.Handler()); err != nil {
					logger.Errorf("metrics server: %v", err)
				}
			}()
		}

		logger.Infof("serving servefs on %s", addr)
		return http.ListenAndServe(addr, r)
	},
}
