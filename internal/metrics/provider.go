// Copyright 2024 Google LLC
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

package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Provider bundles the OpenTelemetry meter provider and the Prometheus
// registry it feeds, so a single caller can build instruments and serve
// /metrics from the same pipeline.
type Provider struct {
	MeterProvider *sdkmetric.MeterProvider
}

// NewProvider wires an OpenTelemetry SDK MeterProvider to a Prometheus
// exporter and installs it as the global meter provider, so every
// otel.Meter(...) call made by this package and its callers reports through
// it.
func NewProvider() (*Provider, error) {
	exporter, err := otelprom.New()
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(mp)

	return &Provider{MeterProvider: mp}, nil
}

// Handler returns the http.Handler that serves the Prometheus scrape
// endpoint, typically mounted at /metrics alongside the HTTP front-end or on
// its own listener.
func (p *Provider) Handler() http.Handler {
	return promhttp.Handler()
}
