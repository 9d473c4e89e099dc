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

// Package metrics defines OpenTelemetry counters and histograms for VFS and
// producer operations, exported over Prometheus.
package metrics

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// OpKey annotates the VFS or producer operation processed, e.g. "file.mk".
	OpKey = "op"

	// KindKey annotates a producer operation with the file kind evaluated.
	KindKey = "kind"
)

// MetricHandle is the interface every servefs component records
// instrumentation through. A no-op implementation is used when metrics are
// disabled so call sites never need to branch on whether they're on.
type MetricHandle interface {
	OpsCount(ctx context.Context, inc int64, op string)
	OpsLatency(ctx context.Context, latency time.Duration, op string)
	OpsErrorCount(ctx context.Context, inc int64, op string)

	ProducerEvalCount(ctx context.Context, inc int64, kind string)
	ProducerEvalLatency(ctx context.Context, latency time.Duration, kind string)
}

var (
	vfsMeter      = otel.Meter("servefs/vfs")
	producerMeter = otel.Meter("servefs/producer")

	opsAttributeSet      sync.Map
	producerAttributeSet sync.Map
)

func loadOrStoreAttributeOption(mp *sync.Map, key string, attrSetGenFunc func() attribute.Set) metric.MeasurementOption {
	attrSet, ok := mp.Load(key)
	if ok {
		return attrSet.(metric.MeasurementOption)
	}
	v, _ := mp.LoadOrStore(key, metric.WithAttributeSet(attrSetGenFunc()))
	return v.(metric.MeasurementOption)
}

func getOpsAttributeSet(op string) metric.MeasurementOption {
	return loadOrStoreAttributeOption(&opsAttributeSet, op, func() attribute.Set {
		return attribute.NewSet(attribute.String(OpKey, op))
	})
}

func getProducerAttributeSet(kind string) metric.MeasurementOption {
	return loadOrStoreAttributeOption(&producerAttributeSet, kind, func() attribute.Set {
		return attribute.NewSet(attribute.String(KindKey, kind))
	})
}

// otelMetrics is the live implementation of MetricHandle, backed by the
// global OpenTelemetry meter provider.
type otelMetrics struct {
	opsCount      metric.Int64Counter
	opsErrorCount metric.Int64Counter
	opsLatency    metric.Float64Histogram

	producerEvalCount   metric.Int64Counter
	producerEvalLatency metric.Float64Histogram
}

func (o *otelMetrics) OpsCount(ctx context.Context, inc int64, op string) {
	o.opsCount.Add(ctx, inc, getOpsAttributeSet(op))
}

func (o *otelMetrics) OpsLatency(ctx context.Context, latency time.Duration, op string) {
	o.opsLatency.Record(ctx, float64(latency.Microseconds()), getOpsAttributeSet(op))
}

func (o *otelMetrics) OpsErrorCount(ctx context.Context, inc int64, op string) {
	o.opsErrorCount.Add(ctx, inc, getOpsAttributeSet(op))
}

func (o *otelMetrics) ProducerEvalCount(ctx context.Context, inc int64, kind string) {
	o.producerEvalCount.Add(ctx, inc, getProducerAttributeSet(kind))
}

func (o *otelMetrics) ProducerEvalLatency(ctx context.Context, latency time.Duration, kind string) {
	o.producerEvalLatency.Record(ctx, float64(latency.Microseconds()), getProducerAttributeSet(kind))
}

// New builds the live OpenTelemetry-backed MetricHandle. The returned error
// joins every metric-instrument construction failure so callers see all of
// them at once rather than bailing on the first.
func New() (MetricHandle, error) {
	opsCount, err1 := vfsMeter.Int64Counter("vfs/ops_count", metric.WithDescription("Cumulative number of VFS operations processed."))
	opsErrorCount, err2 := vfsMeter.Int64Counter("vfs/ops_error_count", metric.WithDescription("Cumulative number of VFS operations that returned an error."))
	opsLatency, err3 := vfsMeter.Float64Histogram("vfs/ops_latency", metric.WithDescription("Distribution of VFS operation latencies."), metric.WithUnit("us"))

	producerEvalCount, err4 := producerMeter.Int64Counter("producer/eval_count", metric.WithDescription("Cumulative number of producer evaluations, by file kind."))
	producerEvalLatency, err5 := producerMeter.Float64Histogram("producer/eval_latency", metric.WithDescription("Distribution of producer evaluation latencies, by file kind."), metric.WithUnit("us"))

	if err := errors.Join(err1, err2, err3, err4, err5); err != nil {
		return nil, err
	}

	return &otelMetrics{
		opsCount:            opsCount,
		opsErrorCount:       opsErrorCount,
		opsLatency:          opsLatency,
		producerEvalCount:   producerEvalCount,
		producerEvalLatency: producerEvalLatency,
	}, nil
}

// NewNoop returns a MetricHandle whose methods are all no-ops, used when
// metrics collection is disabled in configuration.
func NewNoop() MetricHandle {
	return noopMetrics{}
}

type noopMetrics struct{}

func (noopMetrics) OpsCount(context.Context, int64, string)               {}
func (noopMetrics) OpsLatency(context.Context, time.Duration, string)     {}
func (noopMetrics) OpsErrorCount(context.Context, int64, string)          {}
func (noopMetrics) ProducerEvalCount(context.Context, int64, string)      {}
func (noopMetrics) ProducerEvalLatency(context.Context, time.Duration, string) {}

// Timed records the latency and error-count of an operation invoked inline.
// It is a convenience wrapper used by the FUSE adapter and HTTP handler
// call sites: defer metrics.Timed(m, ctx, "http.get", &err)().
func Timed(m MetricHandle, ctx context.Context, op string, errp *error) func() {
	start := time.Now()
	return func() {
		m.OpsLatency(ctx, time.Since(start), op)
		m.OpsCount(ctx, 1, op)
		if errp != nil && *errp != nil {
			m.OpsErrorCount(ctx, 1, op)
		}
	}
}
