// Copyright 2025 go-highway Authors
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

package filter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric label values for the mode of a call.
const (
	modeBytes  = "bytes"
	modeBits   = "bits"
	modeDirect = "direct"
)

type metrics struct {
	calls    *prometheus.CounterVec
	elements *prometheus.CounterVec
	errors   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	return &metrics{
		calls: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "streamcompact",
			Subsystem: "filter",
			Name:      "calls_total",
			Help:      "Total number of compaction calls.",
		}, []string{"mode"}),
		elements: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "streamcompact",
			Subsystem: "filter",
			Name:      "elements_total",
			Help:      "Total number of elements read (in) and kept (out).",
		}, []string{"direction"}),
		errors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "streamcompact",
			Subsystem: "filter",
			Name:      "errors_total",
			Help:      "Total number of rejected compaction calls.",
		}, []string{"reason"}),
		duration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "streamcompact",
			Subsystem: "filter",
			Name:      "duration_seconds",
			Help:      "Time spent in a compaction call.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12),
		}, []string{"mode"}),
	}
}

func (m *metrics) observe(mode string, in, out int, seconds float64) {
	m.calls.WithLabelValues(mode).Inc()
	m.elements.WithLabelValues("in").Add(float64(in))
	m.elements.WithLabelValues("out").Add(float64(out))
	m.duration.WithLabelValues(mode).Observe(seconds)
}

func (m *metrics) failed(err error) {
	m.errors.WithLabelValues(errorReason(err)).Inc()
}
