// Copyright 2025 walteh LLC
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

package operation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contentsync_operations_total",
		Help: "Operator calls by operation and result kind.",
	}, []string{"op", "result"})

	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "contentsync_operation_duration_seconds",
		Help:    "Time spent in operator calls, lock wait included.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	busyGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "contentsync_operations_in_flight",
		Help: "Operator calls currently talking to the remote.",
	})

	mirrorHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "contentsync_mirror_hits_total",
		Help: "Reads served from the local mirror.",
	})

	mirrorMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "contentsync_mirror_misses_total",
		Help: "Reads that had to go to the remote.",
	})
)
