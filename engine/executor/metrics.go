/*
Copyright 2025 Huawei Cloud Computing Technologies Co., Ltd.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

 http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package executor

import (
	"strconv"

	"github.com/openGemini/intervaljoin/lib/errno"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "opengemini"
	metricsSubsystem = "interval_join"
)

// JoinMetrics holds the prometheus collectors of the interval join.
type JoinMetrics struct {
	PairsEmitted   prometheus.Counter
	RelationTests  prometheus.Counter
	EndpointEvents *prometheus.CounterVec
	Faults         *prometheus.CounterVec
	ActiveTasks    prometheus.Gauge
	TuplesRouted   *prometheus.CounterVec
}

// NewJoinMetrics creates the collectors and registers them with reg.
func NewJoinMetrics(reg prometheus.Registerer) *JoinMetrics {
	m := &JoinMetrics{
		PairsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "pairs_emitted_total",
			Help:      "Total join pairs emitted",
		}),
		RelationTests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "relation_tests_total",
			Help:      "Total relation tests run while probing active sets",
		}),
		EndpointEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "endpoint_events_total",
			Help:      "Total endpoint events consumed by the sweep",
		}, []string{"kind"}),
		Faults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "faults_total",
			Help:      "Total join task faults by errno",
		}, []string{"errno"}),
		ActiveTasks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "active_tasks",
			Help:      "Join tasks holding sweep state",
		}),
		TuplesRouted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "tuples_routed_total",
			Help:      "Total tuple copies routed to partitions",
		}, []string{"side"}),
	}
	reg.MustRegister(m.PairsEmitted, m.RelationTests, m.EndpointEvents, m.Faults, m.ActiveTasks, m.TuplesRouted)
	return m
}

var (
	joinRegistry = prometheus.NewRegistry()
	joinMetrics  = NewJoinMetrics(joinRegistry)
)

// JoinMetricsRegistry returns the registry holding the join collectors.
func JoinMetricsRegistry() *prometheus.Registry {
	return joinRegistry
}

func DefaultJoinMetrics() *JoinMetrics {
	return joinMetrics
}

func observeSweep(delta sweepStats) {
	if delta.startEvents > 0 {
		joinMetrics.EndpointEvents.WithLabelValues(EndpointStart.String()).Add(float64(delta.startEvents))
	}
	if delta.endEvents > 0 {
		joinMetrics.EndpointEvents.WithLabelValues(EndpointEnd.String()).Add(float64(delta.endEvents))
	}
	joinMetrics.RelationTests.Add(float64(delta.tests))
	joinMetrics.PairsEmitted.Add(float64(delta.pairs))
}

func observeFault(err error) {
	code := "unknown"
	if e, ok := err.(*errno.Error); ok {
		code = strconv.Itoa(int(e.Errno()))
	}
	joinMetrics.Faults.WithLabelValues(code).Inc()
}

func observeRouted(side JoinSide, n int) {
	joinMetrics.TuplesRouted.WithLabelValues(side.String()).Add(float64(n))
}
