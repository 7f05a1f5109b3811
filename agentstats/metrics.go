/*
Copyright (c) Facebook, Inc. and its affiliates.

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

// Package agentstats exports port agent internals as Prometheus
// metrics on a monitoring port, the way ptp/sptp/stats exports sptp
// counters and ptp4u/stats exports subscription gauges.
package agentstats

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	log "github.com/sirupsen/logrus"

	"github.com/tapanagupta/port-agent/publisher"
)

var _ publisher.Metrics = (*Metrics)(nil)

// Metrics owns the registry backing one port agent's monitoring port.
type Metrics struct {
	registry *prometheus.Registry

	stateTransitions *prometheus.CounterVec
	state            *prometheus.GaugeVec
	publisherBytes   *prometheus.CounterVec
	publisherErrors  *prometheus.CounterVec
}

// New creates a Metrics with its own registry, so that two port agent
// instances in the same process never collide on metric names.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		stateTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "portagent_state_transitions_total",
			Help: "Number of port agent state machine transitions.",
		}, []string{"from", "to"}),
		state: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "portagent_state",
			Help: "Port agent state machine, one gauge per state name: 1 for the current state, 0 for a state that was left.",
		}, []string{"name"}),
		publisherBytes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "portagent_publisher_bytes_total",
			Help: "Bytes written to a publisher, labeled by publisher kind.",
		}, []string{"kind"}),
		publisherErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "portagent_publisher_errors_total",
			Help: "Publish attempts that failed, labeled by publisher kind.",
		}, []string{"kind"}),
	}
}

// IncStateTransition records a state machine transition from one
// named state to another.
func (m *Metrics) IncStateTransition(from, to string) {
	m.stateTransitions.WithLabelValues(from, to).Inc()
	m.state.WithLabelValues(from).Set(0)
	m.state.WithLabelValues(to).Set(1)
}

// IncPublishBytes implements publisher.Metrics.
func (m *Metrics) IncPublishBytes(kind publisher.Kind, n int) {
	m.publisherBytes.WithLabelValues(kind.String()).Add(float64(n))
}

// IncPublishError implements publisher.Metrics.
func (m *Metrics) IncPublishError(kind publisher.Kind) {
	m.publisherErrors.WithLabelValues(kind.String()).Inc()
}

// StateTransitionCount reports how many times the from/to transition
// has been recorded, for tests outside this package that need to
// assert on transition counts without reaching into unexported fields.
func (m *Metrics) StateTransitionCount(from, to string) float64 {
	return testutil.ToFloat64(m.stateTransitions.WithLabelValues(from, to))
}

// Start serves /metrics on listenPort until the process exits, the
// way ptp/sptp/stats.PrometheusExporter.Start does.
func (m *Metrics) Start(listenPort int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true}))
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%d", listenPort), mux))
}
