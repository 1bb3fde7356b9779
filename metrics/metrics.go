/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package metrics records resolution passes as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"bennypowers.dev/nativefed/model"
)

// Metrics holds the federation collectors. A nil *Metrics records nothing.
type Metrics struct {
	decisions     *prometheus.CounterVec
	remoteErrors  *prometheus.CounterVec
	passes        *prometheus.CounterVec
	passDuration  prometheus.Histogram
	sharedWinners prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nativefed_decisions_total",
				Help: "Number of shared dependency classifications by action.",
			},
			[]string{"action"},
		),
		remoteErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nativefed_remote_errors_total",
				Help: "Number of remotes excluded from a pass by remote name.",
			},
			[]string{"remote"},
		),
		passes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nativefed_passes_total",
				Help: "Number of initialization passes by outcome.",
			},
			[]string{"outcome"},
		),
		passDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "nativefed_pass_duration_seconds",
				Help:    "Time taken by an initialization pass.",
				Buckets: prometheus.DefBuckets,
			},
		),
		sharedWinners: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "nativefed_shared_externals",
				Help: "Number of shared externals in the import map after the last pass.",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.decisions, m.remoteErrors, m.passes, m.passDuration, m.sharedWinners)
	}
	return m
}

// ObserveDecision counts one classification.
func (m *Metrics) ObserveDecision(action model.Action) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(string(action)).Inc()
}

// ObserveRemoteError counts one excluded remote.
func (m *Metrics) ObserveRemoteError(remote string) {
	if m == nil {
		return
	}
	m.remoteErrors.WithLabelValues(remote).Inc()
}

// ObservePass records the outcome and duration of a pass and the number of
// shared imports it produced.
func (m *Metrics) ObservePass(start time.Time, err error, shared int) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.passes.WithLabelValues(outcome).Inc()
	m.passDuration.Observe(time.Since(start).Seconds())
	if err == nil {
		m.sharedWinners.Set(float64(shared))
	}
}

// WriteToTextfile writes everything g gathers to path in the text exposition
// format, for node_exporter's textfile collector.
func WriteToTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return model.WithAttrs(model.Errorf(model.ErrStorage, "failed to write metrics: %v", err), "path", path)
	}
	return nil
}
