/*
Copyright 2021 GramLabs, Inc.

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

// Package metrics records client side request metrics for the dashboard API.
package metrics

import (
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

const (
	namespace = "optunactl"
	subsystem = "client"
)

// Registry holds the client metrics; it is separate from the default registry so dumps only
// include what this process recorded against the dashboard.
var Registry = prometheus.NewRegistry()

var (
	// RequestCount is a Prometheus counter metric which holds the total number of API requests
	// partitioned by response code and method
	RequestCount = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "requests_total",
		Help:      "Total number of requests made to the dashboard API.",
	}, []string{"code", "method"})

	// RequestDuration is a Prometheus histogram metric which holds the latency of API requests
	RequestDuration = promauto.With(Registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_duration_seconds",
		Help:      "Latency of requests made to the dashboard API.",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"method"})

	// InFlightRequests is a Prometheus gauge metric which holds the number of outstanding API requests
	InFlightRequests = promauto.With(Registry).NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "in_flight_requests",
		Help:      "Number of requests to the dashboard API currently in flight.",
	})
)

// InstrumentTransport returns a round tripper which records the client metrics for every request.
// A nil transport is replaced by the default transport.
func InstrumentTransport(transport http.RoundTripper) http.RoundTripper {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return promhttp.InstrumentRoundTripperInFlight(InFlightRequests,
		promhttp.InstrumentRoundTripperCounter(RequestCount,
			promhttp.InstrumentRoundTripperDuration(RequestDuration, transport)))
}

// WriteText writes the current client metrics using the Prometheus text exposition format.
func WriteText(w io.Writer) error {
	mfs, err := Registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
