// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package metrics counts installs, cache traffic, server startups, and
// format requests on a private Prometheus registry.
//
// A nil *Metrics is valid and records nothing, so library callers that
// do not care about instrumentation pass nil.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeTimeout = "timeout"
)

// Cache lookup label values.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// Metrics holds the collectors. Create with New.
type Metrics struct {
	registry *prometheus.Registry

	installs              *prometheus.CounterVec
	installRetries        prometheus.Counter
	cacheLookups          *prometheus.CounterVec
	cacheStoreFailures    prometheus.Counter
	serverStartups        *prometheus.CounterVec
	serverStartupDuration prometheus.Histogram
	formatRequests        *prometheus.CounterVec
}

// New creates collectors registered on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		installs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nodefmt_installs_total",
				Help: "Number of npm install runs by network preference and outcome.",
			},
			[]string{"preference", "outcome"},
		),
		installRetries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "nodefmt_install_retries_total",
				Help: "Number of offline installs retried with --prefer-online.",
			},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nodefmt_cache_lookups_total",
				Help: "Number of install cache lookups by result.",
			},
			[]string{"result"},
		),
		cacheStoreFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "nodefmt_cache_store_failures_total",
				Help: "Number of install cache stores that failed and were skipped.",
			},
		),
		serverStartups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nodefmt_server_startups_total",
				Help: "Number of formatter server startups by outcome.",
			},
			[]string{"outcome"},
		),
		serverStartupDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "nodefmt_server_startup_duration_seconds",
				Help:    "Time from spawning the server to reading its port.",
				Buckets: prometheus.DefBuckets,
			},
		),
		formatRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nodefmt_format_requests_total",
				Help: "Number of format requests by tool and outcome.",
			},
			[]string{"tool", "outcome"},
		),
	}
	m.registry.MustRegister(
		m.installs,
		m.installRetries,
		m.cacheLookups,
		m.cacheStoreFailures,
		m.serverStartups,
		m.serverStartupDuration,
		m.formatRequests,
	)
	return m
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) InstallFinished(preference string, err error) {
	if m == nil {
		return
	}
	m.installs.WithLabelValues(preference, outcome(err)).Inc()
}

func (m *Metrics) InstallRetried() {
	if m == nil {
		return
	}
	m.installRetries.Inc()
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := CacheMiss
	if hit {
		result = CacheHit
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) CacheStoreFailed() {
	if m == nil {
		return
	}
	m.cacheStoreFailures.Inc()
}

// ServerStarted records a startup attempt. duration is observed only
// for successful startups.
func (m *Metrics) ServerStarted(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.serverStartups.WithLabelValues(result).Inc()
	if result == OutcomeSuccess {
		m.serverStartupDuration.Observe(duration.Seconds())
	}
}

func (m *Metrics) FormatRequest(tool string, err error) {
	if m == nil {
		return
	}
	m.formatRequests.WithLabelValues(tool, outcome(err)).Inc()
}

// WriteTextfile writes every metric to path in the text exposition
// format read by node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile %s: %w", path, err)
	}
	return nil
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
