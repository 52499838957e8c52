// Copyright 2026 The Phaser Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package observability

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

const defaultMaxSamples = 1000

// MetricConfig configures a MetricsCollector.
type MetricConfig struct {
	// Enabled turns collection on. A disabled collector drops all samples.
	Enabled bool
	// MaxSamples caps the number of retained histogram samples per series.
	MaxSamples int
}

// MetricsCollector accumulates counters, gauges and histogram samples
// in memory. It is safe for concurrent use.
type MetricsCollector struct {
	mu         sync.RWMutex
	enabled    bool
	maxSamples int
	counters   map[string]float64
	gauges     map[string]float64
	histograms map[string][]float64
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector(config MetricConfig) *MetricsCollector {
	max := config.MaxSamples
	if max <= 0 {
		max = defaultMaxSamples
	}
	return &MetricsCollector{
		enabled:    config.Enabled,
		maxSamples: max,
		counters:   make(map[string]float64),
		gauges:     make(map[string]float64),
		histograms: make(map[string][]float64),
	}
}

// Counter adds value to the named counter series.
func (m *MetricsCollector) Counter(name string, value float64, labels map[string]string) {
	if !m.enabled {
		return
	}
	key := seriesKey(name, labels)
	m.mu.Lock()
	m.counters[key] += value
	m.mu.Unlock()
}

// CounterGet returns the value of the named counter summed across all
// label sets, or def when no series exists.
func (m *MetricsCollector) CounterGet(name string, def float64) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sum := 0.0
	found := false
	for key, val := range m.counters {
		if key == name || strings.HasPrefix(key, name+".") {
			sum += val
			found = true
		}
	}
	if !found {
		return def
	}
	return sum
}

// Gauge sets the named gauge series to value.
func (m *MetricsCollector) Gauge(name string, value float64, labels map[string]string) {
	if !m.enabled {
		return
	}
	key := seriesKey(name, labels)
	m.mu.Lock()
	m.gauges[key] = value
	m.mu.Unlock()
}

// Histogram appends a sample to the named histogram series. Only the
// most recent MaxSamples samples are retained.
func (m *MetricsCollector) Histogram(name string, value float64, labels map[string]string) {
	if !m.enabled {
		return
	}
	key := seriesKey(name, labels)
	m.mu.Lock()
	samples := append(m.histograms[key], value)
	if len(samples) > m.maxSamples {
		samples = samples[len(samples)-m.maxSamples:]
	}
	m.histograms[key] = samples
	m.mu.Unlock()
}

// Timing records one call and its duration for the named operation,
// as a "<name>.calls" counter plus a "<name>.duration_ms" histogram.
func (m *MetricsCollector) Timing(name string, duration time.Duration, labels map[string]string) {
	m.Counter(name+".calls", 1, labels)
	m.Histogram(name+".duration_ms", float64(duration.Milliseconds()), labels)
}

// GetAverageDuration returns the mean duration recorded via Timing for
// the named operation across all label sets, or zero when none exist.
func (m *MetricsCollector) GetAverageDuration(name string) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	prefix := name + ".duration_ms"
	var sum float64
	var count int
	for key, samples := range m.histograms {
		if key != prefix && !strings.HasPrefix(key, prefix+".") {
			continue
		}
		for _, s := range samples {
			sum += s
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return time.Duration(sum/float64(count)) * time.Millisecond
}

// GetCacheHitRate returns the fraction of cache requests that were
// hits, or zero when no requests were recorded.
func (m *MetricsCollector) GetCacheHitRate() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hits := m.counters["cache_requests_total.result:hit"]
	misses := m.counters["cache_requests_total.result:miss"]
	total := hits + misses
	if total == 0 {
		return 0
	}
	return hits / total
}

// GetSnapshot returns a copy of all series, keyed as
// "<kind>.<name>.<label:value>...".
func (m *MetricsCollector) GetSnapshot() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := make(map[string]any, len(m.counters)+len(m.gauges)+len(m.histograms))
	for key, val := range m.counters {
		snapshot["counter."+key] = val
	}
	for key, val := range m.gauges {
		snapshot["gauge."+key] = val
	}
	for key, samples := range m.histograms {
		copied := make([]float64, len(samples))
		copy(copied, samples)
		snapshot["histogram."+key] = copied
	}
	return snapshot
}

// Reset discards all recorded series.
func (m *MetricsCollector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters = make(map[string]float64)
	m.gauges = make(map[string]float64)
	m.histograms = make(map[string][]float64)
}

// RecordRun records a completed pipeline run.
func (m *MetricsCollector) RecordRun(success bool, duration time.Duration) {
	m.Counter("runs_total", 1, map[string]string{"status": statusLabel(success)})
	m.Histogram("run_duration_ms", float64(duration.Milliseconds()), nil)
}

// RecordStep records a completed step.
func (m *MetricsCollector) RecordStep(job string, success bool, duration time.Duration) {
	m.Counter("steps_total", 1, map[string]string{"job": job, "status": statusLabel(success)})
	m.Histogram("step_duration_ms", float64(duration.Milliseconds()), map[string]string{"job": job})
}

// RecordCacheHit records a step cache hit or miss.
func (m *MetricsCollector) RecordCacheHit(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.Counter("cache_requests_total", 1, map[string]string{"result": result})
}

// RecordWebhook records a webhook delivery outcome.
func (m *MetricsCollector) RecordWebhook(accepted bool) {
	status := "ignored"
	if accepted {
		status = "accepted"
	}
	m.Counter("webhook_deliveries_total", 1, map[string]string{"status": status})
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

func seriesKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	for _, k := range keys {
		fmt.Fprintf(&b, ".%s:%s", k, labels[k])
	}
	return b.String()
}
