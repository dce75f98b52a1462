// Package metrics exposes a container's Cgroups Manager stats as
// process-local Prometheus collectors. There is no HTTP server here (the
// runtime is not a daemon, per Non-goals): the registry this package
// builds is written out on demand, via `state --metrics`,
// using prometheus/client_golang's text exposition encoder.
package metrics

import (
	"bytes"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/expfmt"

	"runc-go/cgroups"
)

// Collector wraps one container's cgroup stats as a set of gauges,
// refreshed on each Gather call against the live cgroup rather than
// cached, since a CLI invocation only gathers once before exiting.
type Collector struct {
	containerID string
	manager     *cgroups.Manager

	memoryUsage *prometheus.Desc
	memoryLimit *prometheus.Desc
	cpuUsage    *prometheus.Desc
	pidsCurrent *prometheus.Desc
	pidsLimit   *prometheus.Desc
}

// NewCollector builds a Collector for the given container's resolved
// cgroup manager.
func NewCollector(containerID string, manager *cgroups.Manager) *Collector {
	labels := []string{"container_id"}
	return &Collector{
		containerID: containerID,
		manager:     manager,
		memoryUsage: prometheus.NewDesc("runc_go_memory_usage_bytes", "Current memory usage.", labels, nil),
		memoryLimit: prometheus.NewDesc("runc_go_memory_limit_bytes", "Memory limit.", labels, nil),
		cpuUsage:    prometheus.NewDesc("runc_go_cpu_usage_nanoseconds", "Cumulative CPU time consumed.", labels, nil),
		pidsCurrent: prometheus.NewDesc("runc_go_pids_current", "Current number of processes.", labels, nil),
		pidsLimit:   prometheus.NewDesc("runc_go_pids_limit", "Process count limit.", labels, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.memoryUsage
	ch <- c.memoryLimit
	ch <- c.cpuUsage
	ch <- c.pidsCurrent
	ch <- c.pidsLimit
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	stats, err := c.manager.Stats()
	if err != nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.memoryUsage, prometheus.GaugeValue, float64(stats.MemoryUsageBytes), c.containerID)
	ch <- prometheus.MustNewConstMetric(c.memoryLimit, prometheus.GaugeValue, float64(stats.MemoryLimitBytes), c.containerID)
	ch <- prometheus.MustNewConstMetric(c.cpuUsage, prometheus.CounterValue, float64(stats.CPUUsageNanos), c.containerID)
	ch <- prometheus.MustNewConstMetric(c.pidsCurrent, prometheus.GaugeValue, float64(stats.PidsCurrent), c.containerID)
	ch <- prometheus.MustNewConstMetric(c.pidsLimit, prometheus.GaugeValue, float64(stats.PidsLimit), c.containerID)
}

// RenderText gathers the container's metrics and renders them in
// Prometheus text exposition format, for `--metrics` output.
func RenderText(containerID string, manager *cgroups.Manager) (string, error) {
	registry := prometheus.NewRegistry()
	if err := registry.Register(NewCollector(containerID, manager)); err != nil {
		return "", fmt.Errorf("metrics: register collector: %w", err)
	}

	families, err := registry.Gather()
	if err != nil {
		return "", fmt.Errorf("metrics: gather: %w", err)
	}

	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, expfmt.FmtText)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return "", fmt.Errorf("metrics: encode: %w", err)
		}
	}
	return buf.String(), nil
}
