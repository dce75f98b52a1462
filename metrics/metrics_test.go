package metrics

import (
	"os"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"runc-go/cgroups"
	"runc-go/spec"
)

func newTestManager(t *testing.T) *cgroups.Manager {
	t.Helper()
	if os.Getuid() != 0 {
		t.Skip("requires root to create a cgroup backend")
	}
	m, err := cgroups.New(spec.CgroupBackendV1, "metrics-test", "", false)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestRenderTextIncludesExpectedMetrics(t *testing.T) {
	m := newTestManager(t)
	text, err := RenderText("container-123", m)
	if err != nil {
		t.Fatalf("RenderText: %v", err)
	}
	for _, want := range []string{
		"runc_go_memory_usage_bytes",
		"runc_go_memory_limit_bytes",
		"runc_go_cpu_usage_nanoseconds",
		"runc_go_pids_current",
		"runc_go_pids_limit",
		`container_id="container-123"`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestNewCollectorDescribe(t *testing.T) {
	m := newTestManager(t)
	c := NewCollector("container-abc", m)

	ch := make(chan *prometheus.Desc, 16)
	c.Describe(ch)
	close(ch)

	var count int
	for range ch {
		count++
	}
	if count != 5 {
		t.Errorf("got %d descriptors, want 5", count)
	}
}
