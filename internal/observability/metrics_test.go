package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	RecordInstall("installed")
	RecordSetting("env", "user")
	RecordElevation("apply", "ok")
	ObserveOperation("apply", 40*time.Millisecond, true)

	families, err := Registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"bootctl_install_results_total",
		"bootctl_settings_applied_total",
		"bootctl_elevation_requests_total",
		"bootctl_operation_duration_seconds",
	} {
		if !names[want] {
			t.Fatalf("missing metric family %s in %v", want, names)
		}
	}
}

func TestWriteTextfile(t *testing.T) {
	RecordElevation("install", "denied")
	path := filepath.Join(t.TempDir(), "bootctl.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("write textfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `bootctl_elevation_requests_total{op="install",outcome="denied"}`) {
		t.Fatalf("missing elevation series:\n%s", out)
	}
	if !strings.Contains(out, "bootctl_last_run_timestamp_seconds") {
		t.Fatalf("missing last run gauge:\n%s", out)
	}
}
