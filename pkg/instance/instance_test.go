package instance

import "testing"

func TestGetIDPrefersWorkerID(t *testing.T) {
	t.Setenv("WORKER_ID", "cron-1")
	t.Setenv("HOSTNAME", "pod-abc")
	if got := GetID(); got != "cron-1" {
		t.Fatalf("expected cron-1 got %q", got)
	}
}

func TestGetIDFallsBackToHostname(t *testing.T) {
	t.Setenv("WORKER_ID", "")
	t.Setenv("HOSTNAME", "pod-abc")
	if got := GetID(); got != "pod-abc" {
		t.Fatalf("expected pod-abc got %q", got)
	}
}

func TestGetIDDefault(t *testing.T) {
	t.Setenv("WORKER_ID", "")
	t.Setenv("HOSTNAME", "")
	if got := GetID(); got != "local" {
		t.Fatalf("expected local got %q", got)
	}
}
