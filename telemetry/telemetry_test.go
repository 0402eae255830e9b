package telemetry

import (
	"context"
	"errors"
	"testing"
)

func TestHostSourceSnapshot(t *testing.T) {
	src := NewHostSource()
	src.SampleWindow = 0

	snap, err := src.Snapshot(context.Background())
	if err != nil {
		t.Skipf("host telemetry unavailable: %v", err)
	}
	if snap.CPUCount <= 0 {
		t.Errorf("expected positive cpu count, got %d", snap.CPUCount)
	}
	if snap.MemoryTotal == 0 {
		t.Error("expected non-zero memory total")
	}
	if snap.CollectedAt == "" {
		t.Error("expected collection timestamp")
	}
}

func TestStatic(t *testing.T) {
	src := &Static{Value: Snapshot{Hostname: "box", CPUPercent: 12.5}}
	snap, err := src.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap.Hostname = "changed"

	again, _ := src.Snapshot(context.Background())
	if again.Hostname != "box" {
		t.Error("Static should hand out copies")
	}

	failing := &Static{Err: errors.New("boom")}
	if _, err := failing.Snapshot(context.Background()); err == nil {
		t.Error("expected error")
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{12.344, 12.34},
		{0, 0},
		{99.996, 100},
	}
	for _, tt := range tests {
		if got := round2(tt.in); got != tt.want {
			t.Errorf("round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
