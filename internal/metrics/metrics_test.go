package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRecorderWritesTextfile(t *testing.T) {
	r := New()
	r.Video("sync")
	r.Video("sync")
	r.Subtitle(ResultPromoted, 3*time.Second)
	r.Subtitle(ResultFailed, 0)
	r.Mux("add", ResultMuxed, 2*time.Second)
	r.Finish("sync", 2, time.Unix(1700000000, 0))

	path := filepath.Join(t.TempDir(), "textfile", "sidecar.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		`sidecar_videos_total{command="sync"} 2`,
		`sidecar_subtitles_total{result="promoted"} 1`,
		`sidecar_subtitles_total{result="failed"} 1`,
		`sidecar_sync_duration_seconds_count 1`,
		`sidecar_mux_total{op="add",result="muxed"} 1`,
		`sidecar_run_exit_code{command="sync"} 2`,
		`sidecar_run_last_timestamp_seconds 1.7e+09`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in:\n%s", want, text)
		}
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	r.Video("sync")
	r.Subtitle(ResultSkipped, time.Second)
	r.Mux("prune", ResultFailed, 0)
	r.Finish("mux", 1, time.Now())
	if err := r.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")); err != nil {
		t.Fatalf("nil recorder should not write: %v", err)
	}
	if r.Registry() != nil {
		t.Fatal("nil recorder has no registry")
	}
}

func TestRecordersAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.Video("sync")
	families, err := b.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == "sidecar_videos_total" && len(mf.GetMetric()) > 0 {
			t.Fatal("recorders should not share state")
		}
	}
}
