package workflow

import (
	"context"
	"testing"

	"sidecar/internal/config"
	"sidecar/internal/language"
	"sidecar/internal/ledger"
	"sidecar/internal/library"
	"sidecar/internal/logging"
	"sidecar/internal/mux"
	"sidecar/internal/procexec"
	"sidecar/internal/testsupport"
)

func (f *pipelineFixture) muxPipeline(op string) *MuxPipeline {
	cfg := f.cfg
	keep, _ := cfg.KeepTags()
	muxer := mux.NewMuxer(cfg.Mux.Binary, &procexec.ExecRunner{}, logging.NewNop())
	muxer.OutputSuffix = cfg.Mux.OutputSuffix
	return &MuxPipeline{
		Env: f.env(),
		Op:  op,
		Walker: library.Walker{
			Extensions:       cfg.Library.VideoExtensions,
			SkipStemSuffixes: []string{cfg.Mux.OutputSuffix},
		},
		SubtitleExtensions: cfg.Library.SubtitleExtensions,
		DuplicatePolicy:    cfg.Library.DuplicatePolicy,
		Keep:               keep,
		FailurePolicy:      cfg.Sync.FailurePolicy,
		Muxer:              muxer,
	}
}

func TestMuxPipelineAddTracks(t *testing.T) {
	f := newFixture(t, map[string]string{
		"show.mkv":     "video",
		"show.eng.srt": "ENG",
		"bare.mkv":     "video",
	}, testsupport.WithStubMkvmerge())

	p := f.muxPipeline(mux.OpAddTracks)
	summary, err := p.Run(context.Background(), []string{f.dir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Videos != 2 || summary.Muxed != 1 || summary.Skipped != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	testsupport.AssertContent(t, f.path("show.MUX.mkv"), "mkv")
	testsupport.AssertMissing(t, f.path("bare.MUX.mkv"))
	testsupport.AssertContent(t, f.path("show.mkv"), "video")

	entries, err := f.store.Entries(context.Background(), ledger.Filter{RunID: "run-1"})
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 1 || entries[0].Kind != ledger.KindMuxAdd || entries[0].Language != "eng" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestMuxPipelineIgnoresEarlierOutputs(t *testing.T) {
	f := newFixture(t, map[string]string{
		"show.mkv":     "video",
		"show.MUX.mkv": "old",
	}, testsupport.WithStubMkvmerge())

	p := f.muxPipeline(mux.OpPruneTracks)
	summary, err := p.Run(context.Background(), []string{f.dir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Videos != 1 || summary.Muxed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	testsupport.AssertContent(t, f.path("show.MUX.mkv"), "mkv")
}

func TestMuxPipelinePruneRequiresKeepList(t *testing.T) {
	f := newFixture(t, map[string]string{"show.mkv": "video"}, testsupport.WithStubMkvmerge())

	p := f.muxPipeline(mux.OpPruneTracks)
	p.Keep = nil
	summary, err := p.Run(context.Background(), []string{f.dir})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if summary.ExitCode() != 1 {
		t.Fatalf("exit code = %d, want 1", summary.ExitCode())
	}
	testsupport.AssertMissing(t, f.path("show.MUX.mkv"))
}

func TestMuxPipelineFailureLeavesNoOutput(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a.mkv": "video",
		"b.mkv": "video",
	}, testsupport.WithFailurePolicy(FailureContinue), testsupport.WithBinaryScript("mkvmerge", testsupport.FailingScript(2, "broken"), func(cfg *config.Config, path string) {
		cfg.Mux.Binary = path
	}))

	p := f.muxPipeline(mux.OpPruneTracks)
	p.Keep = []language.Tag{language.MustTag("eng")}
	summary, err := p.Run(context.Background(), []string{f.dir})
	if !mux.IsMuxError(err) {
		t.Fatalf("expected MuxError, got %v", err)
	}
	if summary.Videos != 2 || len(summary.Failures) != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.ExitCode() != 2 {
		t.Fatalf("exit code = %d, want 2", summary.ExitCode())
	}
	testsupport.AssertMissing(t, f.path("a.MUX.mkv"))
	testsupport.AssertMissing(t, f.path(".mux-a.MUX.mkv"))
}

func TestMuxPipelineRejectsUnknownOperation(t *testing.T) {
	f := newFixture(t, map[string]string{"show.mkv": "video"})

	p := f.muxPipeline("shuffle")
	if _, err := p.Run(context.Background(), []string{f.dir}); err == nil {
		t.Fatal("expected error for unknown operation")
	}
}
