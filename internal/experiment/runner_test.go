package experiment

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/linuxmatters/denoisebench/internal/audio"
	"github.com/linuxmatters/denoisebench/internal/processor"
)

// writeSpeechLike writes a WAV with a quiet noisy lead-in followed by a tone
func writeSpeechLike(t *testing.T, path string, toneHz float64) {
	t.Helper()

	const sampleRate = 8000
	samples := make([]float64, sampleRate/2)
	rng := uint32(2024)
	for i := range samples {
		rng = rng*1664525 + 1013904223
		noise := (float64(rng)/float64(0xFFFFFFFF)*2 - 1) * 0.001
		samples[i] = noise
		if i >= len(samples)/4 {
			samples[i] += 0.4 * math.Sin(2*math.Pi*toneHz*float64(i)/sampleRate)
		}
	}
	if err := audio.WriteWAV(path, processor.NewBuffer(samples, sampleRate), 16); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
}

// testConfig returns a config rooted in a temp dir with two fixtures
func testConfig(t *testing.T) (Config, []string) {
	t.Helper()
	root := t.TempDir()

	cfg := DefaultConfig()
	cfg.InputDir = filepath.Join(root, "in")
	cfg.OutputDir = filepath.Join(root, "out")
	cfg.TempDir = filepath.Join(root, "tmp")
	cfg.Workers = 2
	cfg.MainsHz = 50
	if err := os.MkdirAll(cfg.InputDir, 0o755); err != nil {
		t.Fatal(err)
	}

	files := []string{
		filepath.Join(cfg.InputDir, "a_voice.wav"),
		filepath.Join(cfg.InputDir, "b_voice.wav"),
	}
	writeSpeechLike(t, files[0], 220)
	writeSpeechLike(t, files[1], 330)
	return cfg, files
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse %s: %v", path, err)
	}
	return rows
}

func TestFindAudioFiles(t *testing.T) {
	cfg, files := testConfig(t)
	writeFile(t, cfg.InputDir, "notes.txt", "not audio")
	writeFile(t, cfg.InputDir, "c.ogg", "not supported")
	if err := os.Mkdir(filepath.Join(cfg.InputDir, "nested.wav"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := FindAudioFiles(cfg.InputDir)
	if err != nil {
		t.Fatalf("FindAudioFiles failed: %v", err)
	}
	if len(got) != len(files) || got[0] != files[0] || got[1] != files[1] {
		t.Errorf("FindAudioFiles = %v, want %v", got, files)
	}

	if _, err := FindAudioFiles(filepath.Join(cfg.InputDir, "missing")); err == nil {
		t.Error("expected an error for a missing directory")
	}
}

func TestRunner_Run(t *testing.T) {
	cfg, files := testConfig(t)
	cfg.MetricsFile = filepath.Join(cfg.OutputDir, "denoisebench.prom")

	// A corrupt file fails on its own without stopping the batch
	broken := writeFile(t, cfg.InputDir, "c_broken.wav", "RIFF garbage")
	files = append(files, broken)

	runner, err := NewRunner(cfg, nil)
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}

	var mu sync.Mutex
	stages := map[string][]Stage{}
	runner.OnProgress(func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		stages[filepath.Base(e.File)] = append(stages[filepath.Base(e.File)], e.Stage)
	})

	results, err := runner.Run(context.Background(), files)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	for i, r := range results[:2] {
		if !r.OK() {
			t.Fatalf("file %d failed: %v", i, r.Err)
		}
		if r.File != filepath.Base(files[i]) {
			t.Errorf("result %d is %q, want input order", i, r.File)
		}
		if r.RunID != runner.RunID() || r.Method != processor.MethodEnhancedMultiStage {
			t.Errorf("result %d run/method = %q/%q", i, r.RunID, r.Method)
		}
		want := filepath.Join(cfg.OutputDir, "processed_"+strings.TrimSuffix(r.File, ".wav")+".wav")
		if r.ProcessedPath != want {
			t.Errorf("ProcessedPath = %q, want %q", r.ProcessedPath, want)
		}
		if _, err := os.Stat(want); err != nil {
			t.Errorf("processed file missing: %v", err)
		}
		if r.OriginalHum.MainsHz != 50 {
			t.Errorf("hum measured at %v Hz, want 50", r.OriginalHum.MainsHz)
		}
		got := stages[r.File]
		if len(got) == 0 || got[len(got)-1] != StageComplete {
			t.Errorf("stages for %s = %v, want to end complete", r.File, got)
		}
	}

	if results[2].OK() {
		t.Error("corrupt file should fail")
	}
	if got := stages["c_broken.wav"]; got[len(got)-1] != StageFailed {
		t.Errorf("broken file stages = %v, want to end failed", got)
	}

	// CSV holds the two successful rows
	rows := readCSV(t, filepath.Join(cfg.OutputDir, ResultsCSVName(processor.MethodEnhancedMultiStage)))
	if len(rows) != 3 {
		t.Fatalf("CSV has %d rows, want header + 2", len(rows))
	}
	if rows[0][0] != "filename" || rows[1][0] != "a_voice.wav" {
		t.Errorf("unexpected CSV layout: %v", rows[:2])
	}

	m := runner.Metrics()
	if got := testutil.ToFloat64(m.files.WithLabelValues("enhanced_multi_stage", StatusFailed)); got != 1 {
		t.Errorf("failed files = %v, want 1", got)
	}
	ok := testutil.ToFloat64(m.files.WithLabelValues("enhanced_multi_stage", StatusCompliant)) +
		testutil.ToFloat64(m.files.WithLabelValues("enhanced_multi_stage", StatusNonCompliant))
	if ok != 2 {
		t.Errorf("analysed files = %v, want 2", ok)
	}
	if _, err := os.Stat(cfg.MetricsFile); err != nil {
		t.Errorf("metrics file not written: %v", err)
	}
}

func TestRunner_Compare(t *testing.T) {
	cfg, files := testConfig(t)
	cfg.Methods = []string{"standard", "multi_stage"}

	runner, err := NewRunner(cfg, nil)
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}

	summaries, results, err := runner.Compare(context.Background(), files)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("got %d summaries, want 2", len(summaries))
	}
	for _, s := range summaries {
		if s.Files != 2 || s.Failures != 0 {
			t.Errorf("%s: files=%d failures=%d, want 2/0", s.Method, s.Files, s.Failures)
		}
		if len(results[s.Method]) != 2 {
			t.Errorf("%s: %d results, want 2", s.Method, len(results[s.Method]))
		}
		for _, f := range files {
			name := s.Method.String() + "_" + strings.TrimSuffix(filepath.Base(f), ".wav") + ".wav"
			if _, err := os.Stat(filepath.Join(cfg.TempDir, name)); err != nil {
				t.Errorf("temp output missing: %v", err)
			}
		}
	}

	if _, ok := BestMethod(summaries); !ok {
		t.Error("BestMethod found no candidate")
	}

	rows := readCSV(t, filepath.Join(cfg.OutputDir, ComparisonCSVName))
	if len(rows) != 3 || rows[1][0] != "standard" || rows[2][0] != "multi_stage" {
		t.Errorf("comparison CSV = %v", rows)
	}
	if got := testutil.ToFloat64(runner.Metrics().compliance.WithLabelValues("standard")); got != summaries[0].ComplianceRate {
		t.Errorf("compliance gauge = %v, want %v", got, summaries[0].ComplianceRate)
	}
}

func TestRunner_Cancelled(t *testing.T) {
	cfg, files := testConfig(t)
	runner, err := NewRunner(cfg, nil)
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := runner.Run(ctx, files); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestRunner_HumFailureIsLogged(t *testing.T) {
	cfg, files := testConfig(t)
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	runner, err := NewRunner(cfg, log)
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	runner.mainsHz = 0

	out := filepath.Join(t.TempDir(), "processed.wav")
	res := runner.processFile(0, 1, files[0], processor.MethodStandard, out)
	if !res.OK() {
		t.Fatalf("file failed: %v", res.Err)
	}
	if res.OriginalHum.MainsHz != 0 || res.ProcessedHum.MainsHz != 0 {
		t.Errorf("hum should be left unmeasured: %+v, %+v", res.OriginalHum, res.ProcessedHum)
	}

	skipped := map[any]bool{}
	for _, e := range hook.AllEntries() {
		if e.Message != "Hum measurement skipped" {
			continue
		}
		if e.Level != logrus.DebugLevel || e.Data[logrus.ErrorKey] == nil {
			t.Errorf("entry = %v %v, want a debug entry carrying the error", e.Level, e.Data)
		}
		skipped[e.Data["audio"]] = true
	}
	if !skipped["original"] || !skipped["processed"] {
		t.Errorf("skipped hum entries = %v, want original and processed", skipped)
	}
}

func TestNewRunner_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SelectedMethod = "nope"
	if _, err := NewRunner(cfg, nil); !errors.Is(err, processor.ErrUnknownMethod) {
		t.Errorf("error = %v, want %v", err, processor.ErrUnknownMethod)
	}
}
