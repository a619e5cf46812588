package experiment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/linuxmatters/denoisebench/internal/audio"
	"github.com/linuxmatters/denoisebench/internal/processor"
)

// Stage is a step of per-file processing
type Stage int

// Processing stages reported through ProgressFunc
const (
	StageQueued Stage = iota
	StageDecoding
	StageDenoising
	StageEvaluating
	StageComplete
	StageFailed
)

// String returns a short label for the stage
func (s Stage) String() string {
	switch s {
	case StageQueued:
		return "queued"
	case StageDecoding:
		return "decoding"
	case StageDenoising:
		return "denoising"
	case StageEvaluating:
		return "evaluating"
	case StageComplete:
		return "complete"
	case StageFailed:
		return "failed"
	}
	return "unknown"
}

// Event reports a stage change for one file
type Event struct {
	Index  int // Position of the file in the batch
	Total  int // Files in the batch
	File   string
	Method processor.Method
	Stage  Stage
	Result *PairResult // Set for StageComplete and StageFailed
}

// ProgressFunc receives events from worker goroutines and must be safe for
// concurrent use.
type ProgressFunc func(Event)

// Runner processes batches of files with a fixed experiment configuration.
type Runner struct {
	cfg       Config
	procCfg   processor.Config
	evaluator processor.Evaluator
	mainsHz   float64

	log      *logrus.Logger
	metrics  *Metrics
	runID    string
	progress ProgressFunc
}

// NewRunner validates cfg and prepares a runner. log may be nil.
func NewRunner(cfg Config, log *logrus.Logger) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid experiment config: %w", err)
	}
	if log == nil {
		log, _, _ = NewLogger("")
	}

	return &Runner{
		cfg:       cfg,
		procCfg:   cfg.ProcessorConfig(),
		evaluator: cfg.Evaluator(),
		mainsHz:   cfg.ResolvedMainsHz(),
		log:       log,
		metrics:   NewMetrics(),
		runID:     uuid.New().String(),
	}, nil
}

// OnProgress installs a progress callback
func (r *Runner) OnProgress(fn ProgressFunc) {
	r.progress = fn
}

// RunID identifies this runner's results, CSV rows and reports
func (r *Runner) RunID() string {
	return r.runID
}

// Metrics returns the runner's Prometheus collectors
func (r *Runner) Metrics() *Metrics {
	return r.metrics
}

// MainsHz is the mains frequency used for hum measurements
func (r *Runner) MainsHz() float64 {
	return r.mainsHz
}

// Run applies the selected method to every file, writing processed_<name>.wav
// into the output directory, and saves the per-file results CSV. Per-file
// failures are recorded in the results; only cancellation or an unwritable
// output directory stops the batch.
func (r *Runner) Run(ctx context.Context, files []string) ([]PairResult, error) {
	method, err := r.cfg.Method()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	results, err := r.batch(ctx, files, method, func(file string) string {
		return filepath.Join(r.cfg.OutputDir, "processed_"+stem(file)+".wav")
	})
	if err != nil {
		return results, err
	}

	path, err := WriteResultsCSV(r.cfg.OutputDir, method, results)
	if err != nil {
		return results, err
	}
	r.log.WithFields(logrus.Fields{"run_id": r.runID, "path": path}).Info("Results written")

	return results, r.writeMetrics()
}

// Compare runs every configured method over files, writing processed audio
// into the temp directory, and saves the comparison CSV. Results are keyed
// by method.
func (r *Runner) Compare(ctx context.Context, files []string) ([]MethodSummary, map[processor.Method][]PairResult, error) {
	methods, err := r.cfg.ParsedMethods()
	if err != nil {
		return nil, nil, err
	}
	for _, dir := range []string{r.cfg.OutputDir, r.cfg.TempDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	summaries := make([]MethodSummary, 0, len(methods))
	all := make(map[processor.Method][]PairResult, len(methods))
	for _, method := range methods {
		results, err := r.batch(ctx, files, method, func(file string) string {
			return filepath.Join(r.cfg.TempDir, method.String()+"_"+stem(file)+".wav")
		})
		if err != nil {
			return summaries, all, err
		}

		s := Summarise(method, results, r.procCfg.TargetSNR)
		r.metrics.ObserveSummary(s)
		summaries = append(summaries, s)
		all[method] = results

		r.log.WithFields(logrus.Fields{
			"run_id":          r.runID,
			"method":          method,
			"files":           s.Files,
			"failures":        s.Failures,
			"avg_snr_db":      s.AvgSNRImprovement,
			"compliance_rate": s.ComplianceRate,
		}).Info("Method complete")
	}

	path, err := WriteComparisonCSV(r.cfg.OutputDir, summaries)
	if err != nil {
		return summaries, all, err
	}
	r.log.WithFields(logrus.Fields{"run_id": r.runID, "path": path}).Info("Comparison written")

	return summaries, all, r.writeMetrics()
}

// batch processes files concurrently and returns results in input order
func (r *Runner) batch(ctx context.Context, files []string, method processor.Method, outputFor func(string) string) ([]PairResult, error) {
	results := make([]PairResult, len(files))
	for i, f := range files {
		r.emit(Event{Index: i, Total: len(files), File: f, Method: method, Stage: StageQueued})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.processFile(i, len(files), file, method, outputFor(file))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}

// processFile decodes, denoises, writes and analyses one file. Errors are
// captured in the result.
func (r *Runner) processFile(index, total int, file string, method processor.Method, outPath string) PairResult {
	log := r.log.WithFields(logrus.Fields{
		"run_id": r.runID,
		"method": method,
		"file":   filepath.Base(file),
	})
	emit := func(stage Stage, res *PairResult) {
		r.emit(Event{Index: index, Total: total, File: file, Method: method, Stage: stage, Result: res})
	}
	fail := func(res PairResult, err error) PairResult {
		res.Err = err
		log.WithError(err).Error("File failed")
		r.metrics.ObserveFile(res)
		emit(StageFailed, &res)
		return res
	}

	res := PairResult{File: filepath.Base(file), Path: file, Method: method, RunID: r.runID}

	emit(StageDecoding, nil)
	start := time.Now()
	original, meta, err := audio.OpenAudioFile(file)
	res.DecodeTime = time.Since(start)
	if err != nil {
		return fail(res, err)
	}
	log.WithFields(logrus.Fields{
		"sample_rate": meta.SampleRate,
		"channels":    meta.Channels,
		"duration":    meta.Duration,
	}).Debug("Decoded")

	emit(StageDenoising, nil)
	start = time.Now()
	denoised, err := processor.Denoise(original, method, r.procCfg)
	if err == nil {
		err = audio.WriteWAV(outPath, denoised, r.cfg.BitDepth)
	}
	res.DenoiseTime = time.Since(start)
	if err != nil {
		return fail(res, err)
	}

	// Score the encoded file, not the in-memory buffer, so quantisation is
	// part of the measurement
	emit(StageEvaluating, nil)
	start = time.Now()
	processed, _, err := audio.OpenAudioFile(outPath)
	if err != nil {
		return fail(res, fmt.Errorf("failed to re-read processed audio: %w", err))
	}
	analysed, err := AnalyzePair(file, original, processed, r.evaluator)
	if err != nil {
		return fail(res, err)
	}
	analysed.Method, analysed.RunID = method, r.runID
	analysed.ProcessedPath = outPath
	analysed.DecodeTime, analysed.DenoiseTime = res.DecodeTime, res.DenoiseTime

	// A zero HumMeasurement means not measured; the pair result still stands
	measureHum := func(which string, buf processor.Buffer) processor.HumMeasurement {
		hum, err := processor.MeasureHum(buf, r.mainsHz, r.procCfg)
		if err != nil {
			log.WithError(err).WithField("audio", which).Debug("Hum measurement skipped")
		}
		return hum
	}
	analysed.OriginalHum = measureHum("original", original)
	analysed.ProcessedHum = measureHum("processed", processed)
	analysed.EvaluateTime = time.Since(start)

	log.WithFields(logrus.Fields{
		"snr_change_db": analysed.SNRImprovement,
		"compliant":     analysed.ProcessedCompliant,
		"elapsed":       analysed.TotalTime().Round(time.Millisecond),
	}).Info("File complete")

	r.metrics.ObserveFile(analysed)
	emit(StageComplete, &analysed)
	return analysed
}

func (r *Runner) emit(e Event) {
	if r.progress != nil {
		r.progress(e)
	}
}

func (r *Runner) writeMetrics() error {
	if r.cfg.MetricsFile == "" {
		return nil
	}
	return r.metrics.WriteFile(r.cfg.MetricsFile)
}

// stem returns the file name without directory or extension
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
