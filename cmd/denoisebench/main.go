package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/linuxmatters/denoisebench/internal/audio"
	"github.com/linuxmatters/denoisebench/internal/cli"
	"github.com/linuxmatters/denoisebench/internal/experiment"
	"github.com/linuxmatters/denoisebench/internal/logging"
	"github.com/linuxmatters/denoisebench/internal/mains"
	"github.com/linuxmatters/denoisebench/internal/processor"
	"github.com/linuxmatters/denoisebench/internal/ui"
)

var (
	version = "0.1.0"
)

// CLI defines the command-line interface. Flags left at their zero value
// keep the experiment config's setting.
type CLI struct {
	Version     bool    `short:"v" help:"Show version information"`
	Config      string  `short:"c" type:"path" help:"Path to YAML or JSON experiment config (optional)"`
	InputDir    string  `type:"path" placeholder:"dir" help:"Directory scanned for recordings"`
	OutputDir   string  `type:"path" placeholder:"dir" help:"Directory for processed audio, CSV results and reports"`
	TempDir     string  `type:"path" placeholder:"dir" help:"Scratch directory for method comparison output"`
	Method      string  `short:"m" placeholder:"name" help:"Denoise method: standard, wavelet, multi_stage or enhanced_multi_stage"`
	Workers     int     `short:"j" placeholder:"n" help:"Files processed concurrently"`
	MainsHz     float64 `name:"mains-hz" placeholder:"hz" help:"Mains frequency for hum measurement (50 or 60, auto-detected otherwise)"`
	Logs        string  `type:"path" placeholder:"file" default:"denoisebench-debug.log" help:"Debug log file, empty to disable"`
	MetricsFile string  `type:"path" placeholder:"file" help:"Write Prometheus metrics to this file"`
	NoReports   bool    `help:"Skip the per-file quality reports"`
	NoTUI       bool    `name:"no-tui" help:"Print plain progress lines instead of the interactive display"`

	Run      RunCmd      `cmd:"" default:"withargs" help:"Denoise recordings with one method (default)"`
	Compare  CompareCmd  `cmd:"" help:"Run every configured method and recommend the best"`
	Evaluate EvaluateCmd `cmd:"" help:"Score recordings against the quality standard without processing"`
}

// RunCmd applies the selected method
type RunCmd struct {
	Files []string `arg:"" name:"files" help:"Audio files to process (defaults to the input directory)" type:"existingfile" optional:""`
}

// CompareCmd compares all configured methods
type CompareCmd struct {
	Files []string `arg:"" name:"files" help:"Audio files to compare on (defaults to the input directory)" type:"existingfile" optional:""`
}

// EvaluateCmd scores files as they are
type EvaluateCmd struct {
	Files []string `arg:"" name:"files" help:"Audio files to evaluate" type:"existingfile"`
}

func main() {
	app := &CLI{}
	ctx := kong.Parse(app,
		kong.Name("denoisebench"),
		kong.Description("Speech denoising benchmark and audio quality scoring"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	if app.Version {
		cli.PrintVersion(os.Stdout, version)
		os.Exit(0)
	}

	if err := ctx.Run(app); err != nil {
		cli.PrintError(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// Run processes files with the selected method and writes reports
func (c *RunCmd) Run(app *CLI) error {
	cfg, err := app.experimentConfig()
	if err != nil {
		return err
	}
	files, err := resolveFiles(c.Files, cfg.InputDir)
	if err != nil {
		return err
	}
	method, err := cfg.Method()
	if err != nil {
		return err
	}

	runner, closeLog, err := app.newRunner(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	var results []experiment.PairResult
	err = app.withProgress(runner, files, []processor.Method{method}, func(ctx context.Context) error {
		var runErr error
		results, runErr = runner.Run(ctx, files)
		return runErr
	})
	if err != nil {
		return err
	}

	if cfg.WriteReports {
		for _, r := range results {
			if !r.OK() {
				continue
			}
			if _, err := logging.GenerateReport(logging.NewReportData(r, cfg.Standard)); err != nil {
				cli.PrintError(os.Stderr, fmt.Sprintf("report for %s: %v", r.File, err))
			}
		}
	}

	fmt.Println()
	printSetup(cfg, runner)
	logging.DisplayRunSummary(os.Stdout, method, experiment.SummariseRun(results))
	return nil
}

// Run compares every configured method over the same files
func (c *CompareCmd) Run(app *CLI) error {
	cfg, err := app.experimentConfig()
	if err != nil {
		return err
	}
	files, err := resolveFiles(c.Files, cfg.InputDir)
	if err != nil {
		return err
	}
	methods, err := cfg.ParsedMethods()
	if err != nil {
		return err
	}

	runner, closeLog, err := app.newRunner(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	var summaries []experiment.MethodSummary
	err = app.withProgress(runner, files, methods, func(ctx context.Context) error {
		var runErr error
		summaries, _, runErr = runner.Compare(ctx, files)
		return runErr
	})
	if err != nil {
		return err
	}

	fmt.Println()
	printSetup(cfg, runner)
	logging.DisplayComparison(os.Stdout, summaries)
	return nil
}

// Run evaluates each file and prints its compliance verdict
func (c *EvaluateCmd) Run(app *CLI) error {
	cfg, err := app.experimentConfig()
	if err != nil {
		return err
	}
	ev := cfg.Evaluator()

	var failed int
	for _, path := range c.Files {
		buf, meta, err := audio.OpenAudioFile(path)
		if err == nil {
			var m processor.QualityMetrics
			var ok bool
			if m, ok, err = ev.Evaluate(buf); err == nil {
				logging.DisplayEvaluation(os.Stdout, path, meta, m, ok, cfg.Standard)
				fmt.Println()
				continue
			}
		}
		failed++
		cli.PrintError(os.Stderr, fmt.Sprintf("%s: %v", filepath.Base(path), err))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) could not be evaluated", failed, len(c.Files))
	}
	return nil
}

// experimentConfig loads the config file, if any, and applies flag overrides
func (app *CLI) experimentConfig() (experiment.Config, error) {
	cfg := experiment.DefaultConfig()
	if app.Config != "" {
		var err error
		if cfg, err = experiment.LoadConfig(app.Config); err != nil {
			return cfg, err
		}
	}

	if app.InputDir != "" {
		cfg.InputDir = app.InputDir
	}
	if app.OutputDir != "" {
		cfg.OutputDir = app.OutputDir
	}
	if app.TempDir != "" {
		cfg.TempDir = app.TempDir
	}
	if app.Method != "" {
		cfg.SelectedMethod = app.Method
	}
	if app.Workers > 0 {
		cfg.Workers = app.Workers
	}
	if app.MainsHz > 0 {
		cfg.MainsHz = app.MainsHz
	}
	if app.MetricsFile != "" {
		cfg.MetricsFile = app.MetricsFile
	}
	if app.NoReports {
		cfg.WriteReports = false
	}

	return cfg, cfg.Validate()
}

// newRunner opens the debug log and builds a runner on it
func (app *CLI) newRunner(cfg experiment.Config) (*experiment.Runner, func() error, error) {
	log, closeLog, err := experiment.NewLogger(app.Logs)
	if err != nil {
		return nil, nil, err
	}
	runner, err := experiment.NewRunner(cfg, log)
	if err != nil {
		closeLog()
		return nil, nil, err
	}
	log.WithField("run_id", runner.RunID()).Info("Run started")
	return runner, closeLog, nil
}

// withProgress runs work while showing progress, either in the Bubbletea UI
// or as plain lines. Interrupts and quitting the UI cancel the work.
func (app *CLI) withProgress(runner *experiment.Runner, files []string, methods []processor.Method, work func(context.Context) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if app.NoTUI {
		var mu sync.Mutex
		runner.OnProgress(func(e experiment.Event) {
			if e.Stage != experiment.StageComplete && e.Stage != experiment.StageFailed {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			printEvent(e)
		})
		return work(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(ui.NewModel(files, methods), tea.WithAltScreen())
	runner.OnProgress(func(e experiment.Event) {
		p.Send(ui.EventMsg{Event: e})
	})

	errc := make(chan error, 1)
	go func() {
		err := work(ctx)
		p.Send(ui.AllCompleteMsg{Err: err})
		errc <- err
	}()

	final, err := p.Run()
	if m, ok := final.(ui.Model); err != nil || !ok || !m.Done {
		// The UI exited first; stop the workers and wait for them
		cancel()
	}
	workErr := <-errc
	if err != nil {
		return fmt.Errorf("UI error: %w", err)
	}
	return workErr
}

func printEvent(e experiment.Event) {
	name := filepath.Base(e.File)
	prefix := fmt.Sprintf("[%d/%d] %s", e.Index+1, e.Total, e.Method)
	if e.Result == nil || e.Result.Err != nil {
		var err error = errors.New("unknown error")
		if e.Result != nil {
			err = e.Result.Err
		}
		fmt.Printf("%s ✗ %s: %v\n", prefix, name, err)
		return
	}
	r := e.Result
	mark := "✗"
	if r.ProcessedCompliant {
		mark = "✓"
	}
	fmt.Printf("%s %s %s: SNR %+.1f dB, %s\n", prefix, mark, name, r.SNRImprovement, filepath.Base(r.ProcessedPath))
}

// printSetup shows where results went and which mains frequency was used
func printSetup(cfg experiment.Config, runner *experiment.Runner) {
	cli.PrintKeyValue(os.Stdout, "Run ID", runner.RunID())
	cli.PrintKeyValue(os.Stdout, "Results", cfg.OutputDir)

	hz := runner.MainsHz()
	source := "configured"
	if cfg.MainsHz != mains.Hz50 && cfg.MainsHz != mains.Hz60 {
		d := mains.Detect()
		source = "detected from " + d.Timezone
		if d.Guessed() {
			source = "default"
		}
	}
	cli.PrintKeyValue(os.Stdout, "Mains", fmt.Sprintf("%.0f Hz (%s)", hz, source))
	fmt.Println()
}

// resolveFiles returns explicit files, or the recordings in dir
func resolveFiles(files []string, dir string) ([]string, error) {
	if len(files) > 0 {
		return files, nil
	}
	found, err := experiment.FindAudioFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("no audio files found in %s", dir)
	}
	return found, nil
}
