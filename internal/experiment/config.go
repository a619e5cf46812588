// Package experiment runs denoising methods over batches of recordings,
// scores each result against the compliance standard and compares methods.
package experiment

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/linuxmatters/denoisebench/internal/audio"
	"github.com/linuxmatters/denoisebench/internal/mains"
	"github.com/linuxmatters/denoisebench/internal/processor"
)

// Config describes one experiment. Zero values are never used directly:
// LoadConfig and DefaultConfig both start from the defaults.
type Config struct {
	InputDir  string `yaml:"input_dir"`  // Directory scanned for recordings
	OutputDir string `yaml:"output_dir"` // Processed audio, CSV results and reports
	TempDir   string `yaml:"temp_dir"`   // Scratch output for method comparison

	Methods        []string `yaml:"methods"`         // Methods compared by Compare
	SelectedMethod string   `yaml:"selected_method"` // Method applied by Run

	Workers      int     `yaml:"workers"`       // Files processed concurrently
	WriteReports bool    `yaml:"write_reports"` // Write a .log analysis report per file
	MetricsFile  string  `yaml:"metrics_file"`  // Prometheus textfile output, empty to skip
	BitDepth     int     `yaml:"bit_depth"`     // Processed WAV bit depth
	MainsHz      float64 `yaml:"mains_hz"`      // 50 or 60; anything else auto-detects

	Standard  processor.Standard `yaml:"standard"`
	Processor ProcessorSettings  `yaml:"processor"`
}

// ProcessorSettings are the processor knobs exposed in experiment files
type ProcessorSettings struct {
	SilenceThresholdDB   float64       `yaml:"silence_threshold_db"`
	WaveletThresholdMult float64       `yaml:"wavelet_threshold_mult"`
	TargetSNR            float64       `yaml:"target_snr"`
	VoicePreserve        bool          `yaml:"voice_preserve"`
	SmoothingWindow      time.Duration `yaml:"smoothing_window"`
	SpectralFloor        float64       `yaml:"spectral_floor"`
	WaveletScales        int           `yaml:"wavelet_scales"`
}

// DefaultConfig returns the standard experiment layout
func DefaultConfig() Config {
	pc := processor.DefaultConfig()
	methods := make([]string, len(processor.Methods))
	for i, m := range processor.Methods {
		methods[i] = m.String()
	}

	return Config{
		InputDir:       "data/audio_paired",
		OutputDir:      "results",
		TempDir:        "temp",
		Methods:        methods,
		SelectedMethod: processor.MethodEnhancedMultiStage.String(),
		Workers:        runtime.NumCPU(),
		WriteReports:   true,
		BitDepth:       audio.DefaultBitDepth,
		Standard:       processor.DefaultStandard(),
		Processor: ProcessorSettings{
			SilenceThresholdDB:   pc.SilenceThresholdDB,
			WaveletThresholdMult: pc.WaveletThresholdMult,
			TargetSNR:            pc.TargetSNR,
			VoicePreserve:        pc.VoicePreserve,
			SmoothingWindow:      pc.SmoothingWindow,
			SpectralFloor:        pc.SpectralFloor,
			WaveletScales:        pc.WaveletScales,
		},
	}
}

// LoadConfig reads a YAML (or JSON) experiment file over the defaults.
// Keys absent from the file keep their default values.
func LoadConfig(filename string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return cfg, fmt.Errorf("failed to read experiment config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse experiment config: %w", err)
	}
	return cfg, nil
}

// Validate checks directories, methods and processor settings
func (c Config) Validate() error {
	var errs []error

	if c.InputDir == "" {
		errs = append(errs, errors.New("input directory is required"))
	}
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.TempDir == "" {
		errs = append(errs, errors.New("temp directory is required"))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if len(c.Methods) == 0 {
		errs = append(errs, errors.New("at least one method is required"))
	}
	if _, err := c.ParsedMethods(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Method(); err != nil {
		errs = append(errs, err)
	}
	if err := c.ProcessorConfig().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("processor: %w", err))
	}
	return errors.Join(errs...)
}

// Method returns the parsed selected method
func (c Config) Method() (processor.Method, error) {
	return processor.ParseMethod(c.SelectedMethod)
}

// ParsedMethods returns the comparison methods in configured order
func (c Config) ParsedMethods() ([]processor.Method, error) {
	methods := make([]processor.Method, 0, len(c.Methods))
	for _, name := range c.Methods {
		m, err := processor.ParseMethod(name)
		if err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return methods, nil
}

// ProcessorConfig overlays the experiment's settings on processor defaults
func (c Config) ProcessorConfig() processor.Config {
	pc := processor.DefaultConfig()
	s := c.Processor
	pc.SilenceThresholdDB = s.SilenceThresholdDB
	pc.WaveletThresholdMult = s.WaveletThresholdMult
	pc.TargetSNR = s.TargetSNR
	pc.VoicePreserve = s.VoicePreserve
	pc.SmoothingWindow = s.SmoothingWindow
	pc.SpectralFloor = s.SpectralFloor
	pc.WaveletScales = s.WaveletScales
	return pc
}

// Evaluator builds the quality evaluator for this experiment
func (c Config) Evaluator() processor.Evaluator {
	ev := processor.NewEvaluator(c.Standard)
	ev.Config = c.ProcessorConfig()
	ev.SilenceThresholdDB = ev.Config.SilenceThresholdDB
	return ev
}

// ResolvedMainsHz returns the configured mains frequency or the local one
func (c Config) ResolvedMainsHz() float64 {
	return mains.Resolve(c.MainsHz)
}
