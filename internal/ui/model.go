// Package ui provides the Bubbletea terminal user interface for denoisebench
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/linuxmatters/denoisebench/internal/experiment"
	"github.com/linuxmatters/denoisebench/internal/processor"
)

// Spinner frames for files that are being worked on
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// FileStatus represents the processing state of a single file
type FileStatus int

const (
	StatusQueued FileStatus = iota
	StatusDecoding
	StatusDenoising
	StatusEvaluating
	StatusComplete
	StatusError
)

// statusForStage maps runner stages onto display states
func statusForStage(s experiment.Stage) FileStatus {
	switch s {
	case experiment.StageDecoding:
		return StatusDecoding
	case experiment.StageDenoising:
		return StatusDenoising
	case experiment.StageEvaluating:
		return StatusEvaluating
	case experiment.StageComplete:
		return StatusComplete
	case experiment.StageFailed:
		return StatusError
	}
	return StatusQueued
}

// Active reports whether a worker currently holds the file
func (s FileStatus) Active() bool {
	return s == StatusDecoding || s == StatusDenoising || s == StatusEvaluating
}

// FileProgress tracks progress for one file under one method
type FileProgress struct {
	InputPath string
	Method    processor.Method
	Status    FileStatus

	StartTime   time.Time
	ElapsedTime time.Duration

	// Set once the file completes or fails
	Result *experiment.PairResult
	Error  error
}

// Model is the Bubbletea model for batch progress. Workers run
// concurrently, so several files can be active at once.
type Model struct {
	Files          []FileProgress
	Methods        []processor.Method
	TotalFiles     int
	CompletedFiles int
	FailedFiles    int

	StartTime time.Time
	Done      bool
	Err       error

	spinnerIndex int

	// Terminal dimensions
	Width  int
	Height int
}

// NewModel creates a model tracking every input file under every method.
// Rows are grouped by method, in the order given.
func NewModel(inputFiles []string, methods []processor.Method) Model {
	files := make([]FileProgress, 0, len(inputFiles)*len(methods))
	for _, method := range methods {
		for _, path := range inputFiles {
			files = append(files, FileProgress{
				InputPath: path,
				Method:    method,
				Status:    StatusQueued,
			})
		}
	}

	return Model{
		Files:      files,
		Methods:    methods,
		TotalFiles: len(files),
		StartTime:  time.Now(),
	}
}

// Init starts the spinner
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// tickMsg is sent for spinner and timer animation
type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case tickMsg:
		if m.Done {
			return m, nil
		}
		m.spinnerIndex = (m.spinnerIndex + 1) % len(spinnerFrames)
		for i := range m.Files {
			if m.Files[i].Status.Active() {
				m.Files[i].ElapsedTime = time.Since(m.Files[i].StartTime)
			}
		}
		return m, tickCmd()

	case EventMsg:
		m.applyEvent(msg.Event)
		return m, nil

	case AllCompleteMsg:
		m.Done = true
		m.Err = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

// applyEvent updates the row the event refers to
func (m *Model) applyEvent(e experiment.Event) {
	i := m.rowIndex(e.Method, e.Index)
	if i < 0 {
		return
	}
	fp := &m.Files[i]
	if fp.Status == StatusComplete || fp.Status == StatusError {
		return
	}

	status := statusForStage(e.Stage)
	if status.Active() && !fp.Status.Active() {
		fp.StartTime = time.Now()
	}
	if fp.Status.Active() {
		fp.ElapsedTime = time.Since(fp.StartTime)
	}
	fp.Status = status

	switch status {
	case StatusComplete:
		fp.Result = e.Result
		m.CompletedFiles++
	case StatusError:
		fp.Result = e.Result
		if e.Result != nil {
			fp.Error = e.Result.Err
		}
		m.FailedFiles++
	}
}

// rowIndex locates the row for a method and batch position, or -1
func (m Model) rowIndex(method processor.Method, index int) int {
	perMethod := 0
	if len(m.Methods) > 0 {
		perMethod = len(m.Files) / len(m.Methods)
	}
	if index < 0 || index >= perMethod {
		return -1
	}
	for mi, candidate := range m.Methods {
		if candidate == method {
			return mi*perMethod + index
		}
	}
	return -1
}

// View renders the UI
func (m Model) View() string {
	if m.Width == 0 {
		return "Initializing..."
	}
	if m.Done {
		return renderCompletionSummary(m)
	}
	return renderProcessingView(m)
}
