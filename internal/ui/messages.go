package ui

import (
	"github.com/linuxmatters/denoisebench/internal/experiment"
)

// EventMsg carries a runner progress event into the UI
type EventMsg struct {
	Event experiment.Event
}

// AllCompleteMsg indicates every file has been processed
type AllCompleteMsg struct {
	Err error // Batch-level error, e.g. cancellation
}
