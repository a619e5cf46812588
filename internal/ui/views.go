package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	accentColor = lipgloss.Color("#2E86AB")
	mutedColor  = lipgloss.Color("#888888")
	okColor     = lipgloss.Color("#00AA00")
	warnColor   = lipgloss.Color("#FFA500")
	errorColor  = lipgloss.Color("#A40000")
)

// renderProcessingView renders the in-progress view
func renderProcessingView(m Model) string {
	var b strings.Builder

	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")

	b.WriteString(renderFileQueue(m))
	b.WriteString("\n")

	b.WriteString(renderOverallProgress(m))
	return b.String()
}

// renderHeader renders the application header
func renderHeader(m Model) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(accentColor).
		Render("Denoisebench - Speech Denoising Benchmark")

	perMethod := m.TotalFiles
	if len(m.Methods) > 0 {
		perMethod = m.TotalFiles / len(m.Methods)
	}
	text := fmt.Sprintf("Processing %d file(s)", perMethod)
	if len(m.Methods) == 1 {
		text += " with " + m.Methods[0].String()
	} else if len(m.Methods) > 1 {
		text = fmt.Sprintf("Comparing %d methods over %d file(s)", len(m.Methods), perMethod)
	}

	subtitle := lipgloss.NewStyle().
		Foreground(mutedColor).
		Italic(true).
		Render(text)

	return title + "\n" + subtitle
}

// renderFileQueue renders every row, with a method heading when comparing
func renderFileQueue(m Model) string {
	var b strings.Builder

	heading := lipgloss.NewStyle().Bold(true).Foreground(warnColor)
	for i, file := range m.Files {
		if len(m.Methods) > 1 && (i == 0 || m.Files[i-1].Method != file.Method) {
			b.WriteString(heading.Render(file.Method.String()))
			b.WriteString("\n")
		}
		b.WriteString(renderFileEntry(file, spinnerFrames[m.spinnerIndex]))
		b.WriteString("\n")
	}
	return b.String()
}

// renderFileEntry renders a single row
func renderFileEntry(file FileProgress, spinner string) string {
	fileName := filepath.Base(file.InputPath)

	switch file.Status {
	case StatusComplete:
		icon := lipgloss.NewStyle().Foreground(okColor).Render("✓")
		summary := ""
		if r := file.Result; r != nil {
			summary = fmt.Sprintf("SNR %.1f → %.1f dB (%+.1f) | %s",
				r.Original.SNRDB, r.Processed.SNRDB, r.SNRImprovement, complianceLabel(r.ProcessedCompliant))
		}
		return fmt.Sprintf(" %s %s\n   %s", icon, fileName, summary)

	case StatusDecoding, StatusDenoising, StatusEvaluating:
		icon := lipgloss.NewStyle().Foreground(warnColor).Render(spinner)
		return fmt.Sprintf(" %s %s\n   %s [%s]", icon, fileName, statusLabel(file.Status), formatElapsed(file.ElapsedTime))

	case StatusError:
		icon := lipgloss.NewStyle().Foreground(errorColor).Render("✗")
		return fmt.Sprintf(" %s %s\n   Error: %v", icon, fileName, file.Error)

	default:
		icon := lipgloss.NewStyle().Foreground(mutedColor).Render("○")
		return fmt.Sprintf(" %s %s\n   Queued...", icon, fileName)
	}
}

func statusLabel(s FileStatus) string {
	switch s {
	case StatusDecoding:
		return "Decoding..."
	case StatusDenoising:
		return "Denoising..."
	case StatusEvaluating:
		return "Evaluating..."
	}
	return ""
}

func complianceLabel(ok bool) string {
	if ok {
		return "compliant"
	}
	return "not compliant"
}

// renderProgressBar renders a progress bar
func renderProgressBar(progress float64, width int) string {
	progress = min(max(progress, 0), 1)
	filled := int(progress * float64(width))
	empty := width - filled

	bar := strings.Repeat("█", filled) + strings.Repeat("░", empty)
	return fmt.Sprintf("%s %d%%", bar, int(progress*100))
}

// renderOverallProgress renders the overall progress footer
func renderOverallProgress(m Model) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(mutedColor).
		Padding(0, 1).
		Width(60)

	finished := m.CompletedFiles + m.FailedFiles
	var progress float64
	if m.TotalFiles > 0 {
		progress = float64(finished) / float64(m.TotalFiles)
	}

	content := fmt.Sprintf("%s\n%d/%d complete, %d failed [%s]",
		renderProgressBar(progress, 40), finished, m.TotalFiles, m.FailedFiles,
		formatElapsed(time.Since(m.StartTime)))
	return box.Render(content)
}

// renderCompletionSummary renders the final summary
func renderCompletionSummary(m Model) string {
	var b strings.Builder

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(okColor).
		Render("Processing Complete")
	if m.Err != nil {
		header = lipgloss.NewStyle().
			Bold(true).
			Foreground(errorColor).
			Render("Processing Stopped: " + m.Err.Error())
	}
	b.WriteString(header)
	b.WriteString("\n\n")

	for _, file := range m.Files {
		if file.Status == StatusComplete || file.Status == StatusError {
			b.WriteString(renderFileEntry(file, ""))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", 60))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%d processed, %d failed in %s\n",
		m.CompletedFiles, m.FailedFiles, formatElapsed(time.Since(m.StartTime)))
	return b.String()
}

// formatElapsed formats elapsed time as MM:SS or HH:MM:SS
func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
