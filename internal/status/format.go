package status

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/fin-foresight/foresight/internal/types"
)

// FormatOptions controls output formatting.
type FormatOptions struct {
	NoColor bool
	Quiet   bool // Progress line only
}

const barWidth = 25

var (
	greenStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	yellowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	redStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	grayStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	purpleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))
	bannerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
)

// FormatSnapshot renders the progress bar, step indicators and, for a
// finished run, the final workflow banner.
func FormatSnapshot(snap Snapshot, opts FormatOptions) string {
	var b strings.Builder

	b.WriteString(formatProgress(snap, opts))
	if opts.Quiet {
		return b.String()
	}

	b.WriteString("\n")
	b.WriteString(formatSteps(snap, opts))

	if banner := formatBanner(snap, opts); banner != "" {
		b.WriteString("\n")
		b.WriteString(banner)
	}
	return b.String()
}

func formatProgress(snap Snapshot, opts FormatOptions) string {
	percent := snap.Percent()
	filled := int(percent) * barWidth / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	// Full bar, at least half, or still early.
	var barStyle lipgloss.Style
	switch {
	case percent >= 100:
		barStyle = greenStyle
	case percent >= 50:
		barStyle = purpleStyle
	default:
		barStyle = grayStyle
	}

	return fmt.Sprintf("Progress: %s %d%% (%d/%d agents)",
		paint(barStyle, bar, opts.NoColor), int(percent), snap.CompletedCount, snap.Total)
}

func formatSteps(snap Snapshot, opts FormatOptions) string {
	var b strings.Builder
	for _, a := range snap.Agents {
		icon, style := stepIcon(a.Status)
		line := fmt.Sprintf("  %s %-15s %s", icon, a.ID.Title(), a.Status.Label())
		if d := agentDuration(a); d > 0 {
			line += fmt.Sprintf(" (%s)", formatDuration(d))
		}
		b.WriteString(paint(style, line, opts.NoColor))
		if a.Message != "" {
			b.WriteString(paint(grayStyle, "  "+a.Message, opts.NoColor))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatBanner(snap Snapshot, opts FormatOptions) string {
	switch snap.RunStatus {
	case types.RunStatusCompleted:
		return paint(bannerStyle.Inherit(greenStyle), "✓ Analysis workflow completed successfully!", opts.NoColor)
	case types.RunStatusFailed:
		return paint(bannerStyle.Inherit(redStyle), "✗ Analysis workflow encountered an error.", opts.NoColor)
	}
	return ""
}

func stepIcon(status types.AgentStatus) (string, lipgloss.Style) {
	switch status {
	case types.AgentStatusCompleted:
		return "✓", greenStyle
	case types.AgentStatusProcessing:
		return "●", yellowStyle
	case types.AgentStatusError:
		return "✗", redStyle
	default:
		return "○", grayStyle
	}
}

func agentDuration(a AgentState) time.Duration {
	if a.StartedAt == nil || a.DoneAt == nil {
		return 0
	}
	return a.DoneAt.Sub(*a.StartedAt)
}

func paint(style lipgloss.Style, s string, noColor bool) string {
	if noColor {
		return s
	}
	return style.Render(s)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}

// TerminalView prints the run progress each time it is refreshed. Repeated
// refreshes with an unchanged snapshot print nothing.
type TerminalView struct {
	mu   sync.Mutex
	w    io.Writer
	opts FormatOptions
	last string
}

// NewTerminalView creates a view writing to w.
func NewTerminalView(w io.Writer, opts FormatOptions) *TerminalView {
	return &TerminalView{w: w, opts: opts}
}

// Refresh renders snap.
func (v *TerminalView) Refresh(snap Snapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := FormatSnapshot(snap, v.opts)
	if out == v.last {
		return
	}
	v.last = out
	fmt.Fprintln(v.w, out)
}
