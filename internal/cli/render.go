package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"

	"github.com/okian/detbench/internal/domain/cyclic"
	"github.com/okian/detbench/internal/domain/model"
	"github.com/okian/detbench/internal/domain/scenario"
)

// Colors
var (
	accent  = lipgloss.Color("#FF5F87")
	muted   = lipgloss.Color("#808080")
	success = lipgloss.Color("#00CC66")
	warning = lipgloss.Color("#FFAF00")
	white   = lipgloss.Color("#FFFFFF")
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(white)
	labelStyle = lipgloss.NewStyle().Foreground(muted).Width(18)
	valueStyle = lipgloss.NewStyle().Foreground(white)
	goodStyle  = lipgloss.NewStyle().Foreground(success).Bold(true)
	fairStyle  = lipgloss.NewStyle().Foreground(warning).Bold(true)
	poorStyle  = lipgloss.NewStyle().Foreground(accent).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(muted)
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(muted).Padding(0, 1)
)

// listingLimit caps how many unmatched entries a report lists.
const listingLimit = 10

// scoreStyle colours a 0-1 ratio.
func scoreStyle(v float64) lipgloss.Style {
	switch {
	case v >= 0.9:
		return goodStyle
	case v >= 0.5:
		return fairStyle
	default:
		return poorStyle
	}
}

func row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value)
}

func pct(v float64) string {
	return strconv.FormatFloat(v*100, 'f', 2, 64) + "%"
}

// renderReport writes a boxed summary of one evaluation, followed by the first
// unmatched samples and missed events.
func renderReport(w io.Writer, title string, sc *scenario.Scenario, tolerance int, res model.MatchResult, rep model.Report) {
	lines := []string{titleStyle.Render(title)}
	if sc != nil {
		lines = append(lines,
			row("sequence length", strconv.Itoa(sc.SequenceLength)),
			row("sync root", strconv.Itoa(sc.SyncRoot)),
			row("window", fmt.Sprintf("[%d, %d)", sc.StartOffset, sc.MaxOffset)),
		)
	}
	lines = append(lines,
		row("tolerance", strconv.Itoa(tolerance)),
		row("true positives", strconv.Itoa(rep.TruePositives)),
		row("false positives", strconv.Itoa(rep.FalsePositives)),
		row("false negatives", strconv.Itoa(rep.FalseNegatives)),
		labelStyle.Render("precision")+scoreStyle(rep.Precision).Render(pct(rep.Precision)),
		labelStyle.Render("recall")+scoreStyle(rep.Recall).Render(pct(rep.Recall)),
		labelStyle.Render("f1")+scoreStyle(rep.F1).Render(pct(rep.F1)),
	)
	fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))

	if n := len(res.FalsePositives); n > 0 {
		fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("unmatched samples (%d):", n)))
		for i, fp := range res.FalsePositives {
			if i == listingLimit {
				fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("  ... %d more", n-listingLimit)))
				break
			}
			fmt.Fprintf(w, "  %d,%s\n", fp.Sample.Offset, fp.Sample.Name)
		}
	}
	if n := len(res.FalseNegatives); n > 0 {
		fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("missed events (%d):", n)))
		for i, ev := range res.FalseNegatives {
			if i == listingLimit {
				fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("  ... %d more", n-listingLimit)))
				break
			}
			fmt.Fprintf(w, "  %d,%s\n", ev.Offset, ev.Label)
		}
	}
}

func renderValidation(w io.Writer, sequence []string, res cyclic.Result) {
	status := goodStyle.Render("in sequence")
	if len(res.FalsePositives) > 0 || len(res.FalseNegatives) > 0 {
		status = poorStyle.Render("out of sequence")
	}
	lines := []string{
		titleStyle.Render("cyclic validation"),
		row("sequence", strings.Join(sequence, " -> ")),
		row("status", status),
		row("expected next", sequence[res.ExpectedIndex]),
		row("false positives", strconv.Itoa(len(res.FalsePositives))),
		row("false negatives", strings.Join(res.FalseNegatives, ", ")),
	}
	fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))
	for i, s := range res.FalsePositives {
		if i == listingLimit {
			fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("  ... %d more", len(res.FalsePositives)-listingLimit)))
			break
		}
		fmt.Fprintf(w, "  %d,%s\n", s.Offset, s.Name)
	}
}

// newProgress creates a progress bar for batch scoring.
func newProgress(w io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "",
			BarEnd:        "",
		}),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}
