package report

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/telnetpot/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no entries are shown.
	showEmpty bool

	// titler title-cases section labels.
	titler cases.Caser
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		titler:     cases.Title(language.English),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the capture report in human-readable format.
func (w *SimpleWriter) Write(report *model.CaptureReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeTopList(&sb, "usernames", report.TopUsernames)
	w.writeTopList(&sb, "passwords", report.TopPasswords)
	w.writeTopList(&sb, "sources", report.TopSources)
	w.writeRecent(&sb, report)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with generation information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.CaptureReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         TELNETPOT CAPTURE REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Generated:      %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString("\n")
}

// writeSummary writes the capture totals section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.CaptureReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("CAPTURE SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  Total attempts:   %d\n", report.TotalAttempts))
	sb.WriteString(fmt.Sprintf("  Unique sources:   %d\n", report.UniqueSources))
	sb.WriteString(fmt.Sprintf("  Unique pairs:     %d\n", report.UniquePairs))
	sb.WriteString("\n")
}

// writeTopList writes one frequency-ranked section.
func (w *SimpleWriter) writeTopList(sb *strings.Builder, label string, values []model.CountedValue) {
	if len(values) == 0 && !w.showEmpty {
		return
	}

	title := "TOP " + strings.ToUpper(label)
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(values) == 0 {
		sb.WriteString(fmt.Sprintf("  No %s recorded\n", w.titler.String(label)))
	} else {
		for i, cv := range values {
			sb.WriteString(fmt.Sprintf("  %2d. %-40s %d\n", i+1, cv.Value, cv.Count))
		}
	}
	sb.WriteString("\n")
}

// writeRecent writes the most recent captures section.
func (w *SimpleWriter) writeRecent(sb *strings.Builder, report *model.CaptureReport) {
	if len(report.Recent) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("RECENT CAPTURES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(report.Recent) == 0 {
		sb.WriteString("  No captures recorded\n")
	} else {
		for _, cred := range report.Recent {
			sb.WriteString(fmt.Sprintf("  [%s] %s\n",
				cred.Timestamp.Format("2006-01-02 15:04:05"),
				cred.LogLine(),
			))
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by telnetpot\n")
	sb.WriteString("https://github.com/nao1215/telnetpot\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
