package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/telnetpot/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter

	// titler title-cases section labels.
	titler cases.Caser
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		titler:     cases.Title(language.English),
	}
}

// Write outputs the capture report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CaptureReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeTopList(md, "usernames", report.TopUsernames)
	w.writeTopList(md, "passwords", report.TopPasswords)
	w.writeSourceChart(md, report)
	w.writeRecent(md, report)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with the capture totals.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CaptureReport) {
	md.H1("Telnetpot Capture Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Generated", report.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Total Attempts", strconv.Itoa(report.TotalAttempts)},
			{"Unique Sources", strconv.Itoa(report.UniqueSources)},
			{"Unique Pairs", strconv.Itoa(report.UniquePairs)},
		},
	})
	md.PlainText("")

	w.writeAlert(md, report)
}

// writeAlert writes an alert summarizing capture activity.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.CaptureReport) {
	switch {
	case report.TotalAttempts == 0:
		md.Note("No login attempts captured yet.")
	case report.UniqueSources > 1:
		md.Warningf(
			"Captured %d login attempt(s) from %d distinct sources.",
			report.TotalAttempts,
			report.UniqueSources,
		)
	default:
		md.Note(fmt.Sprintf("Captured %d login attempt(s) from a single source.", report.TotalAttempts))
	}
	md.PlainText("")
}

// writeTopList writes one frequency-ranked section as a table.
func (w *MarkdownWriter) writeTopList(md *markdown.Markdown, label string, values []model.CountedValue) {
	md.H2("Top " + w.titler.String(label))
	md.PlainText("")

	if len(values) == 0 {
		md.PlainText("No " + label + " recorded.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(values))
	for i, cv := range values {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			"`" + cv.Value + "`",
			strconv.Itoa(cv.Count),
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"#", "Value", "Count"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeSourceChart writes a mermaid pie chart of the most active sources.
func (w *MarkdownWriter) writeSourceChart(md *markdown.Markdown, report *model.CaptureReport) {
	md.H2("Top Sources")
	md.PlainText("")

	if len(report.TopSources) == 0 {
		md.PlainText("No sources recorded.")
		md.PlainText("")
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Attempts by Source"),
		piechart.WithShowData(true),
	)
	for _, cv := range report.TopSources {
		chart.LabelAndIntValue(cv.Value, uint64(cv.Count))
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeRecent writes the most recent captures as a table.
func (w *MarkdownWriter) writeRecent(md *markdown.Markdown, report *model.CaptureReport) {
	md.H2("Recent Captures")
	md.PlainText("")

	if len(report.Recent) == 0 {
		md.PlainText("No captures recorded.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(report.Recent))
	for _, cred := range report.Recent {
		rows = append(rows, []string{
			cred.Timestamp.Format("2006-01-02 15:04:05"),
			cred.SourceAddr,
			"`" + cred.Username + "`",
			"`" + cred.Password + "`",
			cred.TerminalType,
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Timestamp", "Source", "Username", "Password", "Terminal"},
		Rows:   rows,
	})
	md.PlainText("")
}
