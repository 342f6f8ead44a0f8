package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/dreat42/Ecom-Crawler/internal/model"
)

// MarkdownWriter outputs crawl reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	// Header
	w.writeHeader(md, report)

	// Crawl statistics
	w.writeStats(md, report)

	// Discovered product URLs
	w.writeProducts(md, report)

	// Per-page results
	w.writeResults(md, report)

	// Footer
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with session information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1("Crawl Report")
	md.PlainText("")

	// Basic info table
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Domain", "`" + report.Domain + "`"},
			{"Seed URL", "`" + report.SeedURL + "`"},
			{"Session", report.SessionID},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration().Round(time.Millisecond).String()},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on the session state.
func (w *MarkdownWriter) getStatusText(report *model.CrawlReport) string {
	switch report.State {
	case model.StateCompleted:
		return "✅ Completed"
	case model.StateCancelled:
		return "⚠️ Cancelled (partial results)"
	case model.StateFailed:
		return "❌ Failed - " + report.Error
	default:
		return string(report.State)
	}
}

// writeStats writes the crawl statistics section.
func (w *MarkdownWriter) writeStats(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Crawl Statistics")
	md.PlainText("")

	stats := report.Stats
	md.Table(markdown.TableSet{
		Header: []string{"Counter", "Count"},
		Rows: [][]string{
			{"Pages crawled", strconv.FormatInt(stats.PagesCrawled, 10)},
			{"Product URLs found", strconv.FormatInt(stats.ProductURLsFound, 10)},
			{"Errors", strconv.FormatInt(stats.Errors, 10)},
			{"Skipped (depth limit)", strconv.FormatInt(stats.PagesSkippedDepth, 10)},
			{"Skipped (duplicate)", strconv.FormatInt(stats.PagesSkippedDuplicate, 10)},
			{"Skipped (robots.txt)", strconv.FormatInt(stats.PagesSkippedRobots, 10)},
		},
	})
	md.PlainText("")

	w.writePerHost(md, report)

	if stats.PagesCrawled > 0 {
		w.writePieChart(md, report)
	}

	w.writeAlert(md, report)
}

// writePerHost writes the per-host counter table.
// Omitted entirely when the breakdown is empty.
func (w *MarkdownWriter) writePerHost(md *markdown.Markdown, report *model.CrawlReport) {
	if len(report.Stats.PerHost) == 0 {
		return
	}

	hosts := make([]string, 0, len(report.Stats.PerHost))
	for host := range report.Stats.PerHost {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)

	rows := make([][]string, 0, len(hosts))
	for _, host := range hosts {
		hs := report.Stats.PerHost[host]
		rows = append(rows, []string{
			"`" + host + "`",
			strconv.FormatInt(hs.PagesCrawled, 10),
			strconv.FormatInt(hs.ProductURLsFound, 10),
			strconv.FormatInt(hs.Errors, 10),
		})
	}

	md.H2("Per-Host Breakdown")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Host", "Pages", "Products", "Errors"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of page outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.CrawlReport) {
	stats := report.Stats
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Page Outcomes"),
		piechart.WithShowData(true),
	)

	ok := stats.PagesCrawled - stats.Errors
	if ok > 0 {
		chart.LabelAndIntValue("Fetched OK", uint64(ok))
	}
	if stats.Errors > 0 {
		chart.LabelAndIntValue("Errors", uint64(stats.Errors))
	}
	if stats.PagesSkippedDepth > 0 {
		chart.LabelAndIntValue("Depth limit", uint64(stats.PagesSkippedDepth))
	}
	if stats.PagesSkippedDuplicate > 0 {
		chart.LabelAndIntValue("Duplicates", uint64(stats.PagesSkippedDuplicate))
	}
	if stats.PagesSkippedRobots > 0 {
		chart.LabelAndIntValue("Robots disallowed", uint64(stats.PagesSkippedRobots))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on the session outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.CrawlReport) {
	switch {
	case report.State == model.StateFailed:
		md.Cautionf("Crawl failed: %s", report.Error)
	case report.State == model.StateCancelled:
		md.Warningf(
			"Crawl was cancelled after %d page(s). Results below are partial.",
			report.Stats.PagesCrawled,
		)
	case report.Stats.ProductURLsFound == 0:
		md.Note("No product pages were found. Consider custom URL patterns for this site.")
	default:
		md.Tip(fmt.Sprintf("Found %d product page(s).", report.Stats.ProductURLsFound))
	}
	md.PlainText("")
}

// writeProducts writes the discovered product URLs section.
func (w *MarkdownWriter) writeProducts(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Product URLs")
	md.PlainText("")

	if len(report.ProductURLs) == 0 {
		md.PlainText("No product URLs discovered.")
		md.PlainText("")
		return
	}

	md.BulletList(report.ProductURLs...)
	md.PlainText("")
}

// writeResults writes the per-page result table.
// Skipped when the report carries no detailed results.
func (w *MarkdownWriter) writeResults(md *markdown.Markdown, report *model.CrawlReport) {
	if len(report.Results) == 0 {
		return
	}

	md.H2("Page Details")
	md.PlainText("")

	rows := make([][]string, len(report.Results))
	for i, r := range report.Results {
		matched := r.MatchedBy
		if matched == "" {
			matched = "-"
		}
		rows[i] = []string{
			truncateString(r.URL, 60),
			strconv.Itoa(r.Depth),
			string(r.Status),
			strconv.Itoa(r.StatusCode),
			strconv.FormatBool(r.IsProduct),
			truncateString(matched, 40),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Depth", "Status", "Code", "Product", "Matched By"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [Ecom-Crawler](https://github.com/dreat42/Ecom-Crawler)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
