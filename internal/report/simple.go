package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dreat42/Ecom-Crawler/internal/model"
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

	// verbose enables the per-page detail section.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with per-page details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	// Header
	w.writeHeader(&sb, report)

	// Statistics
	w.writeStats(&sb, report)

	// Product URLs
	w.writeProducts(&sb, report)

	// Per-page details (verbose only)
	w.writeResults(&sb, report)

	// Footer
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with session information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                          CRAWL REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Domain:     %s\n", report.Domain))
	sb.WriteString(fmt.Sprintf("Seed URL:   %s\n", report.SeedURL))
	sb.WriteString(fmt.Sprintf("Session:    %s\n", report.SessionID))
	sb.WriteString(fmt.Sprintf("Started:    %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Duration:   %s\n", report.Duration().Round(time.Millisecond)))

	switch report.State {
	case model.StateCancelled:
		sb.WriteString("Status:     CANCELLED (partial results)\n")
	case model.StateFailed:
		sb.WriteString(fmt.Sprintf("Status:     FAILED - %s\n", report.Error))
	default:
		sb.WriteString(fmt.Sprintf("Status:     %s\n", report.State))
	}

	sb.WriteString("\n")
}

// writeStats writes the crawl statistics section.
func (w *SimpleWriter) writeStats(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("CRAWL STATISTICS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	stats := report.Stats
	sb.WriteString(fmt.Sprintf("  Pages crawled:        %d\n", stats.PagesCrawled))
	sb.WriteString(fmt.Sprintf("  Product URLs found:   %d\n", stats.ProductURLsFound))
	sb.WriteString(fmt.Sprintf("  Errors:               %d\n", stats.Errors))
	sb.WriteString(fmt.Sprintf("  Skipped (depth):      %d\n", stats.PagesSkippedDepth))
	sb.WriteString(fmt.Sprintf("  Skipped (duplicate):  %d\n", stats.PagesSkippedDuplicate))
	sb.WriteString(fmt.Sprintf("  Skipped (robots):     %d\n", stats.PagesSkippedRobots))
	sb.WriteString("\n")

	// Per-host breakdown, when more than one host was touched or
	// verbose output is requested.
	if len(stats.PerHost) > 1 || (w.verbose && len(stats.PerHost) > 0) {
		hosts := make([]string, 0, len(stats.PerHost))
		for host := range stats.PerHost {
			hosts = append(hosts, host)
		}
		sort.Strings(hosts)

		sb.WriteString("  Per host:\n")
		for _, host := range hosts {
			hs := stats.PerHost[host]
			sb.WriteString(fmt.Sprintf("    %s: pages=%d products=%d errors=%d\n",
				host, hs.PagesCrawled, hs.ProductURLsFound, hs.Errors))
		}
		sb.WriteString("\n")
	}
}

// writeProducts writes the discovered product URLs section.
func (w *SimpleWriter) writeProducts(sb *strings.Builder, report *model.CrawlReport) {
	if len(report.ProductURLs) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PRODUCT URLS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(report.ProductURLs) == 0 {
		sb.WriteString("  No product URLs discovered\n")
	} else {
		for _, u := range report.ProductURLs {
			sb.WriteString(fmt.Sprintf("  [+] %s\n", u))
		}
	}
	sb.WriteString("\n")
}

// writeResults writes per-page details in verbose mode.
func (w *SimpleWriter) writeResults(sb *strings.Builder, report *model.CrawlReport) {
	if !w.verbose || len(report.Results) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PAGE DETAILS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, r := range report.Results {
		marker := " "
		if r.IsProduct {
			marker = "*"
		}
		sb.WriteString(fmt.Sprintf("  [%s] depth=%d status=%s code=%d %s\n",
			marker, r.Depth, r.Status, r.StatusCode, r.URL))
		if r.MatchedBy != "" {
			sb.WriteString(fmt.Sprintf("      matched: %s\n", r.MatchedBy))
		}
		if r.Err != "" {
			sb.WriteString(fmt.Sprintf("      error: %s\n", r.Err))
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by Ecom-Crawler\n")
	sb.WriteString("https://github.com/dreat42/Ecom-Crawler\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
