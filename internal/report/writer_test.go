package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dreat42/Ecom-Crawler/internal/model"
)

func testReport() *model.CrawlReport {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &model.CrawlReport{
		SessionID: "session-1",
		Domain:    "shop.example.com",
		SeedURL:   "https://shop.example.com/",
		State:     model.StateCompleted,
		StartedAt: start,
		FinishedAt: start.Add(42 * time.Second),
		ProductURLs: []string{
			"https://shop.example.com/products/1",
			"https://shop.example.com/products/2",
		},
		Stats: model.CrawlStats{
			PagesCrawled:          6,
			ProductURLsFound:      2,
			Errors:                1,
			PagesSkippedDuplicate: 3,
			PerHost: map[string]model.HostStats{
				"shop.example.com": {PagesCrawled: 6, ProductURLsFound: 2, Errors: 1},
			},
		},
		Results: []model.PageResult{
			{
				URL:        "https://shop.example.com/",
				Depth:      0,
				Status:     model.FetchOK,
				StatusCode: 200,
				LinksFound: 3,
			},
			{
				URL:        "https://shop.example.com/products/1",
				Depth:      1,
				Status:     model.FetchOK,
				StatusCode: 200,
				IsProduct:  true,
				MatchedBy:  "url:/product[s]?/",
			},
			{
				URL:    "https://shop.example.com/broken",
				Depth:  1,
				Status: model.FetchTransportError,
				Err:    "connection refused",
			},
		},
	}
}

func TestJSONWriter_Write(t *testing.T) {
	t.Parallel()

	t.Run("compact output roundtrips", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		n, err := w.Write(testReport())
		if err != nil {
			t.Fatalf("Write: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("reported %d bytes, wrote %d", n, buf.Len())
		}

		var decoded model.CrawlReport
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if decoded.Domain != "shop.example.com" {
			t.Errorf("expected domain roundtrip, got %q", decoded.Domain)
		}
		if len(decoded.ProductURLs) != 2 {
			t.Errorf("expected 2 product URLs, got %d", len(decoded.ProductURLs))
		}
	})

	t.Run("pretty print indents", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint())

		if _, err := w.Write(testReport()); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"session_id\"") {
			t.Error("expected indented output")
		}
	})

	t.Run("full writer wraps with version", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewFullJSONWriter(&buf, "1.2.3")

		if _, err := w.Write(testReport()); err != nil {
			t.Fatalf("Write: %v", err)
		}

		var wrapped JSONReport
		if err := json.Unmarshal(buf.Bytes(), &wrapped); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if wrapped.Version != "1.2.3" {
			t.Errorf("expected version 1.2.3, got %q", wrapped.Version)
		}
		if wrapped.Report == nil || wrapped.Report.SessionID != "session-1" {
			t.Error("expected wrapped report")
		}
	})
}

func TestSimpleWriter_Write(t *testing.T) {
	t.Parallel()

	t.Run("contains key sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(testReport()); err != nil {
			t.Fatalf("Write: %v", err)
		}

		out := buf.String()
		for _, want := range []string{
			"CRAWL REPORT",
			"shop.example.com",
			"Pages crawled:        6",
			"Product URLs found:   2",
			"[+] https://shop.example.com/products/1",
			"Status:     COMPLETED",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q", want)
			}
		}
	})

	t.Run("hides empty product section by default", func(t *testing.T) {
		t.Parallel()

		report := testReport()
		report.ProductURLs = nil

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(report); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if strings.Contains(buf.String(), "PRODUCT URLS") {
			t.Error("expected empty section to be hidden")
		}
	})

	t.Run("show empty option", func(t *testing.T) {
		t.Parallel()

		report := testReport()
		report.ProductURLs = nil

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithShowEmpty(true))

		if _, err := w.Write(report); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if !strings.Contains(buf.String(), "No product URLs discovered") {
			t.Error("expected empty section placeholder")
		}
	})

	t.Run("verbose prints page details", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithVerbose(true))

		if _, err := w.Write(testReport()); err != nil {
			t.Fatalf("Write: %v", err)
		}

		out := buf.String()
		if !strings.Contains(out, "PAGE DETAILS") {
			t.Error("expected page details section")
		}
		if !strings.Contains(out, "error: connection refused") {
			t.Error("expected fetch error detail")
		}
	})

	t.Run("verbose prints per-host breakdown", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithVerbose(true))

		if _, err := w.Write(testReport()); err != nil {
			t.Fatalf("Write: %v", err)
		}

		out := buf.String()
		if !strings.Contains(out, "Per host:") {
			t.Error("expected per-host section")
		}
		if !strings.Contains(out, "shop.example.com: pages=6 products=2 errors=1") {
			t.Error("expected per-host counter line")
		}
	})

	t.Run("single host breakdown hidden without verbose", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(testReport()); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if strings.Contains(buf.String(), "Per host:") {
			t.Error("expected single-host breakdown to stay hidden")
		}
	})

	t.Run("multiple hosts always show breakdown", func(t *testing.T) {
		t.Parallel()

		report := testReport()
		report.Stats.PerHost = map[string]model.HostStats{
			"shop.example.com":      {PagesCrawled: 5, ProductURLsFound: 2},
			"shop.example.com:8443": {PagesCrawled: 1, Errors: 1},
		}

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(report); err != nil {
			t.Fatalf("Write: %v", err)
		}

		out := buf.String()
		if !strings.Contains(out, "shop.example.com: pages=5 products=2 errors=0") {
			t.Error("expected first host line")
		}
		if !strings.Contains(out, "shop.example.com:8443: pages=1 products=0 errors=1") {
			t.Error("expected second host line")
		}
	})

	t.Run("failed session shows error", func(t *testing.T) {
		t.Parallel()

		report := testReport()
		report.State = model.StateFailed
		report.Error = "seed unreachable"

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(report); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if !strings.Contains(buf.String(), "FAILED - seed unreachable") {
			t.Error("expected failure status line")
		}
	})
}

func TestMarkdownWriter_Write(t *testing.T) {
	t.Parallel()

	t.Run("contains key sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(testReport()); err != nil {
			t.Fatalf("Write: %v", err)
		}

		out := buf.String()
		for _, want := range []string{
			"# Crawl Report",
			"## Crawl Statistics",
			"## Product URLs",
			"## Page Details",
			"`shop.example.com`",
			"https://shop.example.com/products/1",
			"mermaid",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q", want)
			}
		}
	})

	t.Run("per-host table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(testReport()); err != nil {
			t.Fatalf("Write: %v", err)
		}

		out := buf.String()
		if !strings.Contains(out, "Per-Host Breakdown") {
			t.Error("expected per-host section")
		}
		for _, want := range []string{"Host", "Pages", "Products", "`shop.example.com`"} {
			if !strings.Contains(out, want) {
				t.Errorf("per-host table missing %q", want)
			}
		}
	})

	t.Run("empty breakdown omits per-host section", func(t *testing.T) {
		t.Parallel()

		report := testReport()
		report.Stats.PerHost = nil

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(report); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if strings.Contains(buf.String(), "Per-Host Breakdown") {
			t.Error("expected per-host section to be omitted")
		}
	})

	t.Run("no results omits detail table", func(t *testing.T) {
		t.Parallel()

		report := testReport()
		report.Results = nil

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(report); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if strings.Contains(buf.String(), "## Page Details") {
			t.Error("expected detail table to be omitted")
		}
	})
}

func TestMultiWriter_Write(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var a, b bytes.Buffer
		mw := NewMultiWriter(NewJSONWriter(&a), NewSimpleWriter(&b))

		total, err := mw.Write(testReport())
		if err != nil {
			t.Fatalf("Write: %v", err)
		}
		if a.Len() == 0 || b.Len() == 0 {
			t.Error("expected both writers to receive output")
		}
		if total != a.Len()+b.Len() {
			t.Errorf("expected total %d, got %d", a.Len()+b.Len(), total)
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var after bytes.Buffer
		mw := NewMultiWriter(failingWriter{}, NewSimpleWriter(&after))

		if _, err := mw.Write(testReport()); err == nil {
			t.Fatal("expected error")
		}
		if after.Len() != 0 {
			t.Error("expected later writers to be skipped after error")
		}
	})
}

type failingWriter struct{}

func (failingWriter) Write(*model.CrawlReport) (int, error) {
	return 0, errors.New("write failed")
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly-10", 10, "exactly-10"},
		{"this is too long", 10, "this is..."},
		{"abc", 2, "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			if got := truncateString(tt.in, tt.maxLen); got != tt.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
			}
		})
	}
}
