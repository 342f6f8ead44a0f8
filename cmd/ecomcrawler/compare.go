package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dreat42/Ecom-Crawler/internal/config"
	"github.com/dreat42/Ecom-Crawler/internal/crawler"
	"github.com/dreat42/Ecom-Crawler/internal/database"
	"github.com/dreat42/Ecom-Crawler/internal/model"
)

// NewCompareCmd creates the compare command.
// This command compares crawl results with historical data stored in the database.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [domain]",
		Short: "Compare crawl results with historical data",
		Long: `Compare displays differences between the current and previous crawl results.

This command retrieves historical crawl data from the database and shows:
- Product URLs that appeared since the last crawl
- Product URLs that disappeared
- Changes in crawl statistics

The comparison requires at least two crawls in the database for the
specified domain. Use 'ecomcrawler crawl' to crawl and save results.

Examples:
  # Compare latest two crawls for a domain
  ecomcrawler compare shop.example.com

  # List all crawl history for a domain
  ecomcrawler compare --list shop.example.com

  # Compare with a specific historical crawl by ID
  ecomcrawler compare --with-report-id 5 shop.example.com

  # Compare crawls since a specific date
  ecomcrawler compare --since "2025-01-01" shop.example.com

  # Output comparison in JSON format
  ecomcrawler compare --json shop.example.com

  # List all crawled domains in the database
  ecomcrawler compare --list-domains`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompareCmd,
	}

	// History listing flags
	cmd.Flags().BoolP("list", "l", false,
		"List crawl history for the specified domain")
	cmd.Flags().BoolP("list-domains", "L", false,
		"List all crawled domains in the database")

	// Comparison target flags
	cmd.Flags().Int64P("with-report-id", "i", 0,
		"Compare with a specific crawl by ID (use --list to see available IDs)")
	cmd.Flags().StringP("since", "s", "",
		"Compare with the first crawl after this date (format: YYYY-MM-DD)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	// Handle --list-domains flag first (requires database but no domain)
	listDomains, err := cmd.Flags().GetBool("list-domains")
	if err != nil {
		return err
	}

	// Validate arguments before opening database (unless --list-domains)
	var domain string
	if !listDomains {
		// Require a domain for other operations
		if len(args) == 0 {
			return errors.New("domain is required (use --list-domains to see available domains)")
		}

		domain, err = normalizeDomainArg(args[0])
		if err != nil {
			return fmt.Errorf("invalid domain: %w", err)
		}
	}

	// Use XDG data directory for database
	dbDir := config.XDGDataDir()

	// Open database
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	// Handle --list-domains flag
	if listDomains {
		return listCrawledDomains(ctx, db)
	}

	// Handle --list flag
	listHistory, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if listHistory {
		return listCrawlHistory(ctx, db, domain)
	}

	// Get output format flags
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}

	// Get comparison target flags
	withReportID, err := cmd.Flags().GetInt64("with-report-id")
	if err != nil {
		return err
	}
	sinceDate, err := cmd.Flags().GetString("since")
	if err != nil {
		return err
	}

	// Perform comparison
	return runComparison(ctx, db, domain, withReportID, sinceDate, jsonOutput, markdownOutput)
}

// normalizeDomainArg turns a domain or URL argument into the host key
// used by the database.
func normalizeDomainArg(arg string) (string, error) {
	seed, err := crawler.NormalizeSeed(arg)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(seed)
	if err != nil {
		return "", err
	}
	return u.Host, nil
}

// listCrawledDomains lists all domains that have crawl records in the database.
func listCrawledDomains(ctx context.Context, db *database.CrawlDB) error {
	domains, err := db.ListCrawledDomains(ctx)
	if err != nil {
		return fmt.Errorf("failed to list domains: %w", err)
	}

	if len(domains) == 0 {
		fmt.Println("No crawled domains found in the database.")
		fmt.Println("\nUse 'ecomcrawler crawl <domain>' to crawl a website.")
		return nil
	}

	fmt.Printf("Crawled domains (%d):\n\n", len(domains))
	for _, domain := range domains {
		fmt.Printf("  • %s\n", domain)
	}
	fmt.Println("\nUse 'ecomcrawler compare --list <domain>' to see crawl history for a domain.")

	return nil
}

// listCrawlHistory lists all crawl records for a specific domain.
func listCrawlHistory(ctx context.Context, db *database.CrawlDB, domain string) error {
	reports, err := db.GetCrawlHistoryWithMetadata(ctx, domain)
	if err != nil {
		return fmt.Errorf("failed to get crawl history: %w", err)
	}

	if len(reports) == 0 {
		fmt.Printf("No crawl history found for %s\n", domain)
		fmt.Println("\nUse 'ecomcrawler crawl' to crawl this domain.")
		return nil
	}

	fmt.Printf("Crawl history for %s (%d crawls):\n\n", domain, len(reports))
	fmt.Printf("  %-6s  %-20s  %-10s  %-8s  %s\n", "ID", "Date", "State", "Pages", "Products")
	fmt.Println("  " + strings.Repeat("-", 60))

	for _, meta := range reports {
		fmt.Printf("  %-6d  %-20s  %-10s  %-8d  %d\n",
			meta.ID,
			meta.Timestamp.Format("2006-01-02 15:04:05"),
			meta.State,
			meta.Stats.PagesCrawled,
			meta.Stats.ProductURLsFound,
		)
	}

	fmt.Println("\nUse 'ecomcrawler compare <domain>' to compare the latest two crawls.")
	fmt.Println("Use 'ecomcrawler compare --with-report-id <id> <domain>' to compare with a specific crawl.")

	return nil
}

// runComparison performs the actual comparison between crawl reports.
func runComparison(ctx context.Context, db *database.CrawlDB, domain string, withReportID int64, sinceDate string, jsonOutput, markdownOutput bool) error {
	// Get the crawl history
	reports, err := db.GetCrawlHistory(ctx, domain)
	if err != nil {
		return fmt.Errorf("failed to get crawl history: %w", err)
	}

	if len(reports) == 0 {
		return fmt.Errorf("no crawl history found for %s", domain)
	}

	if len(reports) < 2 && withReportID == 0 && sinceDate == "" {
		return fmt.Errorf("at least 2 crawls are required for comparison (found %d)", len(reports))
	}

	// Determine which reports to compare
	var currentReport, previousReport *model.CrawlReport

	// Latest report is always the current one
	currentReport = reports[0]

	if withReportID > 0 {
		// Find the report with the specified ID
		previousReport, err = db.GetCrawlReportByID(ctx, withReportID)
		if err != nil {
			return fmt.Errorf("failed to get crawl with ID %d: %w", withReportID, err)
		}
		if previousReport == nil {
			return fmt.Errorf("crawl with ID %d not found", withReportID)
		}
		// Validate that the report belongs to the same domain
		if previousReport.Domain != domain {
			return fmt.Errorf("crawl ID %d belongs to %s, not %s", withReportID, previousReport.Domain, domain)
		}
	} else if sinceDate != "" {
		// Parse the date and find the first (oldest) report at or after the specified date
		parsedDate, err := time.Parse("2006-01-02", sinceDate)
		if err != nil {
			return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}

		// Reports are sorted newest first, so iterate in reverse to
		// find the oldest report at or after the date
		for i := len(reports) - 1; i >= 0; i-- {
			r := reports[i]
			if r.FinishedAt.After(parsedDate) || r.FinishedAt.Equal(parsedDate) {
				previousReport = r
				break
			}
		}
		if previousReport == nil {
			return fmt.Errorf("no crawls found since %s", sinceDate)
		}
		if previousReport == currentReport {
			return fmt.Errorf("only one crawl found since %s; at least 2 crawls are required for comparison", sinceDate)
		}
	} else {
		// Default: compare with the previous crawl
		previousReport = reports[1]
	}

	// Generate comparison result
	comparison := compareReports(previousReport, currentReport)

	// Output the result
	if jsonOutput {
		return outputComparisonJSON(comparison)
	}
	if markdownOutput {
		return outputComparisonMarkdown(comparison)
	}
	return outputComparisonText(comparison)
}

// ComparisonResult holds the result of comparing two crawl reports.
type ComparisonResult struct {
	// Domain is the crawled domain.
	Domain string `json:"domain"`

	// PreviousCrawl contains metadata about the previous crawl.
	PreviousCrawl CrawlMetadata `json:"previous_crawl"`

	// CurrentCrawl contains metadata about the current crawl.
	CurrentCrawl CrawlMetadata `json:"current_crawl"`

	// NewProducts contains product URLs that are new in the current crawl.
	NewProducts []string `json:"new_products,omitempty"`

	// RemovedProducts contains product URLs that were in the previous
	// crawl but not in the current one.
	RemovedProducts []string `json:"removed_products,omitempty"`

	// UnchangedCount is the number of product URLs present in both crawls.
	UnchangedCount int `json:"unchanged_count"`
}

// CrawlMetadata contains metadata about a crawl for comparison display.
type CrawlMetadata struct {
	// SessionID identifies the crawl session.
	SessionID string `json:"session_id"`

	// FinishedAt is when the crawl completed.
	FinishedAt time.Time `json:"finished_at"`

	// State is the terminal state the crawl ended in.
	State model.SessionState `json:"state"`

	// PagesCrawled is the number of pages fetched.
	PagesCrawled int64 `json:"pages_crawled"`

	// ProductCount is the number of product URLs found.
	ProductCount int `json:"product_count"`
}

// compareReports compares two crawl reports and generates a comparison result.
func compareReports(previous, current *model.CrawlReport) *ComparisonResult {
	result := &ComparisonResult{
		Domain:        current.Domain,
		PreviousCrawl: crawlMetadata(previous),
		CurrentCrawl:  crawlMetadata(current),
	}

	previousSet := make(map[string]bool, len(previous.ProductURLs))
	for _, u := range previous.ProductURLs {
		previousSet[u] = true
	}
	currentSet := make(map[string]bool, len(current.ProductURLs))
	for _, u := range current.ProductURLs {
		currentSet[u] = true
	}

	// Find new products (in current but not in previous)
	for u := range currentSet {
		if !previousSet[u] {
			result.NewProducts = append(result.NewProducts, u)
		} else {
			result.UnchangedCount++
		}
	}

	// Find removed products (in previous but not in current)
	for u := range previousSet {
		if !currentSet[u] {
			result.RemovedProducts = append(result.RemovedProducts, u)
		}
	}

	sort.Strings(result.NewProducts)
	sort.Strings(result.RemovedProducts)

	return result
}

// crawlMetadata extracts display metadata from a report.
func crawlMetadata(r *model.CrawlReport) CrawlMetadata {
	return CrawlMetadata{
		SessionID:    r.SessionID,
		FinishedAt:   r.FinishedAt,
		State:        r.State,
		PagesCrawled: r.Stats.PagesCrawled,
		ProductCount: len(r.ProductURLs),
	}
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(result *ComparisonResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(result *ComparisonResult) error {
	fmt.Printf("# Crawl Comparison: %s\n\n", result.Domain)

	fmt.Println("## Summary")
	fmt.Printf("\n**Catalog change:** %s\n\n", formatCatalogChange(result))

	fmt.Println("| Metric | Previous | Current | Change |")
	fmt.Println("|--------|----------|---------|--------|")
	fmt.Printf("| Date | %s | %s | - |\n",
		result.PreviousCrawl.FinishedAt.Format("2006-01-02 15:04"),
		result.CurrentCrawl.FinishedAt.Format("2006-01-02 15:04"))
	fmt.Printf("| Pages crawled | %d | %d | %s |\n",
		result.PreviousCrawl.PagesCrawled,
		result.CurrentCrawl.PagesCrawled,
		formatDelta(int(result.CurrentCrawl.PagesCrawled-result.PreviousCrawl.PagesCrawled)))
	fmt.Printf("| Products | %d | %d | %s |\n",
		result.PreviousCrawl.ProductCount,
		result.CurrentCrawl.ProductCount,
		formatDelta(result.CurrentCrawl.ProductCount-result.PreviousCrawl.ProductCount))

	if len(result.NewProducts) > 0 {
		fmt.Printf("\n## New Products (%d)\n\n", len(result.NewProducts))
		for _, u := range result.NewProducts {
			fmt.Printf("- %s\n", u)
		}
	}

	if len(result.RemovedProducts) > 0 {
		fmt.Printf("\n## Removed Products (%d)\n\n", len(result.RemovedProducts))
		for _, u := range result.RemovedProducts {
			fmt.Printf("- ~~%s~~\n", u)
		}
	}

	if result.UnchangedCount > 0 {
		fmt.Printf("\n---\n\n*%d products unchanged*\n", result.UnchangedCount)
	}

	return nil
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(result *ComparisonResult) error {
	fmt.Printf("Crawl Comparison: %s\n", result.Domain)
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\nCatalog change: %s\n", formatCatalogChange(result))

	fmt.Printf("\nPrevious crawl: %s (%s, %d pages)\n",
		result.PreviousCrawl.FinishedAt.Format("2006-01-02 15:04:05"),
		result.PreviousCrawl.State,
		result.PreviousCrawl.PagesCrawled)
	fmt.Printf("Current crawl:  %s (%s, %d pages)\n",
		result.CurrentCrawl.FinishedAt.Format("2006-01-02 15:04:05"),
		result.CurrentCrawl.State,
		result.CurrentCrawl.PagesCrawled)

	fmt.Println("\nProduct Summary:")
	fmt.Printf("  %-10s  %-10s  %-10s\n", "Previous", "Current", "Change")
	fmt.Println("  " + strings.Repeat("-", 35))
	fmt.Printf("  %-10d  %-10d  %-10s\n",
		result.PreviousCrawl.ProductCount, result.CurrentCrawl.ProductCount,
		formatDelta(result.CurrentCrawl.ProductCount-result.PreviousCrawl.ProductCount))

	if len(result.NewProducts) > 0 {
		fmt.Printf("\nNew Products (%d):\n", len(result.NewProducts))
		for _, u := range result.NewProducts {
			fmt.Printf("  [+] %s\n", u)
		}
	}

	if len(result.RemovedProducts) > 0 {
		fmt.Printf("\nRemoved Products (%d):\n", len(result.RemovedProducts))
		for _, u := range result.RemovedProducts {
			fmt.Printf("  [-] %s\n", u)
		}
	}

	if result.UnchangedCount > 0 {
		fmt.Printf("\nUnchanged: %d products\n", result.UnchangedCount)
	}

	return nil
}

// formatCatalogChange summarizes how the product catalog moved between crawls.
func formatCatalogChange(result *ComparisonResult) string {
	switch {
	case len(result.NewProducts) == 0 && len(result.RemovedProducts) == 0:
		return "UNCHANGED"
	case len(result.NewProducts) > 0 && len(result.RemovedProducts) == 0:
		return fmt.Sprintf("GREW (+%d products)", len(result.NewProducts))
	case len(result.NewProducts) == 0 && len(result.RemovedProducts) > 0:
		return fmt.Sprintf("SHRANK (-%d products)", len(result.RemovedProducts))
	default:
		return fmt.Sprintf("CHANGED (+%d / -%d products)", len(result.NewProducts), len(result.RemovedProducts))
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	} else if delta < 0 {
		return strconv.Itoa(delta)
	}
	return "0"
}
