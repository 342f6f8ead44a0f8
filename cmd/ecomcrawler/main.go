// Package main provides the entry point for the Ecom-Crawler CLI.
//
// Ecom-Crawler discovers product pages on e-commerce websites by crawling
// a site's internal link graph and classifying each page.
//
// Usage:
//
//	ecomcrawler crawl <domain-or-url>
//	ecomcrawler crawl shop1.example.com shop2.example.com
//
// See --help for all available options.
package main

// main is the entry point for Ecom-Crawler.
func main() {
	Execute()
}
