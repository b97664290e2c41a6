// Package main provides the scraper command line.
//
// Usage:
//
//	scraper --base_url https://example.com --crawl --use_selectors ".title"
//	scraper --base_url https://example.com --scrape --use_regex "[0-9]+"
//	scraper --base_url https://example.com --list_selectors
//
// See --help for all available options.
package main

func main() {
	Execute()
}
