// Package main provides the entry point for the crawl CLI.
//
// crawl walks the web from a seed URL, honouring each host's robots.txt,
// and shows live progress while it runs.
//
// Usage:
//
//	crawl [seed-url]
//	crawl --headless --concurrency 50 https://example.com/
//
// See --help for all available options.
package main

func main() {
	Execute()
}
