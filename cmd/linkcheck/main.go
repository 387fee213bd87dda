package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/pflag"

	"price-tracker-web/internal/linkcheck"
)

func main() {
	def := linkcheck.DefaultConfig()

	startURL := pflag.String("url", "http://localhost:8085/search?page=1", "search page to start crawling from")
	maxPages := pflag.Int("max-pages", def.MaxPages, "stop after this many pages (0: no limit)")
	timeout := pflag.Duration("timeout", def.Timeout, "per-request timeout")
	delay := pflag.Duration("delay", def.Delay, "pause between requests")
	verbose := pflag.Bool("debug", false, "log every request colly makes")
	pflag.Parse()

	cfg := def
	cfg.MaxPages = *maxPages
	cfg.Timeout = *timeout
	cfg.Delay = *delay
	cfg.Debug = *verbose

	report, err := linkcheck.Check(*startURL, cfg)
	if err != nil {
		log.Fatal("Link check failed: ", err)
	}

	for _, p := range report.Pages {
		fmt.Printf("%d  page %-4s  %2d products  %s\n", p.StatusCode, p.CurrentPage, p.Products, p.URL)
	}
	for _, p := range report.Problems {
		fmt.Printf("PROBLEM %s: %s\n", p.URL, p.Message)
	}

	if !report.OK() {
		os.Exit(1)
	}
}
