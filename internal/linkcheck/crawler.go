// Package linkcheck walks the rendered search pages through their pagination
// links and reports pages that fail to load or render a broken control.
package linkcheck

import (
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/debug"
)

const (
	pageLinkSelector    = "ul.pagination a.page-link[href]"
	currentLinkSelector = "ul.pagination li.active a.page-link"
)

type Config struct {
	MaxPages  int
	Timeout   time.Duration
	UserAgent string

	// Delay between requests to the checked host.
	Delay time.Duration
	Debug bool
}

func DefaultConfig() Config {
	return Config{
		MaxPages:  50,
		Timeout:   10 * time.Second,
		UserAgent: "price-tracker-linkcheck/1.0",
	}
}

type Page struct {
	URL         string
	StatusCode  int
	Products    int
	CurrentPage string
}

type Problem struct {
	URL        string
	StatusCode int
	Message    string
}

type Report struct {
	Pages    []Page
	Problems []Problem
}

func (r Report) OK() bool {
	return len(r.Problems) == 0
}

// Check crawls from startURL, following pagination links on the same host.
func Check(startURL string, cfg Config) (Report, error) {
	start, err := url.Parse(startURL)
	if err != nil || start.Host == "" {
		return Report{}, fmt.Errorf("invalid start URL %q", startURL)
	}

	opts := []colly.CollectorOption{
		colly.AllowedDomains(start.Hostname()),
		colly.UserAgent(cfg.UserAgent),
	}
	if cfg.Debug {
		opts = append(opts, colly.Debugger(&debug.LogDebugger{}))
	}
	c := colly.NewCollector(opts...)
	if cfg.Timeout > 0 {
		c.SetRequestTimeout(cfg.Timeout)
	}
	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       cfg.Delay,
	}); err != nil {
		return Report{}, fmt.Errorf("limit rule: %w", err)
	}

	var (
		report  Report
		visited int
	)

	c.OnRequest(func(r *colly.Request) {
		if cfg.MaxPages > 0 && visited >= cfg.MaxPages {
			r.Abort()
			return
		}
		visited++
	})

	c.OnHTML("body", func(e *colly.HTMLElement) {
		page := Page{
			URL:         e.Request.URL.String(),
			StatusCode:  e.Response.StatusCode,
			Products:    e.DOM.Find(".product-card").Length(),
			CurrentPage: strings.TrimSpace(e.DOM.Find(currentLinkSelector).Text()),
		}
		report.Pages = append(report.Pages, page)

		if n := e.DOM.Find(currentLinkSelector).Length(); e.DOM.Find(pageLinkSelector).Length() > 0 && n != 1 {
			report.Problems = append(report.Problems, Problem{
				URL:     page.URL,
				Message: fmt.Sprintf("pagination marks %d current pages", n),
			})
		}
		if msg := strings.TrimSpace(e.DOM.Find("#search-error").Text()); msg != "" {
			report.Problems = append(report.Problems, Problem{
				URL:     page.URL,
				Message: "search failed: " + msg,
			})
		}
	})

	c.OnHTML(pageLinkSelector, func(e *colly.HTMLElement) {
		link := e.Request.AbsoluteURL(e.Attr("href"))
		if link == "" {
			return
		}
		// already-visited links are reported by colly as errors; ignore them
		_ = e.Request.Visit(link)
	})

	c.OnError(func(r *colly.Response, err error) {
		report.Problems = append(report.Problems, Problem{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Message:    err.Error(),
		})
		log.Printf("[linkcheck] %s: %d %v", r.Request.URL, r.StatusCode, err)
	})

	if err := c.Visit(start.String()); err != nil && len(report.Problems) == 0 {
		return report, fmt.Errorf("visit %s: %w", start, err)
	}
	c.Wait()

	log.Printf("[linkcheck] visited %d pages, %d problems", len(report.Pages), len(report.Problems))
	return report, nil
}
