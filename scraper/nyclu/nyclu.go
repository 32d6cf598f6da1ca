package nyclu

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"stopfrisk/config"
	"stopfrisk/utils"
)

// Scraper loads the stop-and-frisk data page in a headless browser and
// returns its rendered HTML as lines.
type Scraper struct {
	url       string
	chromeBin string
	timeout   time.Duration
	logger    *utils.Logger
	retry     *utils.RetryConfig
}

// New creates a Scraper for cfg.PageURL.
func New(cfg *config.Config, logger *utils.Logger) *Scraper {
	return &Scraper{
		url:       cfg.PageURL,
		chromeBin: cfg.ChromeBin,
		timeout:   time.Duration(cfg.FetchTimeoutS) * time.Second,
		logger:    logger,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

// FetchLines renders the page and splits the document into lines.
func (s *Scraper) FetchLines(ctx context.Context) ([]string, error) {
	chromeBin := s.chromeBin
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	s.logger.Info("[nyclu] Fetching %s (browser: %s)", s.url, chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	var page string
	err := s.retry.Do(browserCtx, "fetch-stops-page", func(ctx context.Context) error {
		tabCtx, cancelTab := chromedp.NewContext(ctx)
		defer cancelTab()

		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, s.timeout)
		defer cancelTimeout()

		var doc string
		if err := chromedp.Run(tabCtx,
			chromedp.Navigate(s.url),
			chromedp.WaitReady("body", chromedp.ByQuery),
			chromedp.OuterHTML("html", &doc, chromedp.ByQuery),
		); err != nil {
			return fmt.Errorf("chromedp page fetch: %w", err)
		}
		if strings.TrimSpace(doc) == "" {
			return fmt.Errorf("chromedp page fetch: empty document")
		}
		page = doc
		return nil
	})
	if err != nil {
		return nil, err
	}

	lines := SplitLines(page)
	s.logger.Info("[nyclu] Page fetched: %d bytes, %d lines", len(page), len(lines))
	return lines, nil
}

// SplitLines breaks a document into lines, accepting \n, \r\n and \r.
func SplitLines(doc string) []string {
	doc = strings.ReplaceAll(doc, "\r\n", "\n")
	doc = strings.ReplaceAll(doc, "\r", "\n")
	return strings.Split(doc, "\n")
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
