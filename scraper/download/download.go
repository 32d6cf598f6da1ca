package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"stopfrisk/utils"
)

// maxBody caps a single download.
const maxBody = 32 << 20

var errTooLarge = errors.New("body exceeds size limit")

// Client fetches source files from http(s) URLs or the local filesystem.
type Client struct {
	http   *http.Client
	retry  *utils.RetryConfig
	logger *utils.Logger
	limit  int64
}

// New returns a Client with the given per-request timeout and retry budget.
func New(timeout time.Duration, maxRetries int, logger *utils.Logger) *Client {
	return &Client{
		http: &http.Client{Timeout: timeout},
		retry: &utils.RetryConfig{
			MaxAttempts: maxRetries,
			BaseDelay:   time.Second,
			Logger:      logger,
		},
		logger: logger,
		limit:  maxBody,
	}
}

// IsRemote reports whether location is fetched over HTTP.
func IsRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// Fetch returns the full contents of location. Local paths are read once;
// remote ones go through the retry policy.
func (c *Client) Fetch(ctx context.Context, location string) ([]byte, error) {
	if !IsRemote(location) {
		data, err := os.ReadFile(strings.TrimPrefix(location, "file://"))
		if err != nil {
			return nil, fmt.Errorf("download: read %q: %w", location, err)
		}
		c.logger.Debug("[download] Read %s (%d bytes)", location, len(data))
		return data, nil
	}

	var body []byte
	err := c.retry.Do(ctx, "download "+location, func(ctx context.Context) error {
		data, err := c.get(ctx, location)
		if err != nil {
			return err
		}
		body = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.logger.Info("[download] Fetched %s (%d bytes)", location, len(body))
	return body, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("download: build request: %w", err)
	}
	req.Header.Set("User-Agent", "stopfrisk-report/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download: %s: HTTP %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.limit+1))
	if err != nil {
		return nil, fmt.Errorf("download: read body: %w", err)
	}
	if int64(len(data)) > c.limit {
		return nil, fmt.Errorf("download: %s: %w", url, errTooLarge)
	}
	return data, nil
}
