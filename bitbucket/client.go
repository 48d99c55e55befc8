// Package bitbucket fetches the hosting site's merged-PR list pages
// and drives the scan across them.
package bitbucket

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"pr-timeline/config"
	"pr-timeline/identity"
	"pr-timeline/scrape"
)

// Client handles page retrieval and pagination.
type Client struct {
	cfg     *config.Config
	http    *http.Client
	scanner *scrape.Scanner
	log     *zap.SugaredLogger
}

// Result is the outcome of one collection run. Truncated is set when
// the page safety bound stopped the loop; Partial when a per-page
// failure ended it early. Both still carry everything collected so far.
type Result struct {
	PullRequests []scrape.PullRequest
	Pages        int
	Truncated    bool
	Partial      bool
}

// ProgressFunc receives advisory status after each scanned page.
type ProgressFunc func(page, collected int)

// NewClient creates a new client for the configured site.
func NewClient(cfg *config.Config, log *zap.SugaredLogger) *Client {
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Bitbucket.HTTPTimeout},
		scanner: scrape.NewScanner(log),
		log:     log,
	}
}

// MergedPRsURL builds the filtered list URL for the given author. The
// user id is validated again here even though the resolver already
// checked it; this is the boundary where it becomes part of a URL.
func (c *Client) MergedPRsURL(userID string) (string, error) {
	if !identity.IsValidUserID(userID) {
		return "", fmt.Errorf("user id %q does not look like a UUID", userID)
	}
	return fmt.Sprintf("%s/%s/%s/pull-requests/?state=MERGED&author=%s",
		c.cfg.Bitbucket.BaseURL,
		url.PathEscape(c.cfg.Bitbucket.Organization),
		url.PathEscape(c.cfg.Bitbucket.Project),
		url.QueryEscape("{"+userID+"}"),
	), nil
}

// FetchDocument retrieves one page as a parsed document, retrying with
// escalating backoff while the page is not ready. A served page is
// accepted as-is rather than waiting for a perfect ready signal; only
// transport errors and non-200 responses count as not ready.
func (c *Client) FetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	backoff := c.cfg.Scan.RetryBackoff
	var lastErr error

	for attempt := 0; attempt <= c.cfg.Scan.FetchRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		doc, err := c.fetchOnce(ctx, pageURL)
		if err == nil {
			return doc, nil
		}
		lastErr = err
		c.log.Debugw("page fetch failed", "url", pageURL, "attempt", attempt, "error", err)
	}
	return nil, lastErr
}

func (c *Client) fetchOnce(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	if c.cfg.Bitbucket.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Bitbucket.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page request failed with status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return doc, nil
}

// CollectMergedPRs scans the merged-PR list for the author, following
// next-page controls until none remain, a page fails, or the safety
// bound is hit. Collection is best effort: whatever was gathered
// before an abort is still returned.
func (c *Client) CollectMergedPRs(ctx context.Context, userID string, year int, month time.Month, progress ProgressFunc) (Result, error) {
	startURL, err := c.MergedPRsURL(userID)
	if err != nil {
		return Result{}, err
	}

	now := time.Now()
	seen := make(map[string]bool)
	result := Result{}
	pageURL := startURL

	for result.Pages < c.cfg.Scan.MaxPages {
		doc, err := c.FetchDocument(ctx, pageURL)
		if err != nil {
			if result.Pages == 0 {
				return result, fmt.Errorf("fetch first result page: %w", err)
			}
			c.log.Warnw("pagination stopped on fetch failure", "page", result.Pages+1, "error", err)
			result.Partial = true
			return result, nil
		}

		result.Pages++
		for _, pr := range c.scanner.ScanPage(doc, year, month, now) {
			if seen[pr.Key()] {
				continue
			}
			seen[pr.Key()] = true
			result.PullRequests = append(result.PullRequests, pr)
		}

		if progress != nil {
			progress(result.Pages, len(result.PullRequests))
		}

		next, ok := nextPageURL(doc, pageURL)
		if !ok {
			return result, nil
		}
		pageURL = next
	}

	result.Truncated = true
	c.log.Infow("pagination stopped at safety bound", "pages", result.Pages)
	return result, nil
}
