package scrape

import (
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// RowLocator is one strategy for finding the PR row collection on a
// page. Strategies are tried in order and the first one that yields at
// least one element wins, so new layout variants are handled by adding
// a locator without touching the scan loop.
type RowLocator interface {
	Name() string
	Rows(doc *goquery.Document) *goquery.Selection
}

type selectorLocator struct {
	name     string
	selector string
}

func (l selectorLocator) Name() string { return l.name }

func (l selectorLocator) Rows(doc *goquery.Document) *goquery.Selection {
	return doc.Find(l.selector)
}

// DefaultRowLocators covers the layout variants observed for the
// merged-PR list, most specific first.
var DefaultRowLocators = []RowLocator{
	selectorLocator{"row-testid", `[data-testid="pull-request-row"]`},
	selectorLocator{"list-testid", `[data-testid*="pull-request-list"] tr`},
	selectorLocator{"pr-table", `table[class*="pull-request"] tbody tr`},
	selectorLocator{"row-class", `.pull-request-row`},
	selectorLocator{"generic-table", `tbody tr`},
	selectorLocator{"list-items", `ul[class*="pull-request"] li`},
}

// Scanner walks the rows of one result page and collects the PRs that
// parse cleanly and land in the target month.
type Scanner struct {
	locators []RowLocator
	log      *zap.SugaredLogger
}

// NewScanner builds a Scanner with the default locator chain.
func NewScanner(log *zap.SugaredLogger) *Scanner {
	return &Scanner{locators: DefaultRowLocators, log: log}
}

// ScanPage runs ParseRow over every row found by the first matching
// locator. Rows that fail to parse are skipped, not fatal.
func (sc *Scanner) ScanPage(doc *goquery.Document, year int, month time.Month, now time.Time) []PullRequest {
	rows, locator := sc.findRows(doc)
	if rows == nil {
		sc.log.Debugw("no row locator matched the page")
		return nil
	}

	var prs []PullRequest
	rows.Each(func(_ int, row *goquery.Selection) {
		if pr, ok := ParseRow(row, year, month, now); ok {
			prs = append(prs, pr)
		}
	})
	sc.log.Debugw("scanned page", "locator", locator, "rows", rows.Length(), "matched", len(prs))
	return prs
}

func (sc *Scanner) findRows(doc *goquery.Document) (*goquery.Selection, string) {
	for _, l := range sc.locators {
		if rows := l.Rows(doc); rows.Length() > 0 {
			return rows, l.Name()
		}
	}
	return nil, ""
}
