package scrape

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"pr-timeline/dates"
	"pr-timeline/sanitize"
)

// Title locations, most specific first. The page's markup is not a
// stable contract, so each one is a best-effort guess at a layout
// variant seen in the wild.
var titleSelectors = []string{
	`[data-testid*="pull-request-title"]`,
	`[data-testid="pr-title"]`,
	`.pull-request-title`,
	`.pr-title`,
	`a[href*="/pull-requests/"]`,
}

var branchSelectors = []string{
	`[data-testid*="source-branch"]`,
	`[data-testid*="branch"]`,
	`.source-branch`,
	`[class*="branch-name"]`,
}

// Column headers that identify a header row rather than a PR row.
var headerKeywords = []string{"title", "author", "activity"}

var bugKeywords = []string{"bug", "fix", "hotfix", "patch", "defect", "issue"}

var (
	branchFromToPattern  = regexp.MustCompile(`(?i)\bfrom\s+([\w./-]+)\s+to\b`)
	branchSlashedPattern = regexp.MustCompile(`\b([\w-]+/[\w./-]+)\b`)

	// Ticket shapes, strongest first.
	ticketPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b[A-Za-z]+-\d+\b`),
		regexp.MustCompile(`\b[A-Za-z]+\d+\b`),
		regexp.MustCompile(`#\d+`),
		regexp.MustCompile(`\b\d+\b`),
	}
	ticketShapedPattern = regexp.MustCompile(`\b[A-Za-z]+-?\d+\b`)

	branchPrefixPattern = regexp.MustCompile(`(?i)^(?:feature|bugfix|hotfix|fix|chore|task|\w+)/[^:\s]*:\s*`)
)

// ParseRow extracts one PullRequest from a result-row selection.
// Returns false for header rows, rows without a usable title, and rows
// whose best date does not fall in the target month.
func ParseRow(row *goquery.Selection, year int, month time.Month, now time.Time) (PullRequest, bool) {
	rowText := sanitize.Sanitize(collapseSpace(row.Text()))
	if len(rowText) < 5 || isHeaderRow(rowText) {
		return PullRequest{}, false
	}

	title := extractTitle(row)
	if title == "" {
		return PullRequest{}, false
	}

	branch := extractBranch(row, rowText)

	date, ok := extractMergeDate(row, rowText, year, month, now)
	if !ok {
		return PullRequest{}, false
	}

	ticket := extractTicket(branch, title, rowText)

	return PullRequest{
		MergeDate: date,
		Type:      classifyWork(title, branch),
		Ticket:    ticket,
		Title:     cleanTitle(title, ticket),
	}, true
}

func isHeaderRow(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range headerKeywords {
		if !strings.Contains(lower, kw) {
			return false
		}
	}
	return true
}

func extractTitle(row *goquery.Selection) string {
	for _, sel := range titleSelectors {
		if s := firstText(row, sel); s != "" {
			return s
		}
	}
	// Last resorts: the row's first anchor, then anything title-flavored.
	if s := firstText(row, "a"); s != "" {
		return s
	}
	return firstText(row, `[class*="title"]`)
}

func extractBranch(row *goquery.Selection, rowText string) string {
	for _, sel := range branchSelectors {
		if s := firstText(row, sel); s != "" {
			return s
		}
	}
	if m := branchFromToPattern.FindStringSubmatch(rowText); m != nil {
		return m[1]
	}
	if m := branchSlashedPattern.FindStringSubmatch(rowText); m != nil {
		return m[1]
	}
	return ""
}

// extractMergeDate prefers structured merge-flavored elements over the
// regex scan of the whole row text. A structured element is tried as
// datetime attribute, then title attribute, then text content.
func extractMergeDate(row *goquery.Selection, rowText string, year int, month time.Month, now time.Time) (time.Time, bool) {
	var found time.Time
	var ok bool
	row.Find(`[data-testid], [class], [aria-label], time`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !mergeFlavored(s) {
			return true
		}
		for _, value := range structuredValues(s) {
			if d, parsed := dates.ParseAbsolute(value); parsed {
				if d.Year() == year && d.Month() == month {
					found, ok = d, true
					return false
				}
			}
		}
		return true
	})
	if ok {
		return found, true
	}

	candidate, ok := dates.ExtractBest(rowText, year, month, now)
	if !ok {
		return time.Time{}, false
	}
	return candidate.Date, true
}

func mergeFlavored(s *goquery.Selection) bool {
	testID, _ := s.Attr("data-testid")
	class, _ := s.Attr("class")
	aria, _ := s.Attr("aria-label")
	joined := strings.ToLower(testID + " " + class + " " + aria)
	return strings.Contains(joined, "merge")
}

func structuredValues(s *goquery.Selection) []string {
	var values []string
	if v, ok := s.Attr("datetime"); ok {
		values = append(values, v)
	}
	if v, ok := s.Attr("title"); ok {
		values = append(values, v)
	}
	values = append(values, strings.TrimSpace(s.Text()))
	return values
}

func classifyWork(title, branch string) WorkType {
	haystack := strings.ToLower(title + " " + branch)
	for _, kw := range bugKeywords {
		if strings.Contains(haystack, kw) {
			return WorkBug
		}
	}
	return WorkFeature
}

// extractTicket tries the branch name, then the title, then the full
// row text, each against the ticket shapes in order. First match wins.
func extractTicket(branch, title, rowText string) string {
	for _, source := range []string{branch, title, rowText} {
		if source == "" {
			continue
		}
		for _, p := range ticketPatterns {
			if m := p.FindString(source); m != "" {
				return m
			}
		}
	}
	return NoTicket
}

// cleanTitle strips a leading "TICKET: " prefix only when it exactly
// matches the extracted ticket and the remainder carries no other
// ticket-shaped substring. Branch-type prefixes like "feature/x:" are
// stripped from the title text itself. Cleaning that empties or
// over-shortens the title reverts to the original.
func cleanTitle(title, ticket string) string {
	cleaned := title

	if ticket != NoTicket {
		prefix := ticket + ":"
		if strings.HasPrefix(cleaned, prefix) {
			rest := strings.TrimSpace(strings.TrimPrefix(cleaned, prefix))
			if !ticketShapedPattern.MatchString(rest) {
				cleaned = rest
			}
		}
	}

	cleaned = strings.TrimSpace(branchPrefixPattern.ReplaceAllString(cleaned, ""))

	if len(cleaned) < 3 {
		return title
	}
	return cleaned
}

// collapseSpace joins the text fragments of nested cells with single
// spaces; goquery's Text concatenates them around raw markup newlines.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func firstText(row *goquery.Selection, selector string) string {
	var out string
	row.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if t := sanitize.Sanitize(collapseSpace(s.Text())); t != "" {
			out = t
			return false
		}
		return true
	})
	return out
}
