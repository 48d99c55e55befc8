// Package dates finds merge-date candidates in the noisy text of a
// pull-request row. Row text routinely carries several dates at once:
// the merge timestamp, approval dates, creation/update dates and
// relative phrases like "3 days ago". The extractor collects all of
// them, classifies each by its surrounding context and picks the best
// candidate for the requested month.
package dates

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// SourceKind classifies where a date candidate came from. The order is
// the ranking: merge context beats a relative phrase, which beats an
// unclassified date, which beats creation/update and approval noise.
type SourceKind int

const (
	KindApproval SourceKind = iota
	KindCreationOrUpdate
	KindUnclear
	KindRelative
	KindMerge
)

// Priority returns the selection weight of the kind. Kept as explicit
// values so the ranking is auditable against observed page text.
func (k SourceKind) Priority() int {
	switch k {
	case KindMerge:
		return 100
	case KindRelative:
		return 90
	case KindUnclear:
		return 50
	case KindCreationOrUpdate:
		return 2
	case KindApproval:
		return 1
	}
	return 0
}

func (k SourceKind) String() string {
	switch k {
	case KindMerge:
		return "merge"
	case KindRelative:
		return "relative"
	case KindUnclear:
		return "unclear"
	case KindCreationOrUpdate:
		return "creationOrUpdate"
	case KindApproval:
		return "approval"
	}
	return "unknown"
}

// Candidate is one parsed date with its classification.
type Candidate struct {
	Date time.Time
	Kind SourceKind
}

// Context window inspected around an absolute date match.
const (
	contextBefore = 15
	contextAfter  = 25
)

var relativePattern = regexp.MustCompile(`(?i)(\d+)\s+(day|week|month)s?\s+ago`)

// Absolute date patterns, scanned anywhere in the text without
// anchoring to keywords. Order matters only for overlap resolution:
// ISO wins over DD-MM-YYYY on the same offset.
var absolutePatterns = []struct {
	re    *regexp.Regexp
	parse func(m []string) (time.Time, bool)
}{
	{
		re: regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`),
		parse: func(m []string) (time.Time, bool) {
			return makeDate(m[1], m[2], m[3])
		},
	},
	{
		re: regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`),
		parse: func(m []string) (time.Time, bool) {
			return makeDate(m[3], m[1], m[2])
		},
	},
	{
		re: regexp.MustCompile(`\b(\d{1,2})-(\d{1,2})-(\d{4})\b`),
		parse: func(m []string) (time.Time, bool) {
			return makeDate(m[3], m[2], m[1])
		},
	},
	{
		re: regexp.MustCompile(`(?i)\b(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+(\d{1,2}),?\s+(\d{4})`),
		parse: func(m []string) (time.Time, bool) {
			return makeNamedDate(m[3], m[1], m[2])
		},
	},
	{
		re: regexp.MustCompile(`(?i)\b(\d{1,2})\s+(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?,?\s+(\d{4})`),
		parse: func(m []string) (time.Time, bool) {
			return makeNamedDate(m[3], m[2], m[1])
		},
	},
}

var monthsByPrefix = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// ExtractBest scans rowText for date candidates, keeps those falling in
// year/month and returns the highest ranked one. Relative phrases are
// resolved against now. Returns false when no candidate survives the
// month filter; callers drop the row in that case rather than guessing.
func ExtractBest(rowText string, year int, month time.Month, now time.Time) (Candidate, bool) {
	candidates := collectRelative(rowText, now)
	candidates = append(candidates, collectAbsolute(rowText)...)

	eligible := candidates[:0]
	for _, c := range candidates {
		if c.Date.Year() == year && c.Date.Month() == month {
			eligible = append(eligible, c)
		}
	}
	if len(eligible) == 0 {
		return Candidate{}, false
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return Better(eligible[i], eligible[j])
	})
	return eligible[0], true
}

// Better reports whether a should be selected over b: higher priority
// first, then relative before absolute, then the later date.
func Better(a, b Candidate) bool {
	if a.Kind.Priority() != b.Kind.Priority() {
		return a.Kind.Priority() > b.Kind.Priority()
	}
	if (a.Kind == KindRelative) != (b.Kind == KindRelative) {
		return a.Kind == KindRelative
	}
	return a.Date.After(b.Date)
}

// collectRelative resolves "N day(s)/week(s)/month(s) ago" phrases.
// Months subtract calendar months, not 30-day blocks.
func collectRelative(text string, now time.Time) []Candidate {
	var out []Candidate
	for _, m := range relativePattern.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		var d time.Time
		switch strings.ToLower(m[2]) {
		case "day":
			d = now.AddDate(0, 0, -n)
		case "week":
			d = now.AddDate(0, 0, -7*n)
		case "month":
			d = now.AddDate(0, -n, 0)
		default:
			continue
		}
		out = append(out, Candidate{Date: truncateToDay(d), Kind: KindRelative})
	}
	return out
}

// collectAbsolute finds every absolute date pattern in the text and
// classifies each match by a narrow window of surrounding characters.
func collectAbsolute(text string) []Candidate {
	var out []Candidate
	seen := make(map[int]bool)

	for _, p := range absolutePatterns {
		idxs := p.re.FindAllStringSubmatchIndex(text, -1)
		for _, loc := range idxs {
			if seen[loc[0]] {
				continue
			}
			m := p.re.FindStringSubmatch(text[loc[0]:loc[1]])
			if m == nil {
				continue
			}
			d, ok := p.parse(m)
			if !ok {
				continue
			}
			seen[loc[0]] = true
			out = append(out, Candidate{
				Date: d,
				Kind: classifyContext(text, loc[0], loc[1]),
			})
		}
	}
	return out
}

// classifyContext inspects the characters around a date match for the
// keywords that reveal what the date means.
func classifyContext(text string, start, end int) SourceKind {
	lo := start - contextBefore
	if lo < 0 {
		lo = 0
	}
	hi := end + contextAfter
	if hi > len(text) {
		hi = len(text)
	}
	window := strings.ToLower(text[lo:hi])

	switch {
	case strings.Contains(window, "merge"):
		return KindMerge
	case strings.Contains(window, "approv"):
		return KindApproval
	case strings.Contains(window, "creat"), strings.Contains(window, "updat"):
		return KindCreationOrUpdate
	}
	return KindUnclear
}

// ParseAbsolute parses a value found in a structured element (datetime
// or title attribute, or element text) into a calendar date.
func ParseAbsolute(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
		"January 2, 2006",
		"Jan 2, 2006",
		"2 January 2006",
		"2 Jan 2006",
		"01/02/2006",
		"02-01-2006",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return truncateToDay(t), true
		}
	}

	// Values like "Merged on 2025-08-10" carry prose around the date.
	for _, p := range absolutePatterns {
		if m := p.re.FindStringSubmatch(value); m != nil {
			if d, ok := p.parse(m); ok {
				return d, true
			}
		}
	}
	return time.Time{}, false
}

func makeDate(year, month, day string) (time.Time, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return time.Time{}, false
	}
	mo, err := strconv.Atoi(month)
	if err != nil || mo < 1 || mo > 12 {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	// Reject rollovers like February 30.
	if t.Day() != d || t.Month() != time.Month(mo) {
		return time.Time{}, false
	}
	return t, true
}

func makeNamedDate(year, month, day string) (time.Time, bool) {
	mo, ok := monthsByPrefix[strings.ToLower(month)[:3]]
	if !ok {
		return time.Time{}, false
	}
	return makeDate(year, strconv.Itoa(int(mo)), day)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
