// Package timeline turns discrete merge events into a continuous
// daily work record: progress entries for the weekdays leading up to
// each merge and a done entry on the merge day itself.
package timeline

import (
	"sort"
	"time"

	"pr-timeline/scrape"
)

// Status marks an entry as ongoing work or a completion.
type Status int

const (
	StatusInProgress Status = iota
	StatusDone
)

// Marker returns the short prefix used in the rendered report.
func (s Status) Marker() string {
	if s == StatusDone {
		return "D:"
	}
	return "P:"
}

// Entry is one line of the final timeline.
type Entry struct {
	Date   time.Time
	Type   scrape.WorkType
	Status Status
	Ticket string
	Title  string
}

// Dedupe collapses identical records, keeping first-seen order.
// Applying it twice changes nothing.
func Dedupe(prs []scrape.PullRequest) []scrape.PullRequest {
	seen := make(map[string]bool, len(prs))
	out := make([]scrape.PullRequest, 0, len(prs))
	for _, pr := range prs {
		if seen[pr.Key()] {
			continue
		}
		seen[pr.Key()] = true
		out = append(out, pr)
	}
	return out
}

// Synthesize builds the gapless weekday timeline from merge records.
// For the earliest record, progress entries run from the 1st of its
// month up to (not including) its merge date; for each later record,
// from the previous record's date (exclusive) to its own (exclusive).
// A done entry lands on each record's own date, weekdays only: a merge
// that happened on a weekend produces no done entry at all. The result
// is ordered newest first, same-date entries keeping insertion order.
func Synthesize(prs []scrape.PullRequest) []Entry {
	records := Dedupe(prs)
	if len(records) == 0 {
		return nil
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].MergeDate.Before(records[j].MergeDate)
	})

	var entries []Entry

	first := records[0]
	monthStart := time.Date(first.MergeDate.Year(), first.MergeDate.Month(), 1, 0, 0, 0, 0, time.UTC)
	entries = append(entries, progressBetween(monthStart, first.MergeDate, first)...)

	for i := 1; i < len(records); i++ {
		entries = append(entries, progressBetween(records[i-1].MergeDate, records[i].MergeDate, records[i])...)
	}

	for _, pr := range records {
		if isWeekend(pr.MergeDate) {
			continue
		}
		entries = append(entries, Entry{
			Date:   pr.MergeDate,
			Type:   pr.Type,
			Status: StatusDone,
			Ticket: pr.Ticket,
			Title:  pr.Title,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.After(entries[j].Date)
	})
	return entries
}

// progressBetween emits one in-progress entry per weekday strictly
// between after and before, carrying the upcoming record's identity.
func progressBetween(after, before time.Time, pr scrape.PullRequest) []Entry {
	var entries []Entry
	for d := after.AddDate(0, 0, 1); d.Before(before); d = d.AddDate(0, 0, 1) {
		if isWeekend(d) {
			continue
		}
		entries = append(entries, Entry{
			Date:   d,
			Type:   pr.Type,
			Status: StatusInProgress,
			Ticket: pr.Ticket,
			Title:  pr.Title,
		})
	}
	return entries
}

func isWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
