// Package report renders the synthesized timeline into the final
// copy-paste text and hands it to the output sinks.
package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"

	"pr-timeline/scrape"
	"pr-timeline/timeline"
)

// Format renders entries into the report text. Consecutive entries
// sharing a date form one group: the first line carries a
// "(Month Day, Weekday)" tag, the rest do not. Lines inside a group
// are joined with single newlines, groups with a blank line.
// Identical rendered lines on the same date collapse to one.
func Format(entries []timeline.Entry) string {
	if len(entries) == 0 {
		return ""
	}

	var groups []string
	var current []string
	var currentDate string
	seen := make(map[string]bool)

	flush := func() {
		if len(current) > 0 {
			groups = append(groups, strings.Join(current, "\n"))
			current = nil
		}
	}

	for _, e := range entries {
		day := e.Date.Format("2006-01-02")
		line := renderLine(e)
		if seen[day+"|"+line] {
			continue
		}
		seen[day+"|"+line] = true

		if day != currentDate {
			flush()
			currentDate = day
			line = dateTag(e) + " " + line
		}
		current = append(current, line)
	}
	flush()

	return strings.Join(groups, "\n\n")
}

func dateTag(e timeline.Entry) string {
	return fmt.Sprintf("(%s %d, %s)", e.Date.Month(), e.Date.Day(), e.Date.Weekday())
}

func renderLine(e timeline.Entry) string {
	var b strings.Builder
	b.WriteString(e.Status.Marker())
	b.WriteString(" [")
	b.WriteString(string(e.Type))
	b.WriteString("]")
	if e.Ticket != scrape.NoTicket {
		b.WriteString(" ")
		b.WriteString(e.Ticket)
	}
	b.WriteString(" ")
	b.WriteString(e.Title)
	return b.String()
}

// CopyToClipboard places the report text on the system clipboard.
func CopyToClipboard(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("copy report to clipboard: %w", err)
	}
	return nil
}

// ExportToFile writes the report text to a file.
func ExportToFile(text, filename string) error {
	return os.WriteFile(filename, []byte(text+"\n"), 0644)
}
