package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pr-timeline/scrape"
	"pr-timeline/timeline"
)

func entry(d time.Time, typ scrape.WorkType, status timeline.Status, ticket, title string) timeline.Entry {
	return timeline.Entry{Date: d, Type: typ, Status: status, Ticket: ticket, Title: title}
}

func day(d int) time.Time {
	return time.Date(2025, time.August, d, 0, 0, 0, 0, time.UTC)
}

func TestFormat_SingleEntry(t *testing.T) {
	out := Format([]timeline.Entry{
		entry(day(5), scrape.WorkFeature, timeline.StatusDone, "DEP-1", "Add dashboard"),
	})
	require.Equal(t, "(August 5, Tuesday) D: [Feature] DEP-1 Add dashboard", out)
}

func TestFormat_OmitsSentinelTicket(t *testing.T) {
	out := Format([]timeline.Entry{
		entry(day(5), scrape.WorkBug, timeline.StatusInProgress, scrape.NoTicket, "Fix flaky build"),
	})
	require.Equal(t, "(August 5, Tuesday) P: [Bug] Fix flaky build", out)
}

func TestFormat_GroupsConsecutiveSameDates(t *testing.T) {
	out := Format([]timeline.Entry{
		entry(day(6), scrape.WorkFeature, timeline.StatusDone, "DEP-2", "Ship search"),
		entry(day(6), scrape.WorkBug, timeline.StatusInProgress, "DEP-3", "Fix pager"),
		entry(day(5), scrape.WorkFeature, timeline.StatusDone, "DEP-1", "Add dashboard"),
	})

	want := strings.Join([]string{
		"(August 6, Wednesday) D: [Feature] DEP-2 Ship search",
		"P: [Bug] DEP-3 Fix pager",
		"",
		"(August 5, Tuesday) D: [Feature] DEP-1 Add dashboard",
	}, "\n")
	require.Equal(t, want, out)
}

func TestFormat_CollapsesIdenticalRenderedLines(t *testing.T) {
	e := entry(day(6), scrape.WorkFeature, timeline.StatusInProgress, "DEP-2", "Ship search")
	out := Format([]timeline.Entry{e, e, e})
	require.Equal(t, "(August 6, Wednesday) P: [Feature] DEP-2 Ship search", out)
}

func TestFormat_Empty(t *testing.T) {
	require.Equal(t, "", Format(nil))
}

// Re-splitting the output on the date tags must reproduce each date
// exactly once.
func TestFormat_EachDateTaggedExactlyOnce(t *testing.T) {
	entries := []timeline.Entry{
		entry(day(8), scrape.WorkFeature, timeline.StatusDone, "DEP-4", "D"),
		entry(day(7), scrape.WorkFeature, timeline.StatusInProgress, "DEP-4", "D"),
		entry(day(7), scrape.WorkBug, timeline.StatusDone, "DEP-5", "E"),
		entry(day(6), scrape.WorkFeature, timeline.StatusInProgress, "DEP-4", "D"),
		entry(day(5), scrape.WorkFeature, timeline.StatusDone, "DEP-6", "F"),
	}

	out := Format(entries)
	groups := strings.Split(out, "\n\n")
	require.Len(t, groups, 4)

	seenTags := map[string]int{}
	for _, g := range groups {
		lines := strings.Split(g, "\n")
		require.True(t, strings.HasPrefix(lines[0], "("), "group head must carry a date tag: %q", lines[0])
		tag := lines[0][:strings.Index(lines[0], ")")+1]
		seenTags[tag]++
		for _, rest := range lines[1:] {
			require.False(t, strings.HasPrefix(rest, "("), "only the group head carries a tag: %q", rest)
		}
	}
	for tag, n := range seenTags {
		require.Equal(t, 1, n, "date tag %s repeated", tag)
	}
}
