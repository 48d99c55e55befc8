package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExtractBest_MergeContextWins(t *testing.T) {
	text := "DEP-6001: Test PR merged 2025-08-10 approved 2025-08-09"
	now := day(2025, time.August, 15)

	c, ok := ExtractBest(text, 2025, time.August, now)
	require.True(t, ok)
	require.Equal(t, day(2025, time.August, 10), c.Date)
	require.Equal(t, KindMerge, c.Kind)
}

func TestExtractBest_RelativeBeatsApproval(t *testing.T) {
	text := "DEP-6004: Test PR Alex approved 2025-08-12 Bob approved 2025-08-11 3 days ago"
	now := day(2025, time.August, 15)

	c, ok := ExtractBest(text, 2025, time.August, now)
	require.True(t, ok)
	require.Equal(t, day(2025, time.August, 12), c.Date)
	require.Equal(t, KindRelative, c.Kind)
}

func TestExtractBest_OutOfMonthExcluded(t *testing.T) {
	_, ok := ExtractBest("merged 2025-07-31", 2025, time.August, day(2025, time.August, 15))
	require.False(t, ok)
}

func TestExtractBest_NoDateAtAll(t *testing.T) {
	_, ok := ExtractBest("just some row text with nothing useful", 2025, time.August, day(2025, time.August, 15))
	require.False(t, ok)
}

func TestExtractBest_RelativePhrases(t *testing.T) {
	now := day(2025, time.August, 20)

	tests := []struct {
		text string
		want time.Time
	}{
		{"merged 1 day ago", day(2025, time.August, 19)},
		{"updated 5 days ago", day(2025, time.August, 15)},
		{"2 weeks ago", day(2025, time.August, 6)},
	}
	for _, tt := range tests {
		c, ok := ExtractBest(tt.text, 2025, time.August, now)
		require.True(t, ok, tt.text)
		require.Equal(t, tt.want, c.Date, tt.text)
		require.Equal(t, KindRelative, c.Kind, tt.text)
	}
}

func TestExtractBest_MonthSubtractionIsCalendar(t *testing.T) {
	// One calendar month before March 31 is not "30 days earlier".
	now := day(2025, time.March, 15)
	c, ok := ExtractBest("1 month ago", 2025, time.February, now)
	require.True(t, ok)
	require.Equal(t, time.February, c.Date.Month())
}

func TestExtractBest_AbsoluteFormats(t *testing.T) {
	now := day(2025, time.August, 28)

	tests := []struct {
		text string
		want time.Time
	}{
		{"merged on 2025-08-10 by someone", day(2025, time.August, 10)},
		{"merged 08/09/2025", day(2025, time.August, 9)},
		{"merged 09-08-2025", day(2025, time.August, 9)},
		{"merged Aug 7, 2025", day(2025, time.August, 7)},
		{"merged August 7, 2025", day(2025, time.August, 7)},
		{"merged 7 Aug 2025", day(2025, time.August, 7)},
	}
	for _, tt := range tests {
		c, ok := ExtractBest(tt.text, 2025, time.August, now)
		require.True(t, ok, tt.text)
		require.Equal(t, tt.want, c.Date, tt.text)
		require.Equal(t, KindMerge, c.Kind, tt.text)
	}
}

func TestExtractBest_UpdatedAndCreatedAreWeak(t *testing.T) {
	now := day(2025, time.August, 28)

	// An unclassified date outranks created/updated dates.
	text := "reviewed by the team on 2025-08-03 with lots of comments, created 2025-08-01, updated 2025-08-20"
	c, ok := ExtractBest(text, 2025, time.August, now)
	require.True(t, ok)
	require.Equal(t, KindUnclear, c.Kind)
	require.Equal(t, day(2025, time.August, 3), c.Date)
}

func TestExtractBest_LaterDateWinsTies(t *testing.T) {
	now := day(2025, time.August, 28)

	text := "merged 2025-08-04 then merged again 2025-08-11"
	c, ok := ExtractBest(text, 2025, time.August, now)
	require.True(t, ok)
	require.Equal(t, day(2025, time.August, 11), c.Date)
}

func TestBetter_RankingIsExplicit(t *testing.T) {
	merge := Candidate{Date: day(2025, time.August, 1), Kind: KindMerge}
	relative := Candidate{Date: day(2025, time.August, 20), Kind: KindRelative}
	unclear := Candidate{Date: day(2025, time.August, 20), Kind: KindUnclear}
	updated := Candidate{Date: day(2025, time.August, 20), Kind: KindCreationOrUpdate}
	approved := Candidate{Date: day(2025, time.August, 20), Kind: KindApproval}

	require.True(t, Better(merge, relative))
	require.True(t, Better(relative, unclear))
	require.True(t, Better(unclear, updated))
	require.True(t, Better(updated, approved))
}

func TestExtractBest_SelectedHasMaxPriorityAmongEligible(t *testing.T) {
	now := day(2025, time.August, 28)
	text := "created 2025-08-01 approved 2025-08-02 merged 2025-08-03 something 2025-08-04"

	c, ok := ExtractBest(text, 2025, time.August, now)
	require.True(t, ok)
	require.Equal(t, KindMerge, c.Kind)
	require.Equal(t, 2025, c.Date.Year())
	require.Equal(t, time.August, c.Date.Month())
}

func TestParseAbsolute(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2025-08-10T14:03:00Z", day(2025, time.August, 10), true},
		{"2025-08-10", day(2025, time.August, 10), true},
		{"Aug 10, 2025", day(2025, time.August, 10), true},
		{"10 Aug 2025", day(2025, time.August, 10), true},
		{"Merged on 2025-08-10", day(2025, time.August, 10), true},
		{"", time.Time{}, false},
		{"not a date", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseAbsolute(tt.in)
		require.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			require.Equal(t, tt.want, got, tt.in)
		}
	}
}

func TestExtractBest_RejectsImpossibleDates(t *testing.T) {
	_, ok := ExtractBest("merged 2025-02-30", 2025, time.February, day(2025, time.February, 15))
	require.False(t, ok)
}
