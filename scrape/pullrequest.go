package scrape

import "time"

// WorkType labels a pull request as feature or bug work, derived from
// naming conventions on the title and source branch.
type WorkType string

const (
	WorkFeature WorkType = "Feature"
	WorkBug     WorkType = "Bug"
)

// NoTicket is the sentinel ticket value when no tracker reference was
// found in the branch, title or row text.
const NoTicket = "no ticket found"

// PullRequest is one merged pull request detected on the list page,
// scoped to the scan's target month. Immutable after ParseRow builds it.
type PullRequest struct {
	MergeDate time.Time
	Type      WorkType
	Ticket    string
	Title     string
}

// Key returns a stable identity used for de-duplication across pages.
func (pr PullRequest) Key() string {
	return pr.MergeDate.Format("2006-01-02") + "|" + string(pr.Type) + "|" + pr.Ticket + "|" + pr.Title
}
