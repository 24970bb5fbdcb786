// Package models holds the data exchanged between the checking workflow,
// the renderer and the hosts.
package models

import "time"

// Target is a guidance profile offered by the server.
type Target struct {
	ID          string `json:"id" yaml:"id"`
	DisplayName string `json:"displayName" yaml:"display_name"`
}

// String returns the display name, or the id when no name is known.
func (t Target) String() string {
	if t.DisplayName != "" {
		return t.DisplayName
	}
	return t.ID
}

// IsZero reports whether t carries no id.
func (t Target) IsZero() bool {
	return t.ID == ""
}

// Range is a partial-check region in 1-based offsets, Begin inclusive and
// End exclusive, as hosts report selections.
type Range struct {
	Begin int `json:"begin"`
	End   int `json:"end"`
}

// ZeroBased converts r to the 0-based offsets the server expects.
func (r Range) ZeroBased() Range {
	return Range{Begin: r.Begin - 1, End: r.End - 1}
}

// Valid reports whether r is a non-empty 1-based range.
func (r Range) Valid() bool {
	return r.Begin >= 1 && r.End > r.Begin
}

// CheckJob tracks one submitted check while it is polled.
type CheckJob struct {
	ID           string
	ResultURL    string
	CancelURL    string
	AttemptsMade int
	MaxAttempts  int
	Interval     time.Duration
}

// Exhausted reports whether no attempts remain.
func (j CheckJob) Exhausted() bool {
	return j.AttemptsMade >= j.MaxAttempts
}

// Match is one positional match of an issue, in 0-based server offsets
// with End exclusive.
type Match struct {
	Begin int    `json:"originalBegin"`
	End   int    `json:"originalEnd"`
	Text  string `json:"originalPart"`
}

// SubIssue is a nested issue whose display name can stand in for guidance.
type SubIssue struct {
	DisplayNameHTML string `json:"displayNameHtml"`
}

// Issue is one reported problem in the checked text.
type Issue struct {
	DisplayNameHTML string     `json:"displayNameHtml"`
	GuidanceHTML    string     `json:"guidanceHtml"`
	GoalID          string     `json:"goalId"`
	IssueType       string     `json:"issueType"`
	SubIssues       []SubIssue `json:"subIssues"`
	Matches         []Match    `json:"matches"`
	Suggestions     []string   `json:"suggestions"`
}

// SortOffset is the begin offset of the first match, or 0 without positions.
func (i Issue) SortOffset() int {
	if len(i.Matches) == 0 {
		return 0
	}
	return i.Matches[0].Begin
}

// Span returns [first.Begin, last.End] and whether the issue has positions.
func (i Issue) Span() (begin, end int, ok bool) {
	if len(i.Matches) == 0 {
		return 0, 0, false
	}
	return i.Matches[0].Begin, i.Matches[len(i.Matches)-1].End, true
}

// Goal is a quality goal with the number of issues filed against it.
type Goal struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Color       string `json:"color"`
	IssueCount  int    `json:"issues"`
}

// Result is the payload of a finished check.
type Result struct {
	Score        int
	Status       string
	Goals        []Goal
	Issues       []Issue
	ScorecardURL string
}
