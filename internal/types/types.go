package types

import "time"

// ScopeKind selects how the archive search is bounded in time
type ScopeKind int

const (
	// Unbounded searches the whole archive ("period=whenever")
	Unbounded ScopeKind = iota
	// Custom searches between Start and End inclusive
	Custom
)

// DateLayout is the YYYY-MM-DD format the archive expects for custom ranges
const DateLayout = "2006-01-02"

// Scope is the time-range part of a query
type Scope struct {
	Kind  ScopeKind
	Start time.Time
	End   time.Time
}

// AnyTime returns the unbounded scope
func AnyTime() Scope {
	return Scope{Kind: Unbounded}
}

// Between returns a custom scope. Callers validate start <= end.
func Between(start, end time.Time) Scope {
	return Scope{Kind: Custom, Start: start, End: end}
}

// String renders the scope the way it is shown to the user
func (s Scope) String() string {
	if s.Kind == Custom {
		return s.Start.Format(DateLayout) + ".." + s.End.Format(DateLayout)
	}
	return "any"
}

// QueryDescriptor is the immutable description of one archive search.
// Both the probing and harvesting sessions navigate to URL.
type QueryDescriptor struct {
	Term     string
	Category string
	Scope    Scope
	URL      string
}

// SafeLoadCount is how many "load more" clicks a fresh session can perform
// without collapsing the results view
type SafeLoadCount int

// ClampSafeLoadCount maps a raw probe result (clicks observed minus one) to
// a usable count. A probe that never saw the control yields -1.
func ClampSafeLoadCount(n int) SafeLoadCount {
	if n < 0 {
		return 0
	}
	return SafeLoadCount(n)
}

// HeadlineRecord is one harvested result row. Index is a dense counter over
// successful extractions, starting at 1.
type HeadlineRecord struct {
	Index       int    `json:"index"`
	PublishedAt string `json:"published"`
	Headline    string `json:"headline"`
}

// Input is everything the user supplies for one run
type Input struct {
	Term   string
	Wanted int
	Scope  Scope
}
