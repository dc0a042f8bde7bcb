// Package query turns a search term and time range into the archive URL
// that both browser sessions navigate to, and validates user input before
// it gets that far.
package query

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-scripts/headlines/internal/types"
)

const (
	DefaultBaseURL  = "https://www.hs.fi"
	DefaultCategory = "kaikki"
	searchPath      = "/haku/"
)

// ErrInvalidInput is wrapped by every input validation failure
var ErrInvalidInput = errors.New("invalid input")

// Build returns the canonical descriptor for a search. It is a pure function:
// identical arguments always produce an identical URL.
func Build(baseURL, term, category string, scope types.Scope) types.QueryDescriptor {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if category == "" {
		category = DefaultCategory
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(baseURL, "/"))
	b.WriteString(searchPath)
	b.WriteString("?query=")
	b.WriteString(url.QueryEscape(term))
	b.WriteString("&category=")
	b.WriteString(url.QueryEscape(category))

	switch scope.Kind {
	case types.Custom:
		b.WriteString("&period=custom&order=new&startDate=")
		b.WriteString(scope.Start.Format(types.DateLayout))
		b.WriteString("&endDate=")
		b.WriteString(scope.End.Format(types.DateLayout))
	default:
		b.WriteString("&period=whenever")
	}

	return types.QueryDescriptor{
		Term:     term,
		Category: category,
		Scope:    scope,
		URL:      b.String(),
	}
}

// ParseScope interprets the time-range mode ("any" or "custom", any case)
// and, for custom ranges, the YYYY-MM-DD start and end dates.
func ParseScope(mode, start, end string) (types.Scope, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "any", "":
		return types.AnyTime(), nil
	case "custom":
	default:
		return types.Scope{}, fmt.Errorf("%w: time period must be 'Any' or 'Custom', got %q", ErrInvalidInput, mode)
	}

	from, err := ParseDate(start)
	if err != nil {
		return types.Scope{}, fmt.Errorf("start date: %w", err)
	}
	to, err := ParseDate(end)
	if err != nil {
		return types.Scope{}, fmt.Errorf("end date: %w", err)
	}
	if from.After(to) {
		return types.Scope{}, fmt.Errorf("%w: start date %s is after end date %s",
			ErrInvalidInput, from.Format(types.DateLayout), to.Format(types.DateLayout))
	}

	return types.Between(from, to), nil
}

// ParseDate parses a single YYYY-MM-DD date
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: date is empty (format YYYY-MM-DD)", ErrInvalidInput)
	}
	t, err := time.Parse(types.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a YYYY-MM-DD date", ErrInvalidInput, s)
	}
	return t, nil
}

// ParseCount parses the desired number of headlines
func ParseCount(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidInput, s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: headline count must be positive, got %d", ErrInvalidInput, n)
	}
	return n, nil
}

// Validate checks a fully collected input
func Validate(in types.Input) error {
	if strings.TrimSpace(in.Term) == "" {
		return fmt.Errorf("%w: search term is empty", ErrInvalidInput)
	}
	if in.Wanted <= 0 {
		return fmt.Errorf("%w: headline count must be positive, got %d", ErrInvalidInput, in.Wanted)
	}
	if in.Scope.Kind == types.Custom && in.Scope.Start.After(in.Scope.End) {
		return fmt.Errorf("%w: start date is after end date", ErrInvalidInput)
	}
	return nil
}
