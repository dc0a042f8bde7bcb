// Package prompt collects search input interactively
package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tcnksm/go-input"

	"github.com/go-scripts/headlines/internal/query"
	"github.com/go-scripts/headlines/internal/types"
)

// Prompt asks for the search term, headline count and time period until
// each answer is valid
type Prompt struct {
	UI *input.UI
}

// New returns a Prompt on stdin/stdout
func New() *Prompt {
	return &Prompt{UI: input.DefaultUI()}
}

// Collect implements crawler.Collector
func (p *Prompt) Collect(ctx context.Context) (types.Input, error) {
	term, err := p.UI.Ask("Search term:", &input.Options{
		Required:  true,
		Loop:      true,
		HideOrder: true,
		ValidateFunc: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("%w: search term is empty", query.ErrInvalidInput)
			}
			return nil
		},
	})
	if err != nil {
		return types.Input{}, err
	}

	countStr, err := p.UI.Ask("How many headlines:", &input.Options{
		Required:  true,
		Loop:      true,
		HideOrder: true,
		ValidateFunc: func(s string) error {
			_, err := query.ParseCount(s)
			return err
		},
	})
	if err != nil {
		return types.Input{}, err
	}
	wanted, err := query.ParseCount(countStr)
	if err != nil {
		return types.Input{}, err
	}

	scope, err := p.scope(ctx)
	if err != nil {
		return types.Input{}, err
	}

	in := types.Input{Term: strings.TrimSpace(term), Wanted: wanted, Scope: scope}
	return in, query.Validate(in)
}

func (p *Prompt) scope(ctx context.Context) (types.Scope, error) {
	mode, err := p.UI.Ask("Time period (Any/Custom):", &input.Options{
		Default:   "Any",
		Loop:      true,
		HideOrder: true,
		ValidateFunc: func(s string) error {
			_, err := query.ParseScope(s, "1970-01-01", "1970-01-01")
			return err
		},
	})
	if err != nil {
		return types.Scope{}, err
	}
	if !strings.EqualFold(strings.TrimSpace(mode), "custom") {
		return types.AnyTime(), nil
	}

	date := &input.Options{
		Required:  true,
		Loop:      true,
		HideOrder: true,
		ValidateFunc: func(s string) error {
			_, err := query.ParseDate(s)
			return err
		},
	}

	for {
		if err := ctx.Err(); err != nil {
			return types.Scope{}, err
		}

		start, err := p.UI.Ask("Start date (YYYY-MM-DD):", date)
		if err != nil {
			return types.Scope{}, err
		}
		end, err := p.UI.Ask("End date (YYYY-MM-DD):", date)
		if err != nil {
			return types.Scope{}, err
		}

		scope, err := query.ParseScope(mode, start, end)
		if errors.Is(err, query.ErrInvalidInput) {
			fmt.Fprintf(p.UI.Writer, "%s\n\n", err)
			continue
		}
		return scope, err
	}
}
