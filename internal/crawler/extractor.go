package crawler

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-scripts/headlines/internal/browser"
	"github.com/go-scripts/headlines/internal/config"
)

// Extracted holds the fields read from one result
type Extracted struct {
	Headline    string
	PublishedAt string
}

// Extractor reads headline and publication time from a rendered result
type Extractor struct {
	Layout config.Layout
}

// Extract reads the result at a 1-based DOM position. ok is false when no
// headline pattern matches; the timestamp is not looked up in that case. A
// headline without any publication time is an error wrapping
// ErrPublishedMissing.
func (x Extractor) Extract(ctx context.Context, s browser.Session, index int) (Extracted, bool, error) {
	headline, ok, err := x.headline(ctx, s, index)
	if err != nil || !ok {
		return Extracted{}, false, err
	}

	published, err := x.published(ctx, s, index)
	if err != nil {
		return Extracted{}, false, err
	}

	return Extracted{Headline: headline, PublishedAt: published}, true, nil
}

func (x Extractor) headline(ctx context.Context, s browser.Session, index int) (string, bool, error) {
	for _, sel := range x.Layout.HeadlineSelectors(index) {
		el, ok, err := s.Find(ctx, sel)
		if err != nil {
			return "", false, err
		}
		if !ok {
			continue
		}
		text, err := s.Text(ctx, el)
		if err != nil {
			return "", false, err
		}
		return normalize(text), true, nil
	}
	return "", false, nil
}

func (x Extractor) published(ctx context.Context, s browser.Session, index int) (string, error) {
	for _, sel := range x.Layout.PublishedSelectors(index) {
		el, ok, err := s.Find(ctx, sel)
		if err != nil {
			return "", err
		}
		if !ok {
			continue
		}
		value, ok, err := s.Attribute(ctx, el, "datetime")
		if err != nil {
			return "", err
		}
		if !ok {
			continue
		}
		return value, nil
	}
	return "", fmt.Errorf("result %d: %w", index, ErrPublishedMissing)
}

// normalize collapses runs of whitespace and trims the ends
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
