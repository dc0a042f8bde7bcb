package config

import (
	"fmt"
	"strings"
)

func join(parts ...string) string {
	return strings.Join(parts, " > ")
}

// LoadMoreSelector locates the "load more" control
func (l Layout) LoadMoreSelector() string {
	return join(l.ResultsRoot, l.LoadMore)
}

// ArticlesSelector matches every rendered result
func (l Layout) ArticlesSelector() string {
	return join(l.ResultsRoot, l.Article)
}

// ArticleSelector matches the result at a 1-based position
func (l Layout) ArticleSelector(index int) string {
	return fmt.Sprintf("%s:nth-of-type(%d)", l.ArticlesSelector(), index)
}

// HeadlineSelectors returns the headline patterns for one result, in
// priority order
func (l Layout) HeadlineSelectors(index int) []string {
	return l.relative(index, l.HeadlinePatterns)
}

// PublishedSelectors returns the publication time slots for one result, in
// priority order
func (l Layout) PublishedSelectors(index int) []string {
	return l.relative(index, l.PublishedPatterns)
}

func (l Layout) relative(index int, patterns []string) []string {
	article := l.ArticleSelector(index)
	out := make([]string, len(patterns))
	for i, p := range patterns {
		out[i] = join(article, p)
	}
	return out
}
