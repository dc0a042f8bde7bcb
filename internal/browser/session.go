// Package browser is the boundary between the crawler and whatever renders
// the archive pages: a real Chrome driven through chromedp, or a saved HTML
// snapshot parsed with goquery.
package browser

import (
	"context"
	"errors"
)

// ErrReadOnly is returned by sessions that cannot interact with the page
var ErrReadOnly = errors.New("session is read-only")

// Element is an opaque handle to a node found by a Session. It is only
// valid for the Session that returned it.
type Element struct {
	Selector string
	ref      any
}

// Session is one browser lifetime bound to a single navigation target.
// Find reports an absent element with ok=false rather than an error.
type Session interface {
	Navigate(ctx context.Context, url string) error
	Find(ctx context.Context, selector string) (el Element, ok bool, err error)
	Count(ctx context.Context, selector string) (int, error)
	Click(ctx context.Context, el Element) error
	Text(ctx context.Context, el Element) (string, error)
	Attribute(ctx context.Context, el Element, name string) (value string, ok bool, err error)
	OuterHTML(ctx context.Context) (string, error)
	Close() error
}

// Opener creates fresh, independent sessions
type Opener interface {
	Open(ctx context.Context) (Session, error)
}

// OpenerFunc adapts a function to Opener
type OpenerFunc func(ctx context.Context) (Session, error)

func (f OpenerFunc) Open(ctx context.Context) (Session, error) {
	return f(ctx)
}
