package browser

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// Snapshot is a read-only Session over a parsed HTML document. It serves
// saved result pages without a browser.
type Snapshot struct {
	mu  sync.RWMutex
	doc *goquery.Document
}

// NewSnapshot wraps an already parsed document
func NewSnapshot(doc *goquery.Document) *Snapshot {
	return &Snapshot{doc: doc}
}

// SnapshotOpener opens empty snapshot sessions; Navigate then loads a file
type SnapshotOpener struct{}

func (SnapshotOpener) Open(ctx context.Context) (Session, error) {
	return &Snapshot{}, nil
}

// Load replaces the current document with the HTML read from r
func (s *Snapshot) Load(r io.Reader) error {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return fmt.Errorf("failed to parse HTML: %w", err)
	}
	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()
	return nil
}

// Navigate loads a saved page from a local path or file:// URL
func (s *Snapshot) Navigate(ctx context.Context, target string) error {
	path := strings.TrimPrefix(target, "file://")
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()
	return s.Load(f)
}

func (s *Snapshot) document() (*goquery.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}
	return s.doc, nil
}

func (s *Snapshot) Find(ctx context.Context, selector string) (Element, bool, error) {
	doc, err := s.document()
	if err != nil {
		return Element{}, false, err
	}
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return Element{}, false, nil
	}
	return Element{Selector: selector, ref: sel}, true, nil
}

func (s *Snapshot) Count(ctx context.Context, selector string) (int, error) {
	doc, err := s.document()
	if err != nil {
		return 0, err
	}
	return doc.Find(selector).Length(), nil
}

func (s *Snapshot) Click(ctx context.Context, el Element) error {
	return fmt.Errorf("click on %q: %w", el.Selector, ErrReadOnly)
}

func (s *Snapshot) Text(ctx context.Context, el Element) (string, error) {
	sel, err := snapshotSelection(el)
	if err != nil {
		return "", err
	}
	return sel.Text(), nil
}

func (s *Snapshot) Attribute(ctx context.Context, el Element, name string) (string, bool, error) {
	sel, err := snapshotSelection(el)
	if err != nil {
		return "", false, err
	}
	value, ok := sel.Attr(name)
	return value, ok, nil
}

func (s *Snapshot) OuterHTML(ctx context.Context) (string, error) {
	doc, err := s.document()
	if err != nil {
		return "", err
	}
	return doc.Html()
}

func (s *Snapshot) Close() error {
	return nil
}

func snapshotSelection(el Element) (*goquery.Selection, error) {
	sel, ok := el.ref.(*goquery.Selection)
	if !ok || sel == nil {
		return nil, fmt.Errorf("element %q does not belong to a snapshot", el.Selector)
	}
	return sel, nil
}
