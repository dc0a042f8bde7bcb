package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-scripts/headlines/internal/browser"
	"github.com/go-scripts/headlines/internal/config"
)

type pattern int

const (
	patA pattern = iota
	patB
	patC
	patD
	patNone
)

type item struct {
	kind      pattern
	headline  string
	published string
	// slot is the publication time slot, 0 for none
	slot int
}

func (it item) html() string {
	var head string
	switch it.kind {
	case patA:
		head = `<div></div><div><h2><span>Kotimaa</span><span>` + it.headline + `</span></h2></div>`
	case patB:
		head = `<div></div><div><h2><span>` + it.headline + `</span></h2></div>`
	case patC:
		head = `<div><h2><span>Ulkomaat</span><span>` + it.headline + `</span></h2></div>`
	case patD:
		head = `<div><h2><span>` + it.headline + `</span></h2></div>`
	default:
		head = `<div><p>Mainos</p></div>`
	}

	var when string
	switch it.slot {
	case 1:
		when = `<div><div><time datetime="` + it.published + `">x</time></div></div>`
	case 2:
		when = `<div><div></div><div><time datetime="` + it.published + `">x</time></div></div>`
	default:
		when = `<div><div></div></div>`
	}

	return `<article><a href="#"><section><div>` + head + `</div>` + when + `</section></a></article>`
}

func validItems(kind pattern, n int) []item {
	items := make([]item, n)
	for i := range items {
		items[i] = item{
			kind:      kind,
			headline:  fmt.Sprintf("Headline %d", i+1),
			published: fmt.Sprintf("2024-01-%02dT08:00:00.000Z", i+1),
			slot:      1,
		}
	}
	return items
}

// fakeArchive serves a results page that loads perPage more items per
// click and empties itself on click number collapseAt. With collapseAt 0
// the control is never shown.
type fakeArchive struct {
	mu         sync.Mutex
	collapseAt int
	perPage    int
	items      []item

	failOpens int
	failNavs  int

	opened    int
	open      int
	collapses int
	urls      []string
}

func (a *fakeArchive) Open(ctx context.Context) (browser.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failOpens > 0 {
		a.failOpens--
		return nil, errors.New("chrome failed to start")
	}
	a.opened++
	a.open++
	return &fakeSession{Snapshot: &browser.Snapshot{}, archive: a}, nil
}

func (a *fakeArchive) openSessions() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.open
}

type fakeSession struct {
	*browser.Snapshot
	archive   *fakeArchive
	clicks    int
	collapsed bool
	closed    bool
}

func (s *fakeSession) Navigate(ctx context.Context, url string) error {
	a := s.archive
	a.mu.Lock()
	a.urls = append(a.urls, url)
	if a.failNavs > 0 {
		a.failNavs--
		a.mu.Unlock()
		return errors.New("net::ERR_CONNECTION_RESET")
	}
	a.mu.Unlock()

	s.clicks = 0
	s.collapsed = false
	return s.render()
}

func (s *fakeSession) Click(ctx context.Context, el browser.Element) error {
	if !strings.HasSuffix(el.Selector, "div > button") {
		return fmt.Errorf("unexpected click on %q", el.Selector)
	}
	s.clicks++
	if s.clicks >= s.archive.collapseAt {
		s.collapsed = true
		s.archive.mu.Lock()
		s.archive.collapses++
		s.archive.mu.Unlock()
	}
	return s.render()
}

func (s *fakeSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.archive.mu.Lock()
	s.archive.open--
	s.archive.mu.Unlock()
	return nil
}

func (s *fakeSession) render() error {
	var results strings.Builder
	if !s.collapsed {
		visible := min(len(s.archive.items), s.archive.perPage*(s.clicks+1))
		for _, it := range s.archive.items[:visible] {
			results.WriteString(it.html())
		}
		if s.clicks < s.archive.collapseAt {
			results.WriteString(`<div><button>Näytä lisää</button></div>`)
		}
	}
	return s.Load(strings.NewReader(page(results.String())))
}

// page nests the results the way the archive does so the default layout
// resolves against it
func page(results string) string {
	return `<html><body><div>` +
		`<div></div><div>` +
		`<div></div><div></div><div>` +
		`<div><div></div><div>` +
		`<main><section></section><section></section><section></section><section>` +
		`<section><div></div><div><section>` + results + `</section></div></section>` +
		`</section></main>` +
		`</div></div>` +
		`</div></div></div></body></html>`
}

// recordingSession logs every lookup made through it
type recordingSession struct {
	browser.Session
	finds []string
}

func (r *recordingSession) Find(ctx context.Context, selector string) (browser.Element, bool, error) {
	r.finds = append(r.finds, selector)
	return r.Session.Find(ctx, selector)
}

type recordingObserver struct {
	mu        sync.Mutex
	started   []Phase
	done      []Phase
	clicks    map[Phase]int
	collected int
}

func (o *recordingObserver) PhaseStarted(p Phase) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = append(o.started, p)
}

func (o *recordingObserver) Clicked(p Phase, n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.clicks == nil {
		o.clicks = map[Phase]int{}
	}
	o.clicks[p] = n
}

func (o *recordingObserver) Collected(n, wanted int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.collected = n
}

func (o *recordingObserver) PhaseDone(p Phase) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.done = append(o.done, p)
}

func testOptions() Options {
	return Options{
		Settle: browser.SettleOptions{
			Timeout:  20 * time.Millisecond,
			Interval: time.Millisecond,
		},
		NavTimeout:    time.Second,
		RetryInterval: time.Millisecond,
	}
}

var testLayout = config.DefaultLayout()
