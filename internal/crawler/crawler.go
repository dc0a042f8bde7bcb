// Package crawler drives the archive search in two independent browser
// sessions: a disposable one that counts how far the results can be paged
// before the view collapses, and a second one that pages exactly that far
// and extracts headlines.
package crawler

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"

	"github.com/go-scripts/headlines/internal/browser"
)

// Options holds the settings shared by the prober and the harvester
type Options struct {
	// Settle bounds every wait for the page: after navigation, after each
	// "load more" click and before each extraction
	Settle      browser.SettleOptions
	NavTimeout  time.Duration
	MaxLoadMore int
	// ScanLimit caps the DOM positions the harvester visits; 0 means
	// 2*wanted + 20
	ScanLimit     int
	Retries       int
	RetryInterval time.Duration
	// SnapshotPath, when set, receives the rendered results page after paging
	SnapshotPath string
	Logger       *log.Logger
	Observer     Observer
}

// DefaultOptions mirrors the timings the archive needs in practice
func DefaultOptions() Options {
	return Options{
		Settle: browser.SettleOptions{
			Timeout:  3 * time.Second,
			Interval: 250 * time.Millisecond,
		},
		NavTimeout:    45 * time.Second,
		MaxLoadMore:   500,
		Retries:       2,
		RetryInterval: time.Second,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Settle.Timeout <= 0 {
		o.Settle = d.Settle
	}
	if o.NavTimeout <= 0 {
		o.NavTimeout = d.NavTimeout
	}
	if o.MaxLoadMore <= 0 {
		o.MaxLoadMore = d.MaxLoadMore
	}
	if o.Retries < 0 {
		o.Retries = 0
	}
	if o.RetryInterval <= 0 {
		o.RetryInterval = d.RetryInterval
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	if o.Observer == nil {
		o.Observer = NopObserver{}
	}
	return o
}

// scanLimit returns how many DOM positions may be visited for wanted records
func (o Options) scanLimit(wanted int) int {
	if o.ScanLimit > 0 {
		return o.ScanLimit
	}
	if wanted > (math.MaxInt-20)/2 {
		return math.MaxInt
	}
	return 2*wanted + 20
}

// Observer receives progress notifications
type Observer interface {
	PhaseStarted(phase Phase)
	Clicked(phase Phase, clicks int)
	Collected(collected, wanted int)
	PhaseDone(phase Phase)
}

// NopObserver ignores every notification
type NopObserver struct{}

func (NopObserver) PhaseStarted(Phase) {}
func (NopObserver) Clicked(Phase, int) {}
func (NopObserver) Collected(int, int) {}
func (NopObserver) PhaseDone(Phase)    {}

// openAt opens a fresh session and navigates it to url, retrying with
// exponential backoff. A session that fails to navigate is closed before the
// next attempt.
func openAt(ctx context.Context, opener browser.Opener, url string, opts Options) (browser.Session, error) {
	var session browser.Session

	attempt := func() error {
		s, err := opener.Open(ctx)
		if err != nil {
			return fmt.Errorf("failed to open session: %w", err)
		}

		navCtx, cancel := context.WithTimeout(ctx, opts.NavTimeout)
		defer cancel()

		if err := s.Navigate(navCtx, url); err != nil {
			closeSession(s, opts.Logger)
			return err
		}

		session = s
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = opts.RetryInterval
	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(opts.Retries)), ctx)

	notify := func(err error, wait time.Duration) {
		opts.Logger.Warn("session attempt failed, retrying", "err", err, "wait", wait)
	}

	if err := backoff.RetryNotify(attempt, b, notify); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	return session, nil
}

func closeSession(s browser.Session, logger *log.Logger) {
	if err := s.Close(); err != nil {
		logger.Warn("failed to close browser session", "err", err)
	}
}

// awaitReady waits until the results view shows either the load-more
// control or the first result
func awaitReady(ctx context.Context, s browser.Session, opts Options, loadMore, first string) error {
	ok, err := browser.Settle(ctx, opts.Settle, browser.Any(
		browser.Present(s, loadMore),
		browser.Present(s, first),
	))
	if err != nil {
		return err
	}
	if !ok {
		opts.Logger.Debug("results did not render before settle timeout", "timeout", opts.Settle.Timeout)
	}
	return nil
}

// clickLoadMore clicks the control and waits until the results list grows
// or collapses
func clickLoadMore(ctx context.Context, s browser.Session, opts Options, el browser.Element, articles, first string) error {
	before, err := s.Count(ctx, articles)
	if err != nil {
		return err
	}

	if err := s.Click(ctx, el); err != nil {
		return err
	}

	grown := func(ctx context.Context) (bool, error) {
		n, err := s.Count(ctx, articles)
		return n > before, err
	}

	_, err = browser.Settle(ctx, opts.Settle, browser.Any(grown, browser.Absent(s, first)))
	return err
}
