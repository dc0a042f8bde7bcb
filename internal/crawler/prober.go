package crawler

import (
	"context"

	"github.com/go-scripts/headlines/internal/browser"
	"github.com/go-scripts/headlines/internal/config"
	"github.com/go-scripts/headlines/internal/types"
)

// Prober counts how many "load more" clicks a fresh session survives
type Prober struct {
	Opener  browser.Opener
	Layout  config.Layout
	Options Options
}

// Probe drives a disposable session until the load-more control disappears
// and returns one fewer than the clicks it took. The last click is assumed
// to be the one that collapses the view; the harvesting session replays up
// to but never including it.
func (p *Prober) Probe(ctx context.Context, d types.QueryDescriptor) (types.SafeLoadCount, error) {
	opts := p.Options.withDefaults()
	logger := opts.Logger.WithPrefix(string(PhaseProbing))

	opts.Observer.PhaseStarted(PhaseProbing)
	defer opts.Observer.PhaseDone(PhaseProbing)

	s, err := openAt(ctx, p.Opener, d.URL, opts)
	if err != nil {
		return 0, err
	}
	defer closeSession(s, logger)

	loadMore := p.Layout.LoadMoreSelector()
	articles := p.Layout.ArticlesSelector()
	first := p.Layout.ArticleSelector(1)

	if err := awaitReady(ctx, s, opts, loadMore, first); err != nil {
		return 0, err
	}

	clicks := 0
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		if clicks >= opts.MaxLoadMore {
			logger.Warn("load-more limit reached without collapse", "clicks", clicks)
			return types.SafeLoadCount(clicks), nil
		}

		el, ok, err := s.Find(ctx, loadMore)
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}

		if err := clickLoadMore(ctx, s, opts, el, articles, first); err != nil {
			return 0, err
		}
		clicks++
		opts.Observer.Clicked(PhaseProbing, clicks)
		logger.Debug("clicked load more", "clicks", clicks)
	}

	safe := types.ClampSafeLoadCount(clicks - 1)
	logger.Info("probe finished", "clicks", clicks, "safe", int(safe))
	return safe, nil
}
