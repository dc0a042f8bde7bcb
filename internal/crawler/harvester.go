package crawler

import (
	"context"
	"fmt"
	"os"

	"github.com/go-scripts/headlines/internal/browser"
	"github.com/go-scripts/headlines/internal/config"
	"github.com/go-scripts/headlines/internal/types"
)

// Result is the outcome of one harvest
type Result struct {
	Records []types.HeadlineRecord
	// Scanned is the number of DOM positions visited
	Scanned int
	Wanted  int
	// Exhausted is set when the results list ended before Wanted records
	// were collected
	Exhausted bool
}

// Short reports whether fewer records than wanted were collected
func (r Result) Short() bool {
	return len(r.Records) < r.Wanted
}

// Harvester replays a proven-safe number of clicks on a fresh session and
// extracts records from the expanded results
type Harvester struct {
	Opener  browser.Opener
	Layout  config.Layout
	Options Options
}

// Harvest collects up to wanted records. Positions without a headline are
// skipped and do not consume an index. Scanning stops at the scan limit or
// at the end of the list; neither is an error.
func (h *Harvester) Harvest(ctx context.Context, d types.QueryDescriptor, safe types.SafeLoadCount, wanted int) (Result, error) {
	opts := h.Options.withDefaults()
	logger := opts.Logger.WithPrefix(string(PhaseHarvesting))
	res := Result{Wanted: wanted}

	opts.Observer.PhaseStarted(PhaseHarvesting)
	defer opts.Observer.PhaseDone(PhaseHarvesting)

	s, err := openAt(ctx, h.Opener, d.URL, opts)
	if err != nil {
		return res, err
	}
	defer closeSession(s, logger)

	loadMore := h.Layout.LoadMoreSelector()
	articles := h.Layout.ArticlesSelector()
	first := h.Layout.ArticleSelector(1)

	if err := awaitReady(ctx, s, opts, loadMore, first); err != nil {
		return res, err
	}

	for clicks := 0; clicks < int(safe); clicks++ {
		el, ok, err := s.Find(ctx, loadMore)
		if err != nil {
			return res, err
		}
		if !ok {
			logger.Warn("load-more control missing during replay, continuing with what is loaded",
				"clicks", clicks, "expected", int(safe))
			break
		}
		if err := clickLoadMore(ctx, s, opts, el, articles, first); err != nil {
			return res, err
		}
		opts.Observer.Clicked(PhaseHarvesting, clicks+1)
	}

	if opts.SnapshotPath != "" {
		if err := saveSnapshot(ctx, s, opts.SnapshotPath); err != nil {
			logger.Warn("failed to save snapshot", "path", opts.SnapshotPath, "err", err)
		} else {
			logger.Info("saved results snapshot", "path", opts.SnapshotPath)
		}
	}

	extractor := Extractor{Layout: h.Layout}
	limit := opts.scanLimit(wanted)

	for pos := 1; len(res.Records) < wanted; pos++ {
		if pos > limit {
			logger.Warn("scan limit reached", "limit", limit, "collected", len(res.Records), "wanted", wanted)
			break
		}

		present, err := browser.Settle(ctx, opts.Settle, browser.Present(s, h.Layout.ArticleSelector(pos)))
		if err != nil {
			return res, err
		}
		if !present {
			res.Exhausted = true
			logger.Info("end of results", "position", pos, "collected", len(res.Records))
			break
		}
		res.Scanned = pos

		x, ok, err := extractor.Extract(ctx, s, pos)
		if err != nil {
			return res, err
		}
		if !ok {
			logger.Debug("no headline at position, skipping", "position", pos)
			continue
		}

		res.Records = append(res.Records, types.HeadlineRecord{
			Index:       len(res.Records) + 1,
			PublishedAt: x.PublishedAt,
			Headline:    x.Headline,
		})
		opts.Observer.Collected(len(res.Records), wanted)
	}

	return res, nil
}

func saveSnapshot(ctx context.Context, s browser.Session, path string) error {
	html, err := s.OuterHTML(ctx)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}
