package crawler

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/go-scripts/headlines/internal/browser"
	"github.com/go-scripts/headlines/internal/config"
	"github.com/go-scripts/headlines/internal/query"
	"github.com/go-scripts/headlines/internal/types"
)

// Collector supplies the user's input for one run
type Collector interface {
	Collect(ctx context.Context) (types.Input, error)
}

// Static is a Collector over a fixed input
type Static types.Input

func (s Static) Collect(ctx context.Context) (types.Input, error) {
	return types.Input(s), nil
}

// Sink persists harvested records and returns where they went
type Sink interface {
	Write(ctx context.Context, d types.QueryDescriptor, records []types.HeadlineRecord) (string, error)
}

// Report summarizes a finished run
type Report struct {
	Query  types.QueryDescriptor
	Safe   types.SafeLoadCount
	Result Result
	Output string
}

// Pipeline runs probe, harvest and write in sequence. Only one browser
// session is alive at any time.
type Pipeline struct {
	Opener   browser.Opener
	Layout   config.Layout
	BaseURL  string
	Category string
	Sink     Sink
	Options  Options
}

// Run validates in, builds the query and drives both sessions. Failures are
// returned as *PhaseError naming the stage. Records collected before a
// harvest failure are still written to the sink.
func (p *Pipeline) Run(ctx context.Context, in types.Input) (Report, error) {
	logger := p.Options.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	if err := query.Validate(in); err != nil {
		return Report{}, err
	}

	d := query.Build(p.BaseURL, in.Term, p.Category, in.Scope)
	report := Report{Query: d}
	logger.Info("searching archive", "term", d.Term, "scope", d.Scope, "url", d.URL)

	prober := &Prober{Opener: p.Opener, Layout: p.Layout, Options: p.Options}
	safe, err := prober.Probe(ctx, d)
	if err != nil {
		return report, phaseErr(PhaseProbing, err)
	}
	report.Safe = safe

	harvester := &Harvester{Opener: p.Opener, Layout: p.Layout, Options: p.Options}
	res, err := harvester.Harvest(ctx, d, safe, in.Wanted)
	report.Result = res
	if err != nil {
		if len(res.Records) > 0 && p.Sink != nil {
			if out, werr := p.Sink.Write(ctx, d, res.Records); werr != nil {
				logger.Error("failed to save partial records", "err", werr)
			} else {
				report.Output = out
				logger.Warn("harvest failed, saved partial records", "path", out, "count", len(res.Records))
			}
		}
		return report, phaseErr(PhaseHarvesting, err)
	}

	if res.Short() {
		logger.Warn("collected fewer records than requested",
			"collected", len(res.Records), "wanted", res.Wanted, "scanned", res.Scanned)
	}

	if p.Sink == nil {
		return report, nil
	}

	out, err := p.Sink.Write(ctx, d, res.Records)
	if err != nil {
		return report, phaseErr(PhaseWriting, err)
	}
	report.Output = out
	logger.Info("saved records", "path", out, "count", len(res.Records))

	return report, nil
}
