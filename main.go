package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/go-scripts/headlines/internal/browser"
	"github.com/go-scripts/headlines/internal/config"
	"github.com/go-scripts/headlines/internal/crawler"
	"github.com/go-scripts/headlines/internal/progress"
	"github.com/go-scripts/headlines/internal/prompt"
	"github.com/go-scripts/headlines/internal/query"
	"github.com/go-scripts/headlines/internal/types"
	"github.com/go-scripts/headlines/internal/writer"
)

// CLI is the command line
type CLI struct {
	Config   string `help:"Path to configuration file" default:"headlines.yaml" short:"c"`
	LogLevel string `help:"Log level (debug, info, warn, error)" name:"log-level"`

	Search SearchCmd `cmd:"" default:"withargs" help:"Search the archive and save headlines"`
	Replay ReplayCmd `cmd:"" help:"Extract headlines from a saved results page"`
}

// OutputFlags select where records are written
type OutputFlags struct {
	Format string `help:"Output format (csv, json, sqlite)" short:"f"`
	Out    string `help:"Output file path, overrides the derived name" short:"o"`
	OutDir string `help:"Output directory" name:"out-dir"`
}

// SearchCmd runs the probe and harvest against the live archive
type SearchCmd struct {
	Term        string        `help:"Search term" short:"t"`
	Count       int           `help:"Number of headlines to collect" short:"n"`
	Period      string        `help:"Time period: any or custom" default:"any" short:"p"`
	Start       string        `help:"Start date for a custom period (YYYY-MM-DD)"`
	End         string        `help:"End date for a custom period (YYYY-MM-DD)"`
	Interactive bool          `help:"Prompt for the search input" short:"i"`
	SettleDelay time.Duration `help:"Longest wait for the page to settle after each action" name:"settle-delay"`
	ScanLimit   int           `help:"Maximum result positions to scan" name:"scan-limit"`
	Headful     bool          `help:"Show the browser window"`
	DriverPath  string        `help:"Path to the Chrome/Chromium executable" name:"driver-path"`
	Snapshot    string        `help:"Save the rendered results page to this file"`

	OutputFlags `embed:""`
}

// ReplayCmd extracts headlines from a snapshot saved by search --snapshot
type ReplayCmd struct {
	File  string `arg:"" help:"Saved results page" type:"existingfile"`
	Term  string `help:"Search term used to name the output file" default:"replay" short:"t"`
	Count int    `help:"Number of headlines to collect" default:"20" short:"n"`

	OutputFlags `embed:""`
}

// Collect builds the input from flags
func (c *SearchCmd) Collect(ctx context.Context) (types.Input, error) {
	scope, err := query.ParseScope(c.Period, c.Start, c.End)
	if err != nil {
		return types.Input{}, err
	}
	in := types.Input{Term: strings.TrimSpace(c.Term), Wanted: c.Count, Scope: scope}
	return in, query.Validate(in)
}

func (c *SearchCmd) collector() crawler.Collector {
	if c.Interactive || c.Term == "" {
		return prompt.New()
	}
	return c
}

func (c *SearchCmd) overrides() config.Config {
	var o config.Config
	o.Browser.SettleDelay = c.SettleDelay
	o.Browser.DriverPath = c.DriverPath
	o.Crawler.ScanLimit = c.ScanLimit
	o.Crawler.Snapshot = c.Snapshot
	o.Output = c.OutputFlags.config()
	return o
}

func (f OutputFlags) config() config.OutputConfig {
	return config.OutputConfig{Dir: f.OutDir, Format: f.Format, Path: f.Out}
}

func (c *SearchCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli, c.overrides())
	if err != nil {
		return err
	}
	if c.Headful {
		cfg.Browser.Headless = false
	}
	logger := newLogger(cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	in, err := c.collector().Collect(ctx)
	if err != nil {
		return err
	}

	sink, err := writer.New(cfg.Output.Dir, cfg.Output.Format, cfg.Output.Path)
	if err != nil {
		return err
	}

	p := &crawler.Pipeline{
		Opener:   chromeOpener(cfg),
		Layout:   cfg.Layout,
		BaseURL:  cfg.Archive.BaseURL,
		Category: cfg.Archive.Category,
		Sink:     sink,
		Options:  crawlerOptions(cfg, logger, progress.New(os.Stderr)),
	}

	report, err := p.Run(ctx, in)
	if err != nil {
		if report.Output != "" {
			fmt.Fprintf(os.Stderr, "Saved %d headlines collected before the failure to %s\n",
				len(report.Result.Records), report.Output)
		}
		return err
	}

	printReport(report)
	return nil
}

func (c *ReplayCmd) Run(cli *CLI) error {
	override := config.Config{Output: c.OutputFlags.config()}
	cfg, err := loadConfig(cli, override)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := query.Validate(types.Input{Term: c.Term, Wanted: c.Count}); err != nil {
		return err
	}

	opts := crawlerOptions(cfg, logger, crawler.NopObserver{})
	opts.Retries = 0
	opts.SnapshotPath = ""
	// a saved page never grows, so there is nothing to wait for
	opts.Settle.Timeout = opts.Settle.Interval

	h := &crawler.Harvester{Opener: browser.SnapshotOpener{}, Layout: cfg.Layout, Options: opts}
	d := types.QueryDescriptor{Term: c.Term, URL: c.File}

	res, err := h.Harvest(ctx, d, 0, c.Count)
	if err != nil {
		return &crawler.PhaseError{Phase: crawler.PhaseHarvesting, Err: err}
	}

	sink, err := writer.New(cfg.Output.Dir, cfg.Output.Format, cfg.Output.Path)
	if err != nil {
		return err
	}
	out, err := sink.Write(ctx, d, res.Records)
	if err != nil {
		return &crawler.PhaseError{Phase: crawler.PhaseWriting, Err: err}
	}

	printReport(crawler.Report{Query: d, Result: res, Output: out})
	return nil
}

// loadConfig reads the config file and applies command line overrides
func loadConfig(cli *CLI, override config.Config) (config.Config, error) {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return cfg, err
	}
	override.Logging.Level = cli.LogLevel
	if err := cfg.Merge(override); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func newLogger(level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
	if lvl, err := log.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}

func chromeOpener(cfg config.Config) browser.ChromeOpener {
	opts := browser.DefaultChromeOptions()
	opts.ExecPath = cfg.Browser.DriverPath
	opts.Headless = cfg.Browser.Headless
	opts.UserAgent = cfg.Browser.UserAgent
	return browser.ChromeOpener{Options: opts}
}

func crawlerOptions(cfg config.Config, logger *log.Logger, obs crawler.Observer) crawler.Options {
	return crawler.Options{
		Settle: browser.SettleOptions{
			Timeout:  cfg.Browser.SettleDelay,
			Interval: cfg.Browser.PollInterval,
		},
		NavTimeout:    cfg.Browser.NavTimeout,
		MaxLoadMore:   cfg.Crawler.MaxLoadMore,
		ScanLimit:     cfg.Crawler.ScanLimit,
		Retries:       cfg.Crawler.Retries,
		RetryInterval: time.Second,
		SnapshotPath:  cfg.Crawler.Snapshot,
		Logger:        logger,
		Observer:      obs,
	}
}

func printReport(r crawler.Report) {
	res := r.Result
	fmt.Printf("\nCollected %d of %d headlines for %q (scanned %d results, %d extra pages loaded)\n",
		len(res.Records), res.Wanted, r.Query.Term, res.Scanned, int(r.Safe))
	if res.Short() {
		fmt.Printf("The archive ran out of results before %d headlines were found\n", res.Wanted)
	}
	if len(res.Records) > 0 {
		writer.Preview(os.Stdout, res.Records, writer.PreviewRows)
	}
	if r.Output != "" {
		fmt.Printf("Saved to %s\n", r.Output)
	}
}

func main() {
	var cli CLI

	ctx := kong.Parse(&cli,
		kong.Name("headlines"),
		kong.Description("Collect headlines from the Helsingin Sanomat archive search."),
		kong.UsageOnError(),
	)

	if err := ctx.Run(&cli); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
