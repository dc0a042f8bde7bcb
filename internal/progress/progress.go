// Package progress reports crawl progress on the terminal: a spinner while
// results pages are being loaded and a bar while headlines are collected.
package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/bubbles/progress"

	"github.com/go-scripts/headlines/internal/crawler"
)

// Tracker implements crawler.Observer
type Tracker struct {
	out     io.Writer
	spinner *spinner.Spinner
	bar     progress.Model

	mu        sync.Mutex
	collected int
	wanted    int
}

var _ crawler.Observer = (*Tracker)(nil)

// New creates a Tracker writing to out
func New(out io.Writer) *Tracker {
	return &Tracker{
		out:     out,
		spinner: spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out)),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

func (t *Tracker) PhaseStarted(phase crawler.Phase) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.spinner.Suffix = fmt.Sprintf(" %s: opening archive", phase)
	t.spinner.Start()
}

func (t *Tracker) Clicked(phase crawler.Phase, clicks int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.spinner.Suffix = fmt.Sprintf(" %s: loaded %d more pages", phase, clicks)
}

// Collected stops the spinner and redraws the bar
func (t *Tracker) Collected(collected, wanted int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.spinner.Stop()

	t.collected = collected
	t.wanted = wanted
	fmt.Fprintf(t.out, "\rHeadlines: %s %d/%d", t.bar.ViewAs(t.progress()), collected, wanted)
}

func (t *Tracker) PhaseDone(phase crawler.Phase) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.spinner.Stop()
	if phase == crawler.PhaseHarvesting && t.collected > 0 {
		fmt.Fprintln(t.out)
	}
}

// Progress returns the collected fraction of the wanted records
func (t *Tracker) Progress() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progress()
}

func (t *Tracker) progress() float64 {
	if t.wanted == 0 {
		return 0
	}
	return float64(t.collected) / float64(t.wanted)
}
