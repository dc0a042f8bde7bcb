package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
)

// ChromeOptions configures the Chrome instance behind each session
type ChromeOptions struct {
	// ExecPath is the Chrome/Chromium binary; empty lets chromedp find one
	ExecPath     string
	Headless     bool
	UserAgent    string
	WindowWidth  int
	WindowHeight int
	// OpTimeout bounds every single driver operation
	OpTimeout time.Duration
}

// DefaultChromeOptions returns headless options with a desktop-sized window
func DefaultChromeOptions() ChromeOptions {
	return ChromeOptions{
		Headless:     true,
		WindowWidth:  1366,
		WindowHeight: 900,
		OpTimeout:    30 * time.Second,
	}
}

// BuildAllocatorOptions turns ChromeOptions into chromedp allocator flags
func BuildAllocatorOptions(opts ChromeOptions) []chromedp.ExecAllocatorOption {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	return allocOpts
}

// ChromeOpener starts a new Chrome process per session
type ChromeOpener struct {
	Options ChromeOptions
}

// Open launches Chrome eagerly so a missing binary or a crash on startup is
// reported here rather than on first navigation.
func (o ChromeOpener) Open(ctx context.Context) (Session, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), BuildAllocatorOptions(o.Options)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	s := &ChromeSession{
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
		opTimeout:     o.Options.OpTimeout,
	}

	// The first Run allocates the browser and ties it to browserCtx, so it
	// must not run on a derived context. Cancellation of ctx kills it.
	stop := context.AfterFunc(ctx, browserCancel)
	err := chromedp.Run(browserCtx)
	stop()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return s, nil
}

// ChromeSession is a Session backed by one chromedp browser context
type ChromeSession struct {
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
	opTimeout     time.Duration
	closeOnce     sync.Once
}

// run executes actions on the browser, bounded by ctx and the per-op timeout
func (s *ChromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	opCtx, cancel := context.WithCancel(s.browserCtx)
	defer cancel()
	if s.opTimeout > 0 {
		opCtx, cancel = context.WithTimeout(opCtx, s.opTimeout)
		defer cancel()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(opCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

func (s *ChromeSession) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

func (s *ChromeSession) Find(ctx context.Context, selector string) (Element, bool, error) {
	var nodes []*cdp.Node
	if err := s.run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQuery, chromedp.AtLeast(0))); err != nil {
		return Element{}, false, fmt.Errorf("query %q failed: %w", selector, err)
	}
	if len(nodes) == 0 {
		return Element{}, false, nil
	}
	return Element{Selector: selector, ref: nodes[0]}, true, nil
}

func (s *ChromeSession) Count(ctx context.Context, selector string) (int, error) {
	var nodes []*cdp.Node
	if err := s.run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		return 0, fmt.Errorf("query %q failed: %w", selector, err)
	}
	return len(nodes), nil
}

func (s *ChromeSession) Click(ctx context.Context, el Element) error {
	node, err := chromeNode(el)
	if err != nil {
		return err
	}
	if err := s.run(ctx, chromedp.MouseClickNode(node)); err != nil {
		return fmt.Errorf("click on %q failed: %w", el.Selector, err)
	}
	return nil
}

func (s *ChromeSession) Text(ctx context.Context, el Element) (string, error) {
	node, err := chromeNode(el)
	if err != nil {
		return "", err
	}
	var text string
	if err := s.run(ctx, chromedp.TextContent([]cdp.NodeID{node.NodeID}, &text, chromedp.ByNodeID)); err != nil {
		return "", fmt.Errorf("reading text of %q failed: %w", el.Selector, err)
	}
	return text, nil
}

func (s *ChromeSession) Attribute(ctx context.Context, el Element, name string) (string, bool, error) {
	node, err := chromeNode(el)
	if err != nil {
		return "", false, err
	}
	var (
		value string
		ok    bool
	)
	if err := s.run(ctx, chromedp.AttributeValue([]cdp.NodeID{node.NodeID}, name, &value, &ok, chromedp.ByNodeID)); err != nil {
		return "", false, fmt.Errorf("reading %s of %q failed: %w", name, el.Selector, err)
	}
	return value, ok, nil
}

func (s *ChromeSession) OuterHTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("reading page HTML failed: %w", err)
	}
	return html, nil
}

// Close shuts down the tab, the browser and the allocator. Safe to call
// more than once.
func (s *ChromeSession) Close() error {
	s.closeOnce.Do(func() {
		s.browserCancel()
		s.allocCancel()
	})
	return nil
}

func chromeNode(el Element) (*cdp.Node, error) {
	node, ok := el.ref.(*cdp.Node)
	if !ok || node == nil {
		return nil, fmt.Errorf("element %q does not belong to a chrome session", el.Selector)
	}
	return node, nil
}
