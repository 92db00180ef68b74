// Package browser drives a Chrome instance through the DevTools protocol to
// clear the target site's anti-bot challenge. One browser process serves all
// accounts; each account gets a disposable browser context so cookie state
// never crosses accounts.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/qirune/anyrouter-checkin/internal/config"
	"github.com/qirune/anyrouter-checkin/internal/ports"
)

// ChromeLauncher starts Chrome with the flag set the anti-bot layer
// tolerates. Headless mode is configurable but off by default; the WAF
// rejects headless fingerprints.
type ChromeLauncher struct {
	cfg    config.Runtime
	logger *zap.Logger
}

func NewChromeLauncher(cfg config.Runtime, logger *zap.Logger) *ChromeLauncher {
	return &ChromeLauncher{cfg: cfg, logger: logger}
}

func (l *ChromeLauncher) Launch(ctx context.Context) (ports.Browser, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.cfg.Headless),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-web-security", true),
		chromedp.Flag("disable-features", "VizDisplayCompositor"),
		chromedp.Flag("no-sandbox", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(l.cfg.UserAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// The browser process starts on the first Run.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	l.logger.Debug("browser started", zap.Bool("headless", l.cfg.Headless))

	return &chromeBrowser{
		ctx:           browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
		cfg:           l.cfg,
		logger:        l.logger,
	}, nil
}

type chromeBrowser struct {
	ctx           context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
	cfg           config.Runtime
	logger        *zap.Logger
}

// NewSession creates an isolated browser context with a blank tab attached.
func (b *chromeBrowser) NewSession(ctx context.Context) (ports.BrowserSession, error) {
	executor := b.browserExecutor(ctx)

	contextID, err := target.CreateBrowserContext().Do(executor)
	if err != nil {
		return nil, fmt.Errorf("create browser context: %w", err)
	}

	targetID, err := target.CreateTarget("about:blank").
		WithBrowserContextID(contextID).
		Do(executor)
	if err != nil {
		_ = target.DisposeBrowserContext(contextID).Do(executor)
		return nil, fmt.Errorf("create target: %w", err)
	}

	tabCtx, cancelTab := chromedp.NewContext(b.ctx, chromedp.WithTargetID(targetID))

	return &chromeSession{
		browser:   b,
		ctx:       tabCtx,
		cancelTab: cancelTab,
		contextID: contextID,
	}, nil
}

func (b *chromeBrowser) Close() error {
	if err := chromedp.Cancel(b.ctx); err != nil {
		b.cancelBrowser()
		b.cancelAlloc()
		return fmt.Errorf("close browser: %w", err)
	}
	b.cancelAlloc()
	return nil
}

// browserExecutor routes protocol commands to the browser-level session
// instead of a tab, honoring the caller's cancellation.
func (b *chromeBrowser) browserExecutor(ctx context.Context) context.Context {
	c := chromedp.FromContext(b.ctx)
	if ctx == nil {
		ctx = b.ctx
	}
	return cdp.WithExecutor(ctx, c.Browser)
}

type chromeSession struct {
	browser   *chromeBrowser
	ctx       context.Context
	cancelTab context.CancelFunc
	contextID cdp.BrowserContextID
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	runCtx, cancel := s.boundedRun(ctx, s.browser.cfg.Timeout)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// WaitReady polls document.readyState until the page settles. Challenge
// pages sometimes hold the document in loading state past the deadline; in
// that case a fixed grace period is waited out instead, which the anti-bot
// layer needs to finish its checks.
func (s *chromeSession) WaitReady(ctx context.Context) error {
	runCtx, cancel := s.boundedRun(ctx, s.browser.cfg.ReadyTimeout)
	defer cancel()

	for runCtx.Err() == nil {
		var state string
		err := chromedp.Run(runCtx, chromedp.Evaluate("document.readyState", &state))
		if err == nil && state == "complete" {
			return nil
		}
		if err != nil {
			break
		}

		select {
		case <-time.After(100 * time.Millisecond):
		case <-runCtx.Done():
		}
	}

	if ctx != nil && ctx.Err() != nil {
		return ctx.Err()
	}

	s.browser.logger.Debug("document not complete, applying grace period",
		zap.Duration("grace", s.browser.cfg.ReadyFallback))

	var done <-chan struct{}
	if ctx != nil {
		done = ctx.Done()
	}
	select {
	case <-time.After(s.browser.cfg.ReadyFallback):
		return nil
	case <-done:
		return ctx.Err()
	}
}

func (s *chromeSession) Cookies(ctx context.Context) ([]ports.Cookie, error) {
	runCtx, cancel := s.boundedRun(ctx, s.browser.cfg.Timeout)
	defer cancel()

	var out []ports.Cookie
	err := chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := storage.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		for _, c := range cookies {
			out = append(out, ports.Cookie{Name: c.Name, Value: c.Value})
		}
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("read cookies: %w", err)
	}
	return out, nil
}

// Close tears down the tab and disposes the browser context together with
// every cookie it accumulated.
func (s *chromeSession) Close() error {
	s.cancelTab()

	executor := s.browser.browserExecutor(nil)
	if err := target.DisposeBrowserContext(s.contextID).Do(executor); err != nil {
		s.browser.logger.Debug("dispose browser context", zap.Error(err))
	}
	return nil
}

// boundedRun derives a chromedp-capable context from the session tab,
// bounded by the given timeout and linked to the caller's cancellation.
func (s *chromeSession) boundedRun(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithTimeout(s.ctx, timeout)
	if ctx == nil {
		return runCtx, cancel
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}
