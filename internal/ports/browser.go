package ports

import "context"

// Cookie is a browser cookie captured after anti-bot clearance.
type Cookie struct {
	Name  string
	Value string
}

// BrowserSession is an isolated browsing context inside a shared browser
// process. Cookies set in one session never leak into another.
type BrowserSession interface {
	// Navigate loads the given URL and waits for network activity to settle.
	Navigate(ctx context.Context, url string) error
	// WaitReady blocks until the document is fully loaded, or until the
	// configured readiness timeout elapses (which is not an error).
	WaitReady(ctx context.Context) error
	// Cookies returns every cookie visible to the session.
	Cookies(ctx context.Context) ([]Cookie, error)
	Close() error
}

// Browser is a running browser process that can spawn isolated sessions.
type Browser interface {
	NewSession(ctx context.Context) (BrowserSession, error)
	Close() error
}

// BrowserLauncher starts the browser process. Launching is expensive, so the
// orchestrator launches once and reuses the instance across all accounts.
type BrowserLauncher interface {
	Launch(ctx context.Context) (Browser, error)
}
