package session

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/chromedp"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Driver launches and tears down isolated browser sessions. Each session is
// exclusively owned by one job for its entire lifetime.
type Driver struct {
	Headless    bool
	UserAgent   string
	NavTimeout  time.Duration
	SettleDelay time.Duration
}

// NewDriver creates a driver. The user agent and viewport mimic a desktop
// Chrome so the target site does not short-circuit into an unsupported
// browser path.
func NewDriver(headless bool) *Driver {
	return &Driver{
		Headless:    headless,
		UserAgent:   defaultUserAgent,
		NavTimeout:  60 * time.Second,
		SettleDelay: 5 * time.Second,
	}
}

// Handle is one open browser session. Close must be called exactly once per
// opened session; it is idempotent so deferred cleanup paths cannot
// double-release.
type Handle struct {
	ctx       context.Context
	cancels   []context.CancelFunc
	closeOnce sync.Once
}

// NewHandle wraps an existing chromedp context. The cancel functions are
// invoked in reverse order on Close.
func NewHandle(ctx context.Context, cancels ...context.CancelFunc) *Handle {
	return &Handle{ctx: ctx, cancels: cancels}
}

// Ctx returns the chromedp context actions should run against
func (h *Handle) Ctx() context.Context {
	return h.ctx
}

// Close tears down the browser session and its allocator
func (h *Handle) Close() {
	h.closeOnce.Do(func() {
		for i := len(h.cancels) - 1; i >= 0; i-- {
			h.cancels[i]()
		}
	})
}

// Screenshot writes a diagnostic capture of the current page. Best-effort:
// callers are expected to ignore the error.
func (h *Handle) Screenshot(path string) error {
	var buf []byte
	if err := chromedp.Run(h.ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}

// Open launches a browser, grants media permissions, navigates to the
// meeting link, and waits for the page to settle. The target UI is a
// dynamically rendered SPA with no reliable ready event, so readiness is a
// bounded navigation wait followed by a fixed settle delay.
func (d *Driver) Open(ctx context.Context, meetLink string) (*Handle, error) {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoSandbox,
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("use-fake-ui-for-media-stream", true),
		chromedp.Flag("use-fake-device-for-media-stream", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.UserAgent(d.userAgent()),
		chromedp.WindowSize(1280, 720),
	}
	if d.Headless {
		opts = append(opts, chromedp.Headless, chromedp.DisableGPU)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	h := NewHandle(browserCtx, allocCancel, browserCancel)

	navCtx, navCancel := context.WithTimeout(browserCtx, d.NavTimeout)
	defer navCancel()

	err := chromedp.Run(navCtx,
		browser.GrantPermissions([]browser.PermissionType{
			browser.PermissionTypeAudioCapture,
			browser.PermissionTypeVideoCapture,
		}),
		chromedp.Navigate(meetLink),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		h.Close()
		return nil, fmt.Errorf("navigating to %s: %w", meetLink, err)
	}

	// Let client-side rendering stabilize before the admission protocol
	// starts probing selectors.
	select {
	case <-time.After(d.SettleDelay):
	case <-browserCtx.Done():
		h.Close()
		return nil, browserCtx.Err()
	}

	return h, nil
}

func (d *Driver) userAgent() string {
	if d.UserAgent != "" {
		return d.UserAgent
	}
	return defaultUserAgent
}
