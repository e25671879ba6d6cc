package chromedriver

// Package chromedriver implements ports.BrowserDriver over the Chrome
// DevTools Protocol via chromedp. Element lookups use a short per-probe
// timeout and report "not present yet" as ports.ErrElementNotFound so the
// login poller can treat it as a transient outcome.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"

	"github.com/openfintools/personalcapital/internal/domain/auth"
	"github.com/openfintools/personalcapital/internal/ports"
)

// probeTimeout bounds a single element lookup. chromedp blocks until the
// element appears; this keeps a probe from eating the whole poll budget.
const probeTimeout = 2 * time.Second

// Options configures the driven browser.
type Options struct {
	Headless bool
	Width    int
	Height   int
	Logger   *slog.Logger
}

// Driver is a chromedp-backed BrowserDriver.
type Driver struct {
	browserCtx  context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	logger      *slog.Logger
}

var _ ports.BrowserDriver = (*Driver)(nil)

// New launches a browser. Close must be called to release it.
func New(ctx context.Context, opts Options) (*Driver, error) {
	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = 1280
	}
	if height <= 0 {
		height = 1280
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.WindowSize(width, height),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	// Start the browser eagerly so launch failures surface here, not on
	// the first navigation.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	return &Driver{
		browserCtx:  tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		logger:      logger,
	}, nil
}

// Navigate implements ports.BrowserDriver.
func (d *Driver) Navigate(ctx context.Context, pageURL string) error {
	if err := d.run(ctx, 0, chromedp.Navigate(pageURL)); err != nil {
		return fmt.Errorf("navigate %s: %w", pageURL, err)
	}
	return nil
}

// Click implements ports.BrowserDriver.
func (d *Driver) Click(ctx context.Context, locator string) error {
	err := d.run(ctx, probeTimeout, chromedp.Click(locator, chromedp.BySearch, chromedp.NodeVisible))
	return classify(locator, err)
}

// Fill implements ports.BrowserDriver. It sets the input value directly,
// which is much faster than synthesizing keystrokes.
func (d *Driver) Fill(ctx context.Context, locator, value string) error {
	err := d.run(ctx, probeTimeout, chromedp.SetValue(locator, value, chromedp.BySearch))
	return classify(locator, err)
}

// SendKeys implements ports.BrowserDriver.
func (d *Driver) SendKeys(ctx context.Context, locator, text string) error {
	err := d.run(ctx, probeTimeout, chromedp.SendKeys(locator, text, chromedp.BySearch))
	return classify(locator, err)
}

// CurrentURL implements ports.BrowserDriver.
func (d *Driver) CurrentURL(ctx context.Context) (string, error) {
	var loc string
	if err := d.run(ctx, probeTimeout, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("read current url: %w", err)
	}
	return loc, nil
}

// PageSource implements ports.BrowserDriver.
func (d *Driver) PageSource(ctx context.Context) (string, error) {
	var html string
	if err := d.run(ctx, probeTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read page source: %w", err)
	}
	return html, nil
}

// Cookies implements ports.BrowserDriver.
func (d *Driver) Cookies(ctx context.Context) ([]auth.Cookie, error) {
	var raw []*network.Cookie
	err := d.run(ctx, 0, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		raw, err = storage.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("export browser cookies: %w", err)
	}

	cookies := make([]auth.Cookie, 0, len(raw))
	for _, c := range raw {
		cookie := auth.Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
			Secure: c.Secure,
		}
		if c.Expires > 0 {
			cookie.Expires = time.Unix(int64(c.Expires), 0).UTC()
		}
		cookies = append(cookies, cookie)
	}
	return cookies, nil
}

// SetCookies implements ports.BrowserDriver.
func (d *Driver) SetCookies(ctx context.Context, cookies []auth.Cookie) error {
	params := make([]*network.CookieParam, 0, len(cookies))
	for _, c := range cookies {
		p := &network.CookieParam{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
			Secure: c.Secure,
		}
		if !c.Expires.IsZero() {
			exp := cdp.TimeSinceEpoch(c.Expires)
			p.Expires = &exp
		}
		params = append(params, p)
	}

	err := d.run(ctx, 0, chromedp.ActionFunc(func(ctx context.Context) error {
		return storage.SetCookies(params).Do(ctx)
	}))
	if err != nil {
		return fmt.Errorf("import browser cookies: %w", err)
	}
	return nil
}

// Screenshot implements ports.BrowserDriver.
func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := d.run(ctx, 0, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	return buf, nil
}

// Close releases the browser.
func (d *Driver) Close() error {
	d.cancelTab()
	d.cancelAlloc()
	return nil
}

// run executes actions on the browser tab, honoring both the caller's
// context and an optional per-call timeout.
func (d *Driver) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(d.browserCtx)
	defer cancel()
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, timeout)
		defer cancel()
	}
	// Stop early when the caller's context dies.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := ctx.Err(); err != nil {
		return err
	}
	return chromedp.Run(runCtx, actions...)
}

// classify maps a probe timeout to ErrElementNotFound: chromedp blocks
// waiting for the element, so a deadline means "not present yet".
func classify(locator string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%q: %w", locator, ports.ErrElementNotFound)
	}
	return fmt.Errorf("%q: %w", locator, err)
}
