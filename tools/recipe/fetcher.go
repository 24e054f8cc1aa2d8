package recipe

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/values"
)

const (
	// DefaultUserAgent is a desktop browser user agent
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	// DefaultSettleDelay is the time given to scripts to render the page
	DefaultSettleDelay = 5 * time.Second
	// MaxPageSize is the limit of the page fetched over HTTP
	MaxPageSize = 10 << 20
)

// Fetcher returns HTML of the page
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// ChromeFetcher renders the page in headless Chrome
type ChromeFetcher struct {
	// ExecPath is the path to the browser, looked up when empty
	ExecPath string
	// UserAgent overrides DefaultUserAgent
	UserAgent string
	// SettleDelay is the time to wait after the body is ready,
	// zero uses DefaultSettleDelay, negative disables the delay.
	SettleDelay time.Duration
}

// Fetch implements Fetcher
func (f *ChromeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Headless,
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(values.StringsCoalesce(f.UserAgent, DefaultUserAgent)),
	)
	if f.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(f.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	actions := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	}
	settle := f.SettleDelay
	if settle == 0 {
		settle = DefaultSettleDelay
	}
	if settle > 0 {
		actions = append(actions, chromedp.Sleep(settle))
	}

	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html))
	if err := chromedp.Run(browserCtx, actions...); err != nil {
		return "", errors.Wrap(err, "browser failed to render the page")
	}
	return html, nil
}

// HTTPFetcher gets the page with a plain GET request,
// it is suitable for static pages.
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
}

// Fetch implements Fetcher
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errors.WithStack(err)
	}
	req.Header.Set("User-Agent", values.StringsCoalesce(f.UserAgent, DefaultUserAgent))
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", errors.WithStack(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", errors.Errorf("unexpected status: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxPageSize))
	if err != nil {
		return "", errors.Wrap(err, "failed to read page")
	}
	return string(body), nil
}
