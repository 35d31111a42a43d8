package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/stealth"
)

const navigateTimeout = 45 * time.Second

// Tab wraps a single stealth page.
type Tab struct {
	Page *rod.Page
	URL  string
}

// OpenTab opens a new stealth page on the given browser.
func OpenTab(b *rod.Browser) (*Tab, error) {
	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: open stealth page: %w", err)
	}
	return &Tab{Page: page}, nil
}

// Navigate loads the URL and waits for the load event.
func (t *Tab) Navigate(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, navigateTimeout)
	defer cancel()

	page := t.Page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("browser: wait load %s: %w", url, err)
	}
	t.URL = url
	return nil
}

// HTML returns the serialized DOM of the current page.
func (t *Tab) HTML(ctx context.Context) (string, error) {
	html, err := t.Page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("browser: get html: %w", err)
	}
	return html, nil
}

// Close closes the underlying page.
func (t *Tab) Close() error {
	if t.Page == nil {
		return nil
	}
	return t.Page.Close()
}
