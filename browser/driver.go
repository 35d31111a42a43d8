package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hazyhaar/axwatch/axtree"
	"github.com/hazyhaar/axwatch/extract"
)

// Driver ties the browser manager to a single working tab and exposes the
// operations the snapshot session needs: navigation, accessibility capture,
// and page extraction.
type Driver struct {
	mgr       *Manager
	extractor *extract.Extractor
	logger    *slog.Logger

	mu  sync.Mutex
	tab *Tab
}

// NewDriver creates a Driver on top of a started Manager.
func NewDriver(mgr *Manager, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Driver{
		mgr:       mgr,
		extractor: extract.New(),
		logger:    logger,
	}
	mgr.SetRecycleCallback(&RecycleCallback{
		BeforeRecycle: d.dropTab,
	})
	return d
}

// Navigate opens the working tab if needed and loads the URL.
func (d *Driver) Navigate(ctx context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.tab == nil {
		b := d.mgr.Browser()
		if b == nil {
			return fmt.Errorf("browser: not started")
		}
		tab, err := OpenTab(b)
		if err != nil {
			return err
		}
		d.tab = tab
	}

	if err := d.tab.Navigate(ctx, url); err != nil {
		return err
	}
	d.logger.Info("browser: navigated", "url", url)
	return nil
}

// CaptureAXTree captures the current page's accessibility tree.
func (d *Driver) CaptureAXTree(ctx context.Context) (*axtree.RawNode, error) {
	d.mu.Lock()
	tab := d.tab
	d.mu.Unlock()

	if tab == nil {
		return nil, fmt.Errorf("browser: no page open")
	}
	return tab.CaptureAXTree(ctx)
}

// ExtractPage returns the current page rendered as markdown.
func (d *Driver) ExtractPage(ctx context.Context) (*extract.Result, error) {
	d.mu.Lock()
	tab := d.tab
	d.mu.Unlock()

	if tab == nil {
		return nil, fmt.Errorf("browser: no page open")
	}
	html, err := tab.HTML(ctx)
	if err != nil {
		return nil, err
	}
	res, err := d.extractor.Page(html)
	if err != nil {
		return nil, fmt.Errorf("browser: extract page: %w", err)
	}
	res.URL = tab.URL
	return res, nil
}

// URL returns the URL of the working tab, empty when none is open.
func (d *Driver) URL() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tab == nil {
		return ""
	}
	return d.tab.URL
}

// Close closes the working tab.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tab == nil {
		return nil
	}
	err := d.tab.Close()
	d.tab = nil
	return err
}

func (d *Driver) dropTab() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tab != nil {
		d.tab.Close()
		d.tab = nil
		d.logger.Info("browser: dropped tab for recycle")
	}
}
