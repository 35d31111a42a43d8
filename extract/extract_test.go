package extract

import (
	"strings"
	"testing"
)

func TestPageBasic(t *testing.T) {
	e := New()
	res, err := e.Page(`<html><head><title>Order History</title></head>
		<body><h1>Orders</h1><p>You have <strong>3</strong> open orders.</p></body></html>`)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if res.Title != "Order History" {
		t.Errorf("title = %q, want %q", res.Title, "Order History")
	}
	if !strings.Contains(res.Markdown, "# Orders") {
		t.Errorf("markdown missing heading: %q", res.Markdown)
	}
	if !strings.Contains(res.Markdown, "**3**") {
		t.Errorf("markdown missing bold text: %q", res.Markdown)
	}
	if len(res.Hash) != 64 {
		t.Errorf("hash length = %d, want 64", len(res.Hash))
	}
}

func TestPageStripsScripts(t *testing.T) {
	e := New()
	res, err := e.Page(`<html><body><p>visible</p><script>alert("x")</script></body></html>`)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if strings.Contains(res.Markdown, "alert") {
		t.Errorf("script content leaked into markdown: %q", res.Markdown)
	}
	if !strings.Contains(res.Markdown, "visible") {
		t.Errorf("body text lost: %q", res.Markdown)
	}
}

func TestPageHashIgnoresStrippedAttributes(t *testing.T) {
	e := New()
	a, err := e.Page(`<p onclick="track()">hello</p>`)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	b, err := e.Page(`<p>hello</p>`)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if a.Hash != b.Hash {
		t.Errorf("hash differs across stripped attributes: %q vs %q", a.Hash, b.Hash)
	}
}

func TestPageNoTitle(t *testing.T) {
	e := New()
	res, err := e.Page(`<p>no head here</p>`)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if res.Title != "" {
		t.Errorf("title = %q, want empty", res.Title)
	}
}
