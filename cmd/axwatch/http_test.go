package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hazyhaar/axwatch/archive"
	"github.com/hazyhaar/axwatch/axtree"
	"github.com/hazyhaar/axwatch/browser"
	"github.com/hazyhaar/axwatch/session"
)

type staticCapturer struct {
	tree *axtree.RawNode
}

func (c *staticCapturer) CaptureAXTree(context.Context) (*axtree.RawNode, error) {
	return c.tree, nil
}

func testRouter(t *testing.T, authToken string) (http.Handler, *session.Session) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := archive.OpenMemory(t)
	capt := &staticCapturer{tree: &axtree.RawNode{
		BackendDOMNodeID: 1,
		Attrs:            map[string]any{"role": "RootWebArea", "name": "Home"},
	}}
	sess := session.New(capt, session.WithLogger(logger), session.WithSink(store))
	driver := browser.NewDriver(browser.NewManager(browser.Config{Logger: logger}), logger)
	return newRouter(logger, authToken, sess, driver, store), sess
}

func TestHealthNoAuth(t *testing.T) {
	r, _ := testRouter(t, "secret")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" || !strings.HasPrefix(body["session_id"], "sess_") {
		t.Errorf("body = %v", body)
	}
}

func TestBearerAuthRequired(t *testing.T) {
	r, _ := testRouter(t, "secret")

	req := httptest.NewRequest(http.MethodGet, "/api/baselines", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/baselines", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/baselines", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("good token: status = %d, want 200", rec.Code)
	}
}

func TestChangeSnapshotEndpoint(t *testing.T) {
	r, _ := testRouter(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/change-snapshot", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var res session.SnapshotResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.Created {
		t.Errorf("first snapshot should create the baseline: %+v", res)
	}

	// Second call with an empty body diffs against the stored default.
	req = httptest.NewRequest(http.MethodPost, "/api/change-snapshot", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Created || res.HasChanges {
		t.Errorf("static page should report no changes: %+v", res)
	}
}

func TestResetBaselineEndpoint(t *testing.T) {
	r, sess := testRouter(t, "")

	if _, err := sess.ChangeSnapshot(context.Background(), session.SnapshotRequest{}); err != nil {
		t.Fatalf("seed baseline: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/baselines/default", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := len(sess.Baselines()); got != 0 {
		t.Errorf("baselines after reset = %d, want 0", got)
	}
}

func TestReportsEndpoint(t *testing.T) {
	r, sess := testRouter(t, "")

	if _, err := sess.ChangeSnapshot(context.Background(), session.SnapshotRequest{}); err != nil {
		t.Fatalf("seed report: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var reports []*session.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &reports); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("reports = %d, want 1", len(reports))
	}
	if reports[0].SessionID != sess.ID() {
		t.Errorf("session id = %q, want %q", reports[0].SessionID, sess.ID())
	}
}
