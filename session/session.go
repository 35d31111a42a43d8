// Package session implements the change-snapshot orchestration: capture the
// current accessibility tree, normalize it, diff it against a stored
// baseline, and track a moving baseline per key.
//
// A Session owns one baseline store and lives exactly as long as the browser
// session driving it. It holds no hidden global state; tests build isolated
// sessions around a fake capturer.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/axwatch/axtree"
	"github.com/hazyhaar/axwatch/idgen"
)

// ErrNoTree indicates the capture collaborator could not produce an
// accessibility tree for the current page state.
var ErrNoTree = errors.New("session: no accessibility tree available")

// Capturer is the single capability the orchestrator consumes from its
// environment. The browser package implements it; tests use a fake.
type Capturer interface {
	CaptureAXTree(ctx context.Context) (*axtree.RawNode, error)
}

// Report is one archived change-snapshot outcome.
type Report struct {
	ID          string `json:"id"`
	SessionID   string `json:"session_id"`
	BaselineKey string `json:"baseline_key"`
	CompareKey  string `json:"compare_key"`
	Created     bool   `json:"created"` // true when the call created a baseline instead of diffing
	Added       int    `json:"added"`
	Removed     int    `json:"removed"`
	Changed     int    `json:"changed"`
	Text        string `json:"text"`
	DiffJSON    []byte `json:"diff_json,omitempty"`
	CreatedAt   int64  `json:"created_at"` // epoch milliseconds
}

// ReportSink persists reports. Sink failures are logged, never propagated:
// a broken archive must not break the comparison the agent asked for.
type ReportSink interface {
	SaveReport(ctx context.Context, r *Report) error
}

// Session ties a capturer to a baseline store for one browser session.
type Session struct {
	id       string
	store    *axtree.BaselineStore
	capturer Capturer
	sink     ReportSink
	logger   *slog.Logger
	newID    idgen.Generator
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithSink sets the report archive sink. Default: none.
func WithSink(sink ReportSink) Option {
	return func(s *Session) { s.sink = sink }
}

// WithIDGenerator sets the report ID generator.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(s *Session) { s.newID = gen }
}

// New creates a Session with an empty baseline store.
func New(capturer Capturer, opts ...Option) *Session {
	s := &Session{
		id:       idgen.Prefixed("sess_", idgen.Default)(),
		store:    axtree.NewBaselineStore(),
		capturer: capturer,
		logger:   slog.Default(),
		newID:    idgen.Prefixed("rep_", idgen.Default),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Store exposes the baseline store for inspection surfaces.
func (s *Session) Store() *axtree.BaselineStore { return s.store }

// SnapshotRequest are the per-call parameters of ChangeSnapshot.
type SnapshotRequest struct {
	// BaselineKey names the baseline to create or update. Blank = "default".
	BaselineKey string `json:"baseline_key"`
	// CompareTo names the stored snapshot to diff against. Blank =
	// BaselineKey; set it to compare against an unrelated stored baseline.
	CompareTo string `json:"compare_to"`
	// NoSave skips the baseline overwrite in step 5, freezing the stored
	// baseline across repeated comparisons.
	NoSave bool `json:"no_save"`
}

// SnapshotResult is the outcome of one ChangeSnapshot invocation.
type SnapshotResult struct {
	Report      string       `json:"report"`
	Created     bool         `json:"created"`
	HasChanges  bool         `json:"has_changes"`
	BaselineKey string       `json:"baseline_key"`
	CompareKey  string       `json:"compare_key"`
	Diff        *axtree.Diff `json:"diff,omitempty"`
}

// ChangeSnapshot captures the current tree, normalizes it, diffs it against
// the stored baseline under CompareTo (creating the baseline when absent),
// and, unless NoSave is set, stores the fresh snapshot under BaselineKey.
//
// A failed capture returns an error and mutates nothing.
func (s *Session) ChangeSnapshot(ctx context.Context, req SnapshotRequest) (*SnapshotResult, error) {
	baselineKey := req.BaselineKey
	if baselineKey == "" {
		baselineKey = axtree.DefaultBaselineKey
	}
	compareKey := req.CompareTo
	if compareKey == "" {
		compareKey = baselineKey
	}

	raw, err := s.capturer.CaptureAXTree(ctx)
	if err != nil {
		return nil, fmt.Errorf("session: capture accessibility tree: %w", err)
	}
	if raw == nil {
		return nil, ErrNoTree
	}

	current := axtree.Normalize(raw)

	baseline, ok := s.store.Get(compareKey)
	if !ok {
		s.store.Set(baselineKey, current)
		res := &SnapshotResult{
			Report:      axtree.FormatBaselineCreated(baselineKey, len(current.Nodes)),
			Created:     true,
			BaselineKey: baselineKey,
			CompareKey:  compareKey,
		}
		s.logger.Info("baseline created",
			"session_id", s.id, "key", baselineKey, "nodes", len(current.Nodes))
		s.archive(ctx, res)
		return res, nil
	}

	diff := axtree.Compare(baseline, current)
	res := &SnapshotResult{
		Report:      axtree.FormatDiff(diff),
		HasChanges:  axtree.HasChanges(diff),
		BaselineKey: baselineKey,
		CompareKey:  compareKey,
		Diff:        diff,
	}

	if !req.NoSave {
		s.store.Set(baselineKey, current)
	}

	s.logger.Info("change snapshot",
		"session_id", s.id, "baseline_key", baselineKey, "compare_key", compareKey,
		"added", len(diff.Added), "removed", len(diff.Removed), "changed", len(diff.Changed),
		"saved", !req.NoSave)
	s.archive(ctx, res)
	return res, nil
}

// BaselineInfo describes one stored baseline for inspection surfaces.
type BaselineInfo struct {
	Key        string    `json:"key"`
	CapturedAt time.Time `json:"captured_at"`
	Nodes      int       `json:"nodes"`
}

// Baselines lists the stored baselines, sorted by key.
func (s *Session) Baselines() []BaselineInfo {
	keys := s.store.Keys()
	infos := make([]BaselineInfo, 0, len(keys))
	for _, k := range keys {
		snap, ok := s.store.Get(k)
		if !ok {
			continue
		}
		infos = append(infos, BaselineInfo{Key: k, CapturedAt: snap.CapturedAt, Nodes: len(snap.Nodes)})
	}
	return infos
}

// ResetBaseline removes the baseline stored under key.
func (s *Session) ResetBaseline(key string) {
	s.store.Delete(key)
}

func (s *Session) archive(ctx context.Context, res *SnapshotResult) {
	if s.sink == nil {
		return
	}
	r := &Report{
		ID:          s.newID(),
		SessionID:   s.id,
		BaselineKey: res.BaselineKey,
		CompareKey:  res.CompareKey,
		Created:     res.Created,
		Text:        res.Report,
		CreatedAt:   time.Now().UnixMilli(),
	}
	if res.Diff != nil {
		r.Added = len(res.Diff.Added)
		r.Removed = len(res.Diff.Removed)
		r.Changed = len(res.Diff.Changed)
		if data, err := json.Marshal(res.Diff); err == nil {
			r.DiffJSON = data
		}
	}
	if err := s.sink.SaveReport(ctx, r); err != nil {
		s.logger.Error("report archive failed", "error", err, "report_id", r.ID)
	}
}
