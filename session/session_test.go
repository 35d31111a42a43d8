package session

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hazyhaar/axwatch/axtree"
)

// fakeCapturer serves pre-built trees in order, repeating the last one.
type fakeCapturer struct {
	trees []*axtree.RawNode
	err   error
	calls int
}

func (f *fakeCapturer) CaptureAXTree(_ context.Context) (*axtree.RawNode, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.trees) == 0 {
		return nil, nil
	}
	i := f.calls - 1
	if i >= len(f.trees) {
		i = len(f.trees) - 1
	}
	return f.trees[i], nil
}

func pageTree(pressed string) *axtree.RawNode {
	return &axtree.RawNode{
		BackendDOMNodeID: 1,
		Attrs:            map[string]any{"role": "RootWebArea", "name": "Demo"},
		Children: []*axtree.RawNode{
			{BackendDOMNodeID: 2, Attrs: map[string]any{"role": "button", "name": "btn", "pressed": pressed}},
		},
	}
}

func TestChangeSnapshotCreatesBaseline(t *testing.T) {
	s := New(&fakeCapturer{trees: []*axtree.RawNode{pageTree("false")}})

	res, err := s.ChangeSnapshot(context.Background(), SnapshotRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Created {
		t.Fatal("first call must create the baseline")
	}
	if res.HasChanges || res.Diff != nil {
		t.Error("baseline creation must not report changes")
	}
	if !strings.Contains(res.Report, "created") {
		t.Errorf("report: got %q", res.Report)
	}

	keys := s.Store().Keys()
	if len(keys) != 1 || keys[0] != axtree.DefaultBaselineKey {
		t.Errorf("store keys: got %v, want [default]", keys)
	}
}

func TestChangeSnapshotDetectsChange(t *testing.T) {
	s := New(&fakeCapturer{trees: []*axtree.RawNode{pageTree("false"), pageTree("true")}})
	ctx := context.Background()

	if _, err := s.ChangeSnapshot(ctx, SnapshotRequest{}); err != nil {
		t.Fatal(err)
	}
	res, err := s.ChangeSnapshot(ctx, SnapshotRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Created {
		t.Fatal("second call must diff, not create")
	}
	if !res.HasChanges {
		t.Fatal("pressed flip not detected")
	}
	if !strings.Contains(res.Report, `pressed: "false" -> "true"`) {
		t.Errorf("report missing transition:\n%s", res.Report)
	}
}

func TestChangeSnapshotStaticPage(t *testing.T) {
	s := New(&fakeCapturer{trees: []*axtree.RawNode{pageTree("false")}})
	ctx := context.Background()

	if _, err := s.ChangeSnapshot(ctx, SnapshotRequest{}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		res, err := s.ChangeSnapshot(ctx, SnapshotRequest{})
		if err != nil {
			t.Fatal(err)
		}
		if res.HasChanges {
			t.Fatalf("static page reported changes on call %d:\n%s", i+2, res.Report)
		}
	}
}

func TestChangeSnapshotMovingBaseline(t *testing.T) {
	s := New(&fakeCapturer{trees: []*axtree.RawNode{
		pageTree("false"), pageTree("true"), pageTree("true"),
	}})
	ctx := context.Background()

	s.ChangeSnapshot(ctx, SnapshotRequest{})
	res, _ := s.ChangeSnapshot(ctx, SnapshotRequest{})
	if !res.HasChanges {
		t.Fatal("flip not detected")
	}
	// The baseline moved to the "true" capture, so an identical third
	// capture is quiet.
	res, _ = s.ChangeSnapshot(ctx, SnapshotRequest{})
	if res.HasChanges {
		t.Fatal("moving baseline did not advance")
	}
}

func TestChangeSnapshotNoSave(t *testing.T) {
	s := New(&fakeCapturer{trees: []*axtree.RawNode{
		pageTree("false"), pageTree("true"), pageTree("true"),
	}})
	ctx := context.Background()

	s.ChangeSnapshot(ctx, SnapshotRequest{})
	res, _ := s.ChangeSnapshot(ctx, SnapshotRequest{NoSave: true})
	if !res.HasChanges {
		t.Fatal("flip not detected")
	}
	// Baseline is frozen at "false", so the same change reports again.
	res, _ = s.ChangeSnapshot(ctx, SnapshotRequest{NoSave: true})
	if !res.HasChanges {
		t.Fatal("NoSave overwrote the baseline anyway")
	}
}

func TestChangeSnapshotNamedKeys(t *testing.T) {
	s := New(&fakeCapturer{trees: []*axtree.RawNode{
		pageTree("false"), pageTree("true"), pageTree("true"),
	}})
	ctx := context.Background()

	s.ChangeSnapshot(ctx, SnapshotRequest{BaselineKey: "before-click"})
	// Diff against before-click but store the result under after-click.
	res, err := s.ChangeSnapshot(ctx, SnapshotRequest{BaselineKey: "after-click", CompareTo: "before-click"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.HasChanges {
		t.Fatal("cross-key comparison missed the change")
	}

	keys := s.Store().Keys()
	if len(keys) != 2 {
		t.Fatalf("store keys: got %v", keys)
	}
	// before-click must not have been touched by the second call.
	res, err = s.ChangeSnapshot(ctx, SnapshotRequest{CompareTo: "before-click", NoSave: true})
	if err != nil {
		t.Fatal(err)
	}
	if !res.HasChanges {
		t.Fatal("before-click baseline was overwritten by a cross-key call")
	}
}

func TestChangeSnapshotCaptureFailure(t *testing.T) {
	boom := errors.New("page gone")
	s := New(&fakeCapturer{err: boom})

	_, err := s.ChangeSnapshot(context.Background(), SnapshotRequest{})
	if err == nil || !errors.Is(err, boom) {
		t.Fatalf("error: got %v", err)
	}
	if len(s.Store().Keys()) != 0 {
		t.Error("failed capture mutated the store")
	}
}

func TestChangeSnapshotNilTree(t *testing.T) {
	s := New(&fakeCapturer{})
	_, err := s.ChangeSnapshot(context.Background(), SnapshotRequest{})
	if !errors.Is(err, ErrNoTree) {
		t.Fatalf("error: got %v, want ErrNoTree", err)
	}
}

type memorySink struct {
	reports []*Report
	err     error
}

func (m *memorySink) SaveReport(_ context.Context, r *Report) error {
	if m.err != nil {
		return m.err
	}
	m.reports = append(m.reports, r)
	return nil
}

func TestChangeSnapshotArchivesReports(t *testing.T) {
	sink := &memorySink{}
	s := New(&fakeCapturer{trees: []*axtree.RawNode{pageTree("false"), pageTree("true")}},
		WithSink(sink))
	ctx := context.Background()

	s.ChangeSnapshot(ctx, SnapshotRequest{})
	s.ChangeSnapshot(ctx, SnapshotRequest{})

	if len(sink.reports) != 2 {
		t.Fatalf("archived reports: got %d, want 2", len(sink.reports))
	}
	if !sink.reports[0].Created {
		t.Error("first report must record baseline creation")
	}
	second := sink.reports[1]
	if second.Changed != 1 || second.Created {
		t.Errorf("second report: %+v", second)
	}
	if len(second.DiffJSON) == 0 {
		t.Error("diff JSON missing from archived report")
	}
	if second.SessionID != s.ID() {
		t.Errorf("session id: got %q, want %q", second.SessionID, s.ID())
	}
}

func TestChangeSnapshotSinkFailureDoesNotPropagate(t *testing.T) {
	sink := &memorySink{err: errors.New("disk full")}
	s := New(&fakeCapturer{trees: []*axtree.RawNode{pageTree("false")}}, WithSink(sink))

	if _, err := s.ChangeSnapshot(context.Background(), SnapshotRequest{}); err != nil {
		t.Fatalf("sink failure leaked: %v", err)
	}
}

func TestBaselinesListing(t *testing.T) {
	s := New(&fakeCapturer{trees: []*axtree.RawNode{pageTree("false")}})
	ctx := context.Background()
	s.ChangeSnapshot(ctx, SnapshotRequest{BaselineKey: "b"})
	s.ChangeSnapshot(ctx, SnapshotRequest{BaselineKey: "a"})

	infos := s.Baselines()
	if len(infos) != 2 || infos[0].Key != "a" || infos[1].Key != "b" {
		t.Fatalf("baselines: got %+v", infos)
	}
	if infos[0].Nodes != 2 {
		t.Errorf("node count: got %d, want 2", infos[0].Nodes)
	}

	s.ResetBaseline("a")
	if got := len(s.Baselines()); got != 1 {
		t.Errorf("after reset: got %d baselines", got)
	}
}
