package axtree

import (
	"strconv"
	"time"
)

// Node is one normalized accessibility node.
//
// ID is the cross-capture identity key, unique within one snapshot. Path is
// the dot-separated child-index trail from the root ("0.2.1"); it is
// deterministic for a given tree shape but NOT stable across structural
// changes, so it is display only, never identity. Data holds every raw attribute
// except child structure and raw identifiers. Role and Name are convenience
// projections of Data for reporting.
type Node struct {
	ID       string         `json:"id"`
	Path     string         `json:"path"`
	Role     string         `json:"role,omitempty"`
	Name     string         `json:"name,omitempty"`
	Data     map[string]any `json:"data"`
	ParentID string         `json:"parentId,omitempty"`
}

// Snapshot is one normalized capture: a flat id-keyed map of nodes.
// The map is owned exclusively by the snapshot; it is never shared.
type Snapshot struct {
	CapturedAt time.Time        `json:"captured_at"`
	Nodes      map[string]*Node `json:"nodes"`
}

// Normalize walks a raw tree depth-first pre-order, starting at path "0",
// and produces a snapshot with a fresh capture timestamp. Every raw node
// yields exactly one normalized node; nothing is skipped or merged.
func Normalize(root *RawNode) *Snapshot {
	snap := &Snapshot{
		CapturedAt: time.Now(),
		Nodes:      make(map[string]*Node),
	}
	if root != nil {
		normalizeNode(snap, root, "0", "")
	}
	return snap
}

func normalizeNode(snap *Snapshot, n *RawNode, path, parentID string) {
	id := NodeKey(n, path)
	if _, taken := snap.Nodes[id]; taken {
		// Identity hints are expected unique within one capture. If the
		// browser ever repeats one, disambiguate positionally rather than
		// silently overwriting a node.
		id = id + "#" + path
	}

	node := &Node{
		ID:       id,
		Path:     path,
		Data:     copyData(n.Attrs),
		ParentID: parentID,
	}
	if role, ok := n.Attrs["role"].(string); ok {
		node.Role = role
	}
	node.Name = extractName(n.Attrs["name"])
	snap.Nodes[id] = node

	for i, child := range n.Children {
		normalizeNode(snap, child, path+"."+strconv.Itoa(i), id)
	}
}

// extractName accepts a plain string, stringifies a plain number, or unwraps
// a single-level {value: ...} holder whose value is a string or number.
// Anything else leaves the name empty.
func extractName(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return formatNumber(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case map[string]any:
		if inner, ok := x["value"]; ok {
			switch iv := inner.(type) {
			case string:
				return iv
			case float64:
				return formatNumber(iv)
			case int:
				return strconv.Itoa(iv)
			case int64:
				return strconv.FormatInt(iv, 10)
			}
		}
	}
	return ""
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// copyData deep-copies the attribute map so no snapshot ever aliases raw
// capture data or another snapshot.
func copyData(attrs map[string]any) map[string]any {
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, e := range x {
			m[k] = copyValue(e)
		}
		return m
	case []any:
		s := make([]any, len(x))
		for i, e := range x {
			s[i] = copyValue(e)
		}
		return s
	default:
		return v
	}
}
