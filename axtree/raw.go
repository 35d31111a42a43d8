// Package axtree normalizes raw accessibility trees into stable, comparable
// snapshots and computes minimal diffs between two captures.
//
// axtree observes, it does not interpret. The capture collaborator (browser
// package, or anything else implementing it) hands over one raw tree; axtree
// assigns cross-capture identity to every node, flattens the tree into a
// keyed snapshot, and reports exactly what changed between a stored baseline
// and the current capture, never the whole tree.
package axtree

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// RawNode is one node of a captured accessibility tree, before normalization.
//
// The browser assigns up to three independent identity hints. None of them is
// guaranteed stable across captures: the backend DOM id survives as long as
// the rendered element is not destroyed, the AX-internal node id is often
// session-scoped, and the accessibility id is the weakest. Everything that is
// not identity or child structure lives in Attrs (role, name, state
// properties, values) and becomes the comparable content of the node.
type RawNode struct {
	BackendDOMNodeID int64
	NodeID           string
	AXNodeID         string
	Attrs            map[string]any
	Children         []*RawNode
}

// UnmarshalJSON decodes a raw tree node from its CDP-shaped JSON form.
// The typed CDP bindings choke on exotic AX property values, so the decode
// is manual: identity hints are pulled out by name, "children" recurses,
// a literal "id" field is dropped (identity, not content), and every other
// key is kept verbatim in Attrs.
func (n *RawNode) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("axtree: decode raw node: %w", err)
	}

	n.Attrs = make(map[string]any, len(fields))
	for key, raw := range fields {
		switch key {
		case "backendDOMNodeId":
			id, err := decodeInt(raw)
			if err != nil {
				return fmt.Errorf("axtree: backendDOMNodeId: %w", err)
			}
			n.BackendDOMNodeID = id
		case "nodeId":
			n.NodeID = decodeLooseString(raw)
		case "axNodeId":
			n.AXNodeID = decodeLooseString(raw)
		case "children":
			if err := json.Unmarshal(raw, &n.Children); err != nil {
				return fmt.Errorf("axtree: children: %w", err)
			}
		case "id":
			// Raw identifiers are identity, never content.
		default:
			var v any
			if err := json.Unmarshal(raw, &v); err != nil {
				return fmt.Errorf("axtree: attribute %q: %w", key, err)
			}
			n.Attrs[key] = v
		}
	}
	return nil
}

// decodeInt accepts a JSON number or a numeric string.
func decodeInt(raw json.RawMessage) (int64, error) {
	var i int64
	if err := json.Unmarshal(raw, &i); err == nil {
		return i, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strconv.ParseInt(s, 10, 64)
	}
	return 0, fmt.Errorf("not an integer: %s", raw)
}

// decodeLooseString accepts a JSON string or number and returns its text.
func decodeLooseString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.Trim(string(raw), `"`)
}
