package axtree

import (
	"strconv"
	"strings"
)

// NodeKey derives the cross-capture identity string for a raw node.
//
// All present hints are concatenated in fixed priority order rather than
// taking the first match: a weak hint that happens to collide with an
// unrelated node's weak hint in another capture cannot silently claim its
// identity when a stronger hint disagrees.
//
// When no hint is present at all the key degrades to positional identity
// ("path:0.2.1"). Positional identity breaks under sibling reordering or
// insertion. Such nodes are reported as one removal plus one addition,
// which is the documented behaviour, not a defect.
func NodeKey(n *RawNode, path string) string {
	var parts []string
	if n.BackendDOMNodeID != 0 {
		parts = append(parts, "dom:"+strconv.FormatInt(n.BackendDOMNodeID, 10))
	}
	if n.NodeID != "" {
		parts = append(parts, "node:"+n.NodeID)
	}
	if n.AXNodeID != "" {
		parts = append(parts, "ax:"+n.AXNodeID)
	}
	if len(parts) == 0 {
		return "path:" + path
	}
	return strings.Join(parts, "|")
}
