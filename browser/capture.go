package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hazyhaar/axwatch/axtree"
)

// cdpAXNode is one node of the flat list Accessibility.getFullAXTree
// returns. Parsed by hand: the typed CDP bindings choke on the loose
// value shapes some pages produce (numbers as strings, missing types).
type cdpAXNode struct {
	NodeID           string            `json:"nodeId"`
	Ignored          bool              `json:"ignored"`
	Role             json.RawMessage   `json:"role"`
	Name             json.RawMessage   `json:"name"`
	Description      json.RawMessage   `json:"description"`
	Value            json.RawMessage   `json:"value"`
	Properties       []json.RawMessage `json:"properties"`
	ChildIDs         []string          `json:"childIds"`
	BackendDOMNodeID int64             `json:"backendDOMNodeId"`
}

type cdpAXTreeResult struct {
	Nodes []cdpAXNode `json:"nodes"`
}

// CaptureAXTree fetches the page's full accessibility tree over raw CDP
// and assembles it into a RawNode tree. Returns nil when the page exposes
// no accessibility tree (e.g. about:blank before first paint).
func (t *Tab) CaptureAXTree(ctx context.Context) (*axtree.RawNode, error) {
	page := t.Page.Context(ctx)

	if _, err := page.Call(ctx, string(page.SessionID), "Accessibility.enable", nil); err != nil {
		return nil, fmt.Errorf("browser: enable accessibility: %w", err)
	}
	raw, err := page.Call(ctx, string(page.SessionID), "Accessibility.getFullAXTree", nil)
	if err != nil {
		return nil, fmt.Errorf("browser: get ax tree: %w", err)
	}

	var result cdpAXTreeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("browser: decode ax tree: %w", err)
	}

	return assembleAXTree(result.Nodes), nil
}

// assembleAXTree converts the flat CDP node list into a RawNode tree.
// Ignored nodes are dropped and their children hoisted to the parent, so
// the resulting tree matches what assistive technology actually sees.
func assembleAXTree(nodes []cdpAXNode) *axtree.RawNode {
	if len(nodes) == 0 {
		return nil
	}

	byID := make(map[string]*cdpAXNode, len(nodes))
	isChild := make(map[string]bool, len(nodes))
	for i := range nodes {
		n := &nodes[i]
		byID[n.NodeID] = n
		for _, c := range n.ChildIDs {
			isChild[c] = true
		}
	}

	// The root is the node nobody references as a child. Fall back to the
	// first node when the list is inconsistent.
	root := &nodes[0]
	for i := range nodes {
		if !isChild[nodes[i].NodeID] {
			root = &nodes[i]
			break
		}
	}

	visited := make(map[string]bool, len(nodes))
	built := buildSubtree(root, byID, visited)
	if len(built) == 0 {
		return nil
	}
	if len(built) == 1 {
		return built[0]
	}
	// The root itself was ignored; wrap its surviving children.
	return &axtree.RawNode{
		Attrs:    map[string]any{"role": "RootWebArea"},
		Children: built,
	}
}

// buildSubtree returns the list of kept nodes a CDP node contributes: the
// node itself when it is not ignored, otherwise its hoisted descendants.
func buildSubtree(n *cdpAXNode, byID map[string]*cdpAXNode, visited map[string]bool) []*axtree.RawNode {
	if n == nil || visited[n.NodeID] {
		return nil
	}
	visited[n.NodeID] = true

	var children []*axtree.RawNode
	for _, id := range n.ChildIDs {
		children = append(children, buildSubtree(byID[id], byID, visited)...)
	}

	if n.Ignored {
		return children
	}

	node := &axtree.RawNode{
		AXNodeID:         n.NodeID,
		BackendDOMNodeID: n.BackendDOMNodeID,
		Attrs:            make(map[string]any),
		Children:         children,
	}
	if v, ok := unwrapAXValue(n.Role); ok {
		node.Attrs["role"] = v
	}
	if v, ok := unwrapAXValue(n.Name); ok {
		node.Attrs["name"] = v
	}
	if v, ok := unwrapAXValue(n.Description); ok {
		node.Attrs["description"] = v
	}
	if v, ok := unwrapAXValue(n.Value); ok {
		node.Attrs["value"] = v
	}
	for _, raw := range n.Properties {
		name, v, ok := unwrapAXProperty(raw)
		if ok {
			node.Attrs[name] = v
		}
	}
	return []*axtree.RawNode{node}
}

// unwrapAXValue extracts the payload of a CDP AXValue wrapper
// ({"type": ..., "value": ...}). Missing or empty wrappers report ok=false.
func unwrapAXValue(raw json.RawMessage) (any, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var wrapper map[string]any
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		// Not an object. Some pages emit bare scalars here.
		var v any
		if err := json.Unmarshal(raw, &v); err != nil || v == nil {
			return nil, false
		}
		return v, true
	}
	v, ok := wrapper["value"]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// unwrapAXProperty extracts name and payload from a CDP AXProperty entry.
func unwrapAXProperty(raw json.RawMessage) (string, any, bool) {
	var prop struct {
		Name  string          `json:"name"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(raw, &prop); err != nil || prop.Name == "" {
		return "", nil, false
	}
	v, ok := unwrapAXValue(prop.Value)
	if !ok {
		return "", nil, false
	}
	return prop.Name, v, true
}
