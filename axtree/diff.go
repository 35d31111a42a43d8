package axtree

import (
	"sort"
	"strconv"
	"strings"
)

// PropertyChange is one attribute-level transition on a surviving node.
// Before and After carry raw (non-canonical) values for readable reporting;
// a nil side means the property was absent in that snapshot.
type PropertyChange struct {
	Property string `json:"property"`
	Before   any    `json:"before"`
	After    any    `json:"after"`
}

// NodeChange is a node present in both snapshots whose data differs.
type NodeChange struct {
	ID      string           `json:"id"`
	Path    string           `json:"path"`
	Role    string           `json:"role,omitempty"`
	Name    string           `json:"name,omitempty"`
	Changes []PropertyChange `json:"changes"`
}

// Diff is the minimal change set between a baseline and a current snapshot.
type Diff struct {
	Added   []*Node      `json:"added"`
	Removed []*Node      `json:"removed"`
	Changed []NodeChange `json:"changed"`
}

// HasChanges reports whether the diff contains anything at all.
func HasChanges(d *Diff) bool {
	return d != nil && (len(d.Added) > 0 || len(d.Removed) > 0 || len(d.Changed) > 0)
}

// Compare computes the diff from baseline to current. It is a pure function:
// deterministic for deterministic inputs, no side effects on either snapshot.
//
// A node with identical id and canonically-equal data in both snapshots is
// reported nowhere. Nodes that share no identity hint across captures are
// reported as one removal plus one addition; correlating them is out of
// scope here.
func Compare(baseline, current *Snapshot) *Diff {
	d := &Diff{
		Added:   []*Node{},
		Removed: []*Node{},
		Changed: []NodeChange{},
	}

	for _, id := range sortedIDs(current.Nodes) {
		cur := current.Nodes[id]
		base, ok := baseline.Nodes[id]
		if !ok {
			d.Added = append(d.Added, cur)
			continue
		}
		if positionalMismatch(id, base, cur) {
			// Positional identity means "whatever sits at this path", not
			// "the same logical node". When the occupant's role or name
			// changed, a different node moved in: report the old one gone
			// and the new one arrived instead of a property-level change.
			d.Removed = append(d.Removed, base)
			d.Added = append(d.Added, cur)
			continue
		}
		changes := diffProperties(base.Data, cur.Data)
		if len(changes) == 0 {
			continue
		}
		nc := NodeChange{
			ID:      id,
			Path:    cur.Path,
			Role:    cur.Role,
			Name:    cur.Name,
			Changes: changes,
		}
		if nc.Role == "" {
			nc.Role = base.Role
		}
		if nc.Name == "" {
			nc.Name = base.Name
		}
		d.Changed = append(d.Changed, nc)
	}

	for _, id := range sortedIDs(baseline.Nodes) {
		if _, ok := current.Nodes[id]; !ok {
			d.Removed = append(d.Removed, baseline.Nodes[id])
		}
	}

	sortNodes(d.Added)
	sortNodes(d.Removed)
	sort.SliceStable(d.Changed, func(i, j int) bool {
		if c := comparePaths(d.Changed[i].Path, d.Changed[j].Path); c != 0 {
			return c < 0
		}
		return d.Changed[i].ID < d.Changed[j].ID
	})

	return d
}

// positionalMismatch reports whether a path-keyed match pairs two nodes that
// are visibly different occupants of the same position.
func positionalMismatch(id string, base, cur *Node) bool {
	return strings.HasPrefix(id, "path:") && (base.Role != cur.Role || base.Name != cur.Name)
}

// diffProperties compares the union of data keys between two nodes.
// Detection uses canonical forms; the emitted change carries raw values.
func diffProperties(before, after map[string]any) []PropertyChange {
	keys := make(map[string]struct{}, len(before)+len(after))
	for k := range before {
		keys[k] = struct{}{}
	}
	for k := range after {
		keys[k] = struct{}{}
	}

	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	var changes []PropertyChange
	for _, k := range sorted {
		bv, bok := before[k]
		av, aok := after[k]
		if bok && aok && CanonicalEqual(bv, av) {
			continue
		}
		if !bok && !aok {
			continue
		}
		changes = append(changes, PropertyChange{Property: k, Before: bv, After: av})
	}
	return changes
}

func sortedIDs(nodes map[string]*Node) []string {
	ids := make([]string, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// sortNodes orders report entries by tree position, then id. Paths compare
// segment-wise numerically so "0.10" sorts after "0.9".
func sortNodes(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if c := comparePaths(nodes[i].Path, nodes[j].Path); c != 0 {
			return c < 0
		}
		return nodes[i].ID < nodes[j].ID
	})
}

func comparePaths(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		ai, aerr := strconv.Atoi(as[i])
		bi, berr := strconv.Atoi(bs[i])
		if aerr != nil || berr != nil {
			if c := strings.Compare(as[i], bs[i]); c != 0 {
				return c
			}
			continue
		}
		if ai != bi {
			return ai - bi
		}
	}
	return len(as) - len(bs)
}
