package axtree

import (
	"fmt"
	"strings"
)

// FormatDiff renders a diff as the line-oriented report the agent reads back:
// a counts header, then Added/Removed/Changed sections with one bullet per
// node and one "before -> after" line per changed property.
func FormatDiff(d *Diff) string {
	if !HasChanges(d) {
		return "No accessibility changes detected.\n"
	}

	var b strings.Builder
	total := len(d.Added) + len(d.Removed) + len(d.Changed)
	fmt.Fprintf(&b, "%d change(s): %d added, %d removed, %d changed\n",
		total, len(d.Added), len(d.Removed), len(d.Changed))

	if len(d.Added) > 0 {
		b.WriteString("\nAdded:\n")
		for _, n := range d.Added {
			writeNodeLine(&b, n.Role, n.Name, n.Path)
		}
	}
	if len(d.Removed) > 0 {
		b.WriteString("\nRemoved:\n")
		for _, n := range d.Removed {
			writeNodeLine(&b, n.Role, n.Name, n.Path)
		}
	}
	if len(d.Changed) > 0 {
		b.WriteString("\nChanged:\n")
		for _, c := range d.Changed {
			writeNodeLine(&b, c.Role, c.Name, c.Path)
			for _, pc := range c.Changes {
				fmt.Fprintf(&b, "    %s: %s -> %s\n",
					pc.Property, renderValue(pc.Before), renderValue(pc.After))
			}
		}
	}
	return b.String()
}

// FormatBaselineCreated is the report for a comparison that found no stored
// baseline and created one instead.
func FormatBaselineCreated(key string, nodeCount int) string {
	return fmt.Sprintf("Baseline %q created (%d nodes). Subsequent calls will diff against it.\n", key, nodeCount)
}

func writeNodeLine(b *strings.Builder, role, name, path string) {
	b.WriteString("- ")
	if role != "" {
		b.WriteString(role)
	} else {
		b.WriteString("node")
	}
	if name != "" {
		fmt.Fprintf(b, " %q", name)
	}
	fmt.Fprintf(b, " (%s)\n", path)
}

// renderValue prints a property value for the report. Absent sides (a
// property that only exists in one snapshot) render as "(none)".
func renderValue(v any) string {
	if v == nil {
		return "(none)"
	}
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return Canonical(v)
}
