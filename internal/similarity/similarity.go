// Package similarity detects and groups near-duplicate item names.
package similarity

import (
	"strings"

	"github.com/kstrand/attic/internal/tree"
)

// Normalize lowercases, trims and singularizes a name. The
// singularizer is a fixed-priority heuristic for common English plural
// endings; irregular plurals pass through unchanged. That is an
// accepted approximation, matched by the tests.
func Normalize(name string) string {
	n := strings.TrimSpace(strings.ToLower(name))
	switch {
	case strings.HasSuffix(n, "ies") && len(n) > 4:
		return n[:len(n)-3] + "y"
	case strings.HasSuffix(n, "ses") || strings.HasSuffix(n, "xes") || strings.HasSuffix(n, "zes"):
		return n[:len(n)-2]
	case strings.HasSuffix(n, "ches") || strings.HasSuffix(n, "shes"):
		return n[:len(n)-2]
	case strings.HasSuffix(n, "s") && !strings.HasSuffix(n, "ss") && len(n) > 2:
		return n[:len(n)-1]
	}
	return n
}

// Similar reports whether two item names look like the same thing.
// Three tiers, first hit wins: equal normalized forms; one normalized
// form contained in the other (both longer than two runes); and for
// multi-word names, at least half of the smaller token set matching by
// normalized form.
func Similar(a, b string) bool {
	na := Normalize(a)
	nb := Normalize(b)
	if na == nb {
		return true
	}
	if len(na) > 2 && len(nb) > 2 && (strings.Contains(na, nb) || strings.Contains(nb, na)) {
		return true
	}
	ta := tokens(na)
	tb := tokens(nb)
	if len(ta) > 1 && len(tb) > 1 {
		shared := 0
		for _, w := range ta {
			for _, w2 := range tb {
				if Normalize(w) == Normalize(w2) {
					shared++
					break
				}
			}
		}
		smaller := len(ta)
		if len(tb) < smaller {
			smaller = len(tb)
		}
		if shared > 0 && float64(shared) >= float64(smaller)*0.5 {
			return true
		}
	}
	return false
}

func tokens(s string) []string {
	var out []string
	for _, w := range strings.Fields(s) {
		if len(w) > 2 {
			out = append(out, w)
		}
	}
	return out
}

// Match is an item annotated with its full breadcrumb path.
type Match struct {
	Item *tree.Node
	Path string
}

// FindSimilarItems returns every item in the tree, minus the excluded
// ids, whose name is similar to the given one.
func FindSimilarItems(t *tree.Node, name string, excludeIDs []string) []Match {
	excluded := make(map[string]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}
	var out []Match
	for _, item := range tree.Flatten(t) {
		if excluded[item.ID] || !Similar(item.Name, name) {
			continue
		}
		out = append(out, Match{
			Item: item,
			Path: tree.Breadcrumb(t, item.ID, item.Name),
		})
	}
	return out
}

// FindAllDuplicateGroups partitions the tree's items into groups of
// similar names. Grouping is a single greedy pass: the first ungrouped
// item anchors a group and absorbs every later ungrouped item similar
// to it. Transitivity runs through the anchor only, which can pull in
// items that are similar to the anchor but not to each other; that is
// the intended behavior, not a defect. Only groups of two or more are
// returned, and no item appears in two groups.
func FindAllDuplicateGroups(t *tree.Node) [][]Match {
	items := tree.Flatten(t)
	var groups [][]Match
	processed := make(map[string]bool)
	for i, anchor := range items {
		if processed[anchor.ID] {
			continue
		}
		group := []Match{{Item: anchor, Path: tree.Breadcrumb(t, anchor.ID, anchor.Name)}}
		for _, cand := range items[i+1:] {
			if processed[cand.ID] {
				continue
			}
			if Similar(anchor.Name, cand.Name) {
				group = append(group, Match{Item: cand, Path: tree.Breadcrumb(t, cand.ID, cand.Name)})
				processed[cand.ID] = true
			}
		}
		if len(group) > 1 {
			groups = append(groups, group)
			processed[anchor.ID] = true
		}
	}
	return groups
}
