package tree

import (
	"strings"

	"github.com/kstrand/attic/internal/ident"
)

// Find returns the node with the given id, searching depth-first, or
// nil when the id is absent.
func Find(t *Node, id string) *Node {
	if t == nil {
		return nil
	}
	if t.ID == id {
		return t
	}
	for _, c := range t.Children {
		if f := Find(c, id); f != nil {
			return f
		}
	}
	return nil
}

// ParentChain returns the root-to-target path, target inclusive, or nil
// when the id is absent.
func ParentChain(t *Node, id string) []*Node {
	return parentChain(t, id, nil)
}

func parentChain(t *Node, id string, chain []*Node) []*Node {
	if t == nil {
		return nil
	}
	chain = append(chain, t)
	if t.ID == id {
		return append([]*Node(nil), chain...)
	}
	for _, c := range t.Children {
		if r := parentChain(c, id, chain); r != nil {
			return r
		}
	}
	return nil
}

// PathNames maps a node chain to its names.
func PathNames(chain []*Node) []string {
	names := make([]string, len(chain))
	for i, n := range chain {
		names[i] = n.Name
	}
	return names
}

// Breadcrumb renders the root-inclusive path to id for display. When
// the id is absent it falls back to the given name.
func Breadcrumb(t *Node, id, fallback string) string {
	chain := ParentChain(t, id)
	if chain == nil {
		return fallback
	}
	return strings.Join(PathNames(chain), " > ")
}

// Insert appends child as the last child of parentID. When the parent
// is absent the input tree is returned unchanged; callers that must
// observe the failure check with Find first.
func Insert(t *Node, parentID string, child *Node) *Node {
	if t.ID == parentID {
		cp := *t
		cp.Children = append(append([]*Node(nil), t.Children...), child)
		return &cp
	}
	changed := false
	kids := make([]*Node, len(t.Children))
	for i, c := range t.Children {
		kids[i] = Insert(c, parentID, child)
		if kids[i] != c {
			changed = true
		}
	}
	if !changed {
		return t
	}
	cp := *t
	cp.Children = kids
	return &cp
}

// Remove deletes the node with the given id and its entire subtree.
// Removing an absent id is a no-op.
func Remove(t *Node, id string) *Node {
	changed := false
	kids := make([]*Node, 0, len(t.Children))
	for _, c := range t.Children {
		if c.ID == id {
			changed = true
			continue
		}
		nc := Remove(c, id)
		if nc != c {
			changed = true
		}
		kids = append(kids, nc)
	}
	if !changed {
		return t
	}
	cp := *t
	cp.Children = kids
	return &cp
}

// Update replaces the node matching id with the result of fn applied to
// a copy of it. fn must not touch Children of other nodes; it receives
// and returns the node by value. An absent id is a no-op.
func Update(t *Node, id string, fn func(Node) Node) *Node {
	if t.ID == id {
		cp := fn(*t)
		return &cp
	}
	changed := false
	kids := make([]*Node, len(t.Children))
	for i, c := range t.Children {
		kids[i] = Update(c, id, fn)
		if kids[i] != c {
			changed = true
		}
	}
	if !changed {
		return t
	}
	cp := *t
	cp.Children = kids
	return &cp
}

// Flatten returns all item nodes in the subtree in depth-first order.
func Flatten(t *Node) []*Node {
	if t.IsItem() {
		return []*Node{t}
	}
	var items []*Node
	for _, c := range t.Children {
		items = append(items, Flatten(c)...)
	}
	return items
}

// FindOrCreatePath walks from the root, matching an existing child by
// case-insensitive name at each level and creating one when absent.
// Created levels share one ID base suffixed with the level index, and
// each carries a created history entry tagged with source. It returns
// the new tree and the id of the deepest node reached.
func FindOrCreatePath(t *Node, names []string, kinds []Kind, source string) (*Node, string) {
	updated := t
	parentID := t.ID
	base := ident.New()
	for i, name := range names {
		kind := KindContainer
		if i < len(kinds) && kinds[i] != "" {
			kind = kinds[i]
		}
		parent := Find(updated, parentID)
		var match *Node
		for _, c := range parent.Children {
			if strings.EqualFold(c.Name, name) {
				match = c
				break
			}
		}
		if match != nil {
			parentID = match.ID
			continue
		}
		chain := ParentChain(updated, parentID)
		nn := &Node{
			ID:   ident.NewAt(base, i),
			Name: name,
			Kind: kind,
			History: []HistoryEntry{{
				Event:      EventCreated,
				Timestamp:  ident.Now(),
				Source:     source,
				ParentPath: PathNames(chain),
			}},
		}
		updated = Insert(updated, parentID, nn)
		parentID = nn.ID
	}
	return updated, parentID
}

// Move detaches the subtree rooted at nodeID and reattaches it under
// newParentID, preserving id, history and descendants. Moving a node
// onto itself, into its own subtree, or naming an absent id is a
// no-op; either a fully moved tree or the unchanged input is returned.
// Move does not record history; the caller appends the moved entry.
func Move(t *Node, nodeID, newParentID string) *Node {
	node := Find(t, nodeID)
	if node == nil || node.ID == newParentID {
		return t
	}
	if Find(t, newParentID) == nil {
		return t
	}
	if Find(node, newParentID) != nil {
		return t
	}
	cp := *node
	updated := Remove(t, nodeID)
	return Insert(updated, newParentID, &cp)
}

// FindOrCreateLocation resolves parentPath by exact case-insensitive
// name match at each level and ensures a child with the given name and
// kind exists under it. Unlike FindOrCreatePath it never creates
// intermediate levels: an unresolvable segment returns nil. An existing
// name+kind match returns the tree unchanged.
func FindOrCreateLocation(t *Node, name string, kind Kind, parentPath []string) *Node {
	current := t
	for _, seg := range parentPath {
		var match *Node
		for _, c := range current.Children {
			if strings.EqualFold(c.Name, seg) {
				match = c
				break
			}
		}
		if match == nil {
			return nil
		}
		current = match
	}
	for _, c := range current.Children {
		if strings.EqualFold(c.Name, name) && c.Kind == kind {
			return t
		}
	}
	nn := New(name, kind, "ai", parentPath)
	return Insert(t, current.ID, nn)
}

// DeleteKeepingChildren removes a node but reparents its children to
// the removed node's parent. Deleting the root or an absent id is a
// no-op beyond a plain remove.
func DeleteKeepingChildren(t *Node, id string) *Node {
	node := Find(t, id)
	if node == nil {
		return t
	}
	chain := ParentChain(t, id)
	if len(chain) < 2 {
		return Remove(t, id)
	}
	parentID := chain[len(chain)-2].ID
	updated := t
	for _, c := range node.Children {
		updated = Move(updated, c.ID, parentID)
	}
	return Remove(updated, id)
}
