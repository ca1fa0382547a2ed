package engine

import (
	"fmt"

	"github.com/kstrand/attic/internal/history"
	"github.com/kstrand/attic/internal/tree"
)

// ErrNotFound is returned by direct actions whose target must exist to
// be meaningful at the CLI. Tree operations themselves stay silent on
// absent ids; the engine checks first where the user needs to know.
var ErrNotFound = fmt.Errorf("not found")

// AddItem creates an item under the given location.
func (e *Engine) AddItem(parentID, name string, quantity *int, category tree.Category) (*tree.Node, error) {
	parent := tree.Find(e.sess.Tree, parentID)
	if parent == nil {
		return nil, fmt.Errorf("location %s: %w", parentID, ErrNotFound)
	}
	if parent.Kind == tree.KindHouse || parent.Kind == tree.KindFloor || parent.IsItem() {
		return nil, fmt.Errorf("cannot add items under a %s", parent.Kind)
	}
	e.sess.PushUndo("add")
	parentPath := tree.PathNames(tree.ParentChain(e.sess.Tree, parentID))
	node := tree.NewItem(name, quantity, category, "manual", parentPath)
	e.sess.Tree = tree.Insert(e.sess.Tree, parentID, node)
	return node, nil
}

// AddContainer creates a container under a room or another container.
func (e *Engine) AddContainer(parentID, name string) (*tree.Node, error) {
	parent := tree.Find(e.sess.Tree, parentID)
	if parent == nil {
		return nil, fmt.Errorf("location %s: %w", parentID, ErrNotFound)
	}
	if parent.Kind != tree.KindRoom && parent.Kind != tree.KindContainer {
		return nil, fmt.Errorf("cannot add a container under a %s", parent.Kind)
	}
	e.sess.PushUndo("add")
	parentPath := tree.PathNames(tree.ParentChain(e.sess.Tree, parentID))
	node := tree.New(name, tree.KindContainer, "manual", parentPath)
	e.sess.Tree = tree.Insert(e.sess.Tree, parentID, node)
	return node, nil
}

// ItemEdit is a partial item update. Nil fields are left alone;
// SetQuantity distinguishes "set to unknown" from "not edited".
type ItemEdit struct {
	Name        *string
	Quantity    *int
	SetQuantity bool
	Category    *tree.Category
}

// EditItem applies a partial update to an item, appending one history
// entry per field whose value actually changed.
func (e *Engine) EditItem(id string, edit ItemEdit) error {
	item := tree.Find(e.sess.Tree, id)
	if item == nil || !item.IsItem() {
		return fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	e.sess.PushUndo("edit")
	updated := tree.Update(e.sess.Tree, id, func(n tree.Node) tree.Node {
		if edit.Name != nil {
			n.Name = *edit.Name
		}
		if edit.SetQuantity {
			n.Quantity = edit.Quantity
		}
		if edit.Category != nil {
			n.Category = *edit.Category
		}
		return n
	})
	if edit.Name != nil && *edit.Name != item.Name {
		updated = history.Append(updated, id, tree.HistoryEntry{
			Event: tree.EventRenamed, From: item.Name, To: *edit.Name,
		})
	}
	if edit.SetQuantity && qtyValue(edit.Quantity) != qtyValue(item.Quantity) {
		updated = history.Append(updated, id, tree.HistoryEntry{
			Event: tree.EventQuantityChanged, From: qtyValue(item.Quantity), To: qtyValue(edit.Quantity),
		})
	}
	if edit.Category != nil && *edit.Category != item.Category {
		updated = history.Append(updated, id, tree.HistoryEntry{
			Event: tree.EventCategoryChanged, From: string(item.Category), To: string(*edit.Category),
		})
	}
	e.sess.Tree = updated
	return nil
}

// Rename changes a node's display name, appending a renamed entry when
// the name actually changed.
func (e *Engine) Rename(id, newName string) error {
	node := tree.Find(e.sess.Tree, id)
	if node == nil {
		return fmt.Errorf("node %s: %w", id, ErrNotFound)
	}
	e.sess.PushUndo("rename")
	updated := tree.Update(e.sess.Tree, id, func(n tree.Node) tree.Node {
		n.Name = newName
		return n
	})
	if node.Name != newName {
		updated = history.Append(updated, id, tree.HistoryEntry{
			Event: tree.EventRenamed, From: node.Name, To: newName,
		})
	}
	e.sess.Tree = updated
	return nil
}

// MoveNode relocates a node (item or location) under a new parent and
// records exactly one moved entry.
func (e *Engine) MoveNode(id, destID string) (string, error) {
	node := tree.Find(e.sess.Tree, id)
	if node == nil {
		return "", fmt.Errorf("node %s: %w", id, ErrNotFound)
	}
	if tree.Find(e.sess.Tree, destID) == nil {
		return "", fmt.Errorf("destination %s: %w", destID, ErrNotFound)
	}
	var fromPath []string
	if chain := tree.ParentChain(e.sess.Tree, id); chain != nil {
		fromPath = tree.PathNames(chain[:len(chain)-1])
	}
	toPath := tree.PathNames(tree.ParentChain(e.sess.Tree, destID))
	updated := tree.Move(e.sess.Tree, id, destID)
	if updated == e.sess.Tree {
		return "", fmt.Errorf("cannot move %q into itself", node.Name)
	}
	updated = history.Moved(updated, id, fromPath, toPath)
	e.sess.PushUndo("move")
	e.sess.Tree = updated
	return tree.Breadcrumb(e.sess.Tree, id, node.Name), nil
}

// Delete removes a node and its subtree after snapshotting it to the
// deleted log. KeepChildren reparents the node's children to its parent
// instead of cascading.
func (e *Engine) Delete(id string, keepChildren bool) error {
	node := tree.Find(e.sess.Tree, id)
	if node == nil {
		return fmt.Errorf("node %s: %w", id, ErrNotFound)
	}
	if node.ID == e.sess.Tree.ID {
		return fmt.Errorf("cannot delete the house")
	}
	e.sess.PushUndo("delete")
	updated := history.SnapshotDeleted(e.sess.Tree, id)
	if keepChildren {
		updated = tree.DeleteKeepingChildren(updated, id)
	} else {
		updated = tree.Remove(updated, id)
	}
	e.sess.Tree = updated
	return nil
}

// ClearAll resets the tree to the default house structure.
func (e *Engine) ClearAll() {
	e.sess.PushUndo("clear all")
	e.sess.Tree = tree.Migrate(tree.DefaultHouse())
}
