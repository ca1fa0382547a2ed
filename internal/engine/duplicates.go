package engine

import (
	"fmt"
	"strings"

	"github.com/kstrand/attic/internal/history"
	"github.com/kstrand/attic/internal/intent"
	"github.com/kstrand/attic/internal/similarity"
	"github.com/kstrand/attic/internal/tree"
)

// PendingItem is one item of a store batch awaiting duplicate
// resolution, annotated with its resolved location and candidates.
type PendingItem struct {
	intent.Item
	LeafID     string
	TargetPath string
	Duplicates []similarity.Match
}

// PendingStore is a held store batch. The tree with created path nodes
// stays private until the batch is committed; cancelling discards it.
type PendingStore struct {
	Items []PendingItem

	treeWithPaths *tree.Node
	undoTree      *tree.Node
}

// ChoiceAction selects how one pending item is resolved.
type ChoiceAction string

const (
	// ChoiceSkip discards the item entirely.
	ChoiceSkip ChoiceAction = "skip"
	// ChoiceAddToExisting folds the quantity into an existing item.
	ChoiceAddToExisting ChoiceAction = "addToExisting"
	// ChoiceMoveHere relocates an existing item to the new location
	// instead of creating the new item.
	ChoiceMoveHere ChoiceAction = "moveHere"
	// ChoiceAdd stores the new item as normal.
	ChoiceAdd ChoiceAction = "add"
)

// Choice resolves one pending item. TargetID names the existing item
// for addToExisting and moveHere.
type Choice struct {
	Action   ChoiceAction
	TargetID string
}

// ResolvePending commits the held store batch with one choice per
// pending item. The undo snapshot restores the tree as it was before
// the original submission; a batch whose choices change nothing pushes
// no undo entry and leaves the tree untouched.
func (e *Engine) ResolvePending(choices []Choice) (*Outcome, error) {
	p := e.pending
	if p == nil {
		return nil, fmt.Errorf("no pending store batch")
	}
	if len(choices) != len(p.Items) {
		return nil, fmt.Errorf("expected %d choices, got %d", len(p.Items), len(choices))
	}
	e.pending = nil

	updated := p.treeWithPaths
	var stored []string
	for i, item := range p.Items {
		choice := choices[i]
		switch choice.Action {
		case ChoiceSkip:
			continue
		case ChoiceAddToExisting:
			var path string
			updated, path = addToExisting(updated, item, choice.TargetID)
			if path != "" {
				stored = append(stored, path+" (updated qty)")
			}
		case ChoiceMoveHere:
			var path string
			updated, path = moveExistingHere(updated, item, choice.TargetID)
			if path != "" {
				stored = append(stored, path+" (moved)")
			}
		default:
			var path string
			updated, path = insertItem(updated, item)
			stored = append(stored, path)
		}
	}

	if len(stored) == 0 {
		return &Outcome{Kind: OutcomeStored, Message: "No items stored."}, nil
	}
	e.sess.PushSnapshot(p.undoTree, "store")
	e.sess.Tree = updated
	return &Outcome{Kind: OutcomeStored, Message: "Stored: " + strings.Join(stored, "; ")}, nil
}

// CancelPending discards the entire held batch: no mutation, no undo
// entry.
func (e *Engine) CancelPending() {
	e.pending = nil
}

// Pending returns the held batch, if any.
func (e *Engine) Pending() *PendingStore { return e.pending }

// addToExisting folds the new item's quantity into the target item.
// The sum is numeric when either side is; unknown plus unknown stays
// unknown. A real change appends one quantity_changed entry.
func addToExisting(t *tree.Node, item PendingItem, targetID string) (*tree.Node, string) {
	existing := tree.Find(t, targetID)
	if existing == nil {
		return t, ""
	}
	oldQty := existing.Quantity
	var newQty *int
	if oldQty != nil || item.Quantity != nil {
		sum := value(oldQty) + value(item.Quantity)
		newQty = &sum
	}
	t = tree.Update(t, targetID, func(n tree.Node) tree.Node {
		n.Quantity = newQty
		return n
	})
	t = history.Append(t, targetID, tree.HistoryEntry{
		Event: tree.EventQuantityChanged,
		From:  qtyValue(oldQty),
		To:    qtyValue(newQty),
	})
	return t, tree.Breadcrumb(t, targetID, existing.Name)
}

// moveExistingHere relocates the target item to the new item's
// intended location, overriding its quantity when the new item carries
// one. The new item's own node is never created.
func moveExistingHere(t *tree.Node, item PendingItem, targetID string) (*tree.Node, string) {
	existing := tree.Find(t, targetID)
	if existing == nil {
		return t, ""
	}
	var fromPath []string
	if chain := tree.ParentChain(t, targetID); chain != nil {
		fromPath = tree.PathNames(chain[:len(chain)-1])
	}
	var toPath []string
	if chain := tree.ParentChain(t, item.LeafID); chain != nil {
		toPath = tree.PathNames(chain)
	}
	t = tree.Move(t, targetID, item.LeafID)
	if item.Quantity != nil {
		t = tree.Update(t, targetID, func(n tree.Node) tree.Node {
			n.Quantity = item.Quantity
			return n
		})
	}
	t = history.Moved(t, targetID, fromPath, toPath)
	return t, tree.Breadcrumb(t, targetID, item.Name)
}

func value(q *int) int {
	if q == nil {
		return 0
	}
	return *q
}

func qtyValue(q *int) any {
	if q == nil {
		return nil
	}
	return *q
}

// ScanDuplicates enumerates all duplicate groups in the live tree.
func (e *Engine) ScanDuplicates() [][]similarity.Match {
	return similarity.FindAllDuplicateGroups(e.sess.Tree)
}

// MergeGroup collapses a duplicate group into the kept item: numeric
// quantities are summed onto it and every other member is snapshotted
// to the deleted log and removed.
func (e *Engine) MergeGroup(group []similarity.Match, keepID string) (*Outcome, error) {
	var keep *tree.Node
	for _, m := range group {
		if m.Item.ID == keepID {
			keep = m.Item
			break
		}
	}
	if keep == nil {
		return nil, fmt.Errorf("kept item %s is not in the group", keepID)
	}
	e.sess.PushUndo("merge")
	updated := e.sess.Tree
	total := 0
	hasQty := false
	for _, m := range group {
		if m.Item.Quantity != nil {
			total += *m.Item.Quantity
			hasQty = true
		}
		if m.Item.ID != keepID {
			updated = history.SnapshotDeleted(updated, m.Item.ID)
			updated = tree.Remove(updated, m.Item.ID)
		}
	}
	if hasQty {
		sum := total
		updated = tree.Update(updated, keepID, func(n tree.Node) tree.Node {
			n.Quantity = &sum
			return n
		})
	}
	e.sess.Tree = updated
	return &Outcome{
		Kind:    OutcomeStored,
		Message: fmt.Sprintf("Merged %d items into %q", len(group), keep.Name),
	}, nil
}
