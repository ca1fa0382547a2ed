package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kstrand/attic/internal/intent"
	"github.com/kstrand/attic/internal/session"
	"github.com/kstrand/attic/internal/tree"
)

// fakeResolver returns a canned intent, or blocks until its context is
// cancelled when block is set.
type fakeResolver struct {
	intent *intent.Intent
	err    error
	block  bool
}

func (f *fakeResolver) Resolve(ctx context.Context, text string, t *tree.Node) (*intent.Intent, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.intent, f.err
}

func newEngine(in *intent.Intent) *Engine {
	return New(session.New(nil), &fakeResolver{intent: in})
}

func intp(n int) *int { return &n }

func storeIntent(items ...intent.Item) *intent.Intent {
	return &intent.Intent{Action: intent.ActionStore, Items: items}
}

func TestSubmit_EmptyAndOversized(t *testing.T) {
	e := newEngine(nil)
	if _, err := e.Submit(context.Background(), "   "); err == nil {
		t.Error("expected error for empty input")
	}
	long := strings.Repeat("x", MaxInputLength+1)
	if _, err := e.Submit(context.Background(), long); err == nil {
		t.Error("expected error for oversized input")
	}
}

func TestSubmit_LengthCountsRunesNotBytes(t *testing.T) {
	// 3 bytes per rune, so this passes the cap only when counted in runes.
	wide := strings.Repeat("屋", MaxInputLength)
	e := newEngine(&intent.Intent{Action: intent.ActionSearch, SearchResult: "ok"})
	if _, err := e.Submit(context.Background(), wide); err != nil {
		t.Errorf("input of exactly %d runes rejected: %v", MaxInputLength, err)
	}
	if _, err := e.Submit(context.Background(), wide+"屋"); err == nil {
		t.Error("expected error for input one rune over the cap")
	}
}

func TestSubmit_Search(t *testing.T) {
	e := newEngine(&intent.Intent{Action: intent.ActionSearch, SearchResult: "It is in the garage."})
	out, err := e.Submit(context.Background(), "where is my drill")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Kind != OutcomeSearch {
		t.Errorf("kind = %q, want search", out.Kind)
	}
	if out.Answer != "It is in the garage." {
		t.Errorf("answer = %q", out.Answer)
	}
	if e.Session().CanUndo() {
		t.Error("search must not push undo")
	}
}

func TestSubmit_SearchEmptyAnswer(t *testing.T) {
	e := newEngine(&intent.Intent{Action: intent.ActionSearch})
	out, err := e.Submit(context.Background(), "find the unfindable")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Answer != "No results found." {
		t.Errorf("answer = %q", out.Answer)
	}
}

func TestSubmit_Superseded(t *testing.T) {
	e := New(session.New(nil), &fakeResolver{block: true})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Submit(ctx, "store a thing")
	if !errors.Is(err, ErrSuperseded) {
		t.Errorf("err = %v, want ErrSuperseded", err)
	}
}

func TestStore_NoDuplicates(t *testing.T) {
	e := newEngine(storeIntent(intent.Item{
		Name: "drill", Quantity: intp(1),
		Path: []string{"Main Floor", "Garage", "Tool Shelf"}, Category: "tools",
	}))
	out, err := e.Submit(context.Background(), "put the drill on the tool shelf in the garage")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Kind != OutcomeStored {
		t.Fatalf("kind = %q, want stored", out.Kind)
	}
	if !strings.Contains(out.Message, "Tool Shelf > drill") {
		t.Errorf("message = %q", out.Message)
	}
	items := tree.Flatten(e.Tree())
	if len(items) != 1 || items[0].Name != "drill" {
		t.Fatalf("items = %d", len(items))
	}
	if e.Session().UndoDepth() != 1 {
		t.Errorf("undo depth = %d, want 1", e.Session().UndoDepth())
	}

	label, ok := e.Undo()
	if !ok || label != "store" {
		t.Fatalf("undo = %q, %v", label, ok)
	}
	if len(tree.Flatten(e.Tree())) != 0 {
		t.Error("undo left the stored item behind")
	}
}

func TestStore_CreateLocations(t *testing.T) {
	e := newEngine(&intent.Intent{
		Action: intent.ActionStore,
		Items: []intent.Item{{
			Name: "weights", Path: []string{"Basement", "Gym"}, Category: "sports",
		}},
		CreateLocations: []intent.Location{{Name: "Basement", Kind: tree.KindFloor}},
	})
	out, err := e.Submit(context.Background(), "put the weights in the basement gym")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Kind != OutcomeStored {
		t.Fatalf("kind = %q, want stored", out.Kind)
	}
	items := tree.Flatten(e.Tree())
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	path := tree.Breadcrumb(e.Tree(), items[0].ID, "")
	if path != "House > Basement > Gym > weights" {
		t.Errorf("path = %q", path)
	}
}

func TestStore_SameNameInPlaceReplaces(t *testing.T) {
	e := newEngine(nil)
	in := storeIntent(intent.Item{
		Name: "ladder", Quantity: intp(1), Path: []string{"Main Floor", "Garage"},
	})
	if _, err := e.Apply(in); err != nil {
		t.Fatalf("first store: %v", err)
	}
	// Exact same name in the same spot is similar to itself, so the
	// second store goes pending; storing anyway must replace, not
	// duplicate.
	out, err := e.Apply(storeIntent(intent.Item{
		Name: "ladder", Quantity: intp(2), Path: []string{"Main Floor", "Garage"},
	}))
	if err != nil {
		t.Fatalf("second store: %v", err)
	}
	if out.Kind != OutcomePending {
		t.Fatalf("kind = %q, want pending", out.Kind)
	}
	if _, err := e.ResolvePending([]Choice{{Action: ChoiceAdd}}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	items := tree.Flatten(e.Tree())
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	if items[0].Quantity == nil || *items[0].Quantity != 2 {
		t.Error("replacement did not take the new quantity")
	}
}

func TestPending_SubmitBlockedUntilResolved(t *testing.T) {
	e := pendingEngine(t)
	if _, err := e.Apply(storeIntent(intent.Item{Name: "anything"})); !errors.Is(err, ErrPendingBatch) {
		t.Errorf("err = %v, want ErrPendingBatch", err)
	}
	if _, err := e.Submit(context.Background(), "more stuff"); !errors.Is(err, ErrPendingBatch) {
		t.Errorf("err = %v, want ErrPendingBatch", err)
	}
}

// pendingEngine seeds an engine with one stored battery, then submits a
// similar one so the batch is held.
func pendingEngine(t *testing.T) *Engine {
	t.Helper()
	e := newEngine(nil)
	if _, err := e.Apply(storeIntent(intent.Item{
		Name: "battery", Quantity: intp(4), Path: []string{"Main Floor", "Office (Main)"},
	})); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	out, err := e.Apply(storeIntent(intent.Item{
		Name: "batteries", Quantity: intp(8), Path: []string{"Main Floor", "Garage"},
	}))
	if err != nil {
		t.Fatalf("pending store: %v", err)
	}
	if out.Kind != OutcomePending {
		t.Fatalf("kind = %q, want pending", out.Kind)
	}
	if len(out.Pending.Items) != 1 || len(out.Pending.Items[0].Duplicates) != 1 {
		t.Fatalf("pending = %+v", out.Pending.Items)
	}
	return e
}

func TestResolvePending_AddToExisting(t *testing.T) {
	e := pendingEngine(t)
	target := e.Pending().Items[0].Duplicates[0].Item.ID
	out, err := e.ResolvePending([]Choice{{Action: ChoiceAddToExisting, TargetID: target}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.Message, "updated qty") {
		t.Errorf("message = %q", out.Message)
	}
	items := tree.Flatten(e.Tree())
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	if items[0].Quantity == nil || *items[0].Quantity != 12 {
		t.Errorf("quantity = %v, want 12", items[0].Quantity)
	}

	label, ok := e.Undo()
	if !ok || label != "store" {
		t.Fatalf("undo = %q, %v", label, ok)
	}
	items = tree.Flatten(e.Tree())
	if len(items) != 1 || *items[0].Quantity != 4 {
		t.Error("undo did not restore the pre-batch tree")
	}
}

func TestResolvePending_MoveHere(t *testing.T) {
	e := pendingEngine(t)
	target := e.Pending().Items[0].Duplicates[0].Item.ID
	out, err := e.ResolvePending([]Choice{{Action: ChoiceMoveHere, TargetID: target}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.Message, "moved") {
		t.Errorf("message = %q", out.Message)
	}
	items := tree.Flatten(e.Tree())
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	path := tree.Breadcrumb(e.Tree(), items[0].ID, "")
	if !strings.Contains(path, "Garage") {
		t.Errorf("path = %q, want under Garage", path)
	}
	if items[0].Quantity == nil || *items[0].Quantity != 8 {
		t.Errorf("quantity = %v, want the new item's 8", items[0].Quantity)
	}
}

func TestResolvePending_AllSkippedIsNoOp(t *testing.T) {
	e := pendingEngine(t)
	before := e.Tree()
	depth := e.Session().UndoDepth()
	out, err := e.ResolvePending([]Choice{{Action: ChoiceSkip}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Message != "No items stored." {
		t.Errorf("message = %q", out.Message)
	}
	if e.Tree() != before {
		t.Error("all-skip batch mutated the tree")
	}
	if e.Session().UndoDepth() != depth {
		t.Error("all-skip batch pushed an undo entry")
	}
	if e.Pending() != nil {
		t.Error("pending batch not cleared")
	}
}

func TestResolvePending_ChoiceCountMismatch(t *testing.T) {
	e := pendingEngine(t)
	if _, err := e.ResolvePending(nil); err == nil {
		t.Error("expected error for wrong choice count")
	}
	if e.Pending() == nil {
		t.Error("mismatched resolve should keep the batch for retry")
	}
}

func TestCancelPending(t *testing.T) {
	e := pendingEngine(t)
	before := e.Tree()
	e.CancelPending()
	if e.Pending() != nil {
		t.Error("pending batch not cleared")
	}
	if e.Tree() != before {
		t.Error("cancel mutated the tree")
	}
	if _, err := e.Apply(storeIntent()); err != nil {
		t.Errorf("submissions should work again after cancel: %v", err)
	}
}

func TestStore_NoItemsIsNoOp(t *testing.T) {
	e := newEngine(nil)
	before := e.Tree()
	out, err := e.Apply(storeIntent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Message != "No items stored." {
		t.Errorf("message = %q, want %q", out.Message, "No items stored.")
	}
	if e.Tree() != before {
		t.Error("empty store mutated the tree")
	}
	if e.Session().CanUndo() {
		t.Error("empty store must not push undo")
	}
}

func TestStore_LocationsOnlyStillUndoable(t *testing.T) {
	e := newEngine(nil)
	out, err := e.Apply(&intent.Intent{
		Action:          intent.ActionStore,
		CreateLocations: []intent.Location{{Name: "Basement", Kind: tree.KindFloor}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Message != "No items stored." {
		t.Errorf("message = %q", out.Message)
	}
	if !e.Session().CanUndo() {
		t.Fatal("location creation changed the tree and must be undoable")
	}
	found := false
	for _, c := range e.Tree().Children {
		if c.Name == "Basement" {
			found = true
		}
	}
	if !found {
		t.Error("Basement floor not created")
	}
}

func TestRemove_MatchesExactNames(t *testing.T) {
	e := newEngine(nil)
	e.Apply(storeIntent(
		intent.Item{Name: "rake", Path: []string{"Main Floor", "Garage"}},
	))
	out, err := e.Apply(&intent.Intent{Action: intent.ActionRemove, Items: []intent.Item{{Name: "rake"}, {Name: "ghost"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Kind != OutcomeRemoved {
		t.Errorf("kind = %q, want removed", out.Kind)
	}
	if out.Message != "Removed: rake" {
		t.Errorf("message = %q", out.Message)
	}
	if len(tree.Flatten(e.Tree())) != 0 {
		t.Error("rake still present")
	}
	if len(e.Tree().DeletedLog) != 1 {
		t.Errorf("deleted log = %d, want 1", len(e.Tree().DeletedLog))
	}
}

func TestRemove_ZeroMatchesPushesNoUndo(t *testing.T) {
	e := newEngine(nil)
	depth := e.Session().UndoDepth()
	out, err := e.Apply(&intent.Intent{Action: intent.ActionRemove, Items: []intent.Item{{Name: "ghost"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Message != "Nothing matched; nothing removed." {
		t.Errorf("message = %q", out.Message)
	}
	if e.Session().UndoDepth() != depth {
		t.Error("no-op remove pushed an undo entry")
	}
}

func TestAddItem_RejectsBadParents(t *testing.T) {
	e := newEngine(nil)
	if _, err := e.AddItem("f1", "drill", nil, "tools"); err == nil {
		t.Error("expected error adding an item under a floor")
	}
	if _, err := e.AddItem("house", "drill", nil, "tools"); err == nil {
		t.Error("expected error adding an item under the house")
	}
	if _, err := e.AddItem("absent", "drill", nil, "tools"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAddItem_ThenEdit(t *testing.T) {
	e := newEngine(nil)
	n, err := e.AddItem("garage", "drill", intp(1), "tools")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	name := "power drill"
	if err := e.EditItem(n.ID, ItemEdit{Name: &name, Quantity: intp(3), SetQuantity: true}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	got := tree.Find(e.Tree(), n.ID)
	if got.Name != "power drill" || *got.Quantity != 3 {
		t.Errorf("item = %q x%d", got.Name, *got.Quantity)
	}
	var renames, qtyChanges int
	for _, h := range got.History {
		switch h.Event {
		case tree.EventRenamed:
			renames++
		case tree.EventQuantityChanged:
			qtyChanges++
		}
	}
	if renames != 1 || qtyChanges != 1 {
		t.Errorf("history: renames = %d, qty changes = %d, want 1 each", renames, qtyChanges)
	}
}

func TestEditItem_UnchangedFieldsGetNoHistory(t *testing.T) {
	e := newEngine(nil)
	n, _ := e.AddItem("garage", "drill", intp(1), "tools")
	name := "drill"
	if err := e.EditItem(n.ID, ItemEdit{Name: &name}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	for _, h := range tree.Find(e.Tree(), n.ID).History {
		if h.Event == tree.EventRenamed {
			t.Error("same-name edit recorded a rename")
		}
	}
}

func TestAddContainer_RoomsAndContainersOnly(t *testing.T) {
	e := newEngine(nil)
	c, err := e.AddContainer("garage", "Tool Shelf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := e.AddContainer(c.ID, "Small Bin"); err != nil {
		t.Errorf("nested container: %v", err)
	}
	if _, err := e.AddContainer("f1", "Bad Shelf"); err == nil {
		t.Error("expected error adding a container under a floor")
	}
}

func TestMoveNode_RecordsOneMove(t *testing.T) {
	e := newEngine(nil)
	n, _ := e.AddItem("garage", "drill", nil, "tools")
	path, err := e.MoveNode(n.ID, "kitchen")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(path, "Kitchen") {
		t.Errorf("path = %q", path)
	}
	moves := 0
	for _, h := range tree.Find(e.Tree(), n.ID).History {
		if h.Event == tree.EventMoved {
			moves++
		}
	}
	if moves != 1 {
		t.Errorf("moved entries = %d, want 1", moves)
	}
	if _, err := e.MoveNode(n.ID, n.ID); err == nil {
		t.Error("expected error moving a node into itself")
	}
}

func TestDelete_SnapshotsBeforeRemoving(t *testing.T) {
	e := newEngine(nil)
	c, _ := e.AddContainer("garage", "Shelf")
	n, _ := e.AddItem(c.ID, "drill", nil, "tools")
	if err := e.Delete(c.ID, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Find(e.Tree(), n.ID) != nil {
		t.Error("cascade left the child behind")
	}
	log := e.Tree().DeletedLog
	if len(log) != 1 || log[0].Node.Name != "Shelf" {
		t.Fatalf("deleted log = %+v", log)
	}
	if tree.Find(log[0].Node, n.ID) == nil {
		t.Error("snapshot lost the subtree")
	}
	if err := e.Delete("house", false); err == nil {
		t.Error("expected error deleting the house")
	}
}

func TestDelete_KeepChildren(t *testing.T) {
	e := newEngine(nil)
	c, _ := e.AddContainer("garage", "Shelf")
	n, _ := e.AddItem(c.ID, "drill", nil, "tools")
	if err := e.Delete(c.ID, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Find(e.Tree(), n.ID) == nil {
		t.Fatal("kept child was deleted")
	}
	chain := tree.PathNames(tree.ParentChain(e.Tree(), n.ID))
	if chain[len(chain)-2] != "Garage" {
		t.Errorf("child now under %q, want Garage", chain[len(chain)-2])
	}
}

func TestMergeGroup(t *testing.T) {
	e := newEngine(nil)
	a, _ := e.AddItem("garage", "battery", intp(4), "electronics")
	e.AddItem("kitchen", "batteries", intp(6), "electronics")
	groups := e.ScanDuplicates()
	if len(groups) != 1 || len(groups[0]) != 2 {
		t.Fatalf("groups = %+v", groups)
	}
	out, err := e.MergeGroup(groups[0], a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.Message, "Merged 2 items") {
		t.Errorf("message = %q", out.Message)
	}
	items := tree.Flatten(e.Tree())
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	if *items[0].Quantity != 10 {
		t.Errorf("quantity = %d, want 10", *items[0].Quantity)
	}
	if len(e.Tree().DeletedLog) != 1 {
		t.Errorf("deleted log = %d, want 1", len(e.Tree().DeletedLog))
	}

	if _, err := e.MergeGroup(groups[0], "absent"); err == nil {
		t.Error("expected error for a keep id outside the group")
	}
}

func TestClearAll(t *testing.T) {
	e := newEngine(nil)
	e.AddItem("garage", "drill", nil, "tools")
	e.ClearAll()
	if len(tree.Flatten(e.Tree())) != 0 {
		t.Error("clear left items behind")
	}
	label, ok := e.Undo()
	if !ok || label != "clear all" {
		t.Fatalf("undo = %q, %v", label, ok)
	}
	if len(tree.Flatten(e.Tree())) != 1 {
		t.Error("undo did not restore the cleared tree")
	}
}
