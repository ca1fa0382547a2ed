// Package engine orchestrates intents and direct actions against a
// session's tree: it resolves free text through the intent resolver,
// runs duplicate detection on stores, records history and undo
// snapshots, and returns user-facing results.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/kstrand/attic/internal/history"
	"github.com/kstrand/attic/internal/intent"
	"github.com/kstrand/attic/internal/session"
	"github.com/kstrand/attic/internal/similarity"
	"github.com/kstrand/attic/internal/tree"
)

// MaxInputLength bounds free-text submissions.
const MaxInputLength = 500

// ErrSuperseded marks a resolution cancelled because a newer submission
// replaced it. It must stay distinguishable from genuine failures and
// never surfaces as an error message.
var ErrSuperseded = errors.New("resolution superseded")

// ErrPendingBatch is returned when a submission arrives while a store
// batch still awaits duplicate resolution.
var ErrPendingBatch = errors.New("a store batch is awaiting duplicate resolution")

// OutcomeKind tags what a submission produced.
type OutcomeKind string

const (
	OutcomeSearch  OutcomeKind = "search"
	OutcomeRemoved OutcomeKind = "removed"
	OutcomeStored  OutcomeKind = "stored"
	OutcomePending OutcomeKind = "pending"
)

// Outcome is the user-facing result of one submission or resolution.
type Outcome struct {
	Kind    OutcomeKind
	Message string
	Answer  string        // search answers, rendered verbatim
	Pending *PendingStore // set when Kind is OutcomePending
}

// Engine applies intents and direct actions to one session.
type Engine struct {
	sess     *session.Session
	resolver intent.Resolver

	mu       sync.Mutex
	inFlight context.CancelFunc
	pending  *PendingStore
}

// New creates an engine over the given session and resolver.
func New(sess *session.Session, resolver intent.Resolver) *Engine {
	return &Engine{sess: sess, resolver: resolver}
}

// Session exposes the engine's session for persistence and display.
func (e *Engine) Session() *session.Session { return e.sess }

// Tree returns the current live tree snapshot.
func (e *Engine) Tree() *tree.Node { return e.sess.Tree }

// Submit resolves free text into an intent and applies it. A new
// submission cancels any in-flight resolution; the superseded call
// returns ErrSuperseded and has no observable effect on the tree.
func (e *Engine) Submit(ctx context.Context, text string) (*Outcome, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("nothing to do: empty input")
	}
	if utf8.RuneCountInString(text) > MaxInputLength {
		return nil, fmt.Errorf("input too long (max %d characters)", MaxInputLength)
	}
	if e.pending != nil {
		return nil, ErrPendingBatch
	}

	ctx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	if e.inFlight != nil {
		e.inFlight()
	}
	e.inFlight = cancel
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		if e.inFlight != nil {
			e.inFlight()
			e.inFlight = nil
		}
		e.mu.Unlock()
	}()

	parsed, err := e.resolver.Resolve(ctx, text, e.sess.Tree)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, ErrSuperseded
		}
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ErrSuperseded
	}

	return e.Apply(parsed)
}

// Apply dispatches an already-resolved intent. Callers that build
// structured intents themselves bypass the resolver entirely.
func (e *Engine) Apply(parsed *intent.Intent) (*Outcome, error) {
	if e.pending != nil {
		return nil, ErrPendingBatch
	}
	switch parsed.Action {
	case intent.ActionSearch:
		answer := parsed.SearchResult
		if answer == "" {
			answer = "No results found."
		}
		return &Outcome{Kind: OutcomeSearch, Answer: answer}, nil
	case intent.ActionRemove:
		return e.applyRemove(parsed), nil
	default:
		return e.applyStore(parsed), nil
	}
}

// applyRemove deletes each named item by best-effort exact-name match
// against the flattened tree. Unmatched names are skipped silently; the
// message names only what was found. A batch with zero effective
// removals pushes no undo entry.
func (e *Engine) applyRemove(parsed *intent.Intent) *Outcome {
	type match struct{ id, name string }
	var matches []match
	updated := e.sess.Tree
	for _, item := range parsed.Items {
		for _, n := range tree.Flatten(updated) {
			if n.Name == item.Name {
				matches = append(matches, match{n.ID, n.Name})
				updated = history.SnapshotDeleted(updated, n.ID)
				updated = tree.Remove(updated, n.ID)
				break
			}
		}
	}
	if len(matches) == 0 {
		return &Outcome{Kind: OutcomeRemoved, Message: "Nothing matched; nothing removed."}
	}
	e.sess.PushUndo("remove")
	e.sess.Tree = updated
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m.name
	}
	return &Outcome{Kind: OutcomeRemoved, Message: "Removed: " + strings.Join(names, ", ")}
}

// applyStore creates any requested locations, resolves each item's
// path against the accumulating tree, and checks it for duplicate
// candidates. When any item has candidates the whole batch is held
// pending resolution and nothing is committed; otherwise everything is
// inserted under one undo entry.
func (e *Engine) applyStore(parsed *intent.Intent) *Outcome {
	updated := e.sess.Tree
	for _, loc := range parsed.CreateLocations {
		if next := tree.FindOrCreateLocation(updated, loc.Name, loc.Kind, loc.ParentPath); next != nil {
			updated = next
		}
	}

	var prepared []PendingItem
	hasDuplicates := false
	for _, item := range parsed.Items {
		kinds := pathKinds(item.Path)
		var leafID string
		updated, leafID = tree.FindOrCreatePath(updated, item.Path, kinds, "ai")
		dups := similarity.FindSimilarItems(updated, item.Name, nil)
		if len(dups) > 0 {
			hasDuplicates = true
		}
		prepared = append(prepared, PendingItem{
			Item:       item,
			LeafID:     leafID,
			TargetPath: tree.Breadcrumb(updated, leafID, strings.Join(item.Path, " > ")),
			Duplicates: dups,
		})
	}

	if hasDuplicates {
		e.pending = &PendingStore{
			Items:         prepared,
			treeWithPaths: updated,
			undoTree:      e.sess.Tree,
		}
		return &Outcome{
			Kind:    OutcomePending,
			Message: "Possible duplicates found; resolve the batch to continue.",
			Pending: e.pending,
		}
	}

	// Zero items stores nothing: no undo entry unless location
	// creation already changed the tree.
	if len(prepared) == 0 {
		if updated != e.sess.Tree {
			e.sess.PushUndo("store")
			e.sess.Tree = updated
		}
		return &Outcome{Kind: OutcomeStored, Message: "No items stored."}
	}

	e.sess.PushUndo("store")
	var stored []string
	for _, item := range prepared {
		var path string
		updated, path = insertItem(updated, item)
		stored = append(stored, path)
	}
	e.sess.Tree = updated
	return &Outcome{Kind: OutcomeStored, Message: "Stored: " + strings.Join(stored, "; ")}
}

// insertItem places a new item under its resolved location. An exact
// same-name item already sitting in that location is replaced, not
// duplicated.
func insertItem(t *tree.Node, item PendingItem) (*tree.Node, string) {
	parent := tree.Find(t, item.LeafID)
	if parent != nil {
		for _, c := range parent.Children {
			if c.IsItem() && c.Name == item.Name {
				t = tree.Remove(t, c.ID)
				break
			}
		}
	}
	var parentPath []string
	if chain := tree.ParentChain(t, item.LeafID); chain != nil {
		parentPath = tree.PathNames(chain)
	} else {
		parentPath = item.Path
	}
	node := tree.NewItem(item.Name, item.Quantity, item.Category, "ai", parentPath)
	t = tree.Insert(t, item.LeafID, node)
	return t, tree.Breadcrumb(t, node.ID, item.Name)
}

// pathKinds maps a store path onto floor/room/container levels.
func pathKinds(path []string) []tree.Kind {
	kinds := make([]tree.Kind, len(path))
	for i := range path {
		switch i {
		case 0:
			kinds[i] = tree.KindFloor
		case 1:
			kinds[i] = tree.KindRoom
		default:
			kinds[i] = tree.KindContainer
		}
	}
	return kinds
}

// Undo rolls back the most recent mutation and reports its label.
func (e *Engine) Undo() (string, bool) {
	return e.sess.Undo()
}
