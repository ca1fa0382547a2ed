// Package history maintains per-node journals and the root deleted log.
package history

import (
	"fmt"
	"time"

	"github.com/kstrand/attic/internal/ident"
	"github.com/kstrand/attic/internal/tree"
)

// Append adds one entry to a node's journal, stamping it with the
// current time. An absent id is a no-op.
func Append(t *tree.Node, id string, e tree.HistoryEntry) *tree.Node {
	if tree.Find(t, id) == nil {
		return t
	}
	e.Timestamp = ident.Now()
	return tree.Update(t, id, func(n tree.Node) tree.Node {
		n.History = append(append([]tree.HistoryEntry(nil), n.History...), e)
		return n
	})
}

// Moved records a single moved entry for a completed relocation.
func Moved(t *tree.Node, id string, fromPath, toPath []string) *tree.Node {
	return Append(t, id, tree.HistoryEntry{
		Event:    tree.EventMoved,
		FromPath: fromPath,
		ToPath:   toPath,
	})
}

// SnapshotDeleted appends a full-subtree snapshot of the node to the
// root's deleted log before the caller removes it from the live tree.
// The log is capped at tree.MaxDeletedLog entries, oldest dropped
// first. An absent id is a no-op.
func SnapshotDeleted(t *tree.Node, id string) *tree.Node {
	node := tree.Find(t, id)
	if node == nil {
		return t
	}
	chain := tree.ParentChain(t, id)
	var parentPath []string
	if chain != nil {
		parentPath = tree.PathNames(chain[:len(chain)-1])
	}
	entry := tree.DeletedEntry{
		Node:       node,
		DeletedAt:  ident.Now(),
		ParentPath: parentPath,
	}
	cp := *t
	log := append(append([]tree.DeletedEntry(nil), t.DeletedLog...), entry)
	if len(log) > tree.MaxDeletedLog {
		log = log[len(log)-tree.MaxDeletedLog:]
	}
	cp.DeletedLog = log
	return &cp
}

// RelativeTime renders an RFC 3339 timestamp as a short relative form
// for history display.
func RelativeTime(iso string) string {
	if iso == "" {
		return "unknown"
	}
	ts, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return "unknown"
	}
	now := time.Now()
	diff := now.Sub(ts)
	mins := int(diff.Minutes())
	hours := int(diff.Hours())
	days := int(diff.Hours() / 24)
	switch {
	case mins < 1:
		return "just now"
	case mins < 60:
		return fmt.Sprintf("%d min ago", mins)
	case hours < 24:
		return "today at " + ts.Local().Format("15:04")
	case days == 1:
		return "yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	case days < 30:
		return fmt.Sprintf("%d wk ago", days/7)
	case days < 365:
		return ts.Local().Format("Jan 2")
	default:
		return ts.Local().Format("Jan 2, 2006")
	}
}
