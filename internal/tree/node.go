// Package tree implements the immutable location/item tree. Every
// mutating operation returns a new tree value and leaves its input
// untouched; unchanged subtrees are shared between the old and new
// values, so a held reference to an old tree is a complete snapshot.
package tree

import (
	"github.com/kstrand/attic/internal/ident"
)

// Kind is a node's structural role. It is fixed at creation.
type Kind string

const (
	KindHouse     Kind = "house"
	KindFloor     Kind = "floor"
	KindRoom      Kind = "room"
	KindContainer Kind = "container"
	KindItem      Kind = "item"
)

// Category classifies an item. Unknown values collapse to CategoryMisc.
type Category string

const CategoryMisc Category = "misc"

// Categories is the closed set of item categories.
var Categories = []Category{
	"tools", "cleaning", "electronics", "holiday", "clothing",
	"kitchen", "bathroom", "office", "sports", "crafts",
	"baby", "storage", CategoryMisc,
}

// CategoryColors maps each category to its display color.
var CategoryColors = map[Category]string{
	"tools": "#f59e0b", "cleaning": "#10b981", "electronics": "#3b82f6",
	"holiday": "#ef4444", "clothing": "#8b5cf6", "kitchen": "#f97316",
	"bathroom": "#06b6d4", "office": "#6366f1", "sports": "#22c55e",
	"crafts": "#ec4899", "baby": "#a78bfa", "storage": "#78716c",
	CategoryMisc: "#999",
}

// NormalizeCategory maps a raw category string onto the closed set.
func NormalizeCategory(s string) Category {
	for _, c := range Categories {
		if string(c) == s {
			return c
		}
	}
	return CategoryMisc
}

// Event tags a history entry variant.
type Event string

const (
	EventCreated         Event = "created"
	EventMoved           Event = "moved"
	EventRenamed         Event = "renamed"
	EventQuantityChanged Event = "quantity_changed"
	EventCategoryChanged Event = "category_changed"
)

// HistoryEntry is one record in a node's append-only journal. Only the
// fields relevant to the event are set.
type HistoryEntry struct {
	Event      Event    `json:"event"`
	Timestamp  string   `json:"timestamp"`
	Source     string   `json:"source,omitempty"`     // created
	ParentPath []string `json:"parentPath,omitempty"` // created
	FromPath   []string `json:"fromPath,omitempty"`   // moved
	ToPath     []string `json:"toPath,omitempty"`     // moved
	From       any      `json:"from,omitempty"`       // renamed, quantity_changed, category_changed
	To         any      `json:"to,omitempty"`
}

// DeletedEntry is a before-delete snapshot kept on the root node.
type DeletedEntry struct {
	Node       *Node    `json:"node"`
	DeletedAt  string   `json:"deletedAt"`
	ParentPath []string `json:"parentPath"`
}

// MaxDeletedLog bounds the root's deleted log; oldest entries are
// evicted first.
const MaxDeletedLog = 100

// Node is one entity in the tree. Items are always leaves.
type Node struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Kind     Kind           `json:"type"`
	Children []*Node        `json:"children"`
	Quantity *int           `json:"quantity,omitempty"` // items only; nil means unknown
	Category Category       `json:"category,omitempty"` // items only
	History  []HistoryEntry `json:"history"`
	// DeletedLog is populated on the root node only.
	DeletedLog []DeletedEntry `json:"deletedLog,omitempty"`
}

// IsItem reports whether the node is a leaf item.
func (n *Node) IsItem() bool { return n.Kind == KindItem }

// New creates a location node with a created history entry.
func New(name string, kind Kind, source string, parentPath []string) *Node {
	return &Node{
		ID:   ident.New(),
		Name: name,
		Kind: kind,
		History: []HistoryEntry{{
			Event:      EventCreated,
			Timestamp:  ident.Now(),
			Source:     source,
			ParentPath: parentPath,
		}},
	}
}

// NewItem creates an item node with a created history entry.
func NewItem(name string, quantity *int, category Category, source string, parentPath []string) *Node {
	n := New(name, KindItem, source, parentPath)
	n.Quantity = quantity
	n.Category = category
	if n.Category == "" {
		n.Category = CategoryMisc
	}
	return n
}

// CountItems returns the number of items in the subtree rooted at n.
func CountItems(n *Node) int {
	if n.IsItem() {
		return 1
	}
	total := 0
	for _, c := range n.Children {
		total += CountItems(c)
	}
	return total
}
