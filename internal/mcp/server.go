// Package mcp exposes the inventory over the Model Context Protocol so
// agents can store, remove, and query items directly with structured
// arguments instead of going through the text resolver.
package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kstrand/attic/internal/engine"
	"github.com/kstrand/attic/internal/history"
	"github.com/kstrand/attic/internal/intent"
	"github.com/kstrand/attic/internal/similarity"
	"github.com/kstrand/attic/internal/store"
	"github.com/kstrand/attic/internal/tree"
)

// Server wraps the MCP server with the engine and persistence.
type Server struct {
	eng    *engine.Engine
	saver  *store.DebouncedSaver
	server *mcp.Server
}

// NewServer creates a new attic MCP server.
func NewServer(eng *engine.Engine, saver *store.DebouncedSaver, version string) *Server {
	s := &Server{eng: eng, saver: saver}

	impl := &mcp.Implementation{
		Name:    "attic",
		Version: version,
	}

	s.server = mcp.NewServer(impl, nil)
	s.registerTools()

	return s
}

// Run starts the MCP server on stdio. Pending writes are flushed on
// shutdown.
func (s *Server) Run(ctx context.Context) error {
	err := s.server.Run(ctx, &mcp.StdioTransport{})
	if ferr := s.saver.Flush(context.Background()); err == nil {
		err = ferr
	}
	return err
}

// registerTools adds all attic tools to the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "attic_overview",
		Description: "Get the house structure: every floor, room, and container with its path, plus total item count. START HERE to learn what locations exist before storing anything.",
	}, s.handleOverview)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "attic_items",
		Description: "List all stored items with their full paths, quantities, and categories. Use this to answer questions about where things are or what the house contains.",
	}, s.handleItems)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "attic_store_items",
		Description: "Store one or more items at hierarchical paths (floor > room > container...). Missing path segments are created automatically. " +
			"If any item resembles an existing one, NOTHING is committed and the response lists the duplicate candidates per item - " +
			"you MUST then call attic_resolve_duplicates with one choice per item (or attic_cancel_pending to discard the batch).",
	}, s.handleStoreItems)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "attic_resolve_duplicates",
		Description: "Commit a held store batch with one choice per pending item. Actions: 'add' (store as new), 'skip' (discard), " +
			"'addToExisting' (fold quantity into the existing item named by target_id), 'moveHere' (relocate the existing item to the new spot). " +
			"Ask the user which they prefer when the right choice is not obvious.",
	}, s.handleResolveDuplicates)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "attic_cancel_pending",
		Description: "Discard a held store batch without committing anything.",
	}, s.handleCancelPending)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "attic_remove_items",
		Description: "Remove items by exact name. Removed items go to the deleted log and the removal can be undone. Names that match nothing are skipped.",
	}, s.handleRemoveItems)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "attic_find_similar",
		Description: "Find stored items whose names resemble the given name (plural-insensitive, substring, and word-overlap matching). Use before storing to check for duplicates, or to locate an item from a vague description.",
	}, s.handleFindSimilar)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "attic_duplicate_scan",
		Description: "Scan the whole inventory for groups of likely-duplicate items. Returns groups with ids, paths, and quantities. Use attic_merge_duplicates to collapse a group.",
	}, s.handleDuplicateScan)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "attic_merge_duplicates",
		Description: "Merge duplicate items into one survivor. Numeric quantities are summed onto keep_id; the other items are removed (recoverable from the deleted log, undoable). " +
			"BEFORE CALLING: confirm the merge with the user - merging is a bulk removal.",
	}, s.handleMergeDuplicates)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "attic_undo",
		Description: "Undo the most recent mutation (store, remove, merge, edit, move...). Up to 10 steps are kept.",
	}, s.handleUndo)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "attic_item_history",
		Description: "Get the event history of a single node by id: created, moved, renamed, quantity changes.",
	}, s.handleItemHistory)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "attic_deleted_log",
		Description: "List recently deleted items (most recent first, up to 100) with where they lived when deleted.",
	}, s.handleDeletedLog)
}

// persist snapshots the session through the debounced saver.
func (s *Server) persist() {
	s.saver.Save(s.eng.Session().Snapshot())
}

// OverviewArgs defines input for attic_overview (no arguments needed).
type OverviewArgs struct{}

// OverviewResult is the output of attic_overview.
type OverviewResult struct {
	Structure string `json:"structure"`
	ItemCount int    `json:"item_count"`
}

func (s *Server) handleOverview(ctx context.Context, req *mcp.CallToolRequest, args OverviewArgs) (*mcp.CallToolResult, any, error) {
	t := s.eng.Tree()
	out := OverviewResult{
		Structure: intent.StructureSummary(t),
		ItemCount: tree.CountItems(t),
	}
	return nil, out, nil
}

// ItemsArgs defines input for attic_items (no arguments needed).
type ItemsArgs struct{}

// ItemView is one item in listing results.
type ItemView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	Quantity *int   `json:"quantity,omitempty"`
	Category string `json:"category,omitempty"`
}

// ItemsResult is the output of attic_items.
type ItemsResult struct {
	Items   []ItemView `json:"items"`
	Message string     `json:"message,omitempty"`
}

func (s *Server) handleItems(ctx context.Context, req *mcp.CallToolRequest, args ItemsArgs) (*mcp.CallToolResult, any, error) {
	t := s.eng.Tree()
	out := ItemsResult{}
	for _, n := range tree.Flatten(t) {
		out.Items = append(out.Items, ItemView{
			ID:       n.ID,
			Name:     n.Name,
			Path:     tree.Breadcrumb(t, n.ID, n.Name),
			Quantity: n.Quantity,
			Category: string(n.Category),
		})
	}
	if len(out.Items) == 0 {
		out.Message = "No items stored yet."
	}
	return nil, out, nil
}

// StoreItemInput is one item of a store request.
type StoreItemInput struct {
	Name     string   `json:"name" jsonschema:"Item name (e.g. 'winter jackets')"`
	Quantity *int     `json:"quantity,omitempty" jsonschema:"How many, if known (omit for unknown)"`
	Path     []string `json:"path" jsonschema:"Location path from floor down, e.g. ['Attic','Storage Room','Blue Bin']"`
	Category string   `json:"category,omitempty" jsonschema:"One of: tools, cleaning, electronics, holiday, clothing, kitchen, bathroom, office, sports, crafts, baby, storage, misc"`
}

// LocationInput asks for a floor or room to be created.
type LocationInput struct {
	Name       string   `json:"name" jsonschema:"Location name"`
	Kind       string   `json:"kind" jsonschema:"'floor' or 'room'"`
	ParentPath []string `json:"parent_path,omitempty" jsonschema:"Path to the parent (empty for a new floor)"`
}

// StoreItemsArgs defines input for attic_store_items.
type StoreItemsArgs struct {
	Items           []StoreItemInput `json:"items" jsonschema:"Items to store"`
	CreateLocations []LocationInput  `json:"create_locations,omitempty" jsonschema:"New floors or rooms to create first"`
}

// PendingView describes one held item and its duplicate candidates.
type PendingView struct {
	Name       string     `json:"name"`
	TargetPath string     `json:"target_path"`
	Duplicates []ItemView `json:"duplicates"`
}

// StoreItemsResult is the output of attic_store_items.
type StoreItemsResult struct {
	Status  string        `json:"status"` // stored or pending
	Message string        `json:"message"`
	Pending []PendingView `json:"pending,omitempty"`
}

func (s *Server) handleStoreItems(ctx context.Context, req *mcp.CallToolRequest, args StoreItemsArgs) (*mcp.CallToolResult, any, error) {
	if len(args.Items) == 0 {
		return nil, nil, fmt.Errorf("at least one item is required")
	}

	parsed := &intent.Intent{Action: intent.ActionStore}
	for _, in := range args.Items {
		if strings.TrimSpace(in.Name) == "" {
			return nil, nil, fmt.Errorf("item without name")
		}
		if len(in.Path) == 0 {
			return nil, nil, fmt.Errorf("item %q has no path", in.Name)
		}
		parsed.Items = append(parsed.Items, intent.Item{
			Name:     in.Name,
			Quantity: in.Quantity,
			Path:     in.Path,
			Category: tree.NormalizeCategory(in.Category),
		})
	}
	for _, loc := range args.CreateLocations {
		kind := tree.Kind(loc.Kind)
		if kind != tree.KindFloor && kind != tree.KindRoom {
			return nil, nil, fmt.Errorf("create_locations kind must be 'floor' or 'room', got %q", loc.Kind)
		}
		parsed.CreateLocations = append(parsed.CreateLocations, intent.Location{
			Name:       loc.Name,
			Kind:       kind,
			ParentPath: loc.ParentPath,
		})
	}

	outcome, err := s.eng.Apply(parsed)
	if err != nil {
		return nil, nil, err
	}

	out := StoreItemsResult{Message: outcome.Message}
	if outcome.Kind == engine.OutcomePending {
		out.Status = "pending"
		for _, p := range outcome.Pending.Items {
			pv := PendingView{Name: p.Name, TargetPath: p.TargetPath}
			for _, d := range p.Duplicates {
				pv.Duplicates = append(pv.Duplicates, ItemView{
					ID:       d.Item.ID,
					Name:     d.Item.Name,
					Path:     d.Path,
					Quantity: d.Item.Quantity,
					Category: string(d.Item.Category),
				})
			}
			out.Pending = append(out.Pending, pv)
		}
		out.Message += fmt.Sprintf(" Call attic_resolve_duplicates with %d choices.", len(out.Pending))
		return nil, out, nil
	}

	out.Status = "stored"
	s.persist()
	return nil, out, nil
}

// ChoiceInput resolves one pending item.
type ChoiceInput struct {
	Action   string `json:"action" jsonschema:"'add', 'skip', 'addToExisting', or 'moveHere'"`
	TargetID string `json:"target_id,omitempty" jsonschema:"Existing item id, required for addToExisting and moveHere"`
}

// ResolveDuplicatesArgs defines input for attic_resolve_duplicates.
type ResolveDuplicatesArgs struct {
	Choices []ChoiceInput `json:"choices" jsonschema:"One choice per pending item, in batch order"`
}

// ActionResult is a generic message-only tool output.
type ActionResult struct {
	Message string `json:"message"`
}

func (s *Server) handleResolveDuplicates(ctx context.Context, req *mcp.CallToolRequest, args ResolveDuplicatesArgs) (*mcp.CallToolResult, any, error) {
	choices := make([]engine.Choice, len(args.Choices))
	for i, c := range args.Choices {
		action := engine.ChoiceAction(c.Action)
		switch action {
		case engine.ChoiceAdd, engine.ChoiceSkip, engine.ChoiceAddToExisting, engine.ChoiceMoveHere:
		default:
			return nil, nil, fmt.Errorf("choices[%d] has unknown action %q", i, c.Action)
		}
		if (action == engine.ChoiceAddToExisting || action == engine.ChoiceMoveHere) && c.TargetID == "" {
			return nil, nil, fmt.Errorf("choices[%d] action %q requires target_id", i, c.Action)
		}
		choices[i] = engine.Choice{Action: action, TargetID: c.TargetID}
	}

	outcome, err := s.eng.ResolvePending(choices)
	if err != nil {
		return nil, nil, err
	}
	s.persist()
	return nil, ActionResult{Message: outcome.Message}, nil
}

// CancelPendingArgs defines input for attic_cancel_pending (no arguments needed).
type CancelPendingArgs struct{}

func (s *Server) handleCancelPending(ctx context.Context, req *mcp.CallToolRequest, args CancelPendingArgs) (*mcp.CallToolResult, any, error) {
	if s.eng.Pending() == nil {
		return nil, ActionResult{Message: "No pending batch."}, nil
	}
	s.eng.CancelPending()
	return nil, ActionResult{Message: "Pending batch discarded."}, nil
}

// RemoveItemsArgs defines input for attic_remove_items.
type RemoveItemsArgs struct {
	Names []string `json:"names" jsonschema:"Exact item names to remove"`
}

func (s *Server) handleRemoveItems(ctx context.Context, req *mcp.CallToolRequest, args RemoveItemsArgs) (*mcp.CallToolResult, any, error) {
	if len(args.Names) == 0 {
		return nil, nil, fmt.Errorf("at least one name is required")
	}

	parsed := &intent.Intent{Action: intent.ActionRemove}
	for _, name := range args.Names {
		parsed.Items = append(parsed.Items, intent.Item{Name: name})
	}

	outcome, err := s.eng.Apply(parsed)
	if err != nil {
		return nil, nil, err
	}
	s.persist()
	return nil, ActionResult{Message: outcome.Message}, nil
}

// FindSimilarArgs defines input for attic_find_similar.
type FindSimilarArgs struct {
	Name string `json:"name" jsonschema:"Name to match against stored items"`
}

// FindSimilarResult is the output of attic_find_similar.
type FindSimilarResult struct {
	Matches []ItemView `json:"matches"`
	Message string     `json:"message,omitempty"`
}

func (s *Server) handleFindSimilar(ctx context.Context, req *mcp.CallToolRequest, args FindSimilarArgs) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.Name) == "" {
		return nil, nil, fmt.Errorf("name is required")
	}

	out := FindSimilarResult{}
	for _, m := range similarity.FindSimilarItems(s.eng.Tree(), args.Name, nil) {
		out.Matches = append(out.Matches, ItemView{
			ID:       m.Item.ID,
			Name:     m.Item.Name,
			Path:     m.Path,
			Quantity: m.Item.Quantity,
			Category: string(m.Item.Category),
		})
	}
	if len(out.Matches) == 0 {
		out.Message = fmt.Sprintf("Nothing similar to %q found.", args.Name)
	}
	return nil, out, nil
}

// DuplicateScanArgs defines input for attic_duplicate_scan (no arguments needed).
type DuplicateScanArgs struct{}

// DuplicateGroup is one group of likely duplicates.
type DuplicateGroup struct {
	Items []ItemView `json:"items"`
}

// DuplicateScanResult is the output of attic_duplicate_scan.
type DuplicateScanResult struct {
	Groups  []DuplicateGroup `json:"groups"`
	Message string           `json:"message,omitempty"`
}

func (s *Server) handleDuplicateScan(ctx context.Context, req *mcp.CallToolRequest, args DuplicateScanArgs) (*mcp.CallToolResult, any, error) {
	out := DuplicateScanResult{}
	for _, group := range s.eng.ScanDuplicates() {
		g := DuplicateGroup{}
		for _, m := range group {
			g.Items = append(g.Items, ItemView{
				ID:       m.Item.ID,
				Name:     m.Item.Name,
				Path:     m.Path,
				Quantity: m.Item.Quantity,
				Category: string(m.Item.Category),
			})
		}
		out.Groups = append(out.Groups, g)
	}
	if len(out.Groups) == 0 {
		out.Message = "No duplicate groups found."
	}
	return nil, out, nil
}

// MergeDuplicatesArgs defines input for attic_merge_duplicates.
type MergeDuplicatesArgs struct {
	IDs    []string `json:"ids" jsonschema:"Ids of all items in the group, including the one to keep"`
	KeepID string   `json:"keep_id" jsonschema:"Id of the item that survives the merge"`
}

func (s *Server) handleMergeDuplicates(ctx context.Context, req *mcp.CallToolRequest, args MergeDuplicatesArgs) (*mcp.CallToolResult, any, error) {
	if len(args.IDs) < 2 {
		return nil, nil, fmt.Errorf("a merge needs at least two item ids")
	}
	if args.KeepID == "" {
		return nil, nil, fmt.Errorf("keep_id is required")
	}

	t := s.eng.Tree()
	group := make([]similarity.Match, 0, len(args.IDs))
	for _, id := range args.IDs {
		n := tree.Find(t, id)
		if n == nil || !n.IsItem() {
			return nil, nil, fmt.Errorf("item not found: %s", id)
		}
		group = append(group, similarity.Match{Item: n, Path: tree.Breadcrumb(t, id, n.Name)})
	}

	outcome, err := s.eng.MergeGroup(group, args.KeepID)
	if err != nil {
		return nil, nil, err
	}
	s.persist()
	return nil, ActionResult{Message: outcome.Message}, nil
}

// UndoArgs defines input for attic_undo (no arguments needed).
type UndoArgs struct{}

func (s *Server) handleUndo(ctx context.Context, req *mcp.CallToolRequest, args UndoArgs) (*mcp.CallToolResult, any, error) {
	label, ok := s.eng.Undo()
	if !ok {
		return nil, ActionResult{Message: "Nothing to undo."}, nil
	}
	s.persist()
	return nil, ActionResult{Message: fmt.Sprintf("Undid %s.", label)}, nil
}

// ItemHistoryArgs defines input for attic_item_history.
type ItemHistoryArgs struct {
	ID string `json:"id" jsonschema:"Node id to get history for"`
}

// HistoryView is one history event.
type HistoryView struct {
	Event string `json:"event"`
	When  string `json:"when"`
	From  any    `json:"from,omitempty"`
	To    any    `json:"to,omitempty"`
}

// ItemHistoryResult is the output of attic_item_history.
type ItemHistoryResult struct {
	Name    string        `json:"name"`
	Path    string        `json:"path"`
	Events  []HistoryView `json:"events"`
	Message string        `json:"message,omitempty"`
}

func (s *Server) handleItemHistory(ctx context.Context, req *mcp.CallToolRequest, args ItemHistoryArgs) (*mcp.CallToolResult, any, error) {
	if args.ID == "" {
		return nil, nil, fmt.Errorf("id is required")
	}
	t := s.eng.Tree()
	n := tree.Find(t, args.ID)
	if n == nil {
		return nil, nil, fmt.Errorf("node not found: %s", args.ID)
	}

	out := ItemHistoryResult{
		Name: n.Name,
		Path: tree.Breadcrumb(t, n.ID, n.Name),
	}
	for _, h := range n.History {
		out.Events = append(out.Events, HistoryView{
			Event: string(h.Event),
			When:  history.RelativeTime(h.Timestamp),
			From:  h.From,
			To:    h.To,
		})
	}
	if len(out.Events) == 0 {
		out.Message = "No recorded events for this node."
	}
	return nil, out, nil
}

// DeletedLogArgs defines input for attic_deleted_log (no arguments needed).
type DeletedLogArgs struct{}

// DeletedView is one deleted-log entry.
type DeletedView struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	DeletedAt string `json:"deleted_at"`
	Quantity  *int   `json:"quantity,omitempty"`
}

// DeletedLogResult is the output of attic_deleted_log.
type DeletedLogResult struct {
	Deleted []DeletedView `json:"deleted"`
	Message string        `json:"message,omitempty"`
}

func (s *Server) handleDeletedLog(ctx context.Context, req *mcp.CallToolRequest, args DeletedLogArgs) (*mcp.CallToolResult, any, error) {
	t := s.eng.Tree()
	out := DeletedLogResult{}
	for i := len(t.DeletedLog) - 1; i >= 0; i-- {
		d := t.DeletedLog[i]
		out.Deleted = append(out.Deleted, DeletedView{
			Name:      d.Node.Name,
			Path:      strings.Join(d.ParentPath, " > "),
			DeletedAt: history.RelativeTime(d.DeletedAt),
			Quantity:  d.Node.Quantity,
		})
	}
	if len(out.Deleted) == 0 {
		out.Message = "Nothing in the deleted log."
	}
	return nil, out, nil
}
