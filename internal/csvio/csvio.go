// Package csvio imports and exports the inventory as CSV with the
// fixed six-column schema Floor, Room, Container, Item Name, Quantity,
// Category. Nested containers are joined with " > " in the Container
// column; one row per item, depth-first by floor then room.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kstrand/attic/internal/tree"
)

var header = []string{"Floor", "Room", "Container", "Item Name", "Quantity", "Category"}

// Export writes every item in the tree as CSV rows.
func Export(w io.Writer, t *tree.Node) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, floor := range t.Children {
		if floor.Kind != tree.KindFloor {
			continue
		}
		for _, room := range floor.Children {
			if room.Kind != tree.KindRoom {
				continue
			}
			for _, child := range room.Children {
				if child.IsItem() {
					if err := cw.Write(row(floor, room, "", child)); err != nil {
						return err
					}
				}
			}
			for _, child := range room.Children {
				if child.Kind == tree.KindContainer {
					if err := writeContainer(cw, floor, room, child, child.Name); err != nil {
						return err
					}
				}
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeContainer(cw *csv.Writer, floor, room, container *tree.Node, path string) error {
	for _, child := range container.Children {
		switch {
		case child.IsItem():
			if err := cw.Write(row(floor, room, path, child)); err != nil {
				return err
			}
		case child.Kind == tree.KindContainer:
			if err := writeContainer(cw, floor, room, child, path+" > "+child.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

func row(floor, room *tree.Node, containerPath string, item *tree.Node) []string {
	qty := ""
	if item.Quantity != nil {
		qty = strconv.Itoa(*item.Quantity)
	}
	cat := item.Category
	if cat == "" {
		cat = tree.CategoryMisc
	}
	return []string{floor.Name, room.Name, containerPath, item.Name, qty, string(cat)}
}

// ImportResult reports what an import did.
type ImportResult struct {
	Tree   *tree.Node
	Count  int
	Errors []string
}

// Import builds a fresh tree on the default house structure from CSV
// rows. Rows missing floor, room or item name are skipped and counted
// as errors; unknown categories fall back to misc and unparseable
// quantities to unknown.
func Import(r io.Reader) (*ImportResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("CSV file is empty or has no data rows")
	}

	t := tree.Migrate(tree.DefaultHouse())
	result := &ImportResult{}
	for i, rec := range records[1:] {
		rowNum := i + 2
		if blankRow(rec) {
			continue
		}
		floorName := strings.TrimSpace(field(rec, 0))
		roomName := strings.TrimSpace(field(rec, 1))
		containerStr := strings.TrimSpace(field(rec, 2))
		itemName := strings.TrimSpace(field(rec, 3))
		qtyStr := strings.TrimSpace(field(rec, 4))
		catStr := strings.ToLower(strings.TrimSpace(field(rec, 5)))

		if floorName == "" || roomName == "" || itemName == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: missing floor, room, or item name", rowNum))
			continue
		}

		names := []string{floorName, roomName}
		kinds := []tree.Kind{tree.KindFloor, tree.KindRoom}
		if containerStr != "" {
			for _, c := range strings.Split(containerStr, " > ") {
				if c = strings.TrimSpace(c); c != "" {
					names = append(names, c)
					kinds = append(kinds, tree.KindContainer)
				}
			}
		}
		var leafID string
		t, leafID = tree.FindOrCreatePath(t, names, kinds, "import")

		var quantity *int
		if qtyStr != "" {
			if n, err := strconv.Atoi(qtyStr); err == nil {
				quantity = &n
			}
		}
		parentPath := tree.PathNames(tree.ParentChain(t, leafID))
		item := tree.NewItem(itemName, quantity, tree.NormalizeCategory(catStr), "import", parentPath)
		t = tree.Insert(t, leafID, item)
		result.Count++
	}
	result.Tree = t
	return result, nil
}

func field(rec []string, i int) string {
	if i < len(rec) {
		return rec[i]
	}
	return ""
}

func blankRow(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
