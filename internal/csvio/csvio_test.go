package csvio

import (
	"strings"
	"testing"

	"github.com/kstrand/attic/internal/tree"
)

func TestExport_RowPerItem(t *testing.T) {
	qty := 2
	h := &tree.Node{
		ID: "house", Name: "House", Kind: tree.KindHouse,
		Children: []*tree.Node{
			{ID: "f1", Name: "Main Floor", Kind: tree.KindFloor, Children: []*tree.Node{
				{ID: "garage", Name: "Garage", Kind: tree.KindRoom, Children: []*tree.Node{
					{ID: "rake", Name: "Rake", Kind: tree.KindItem, Category: "tools"},
					{ID: "shelf", Name: "Shelf", Kind: tree.KindContainer, Children: []*tree.Node{
						{ID: "bin", Name: "Bin", Kind: tree.KindContainer, Children: []*tree.Node{
							{ID: "drill", Name: "Drill", Kind: tree.KindItem, Quantity: &qty, Category: "tools"},
						}},
					}},
				}},
			}},
		},
	}
	var buf strings.Builder
	if err := Export(&buf, h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want header plus 2 rows:\n%s", len(lines), buf.String())
	}
	if lines[0] != "Floor,Room,Container,Item Name,Quantity,Category" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "Main Floor,Garage,,Rake,,tools" {
		t.Errorf("room-level row = %q", lines[1])
	}
	if lines[2] != "Main Floor,Garage,Shelf > Bin,Drill,2,tools" {
		t.Errorf("nested container row = %q", lines[2])
	}
}

func TestImport_BuildsTree(t *testing.T) {
	csv := strings.Join([]string{
		"Floor,Room,Container,Item Name,Quantity,Category",
		"Main Floor,Garage,Shelf > Bin,Drill,2,tools",
		"Main Floor,Garage,,Rake,,TOOLS",
		"Lower Level,Attic,,Tinsel,abc,festive",
	}, "\n")
	result, err := Import(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Count != 3 {
		t.Fatalf("count = %d, want 3", result.Count)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("errors = %v", result.Errors)
	}

	items := tree.Flatten(result.Tree)
	if len(items) != 3 {
		t.Fatalf("items = %d, want 3", len(items))
	}
	drill := items[0]
	if got := tree.Breadcrumb(result.Tree, drill.ID, ""); got != "House > Main Floor > Garage > Shelf > Bin > Drill" {
		t.Errorf("drill path = %q", got)
	}
	if drill.Quantity == nil || *drill.Quantity != 2 {
		t.Error("quantity not parsed")
	}
	// Categories are lowercased on the way in; unknowns collapse to misc.
	if items[1].Category != "tools" {
		t.Errorf("category = %q, want tools", items[1].Category)
	}
	if items[2].Category != tree.CategoryMisc {
		t.Errorf("category = %q, want misc", items[2].Category)
	}
	// Unparseable quantity stays unknown.
	if items[2].Quantity != nil {
		t.Error("bad quantity should stay nil")
	}
}

func TestImport_RowErrors(t *testing.T) {
	csv := strings.Join([]string{
		"Floor,Room,Container,Item Name,Quantity,Category",
		",Garage,,Drill,1,tools",
		"Main Floor,,,Drill,1,tools",
		"Main Floor,Garage,,,1,tools",
		"   ,  ,,,,",
		"Main Floor,Garage,,Rake,,tools",
	}, "\n")
	result, err := Import(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Count != 1 {
		t.Errorf("count = %d, want 1", result.Count)
	}
	if len(result.Errors) != 3 {
		t.Fatalf("errors = %d, want 3: %v", len(result.Errors), result.Errors)
	}
	if !strings.Contains(result.Errors[0], "row 2") {
		t.Errorf("error = %q, want row number", result.Errors[0])
	}
}

func TestImport_NoDataRows(t *testing.T) {
	if _, err := Import(strings.NewReader("Floor,Room,Container,Item Name,Quantity,Category\n")); err == nil {
		t.Error("expected error for a header-only file")
	}
	if _, err := Import(strings.NewReader("")); err == nil {
		t.Error("expected error for an empty file")
	}
}

func TestImport_ShortRows(t *testing.T) {
	csv := "Floor,Room,Container,Item Name,Quantity,Category\nMain Floor,Garage,,Rake"
	result, err := Import(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Count != 1 {
		t.Fatalf("count = %d, want 1", result.Count)
	}
	item := tree.Flatten(result.Tree)[0]
	if item.Category != tree.CategoryMisc {
		t.Errorf("category = %q, want misc", item.Category)
	}
}

func TestExportImport_RoundTrip(t *testing.T) {
	csv := strings.Join([]string{
		"Floor,Room,Container,Item Name,Quantity,Category",
		"Main Floor,Garage,Shelf,Drill,2,tools",
		"Upper Floor,Laundry,,Detergent,1,cleaning",
	}, "\n")
	first, err := Import(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	var buf strings.Builder
	if err := Export(&buf, first.Tree); err != nil {
		t.Fatalf("export: %v", err)
	}
	second, err := Import(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("reimport: %v", err)
	}
	if second.Count != first.Count {
		t.Errorf("count = %d, want %d", second.Count, first.Count)
	}
	a := tree.Flatten(first.Tree)
	b := tree.Flatten(second.Tree)
	for i := range a {
		if a[i].Name != b[i].Name || a[i].Category != b[i].Category {
			t.Errorf("item %d: %q/%q vs %q/%q", i, a[i].Name, a[i].Category, b[i].Name, b[i].Category)
		}
	}
}
