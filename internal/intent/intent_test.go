package intent

import (
	"errors"
	"strings"
	"testing"

	"github.com/kstrand/attic/internal/tree"
)

func TestParse_StoreIntent(t *testing.T) {
	raw := `{
		"action": "store",
		"items": [
			{"name": "Drill", "quantity": 1, "path": ["Main Floor", "Garage"], "category": "tools"},
			{"name": "Tinsel", "path": ["Lower Level", "Attic"], "category": "festive stuff"}
		]
	}`
	in, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Action != ActionStore {
		t.Errorf("action = %q, want store", in.Action)
	}
	if len(in.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(in.Items))
	}
	if in.Items[0].Category != "tools" {
		t.Errorf("category = %q, want tools", in.Items[0].Category)
	}
	if in.Items[1].Category != tree.CategoryMisc {
		t.Errorf("unknown category = %q, want misc", in.Items[1].Category)
	}
	if in.Items[0].Quantity == nil || *in.Items[0].Quantity != 1 {
		t.Error("quantity not carried through")
	}
	if in.Items[1].Quantity != nil {
		t.Error("absent quantity should stay nil")
	}
}

func TestParse_StripsCodeFences(t *testing.T) {
	raw := "```json\n{\"action\": \"search\", \"searchResult\": \"The drill is in the garage.\"}\n```"
	in, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Action != ActionSearch {
		t.Errorf("action = %q, want search", in.Action)
	}
	if in.SearchResult != "The drill is in the garage." {
		t.Errorf("searchResult = %q", in.SearchResult)
	}
}

func TestParse_RemoveRequiresItems(t *testing.T) {
	_, err := Parse(`{"action": "remove"}`)
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
	in, err := Parse(`{"action": "remove", "items": []}`)
	if err != nil {
		t.Fatalf("empty items slice should parse: %v", err)
	}
	if len(in.Items) != 0 {
		t.Errorf("items = %d, want 0", len(in.Items))
	}
}

func TestParse_Malformed(t *testing.T) {
	cases := []string{
		"not json at all",
		`{"action": "explode", "items": []}`,
		`{"action": "store", "items": [{"quantity": 3}]}`,
		`{"action": "store"}`,
	}
	for _, raw := range cases {
		if _, err := Parse(raw); !errors.Is(err, ErrMalformed) {
			t.Errorf("Parse(%q) err = %v, want ErrMalformed", raw, err)
		}
	}
}

func TestParse_CreateLocations(t *testing.T) {
	raw := `{
		"action": "store",
		"items": [{"name": "Skis", "path": ["Basement", "Storage"], "category": "sports"}],
		"createLocations": [{"name": "Basement", "type": "floor", "parentPath": []}]
	}`
	in, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(in.CreateLocations) != 1 || in.CreateLocations[0].Kind != tree.KindFloor {
		t.Fatalf("createLocations = %v", in.CreateLocations)
	}

	bad := `{
		"action": "store",
		"items": [{"name": "Skis"}],
		"createLocations": [{"name": "Bin", "type": "container"}]
	}`
	if _, err := Parse(bad); !errors.Is(err, ErrMalformed) {
		t.Errorf("container createLocation err = %v, want ErrMalformed", err)
	}
}

func TestStructureSummary_ListsLocations(t *testing.T) {
	h := tree.Migrate(tree.DefaultHouse())
	sum := StructureSummary(h)
	for _, want := range []string{"Main Floor", "Garage", "Attic"} {
		if !strings.Contains(sum, want) {
			t.Errorf("summary missing %q", want)
		}
	}
}
