package tree

// DefaultHouse returns the stock house layout used for new inventories
// and as the base for CSV imports. IDs are fixed so fresh trees line up
// across devices before the first sync.
func DefaultHouse() *Node {
	room := func(id, name string) *Node {
		return &Node{ID: id, Name: name, Kind: KindRoom}
	}
	return &Node{
		ID:   "house",
		Name: "House",
		Kind: KindHouse,
		Children: []*Node{
			{ID: "f1", Name: "Main Floor", Kind: KindFloor, Children: []*Node{
				room("garage", "Garage"),
				room("office_main", "Office (Main)"),
				room("kitchen", "Kitchen"),
				room("pantry", "Pantry"),
				room("dining", "Dining Area"),
				room("living", "Living Room"),
				room("foyer", "Foyer"),
				room("bath_main", "Bath (Main)"),
				room("laundry_closet", "Hall"),
				room("office_up", "Office (Upper)"),
				room("screened_porch", "Screened Porch"),
				room("deck", "Deck"),
				room("porch", "Porch"),
			}},
			{ID: "f2", Name: "Upper Floor", Kind: KindFloor, Children: []*Node{
				room("primary_bed", "Primary Bedroom"),
				room("bath_primary", "Bath (Primary)"),
				room("wic_primary", "W.I.C. (Primary)"),
				room("bedroom_2", "Bedroom 2"),
				room("wic_2", "W.I.C. (Bed 2)"),
				room("bath_2", "Bath 2"),
				room("hall_upper", "Hall"),
				room("laundry", "Laundry"),
				room("bedroom_3", "Bedroom 3"),
				room("bedroom_4", "Bedroom 4"),
				room("wic_4", "W.I.C. (Bed 4)"),
			}},
			{ID: "f3", Name: "Lower Level", Kind: KindFloor, Children: []*Node{
				room("exercise", "Exercise Room"),
				room("bath_lower", "Bath (Lower)"),
				room("attic", "Attic"),
			}},
		},
	}
}

// Migrate fills zero-value history, children and deleted-log fields on
// trees loaded from older persisted layouts.
func Migrate(n *Node) *Node {
	cp := *n
	if cp.History == nil {
		cp.History = []HistoryEntry{}
	}
	if cp.Kind == KindHouse && cp.DeletedLog == nil {
		cp.DeletedLog = []DeletedEntry{}
	}
	kids := make([]*Node, len(n.Children))
	for i, c := range n.Children {
		kids[i] = Migrate(c)
	}
	cp.Children = kids
	return &cp
}
