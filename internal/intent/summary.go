package intent

import (
	"fmt"
	"strings"

	"github.com/kstrand/attic/internal/tree"
)

// maxItemSummary caps the item enumeration sent to the model.
const maxItemSummary = 3500

// StructureSummary enumerates every non-item node path, one per line,
// root inclusive.
func StructureSummary(t *tree.Node) string {
	var lines []string
	var walk func(n *tree.Node, path []string)
	walk = func(n *tree.Node, path []string) {
		if !n.IsItem() {
			lines = append(lines, strings.Join(path, " > "))
		}
		for _, c := range n.Children {
			walk(c, append(path, c.Name))
		}
	}
	walk(t, []string{t.Name})
	return strings.Join(lines, "\n")
}

// ItemSummary enumerates every item with quantity, category and
// breadcrumb, truncated to a fixed length with a trailing count note.
func ItemSummary(t *tree.Node) string {
	items := tree.Flatten(t)
	var lines []string
	for _, item := range items {
		qty := ""
		if item.Quantity != nil {
			qty = fmt.Sprintf(" x%d", *item.Quantity)
		}
		lines = append(lines, fmt.Sprintf("%s%s (%s) — %s",
			item.Name, qty, item.Category, tree.Breadcrumb(t, item.ID, item.Name)))
	}
	summary := strings.Join(lines, "\n")
	if len(summary) > maxItemSummary {
		summary = summary[:maxItemSummary] + fmt.Sprintf("\n... (%d total items)", len(items))
	}
	return summary
}

// SystemPrompt builds the classifier prompt for the current tree.
func SystemPrompt(t *tree.Node) string {
	cats := make([]string, len(tree.Categories))
	for i, c := range tree.Categories {
		cats[i] = string(c)
	}
	items := ItemSummary(t)
	if items == "" {
		items = "(empty)"
	}
	var b strings.Builder
	b.WriteString("You are a home inventory assistant. Determine if the user wants to STORE items, REMOVE items, or SEARCH/FIND items.\n\n")
	b.WriteString("Current house structure:\n" + StructureSummary(t) + "\n\n")
	b.WriteString("Current items in inventory:\n" + items + "\n\n")
	b.WriteString("Return ONLY valid JSON with one of these formats:\n\n")
	b.WriteString("For STORE:\n{\n  \"action\": \"store\",\n  \"items\": [{\"name\": \"item name (singular lowercase)\", \"quantity\": number or null, \"path\": [\"Floor Name\", \"Room Name\", \"Container (optional)\"], \"category\": one of: " + strings.Join(cats, ", ") + "}],\n  \"createLocations\": [{\"name\": \"location name\", \"type\": \"floor\" | \"room\", \"parentPath\": [\"Floor Name\"] or []}]\n}\n\n")
	b.WriteString("For REMOVE:\n{\n  \"action\": \"remove\",\n  \"items\": [{\"name\": \"item name\", \"quantity\": null, \"path\": [], \"category\": \"misc\"}]\n}\n\n")
	b.WriteString("For SEARCH/FIND:\n{\n  \"action\": \"search\",\n  \"searchResult\": \"Your helpful concise plain text answer about the items\"\n}\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- Questions like \"where is...\", \"do I have...\", \"find my...\", \"how many...\" are SEARCH\n")
	b.WriteString("- Statements like \"put...\", \"store...\", \"add...\", \"I bought...\", \"there are...\" are STORE\n")
	b.WriteString("- Statements like \"remove...\", \"delete...\", \"I threw away...\", \"get rid of...\" are REMOVE\n")
	b.WriteString("- path = array from floor to most specific container\n")
	b.WriteString("- Match existing locations when clearly the same\n")
	b.WriteString("- New containers are created automatically in the path\n")
	b.WriteString("- If user mentions a room or floor that doesn't exist, add it to createLocations\n")
	b.WriteString("- quantity null = unknown amount\n")
	b.WriteString("- \"the garage\" -> [\"Main Floor\", \"Garage\"]\n")
	b.WriteString("- \"wood shelf in the garage\" -> [\"Main Floor\", \"Garage\", \"Wood Shelf\"]\n")
	b.WriteString("- For search: give a concise, helpful answer based on the inventory data. If nothing matches, say so.")
	return b.String()
}
