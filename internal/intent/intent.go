// Package intent resolves free-text commands into structured
// store/remove/search intents via an external inference proxy.
package intent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kstrand/attic/internal/tree"
)

// Action tags the three intent variants.
type Action string

const (
	ActionStore  Action = "store"
	ActionRemove Action = "remove"
	ActionSearch Action = "search"
)

// Item is one item named by a store or remove intent.
type Item struct {
	Name     string        `json:"name"`
	Quantity *int          `json:"quantity"`
	Path     []string      `json:"path"`
	Category tree.Category `json:"category"`
}

// Location is a floor or room the model wants created before storing.
type Location struct {
	Name       string    `json:"name"`
	Kind       tree.Kind `json:"type"`
	ParentPath []string  `json:"parentPath"`
}

// Intent is the parsed result of one resolution.
type Intent struct {
	Action          Action     `json:"action"`
	Items           []Item     `json:"items,omitempty"`
	CreateLocations []Location `json:"createLocations,omitempty"`
	SearchResult    string     `json:"searchResult,omitempty"`
}

// ErrMalformed marks model output that fails to parse as one of the
// three intent shapes. It surfaces to the user as an error message and
// never mutates the tree.
var ErrMalformed = errors.New("malformed intent")

// Parse decodes raw model output into an Intent. Code fences are
// stripped first; anything that is not valid JSON in one of the three
// action shapes fails with ErrMalformed. Item categories outside the
// closed set collapse to misc; no further semantic validation happens
// here.
func Parse(raw string) (*Intent, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	var in Intent
	if err := json.Unmarshal([]byte(cleaned), &in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	switch in.Action {
	case ActionStore, ActionRemove:
		if in.Items == nil {
			return nil, fmt.Errorf("%w: %s intent without items", ErrMalformed, in.Action)
		}
	case ActionSearch:
	default:
		return nil, fmt.Errorf("%w: unknown action %q", ErrMalformed, in.Action)
	}
	for i := range in.Items {
		if in.Items[i].Name == "" {
			return nil, fmt.Errorf("%w: item without name", ErrMalformed)
		}
		in.Items[i].Category = tree.NormalizeCategory(string(in.Items[i].Category))
	}
	for i, loc := range in.CreateLocations {
		if loc.Kind != tree.KindFloor && loc.Kind != tree.KindRoom {
			return nil, fmt.Errorf("%w: createLocations[%d] has type %q", ErrMalformed, i, loc.Kind)
		}
	}
	return &in, nil
}
