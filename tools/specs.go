package tools

import "github.com/voyagent/voyagent/registry"

// Specs returns the local tool set in the order it is presented to the
// model: the itinerary builder first, the search fallback last.
func Specs(searcher *Searcher) []registry.ToolSpec {
	if searcher == nil {
		searcher = NewSearcher()
	}
	return []registry.ToolSpec{
		{
			Name:        "build_itinerary",
			Description: "Build a travel itinerary outline for a destination, duration, and budget. Call after gathering flights, hotels, weather, and places.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"destination": map[string]any{"type": "string", "description": "Destination city"},
					"days":        map[string]any{"type": "integer", "description": "Trip duration in days", "default": 10},
					"budget":      map[string]any{"type": "number", "description": "Estimated budget in USD", "default": 1000},
				},
				"required": []string{"destination"},
			},
			Invoke: BuildItinerary,
		},
		{
			Name:        "web_search",
			Description: "General web search fallback for questions no travel tool covers.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{"type": "string", "description": "Search query"},
				},
				"required": []string{"query"},
			},
			Invoke: searcher.Search,
		},
	}
}
