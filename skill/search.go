package skill

import (
	"context"
	"fmt"
)

// SearchFunc performs an external web search for a query. Implementations
// are supplied by the embedding application; this subsystem only defines the
// seam.
type SearchFunc func(ctx context.Context, query string) (string, error)

// WebSearch returns the web search skill. Without a search-provider
// credential it is a stub returning an explanatory placeholder; with a
// credential it delegates to the injected SearchFunc.
func WebSearch(apiKey string, search SearchFunc) Skill {
	return Skill{
		ID:          "web_search",
		Description: "Search the web for current information about a query",
		Handler: func(ctx context.Context, input string) (string, error) {
			if apiKey == "" || search == nil {
				return fmt.Sprintf("Web search is not configured (no SEARCH_API_KEY set). "+
					"Unable to search for: %q. Answer from existing knowledge and say that results may be outdated.", input), nil
			}
			results, err := search(ctx, input)
			if err != nil {
				return fmt.Sprintf("Error: search failed: %v", err), nil
			}
			return results, nil
		},
	}
}
