package wp

import (
	"context"
	"fmt"
	"net/url"
)

// Taxonomy route names understood by the wp/v2 API.
const (
	TaxonomyCategory = "categories"
	TaxonomyTag      = "tags"
)

// Term is a taxonomy entry (category or tag).
type Term struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ListTerms searches a taxonomy listing. The server's search is fuzzy; callers
// must still match candidate names exactly.
func (c *Client) ListTerms(ctx context.Context, taxonomy, search string) ([]Term, error) {
	q := url.Values{}
	if search != "" {
		q.Set("search", search)
	}
	q.Set("per_page", "100")

	var terms []Term
	if err := c.getJSON(ctx, c.apiURL("/"+taxonomy, q), &terms); err != nil {
		return nil, fmt.Errorf("list %s: %w", taxonomy, err)
	}
	return terms, nil
}

// CreateTerm creates a taxonomy entry with the exact given name.
func (c *Client) CreateTerm(ctx context.Context, taxonomy, name string) (*Term, error) {
	var term Term
	body := map[string]any{"name": name}
	if err := c.postJSON(ctx, c.apiURL("/"+taxonomy, nil), body, &term); err != nil {
		return nil, fmt.Errorf("create %s %q: %w", taxonomy, name, err)
	}
	return &term, nil
}
