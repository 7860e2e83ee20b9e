package sync

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hyperengineering/pressync/internal/wp"
)

// TermResolver maps human-readable taxonomy names to remote term ids,
// creating terms that do not exist yet.
type TermResolver struct {
	api   wp.API
	pacer *Pacer
}

// NewTermResolver creates a TermResolver backed by the given site API.
func NewTermResolver(api wp.API, pacer *Pacer) *TermResolver {
	return &TermResolver{api: api, pacer: pacer}
}

// Resolve turns a comma-separated name list into term ids for the taxonomy.
// Failed terms are logged and omitted; the function never returns an error,
// so a broken category can not fail a row on its own.
//
// Terms are re-queried per call on purpose: a term created by row N must be
// visible by name to row N+1, which a cross-row cache could break.
func (t *TermResolver) Resolve(ctx context.Context, namesCSV, taxonomy string) []int {
	var ids []int
	for _, raw := range strings.Split(namesCSV, ",") {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}

		id, err := t.resolveOne(ctx, name, taxonomy)
		if err != nil {
			slog.Warn("term resolution failed, skipping",
				"taxonomy", taxonomy, "name", name, "error", err)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// resolveOne finds an exact case-insensitive name match among search
// candidates, creating the term when none matches.
func (t *TermResolver) resolveOne(ctx context.Context, name, taxonomy string) (int, error) {
	candidates, err := t.api.ListTerms(ctx, taxonomy, name)
	if err != nil {
		return 0, err
	}

	// The server search is a substring match; require name equality.
	for _, c := range candidates {
		if strings.EqualFold(c.Name, name) {
			return c.ID, nil
		}
	}

	term, err := t.api.CreateTerm(ctx, taxonomy, name)
	if err != nil {
		return 0, err
	}
	if err := t.pacer.Wait(ctx); err != nil {
		return 0, err
	}
	slog.Info("term created", "taxonomy", taxonomy, "name", name, "id", term.ID)
	return term.ID, nil
}
