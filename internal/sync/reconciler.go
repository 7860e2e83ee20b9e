package sync

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hyperengineering/pressync/internal/wp"
)

// Reconciler turns one CSV row into one create-or-update call against the
// site, resolving terms and media along the way. Any failure is caught at
// the row boundary and recorded in the Outcome; one bad row never aborts
// the batch.
type Reconciler struct {
	api           wp.API
	terms         *TermResolver
	media         *MediaIngestor
	dupes         *Detector
	pacer         *Pacer
	defaultStatus string
}

// NewReconciler wires a Reconciler and its sub-resolvers for one batch
// invocation. Nothing is shared across invocations.
func NewReconciler(api wp.API, pacer *Pacer, defaultStatus string) *Reconciler {
	if defaultStatus == "" {
		defaultStatus = "draft"
	}
	return &Reconciler{
		api:           api,
		terms:         NewTermResolver(api, pacer),
		media:         NewMediaIngestor(api, pacer),
		dupes:         NewDetector(api),
		pacer:         pacer,
		defaultStatus: defaultStatus,
	}
}

// Process reconciles a single row in the given mode. It always returns a
// well-formed Outcome and never an error.
func (r *Reconciler) Process(ctx context.Context, row Row, mode Mode) Outcome {
	var (
		post   *wp.Post
		action Action
		err    error
	)
	if mode == ModeUpdate {
		post, err = r.updateRow(ctx, row)
		action = ActionUpdated
	} else {
		post, action, err = r.createRow(ctx, row)
	}

	outcome := Outcome{RowNumber: row.Number, Title: row.Get(colTitle)}
	if err != nil {
		outcome.Action = ActionNone
		outcome.Err = err.Error()
		return outcome
	}
	outcome.Action = action
	outcome.RemoteID = post.ID
	outcome.RemoteStatus = post.Status
	if outcome.Title == "" {
		outcome.Title = post.Title.Rendered
	}
	return outcome
}

// createRow implements create mode: validate, build, resolve references,
// refuse duplicates by title, update by slug when the post already exists,
// otherwise create.
func (r *Reconciler) createRow(ctx context.Context, row Row) (*wp.Post, Action, error) {
	payload, err := buildCreatePayload(row, r.defaultStatus)
	if err != nil {
		return nil, ActionNone, err
	}
	r.attachReferences(ctx, payload, row)

	// Duplicate gate: a normalized-title match refuses creation outright.
	// Never silently merge into an unrelated existing post at this step.
	dupID, err := r.dupes.FindByTitle(ctx, row.Get(colTitle))
	if err != nil {
		return nil, ActionNone, err
	}
	if dupID != 0 {
		return nil, ActionNone, fmt.Errorf("duplicate: a post with this title already exists (id %d)", dupID)
	}

	// Idempotent re-run: a matching slug means this row was imported before.
	// Checked only after the title gate passes.
	if slug := row.Get(colSlug); slug != "" {
		existingID, err := r.dupes.FindBySlug(ctx, slug)
		if err != nil {
			return nil, ActionNone, err
		}
		if existingID != 0 {
			post, err := r.api.UpdatePost(ctx, existingID, payload)
			if err != nil {
				return nil, ActionNone, err
			}
			if err := r.pacer.Wait(ctx); err != nil {
				return nil, ActionNone, err
			}
			return post, ActionUpdated, nil
		}
	}

	post, err := r.api.CreatePost(ctx, payload)
	if err != nil {
		return nil, ActionNone, err
	}
	if err := r.pacer.Wait(ctx); err != nil {
		return nil, ActionNone, err
	}
	return post, ActionCreated, nil
}

// updateRow implements update mode: locate the target with identifier
// priority id > slug > title, then sparse-merge only the supplied fields.
func (r *Reconciler) updateRow(ctx context.Context, row Row) (*wp.Post, error) {
	targetID, err := r.resolveTarget(ctx, row)
	if err != nil {
		return nil, err
	}

	payload := buildSparsePayload(row)
	r.attachReferences(ctx, payload, row)
	if len(payload) == 0 {
		return nil, fmt.Errorf("nothing to update: no populated fields besides the identifier")
	}

	post, err := r.api.UpdatePost(ctx, targetID, payload)
	if err != nil {
		return nil, err
	}
	if err := r.pacer.Wait(ctx); err != nil {
		return nil, err
	}
	return post, nil
}

// resolveTarget picks the update target from the first non-blank identifier
// field. An explicit id or slug that matches nothing is a row failure, not a
// fallback to the next identifier type.
func (r *Reconciler) resolveTarget(ctx context.Context, row Row) (int, error) {
	if row.Has(colPostID) {
		id, err := strconv.Atoi(row.Get(colPostID))
		if err != nil {
			return 0, fmt.Errorf("invalid post_id %q", row.Get(colPostID))
		}
		found, err := r.dupes.FindByID(ctx, id)
		if err != nil {
			return 0, err
		}
		if found == 0 {
			return 0, fmt.Errorf("post id %d not found", id)
		}
		return found, nil
	}

	if slug := row.Get(colSlug); slug != "" {
		found, err := r.dupes.FindBySlug(ctx, slug)
		if err != nil {
			return 0, err
		}
		if found == 0 {
			return 0, fmt.Errorf("post with slug %q not found", slug)
		}
		return found, nil
	}

	if title := row.Get(colTitle); title != "" {
		found, err := r.dupes.FindByTitle(ctx, title)
		if err != nil {
			return 0, err
		}
		if found == 0 {
			return 0, fmt.Errorf("post with title %q not found", title)
		}
		return found, nil
	}

	return 0, fmt.Errorf("no identifier: row needs post_id, slug, or title")
}

// attachReferences resolves category, tag, and media columns onto the
// payload. Sub-operation failures degrade to omitted fields.
func (r *Reconciler) attachReferences(ctx context.Context, payload map[string]any, row Row) {
	if row.Has(colCategories) {
		if ids := r.terms.Resolve(ctx, row.Get(colCategories), wp.TaxonomyCategory); len(ids) > 0 {
			payload["categories"] = ids
		}
	}
	if row.Has(colTags) {
		if ids := r.terms.Resolve(ctx, row.Get(colTags), wp.TaxonomyTag); len(ids) > 0 {
			payload["tags"] = ids
		}
	}

	source := row.Get(colImagePath)
	if source == "" {
		source = row.Get(colImageURL)
	}
	if source != "" {
		if mediaID, ok := r.media.Ingest(ctx, source); ok {
			payload["featured_media"] = mediaID
		}
	}
}
