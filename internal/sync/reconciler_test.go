package sync

import (
	"context"
	"strings"
	"testing"

	"github.com/hyperengineering/pressync/internal/wp"
)

func newTestReconciler(api *mockAPI) *Reconciler {
	return NewReconciler(api, NewPacer(0), "draft")
}

func TestReconciler_CreateRow(t *testing.T) {
	api := &mockAPI{}
	r := newTestReconciler(api)

	outcome := r.Process(context.Background(), row(1,
		"title", "Weekend Brunch",
		"content", "Pancakes.",
	), ModeCreate)

	if outcome.Action != ActionCreated {
		t.Fatalf("action = %s, want created (err: %s)", outcome.Action, outcome.Err)
	}
	if outcome.RemoteID == 0 {
		t.Error("expected remote id")
	}
	if outcome.Err != "" {
		t.Errorf("err = %q, want empty", outcome.Err)
	}
	if len(api.createdPayloads) != 1 {
		t.Fatalf("created %d posts, want 1", len(api.createdPayloads))
	}
}

func TestReconciler_CreateDuplicateGate(t *testing.T) {
	api := &mockAPI{posts: []wp.Post{
		{ID: 55, Title: wp.RenderedText{Rendered: "Weekend Brunch"}},
	}}
	r := newTestReconciler(api)

	outcome := r.Process(context.Background(), row(2,
		"title", "weekend   brunch",
		"content", "Again.",
	), ModeCreate)

	if outcome.Action != ActionNone {
		t.Fatalf("action = %s, want none", outcome.Action)
	}
	if !strings.Contains(outcome.Err, "duplicate") {
		t.Errorf("err = %q, want duplicate refusal", outcome.Err)
	}
	if outcome.RemoteID != 0 {
		t.Error("a failed row must not carry a remote id")
	}
	if len(api.createdPayloads) != 0 {
		t.Error("no create call may be issued for a duplicate")
	}
}

func TestReconciler_CreateWithExistingSlugUpdates(t *testing.T) {
	// Same slug, different title: the title gate passes, the slug check
	// routes the row to an update (idempotent re-run).
	api := &mockAPI{posts: []wp.Post{
		{ID: 88, Slug: "weekend-brunch", Title: wp.RenderedText{Rendered: "Old Title"}},
	}}
	r := newTestReconciler(api)

	outcome := r.Process(context.Background(), row(1,
		"title", "New Brunch Title",
		"content", "Fresh.",
		"slug", "weekend-brunch",
	), ModeCreate)

	if outcome.Action != ActionUpdated {
		t.Fatalf("action = %s, want updated (err: %s)", outcome.Action, outcome.Err)
	}
	if outcome.RemoteID != 88 {
		t.Errorf("remote id = %d, want 88", outcome.RemoteID)
	}
	if len(api.createdPayloads) != 0 {
		t.Error("no create call expected")
	}
	if len(api.updatedIDs) != 1 || api.updatedIDs[0] != 88 {
		t.Errorf("updated ids = %v, want [88]", api.updatedIDs)
	}
}

func TestReconciler_CreateMissingContentFailsRow(t *testing.T) {
	api := &mockAPI{}
	r := newTestReconciler(api)

	outcome := r.Process(context.Background(), row(3, "title", "Only Title"), ModeCreate)

	if outcome.Action != ActionNone {
		t.Fatalf("action = %s, want none", outcome.Action)
	}
	if !strings.Contains(outcome.Err, "content") {
		t.Errorf("err = %q, want mention of the missing field", outcome.Err)
	}
}

func TestReconciler_CreateAttachesTermsAndMedia(t *testing.T) {
	api := &mockAPI{terms: map[string][]wp.Term{
		wp.TaxonomyCategory: {{ID: 9, Name: "Food"}},
	}}
	r := newTestReconciler(api)

	outcome := r.Process(context.Background(), row(1,
		"title", "T", "content", "C",
		"categories", "Food",
		"tags", "breakfast, simple",
	), ModeCreate)

	if outcome.Action != ActionCreated {
		t.Fatalf("action = %s (err: %s)", outcome.Action, outcome.Err)
	}
	payload := api.createdPayloads[0]
	if cats, ok := payload["categories"].([]int); !ok || len(cats) != 1 || cats[0] != 9 {
		t.Errorf("categories = %v, want [9]", payload["categories"])
	}
	if tags, ok := payload["tags"].([]int); !ok || len(tags) != 2 {
		t.Errorf("tags = %v, want two created tag ids", payload["tags"])
	}
}

func TestReconciler_UpdateSparseMerge(t *testing.T) {
	api := &mockAPI{posts: []wp.Post{{ID: 7, Slug: "existing"}}}
	r := newTestReconciler(api)

	outcome := r.Process(context.Background(), row(1,
		"post_id", "7",
		"status", "publish",
	), ModeUpdate)

	if outcome.Action != ActionUpdated {
		t.Fatalf("action = %s, want updated (err: %s)", outcome.Action, outcome.Err)
	}
	if outcome.RemoteID != 7 {
		t.Errorf("remote id = %d, want 7", outcome.RemoteID)
	}
	payload := api.updatedPayloads[0]
	if len(payload) != 1 || payload["status"] != "publish" {
		t.Errorf("payload = %v, want only status", payload)
	}
}

func TestReconciler_UpdateUnknownIDFails(t *testing.T) {
	api := &mockAPI{}
	r := newTestReconciler(api)

	outcome := r.Process(context.Background(), row(1,
		"post_id", "999999",
		"status", "publish",
	), ModeUpdate)

	if outcome.Action != ActionNone {
		t.Fatalf("action = %s, want none", outcome.Action)
	}
	if !strings.Contains(outcome.Err, "not found") {
		t.Errorf("err = %q, want not found", outcome.Err)
	}
}

func TestReconciler_UpdateExplicitSlugMissIsNotAFallback(t *testing.T) {
	// A post exists whose title matches, but the explicit slug misses:
	// the row fails rather than falling back to title resolution.
	api := &mockAPI{posts: []wp.Post{
		{ID: 3, Slug: "other-slug", Title: wp.RenderedText{Rendered: "Match Me"}},
	}}
	r := newTestReconciler(api)

	outcome := r.Process(context.Background(), row(1,
		"slug", "missing-slug",
		"title", "Match Me",
		"status", "publish",
	), ModeUpdate)

	if outcome.Action != ActionNone {
		t.Fatalf("action = %s, want none", outcome.Action)
	}
	if !strings.Contains(outcome.Err, "missing-slug") {
		t.Errorf("err = %q, want the missed slug named", outcome.Err)
	}
	if len(api.updatedIDs) != 0 {
		t.Error("no update may be issued")
	}
}

func TestReconciler_UpdateByTitle(t *testing.T) {
	api := &mockAPI{posts: []wp.Post{
		{ID: 12, Title: wp.RenderedText{Rendered: "Find Me"}},
	}}
	r := newTestReconciler(api)

	outcome := r.Process(context.Background(), row(1,
		"title", "find me",
		"excerpt", "short",
	), ModeUpdate)

	if outcome.Action != ActionUpdated {
		t.Fatalf("action = %s, want updated (err: %s)", outcome.Action, outcome.Err)
	}
	if api.updatedIDs[0] != 12 {
		t.Errorf("updated id = %d, want 12", api.updatedIDs[0])
	}
}

func TestReconciler_UpdateEmptyPayloadFails(t *testing.T) {
	api := &mockAPI{posts: []wp.Post{{ID: 7}}}
	r := newTestReconciler(api)

	outcome := r.Process(context.Background(), row(1, "post_id", "7"), ModeUpdate)

	if outcome.Action != ActionNone {
		t.Fatalf("action = %s, want none", outcome.Action)
	}
	if !strings.Contains(outcome.Err, "nothing to update") {
		t.Errorf("err = %q, want nothing-to-update", outcome.Err)
	}
}

func TestReconciler_UpdateWithoutIdentifierFails(t *testing.T) {
	api := &mockAPI{}
	r := newTestReconciler(api)

	outcome := r.Process(context.Background(), row(1, "status", "publish"), ModeUpdate)

	if outcome.Action != ActionNone || !strings.Contains(outcome.Err, "identifier") {
		t.Errorf("outcome = %+v, want missing-identifier failure", outcome)
	}
}
