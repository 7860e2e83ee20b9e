package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hyperengineering/pressync/internal/wp"
)

const (
	// scanPageSize is the listing page size for duplicate enumeration.
	scanPageSize = 100
	// scanMaxPages bounds the enumeration; reaching it means "not found".
	scanMaxPages = 10
	// scanStatuses covers every status value; the search endpoint does not
	// reliably surface drafts and scheduled posts.
	scanStatuses = "publish,future,draft,pending,private"
)

// Detector finds existing posts by title, slug, or id so the reconciler can
// decide between create, update, and refusal.
type Detector struct {
	api wp.API
}

// NewDetector creates a Detector backed by the given site API.
func NewDetector(api wp.API) *Detector {
	return &Detector{api: api}
}

// FindByTitle returns the id of the first post whose normalized title equals
// the normalized input, scanning the full listing newest first. Returns 0
// when no post matches or the page cap is reached.
func (d *Detector) FindByTitle(ctx context.Context, title string) (int, error) {
	want := NormalizeTitle(title)
	if want == "" {
		return 0, nil
	}

	for page := 1; page <= scanMaxPages; page++ {
		posts, err := d.api.ListPosts(ctx, wp.PostQuery{
			Status:  scanStatuses,
			Page:    page,
			PerPage: scanPageSize,
			OrderBy: "date",
			Order:   "desc",
		})
		if err != nil {
			return 0, fmt.Errorf("duplicate scan page %d: %w", page, err)
		}

		for _, p := range posts {
			if NormalizeTitle(p.Title.Rendered) == want {
				return p.ID, nil
			}
		}

		// A short page means end of data.
		if len(posts) < scanPageSize {
			return 0, nil
		}
	}

	slog.Info("duplicate scan hit page cap, treating as not found",
		"title", title, "pages", scanMaxPages, "scanned", scanMaxPages*scanPageSize)
	return 0, nil
}

// FindBySlug returns the id of the post with the exact slug, or 0.
func (d *Detector) FindBySlug(ctx context.Context, slug string) (int, error) {
	if slug == "" {
		return 0, nil
	}
	posts, err := d.api.ListPosts(ctx, wp.PostQuery{
		Slug:    slug,
		Status:  scanStatuses,
		PerPage: 1,
	})
	if err != nil {
		return 0, fmt.Errorf("slug lookup %q: %w", slug, err)
	}
	if len(posts) == 0 {
		return 0, nil
	}
	return posts[0].ID, nil
}

// FindByID confirms a post id exists. A missing id maps to 0, not an error.
func (d *Detector) FindByID(ctx context.Context, id int) (int, error) {
	post, err := d.api.GetPost(ctx, id)
	if err != nil {
		if errors.Is(err, wp.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("id lookup %d: %w", id, err)
	}
	return post.ID, nil
}
