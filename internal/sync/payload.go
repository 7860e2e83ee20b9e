package sync

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// Column names consumed from the CSV. Any other column is ignored.
const (
	colTitle        = "title"
	colContent      = "content"
	colStatus       = "status"
	colSlug         = "slug"
	colExcerpt      = "excerpt"
	colCategories   = "categories"
	colTags         = "tags"
	colImagePath    = "featured_image_path"
	colImageURL     = "featured_image_url"
	colACF          = "acf_json"
	colMetaTitle    = "meta_title"
	colMetaDesc     = "meta_description"
	colFocusKeyword = "focus_keyword"
	colPostID       = "post_id"
)

// seoAliases fans each logical SEO value out to the generic convention plus
// the Yoast and RankMath plugin conventions, so the payload lands correctly
// whichever plugin the target site runs.
var seoAliases = map[string][]string{
	colMetaTitle:    {"meta_title", "_yoast_wpseo_title", "rank_math_title"},
	colMetaDesc:     {"meta_description", "_yoast_wpseo_metadesc", "rank_math_description"},
	colFocusKeyword: {"focus_keyword", "_yoast_wpseo_focuskw", "rank_math_focus_keyword"},
}

// buildCreatePayload assembles the full payload for a new post: required
// fields first, then the optional ones present in the row.
// Title and content are required; their absence is a row failure.
func buildCreatePayload(row Row, defaultStatus string) (map[string]any, error) {
	title := row.Get(colTitle)
	content := row.Get(colContent)
	if title == "" {
		return nil, fmt.Errorf("required field %q is missing or blank", colTitle)
	}
	if content == "" {
		return nil, fmt.Errorf("required field %q is missing or blank", colContent)
	}

	payload := map[string]any{
		"title":   title,
		"content": content,
		"status":  defaultStatus,
	}
	if row.Has(colStatus) {
		payload["status"] = row.Get(colStatus)
	}
	applyOptionalFields(payload, row)
	return payload, nil
}

// buildSparsePayload assembles an update payload containing only the fields
// actually present and non-blank in the row. Fields left out are untouched
// server-side.
func buildSparsePayload(row Row) map[string]any {
	payload := map[string]any{}
	if row.Has(colTitle) {
		payload["title"] = row.Get(colTitle)
	}
	if row.Has(colContent) {
		payload["content"] = row.Get(colContent)
	}
	if row.Has(colStatus) {
		payload["status"] = row.Get(colStatus)
	}
	applyOptionalFields(payload, row)
	return payload
}

// applyOptionalFields copies slug, excerpt, the ACF block, and the SEO alias
// fan-out into the payload when the row supplies them.
func applyOptionalFields(payload map[string]any, row Row) {
	if row.Has(colSlug) {
		payload["slug"] = row.Get(colSlug)
	}
	if row.Has(colExcerpt) {
		payload["excerpt"] = row.Get(colExcerpt)
	}

	if row.Has(colACF) {
		var acf map[string]any
		if err := json.Unmarshal([]byte(row.Get(colACF)), &acf); err != nil {
			// A malformed ACF block drops the field, never the row.
			slog.Warn("acf_json is not valid JSON, omitting field",
				"row", row.Number, "error", err)
		} else {
			payload["acf"] = acf
		}
	}

	meta := map[string]any{}
	for col, targets := range seoAliases {
		if !row.Has(col) {
			continue
		}
		for _, target := range targets {
			meta[target] = row.Get(col)
		}
	}
	if len(meta) > 0 {
		payload["meta"] = meta
	}
}
