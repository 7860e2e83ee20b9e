package sync

import (
	"strings"
	"testing"
)

func TestBuildCreatePayload_RequiredFields(t *testing.T) {
	if _, err := buildCreatePayload(row(1, "content", "body"), "draft"); err == nil ||
		!strings.Contains(err.Error(), "title") {
		t.Errorf("missing title must fail naming the field, got %v", err)
	}
	if _, err := buildCreatePayload(row(1, "title", "T", "content", "  "), "draft"); err == nil ||
		!strings.Contains(err.Error(), "content") {
		t.Errorf("blank content must fail naming the field, got %v", err)
	}
}

func TestBuildCreatePayload_StatusDefault(t *testing.T) {
	payload, err := buildCreatePayload(row(1, "title", "T", "content", "C"), "draft")
	if err != nil {
		t.Fatal(err)
	}
	if payload["status"] != "draft" {
		t.Errorf("status = %v, want configured default", payload["status"])
	}

	payload, err = buildCreatePayload(row(1, "title", "T", "content", "C", "status", "publish"), "draft")
	if err != nil {
		t.Fatal(err)
	}
	if payload["status"] != "publish" {
		t.Errorf("status = %v, want row value to win", payload["status"])
	}
}

func TestBuildCreatePayload_ACFParseFailureOmitsField(t *testing.T) {
	payload, err := buildCreatePayload(
		row(1, "title", "T", "content", "C", "acf_json", "{not json"), "draft")
	if err != nil {
		t.Fatalf("a malformed acf_json must not fail the row: %v", err)
	}
	if _, ok := payload["acf"]; ok {
		t.Error("malformed acf block must be omitted")
	}

	payload, err = buildCreatePayload(
		row(1, "title", "T", "content", "C", "acf_json", `{"subtitle":"x"}`), "draft")
	if err != nil {
		t.Fatal(err)
	}
	acf, ok := payload["acf"].(map[string]any)
	if !ok || acf["subtitle"] != "x" {
		t.Errorf("acf = %v, want parsed map", payload["acf"])
	}
}

func TestSEOFanOut(t *testing.T) {
	payload, err := buildCreatePayload(row(1,
		"title", "T", "content", "C",
		"meta_title", "SEO Title",
		"meta_description", "SEO Desc",
		"focus_keyword", "brunch",
	), "draft")
	if err != nil {
		t.Fatal(err)
	}

	meta, ok := payload["meta"].(map[string]any)
	if !ok {
		t.Fatal("expected meta block in payload")
	}

	// Each logical value lands under the generic, Yoast, and RankMath names.
	wantKeys := map[string]string{
		"meta_title":              "SEO Title",
		"_yoast_wpseo_title":      "SEO Title",
		"rank_math_title":         "SEO Title",
		"meta_description":        "SEO Desc",
		"_yoast_wpseo_metadesc":   "SEO Desc",
		"rank_math_description":   "SEO Desc",
		"focus_keyword":           "brunch",
		"_yoast_wpseo_focuskw":    "brunch",
		"rank_math_focus_keyword": "brunch",
	}
	for key, want := range wantKeys {
		if meta[key] != want {
			t.Errorf("meta[%q] = %v, want %q", key, meta[key], want)
		}
	}
	if len(meta) != len(wantKeys) {
		t.Errorf("meta has %d keys, want %d", len(meta), len(wantKeys))
	}
}

func TestBuildSparsePayload_OnlyPopulatedFields(t *testing.T) {
	payload := buildSparsePayload(row(1,
		"post_id", "7",
		"status", "publish",
		"title", "",
		"content", "   ",
	))

	if len(payload) != 1 {
		t.Fatalf("payload = %v, want only status", payload)
	}
	if payload["status"] != "publish" {
		t.Errorf("status = %v, want publish", payload["status"])
	}
}

func TestBuildSparsePayload_EmptyRow(t *testing.T) {
	if payload := buildSparsePayload(row(1, "post_id", "7")); len(payload) != 0 {
		t.Errorf("payload = %v, want empty", payload)
	}
}
