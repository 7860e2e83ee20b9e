package sync

import "testing"

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Weekend Brunch", "weekend brunch"},
		{"casing and whitespace", "weekend   BRUNCH ", "weekend brunch"},
		{"tags stripped", "<b>Weekend</b> Brunch", "weekend brunch"},
		{"nbsp entity", "Weekend&nbsp;Brunch", "weekend brunch"},
		{"amp entity", "Fish &amp; Chips", "fish & chips"},
		{"numeric apostrophe", "It&#8217;s Here", "it's here"},
		{"numeric ampersand", "Salt &#038; Pepper", "salt & pepper"},
		{"quote entity", "&quot;Quoted&quot;", `"quoted"`},
		{"double-escaped entity", "Fish &amp;amp; Chips", "fish & chips"},
		{"tabs and newlines", "a\t b\n c", "a b c"},
		{"empty", "", ""},
		{"only markup", "<p></p>", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeTitle(tt.input); got != tt.want {
				t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeTitle_Idempotent(t *testing.T) {
	inputs := []string{
		"Weekend Brunch",
		"<em>Fish &amp; Chips</em>",
		"  spaced   OUT  ",
		"It&#8217;s &quot;fine&quot;",
		"Fish &amp;amp;amp; Chips",
		"Weekend&amp;nbsp;Brunch",
	}
	for _, s := range inputs {
		once := NormalizeTitle(s)
		twice := NormalizeTitle(once)
		if once != twice {
			t.Errorf("normalize not idempotent for %q: %q != %q", s, once, twice)
		}
	}
}

func TestNormalizeTitle_DuplicateEquivalence(t *testing.T) {
	// The duplicate gate compares normalized forms for equality.
	if NormalizeTitle("Weekend Brunch") != NormalizeTitle("weekend   brunch") {
		t.Error("differently cased/spaced titles should normalize equal")
	}
	if NormalizeTitle("Weekend Brunch") == NormalizeTitle("Weekday Brunch") {
		t.Error("distinct titles must not normalize equal")
	}
}
