package sync

import (
	"regexp"
	"strings"
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// entityReplacer decodes the entities WordPress commonly injects into
// rendered titles. The set is fixed on purpose: a full HTML decoder would
// change match behavior for titles that legitimately contain entity-like text.
var entityReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&quot;", `"`,
	"&#8217;", "'",
	"&#8216;", "'",
	"&#039;", "'",
	"&#038;", "&",
)

// NormalizeTitle reduces a post title to its canonical comparison form:
// tags stripped, common entities decoded, whitespace collapsed, lowercased.
// Two titles are duplicates iff their normalized forms are equal.
// The function is idempotent.
func NormalizeTitle(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	// Decode to a fixed point so double-escaped input ("&amp;nbsp;") settles;
	// the replacer shrinks the string, so this terminates.
	for {
		decoded := entityReplacer.Replace(s)
		if decoded == s {
			break
		}
		s = decoded
	}
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.ToLower(strings.TrimSpace(s))
}
