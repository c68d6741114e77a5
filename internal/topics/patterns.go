package topics

import (
	"strings"
	"unicode/utf8"
)

// keyPhrases are scanned in every sentence, group by group. Within a group
// the first phrase matching at a position wins.
var keyPhrases = [][]string{
	{
		"machine learning", "deep learning", "intelligenza artificiale", "neural network",
		"algoritmi", "automazione",
		"artificial intelligence", "algorithms", "automation",
	},
	{
		"applicazioni", "vantaggi", "sfide", "definizione", "caratteristiche",
		"applications", "advantages", "benefits", "challenges", "definition", "characteristics",
	},
	{
		"sanità", "trasporti", "finanza", "industria", "robotica",
		"healthcare", "transportation", "finance", "industry", "robotics",
	},
}

// findPhrases returns, in order, every non-overlapping occurrence in s of a
// phrase from group that starts and ends on a word boundary.
func findPhrases(s string, group []string) []string {
	var out []string
	for i := 0; i < len(s); {
		if atBoundary(s, i) {
			if p, ok := phraseAt(s, i, group); ok {
				out = append(out, p)
				i += len(p)
				continue
			}
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return out
}

func phraseAt(s string, i int, group []string) (string, bool) {
	for _, p := range group {
		if strings.HasPrefix(s[i:], p) && atBoundary(s, i+len(p)) {
			return p, true
		}
	}
	return "", false
}

// atBoundary reports whether byte offset i sits between a word rune and a
// non-word rune (or the text edge).
func atBoundary(s string, i int) bool {
	before, after := false, false
	if i > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:i])
		before = isWordRune(r)
	}
	if i < len(s) {
		r, _ := utf8.DecodeRuneInString(s[i:])
		after = isWordRune(r)
	}
	return before != after
}
