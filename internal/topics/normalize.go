package topics

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// normalize composes s to NFC and lowercases it, so that "è" typed as
// e + combining grave compares equal to the precomposed letter.
func normalize(s string) string {
	return cases.Lower(language.Und).String(norm.NFC.String(s))
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// stripPunctuation replaces every rune that is neither a word character nor
// whitespace with a space.
func stripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if isWordRune(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, s)
}

func isAlpha(w string) bool {
	if w == "" {
		return false
	}
	for _, r := range w {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// sentences splits text after '.', '!' or '?' runs that are followed by
// whitespace or end the text. Line breaks also end a sentence.
func sentences(text string) []string {
	var out []string
	rs := []rune(text)
	start := 0
	flush := func(end int) {
		if s := strings.TrimSpace(string(rs[start:end])); s != "" {
			out = append(out, s)
		}
		start = end
	}
	for i := 0; i < len(rs); i++ {
		switch rs[i] {
		case '\n':
			flush(i + 1)
		case '.', '!', '?':
			j := i
			for j+1 < len(rs) && (rs[j+1] == '.' || rs[j+1] == '!' || rs[j+1] == '?') {
				j++
			}
			if j+1 == len(rs) || unicode.IsSpace(rs[j+1]) {
				flush(j + 1)
			}
			i = j
		}
	}
	flush(len(rs))
	return out
}
