// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package overview

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// words returns "word<from>" ... "word<to-1>" joined by spaces.
func words(from, to int, extra ...string) string {
	var parts []string
	for i := from; i < to; i++ {
		parts = append(parts, fmt.Sprintf("word%02d", i))
	}
	return strings.Join(append(parts, extra...), " ")
}

func reversed(s string) string {
	f := strings.Fields(s)
	for i, j := 0, len(f)-1; i < j; i, j = i+1, j-1 {
		f[i], f[j] = f[j], f[i]
	}
	return strings.Join(f, " ")
}

func newSet() *fragmentSet { return newFragmentSet(0.9, 100, 20) }

func TestFragmentSet_ExactDuplicateIgnoresCaseAndSpace(t *testing.T) {
	s := newSet()
	assert.True(t, s.Add(Fragment{Text: "Machine learning basics"}))
	assert.False(t, s.Add(Fragment{Text: "  MACHINE LEARNING BASICS \n"}))
	assert.Equal(t, 1, s.Len())
}

func TestFragmentSet_ShortSubstringsAreKept(t *testing.T) {
	s := newSet()
	assert.True(t, s.Add(Fragment{Text: "Machine learning is a branch of AI."}))
	assert.True(t, s.Add(Fragment{Text: "Machine learning is a branch"}))
	assert.Equal(t, 2, s.Len())
}

func TestFragmentSet_LongContainment(t *testing.T) {
	long := words(0, 25)
	s := newSet()
	assert.True(t, s.Add(Fragment{Text: long}))
	assert.False(t, s.Add(Fragment{Text: long + " and a closing remark"}), "superstring of a long fragment")
	assert.False(t, s.Add(Fragment{Text: words(0, 24)}), "substring of a long fragment")
}

func TestFragmentSet_ContainmentNeedsBothLong(t *testing.T) {
	s := newSet()
	short := "word00 word01 word02"
	assert.True(t, s.Add(Fragment{Text: short}))
	assert.True(t, s.Add(Fragment{Text: words(0, 25)}), "the earlier fragment is not long")
}

func TestFragmentSet_OverlapThresholdIsStrict(t *testing.T) {
	base := words(0, 30)

	s := newSet()
	s.Add(Fragment{Text: base})
	// 27 of 30 shared words: ratio exactly 0.9, kept.
	assert.True(t, s.Add(Fragment{Text: reversed(words(0, 27, "alpha1", "alpha2", "alpha3"))}))

	s = newSet()
	s.Add(Fragment{Text: base})
	// 28 of 30: ratio above 0.9, rejected.
	assert.False(t, s.Add(Fragment{Text: reversed(words(0, 28, "beta1", "beta2"))}))
}

func TestFragmentSet_OverlapNeedsMoreThanMinWords(t *testing.T) {
	s := newSet()
	s.Add(Fragment{Text: words(0, 20)})
	// Same 20 words in another order: overlap 1.0 but the sets are not
	// larger than 20 words.
	assert.True(t, s.Add(Fragment{Text: reversed(words(0, 20))}))
}

func TestFragmentSet_Merge(t *testing.T) {
	s := newSet()
	s.Add(Fragment{Text: "first fragment text"})
	s.Add(Fragment{Text: "second fragment text"})
	assert.Equal(t, "first fragment text\n\nsecond fragment text", s.Merge())
}

func TestNavFilter_WholeWords(t *testing.T) {
	f := newNavFilter([]string{"search", "more", "sign in"})

	assert.True(t, f.Match("Search"))
	assert.True(t, f.Match("Show more results"))
	assert.True(t, f.Match("Please sign   in to continue"))

	assert.False(t, f.Match("Researchers study machine learning"))
	assert.False(t, f.Match("Furthermore, neural networks learn"))
	assert.False(t, f.Match("signing input forms"))

	assert.False(t, newNavFilter(nil).Match("search"))
}

func TestOverlapRatio(t *testing.T) {
	a := wordSet("a b c d")
	b := wordSet("a b x")
	assert.InDelta(t, 2.0/3.0, overlapRatio(a, b), 1e-9)
	assert.Zero(t, overlapRatio(wordSet(""), a))
}
