// Package textsim measures how alike two strings are using the
// longest-matching-block ratio: 2·M / T, where T is the total length of
// both strings and M the number of characters in matching blocks found by
// recursively taking the longest common substring and recursing on either
// side. Lengths are counted in runes.
package textsim

import "sort"

// autojunkMin is the length of b from which characters occurring in more
// than 1% of b (plus one) stop seeding matches.
const autojunkMin = 200

// Block is a matching run: a[A:A+Size] == b[B:B+Size].
type Block struct {
	A, B, Size int
}

type matcher struct {
	a, b    []rune
	b2j     map[rune][]int
	popular map[rune]bool
}

func newMatcher(a, b []rune) *matcher {
	m := &matcher{a: a, b: b, b2j: make(map[rune][]int)}
	for j, r := range b {
		m.b2j[r] = append(m.b2j[r], j)
	}
	if n := len(b); n >= autojunkMin {
		limit := n/100 + 1
		for r, idx := range m.b2j {
			if len(idx) > limit {
				if m.popular == nil {
					m.popular = make(map[rune]bool)
				}
				m.popular[r] = true
				delete(m.b2j, r)
			}
		}
	}
	return m
}

// longest finds the longest matching block in a[alo:ahi] and b[blo:bhi],
// preferring the earliest start in a, then in b.
func (m *matcher) longest(alo, ahi, blo, bhi int) Block {
	besti, bestj, bestsize := alo, blo, 0
	j2len := map[int]int{}
	for i := alo; i < ahi; i++ {
		next := map[int]int{}
		for _, j := range m.b2j[m.a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = next
	}
	// Popular characters never seed a match but may extend one.
	for besti > alo && bestj > blo && m.a[besti-1] == m.b[bestj-1] {
		besti, bestj, bestsize = besti-1, bestj-1, bestsize+1
	}
	for besti+bestsize < ahi && bestj+bestsize < bhi && m.a[besti+bestsize] == m.b[bestj+bestsize] {
		bestsize++
	}
	return Block{A: besti, B: bestj, Size: bestsize}
}

func (m *matcher) blocks() []Block {
	type span struct{ alo, ahi, blo, bhi int }
	queue := []span{{0, len(m.a), 0, len(m.b)}}
	var found []Block
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		x := m.longest(s.alo, s.ahi, s.blo, s.bhi)
		if x.Size == 0 {
			continue
		}
		found = append(found, x)
		if s.alo < x.A && s.blo < x.B {
			queue = append(queue, span{s.alo, x.A, s.blo, x.B})
		}
		if x.A+x.Size < s.ahi && x.B+x.Size < s.bhi {
			queue = append(queue, span{x.A + x.Size, s.ahi, x.B + x.Size, s.bhi})
		}
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].A != found[j].A {
			return found[i].A < found[j].A
		}
		return found[i].B < found[j].B
	})

	// Merge adjacent blocks.
	var out []Block
	for _, b := range found {
		if n := len(out); n > 0 && out[n-1].A+out[n-1].Size == b.A && out[n-1].B+out[n-1].Size == b.B {
			out[n-1].Size += b.Size
			continue
		}
		out = append(out, b)
	}
	return out
}

// MatchingBlocks returns the matching runs of a and b in increasing order.
func MatchingBlocks(a, b string) []Block {
	return newMatcher([]rune(a), []rune(b)).blocks()
}

// Ratio returns the similarity of a and b in [0, 1]. Two empty strings are
// identical.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	matches := 0
	for _, blk := range newMatcher(ra, rb).blocks() {
		matches += blk.Size
	}
	return 2 * float64(matches) / float64(total)
}
