package bindelta

import "github.com/cespare/xxhash/v2"

// Matcher constants. The seed is the smallest unit the index can look
// up; three bytes, because a Copy instruction costs about three bytes
// on the wire (tag, delta varint, length varint), so shorter matches
// lose money. The chain cap bounds work on pathological repetitive
// inputs; 64 candidates is enough to find the long match in practice.
const (
	seedLen     = 3
	minMatchLen = 3
	maxChain    = 64

	matchHashBits = 17
	matchHashSize = 1 << matchHashBits
)

// match records a verified identical byte run between old and new.
type match struct {
	oldOff int
	newOff int
	length int
}

// matchIndex is a hash-chain index over old keyed by seedLen-byte
// seeds. It is immutable after build and safe for concurrent lookups.
type matchIndex struct {
	old  []byte
	head []int32
	prev []int32
}

func seedHash(b []byte) uint32 {
	return uint32(xxhash.Sum64(b[:seedLen]) >> (64 - matchHashBits))
}

func buildIndex(old []byte) *matchIndex {
	idx := &matchIndex{
		old:  old,
		head: make([]int32, matchHashSize),
	}
	for i := range idx.head {
		idx.head[i] = -1
	}
	if len(old) < seedLen {
		return idx
	}
	idx.prev = make([]int32, len(old)-seedLen+1)
	// Insert back to front so chains walk oldest-first; combined with
	// the >= tie-break below this keeps offset choice deterministic.
	for i := len(old) - seedLen; i >= 0; i-- {
		h := seedHash(old[i:])
		idx.prev[i] = idx.head[h]
		idx.head[h] = int32(i)
	}
	return idx
}

// longestAt returns the longest run in old matching buf, along with
// its offset. Ties in length are broken by the offset closest to want,
// which keeps copy-source deltas small for sequentially-laid-out data.
// Returns length 0 when nothing of at least minMatchLen exists.
func (idx *matchIndex) longestAt(buf []byte, want int) (offset, length int) {
	if len(buf) < seedLen {
		return 0, 0
	}
	h := seedHash(buf)
	bestLen, bestOff, bestDist := 0, 0, 0
	tries := 0
	for j := idx.head[h]; j >= 0 && tries < maxChain; j = idx.prev[j] {
		tries++
		l := matchLen(idx.old[j:], buf)
		if l < minMatchLen {
			continue
		}
		d := int(j) - want
		if d < 0 {
			d = -d
		}
		if l > bestLen || (l == bestLen && d < bestDist) {
			bestLen, bestOff, bestDist = l, int(j), d
		}
	}
	return bestOff, bestLen
}

func matchLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

// findMatches scans new left to right and greedily accepts the longest
// match available at each uncovered position. The result is ordered by
// newOff and non-overlapping in new. An empty old yields no matches.
func findMatches(old, new []byte) []match {
	if len(old) < seedLen || len(new) < seedLen {
		return nil
	}
	idx := buildIndex(old)

	var matches []match
	prevEnd := 0 // end of the previous accepted match in old
	for i := 0; i+seedLen <= len(new); {
		off, l := idx.longestAt(new[i:], prevEnd)
		if l < minMatchLen {
			i++
			continue
		}
		matches = append(matches, match{oldOff: off, newOff: i, length: l})
		prevEnd = off + l
		i += l
	}
	return matches
}
