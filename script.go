package bindelta

import (
	"encoding/binary"
	"fmt"
)

// Instruction tags stored in the control stream. Wire constants.
const (
	tagCopy   = 0x00
	tagInsert = 0x01
)

// streamSet holds the three logically independent serialized parts of
// an edit script. They are kept separate because each has distinct
// statistical structure, which compresses better than interleaving:
// control carries tags and copy-source deltas, copyLen carries varint
// lengths, extra carries Insert literals in instruction order.
type streamSet struct {
	control []byte
	copyLen []byte
	extra   []byte
}

// buildScript turns an ordered match sequence over new into the three
// instruction streams. Every gap between matches becomes exactly one
// Insert; every match becomes one Copy whose source offset is encoded
// as the signed delta from the previous Copy's end in old.
func buildScript(new []byte, matches []match) (streamSet, error) {
	var s streamSet
	var varintBuf [binary.MaxVarintLen64]byte

	emitLen := func(n int) {
		s.copyLen = append(s.copyLen, varintBuf[:binary.PutUvarint(varintBuf[:], uint64(n))]...)
	}
	emitInsert := func(lit []byte) {
		s.control = append(s.control, tagInsert)
		emitLen(len(lit))
		s.extra = append(s.extra, lit...)
	}

	pos := 0        // cover position in new
	prevOldEnd := 0 // end of the previous Copy's source run in old
	total := 0
	for _, m := range matches {
		if m.length <= 0 || m.newOff < pos {
			return streamSet{}, fmt.Errorf("%w: match %+v out of order at cover position %d",
				ErrDiff, m, pos)
		}
		if m.newOff > pos {
			emitInsert(new[pos:m.newOff])
			total += m.newOff - pos
		}
		s.control = append(s.control, tagCopy)
		s.control = append(s.control, varintBuf[:binary.PutVarint(varintBuf[:], int64(m.oldOff-prevOldEnd))]...)
		emitLen(m.length)
		prevOldEnd = m.oldOff + m.length
		pos = m.newOff + m.length
		total += m.length
	}
	if pos < len(new) {
		emitInsert(new[pos:])
		total += len(new) - pos
	}

	if total != len(new) {
		return streamSet{}, fmt.Errorf("%w: instructions cover %d bytes, new data has %d",
			ErrDiff, total, len(new))
	}
	return s, nil
}
