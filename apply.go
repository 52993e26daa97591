package bindelta

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Apply reconstructs new data from old data plus a patch produced by
// Diff. The compression kind is read from the patch header, never
// supplied by the caller. Apply either fully succeeds or fails without
// partial output: the result length must equal the header's newSize
// and every instruction stream must be consumed exactly.
func Apply(old, patch []byte) ([]byte, error) {
	h, err := ReadHeader(patch)
	if err != nil {
		return nil, err
	}
	if h.OldSize != uint64(len(old)) {
		return nil, fmt.Errorf("%w: patch expects %d bytes of old data, got %d",
			ErrPatch, h.OldSize, len(old))
	}

	rawControl, rawCopyLen, rawExtra := h.streams(patch)
	control, err := decompress(rawControl, h.Compression, -1)
	if err != nil {
		return nil, err
	}
	copyLen, err := decompress(rawCopyLen, h.Compression, -1)
	if err != nil {
		return nil, err
	}
	extra, err := decompress(rawExtra, h.Compression, -1)
	if err != nil {
		return nil, err
	}

	return replay(old, control, copyLen, extra, h.NewSize)
}

// replay executes the edit script sequentially. Replay cannot be
// parallelized: each Copy's source offset is relative to cursor state
// accumulated from all prior Copy instructions.
func replay(old, control, copyLen, extra []byte, newSize uint64) ([]byte, error) {
	// The capacity hint is capped so that a forged newSize cannot
	// drive a huge allocation before validation fails.
	capHint := newSize
	if capHint > 1<<20 {
		capHint = 1 << 20
	}
	out := make([]byte, 0, capHint)
	cursor := 0 // position in old after the previous Copy's source run

	nextLen := func() (int, error) {
		n, used := binary.Uvarint(copyLen)
		if used <= 0 {
			return 0, fmt.Errorf("%w: length stream exhausted", ErrPatch)
		}
		copyLen = copyLen[used:]
		if n > math.MaxInt {
			return 0, fmt.Errorf("%w: instruction length %d does not fit", ErrPatch, n)
		}
		if n > newSize-uint64(len(out)) {
			return 0, fmt.Errorf("%w: instruction length %d overruns output size %d",
				ErrPatch, n, newSize)
		}
		return int(n), nil
	}

	for uint64(len(out)) < newSize {
		if len(control) == 0 {
			return nil, fmt.Errorf("%w: control stream exhausted at %d of %d output bytes",
				ErrPatch, len(out), newSize)
		}
		tag := control[0]
		control = control[1:]

		switch tag {
		case tagCopy:
			delta, used := binary.Varint(control)
			if used <= 0 {
				return nil, fmt.Errorf("%w: truncated copy delta", ErrPatch)
			}
			control = control[used:]
			length, err := nextLen()
			if err != nil {
				return nil, err
			}
			src := cursor + int(delta)
			// Written so the check itself cannot overflow.
			if src < 0 || src > len(old) || length > len(old)-src {
				return nil, fmt.Errorf("%w: copy source [%d, +%d) outside old data of %d bytes",
					ErrPatch, src, length, len(old))
			}
			out = append(out, old[src:src+length]...)
			cursor = src + length

		case tagInsert:
			length, err := nextLen()
			if err != nil {
				return nil, err
			}
			if length > len(extra) {
				return nil, fmt.Errorf("%w: literal stream exhausted", ErrPatch)
			}
			out = append(out, extra[:length]...)
			extra = extra[length:]

		default:
			return nil, fmt.Errorf("%w: unknown instruction tag 0x%02x", ErrPatch, tag)
		}
	}

	if len(control) != 0 || len(copyLen) != 0 || len(extra) != 0 {
		return nil, fmt.Errorf("%w: leftover stream bytes after replay (control=%d copyLen=%d extra=%d)",
			ErrPatch, len(control), len(copyLen), len(extra))
	}
	if uint64(len(out)) != newSize {
		return nil, fmt.Errorf("%w: produced %d bytes, header declares %d", ErrPatch, len(out), newSize)
	}
	return out, nil
}
