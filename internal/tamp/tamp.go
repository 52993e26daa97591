// Package tamp implements the engine's small-window LZSS codec for
// embedded-profile patches. The stream is bit-packed MSB first: a one
// byte header carrying the window size in bits, followed by tokens. A
// set flag bit introduces a literal (8 bits); a clear flag bit
// introduces a copy token holding a backward distance (window-bits
// wide, 1-based) and a length (6 bits, biased by the minimum match).
// Distance zero terminates the stream, so decompression needs no
// out-of-band plaintext length.
package tamp

import (
	"errors"
	"fmt"
)

const (
	MinWindowBits     = 8
	MaxWindowBits     = 15
	DefaultWindowBits = 10

	minMatch   = 3
	lengthBits = 6
	maxMatch   = minMatch + (1 << lengthBits) - 1

	hashBits = 14
	hashSize = 1 << hashBits
	maxChain = 32
)

// ErrCorrupt reports a stream that cannot have been produced by
// Compress: a bad header, a distance reaching before the start of the
// output, or data ending mid-token.
var ErrCorrupt = errors.New("tamp: corrupt stream")

// Compress compresses src with the default window size.
func Compress(src []byte) []byte {
	out, err := CompressWindow(src, DefaultWindowBits)
	if err != nil {
		// DefaultWindowBits is always in range.
		panic(err)
	}
	return out
}

// CompressWindow compresses src using a window of 1<<windowBits - 1
// bytes. Larger windows find farther matches at the cost of wider copy
// tokens.
func CompressWindow(src []byte, windowBits int) ([]byte, error) {
	if windowBits < MinWindowBits || windowBits > MaxWindowBits {
		return nil, fmt.Errorf("tamp: window bits %d out of range %d-%d",
			windowBits, MinWindowBits, MaxWindowBits)
	}

	// Distance zero is the stream terminator, so the usable window is
	// one byte short of the full bit range.
	maxDist := 1<<windowBits - 1

	w := bitWriter{out: []byte{byte(windowBits)}}

	head := make([]int32, hashSize)
	for i := range head {
		head[i] = -1
	}
	prev := make([]int32, len(src))

	i := 0
	for i < len(src) {
		bestLen, bestDist := 0, 0
		if i+minMatch <= len(src) {
			h := hash3(src[i], src[i+1], src[i+2])
			tries := 0
			for j := head[h]; j >= 0 && tries < maxChain; j = prev[j] {
				tries++
				d := i - int(j)
				if d > maxDist {
					break
				}
				l := commonPrefix(src[j:], src[i:])
				if l > maxMatch {
					l = maxMatch
				}
				if l > bestLen {
					bestLen, bestDist = l, d
				}
			}
		}

		if bestLen >= minMatch {
			w.writeBits(0, 1)
			w.writeBits(uint32(bestDist), windowBits)
			w.writeBits(uint32(bestLen-minMatch), lengthBits)
			// Index every position the match covers. Positions too
			// close to the end to seed a full hash are skipped.
			for end := i + bestLen; i < end; i++ {
				if i+minMatch <= len(src) {
					h := hash3(src[i], src[i+1], src[i+2])
					prev[i] = head[h]
					head[h] = int32(i)
				}
			}
		} else {
			w.writeBits(1, 1)
			w.writeBits(uint32(src[i]), 8)
			if i+minMatch <= len(src) {
				h := hash3(src[i], src[i+1], src[i+2])
				prev[i] = head[h]
				head[h] = int32(i)
			}
			i++
		}
	}

	// Terminator: copy token with distance zero.
	w.writeBits(0, 1)
	w.writeBits(0, windowBits)
	w.flush()
	return w.out, nil
}

// Decompress expands a stream produced by CompressWindow. The stream
// is self-terminating; trailing padding bits after the terminator are
// ignored.
func Decompress(src []byte) ([]byte, error) {
	if len(src) < 1 {
		return nil, fmt.Errorf("%w: missing header", ErrCorrupt)
	}
	windowBits := int(src[0])
	if windowBits < MinWindowBits || windowBits > MaxWindowBits {
		return nil, fmt.Errorf("%w: window bits %d", ErrCorrupt, windowBits)
	}

	r := bitReader{src: src[1:]}
	var out []byte
	for {
		flag, err := r.readBits(1)
		if err != nil {
			return nil, err
		}
		if flag == 1 {
			lit, err := r.readBits(8)
			if err != nil {
				return nil, err
			}
			out = append(out, byte(lit))
			continue
		}

		dist, err := r.readBits(windowBits)
		if err != nil {
			return nil, err
		}
		if dist == 0 {
			return out, nil
		}
		length, err := r.readBits(lengthBits)
		if err != nil {
			return nil, err
		}
		n := int(length) + minMatch
		start := len(out) - int(dist)
		if start < 0 {
			return nil, fmt.Errorf("%w: distance %d exceeds output", ErrCorrupt, dist)
		}
		// Byte-wise copy: the match may overlap its own output when
		// the distance is shorter than the length.
		for k := 0; k < n; k++ {
			out = append(out, out[start+k])
		}
	}
}

func hash3(a, b, c byte) uint32 {
	h := uint32(a)<<16 | uint32(b)<<8 | uint32(c)
	h *= 0x9e3779b1
	return h >> (32 - hashBits)
}

func commonPrefix(a, b []byte) int {
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

// bitWriter packs bits MSB first into a byte slice.
type bitWriter struct {
	out   []byte
	acc   uint32
	nbits int
}

func (w *bitWriter) writeBits(v uint32, n int) {
	w.acc = w.acc<<n | v&(1<<n-1)
	w.nbits += n
	for w.nbits >= 8 {
		w.nbits -= 8
		w.out = append(w.out, byte(w.acc>>w.nbits))
	}
}

func (w *bitWriter) flush() {
	if w.nbits > 0 {
		w.out = append(w.out, byte(w.acc<<(8-w.nbits)))
		w.nbits = 0
	}
}

// bitReader consumes bits MSB first from a byte slice.
type bitReader struct {
	src   []byte
	pos   int
	acc   uint32
	nbits int
}

func (r *bitReader) readBits(n int) (uint32, error) {
	for r.nbits < n {
		if r.pos >= len(r.src) {
			return 0, fmt.Errorf("%w: truncated stream", ErrCorrupt)
		}
		r.acc = r.acc<<8 | uint32(r.src[r.pos])
		r.pos++
		r.nbits += 8
	}
	r.nbits -= n
	return r.acc >> r.nbits & (1<<n - 1), nil
}
