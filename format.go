package bindelta

import (
	"encoding/binary"
	"fmt"
)

const (
	patchMagic    = "BDELTA"
	formatVersion = 1

	// magic(6) + version(2) + kind(1) + oldSize(8) + newSize(8) +
	// three compressed stream lengths(24).
	headerSize = 49
)

// Header is the fixed leading section of a patch. Sizes are plaintext
// byte counts for old and new data; the stream lengths are compressed
// sizes as stored on disk.
type Header struct {
	Version     uint16
	Compression Compression
	OldSize     uint64
	NewSize     uint64
	ControlLen  uint64
	CopyLenLen  uint64
	ExtraLen    uint64
}

func (h Header) appendTo(buf []byte) []byte {
	buf = append(buf, patchMagic...)
	buf = binary.BigEndian.AppendUint16(buf, h.Version)
	buf = append(buf, byte(h.Compression))
	buf = binary.BigEndian.AppendUint64(buf, h.OldSize)
	buf = binary.BigEndian.AppendUint64(buf, h.NewSize)
	buf = binary.BigEndian.AppendUint64(buf, h.ControlLen)
	buf = binary.BigEndian.AppendUint64(buf, h.CopyLenLen)
	buf = binary.BigEndian.AppendUint64(buf, h.ExtraLen)
	return buf
}

// ReadHeader parses and validates the fixed header of a patch without
// touching the compressed streams. It verifies the magic, the format
// version, the compression kind, and that the declared stream lengths
// exactly account for the rest of the patch.
func ReadHeader(patch []byte) (Header, error) {
	if len(patch) < headerSize {
		return Header{}, fmt.Errorf("%w: %d bytes is shorter than the %d byte header",
			ErrPatch, len(patch), headerSize)
	}
	if string(patch[:len(patchMagic)]) != patchMagic {
		return Header{}, fmt.Errorf("%w: bad magic", ErrPatch)
	}
	h := Header{
		Version:     binary.BigEndian.Uint16(patch[6:8]),
		Compression: Compression(patch[8]),
		OldSize:     binary.BigEndian.Uint64(patch[9:17]),
		NewSize:     binary.BigEndian.Uint64(patch[17:25]),
		ControlLen:  binary.BigEndian.Uint64(patch[25:33]),
		CopyLenLen:  binary.BigEndian.Uint64(patch[33:41]),
		ExtraLen:    binary.BigEndian.Uint64(patch[41:49]),
	}
	if h.Version != formatVersion {
		return Header{}, fmt.Errorf("%w: unsupported format version %d", ErrPatch, h.Version)
	}
	if !h.Compression.valid() {
		return Header{}, fmt.Errorf("%w: unknown compression kind %d", ErrPatch, uint8(h.Compression))
	}

	body := uint64(len(patch) - headerSize)
	// Each length is checked individually before summing so that
	// flipped high bits cannot wrap the sum back to a valid total.
	if h.ControlLen > body || h.CopyLenLen > body || h.ExtraLen > body {
		return Header{}, fmt.Errorf("%w: stream length exceeds patch size", ErrPatch)
	}
	if h.ControlLen+h.CopyLenLen+h.ExtraLen != body {
		return Header{}, fmt.Errorf("%w: stream lengths sum to %d, patch body has %d bytes",
			ErrPatch, h.ControlLen+h.CopyLenLen+h.ExtraLen, body)
	}
	return h, nil
}

// streams slices the three compressed stream segments out of a patch
// whose header has already been validated.
func (h Header) streams(patch []byte) (control, copyLen, extra []byte) {
	a := uint64(headerSize)
	b := a + h.ControlLen
	c := b + h.CopyLenLen
	d := c + h.ExtraLen
	return patch[a:b], patch[b:c], patch[c:d]
}
