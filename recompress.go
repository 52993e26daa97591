package bindelta

import "fmt"

// Recompress re-encodes an existing patch under a different
// compression kind without touching the edit script. The instruction
// streams are decompressed with the kind recorded in the patch and
// compressed again with the requested one; applying the result is
// byte-for-byte equivalent to applying the original.
func Recompress(patch []byte, compression Compression) ([]byte, error) {
	return RecompressOptions(patch, Options{Compression: compression})
}

// RecompressOptions is Recompress with a codec level knob.
func RecompressOptions(patch []byte, opts Options) ([]byte, error) {
	if !opts.Compression.valid() {
		return nil, fmt.Errorf("%w: unknown compression kind %d", ErrConfig, uint8(opts.Compression))
	}
	if err := checkLevel(opts.Compression, opts.Level); err != nil {
		return nil, err
	}

	h, err := ReadHeader(patch)
	if err != nil {
		return nil, err
	}
	rawControl, rawCopyLen, rawExtra := h.streams(patch)

	var script streamSet
	if script.control, err = decompress(rawControl, h.Compression, -1); err != nil {
		return nil, err
	}
	if script.copyLen, err = decompress(rawCopyLen, h.Compression, -1); err != nil {
		return nil, err
	}
	if script.extra, err = decompress(rawExtra, h.Compression, -1); err != nil {
		return nil, err
	}

	return assemble(script, opts, h.OldSize, h.NewSize)
}
