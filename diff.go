package bindelta

import "fmt"

// Options configures patch creation.
type Options struct {
	// Compression selects the codec applied to each of the three
	// instruction streams.
	Compression Compression

	// Level is the codec-specific effort knob; zero selects the
	// codec's default. zlib and bzip2 accept 1-9, zstd 1-22, tamp
	// interprets it as window bits (8-15). none, lzma and lzma2 take
	// no level.
	Level int
}

// Diff computes a patch that transforms old into new. The patch is
// self-describing: Apply reads the compression kind back out of it.
// For fixed inputs and kind the output bytes are identical across
// calls.
func Diff(old, new []byte, compression Compression) ([]byte, error) {
	return DiffOptions(old, new, Options{Compression: compression})
}

// DiffOptions is Diff with a codec level knob.
func DiffOptions(old, new []byte, opts Options) ([]byte, error) {
	if !opts.Compression.valid() {
		return nil, fmt.Errorf("%w: unknown compression kind %d", ErrConfig, uint8(opts.Compression))
	}
	if err := checkLevel(opts.Compression, opts.Level); err != nil {
		return nil, err
	}

	script, err := buildScript(new, findMatches(old, new))
	if err != nil {
		return nil, err
	}
	return assemble(script, opts, uint64(len(old)), uint64(len(new)))
}

// assemble compresses the three streams and prepends the header.
func assemble(script streamSet, opts Options, oldSize, newSize uint64) ([]byte, error) {
	control, err := compress(script.control, opts.Compression, opts.Level)
	if err != nil {
		return nil, err
	}
	copyLen, err := compress(script.copyLen, opts.Compression, opts.Level)
	if err != nil {
		return nil, err
	}
	extra, err := compress(script.extra, opts.Compression, opts.Level)
	if err != nil {
		return nil, err
	}

	h := Header{
		Version:     formatVersion,
		Compression: opts.Compression,
		OldSize:     oldSize,
		NewSize:     newSize,
		ControlLen:  uint64(len(control)),
		CopyLenLen:  uint64(len(copyLen)),
		ExtraLen:    uint64(len(extra)),
	}
	patch := make([]byte, 0, headerSize+len(control)+len(copyLen)+len(extra))
	patch = h.appendTo(patch)
	patch = append(patch, control...)
	patch = append(patch, copyLen...)
	patch = append(patch, extra...)
	return patch, nil
}
