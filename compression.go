package bindelta

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz/lzma"

	"github.com/OhMyDitzzy/go-bindelta/internal/tamp"
)

// Compression identifies the codec applied to each of a patch's three
// streams. The numeric values are wire constants stored in the patch
// header; changing them breaks format compatibility.
type Compression uint8

const (
	CompressionNone  Compression = 0
	CompressionZlib  Compression = 1
	CompressionLZMA  Compression = 2
	CompressionLZMA2 Compression = 3
	CompressionZstd  Compression = 4
	CompressionBZip2 Compression = 5
	CompressionTamp  Compression = 6
)

// String returns the human-readable name of a compression kind.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZlib:
		return "zlib"
	case CompressionLZMA:
		return "lzma"
	case CompressionLZMA2:
		return "lzma2"
	case CompressionZstd:
		return "zstd"
	case CompressionBZip2:
		return "bzip2"
	case CompressionTamp:
		return "tamp"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression parses a compression kind from its string
// representation.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "zlib":
		return CompressionZlib, nil
	case "lzma":
		return CompressionLZMA, nil
	case "lzma2":
		return CompressionLZMA2, nil
	case "zstd":
		return CompressionZstd, nil
	case "bzip2":
		return CompressionBZip2, nil
	case "tamp":
		return CompressionTamp, nil
	default:
		return 0, fmt.Errorf("%w: unknown compression kind %q", ErrConfig, name)
	}
}

func (c Compression) valid() bool {
	return c <= CompressionTamp
}

// zstdEncoder and zstdDecoder are reused across calls to avoid
// repeated initialization overhead. Both are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
	)
	if err != nil {
		panic("bindelta: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("bindelta: zstd decoder initialization failed: " + err.Error())
	}
}

// checkLevel validates the per-codec level knob. Zero always means the
// codec's default. The accepted ranges follow each library: zlib and
// bzip2 take 1-9, zstd takes 1-22, tamp interprets the level as its
// window size in bits (8-15). The remaining codecs have no level knob
// and reject non-zero values.
func checkLevel(kind Compression, level int) error {
	if level == 0 {
		return nil
	}
	switch kind {
	case CompressionZlib, CompressionBZip2:
		if level < 1 || level > 9 {
			return fmt.Errorf("%w: %s level %d out of range 1-9", ErrConfig, kind, level)
		}
	case CompressionZstd:
		if level < 1 || level > 22 {
			return fmt.Errorf("%w: zstd level %d out of range 1-22", ErrConfig, level)
		}
	case CompressionTamp:
		if level < tamp.MinWindowBits || level > tamp.MaxWindowBits {
			return fmt.Errorf("%w: tamp window %d out of range %d-%d",
				ErrConfig, level, tamp.MinWindowBits, tamp.MaxWindowBits)
		}
	default:
		return fmt.Errorf("%w: %s does not take a level", ErrConfig, kind)
	}
	return nil
}

// compress transforms data with the given codec. A zero level selects
// the codec's default. Compression never rejects well-formed input;
// the output may be larger than the input for incompressible data.
func compress(data []byte, kind Compression, level int) ([]byte, error) {
	switch kind {
	case CompressionNone:
		return data, nil

	case CompressionZlib:
		if level == 0 {
			level = zlib.DefaultCompression
		}
		var buf bytes.Buffer
		w, err := zlib.NewWriterLevel(&buf, level)
		if err != nil {
			return nil, fmt.Errorf("%w: zlib: %v", ErrCodec, err)
		}
		return drainWriter(&buf, w, data, "zlib")

	case CompressionLZMA:
		var buf bytes.Buffer
		w, err := lzma.NewWriter(&buf)
		if err != nil {
			return nil, fmt.Errorf("%w: lzma: %v", ErrCodec, err)
		}
		return drainWriter(&buf, w, data, "lzma")

	case CompressionLZMA2:
		var buf bytes.Buffer
		w, err := lzma.NewWriter2(&buf)
		if err != nil {
			return nil, fmt.Errorf("%w: lzma2: %v", ErrCodec, err)
		}
		return drainWriter(&buf, w, data, "lzma2")

	case CompressionZstd:
		if level == 0 {
			return zstdEncoder.EncodeAll(data, nil), nil
		}
		enc, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %v", ErrCodec, err)
		}
		out := enc.EncodeAll(data, nil)
		enc.Close()
		return out, nil

	case CompressionBZip2:
		if level == 0 {
			level = bzip2.DefaultCompression
		}
		var buf bytes.Buffer
		w, err := bzip2.NewWriter(&buf, &bzip2.WriterConfig{Level: level})
		if err != nil {
			return nil, fmt.Errorf("%w: bzip2: %v", ErrCodec, err)
		}
		return drainWriter(&buf, w, data, "bzip2")

	case CompressionTamp:
		if level == 0 {
			level = tamp.DefaultWindowBits
		}
		out, err := tamp.CompressWindow(data, level)
		if err != nil {
			return nil, fmt.Errorf("%w: tamp: %v", ErrCodec, err)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("%w: unsupported compression kind %d", ErrConfig, kind)
	}
}

// drainWriter pushes data through a compressing WriteCloser and
// returns the accumulated output.
func drainWriter(buf *bytes.Buffer, w io.WriteCloser, data []byte, name string) ([]byte, error) {
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCodec, name, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCodec, name, err)
	}
	return buf.Bytes(), nil
}

// decompress reverses compress for the given codec. When expectedLen
// is non-negative the plaintext length is verified against it and a
// mismatch reports ErrCodec; a negative expectedLen means the caller
// does not know the plaintext length.
func decompress(data []byte, kind Compression, expectedLen int) ([]byte, error) {
	var out []byte
	var err error

	switch kind {
	case CompressionNone:
		out = data

	case CompressionZlib:
		var r io.ReadCloser
		r, err = zlib.NewReader(bytes.NewReader(data))
		if err == nil {
			out, err = io.ReadAll(r)
			if cerr := r.Close(); err == nil {
				err = cerr
			}
		}

	case CompressionLZMA:
		var r *lzma.Reader
		r, err = lzma.NewReader(bytes.NewReader(data))
		if err == nil {
			out, err = io.ReadAll(r)
		}

	case CompressionLZMA2:
		var r *lzma.Reader2
		r, err = lzma.NewReader2(bytes.NewReader(data))
		if err == nil {
			out, err = io.ReadAll(r)
		}

	case CompressionZstd:
		out, err = zstdDecoder.DecodeAll(data, nil)

	case CompressionBZip2:
		var r *bzip2.Reader
		r, err = bzip2.NewReader(bytes.NewReader(data), nil)
		if err == nil {
			out, err = io.ReadAll(r)
			if cerr := r.Close(); err == nil {
				err = cerr
			}
		}

	case CompressionTamp:
		out, err = tamp.Decompress(data)

	default:
		return nil, fmt.Errorf("%w: unsupported compression kind %d", ErrCodec, kind)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCodec, kind, err)
	}
	if expectedLen >= 0 && len(out) != expectedLen {
		return nil, fmt.Errorf("%w: %s: decompressed %d bytes, expected %d",
			ErrCodec, kind, len(out), expectedLen)
	}
	return out, nil
}
