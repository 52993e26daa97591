package bindelta

import (
	"bytes"
	"fmt"
	"testing"
)

func TestRecompressAllPermutations(t *testing.T) {
	old := []byte("The quick brown fox jumped over the lazy dog.")
	new := []byte("The quick black box jumped over the lazy hog.")

	for _, from := range allCompressions {
		for _, to := range allCompressions {
			t.Run(fmt.Sprintf("%s_to_%s", from, to), func(t *testing.T) {
				patch := mustDiff(t, old, new, from)

				recompressed, err := Recompress(patch, to)
				if err != nil {
					t.Fatalf("Recompress failed: %v", err)
				}

				h, err := ReadHeader(recompressed)
				if err != nil {
					t.Fatalf("ReadHeader on recompressed patch failed: %v", err)
				}
				if h.Compression != to {
					t.Errorf("recompressed kind = %v, want %v", h.Compression, to)
				}
				if h.OldSize != uint64(len(old)) || h.NewSize != uint64(len(new)) {
					t.Errorf("recompress changed sizes: %+v", h)
				}

				got := mustApply(t, old, recompressed)
				if !bytes.Equal(got, new) {
					t.Errorf("apply after recompress %s to %s produced wrong bytes", from, to)
				}
			})
		}
	}
}

func TestRecompressSameKindEquivalent(t *testing.T) {
	old := bytes.Repeat([]byte("recompress to the same kind "), 50)
	new := bytes.Repeat([]byte("recompress into the same kind "), 50)

	patch := mustDiff(t, old, new, CompressionZstd)
	same, err := Recompress(patch, CompressionZstd)
	if err != nil {
		t.Fatalf("Recompress failed: %v", err)
	}
	if !bytes.Equal(same, patch) {
		t.Error("recompressing under the original kind should reproduce the patch")
	}
}

func TestRecompressRejects(t *testing.T) {
	patch := mustDiff(t, []byte("old"), []byte("new"), CompressionNone)

	if _, err := Recompress(patch, Compression(42)); !isKind(err, ErrConfig) {
		t.Errorf("Recompress with unknown kind = %v, want ErrConfig", err)
	}
	if _, err := RecompressOptions(patch, Options{Compression: CompressionZstd, Level: 40}); !isKind(err, ErrConfig) {
		t.Errorf("RecompressOptions with bad level = %v, want ErrConfig", err)
	}
	if _, err := Recompress([]byte("not a patch at all"), CompressionNone); !isKind(err, ErrPatch) {
		t.Errorf("Recompress on garbage = %v, want ErrPatch", err)
	}
}
