package bindelta

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"testing"
)

func mustDiff(t testing.TB, old, new []byte, kind Compression) []byte {
	t.Helper()
	patch, err := Diff(old, new, kind)
	if err != nil {
		t.Fatalf("Diff failed: %v", err)
	}
	return patch
}

func mustApply(t testing.TB, old, patch []byte) []byte {
	t.Helper()
	out, err := Apply(old, patch)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	return out
}

func roundTrip(t *testing.T, old, new []byte, kind Compression) []byte {
	t.Helper()
	patch := mustDiff(t, old, new, kind)
	got := mustApply(t, old, patch)
	if !bytes.Equal(got, new) {
		t.Errorf("roundtrip mismatch: got %d bytes, want %d", len(got), len(new))
	}
	return patch
}

func TestRoundTripAllCompressions(t *testing.T) {
	old := bytes.Repeat([]byte("The quick brown fox jumped over the lazy dog. "), 100)
	new := bytes.Repeat([]byte("The quick black box jumped over the lazy hog. "), 100)

	for _, kind := range allCompressions {
		t.Run(kind.String(), func(t *testing.T) {
			roundTrip(t, old, new, kind)
		})
	}
}

func TestRoundTripVariousInputs(t *testing.T) {
	binary := make([]byte, 256)
	for i := range binary {
		binary[i] = byte(i)
	}
	shifted := append(binary[1:255:255], 0x00, 0xff)

	tests := []struct {
		name     string
		old, new []byte
	}{
		{"single byte change", []byte("a"), []byte("b")},
		{"identical", []byte("hello"), []byte("hello")},
		{"complete change", []byte("hello"), []byte("world")},
		{"repetitive", bytes.Repeat([]byte("A"), 100), bytes.Repeat([]byte("B"), 100)},
		{"reversed", []byte("12345"), []byte("54321")},
		{"binary shift", binary, shifted},
		{"grow", []byte("short"), bytes.Repeat([]byte("short and long "), 50)},
		{"shrink", bytes.Repeat([]byte("short and long "), 50), []byte("short")},
		{"null bytes", []byte("a\x00b\x00c"), []byte("a\x00d\x00c")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roundTrip(t, tt.old, tt.new, CompressionNone)
			roundTrip(t, tt.old, tt.new, CompressionZstd)
		})
	}
}

func TestRoundTripEmptyInputs(t *testing.T) {
	new := []byte("built entirely from inserts")
	for _, kind := range allCompressions {
		t.Run(kind.String(), func(t *testing.T) {
			roundTrip(t, nil, nil, kind)
			roundTrip(t, nil, new, kind)
			roundTrip(t, new, nil, kind)
		})
	}
}

func TestIdentityDiffIsSmall(t *testing.T) {
	data := bytes.Repeat([]byte("identity diff should be dominated by the header "), 1000)
	patch := roundTrip(t, data, data, CompressionNone)

	// One Copy instruction: header plus a handful of varint bytes.
	if len(patch) > headerSize+16 {
		t.Errorf("identity patch is %d bytes, want near the %d byte header", len(patch), headerSize)
	}
}

func TestDiffDeterministic(t *testing.T) {
	old := bytes.Repeat([]byte("determinism "), 500)
	new := bytes.Repeat([]byte("determinate "), 500)
	for _, kind := range allCompressions {
		t.Run(kind.String(), func(t *testing.T) {
			a := mustDiff(t, old, new, kind)
			b := mustDiff(t, old, new, kind)
			if !bytes.Equal(a, b) {
				t.Error("same inputs produced different patch bytes")
			}
		})
	}
}

func TestDiffUnknownCompression(t *testing.T) {
	_, err := Diff([]byte("old"), []byte("new"), Compression(42))
	if !isKind(err, ErrConfig) {
		t.Errorf("Diff with unknown kind = %v, want ErrConfig", err)
	}
}

func TestDiffInvalidLevel(t *testing.T) {
	_, err := DiffOptions([]byte("old"), []byte("new"), Options{Compression: CompressionZlib, Level: 99})
	if !isKind(err, ErrConfig) {
		t.Errorf("DiffOptions with bad level = %v, want ErrConfig", err)
	}
}

func TestDiffScenarioInstructions(t *testing.T) {
	old := []byte("ABCDEFGH")
	new := []byte("ABCXYZFGH")

	script, err := buildScript(new, findMatches(old, new))
	if err != nil {
		t.Fatalf("buildScript failed: %v", err)
	}

	// Copy("ABC"), Insert("XYZ"), Copy("FGH").
	wantTags := []byte{tagCopy, tagInsert, tagCopy}
	var gotTags []byte
	for i := 0; i < len(script.control); i++ {
		gotTags = append(gotTags, script.control[i])
		if script.control[i] == tagCopy {
			i++ // skip the single-byte source delta
		}
	}
	if !bytes.Equal(gotTags, wantTags) {
		t.Errorf("instruction tags = %v, want %v", gotTags, wantTags)
	}
	if !bytes.Equal(script.extra, []byte("XYZ")) {
		t.Errorf("literal stream = %q, want %q", script.extra, "XYZ")
	}

	roundTrip(t, old, new, CompressionNone)
}

func TestSparseChangePatchIsSmall(t *testing.T) {
	if testing.Short() {
		t.Skip("multi-megabyte diff")
	}
	old := make([]byte, 8<<20)
	rand.Read(old)
	new := append([]byte(nil), old...)
	for i := 0; i < 10; i++ {
		new[4<<20+i] ^= 0xff
	}

	for _, kind := range allCompressions {
		t.Run(kind.String(), func(t *testing.T) {
			patch := roundTrip(t, old, new, kind)
			if len(patch) > len(new)/100 {
				t.Errorf("patch is %d bytes for a 10 byte change in %d bytes", len(patch), len(new))
			}
		})
	}
}

func TestDiffConcurrent(t *testing.T) {
	old := bytes.Repeat([]byte("concurrent calls share no state "), 200)
	new := bytes.Repeat([]byte("concurrent calls share no mutable state "), 200)

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			patch, err := Diff(old, new, CompressionZstd)
			if err == nil {
				var got []byte
				got, err = Apply(old, patch)
				if err == nil && !bytes.Equal(got, new) {
					err = fmt.Errorf("roundtrip mismatch")
				}
			}
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		if err := <-done; err != nil {
			t.Errorf("concurrent diff/apply failed: %v", err)
		}
	}
}

func BenchmarkDiff(b *testing.B) {
	old := make([]byte, 1<<20)
	rand.Read(old)
	new := append([]byte(nil), old...)
	copy(new[1<<19:], []byte("a small edit in the middle"))

	b.SetBytes(int64(len(new)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Diff(old, new, CompressionNone)
	}
}

func BenchmarkApply(b *testing.B) {
	old := make([]byte, 1<<20)
	rand.Read(old)
	new := append([]byte(nil), old...)
	copy(new[1<<19:], []byte("a small edit in the middle"))
	patch, err := Diff(old, new, CompressionNone)
	if err != nil {
		b.Fatal(err)
	}

	b.SetBytes(int64(len(new)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Apply(old, patch)
	}
}
