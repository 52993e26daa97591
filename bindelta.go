// Package bindelta computes and applies compact binary deltas between
// two byte sequences.
//
// Diff finds the regions of new data that already exist in old data
// and encodes the difference as an edit script of Copy and Insert
// instructions, serialized into three independently compressed streams
// (control, lengths, literals). Apply replays the script against the
// old data to reconstruct the new data exactly:
//
//	patch, err := bindelta.Diff(old, new, bindelta.CompressionZstd)
//	...
//	restored, err := bindelta.Apply(old, patch)
//	// restored is byte-identical to new
//
// Patches are self-describing: the compression kind is recorded in the
// header and auto-detected by Apply. Diff and Apply are pure functions
// over their input buffers and may run concurrently without
// coordination.
package bindelta
