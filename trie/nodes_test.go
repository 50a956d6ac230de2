// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package trie

import "testing"

func TestDecodeKind(t *testing.T) {
	cases := []struct {
		first byte
		want  Kind
	}{
		{0b00000000, KindExtension},
		{0b01000000, KindLeaf},
		{0b10000000, KindBranch},
		{0b10001111, KindBranch},
	}
	for _, c := range cases {
		got, err := DecodeKind(c.first)
		if err != nil {
			t.Fatalf("decode_kind(%08b): %v", c.first, err)
		}
		if got != c.want {
			t.Fatalf("decode_kind(%08b) = %v, want %v", c.first, got, c.want)
		}
	}
	if _, err := DecodeKind(0b11000000); err == nil {
		t.Fatalf("expected error for reserved kind bits")
	}
}

func TestLeafRoundTrip(t *testing.T) {
	for length := 0; length <= MaxNibbleLength; length++ {
		key := make([]byte, 32)
		for i := range key {
			key[i] = byte(i*7 + 1)
		}
		path := NewNibblePath(key).SliceTo(length)
		value := []byte{0xde, 0xad, 0xbe, 0xef}

		encoded := EncodeLeaf(path, value)
		gotPath, gotValue, err := DecodeLeaf(encoded)
		if err != nil {
			t.Fatalf("length %d: decode: %v", length, err)
		}
		if !gotPath.Equal(path) {
			t.Fatalf("length %d: path mismatch", length)
		}
		if string(gotValue) != string(value) {
			t.Fatalf("length %d: value mismatch: got %x want %x", length, gotValue, value)
		}
	}
}

func TestExtensionRoundTrip(t *testing.T) {
	for length := 1; length <= MaxNibbleLength; length++ {
		key := make([]byte, 32)
		for i := range key {
			key[i] = byte(i*3 + 2)
		}
		path := NewNibblePath(key).SliceTo(length)
		child := NodeId(0x0123_4567_89AB_CDE0 & uint64(childIdMask))

		encoded := EncodeExtension(path, child)
		gotPath, gotChild, err := DecodeExtension(encoded)
		if err != nil {
			t.Fatalf("length %d: decode: %v", length, err)
		}
		if !gotPath.Equal(path) {
			t.Fatalf("length %d: path mismatch", length)
		}
		if gotChild != child {
			t.Fatalf("length %d: child mismatch: got %d want %d", length, gotChild, child)
		}
	}
}

func TestExtensionRejectsEmptyPath(t *testing.T) {
	empty := NewNibblePath(nil)
	if _, err := EncodeExtensionInto(make([]byte, 16), empty, 1); err == nil {
		t.Fatalf("expected error encoding a zero-length extension path")
	}
}

func TestBranchRoundTripSparse(t *testing.T) {
	children := []BranchChild{
		{Nibble: 3, Child: 10},
		{Nibble: 7, Child: 20},
		{Nibble: 1, Child: 30},
	}
	encoded, err := EncodeBranch(children)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeBranch(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if IsFullBranch(len(decoded)) {
		t.Fatalf("3-child branch should not be full")
	}
	for i, c := range children {
		if decoded[i] != c {
			t.Fatalf("record %d: got %+v, want %+v", i, decoded[i], c)
		}
	}
}

func TestBranchSparseToFullPreservesChildren(t *testing.T) {
	// 15 children (sparse), then grow to 16 (full) the way the engine's
	// branch case does, and confirm every child id survives the
	// transition.
	sparse := make([]BranchChild, 15)
	for i := range sparse {
		sparse[i] = BranchChild{Nibble: byte(i), Child: NodeId(100 + i)}
	}
	encodedSparse, err := EncodeBranch(sparse)
	if err != nil {
		t.Fatalf("encode sparse: %v", err)
	}
	decodedSparse, err := DecodeBranch(encodedSparse)
	if err != nil {
		t.Fatalf("decode sparse: %v", err)
	}
	if IsFullBranch(len(decodedSparse)) {
		t.Fatalf("15-child branch should not be full")
	}

	full := append(decodedSparse, BranchChild{Nibble: 15, Child: 999})
	encodedFull, err := EncodeBranch(full)
	if err != nil {
		t.Fatalf("encode full: %v", err)
	}
	decodedFull, err := DecodeBranch(encodedFull)
	if err != nil {
		t.Fatalf("decode full: %v", err)
	}
	if !IsFullBranch(len(decodedFull)) {
		t.Fatalf("16-child branch should be full")
	}
	for _, c := range full {
		got, ok := FindBranchChild(decodedFull, c.Nibble)
		if !ok || got != c.Child {
			t.Fatalf("nibble %d: got (%d,%v), want %d", c.Nibble, got, ok, c.Child)
		}
	}
}

func TestBranchRejectsOutOfRangeChildCount(t *testing.T) {
	if _, err := EncodeBranch([]BranchChild{{Nibble: 0, Child: 1}}); err == nil {
		t.Fatalf("expected error for a single-child branch")
	}
	seventeen := make([]BranchChild, 17)
	for i := range seventeen {
		seventeen[i] = BranchChild{Nibble: byte(i % 16), Child: NodeId(i + 1)}
	}
	if _, err := EncodeBranch(seventeen); err == nil {
		t.Fatalf("expected error for a 17-child branch")
	}
}
