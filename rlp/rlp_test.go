// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package rlp

import (
	"bytes"
	"testing"
)

func TestEncodeString(t *testing.T) {
	cases := []struct {
		input []byte
		want  []byte
	}{
		{nil, []byte{0x80}},
		{[]byte{0x00}, []byte{0x00}},
		{[]byte{0x7F}, []byte{0x7F}},
		{[]byte{0x80}, []byte{0x81, 0x80}},
		{[]byte("dog"), []byte{0x83, 'd', 'o', 'g'}},
		{bytes.Repeat([]byte{0xAA}, 55), append([]byte{0xB7}, bytes.Repeat([]byte{0xAA}, 55)...)},
		{bytes.Repeat([]byte{0xAA}, 56), append([]byte{0xB8, 56}, bytes.Repeat([]byte{0xAA}, 56)...)},
	}
	for _, c := range cases {
		got := Encode(String{Str: c.input})
		if !bytes.Equal(got, c.want) {
			t.Fatalf("encode(%x) = %x, want %x", c.input, got, c.want)
		}
	}
}

func TestEncodeList(t *testing.T) {
	got := Encode(List{Items: []Item{
		String{Str: []byte("cat")},
		String{Str: []byte("dog")},
	}})
	want := []byte{0xC8, 0x83, 'c', 'a', 't', 0x83, 'd', 'o', 'g'}
	if !bytes.Equal(got, want) {
		t.Fatalf("encode list = %x, want %x", got, want)
	}
}

func TestEncodeEmptyList(t *testing.T) {
	got := Encode(List{})
	if !bytes.Equal(got, []byte{0xC0}) {
		t.Fatalf("encode empty list = %x, want C0", got)
	}
}

func TestEncodeHash(t *testing.T) {
	var h [32]byte
	for i := range h {
		h[i] = byte(i)
	}
	got := Encode(Hash{Hash: &h})
	want := append([]byte{0x80 + 32}, h[:]...)
	if !bytes.Equal(got, want) {
		t.Fatalf("encode hash = %x, want %x", got, want)
	}
}

func TestEncodedFragmentIsEmbeddedVerbatim(t *testing.T) {
	inner := Encode(List{Items: []Item{String{Str: []byte{0x33}}, String{Str: []byte{0x05}}}})
	got := Encode(List{Items: []Item{Encoded{Data: inner}}})
	want := append([]byte{0xC0 + byte(len(inner))}, inner...)
	if !bytes.Equal(got, want) {
		t.Fatalf("embedded fragment = %x, want %x", got, want)
	}
}

func TestDecodeStringRoundTrip(t *testing.T) {
	inputs := [][]byte{
		nil,
		{0x00},
		{0x7F},
		{0x80},
		[]byte("hello world"),
		bytes.Repeat([]byte{0x42}, 56),
		bytes.Repeat([]byte{0x42}, 300),
	}
	for _, input := range inputs {
		decoded, err := DecodeString(Encode(String{Str: input}))
		if err != nil {
			t.Fatalf("decode(%x): %v", input, err)
		}
		if !bytes.Equal(decoded, input) {
			t.Fatalf("round trip mismatch for %x: got %x", input, decoded)
		}
	}
}

func TestDecodeListSplitsItems(t *testing.T) {
	encoded := Encode(List{Items: []Item{
		String{Str: []byte("cat")},
		String{Str: []byte("dog")},
		List{Items: []Item{String{Str: []byte("x")}}},
	}})
	items, err := DecodeList(encoded)
	if err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("item count = %d, want 3", len(items))
	}
	first, err := DecodeString(items[0])
	if err != nil || string(first) != "cat" {
		t.Fatalf("first item = %q, %v", first, err)
	}
	if !IsList(items[2]) {
		t.Fatalf("third item should be a list")
	}
	nested, err := DecodeList(items[2])
	if err != nil || len(nested) != 1 {
		t.Fatalf("nested list: %v, %d items", err, len(nested))
	}
}

func TestDecodeRejectsMalformedInput(t *testing.T) {
	cases := [][]byte{
		{},                 // empty
		{0x83, 'a', 'b'},   // truncated string
		{0xC3, 0x83, 'a'},  // truncated nested item
		{0xB8},             // missing long length
		{0x81, 'a', 'b'},   // trailing bytes
	}
	for _, c := range cases {
		if _, err := DecodeString(c); err == nil {
			if _, err := DecodeList(c); err == nil {
				t.Fatalf("expected decode of %x to fail", c)
			}
		}
	}
}
