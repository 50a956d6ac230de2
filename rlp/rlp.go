// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package rlp provides a minimal Recursive-Length Prefix encoder for the
// handful of item shapes the trie hasher needs: byte strings, 32-byte
// hashes, lists, and already-encoded fragments to be embedded verbatim.
//
// See https://ethereum.org/en/developers/docs/data-structures-and-encoding/rlp
// and Appendix B of https://ethereum.github.io/yellowpaper/paper.pdf.
package rlp

// Item is anything that can be RLP encoded by this package.
type Item interface {
	write(writer) writer
	getEncodedLength() int
}

// Encode serializes an item structure into a freshly allocated buffer.
func Encode(item Item) []byte {
	return EncodeInto(make([]byte, 0, 64), item)
}

// EncodeInto serializes item, appending to dst, and returns the result.
func EncodeInto(dst []byte, item Item) []byte {
	return []byte(item.write(writer(dst)))
}

type writer []byte

func (w writer) Write(data []byte) writer {
	return append(w, data...)
}

func (w writer) Put(c byte) writer {
	return append(w, c)
}

// String is a (possibly empty) byte string item.
type String struct {
	Str []byte
}

func (s String) write(w writer) writer {
	l := len(s.Str)
	if l == 1 && s.Str[0] < 0x80 {
		return w.Write(s.Str)
	}
	w = encodeLength(l, 0x80, w)
	return w.Write(s.Str)
}

func (s String) getEncodedLength() int {
	l := len(s.Str)
	if l == 1 && s.Str[0] < 0x80 {
		return 1
	}
	return l + lengthPrefixSize(l)
}

// Hash is a 32-byte string item, used for node references that have been
// hashed rather than inlined.
type Hash struct {
	Hash *[32]byte
}

func (h Hash) write(w writer) writer {
	w = encodeLength(32, 0x80, w)
	return w.Write(h.Hash[:])
}

func (h Hash) getEncodedLength() int {
	return 32 + 1
}

// List composes a sequence of items into a single list item.
type List struct {
	Items []Item
}

func (l List) write(w writer) writer {
	length := 0
	for _, item := range l.Items {
		length += item.getEncodedLength()
	}
	w = encodeLength(length, 0xc0, w)
	for _, item := range l.Items {
		w = item.write(w)
	}
	return w
}

func (l List) getEncodedLength() int {
	sum := 0
	for _, item := range l.Items {
		sum += item.getEncodedLength()
	}
	return sum + lengthPrefixSize(sum)
}

// Encoded embeds an already RLP-encoded fragment verbatim, without adding
// another string or list wrapper. This is how a short child node's RLP is
// inlined into its parent instead of being referenced by Keccak hash.
type Encoded struct {
	Data []byte
}

func (e Encoded) write(w writer) writer {
	return w.Write(e.Data)
}

func (e Encoded) getEncodedLength() int {
	return len(e.Data)
}

func encodeLength(length int, offset byte, w writer) writer {
	if length < 56 {
		return w.Put(offset + byte(length))
	}
	n := numBytes(uint64(length))
	w = w.Put(offset + 55 + n)
	for i := byte(0); i < n; i++ {
		w = w.Put(byte(length >> (8 * (n - i - 1))))
	}
	return w
}

func numBytes(value uint64) byte {
	if value == 0 {
		return 0
	}
	var res byte
	for ; value != 0; value >>= 8 {
		res++
	}
	return res
}

func lengthPrefixSize(length int) int {
	if length < 56 {
		return 1
	}
	return int(numBytes(uint64(length))) + 1
}
