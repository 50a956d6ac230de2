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

import (
	"sync"

	"golang.org/x/crypto/sha3"

	"github.com/byksy/paprika/rlp"
)

// This file implements the Merkle/RLP encoding used exclusively for
// hashing: the hex-prefix path encoding of the Ethereum yellow paper and
// the tie-break between inlining a node's RLP and referencing it by its
// Keccak-256 hash. Nothing here touches the on-disk layout in nodes.go;
// that encoding is for storage, this one is for hashing.

// Discriminant tells a caller whether a computed node reference is a
// 32-byte Keccak hash or an inlined, short RLP encoding.
type Discriminant int

const (
	HasKeccak Discriminant = iota
	HasRlp
)

// NodeRef is the result of hashing a single node: either its Keccak-256
// hash, or its RLP encoding when that encoding is shorter than 32 bytes.
type NodeRef struct {
	Kind Discriminant
	Hash [32]byte // valid when Kind == HasKeccak
	Rlp  []byte   // valid when Kind == HasRlp, len(Rlp) < 32
}

// rlpItem returns the RLP item this reference contributes to a parent's
// encoding: a 32-byte hash string, or the raw RLP bytes embedded verbatim.
func (r NodeRef) rlpItem() rlp.Item {
	if r.Kind == HasKeccak {
		h := r.Hash
		return rlp.Hash{Hash: &h}
	}
	return rlp.Encoded{Data: r.Rlp}
}

var keccakPool = sync.Pool{New: func() any { return sha3.NewLegacyKeccak256() }}

func keccak256(data []byte) [32]byte {
	h := keccakPool.Get().(keccakState)
	h.Reset()
	h.Write(data)
	var out [32]byte
	h.Read(out[:])
	keccakPool.Put(h)
	return out
}

type keccakState interface {
	Reset()
	Write([]byte) (int, error)
	Read([]byte) (int, error)
}

// hashOrInline applies the 31-byte tie-break: encodings of 32 bytes or
// more are referenced by their Keccak-256 hash; shorter encodings are
// kept inline as raw RLP.
func hashOrInline(encoded []byte) NodeRef {
	if len(encoded) >= 32 {
		return NodeRef{Kind: HasKeccak, Hash: keccak256(encoded)}
	}
	cp := make([]byte, len(encoded))
	copy(cp, encoded)
	return NodeRef{Kind: HasRlp, Rlp: cp}
}

// hexPrefix applies the Ethereum hex-prefix rule to path: the first byte
// carries a leaf/extension flag and an odd-length flag; for odd-length
// paths it also packs the first nibble into its low half.
func hexPrefix(path NibblePath, leaf bool) []byte {
	n := path.Length()
	odd := n%2 == 1
	out := make([]byte, n/2+1)

	first := byte(0)
	if leaf {
		first |= 0x20
	}
	idx := 0
	if odd {
		first |= 0x10
		first |= path.NibbleAt(0)
		idx = 1
	}
	out[0] = first

	for i := idx; i < n; i += 2 {
		hi := path.NibbleAt(i)
		var lo byte
		if i+1 < n {
			lo = path.NibbleAt(i + 1)
		}
		out[1+(i-idx)/2] = hi<<4 | lo
	}
	return out
}

// rlpLeaf produces the RLP encoding of a leaf node: RLP([hex-prefix(
// path, true), value]).
func rlpLeaf(path NibblePath, value []byte) []byte {
	items := []rlp.Item{
		rlp.String{Str: hexPrefix(path, true)},
		rlp.String{Str: value},
	}
	return rlp.Encode(rlp.List{Items: items})
}

// hashLeaf computes the NodeRef for a leaf node.
func hashLeaf(path NibblePath, value []byte) NodeRef {
	return hashOrInline(rlpLeaf(path, value))
}

// rlpExtension produces the RLP encoding of an extension node: RLP([hex-
// prefix(path, false), childRef]).
func rlpExtension(path NibblePath, child NodeRef) []byte {
	items := []rlp.Item{
		rlp.String{Str: hexPrefix(path, false)},
		child.rlpItem(),
	}
	return rlp.Encode(rlp.List{Items: items})
}

// hashExtension computes the NodeRef for an extension node.
func hashExtension(path NibblePath, child NodeRef) NodeRef {
	return hashOrInline(rlpExtension(path, child))
}

// emptySlot is the RLP encoding of a null branch child or value.
var emptySlot = rlp.String{}

// rlpBranch produces the RLP encoding of a branch node: a 17-element
// list of 16 child slots (indexed by nibble; empty slots encode as 0x80)
// followed by the empty value (branches never store values in this
// engine).
func rlpBranch(children [16]*NodeRef) []byte {
	items := make([]rlp.Item, 17)
	for i := 0; i < 16; i++ {
		if children[i] == nil {
			items[i] = emptySlot
		} else {
			items[i] = children[i].rlpItem()
		}
	}
	items[16] = emptySlot
	return rlp.Encode(rlp.List{Items: items})
}

// hashBranch computes the NodeRef for a branch node.
func hashBranch(children [16]*NodeRef) NodeRef {
	return hashOrInline(rlpBranch(children))
}
