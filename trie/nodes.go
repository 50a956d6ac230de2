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
	"encoding/binary"
	"fmt"

	"golang.org/x/exp/slices"
)

// This file defines the on-disk encoding of the three node kinds that make
// up a Patricia tree: leaves, extensions and branches. Every node starts
// with a one-byte prefix whose top two bits select the kind; for branch
// nodes the low four bits carry (childCount-2), and the other bits are
// unused. Encoding and decoding are pure functions over byte spans,
// mirroring the node-as-tagged-variant shape used throughout this package.

// Kind identifies which of the three node variants a byte span encodes.
type Kind byte

const (
	KindExtension Kind = 0b00
	KindLeaf      Kind = 0b01
	KindBranch    Kind = 0b10
)

const (
	prefixKindShift = 6
	prefixKindMask  = 0b11000000
	branchCountMask = 0b00001111
	branchMinChild  = 2
	branchMaxChild  = 16
	childIdMask     = uint64(0x0FFF_FFFF_FFFF_FFFF)
	childRecordSize = 8
)

// DecodeKind extracts the node kind from a node's first byte.
func DecodeKind(first byte) (Kind, error) {
	k := Kind((first & prefixKindMask) >> prefixKindShift)
	switch k {
	case KindExtension, KindLeaf, KindBranch:
		return k, nil
	default:
		return 0, fmt.Errorf("%w: unknown node kind bits %02b", ErrCorruptNode, first>>prefixKindShift)
	}
}

// BranchChild is a single (nibble, child) record of a branch node, used
// both for in-memory manipulation and for the encode/decode boundary.
type BranchChild struct {
	Nibble byte
	Child  NodeId
}

// --- Leaf -------------------------------------------------------------

// EncodeLeafInto writes a leaf node (path, value) into dst and returns
// the written prefix of dst.
func EncodeLeafInto(dst []byte, path NibblePath, value []byte) ([]byte, error) {
	if len(dst) < 1 {
		return nil, fmt.Errorf("%w: destination too small for leaf", ErrCorruptNode)
	}
	dst[0] = byte(KindLeaf) << prefixKindShift
	tail, err := path.WriteTo(dst[1:])
	if err != nil {
		return nil, err
	}
	if len(tail) < len(value) {
		return nil, fmt.Errorf("%w: destination too small for leaf value", ErrCorruptNode)
	}
	copy(tail, value)
	used := len(dst) - len(tail) + len(value)
	return dst[:used], nil
}

// EncodeLeaf allocates a fresh buffer and encodes a leaf node into it.
func EncodeLeaf(path NibblePath, value []byte) []byte {
	dst := make([]byte, 1+1+path.packedByteLength()+len(value))
	written, err := EncodeLeafInto(dst, path, value)
	if err != nil {
		// dst was sized exactly for this encoding; only a programming error
		// could trigger this.
		panic(err)
	}
	return written
}

// DecodeLeaf decodes a leaf node's path and value from its full byte span
// (including the one-byte prefix).
func DecodeLeaf(node []byte) (path NibblePath, value []byte, err error) {
	if len(node) < 1 {
		return NibblePath{}, nil, fmt.Errorf("%w: empty leaf span", ErrCorruptNode)
	}
	path, rest, err := ReadFromNibblePath(node[1:])
	if err != nil {
		return NibblePath{}, nil, err
	}
	return path, rest, nil
}

// --- Extension ----------------------------------------------------------

// EncodeExtensionInto writes an extension node (path, child) into dst and
// returns the written prefix of dst. path.Length() must be >= 1.
func EncodeExtensionInto(dst []byte, path NibblePath, child NodeId) ([]byte, error) {
	if path.Length() < 1 {
		return nil, fmt.Errorf("%w: extension path must have length >= 1", ErrCorruptNode)
	}
	if len(dst) < 1 {
		return nil, fmt.Errorf("%w: destination too small for extension", ErrCorruptNode)
	}
	dst[0] = byte(KindExtension) << prefixKindShift
	tail, err := path.WriteTo(dst[1:])
	if err != nil {
		return nil, err
	}
	if len(tail) < 8 {
		return nil, fmt.Errorf("%w: destination too small for extension child id", ErrCorruptNode)
	}
	binary.LittleEndian.PutUint64(tail, uint64(child))
	used := len(dst) - len(tail) + 8
	return dst[:used], nil
}

// EncodeExtension allocates a fresh buffer and encodes an extension node.
func EncodeExtension(path NibblePath, child NodeId) []byte {
	dst := make([]byte, 1+1+path.packedByteLength()+8)
	written, err := EncodeExtensionInto(dst, path, child)
	if err != nil {
		panic(err)
	}
	return written
}

// DecodeExtension decodes an extension node's path and child id from its
// full byte span (including the one-byte prefix).
func DecodeExtension(node []byte) (path NibblePath, child NodeId, err error) {
	if len(node) < 1 {
		return NibblePath{}, 0, fmt.Errorf("%w: empty extension span", ErrCorruptNode)
	}
	path, rest, err := ReadFromNibblePath(node[1:])
	if err != nil {
		return NibblePath{}, 0, err
	}
	if len(rest) < 8 {
		return NibblePath{}, 0, fmt.Errorf("%w: truncated extension child id", ErrCorruptNode)
	}
	return path, NodeId(binary.LittleEndian.Uint64(rest[:8])), nil
}

// --- Branch -------------------------------------------------------------

// EncodeBranchInto writes a branch node into dst and returns the written
// prefix of dst. children must hold between 2 and 16 entries. If exactly
// 16 entries are given, the full fixed-offset layout is used (record i
// at byte 1+i*8, indexed by nibble); otherwise the sparse layout is used,
// writing records in the order given by children (the caller's insertion
// order).
func EncodeBranchInto(dst []byte, children []BranchChild) ([]byte, error) {
	count := len(children)
	if count < branchMinChild || count > branchMaxChild {
		return nil, fmt.Errorf("%w: branch child count %d out of range", ErrCorruptNode, count)
	}
	for _, c := range children {
		if uint64(c.Child)&^childIdMask != 0 {
			return nil, fmt.Errorf("%w: branch child id exceeds 60 bits", ErrCorruptNode)
		}
	}
	size := 1 + count*childRecordSize
	if len(dst) < size {
		return nil, fmt.Errorf("%w: destination too small for branch", ErrCorruptNode)
	}
	dst[0] = byte(KindBranch)<<prefixKindShift | byte(count-branchMinChild)&branchCountMask

	if count == branchMaxChild {
		for _, c := range children {
			record := uint64(c.Nibble)<<60 | (uint64(c.Child) & childIdMask)
			off := 1 + int(c.Nibble)*childRecordSize
			binary.LittleEndian.PutUint64(dst[off:off+childRecordSize], record)
		}
	} else {
		off := 1
		for _, c := range children {
			record := uint64(c.Nibble)<<60 | (uint64(c.Child) & childIdMask)
			binary.LittleEndian.PutUint64(dst[off:off+childRecordSize], record)
			off += childRecordSize
		}
	}
	return dst[:size], nil
}

// EncodeBranch allocates a fresh buffer and encodes a branch node.
func EncodeBranch(children []BranchChild) ([]byte, error) {
	dst := make([]byte, 1+len(children)*childRecordSize)
	return EncodeBranchInto(dst, children)
}

// DecodeBranch decodes a branch node's child records from its full byte
// span (including the one-byte prefix). The returned slice has exactly
// childCount entries; for the full layout, entries are returned indexed
// by nibble (ascending).
func DecodeBranch(node []byte) ([]BranchChild, error) {
	if len(node) < 1 {
		return nil, fmt.Errorf("%w: empty branch span", ErrCorruptNode)
	}
	count := int(node[0]&branchCountMask) + branchMinChild
	size := 1 + count*childRecordSize
	if len(node) < size {
		return nil, fmt.Errorf("%w: branch body shorter than declared child count", ErrCorruptNode)
	}
	children := make([]BranchChild, count)
	for i := 0; i < count; i++ {
		off := 1 + i*childRecordSize
		record := binary.LittleEndian.Uint64(node[off : off+childRecordSize])
		children[i] = BranchChild{
			Nibble: byte(record >> 60),
			Child:  NodeId(record & childIdMask),
		}
	}
	return children, nil
}

// IsFullBranch reports whether a branch with childCount children uses
// the fixed, nibble-indexed layout.
func IsFullBranch(childCount int) bool {
	return childCount == branchMaxChild
}

// FindBranchChild looks up the child for the given nibble among decoded
// branch children. It returns EmptyId and false if no such child exists.
func FindBranchChild(children []BranchChild, nibble byte) (NodeId, bool) {
	i := slices.IndexFunc(children, func(c BranchChild) bool { return c.Nibble == nibble })
	if i < 0 {
		return EmptyId, false
	}
	return children[i].Child, true
}
