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

// NodeId is an opaque 64-bit handle into a NodeStore. The value 0 is
// reserved to mean "no node" / empty tree. Ids are content-location
// tags, not hashes: two structurally identical subtrees may be assigned
// distinct ids.
//
// The upper 4 bits of a NodeId are reserved: branch records pack a
// nibble into those bits (see EncodeBranchInto), so an id handed to a store
// must never use more than 60 bits. MaxNodeId below is the resulting
// allocation ceiling.
type NodeId uint64

// EmptyId is the NodeId of the empty tree / missing child.
const EmptyId NodeId = 0

// MaxNodeId is the largest id a store may hand out. Branch records
// reserve the top 4 bits of every id for a nibble, so ids must fit in
// 60 bits.
const MaxNodeId NodeId = (1 << 60) - 1

// IsEmpty reports whether id addresses the empty node.
func (id NodeId) IsEmpty() bool {
	return id == EmptyId
}
