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

import "fmt"

// emptyRootRLP is the RLP encoding of the empty string, the canonical
// representation of an empty trie's content.
var emptyRootRLP = []byte{0x80}

// EmptyRootHash is the root hash of a trie containing no entries.
var EmptyRootHash = keccak256(emptyRootRLP)

// Insert applies a single (path, value) write to the subtree rooted at
// currentId and returns the id of the resulting subtree's root. It
// implements the structural rewrites of the leaf, extension and branch
// cases: splitting a leaf, pushing an extension down, and growing a
// branch from sparse to full. Every intermediate node is published
// through store.TryUpdateOrAdd so that nodes already in the writing
// batch's frontier are updated in place instead of being copied.
func Insert(store *NodeStore, currentId NodeId, addedPath NibblePath, value []byte) (NodeId, error) {
	if currentId.IsEmpty() {
		return store.Write(EncodeLeaf(addedPath, value))
	}

	node, err := store.Read(currentId)
	if err != nil {
		return EmptyId, err
	}
	kind, err := DecodeKind(node[0])
	if err != nil {
		return EmptyId, err
	}

	switch kind {
	case KindLeaf:
		return insertIntoLeaf(store, currentId, node, addedPath, value)
	case KindExtension:
		return insertIntoExtension(store, currentId, node, addedPath, value)
	case KindBranch:
		return insertIntoBranch(store, currentId, node, addedPath, value)
	default:
		return EmptyId, fmt.Errorf("%w: unsupported node kind", ErrCorruptNode)
	}
}

func insertIntoLeaf(store *NodeStore, currentId NodeId, node []byte, addedPath NibblePath, value []byte) (NodeId, error) {
	existingPath, existingValue, err := DecodeLeaf(node)
	if err != nil {
		return EmptyId, err
	}
	// The decoded path and value alias node's backing bytes; copy them
	// out before issuing any further store writes that might recycle or
	// overwrite that slot.
	existingPath = existingPath.clone()
	existingValue = append([]byte(nil), existingValue...)

	d := addedPath.FirstDifferentNibble(existingPath)

	if d == addedPath.Length() {
		// Same key: overwrite the value, in place if the store permits.
		return store.TryUpdateOrAdd(currentId, EncodeLeaf(addedPath, value))
	}

	if d == 0 {
		// No shared prefix: a branch directly replaces the leaf. The
		// existing leaf is rewritten one nibble deeper, in place if
		// permitted; the new leaf is a fresh allocation.
		newLeafId, err := store.Write(EncodeLeaf(addedPath.SliceFrom(1), value))
		if err != nil {
			return EmptyId, err
		}
		existingLeafId, err := store.TryUpdateOrAdd(currentId, EncodeLeaf(existingPath.SliceFrom(1), existingValue))
		if err != nil {
			return EmptyId, err
		}
		branchBytes, err := EncodeBranch(orderedPair(addedPath.NibbleAt(0), newLeafId, existingPath.NibbleAt(0), existingLeafId))
		if err != nil {
			return EmptyId, err
		}
		return store.Write(branchBytes)
	}

	// d > 0: build bottom-up. Both leaves are new nodes; the extension
	// takes over the old leaf's id.
	newLeafId, err := store.Write(EncodeLeaf(addedPath.SliceFrom(d+1), value))
	if err != nil {
		return EmptyId, err
	}
	existingLeafId, err := store.Write(EncodeLeaf(existingPath.SliceFrom(d+1), existingValue))
	if err != nil {
		return EmptyId, err
	}
	branchBytes, err := EncodeBranch(orderedPair(addedPath.NibbleAt(d), newLeafId, existingPath.NibbleAt(d), existingLeafId))
	if err != nil {
		return EmptyId, err
	}
	branchId, err := store.Write(branchBytes)
	if err != nil {
		return EmptyId, err
	}
	extBytes := EncodeExtension(addedPath.SliceTo(d), branchId)
	return store.TryUpdateOrAdd(currentId, extBytes)
}

func insertIntoExtension(store *NodeStore, currentId NodeId, node []byte, addedPath NibblePath, value []byte) (NodeId, error) {
	extPath, childId, err := DecodeExtension(node)
	if err != nil {
		return EmptyId, err
	}
	extPath = extPath.clone()

	d := extPath.FirstDifferentNibble(addedPath)

	if d == extPath.Length() {
		newChildId, err := Insert(store, childId, addedPath.SliceFrom(d), value)
		if err != nil {
			return EmptyId, err
		}
		return store.TryUpdateOrAdd(currentId, EncodeExtension(extPath, newChildId))
	}

	// Split: push the former child down by d+1 nibbles and insert a new
	// leaf for the added key at the branch point.
	newLeafId, err := store.Write(EncodeLeaf(addedPath.SliceFrom(d+1), value))
	if err != nil {
		return EmptyId, err
	}

	var pushedId NodeId
	if extPath.Length() == d+1 {
		pushedId = childId
	} else {
		pushedId, err = store.Write(EncodeExtension(extPath.SliceFrom(d+1), childId))
		if err != nil {
			return EmptyId, err
		}
	}

	branchBytes, err := EncodeBranch(orderedPair(addedPath.NibbleAt(d), newLeafId, extPath.NibbleAt(d), pushedId))
	if err != nil {
		return EmptyId, err
	}

	if d == 0 {
		return store.TryUpdateOrAdd(currentId, branchBytes)
	}

	branchId, err := store.Write(branchBytes)
	if err != nil {
		return EmptyId, err
	}
	return store.TryUpdateOrAdd(currentId, EncodeExtension(extPath.SliceTo(d), branchId))
}

func insertIntoBranch(store *NodeStore, currentId NodeId, node []byte, addedPath NibblePath, value []byte) (NodeId, error) {
	n := addedPath.NibbleAt(0)
	children, err := DecodeBranch(node)
	if err != nil {
		return EmptyId, err
	}

	if IsFullBranch(len(children)) {
		newChildId, err := Insert(store, children[n].Child, addedPath.SliceFrom(1), value)
		if err != nil {
			return EmptyId, err
		}
		children[n].Child = newChildId
		newBytes, err := EncodeBranch(children)
		if err != nil {
			return EmptyId, err
		}
		return store.TryUpdateOrAdd(currentId, newBytes)
	}

	if existingChildId, found := FindBranchChild(children, n); found {
		newChildId, err := Insert(store, existingChildId, addedPath.SliceFrom(1), value)
		if err != nil {
			return EmptyId, err
		}
		if newChildId == existingChildId {
			return currentId, nil
		}
		for i := range children {
			if children[i].Nibble == n {
				children[i].Child = newChildId
			}
		}
	} else {
		newLeafId, err := store.Write(EncodeLeaf(addedPath.SliceFrom(1), value))
		if err != nil {
			return EmptyId, err
		}
		children = append(children, BranchChild{Nibble: n, Child: newLeafId})
	}

	newBytes, err := EncodeBranch(children)
	if err != nil {
		return EmptyId, err
	}
	return store.TryUpdateOrAdd(currentId, newBytes)
}

// orderedPair builds the two-child list for a freshly created branch,
// ordered by nibble so that branch encodings are deterministic.
func orderedPair(nibbleA byte, idA NodeId, nibbleB byte, idB NodeId) []BranchChild {
	if nibbleA <= nibbleB {
		return []BranchChild{{Nibble: nibbleA, Child: idA}, {Nibble: nibbleB, Child: idB}}
	}
	return []BranchChild{{Nibble: nibbleB, Child: idB}, {Nibble: nibbleA, Child: idA}}
}

// TryGet descends from rootId following path, returning the stored
// value at the matching leaf, or a miss if the key was never set (or
// the remaining path runs out before reaching a leaf).
func TryGet(store *NodeStore, rootId NodeId, path NibblePath) ([]byte, bool, error) {
	id := rootId
	for {
		if id.IsEmpty() {
			return nil, false, nil
		}
		node, err := store.Read(id)
		if err != nil {
			return nil, false, err
		}
		kind, err := DecodeKind(node[0])
		if err != nil {
			return nil, false, err
		}

		switch kind {
		case KindLeaf:
			leafPath, value, err := DecodeLeaf(node)
			if err != nil {
				return nil, false, err
			}
			if leafPath.Equal(path) {
				return append([]byte(nil), value...), true, nil
			}
			return nil, false, nil

		case KindBranch:
			if path.Length() == 0 {
				return nil, false, nil
			}
			children, err := DecodeBranch(node)
			if err != nil {
				return nil, false, err
			}
			n := path.NibbleAt(0)
			var childId NodeId
			if IsFullBranch(len(children)) {
				childId = children[n].Child
			} else {
				cid, found := FindBranchChild(children, n)
				if !found {
					return nil, false, nil
				}
				childId = cid
			}
			if childId.IsEmpty() {
				return nil, false, nil
			}
			id, path = childId, path.SliceFrom(1)

		case KindExtension:
			extPath, childId, err := DecodeExtension(node)
			if err != nil {
				return nil, false, err
			}
			d := extPath.FirstDifferentNibble(path)
			if d != extPath.Length() {
				return nil, false, nil
			}
			id, path = childId, path.SliceFrom(d)

		default:
			return nil, false, fmt.Errorf("%w: unsupported node kind", ErrCorruptNode)
		}
	}
}

// RootHash computes the Keccak-256 state root of the subtree rooted at
// id. Unlike interior nodes, the root is always hashed, even when its
// RLP encoding would otherwise be short enough to inline into a parent:
// there is no parent to inline it into.
func RootHash(store *NodeStore, id NodeId) ([32]byte, error) {
	if id.IsEmpty() {
		return EmptyRootHash, nil
	}
	ref, err := hashNode(store, id)
	if err != nil {
		return [32]byte{}, err
	}
	if ref.Kind == HasKeccak {
		return ref.Hash, nil
	}
	return keccak256(ref.Rlp), nil
}

// NodeRLP produces the full RLP encoding of the node addressed by id,
// recursively resolving children into inlined encodings or Keccak
// references. Unlike hashNode, the result is returned even when it is
// 32 bytes or longer; proof construction needs those long encodings
// verbatim.
func NodeRLP(store *NodeStore, id NodeId) ([]byte, error) {
	if id.IsEmpty() {
		return emptyRootRLP, nil
	}
	node, err := store.Read(id)
	if err != nil {
		return nil, err
	}
	kind, err := DecodeKind(node[0])
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindLeaf:
		path, value, err := DecodeLeaf(node)
		if err != nil {
			return nil, err
		}
		return rlpLeaf(path, value), nil

	case KindExtension:
		path, childId, err := DecodeExtension(node)
		if err != nil {
			return nil, err
		}
		path = path.clone()
		childRef, err := hashNode(store, childId)
		if err != nil {
			return nil, err
		}
		return rlpExtension(path, childRef), nil

	case KindBranch:
		children, err := DecodeBranch(node)
		if err != nil {
			return nil, err
		}
		var slots [16]*NodeRef
		for _, c := range children {
			ref, err := hashNode(store, c.Child)
			if err != nil {
				return nil, err
			}
			slots[c.Nibble] = &ref
		}
		return rlpBranch(slots), nil

	default:
		return nil, fmt.Errorf("%w: unsupported node kind", ErrCorruptNode)
	}
}

// hashNode computes the NodeRef (Keccak or inlined RLP) for the node
// addressed by id, recursively hashing any children it references.
func hashNode(store *NodeStore, id NodeId) (NodeRef, error) {
	if id.IsEmpty() {
		return NodeRef{Kind: HasRlp, Rlp: emptyRootRLP}, nil
	}
	encoded, err := NodeRLP(store, id)
	if err != nil {
		return NodeRef{}, err
	}
	return hashOrInline(encoded), nil
}
