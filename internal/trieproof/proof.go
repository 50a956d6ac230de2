// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package trieproof builds and checks Merkle proofs over a Patricia
// tree. A proof is the sequence of RLP-encoded nodes a reader visits
// descending from the root towards a key; together with the root hash
// it lets a party without access to the node store confirm a key's
// value, or its absence.
package trieproof

import (
	"bytes"
	"errors"
	"fmt"

	"golang.org/x/crypto/sha3"

	"github.com/byksy/paprika/rlp"
	"github.com/byksy/paprika/trie"
)

// ErrInvalidProof is reported when a proof's nodes do not hash to the
// references that claim them, or a node's encoding cannot be decoded.
var ErrInvalidProof = errors.New("trieproof: invalid proof")

// Proof is the list of RLP-encoded nodes on the path from a root to a
// key, in root-to-leaf order. Only nodes referenced by their Keccak
// hash appear as separate entries; nodes short enough to be inlined
// travel inside their parent's encoding. The root node is always the
// first entry.
type Proof struct {
	Nodes [][]byte
}

// Collect walks the tree below root along key and gathers the proof
// for it. Collecting a proof for an absent key is legal; the resulting
// proof shows the absence.
func Collect(store *trie.NodeStore, root trie.NodeId, key [trie.KeyLength]byte) (Proof, error) {
	proof := Proof{}
	id := root
	path := trie.NewNibblePath(key[:])

	for !id.IsEmpty() {
		encoded, err := trie.NodeRLP(store, id)
		if err != nil {
			return Proof{}, err
		}
		if id == root || len(encoded) >= 32 {
			proof.Nodes = append(proof.Nodes, encoded)
		}

		node, err := store.Read(id)
		if err != nil {
			return Proof{}, err
		}
		kind, err := trie.DecodeKind(node[0])
		if err != nil {
			return Proof{}, err
		}

		switch kind {
		case trie.KindLeaf:
			return proof, nil

		case trie.KindBranch:
			if path.Length() == 0 {
				return proof, nil
			}
			children, err := trie.DecodeBranch(node)
			if err != nil {
				return Proof{}, err
			}
			child, found := trie.FindBranchChild(children, path.NibbleAt(0))
			if !found {
				return proof, nil
			}
			id, path = child, path.SliceFrom(1)

		case trie.KindExtension:
			extPath, child, err := trie.DecodeExtension(node)
			if err != nil {
				return Proof{}, err
			}
			d := extPath.FirstDifferentNibble(path)
			if d != extPath.Length() {
				return proof, nil
			}
			id, path = child, path.SliceFrom(d)
		}
	}
	return proof, nil
}

// Verify checks proof against rootHash and key without any access to a
// node store. It returns the proven value, or found == false when the
// proof shows the key's absence. A proof that does not connect to
// rootHash, or whose nodes cannot be decoded, yields ErrInvalidProof.
func Verify(rootHash [32]byte, key [trie.KeyLength]byte, proof Proof) (value []byte, found bool, err error) {
	if len(proof.Nodes) == 0 {
		if keccak256([]byte{0x80}) == rootHash {
			// An empty proof is the legitimate absence proof of the
			// empty tree.
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: empty proof", ErrInvalidProof)
	}

	remaining := keyNibbles(key)
	wantHash := rootHash
	next := 0

	for {
		if next >= len(proof.Nodes) {
			return nil, false, fmt.Errorf("%w: proof ends before the key path does", ErrInvalidProof)
		}
		node := proof.Nodes[next]
		next++
		if keccak256(node) != wantHash {
			return nil, false, fmt.Errorf("%w: node %d does not match its reference", ErrInvalidProof, next-1)
		}

		// Follow inlined children within this node until the walk either
		// terminates or escapes to the next hashed node of the proof.
		for {
			var ref []byte
			ref, value, found, remaining, err = step(node, remaining)
			if err != nil || ref == nil {
				return value, found, err
			}
			if rlp.IsList(ref) {
				// A short child is embedded verbatim; keep walking
				// inside this proof entry.
				node = ref
				continue
			}
			content, err := rlp.DecodeString(ref)
			if err != nil {
				return nil, false, fmt.Errorf("%w: %v", ErrInvalidProof, err)
			}
			if len(content) != 32 {
				return nil, false, fmt.Errorf("%w: child reference of %d bytes", ErrInvalidProof, len(content))
			}
			copy(wantHash[:], content)
			break
		}
	}
}

// step interprets one RLP node against the remaining key nibbles. It
// either terminates the walk (ref == nil, with value/found set) or
// yields the raw RLP reference of the child to continue into.
func step(node []byte, remaining []byte) (ref []byte, value []byte, found bool, rest []byte, err error) {
	items, err := rlp.DecodeList(node)
	if err != nil {
		return nil, nil, false, nil, fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}

	switch len(items) {
	case 2:
		encodedPath, err := rlp.DecodeString(items[0])
		if err != nil {
			return nil, nil, false, nil, fmt.Errorf("%w: %v", ErrInvalidProof, err)
		}
		nibbles, leaf, err := decodeHexPrefix(encodedPath)
		if err != nil {
			return nil, nil, false, nil, err
		}
		if leaf {
			if !bytes.Equal(nibbles, remaining) {
				return nil, nil, false, nil, nil
			}
			v, err := rlp.DecodeString(items[1])
			if err != nil {
				return nil, nil, false, nil, fmt.Errorf("%w: %v", ErrInvalidProof, err)
			}
			return nil, v, true, nil, nil
		}
		if len(remaining) < len(nibbles) || !bytes.Equal(remaining[:len(nibbles)], nibbles) {
			return nil, nil, false, nil, nil
		}
		return items[1], nil, false, remaining[len(nibbles):], nil

	case 17:
		if len(remaining) == 0 {
			// This tree stores values only at leaves.
			return nil, nil, false, nil, nil
		}
		child := items[remaining[0]]
		if !rlp.IsList(child) {
			content, err := rlp.DecodeString(child)
			if err != nil {
				return nil, nil, false, nil, fmt.Errorf("%w: %v", ErrInvalidProof, err)
			}
			if len(content) == 0 {
				return nil, nil, false, nil, nil
			}
		}
		return child, nil, false, remaining[1:], nil

	default:
		return nil, nil, false, nil, fmt.Errorf("%w: node with %d items", ErrInvalidProof, len(items))
	}
}

// decodeHexPrefix reverses the Ethereum hex-prefix rule, recovering the
// nibble sequence and the leaf flag.
func decodeHexPrefix(encoded []byte) (nibbles []byte, leaf bool, err error) {
	if len(encoded) == 0 {
		return nil, false, fmt.Errorf("%w: empty hex-prefix path", ErrInvalidProof)
	}
	leaf = encoded[0]&0x20 != 0
	if encoded[0]&0x10 != 0 {
		nibbles = append(nibbles, encoded[0]&0x0F)
	}
	for _, b := range encoded[1:] {
		nibbles = append(nibbles, b>>4, b&0x0F)
	}
	return nibbles, leaf, nil
}

func keyNibbles(key [trie.KeyLength]byte) []byte {
	nibbles := make([]byte, 0, 2*len(key))
	for _, b := range key {
		nibbles = append(nibbles, b>>4, b&0x0F)
	}
	return nibbles
}

func keccak256(data []byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
