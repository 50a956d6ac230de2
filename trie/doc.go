// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package trie implements an embedded Merkle-Patricia storage engine
// for 32-byte keys. Nodes (leaves, extensions, branches) are encoded
// into byte spans and held in a NodeStore layered over a page-addressed
// backing medium; a single-writer Batch collects changes under
// copy-on-write gating, and a Keccak-256 state root can be produced on
// demand from any published root id.
//
// The three cooperating layers:
//
//   - NibblePath and the node codec (nibble.go, nodes.go) define the
//     zero-copy path views and the on-disk node layout.
//   - NodeStore (store.go) adds allocation, gated in-place update and a
//     per-length free-slot cache over a BackingStore.
//   - Engine, Batch and the insert/lookup/hashing algorithms (batch.go,
//     engine.go, hexprefix.go) maintain the tree and its Merkle root.
package trie
