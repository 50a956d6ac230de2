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

//go:generate mockgen -source backing.go -destination backing_mocks.go -package trie

// BackingStore is the minimal page-addressed medium the NodeStore builds
// on. Its implementation (memory mapping, msync/fsync, history-depth and
// abandoned-page GC across historical batches) lives outside this
// package; see package pagestore for one concrete implementation.
//
// Write must be stable: the returned id continues to resolve for the
// store's lifetime, until Free is called on it. The payload length of a
// node is recoverable from len(Read(id)).
type BackingStore interface {
	// Read returns a byte slice view of the node payload addressed by id.
	// The slice is valid only until the next Write/Update/Free call on
	// this store; callers must finish inspecting it, or copy what they
	// need, before issuing further mutations.
	Read(id NodeId) ([]byte, error)

	// Write allocates a new node, copies bytes into it, and returns its
	// id. Returns ErrOutOfSpace if no id is available.
	Write(bytes []byte) (NodeId, error)

	// Update overwrites the payload of an existing node in place and
	// re-declares its length, so that a later Read(id) returns exactly
	// len(bytes) bytes. len(bytes) must not exceed the node's current
	// payload length; the id stays unchanged.
	Update(id NodeId, bytes []byte) error

	// Free returns the node's slot to the backing allocator. It does not
	// interact with the NodeStore's per-length slot cache.
	Free(id NodeId) error

	// NextId is a monotonically increasing allocation counter: no id
	// handed out by a later Write call is below it.
	NextId() NodeId

	// FlushFrom forces durability of every id allocated in (prevId,
	// NextId()].
	FlushFrom(prevId NodeId) error

	// IsSameFile reports whether a and b were allocated in the same file
	// epoch, so that the NodeStore's slot cache can avoid recycling a
	// node across a segment boundary.
	IsSameFile(a, b NodeId) bool
}
