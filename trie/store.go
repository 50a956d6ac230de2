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
)

// idSize is the number of bytes a slot cache entry needs at its head to
// store the id of the next entry in its free list.
const idSize = 8

// MaxCachedLen bounds the payload lengths the per-length slot cache
// tracks: only lengths in [idSize, MaxCachedLen) are cached. Outgrown
// nodes of MaxCachedLen bytes or more (or shorter than idSize) are
// returned straight to the backing allocator instead of being recycled.
const MaxCachedLen = 256

// sealedWatermark is the update_from value set by Seal: every existing
// id is below it, so no node can be mistaken for being in-frontier.
const sealedWatermark = NodeId(^uint64(0))

// NodeStore layers allocation, in-place update and a per-length free-slot
// cache over a BackingStore. It is the sole owner of the copy-on-write
// gating scalar (updateFrom): ids at or above it belong to the batch
// currently being built and may be overwritten in place; older ids are
// frozen and must be copied forward.
type NodeStore struct {
	backing    BackingStore
	updateFrom NodeId
	slots      [MaxCachedLen]NodeId
}

// NewNodeStore wraps a BackingStore. The store starts sealed, as if a
// prior batch had just committed.
func NewNodeStore(backing BackingStore) *NodeStore {
	return &NodeStore{backing: backing, updateFrom: sealedWatermark}
}

// Read returns a zero-copy byte slice of the node payload addressed by
// id. The slice is only valid until the next mutating call on this
// store.
func (s *NodeStore) Read(id NodeId) ([]byte, error) {
	return s.backing.Read(id)
}

// Write allocates a brand-new node for bytes and returns its id.
func (s *NodeStore) Write(bytes []byte) (NodeId, error) {
	if s.backing.NextId() > MaxNodeId {
		return EmptyId, fmt.Errorf("%w: next id would exceed 60-bit id space", ErrOutOfSpace)
	}
	id, err := s.backing.Write(bytes)
	if err != nil {
		return EmptyId, fmt.Errorf("%w: %v", ErrOutOfSpace, err)
	}
	return id, nil
}

// Free returns id's slot directly to the backing allocator, bypassing
// the slot cache.
func (s *NodeStore) Free(id NodeId) error {
	return s.backing.Free(id)
}

// TryUpdateOrAdd implements the publication contract: if id is in the
// current writable frontier and newBytes fits in its existing payload,
// it is overwritten in place and id is returned unchanged; otherwise a
// replacement id is produced, either by popping a same-epoch candidate
// from the slot cache or by falling back to a fresh allocation. An
// outgrown in-frontier slot is recycled into the per-length cache (or
// freed if too large to cache). A slot below the watermark is left
// untouched: it belongs to a sealed snapshot that readers may still be
// traversing, so neither its payload nor its ownership may change here.
func (s *NodeStore) TryUpdateOrAdd(id NodeId, newBytes []byte) (NodeId, error) {
	if id.IsEmpty() {
		return s.Write(newBytes)
	}

	existing, err := s.backing.Read(id)
	if err != nil {
		return EmptyId, err
	}

	if id >= s.updateFrom {
		if len(newBytes) <= len(existing) {
			// The backing store re-declares the slot's length, so a
			// shrinking update does not leave stale trailing bytes
			// behind the new payload.
			if err := s.backing.Update(id, newBytes); err != nil {
				return EmptyId, err
			}
			return id, nil
		}
		s.recycle(id, len(existing))
	}
	return s.allocateFromCacheOrWrite(newBytes)
}

// recycle returns id's slot to the per-length free list if it is small
// enough to be worth caching, or straight to the backing allocator
// otherwise.
func (s *NodeStore) recycle(id NodeId, length int) {
	if length >= idSize && length < MaxCachedLen {
		s.pushSlot(length, id)
		return
	}
	// Best effort: a failure to free is not fatal to the publish that
	// triggered the recycle.
	_ = s.backing.Free(id)
}

func (s *NodeStore) pushSlot(length int, id NodeId) {
	buf, err := s.backing.Read(id)
	if err != nil {
		return
	}
	binary.LittleEndian.PutUint64(buf[:idSize], uint64(s.slots[length]))
	s.slots[length] = id
}

// allocateFromCacheOrWrite pops candidates from slots[len(newBytes)]
// until one sharing the backing store's current file epoch is found (to
// avoid a cross-segment random access on reuse), or the cache for that
// length is exhausted, in which case it falls back to a fresh write.
func (s *NodeStore) allocateFromCacheOrWrite(newBytes []byte) (NodeId, error) {
	length := len(newBytes)
	if length < MaxCachedLen {
		for {
			head := s.slots[length]
			if head.IsEmpty() {
				break
			}
			buf, err := s.backing.Read(head)
			if err != nil {
				return EmptyId, err
			}
			next := NodeId(binary.LittleEndian.Uint64(buf[:idSize]))
			s.slots[length] = next

			if s.backing.IsSameFile(head, s.backing.NextId()) {
				if err := s.backing.Update(head, newBytes); err != nil {
					return EmptyId, err
				}
				return head, nil
			}
			// A cross-epoch candidate is dropped rather than reused, to
			// avoid the random access its reuse would cause; it is
			// returned to the backing allocator instead of being lost.
			_ = s.backing.Free(head)
		}
	}
	return s.Write(newBytes)
}

// EnsureUpdatable is called at batch start. If the store is currently
// sealed, it sets updateFrom to the backing store's next id, so every
// node allocated during the coming batch is in-frontier.
func (s *NodeStore) EnsureUpdatable() {
	if s.updateFrom == sealedWatermark {
		s.updateFrom = s.backing.NextId()
	}
}

// Seal is called at batch commit. It freezes every node allocated so
// far against future in-place writes and clears the slot cache, since
// cached nodes must not cross a batch boundary: once sealed, they may
// become visible to readers of the published state.
func (s *NodeStore) Seal() {
	s.updateFrom = sealedWatermark
	for i := range s.slots {
		s.slots[i] = EmptyId
	}
}

// FlushFrom forces durability of every id allocated since prevId.
func (s *NodeStore) FlushFrom(prevId NodeId) error {
	return s.backing.FlushFrom(prevId)
}

// NextId reports the id the backing store would assign to the next
// allocation.
func (s *NodeStore) NextId() NodeId {
	return s.backing.NextId()
}
