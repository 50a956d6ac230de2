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
	"errors"
	"fmt"
)

// ErrBatchAlreadyOpen is returned by Engine.Begin when a previous batch
// on the same engine has not yet been committed or dropped. Only one
// batch may be open per engine at a time.
var ErrBatchAlreadyOpen = errors.New("trie: a batch is already open on this engine")

// CommitMode selects how much durability work Batch.Commit performs
// beyond publishing the new root.
type CommitMode int

const (
	// RootOnly copies the batch's root back to the engine and does
	// nothing else. The store stays unsealed, so the next batch may
	// overwrite this batch's nodes in place.
	RootOnly CommitMode = iota
	// SealUpdatable does the above, then seals the node store so that
	// none of this batch's nodes can be mutated in place by a future
	// batch.
	SealUpdatable
	// ForceFlush does the above, then directs the backing store to
	// flush everything allocated up to and including the batch's
	// latest id.
	ForceFlush
)

// Engine owns the published root of a Patricia tree and the NodeStore
// backing it. At most one Batch may be open on an Engine at a time.
type Engine struct {
	store       *NodeStore
	root        NodeId
	lastFlushTo NodeId
	batchOpen   bool
}

// NewEngine creates an Engine with an empty tree over the given backing
// store.
func NewEngine(backing BackingStore) *Engine {
	return &Engine{store: NewNodeStore(backing)}
}

// Root returns the engine's currently published root id.
func (e *Engine) Root() NodeId {
	return e.root
}

// Set is a convenience wrapper that opens a batch, writes a single key,
// and commits it with RootOnly. For multiple writes, use Begin directly
// so they share one batch.
func (e *Engine) Set(key [KeyLength]byte, value []byte) error {
	b, err := e.Begin()
	if err != nil {
		return err
	}
	if err := b.Set(key, value); err != nil {
		b.Drop()
		return err
	}
	return b.Commit(RootOnly)
}

// Store grants access to the engine's NodeStore, needed by read-only
// collaborators like hashing, verification and proof construction.
func (e *Engine) Store() *NodeStore {
	return e.store
}

// TryGet reads a key against the engine's currently published root.
func (e *Engine) TryGet(key [KeyLength]byte) ([]byte, bool, error) {
	return TryGet(e.store, e.root, NewNibblePath(key[:]))
}

// Begin opens a new Batch rooted at the engine's current root. It fails
// if a batch is already open.
func (e *Engine) Begin() (*Batch, error) {
	if e.batchOpen {
		return nil, ErrBatchAlreadyOpen
	}
	e.batchOpen = true
	e.store.EnsureUpdatable()
	return &Batch{engine: e, root: e.root}, nil
}

// Batch is a single-writer transaction over an Engine. Writes made
// through Set are visible to subsequent TryGet calls on the same batch
// (read-your-writes). When the engine's root was published by a sealing
// commit (SealUpdatable or ForceFlush), they are not visible to the
// engine's readers until Commit publishes the batch's root. After a
// RootOnly commit, the published nodes are still in the writable
// frontier and Set may update them in place, which readers of the
// published root then observe.
type Batch struct {
	engine *Engine
	root   NodeId
	done   bool
}

// MaxValueLength bounds the value size a leaf may carry, keeping every
// node encoding well below the backing store's page size.
const MaxValueLength = 2048

// Set inserts or overwrites key with value. key must be exactly
// KeyLength bytes; that is enforced by the type system here, so
// ErrInvalidArgument is returned only for an oversized value or a batch
// that was already committed or dropped. An invalid argument leaves the
// batch's prior state untouched.
func (b *Batch) Set(key [KeyLength]byte, value []byte) error {
	if b.done {
		return fmt.Errorf("%w: batch already committed", ErrInvalidArgument)
	}
	if len(value) > MaxValueLength {
		return fmt.Errorf("%w: value of %d bytes exceeds the %d byte limit", ErrInvalidArgument, len(value), MaxValueLength)
	}
	newRoot, err := Insert(b.engine.store, b.root, NewNibblePath(key[:]), value)
	if err != nil {
		return err
	}
	b.root = newRoot
	return nil
}

// TryGet reads a key through this batch's (possibly uncommitted) root.
func (b *Batch) TryGet(key [KeyLength]byte) ([]byte, bool, error) {
	return TryGet(b.engine.store, b.root, NewNibblePath(key[:]))
}

// Commit publishes the batch's root to its engine according to mode.
// After Commit, the batch must not be used again.
func (b *Batch) Commit(mode CommitMode) error {
	if b.done {
		return fmt.Errorf("%w: batch already committed", ErrInvalidArgument)
	}
	e := b.engine
	e.root = b.root
	b.done = true
	e.batchOpen = false

	if mode == RootOnly {
		return nil
	}

	e.store.Seal()
	if mode == SealUpdatable {
		return nil
	}

	if err := e.store.FlushFrom(e.lastFlushTo); err != nil {
		return err
	}
	e.lastFlushTo = e.store.NextId() - 1
	return nil
}

// Drop abandons the batch without publishing its root. The engine's
// root remains unchanged; any nodes allocated by the batch remain in
// the backing store (they are not reclaimed) and will simply be
// unreferenced until a future in-frontier write happens to recycle
// them, matching the host-level abort-by-dropping model described for
// cancellation in this engine.
func (b *Batch) Drop() {
	if b.done {
		return
	}
	b.done = true
	b.engine.batchOpen = false
}
