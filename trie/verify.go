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

// VerificationObserver is a listener interface for tracking the progress
// of a structural verification run. It can, for instance, be implemented
// by a command line tool to keep the user updated on current activities.
type VerificationObserver interface {
	StartVerification()
	Progress(msg string)
	EndVerification(res error)
}

// NilVerificationObserver is a trivial implementation of the observer
// interface above which ignores all reported events.
type NilVerificationObserver struct{}

func (NilVerificationObserver) StartVerification()        {}
func (NilVerificationObserver) Progress(msg string)       {}
func (NilVerificationObserver) EndVerification(res error) {}

// VerifyStructure walks the tree below root and checks the structural
// invariants every published root must satisfy:
//   - every node's kind bits are one of the three known kinds
//   - no extension has an extension child, and none has an empty child
//   - every branch has between 2 and 16 non-null children, with no
//     duplicate nibbles, and full branches are indexed by nibble
//   - the nibble path from the root to any leaf has the exact length of
//     a full key
//
// It returns the first violation found, or nil if the tree is sound.
func VerifyStructure(store *NodeStore, root NodeId, observer VerificationObserver) (res error) {
	if observer == nil {
		observer = NilVerificationObserver{}
	}
	observer.StartVerification()
	defer func() {
		observer.EndVerification(res)
	}()

	if root.IsEmpty() {
		return nil
	}
	stats := &verificationStats{}
	if err := verifyNode(store, root, 0, false, stats); err != nil {
		return err
	}
	observer.Progress(fmt.Sprintf("checked %d leaves, %d extensions, %d branches", stats.leaves, stats.extensions, stats.branches))
	return nil
}

type verificationStats struct {
	leaves     int
	extensions int
	branches   int
}

func verifyNode(store *NodeStore, id NodeId, depth int, parentIsExtension bool, stats *verificationStats) error {
	node, err := store.Read(id)
	if err != nil {
		return err
	}
	kind, err := DecodeKind(node[0])
	if err != nil {
		return err
	}

	switch kind {
	case KindLeaf:
		stats.leaves++
		path, _, err := DecodeLeaf(node)
		if err != nil {
			return err
		}
		if depth+path.Length() != MaxNibbleLength {
			return fmt.Errorf("%w: leaf %d at depth %d has path length %d, full paths must have %d nibbles",
				ErrCorruptNode, id, depth, path.Length(), MaxNibbleLength)
		}
		return nil

	case KindExtension:
		stats.extensions++
		if parentIsExtension {
			return fmt.Errorf("%w: extension %d is the child of another extension", ErrCorruptNode, id)
		}
		path, child, err := DecodeExtension(node)
		if err != nil {
			return err
		}
		if child.IsEmpty() {
			return fmt.Errorf("%w: extension %d has no child", ErrCorruptNode, id)
		}
		// The path aliases node's bytes; capture its length before the
		// recursive walk issues further reads.
		length := path.Length()
		return verifyNode(store, child, depth+length, true, stats)

	case KindBranch:
		stats.branches++
		children, err := DecodeBranch(node)
		if err != nil {
			return err
		}
		var seen [16]bool
		for i, c := range children {
			if c.Child.IsEmpty() {
				return fmt.Errorf("%w: branch %d has a null child at nibble %d", ErrCorruptNode, id, c.Nibble)
			}
			if seen[c.Nibble] {
				return fmt.Errorf("%w: branch %d has two children for nibble %d", ErrCorruptNode, id, c.Nibble)
			}
			seen[c.Nibble] = true
			if IsFullBranch(len(children)) && int(c.Nibble) != i {
				return fmt.Errorf("%w: full branch %d has nibble %d at slot %d", ErrCorruptNode, id, c.Nibble, i)
			}
		}
		for _, c := range children {
			if err := verifyNode(store, c.Child, depth+1, false, stats); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("%w: unsupported node kind", ErrCorruptNode)
	}
}
