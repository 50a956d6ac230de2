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

import "errors"

// ErrCorruptNode is reported when a decoded node's prefix bits fall
// outside the three known kinds, or a declared child count yields a
// payload length that does not match the slot. It is fatal to the batch
// that observed it: the batch must be abandoned without committing.
var ErrCorruptNode = errors.New("trie: corrupt node")

// ErrInvalidArgument is reported when a Set value exceeds the engine's
// supported size (keys are fixed-size arrays, so their length cannot be
// wrong). It leaves the batch's prior state unaffected.
var ErrInvalidArgument = errors.New("trie: invalid argument")

// ErrOutOfSpace is reported when the backing store has no id left to
// hand out. The batch that observed it must be abandoned.
var ErrOutOfSpace = errors.New("trie: backing store out of space")

// KeyLength is the fixed size, in bytes, of every key accepted by Set.
const KeyLength = 32
