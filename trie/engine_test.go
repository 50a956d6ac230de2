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
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"testing"
)

// testKey produces a deterministic 32-byte key from a seed.
func testKey(seed uint64) [KeyLength]byte {
	var key [KeyLength]byte
	binary.BigEndian.PutUint64(key[24:], seed)
	key[0] = byte(seed * 7)
	key[7] = byte(seed * 13)
	return key
}

func mustInsert(t *testing.T, store *NodeStore, root NodeId, key [KeyLength]byte, value []byte) NodeId {
	t.Helper()
	newRoot, err := Insert(store, root, NewNibblePath(key[:]), value)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	return newRoot
}

func mustGet(t *testing.T, store *NodeStore, root NodeId, key [KeyLength]byte) ([]byte, bool) {
	t.Helper()
	value, found, err := TryGet(store, root, NewNibblePath(key[:]))
	if err != nil {
		t.Fatalf("try_get: %v", err)
	}
	return value, found
}

func TestEmptyTreeMissesThenHitsAfterInsert(t *testing.T) {
	store := NewNodeStore(newFakeBacking())
	store.EnsureUpdatable()

	key := testKey(1)
	if _, found := mustGet(t, store, EmptyId, key); found {
		t.Fatalf("empty tree must miss")
	}

	root := mustInsert(t, store, EmptyId, key, []byte("v1"))
	value, found := mustGet(t, store, root, key)
	if !found || string(value) != "v1" {
		t.Fatalf("got (%q,%v), want (v1,true)", value, found)
	}
}

func TestKeysDifferingAtLastNibbleShareALongExtension(t *testing.T) {
	store := NewNodeStore(newFakeBacking())
	store.EnsureUpdatable()

	var k1, k2 [KeyLength]byte
	k1[31] = 0x01
	k2[31] = 0x02

	root := mustInsert(t, store, EmptyId, k1, []byte("v1"))
	root = mustInsert(t, store, root, k2, []byte("v2"))

	if v, found := mustGet(t, store, root, k1); !found || string(v) != "v1" {
		t.Fatalf("k1: got (%q,%v)", v, found)
	}
	if v, found := mustGet(t, store, root, k2); !found || string(v) != "v2" {
		t.Fatalf("k2: got (%q,%v)", v, found)
	}

	// Root must be an extension of length 63 over a branch holding two
	// zero-length leaves.
	node, err := store.Read(root)
	if err != nil {
		t.Fatalf("read root: %v", err)
	}
	kind, _ := DecodeKind(node[0])
	if kind != KindExtension {
		t.Fatalf("root kind = %v, want extension", kind)
	}
	extPath, branchId, err := DecodeExtension(node)
	if err != nil {
		t.Fatalf("decode root: %v", err)
	}
	if extPath.Length() != 63 {
		t.Fatalf("extension length = %d, want 63", extPath.Length())
	}

	branch, err := store.Read(branchId)
	if err != nil {
		t.Fatalf("read branch: %v", err)
	}
	children, err := DecodeBranch(branch)
	if err != nil {
		t.Fatalf("decode branch: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("branch child count = %d, want 2", len(children))
	}
	for _, c := range children {
		leaf, err := store.Read(c.Child)
		if err != nil {
			t.Fatalf("read leaf: %v", err)
		}
		leafPath, _, err := DecodeLeaf(leaf)
		if err != nil {
			t.Fatalf("decode leaf: %v", err)
		}
		if leafPath.Length() != 0 {
			t.Fatalf("leaf path length = %d, want 0", leafPath.Length())
		}
	}
}

func TestKeysDifferingAtFirstNibbleShareABranchRoot(t *testing.T) {
	store := NewNodeStore(newFakeBacking())
	store.EnsureUpdatable()

	var k1, k2 [KeyLength]byte
	k1[0] = 0x10
	k2[0] = 0x20

	root := mustInsert(t, store, EmptyId, k1, []byte("v1"))
	root = mustInsert(t, store, root, k2, []byte("v2"))

	node, err := store.Read(root)
	if err != nil {
		t.Fatalf("read root: %v", err)
	}
	kind, _ := DecodeKind(node[0])
	if kind != KindBranch {
		t.Fatalf("root kind = %v, want branch", kind)
	}
	children, err := DecodeBranch(node)
	if err != nil {
		t.Fatalf("decode branch: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("branch child count = %d, want 2", len(children))
	}
	for _, c := range children {
		leaf, err := store.Read(c.Child)
		if err != nil {
			t.Fatalf("read leaf: %v", err)
		}
		leafPath, _, err := DecodeLeaf(leaf)
		if err != nil {
			t.Fatalf("decode leaf: %v", err)
		}
		if leafPath.Length() != 63 {
			t.Fatalf("leaf path length = %d, want 63", leafPath.Length())
		}
	}
}

func TestBranchGrowsFromSparseToFull(t *testing.T) {
	store := NewNodeStore(newFakeBacking())
	store.EnsureUpdatable()

	root := EmptyId
	keys := make([][KeyLength]byte, 16)
	for i := 0; i < 16; i++ {
		keys[i][0] = byte(i) << 4
		root = mustInsert(t, store, root, keys[i], []byte{byte(i)})
	}

	node, err := store.Read(root)
	if err != nil {
		t.Fatalf("read root: %v", err)
	}
	children, err := DecodeBranch(node)
	if err != nil {
		t.Fatalf("decode branch: %v", err)
	}
	if !IsFullBranch(len(children)) {
		t.Fatalf("expected a full branch after 16 distinct first nibbles")
	}
	for i, k := range keys {
		v, found := mustGet(t, store, root, k)
		if !found || !bytes.Equal(v, []byte{byte(i)}) {
			t.Fatalf("key %d: got (%x,%v)", i, v, found)
		}
	}
}

func TestOverwriteWithinBatchUpdatesLeafInPlace(t *testing.T) {
	backing := newFakeBacking()
	store := NewNodeStore(backing)
	store.EnsureUpdatable()

	key := testKey(42)
	root := mustInsert(t, store, EmptyId, key, []byte("AAAA"))
	writesAfterFirst := backing.writes

	newRoot := mustInsert(t, store, root, key, []byte("BBBB"))
	if newRoot != root {
		t.Fatalf("in-frontier overwrite changed the root id: %d -> %d", root, newRoot)
	}
	if backing.writes != writesAfterFirst {
		t.Fatalf("overwrite allocated %d extra nodes, want 0", backing.writes-writesAfterFirst)
	}
	if v, found := mustGet(t, store, newRoot, key); !found || string(v) != "BBBB" {
		t.Fatalf("got (%q,%v), want (BBBB,true)", v, found)
	}
}

func TestReadAfterWriteAcrossManyKeys(t *testing.T) {
	store := NewNodeStore(newFakeBacking())
	store.EnsureUpdatable()

	const count = 200
	root := EmptyId
	for i := 0; i < count; i++ {
		value := []byte{byte(i), byte(i >> 8), 0xAA}
		root = mustInsert(t, store, root, testKey(uint64(i)), value)
	}
	// Overwrite every third key.
	for i := 0; i < count; i += 3 {
		root = mustInsert(t, store, root, testKey(uint64(i)), []byte{0xFF, byte(i)})
	}

	for i := 0; i < count; i++ {
		want := []byte{byte(i), byte(i >> 8), 0xAA}
		if i%3 == 0 {
			want = []byte{0xFF, byte(i)}
		}
		v, found := mustGet(t, store, root, testKey(uint64(i)))
		if !found || !bytes.Equal(v, want) {
			t.Fatalf("key %d: got (%x,%v), want %x", i, v, found, want)
		}
	}

	if err := VerifyStructure(store, root, nil); err != nil {
		t.Fatalf("structure verification failed: %v", err)
	}
}

func TestInsertionsAreDeterministic(t *testing.T) {
	build := func() (*NodeStore, []NodeId) {
		store := NewNodeStore(newFakeBacking())
		store.EnsureUpdatable()
		root := EmptyId
		roots := []NodeId{}
		for i := 0; i < 50; i++ {
			root = mustInsert(t, store, root, testKey(uint64(i*3)), []byte{byte(i)})
			roots = append(roots, root)
		}
		return store, roots
	}

	storeA, rootsA := build()
	storeB, rootsB := build()

	for i := range rootsA {
		if rootsA[i] != rootsB[i] {
			t.Fatalf("root id diverged at step %d: %d vs %d", i, rootsA[i], rootsB[i])
		}
	}
	hashA, err := RootHash(storeA, rootsA[len(rootsA)-1])
	if err != nil {
		t.Fatalf("root hash A: %v", err)
	}
	hashB, err := RootHash(storeB, rootsB[len(rootsB)-1])
	if err != nil {
		t.Fatalf("root hash B: %v", err)
	}
	if hashA != hashB {
		t.Fatalf("root hashes diverged: %x vs %x", hashA, hashB)
	}
}

func TestEmptyTreeRootHash(t *testing.T) {
	store := NewNodeStore(newFakeBacking())
	hash, err := RootHash(store, EmptyId)
	if err != nil {
		t.Fatalf("root hash: %v", err)
	}
	// Keccak-256 of the RLP empty string, the canonical empty trie root.
	want := "56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421"
	if hex.EncodeToString(hash[:]) != want {
		t.Fatalf("empty root hash = %x, want %s", hash, want)
	}
}

func TestRootHashChangesWithContent(t *testing.T) {
	store := NewNodeStore(newFakeBacking())
	store.EnsureUpdatable()

	root := mustInsert(t, store, EmptyId, testKey(1), bytes.Repeat([]byte{1}, 32))
	hash1, err := RootHash(store, root)
	if err != nil {
		t.Fatalf("root hash: %v", err)
	}
	root = mustInsert(t, store, root, testKey(2), bytes.Repeat([]byte{2}, 32))
	hash2, err := RootHash(store, root)
	if err != nil {
		t.Fatalf("root hash: %v", err)
	}
	if hash1 == hash2 {
		t.Fatalf("distinct contents produced the same root hash")
	}
}

func TestSealedSnapshotSurvivesLaterBatch(t *testing.T) {
	backing := newFakeBacking()
	store := NewNodeStore(backing)
	store.EnsureUpdatable()

	keyA, keyB := testKey(1), testKey(2)
	oldRoot := mustInsert(t, store, EmptyId, keyA, []byte("old"))
	store.Seal()

	store.EnsureUpdatable()
	newRoot := mustInsert(t, store, oldRoot, keyA, []byte("new"))
	newRoot = mustInsert(t, store, newRoot, keyB, []byte("other"))

	// The sealed snapshot still reads its original value.
	if v, found := mustGet(t, store, oldRoot, keyA); !found || string(v) != "old" {
		t.Fatalf("sealed snapshot: got (%q,%v), want (old,true)", v, found)
	}
	if _, found := mustGet(t, store, oldRoot, keyB); found {
		t.Fatalf("sealed snapshot must not see the later batch's key")
	}
	if v, found := mustGet(t, store, newRoot, keyA); !found || string(v) != "new" {
		t.Fatalf("new root: got (%q,%v), want (new,true)", v, found)
	}
}

func TestVerifyStructureDetectsExtensionChains(t *testing.T) {
	store := NewNodeStore(newFakeBacking())
	store.EnsureUpdatable()

	// Hand-build an extension whose child is another extension, which
	// insert never produces.
	leafKey := testKey(9)
	leafId, err := store.Write(EncodeLeaf(NewNibblePath(leafKey[:]).SliceFrom(2), []byte("x")))
	if err != nil {
		t.Fatalf("write leaf: %v", err)
	}
	innerId, err := store.Write(EncodeExtension(NewNibblePath(leafKey[:]).SliceTo(1).SliceFrom(0), leafId))
	if err != nil {
		t.Fatalf("write inner extension: %v", err)
	}
	outerId, err := store.Write(EncodeExtension(NewNibblePath(leafKey[:]).SliceTo(1), innerId))
	if err != nil {
		t.Fatalf("write outer extension: %v", err)
	}

	if err := VerifyStructure(store, outerId, nil); err == nil {
		t.Fatalf("expected an extension-of-extension violation")
	}
}
