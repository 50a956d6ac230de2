// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"encoding/hex"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/byksy/paprika/pagestore"
	"github.com/byksy/paprika/trie"
	"github.com/byksy/paprika/triedb"
)

var Root = cli.Command{
	Action:    doRoot,
	Name:      "root",
	Usage:     "imports a key/value stream and prints only its root hash",
	ArgsUsage: "<file>",
	Flags: []cli.Flag{
		&batchSizeFlag,
	},
}

func doRoot(context *cli.Context) error {
	if context.Args().Len() != 1 {
		return fmt.Errorf("missing key/value stream file")
	}
	db, err := triedb.Open(pagestore.New(), triedb.Config{})
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := importStream(db, context.Args().Get(0), context.Int(batchSizeFlag.Name)); err != nil {
		return err
	}
	hash, err := trie.RootHash(db.Engine().Store(), db.Engine().Root())
	if err != nil {
		return err
	}
	fmt.Printf("%x\n", hash)
	return nil
}

var Get = cli.Command{
	Action:    doGet,
	Name:      "get",
	Usage:     "imports a key/value stream and looks up a single key",
	ArgsUsage: "<file> <hexkey>",
	Flags: []cli.Flag{
		&batchSizeFlag,
	},
}

func doGet(context *cli.Context) error {
	if context.Args().Len() != 2 {
		return fmt.Errorf("expected a stream file and a key")
	}
	db, err := triedb.Open(pagestore.New(), triedb.Config{})
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := importStream(db, context.Args().Get(0), context.Int(batchSizeFlag.Name)); err != nil {
		return err
	}

	keyBytes, err := hex.DecodeString(context.Args().Get(1))
	if err != nil {
		return fmt.Errorf("bad key: %w", err)
	}
	if len(keyBytes) != trie.KeyLength {
		return fmt.Errorf("key must be %d bytes, got %d", trie.KeyLength, len(keyBytes))
	}
	var key [trie.KeyLength]byte
	copy(key[:], keyBytes)

	value, found, err := db.TryGet(key)
	if err != nil {
		return err
	}
	if !found {
		fmt.Println("<not found>")
		return nil
	}
	fmt.Printf("%x\n", value)
	return nil
}
