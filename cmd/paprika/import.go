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
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/byksy/paprika/pagestore"
	"github.com/byksy/paprika/trie"
	"github.com/byksy/paprika/triedb"
)

var (
	historyFlag = cli.StringFlag{
		Name:  "history",
		Usage: "directory for recording per-batch root pointers, disabled if empty",
		Value: "",
	}
	batchSizeFlag = cli.IntFlag{
		Name:  "batch-size",
		Usage: "number of key/value pairs committed per batch",
		Value: 1024,
	}
)

var Import = cli.Command{
	Action:    doImport,
	Name:      "import",
	Usage:     "replays a key/value stream into a fresh trie and prints its root hash",
	ArgsUsage: "<file>",
	Flags: []cli.Flag{
		&historyFlag,
		&batchSizeFlag,
	},
}

func doImport(context *cli.Context) error {
	if context.Args().Len() != 1 {
		return fmt.Errorf("missing key/value stream file")
	}

	db, err := triedb.Open(pagestore.New(), triedb.Config{
		Directory: context.String(historyFlag.Name),
	})
	if err != nil {
		return err
	}
	defer db.Close()

	count, err := importStream(db, context.Args().Get(0), context.Int(batchSizeFlag.Name))
	if err != nil {
		return err
	}

	hash, err := trie.RootHash(db.Engine().Store(), db.Engine().Root())
	if err != nil {
		return err
	}
	fmt.Printf("imported %d entries\n", count)
	fmt.Printf("root hash: %x\n", hash)
	return nil
}

// importStream replays the newline-delimited "hexkey hexvalue" pairs of
// file into db, committing every batchSize entries. It returns the
// number of entries applied.
func importStream(db *triedb.DB, file string, batchSize int) (int, error) {
	if batchSize < 1 {
		batchSize = 1
	}
	in, err := os.Open(file)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	count := 0
	lineNo := 0
	block := uint64(0)
	var batch *trie.Batch

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, err := parseEntry(line)
		if err != nil {
			return count, fmt.Errorf("line %d: %w", lineNo, err)
		}

		if batch == nil {
			if batch, err = db.Begin(); err != nil {
				return count, err
			}
		}
		if err := batch.Set(key, value); err != nil {
			return count, err
		}
		count++

		if count%batchSize == 0 {
			block++
			if err := db.CommitBlock(batch, block, trie.SealUpdatable); err != nil {
				return count, err
			}
			batch = nil
		}
	}
	if err := scanner.Err(); err != nil {
		return count, err
	}

	if batch != nil {
		block++
		if err := db.CommitBlock(batch, block, trie.SealUpdatable); err != nil {
			return count, err
		}
	}
	return count, nil
}

// parseEntry splits one "hexkey hexvalue" line into a 32-byte key and
// its value bytes.
func parseEntry(line string) ([trie.KeyLength]byte, []byte, error) {
	var key [trie.KeyLength]byte
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return key, nil, fmt.Errorf("expected 'hexkey hexvalue', got %d fields", len(fields))
	}
	keyBytes, err := hex.DecodeString(fields[0])
	if err != nil {
		return key, nil, fmt.Errorf("bad key: %w", err)
	}
	if len(keyBytes) != trie.KeyLength {
		return key, nil, fmt.Errorf("key must be %d bytes, got %d", trie.KeyLength, len(keyBytes))
	}
	copy(key[:], keyBytes)

	value, err := hex.DecodeString(fields[1])
	if err != nil {
		return key, nil, fmt.Errorf("bad value: %w", err)
	}
	return key, value, nil
}
