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
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/byksy/paprika/pagestore"
	"github.com/byksy/paprika/trie"
	"github.com/byksy/paprika/triedb"
)

var Verify = cli.Command{
	Action:    doVerify,
	Name:      "verify",
	Usage:     "imports a key/value stream and verifies the structural invariants of the resulting trie",
	ArgsUsage: "<file>",
	Flags: []cli.Flag{
		&batchSizeFlag,
	},
}

func doVerify(context *cli.Context) error {
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

	observer := &verificationObserver{}
	return trie.VerifyStructure(db.Engine().Store(), db.Engine().Root(), observer)
}

type verificationObserver struct {
	start time.Time
}

func (o *verificationObserver) StartVerification() {
	o.start = time.Now()
	o.printHeader()
	fmt.Println("Starting verification ...")
}

func (o *verificationObserver) Progress(msg string) {
	o.printHeader()
	fmt.Println(msg)
}

func (o *verificationObserver) EndVerification(res error) {
	if res == nil {
		o.printHeader()
		fmt.Println("Verification successful!")
	}
}

func (o *verificationObserver) printHeader() {
	now := time.Now()
	t := uint64(now.Sub(o.start).Seconds())
	fmt.Printf("%s [t=%4d:%02d] - ", now.Format("15:04:05"), t/60, t%60)
}

var Info = cli.Command{
	Action:    doInfo,
	Name:      "info",
	Usage:     "imports a key/value stream and prints node statistics of the resulting trie",
	ArgsUsage: "<file>",
	Flags: []cli.Flag{
		&batchSizeFlag,
	},
}

func doInfo(context *cli.Context) error {
	if context.Args().Len() != 1 {
		return fmt.Errorf("missing key/value stream file")
	}
	db, err := triedb.Open(pagestore.New(), triedb.Config{})
	if err != nil {
		return err
	}
	defer db.Close()

	count, err := importStream(db, context.Args().Get(0), context.Int(batchSizeFlag.Name))
	if err != nil {
		return err
	}

	store := db.Engine().Store()
	var stats nodeStats
	if err := collectStats(store, db.Engine().Root(), &stats); err != nil {
		return err
	}
	hash, err := trie.RootHash(store, db.Engine().Root())
	if err != nil {
		return err
	}

	fmt.Printf("entries:    %d\n", count)
	fmt.Printf("leaves:     %d\n", stats.leaves)
	fmt.Printf("extensions: %d\n", stats.extensions)
	fmt.Printf("branches:   %d\n", stats.branches)
	fmt.Printf("root hash:  %x\n", hash)
	return nil
}

type nodeStats struct {
	leaves     int
	extensions int
	branches   int
}

func collectStats(store *trie.NodeStore, id trie.NodeId, stats *nodeStats) error {
	if id.IsEmpty() {
		return nil
	}
	node, err := store.Read(id)
	if err != nil {
		return err
	}
	kind, err := trie.DecodeKind(node[0])
	if err != nil {
		return err
	}
	switch kind {
	case trie.KindLeaf:
		stats.leaves++
		return nil
	case trie.KindExtension:
		stats.extensions++
		_, child, err := trie.DecodeExtension(node)
		if err != nil {
			return err
		}
		return collectStats(store, child, stats)
	case trie.KindBranch:
		stats.branches++
		children, err := trie.DecodeBranch(node)
		if err != nil {
			return err
		}
		for _, c := range children {
			if err := collectStats(store, c.Child, stats); err != nil {
				return err
			}
		}
		return nil
	}
	return nil
}
