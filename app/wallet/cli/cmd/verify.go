package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/aurumchain/aurum/foundation/blockchain/merkle"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <tx-id>",
	Short: "Check a transaction is committed using its merkle proof.",
	Args:  cobra.ExactArgs(1),
	Run:   verifyRun,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func verifyRun(cmd *cobra.Command, args []string) {
	inc, err := verifyInclusion(context.Background(), newClient(url), args[0])
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("Transaction:", inc.ID)
	fmt.Println("Block:      ", inc.Block, inc.BlockHash)
	fmt.Println("Merkle Root:", inc.MerkleRoot)
	fmt.Println("Proof Steps:", len(inc.Proof))
}

// verifyInclusion fetches the proof of the transaction and checks it walks
// up to the merkle root recorded in the block header.
func verifyInclusion(ctx context.Context, c *client, id string) (inclusion, error) {
	inc, err := c.Proof(ctx, id)
	if err != nil {
		return inclusion{}, fmt.Errorf("fetching proof: %w", err)
	}

	if inc.ID != id {
		return inclusion{}, fmt.Errorf("proof is for transaction %s", inc.ID)
	}

	blk, err := c.Block(ctx, inc.Block)
	if err != nil {
		return inclusion{}, fmt.Errorf("fetching block: %w", err)
	}

	if blk.Hash != inc.BlockHash || blk.MerkleRoot != inc.MerkleRoot {
		return inclusion{}, fmt.Errorf("proof does not match block %d", blk.Index)
	}

	if !merkle.VerifyProof(blk.MerkleRoot, id, inc.Proof) {
		return inclusion{}, errors.New("proof does not lead to the merkle root")
	}

	return inc, nil
}
