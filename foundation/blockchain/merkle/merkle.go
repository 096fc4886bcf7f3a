// Package merkle provides an implementation of a merkle tree for validation
// support for the blockchain. The tree is reduced level by level: pairs of
// hex hashes are concatenated and hashed, and an unpaired last element is
// promoted unchanged to the next level.
package merkle

import (
	"errors"
	"fmt"

	"github.com/aurumchain/aurum/foundation/blockchain/signature"
)

// Hashable represents the behavior concrete data must exhibit to be used in
// the merkle tree.
type Hashable[T any] interface {
	Hash() (string, error)
	Equals(other T) bool
}

// ProofStep is one sibling hash on the path from a leaf to the root. Left
// reports that the sibling is concatenated before the running hash.
type ProofStep struct {
	Hash string `json:"hash"`
	Left bool   `json:"left"`
}

// =============================================================================

// Tree represents a merkle tree that uses data of some type T that exhibits the
// behavior defined by the Hashable constraint.
type Tree[T Hashable[T]] struct {
	Levels     [][]string
	MerkleRoot string
	values     []T
}

// NewTree constructs a new merkle tree that uses data of some type T that
// exhibits the behavior defined by the Hashable interface.
func NewTree[T Hashable[T]](values []T) (*Tree[T], error) {
	leafs := make([]string, len(values))
	for i, value := range values {
		hash, err := value.Hash()
		if err != nil {
			return nil, fmt.Errorf("hashing leaf %d: %w", i, err)
		}
		leafs[i] = hash
	}

	levels := reduce(leafs)

	t := Tree[T]{
		Levels:     levels,
		MerkleRoot: levels[len(levels)-1][0],
		values:     append([]T(nil), values...),
	}

	return &t, nil
}

// Root computes the merkle root for a set of leaf hashes without keeping
// the tree around.
func Root(leafs []string) string {
	levels := reduce(leafs)
	return levels[len(levels)-1][0]
}

// Proof returns the sibling hashes needed to walk from the leaf holding the
// data up to the merkle root.
func (t *Tree[T]) Proof(data T) ([]ProofStep, error) {
	for i, value := range t.values {
		if !value.Equals(data) {
			continue
		}

		proof := []ProofStep{}
		idx := i
		for _, level := range t.Levels[:len(t.Levels)-1] {
			switch {
			case idx%2 == 1:
				proof = append(proof, ProofStep{Hash: level[idx-1], Left: true})
			case idx+1 < len(level):
				proof = append(proof, ProofStep{Hash: level[idx+1], Left: false})
			}
			idx /= 2
		}

		return proof, nil
	}

	return nil, errors.New("unable to find data in tree")
}

// RootHex returns the merkle root hex string.
func (t *Tree[T]) RootHex() string {
	return t.MerkleRoot
}

// VerifyProof walks the proof from the leaf hash and reports whether it
// ends at the root.
func VerifyProof(root string, leaf string, proof []ProofStep) bool {
	hash := leaf
	for _, step := range proof {
		if step.Left {
			hash = signature.Hash(step.Hash + hash)
			continue
		}
		hash = signature.Hash(hash + step.Hash)
	}

	return hash == root
}

// =============================================================================

// reduce builds every level of the tree iteratively. The first level is the
// set of leaf hashes and the last level holds only the root.
func reduce(leafs []string) [][]string {
	if len(leafs) == 0 {
		return [][]string{{signature.Hash("")}}
	}

	level := append([]string(nil), leafs...)
	levels := [][]string{level}

	for len(level) > 1 {
		next := make([]string, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			next = append(next, signature.Hash(level[i]+level[i+1]))
		}

		levels = append(levels, next)
		level = next
	}

	return levels
}
