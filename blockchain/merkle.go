package blockchain

import (
	"github.com/Vetrovec/chainee/wallet"
)

// MerkleRoot reduces an ordered list of hex hash strings to a single root.
//
// Each input is hashed once to form the leaves (hex inputs are decoded
// first, anything else hashes as text), then adjacent pairs are combined
// by hashing the concatenation of their hex digests. A level with an odd
// node count duplicates its last node before pairing, the same convention
// Bitcoin uses (CVE-2012-2459 semantics). An empty list reduces to the
// hash of the empty string.
func MerkleRoot(hashes []string) (string, error) {
	if len(hashes) == 0 {
		return wallet.Sha3(nil), nil
	}
	tree := make([]string, 0, len(hashes))
	for _, input := range hashes {
		leaf, err := wallet.Sha3String(input, wallet.IsHexString(input))
		if err != nil {
			return "", err
		}
		tree = append(tree, leaf)
	}
	for len(tree) > 1 {
		if len(tree)%2 == 1 {
			tree = append(tree, tree[len(tree)-1])
		}
		level := make([]string, 0, len(tree)/2)
		for i := 0; i < len(tree); i += 2 {
			parent, err := wallet.Sha3String(tree[i]+tree[i+1], true)
			if err != nil {
				return "", err
			}
			level = append(level, parent)
		}
		tree = level
	}
	return tree[0], nil
}
