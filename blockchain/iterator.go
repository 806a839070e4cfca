package blockchain

// Iterator walks the chain backwards, from the tip to the genesis block,
// following parent hashes.
type Iterator struct {
	currentHash string
	chain       *Blockchain
}

// Iterator returns a walker positioned at the chain tip. Next returns nil
// once the walk passed genesis (or immediately on an empty chain).
func (chain *Blockchain) Iterator() *Iterator {
	iter := &Iterator{chain: chain}
	if latest := chain.GetLatestBlock(); latest != nil {
		iter.currentHash = latest.Hash()
	}
	return iter
}

// Next returns the current block and steps to its parent.
func (iter *Iterator) Next() *Block {
	if iter.currentHash == "" {
		return nil
	}
	block := iter.chain.GetBlock(iter.currentHash)
	if block == nil {
		return nil
	}
	if block.Number == 0 {
		iter.currentHash = ""
	} else {
		iter.currentHash = block.ParentHash
	}
	return block
}
