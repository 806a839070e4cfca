package blockchain

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// blockReward is the flat amount credited to a block's beneficiary.
const blockReward = 10

// zeroParentHash is the parent hash the genesis block must carry.
var zeroParentHash = strings.Repeat("0", 64)

// Blockchain is the chain aggregate: a strictly linear, append only block
// sequence plus the derived lookup indexes and the live account state.
// It owns its indexes exclusively and is not safe for concurrent use;
// callers layering threads on top must serialize access themselves.
type Blockchain struct {
	datadir          string
	BlockCount       uint32
	blockIndex       *BlockIndex
	blockHashIndex   *BlockHashIndex
	stateIndex       *StateIndex
	transactionIndex *HexIndex
}

// NewBlockchain creates an empty chain rooted at datadir.
func NewBlockchain(datadir string) *Blockchain {
	return &Blockchain{
		datadir:          datadir,
		blockIndex:       NewBlockIndex(),
		blockHashIndex:   NewBlockHashIndex(),
		stateIndex:       NewStateIndex(nil),
		transactionIndex: NewHexIndex(),
	}
}

// NewGenesisBlock builds the block appended to an empty chain: number 0,
// all zero parent, maximum target, no transactions.
func NewGenesisBlock(beneficiary string, timestamp uint32) (*Block, error) {
	return NewBlock(0, zeroParentHash, beneficiary, math.MaxUint32, timestamp, 0)
}

// GetLatestBlock returns the chain tip, or nil for an empty chain.
func (chain *Blockchain) GetLatestBlock() *Block {
	if chain.BlockCount == 0 {
		return nil
	}
	return chain.GetBlockByNumber(chain.BlockCount - 1)
}

// GetGenesisBlock returns block number 0, or nil for an empty chain.
func (chain *Blockchain) GetGenesisBlock() *Block {
	return chain.GetBlockByNumber(0)
}

// AddBlock validates block against the tip, applies its transactions to a
// state overlay and, on success, commits block and the new state. On any
// validation error the chain is left untouched.
func (chain *Blockchain) AddBlock(block *Block) error {
	if err := chain.validateBlockHeader(block); err != nil {
		return err
	}
	nextState, err := chain.calculateNextState(block)
	if err != nil {
		return err
	}
	hash := block.Hash()
	chain.blockIndex.Set(hash, block)
	chain.blockHashIndex.Set(strconv.FormatUint(uint64(block.Number), 10), hash)
	for _, tx := range block.Transactions {
		chain.transactionIndex.Set(tx.ID(), hash)
	}
	Merge(&chain.stateIndex.Index, &nextState.Index)
	chain.BlockCount++
	return nil
}

// ValidateTransaction checks a transaction against a state view: the
// sender must be recoverable, must not pay itself, must cover the total
// value and must not reuse a nonce below its account nonce (equality is
// fine, the account nonce is the next expected one). A nil state means
// the live state.
func (chain *Blockchain) ValidateTransaction(tx *Transaction, state *StateIndex) error {
	if state == nil {
		state = chain.stateIndex
	}
	sender, err := tx.Sender()
	if err != nil {
		return err
	}
	for _, out := range tx.Outputs {
		if out.Address == sender {
			return fmt.Errorf("%w: %s", ErrSelfPayment, sender)
		}
	}
	value, err := tx.Value()
	if err != nil {
		return err
	}
	if value > state.GetBalance(sender) {
		return fmt.Errorf("%w: %s needs %d", ErrInsufficientBalance, sender, value)
	}
	if tx.Nonce < state.GetNonce(sender) {
		return fmt.Errorf("%w: %d", ErrStaleNonce, tx.Nonce)
	}
	return nil
}

// validateBlockHeader checks number and parent linkage against the tip.
func (chain *Blockchain) validateBlockHeader(block *Block) error {
	var nextNumber uint32
	parentHash := zeroParentHash
	if latest := chain.GetLatestBlock(); latest != nil {
		nextNumber = latest.Number + 1
		parentHash = latest.Hash()
	}
	if block.Number != nextNumber {
		return fmt.Errorf("%w: got %d, want %d", ErrInvalidNumber, block.Number, nextNumber)
	}
	if block.ParentHash != parentHash {
		return fmt.Errorf("%w: got %s, want %s", ErrInvalidParent, block.ParentHash, parentHash)
	}
	return nil
}

// calculateNextState applies each transaction in block order against a
// copy on write overlay of the live state. The block reward is credited
// into the overlay as the last step, so a rejected block never leaves
// partial state behind and the reward survives the commit merge even
// when the beneficiary was touched by the block's own transactions.
func (chain *Blockchain) calculateNextState(block *Block) (*StateIndex, error) {
	state := NewStateIndex(chain.stateIndex)
	for _, tx := range block.Transactions {
		if err := chain.ValidateTransaction(tx, state); err != nil {
			return nil, err
		}
		sender, err := tx.Sender()
		if err != nil {
			return nil, err
		}
		nonce := state.GetNonce(sender)
		for _, out := range tx.Outputs {
			if err := state.SetBalance(out.Address, state.GetBalance(out.Address)+out.Amount); err != nil {
				return nil, err
			}
		}
		value, err := tx.Value()
		if err != nil {
			return nil, err
		}
		if err := state.SetBalance(sender, state.GetBalance(sender)-value); err != nil {
			return nil, err
		}
		if err := state.SetNonce(sender, nonce+1); err != nil {
			return nil, err
		}
	}
	beneficiaryBalance := state.GetBalance(block.Beneficiary)
	if err := state.SetBalance(block.Beneficiary, beneficiaryBalance+blockReward); err != nil {
		return nil, err
	}
	return state, nil
}

// GetBlock returns the block with the given hash, or nil.
func (chain *Blockchain) GetBlock(hash string) *Block {
	block, _ := chain.blockIndex.Get(hash)
	return block
}

// GetBlockHash returns the hash of the block at the given number.
func (chain *Blockchain) GetBlockHash(number uint32) (string, bool) {
	return chain.blockHashIndex.Get(strconv.FormatUint(uint64(number), 10))
}

// GetBlockByNumber composes GetBlockHash and GetBlock.
func (chain *Blockchain) GetBlockByNumber(number uint32) *Block {
	hash, ok := chain.GetBlockHash(number)
	if !ok {
		return nil
	}
	return chain.GetBlock(hash)
}

// GetTransaction finds a transaction by id via the transaction index,
// then scans the owning block for the matching id.
func (chain *Blockchain) GetTransaction(id string) *Transaction {
	blockHash, ok := chain.transactionIndex.Get(id)
	if !ok {
		return nil
	}
	block := chain.GetBlock(blockHash)
	if block == nil {
		return nil
	}
	for _, tx := range block.Transactions {
		if tx.ID() == id {
			return tx
		}
	}
	return nil
}

// GetBalance returns the live balance of address, zero if unknown.
func (chain *Blockchain) GetBalance(address string) uint64 {
	return chain.stateIndex.GetBalance(address)
}

// GetNonce returns the live account nonce of address, zero if unknown.
func (chain *Blockchain) GetNonce(address string) uint16 {
	return chain.stateIndex.GetNonce(address)
}

// blocksFile is the on disk location of the block index inside datadir.
func (chain *Blockchain) blocksFile() string {
	return filepath.Join(chain.datadir, "data", "blocks.dat")
}

// Save persists the block index. The other indexes and the state are
// derived and get rebuilt by Load.
func (chain *Blockchain) Save() error {
	return chain.blockIndex.Save(chain.blocksFile())
}

// Load reads blocks.dat if present and replays every block through the
// ordinary append path, rebuilding state and lookup indexes. Replay
// depends on the file preserving append order.
func (chain *Blockchain) Load() error {
	file := chain.blocksFile()
	if _, err := os.Stat(file); os.IsNotExist(err) {
		return nil
	}
	blockIndex := NewBlockIndex()
	if err := blockIndex.Load(file); err != nil {
		return err
	}
	for _, hash := range blockIndex.Keys() {
		block, _ := blockIndex.Get(hash)
		if err := chain.AddBlock(block); err != nil {
			return fmt.Errorf("replay block %s: %w", hash, err)
		}
	}
	return nil
}
