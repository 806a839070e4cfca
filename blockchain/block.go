package blockchain

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/Vetrovec/chainee/wallet"
)

// headerSize is the length of the serialized block header; the block hash
// commits to exactly these bytes.
const headerSize = 100

// maxTransactions is the most transactions a block can carry: the
// canonical encoding stores the count as an unsigned 16 bit integer.
const maxTransactions = math.MaxUint16

// Block is one link of the chain. Number increments strictly from the
// genesis block, ParentHash ties it to its predecessor, and the header
// commits to the contained transactions through their merkle root. Target
// and Nonce are stored for proof of work but never enforced here.
type Block struct {
	Number       uint32
	ParentHash   string
	Beneficiary  string
	Target       uint32
	Timestamp    uint32
	Nonce        uint32
	Transactions []*Transaction
}

// NewBlock builds an empty block and validates the hex fields once, so
// serialization never has to.
func NewBlock(number uint32, parentHash, beneficiary string, target, timestamp, nonce uint32) (*Block, error) {
	if !wallet.IsHexString(parentHash) || len(parentHash) != 64 {
		return nil, fmt.Errorf("%w: parent hash %q", ErrMalformedInput, parentHash)
	}
	if !wallet.ValidateAddress(beneficiary) {
		return nil, fmt.Errorf("%w: beneficiary %q", ErrInvalidAddress, beneficiary)
	}
	return &Block{
		Number:      number,
		ParentHash:  parentHash,
		Beneficiary: beneficiary,
		Target:      target,
		Timestamp:   timestamp,
		Nonce:       nonce,
	}, nil
}

// AddTransaction appends a transaction to the block.
func (b *Block) AddTransaction(tx *Transaction) error {
	if len(b.Transactions) >= maxTransactions {
		return fmt.Errorf("block full: %d transactions", maxTransactions)
	}
	b.Transactions = append(b.Transactions, tx)
	return nil
}

// Hash is the SHA3-256 digest of the 100 byte header. It commits to the
// transactions root, not to the individual transaction bytes.
func (b *Block) Hash() string {
	return wallet.Sha3(b.Serialize(false))
}

// TransactionsRoot is the merkle root of the ascending sorted transaction
// ids, or the hash of the empty string for an empty block.
func (b *Block) TransactionsRoot() string {
	if len(b.Transactions) < 1 {
		return wallet.Sha3(nil)
	}
	ids := make([]string, len(b.Transactions))
	for i, tx := range b.Transactions {
		ids[i] = tx.ID()
	}
	sort.Strings(ids)
	// Ids are hex digests, the root computation cannot fail on them.
	root, _ := MerkleRoot(ids)
	return root
}

// Serialize returns the canonical little endian encoding. The header is
// number u32, parent hash 32B, beneficiary 20B, transactions root 32B,
// target u32, timestamp u32, nonce u32. With includeTransactions a u16
// count follows, then each transaction as a u16 size prefix and its bytes.
func (b *Block) Serialize(includeTransactions bool) []byte {
	var buf bytes.Buffer
	parentHash, _ := hex.DecodeString(b.ParentHash)   // validated in NewBlock
	beneficiary, _ := hex.DecodeString(b.Beneficiary) // validated in NewBlock
	root, _ := hex.DecodeString(b.TransactionsRoot())
	binary.Write(&buf, binary.LittleEndian, b.Number)
	buf.Write(parentHash)
	buf.Write(beneficiary)
	buf.Write(root)
	binary.Write(&buf, binary.LittleEndian, b.Target)
	binary.Write(&buf, binary.LittleEndian, b.Timestamp)
	binary.Write(&buf, binary.LittleEndian, b.Nonce)
	if !includeTransactions {
		return buf.Bytes()
	}
	binary.Write(&buf, binary.LittleEndian, uint16(len(b.Transactions)))
	for _, tx := range b.Transactions {
		serialized := tx.Serialize(true)
		binary.Write(&buf, binary.LittleEndian, uint16(len(serialized)))
		buf.Write(serialized)
	}
	return buf.Bytes()
}

// DeserializeBlock parses a serialized block. When transactions are
// present the transactions root is recomputed and checked against the
// stored header.
func DeserializeBlock(data []byte) (*Block, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: block header too short", ErrMalformedInput)
	}
	number := binary.LittleEndian.Uint32(data[0:4])
	parentHash := hex.EncodeToString(data[4:36])
	beneficiary := hex.EncodeToString(data[36:56])
	storedRoot := hex.EncodeToString(data[56:88])
	target := binary.LittleEndian.Uint32(data[88:92])
	timestamp := binary.LittleEndian.Uint32(data[92:96])
	nonce := binary.LittleEndian.Uint32(data[96:100])

	block, err := NewBlock(number, parentHash, beneficiary, target, timestamp, nonce)
	if err != nil {
		return nil, err
	}
	if len(data) == headerSize {
		return block, nil
	}
	if len(data) < headerSize+2 {
		return nil, fmt.Errorf("%w: truncated transaction count", ErrMalformedInput)
	}
	pos := headerSize + 2
	for pos < len(data) {
		if pos+2 > len(data) {
			return nil, fmt.Errorf("%w: truncated transaction size", ErrMalformedInput)
		}
		size := int(binary.LittleEndian.Uint16(data[pos : pos+2]))
		pos += 2
		if pos+size > len(data) {
			return nil, fmt.Errorf("%w: truncated transaction", ErrMalformedInput)
		}
		tx, err := DeserializeTransaction(data[pos : pos+size])
		if err != nil {
			return nil, err
		}
		pos += size
		if err := block.AddTransaction(tx); err != nil {
			return nil, err
		}
	}
	if block.TransactionsRoot() != storedRoot {
		return nil, ErrInvalidRoot
	}
	return block, nil
}

// MarshalJSON renders the block with its derived hash.
func (b *Block) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Number       uint32         `json:"number"`
		ParentHash   string         `json:"parent_hash"`
		Beneficiary  string         `json:"beneficiary"`
		Target       uint32         `json:"target"`
		Timestamp    uint32         `json:"timestamp"`
		Nonce        uint32         `json:"nonce"`
		Hash         string         `json:"hash"`
		Transactions []*Transaction `json:"transactions"`
	}{
		Number:       b.Number,
		ParentHash:   b.ParentHash,
		Beneficiary:  b.Beneficiary,
		Target:       b.Target,
		Timestamp:    b.Timestamp,
		Nonce:        b.Nonce,
		Hash:         b.Hash(),
		Transactions: b.Transactions,
	})
}
