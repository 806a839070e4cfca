package blockchain

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Vetrovec/chainee/wallet"
)

// codec translates index keys and values to their on disk form. Each
// specialization of Index picks its own encodings.
type codec[T any] interface {
	encodeKey(key string) ([]byte, error)
	decodeKey(raw []byte) (string, error)
	encodeValue(value T) ([]byte, error)
	decodeValue(raw []byte) (T, error)
}

// Index is a keyed container with insertion ordered keys and an optional
// parent. Get on an unset key falls through to the parent, Set always
// writes locally and IsSet is local only, which is what makes an Index
// with a parent a copy on write overlay.
type Index[T any] struct {
	keys   []string
	values map[string]T
	parent *Index[T]
	codec  codec[T]
}

func newIndex[T any](c codec[T], parent *Index[T]) Index[T] {
	return Index[T]{
		values: make(map[string]T),
		parent: parent,
		codec:  c,
	}
}

// Keys returns the locally set keys in insertion order.
func (idx *Index[T]) Keys() []string {
	return append([]string(nil), idx.keys...)
}

// IsSet reports whether key is set locally, ignoring the parent.
func (idx *Index[T]) IsSet(key string) bool {
	_, ok := idx.values[key]
	return ok
}

// Get returns the value for key, delegating to the parent when the key is
// not set locally.
func (idx *Index[T]) Get(key string) (T, bool) {
	if value, ok := idx.values[key]; ok {
		return value, true
	}
	if idx.parent != nil {
		return idx.parent.Get(key)
	}
	var zero T
	return zero, false
}

// Set writes key locally, preserving first insertion order on updates.
func (idx *Index[T]) Set(key string, value T) {
	if _, ok := idx.values[key]; !ok {
		idx.keys = append(idx.keys, key)
	}
	idx.values[key] = value
}

// Save writes the index as a flat record stream, creating parent
// directories as needed. Records are emitted in insertion order; chain
// replay on load depends on that.
//
// Record layout: u8 key size, u16le value size, key bytes, value bytes.
func (idx *Index[T]) Save(file string) error {
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return err
	}
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, key := range idx.keys {
		keyRaw, err := idx.codec.encodeKey(key)
		if err != nil {
			return err
		}
		valueRaw, err := idx.codec.encodeValue(idx.values[key])
		if err != nil {
			return err
		}
		if len(keyRaw) > math.MaxUint8 || len(valueRaw) > math.MaxUint16 {
			return fmt.Errorf("%w: record too large", ErrMalformedInput)
		}
		header := []byte{byte(len(keyRaw)), 0, 0}
		binary.LittleEndian.PutUint16(header[1:], uint16(len(valueRaw)))
		if _, err := f.Write(header); err != nil {
			return err
		}
		if _, err := f.Write(keyRaw); err != nil {
			return err
		}
		if _, err := f.Write(valueRaw); err != nil {
			return err
		}
	}
	return nil
}

// Load reads records from file until EOF, setting each into the index in
// file order.
func (idx *Index[T]) Load(file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()
	header := make([]byte, 3)
	for {
		if _, err := io.ReadFull(f, header); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("%w: truncated record header", ErrMalformedInput)
		}
		keyRaw := make([]byte, header[0])
		valueRaw := make([]byte, binary.LittleEndian.Uint16(header[1:]))
		if _, err := io.ReadFull(f, keyRaw); err != nil {
			return fmt.Errorf("%w: truncated record key", ErrMalformedInput)
		}
		if _, err := io.ReadFull(f, valueRaw); err != nil {
			return fmt.Errorf("%w: truncated record value", ErrMalformedInput)
		}
		key, err := idx.codec.decodeKey(keyRaw)
		if err != nil {
			return err
		}
		value, err := idx.codec.decodeValue(valueRaw)
		if err != nil {
			return err
		}
		idx.Set(key, value)
	}
}

// Merge copies every locally set entry of overlay into base, in overlay
// insertion order.
func Merge[T any](base, overlay *Index[T]) {
	for _, key := range overlay.keys {
		base.Set(key, overlay.values[key])
	}
}

// hexCodec stores hex string keys and values as their raw bytes.
type hexCodec struct{}

func (hexCodec) encodeKey(key string) ([]byte, error) { return hex.DecodeString(key) }

func (hexCodec) decodeKey(raw []byte) (string, error) { return hex.EncodeToString(raw), nil }

func (hexCodec) encodeValue(value string) ([]byte, error) { return hex.DecodeString(value) }

func (hexCodec) decodeValue(raw []byte) (string, error) { return hex.EncodeToString(raw), nil }

// HexIndex maps hex keys to hex values; the chain uses it to map
// transaction ids to block hashes.
type HexIndex struct {
	Index[string]
}

func NewHexIndex() *HexIndex {
	return &HexIndex{Index: newIndex[string](hexCodec{}, nil)}
}

// blockCodec stores block hash keys as raw bytes and blocks in their full
// canonical serialization.
type blockCodec struct{}

func (blockCodec) encodeKey(key string) ([]byte, error) { return hex.DecodeString(key) }
func (blockCodec) decodeKey(raw []byte) (string, error) { return hex.EncodeToString(raw), nil }
func (blockCodec) encodeValue(value *Block) ([]byte, error) {
	return value.Serialize(true), nil
}
func (blockCodec) decodeValue(raw []byte) (*Block, error) {
	return DeserializeBlock(raw)
}

// BlockIndex maps block hashes to blocks.
type BlockIndex struct {
	Index[*Block]
}

func NewBlockIndex() *BlockIndex {
	return &BlockIndex{Index: newIndex[*Block](blockCodec{}, nil)}
}

// numberCodec stores decimal block number keys as little endian u32.
type numberCodec struct{}

func (numberCodec) encodeKey(key string) ([]byte, error) {
	number, err := strconv.ParseUint(key, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: block number key %q", ErrMalformedInput, key)
	}
	raw := make([]byte, 4)
	binary.LittleEndian.PutUint32(raw, uint32(number))
	return raw, nil
}
func (numberCodec) decodeKey(raw []byte) (string, error) {
	if len(raw) != 4 {
		return "", fmt.Errorf("%w: block number key", ErrMalformedInput)
	}
	return strconv.FormatUint(uint64(binary.LittleEndian.Uint32(raw)), 10), nil
}
func (numberCodec) encodeValue(value string) ([]byte, error) { return hex.DecodeString(value) }

func (numberCodec) decodeValue(raw []byte) (string, error) { return hex.EncodeToString(raw), nil }

// BlockHashIndex maps decimal block number strings to block hashes.
type BlockHashIndex struct {
	Index[string]
}

func NewBlockHashIndex() *BlockHashIndex {
	return &BlockHashIndex{Index: newIndex[string](numberCodec{}, nil)}
}

// Account is the per address state record. A missing account reads as
// zero balance, zero nonce.
type Account struct {
	Balance uint64 `json:"balance"`
	Nonce   uint16 `json:"nonce"`
}

// stateCodec stores address keys as raw bytes and accounts as
// u16 nonce followed by u64 balance, little endian.
type stateCodec struct{}

func (stateCodec) encodeKey(key string) ([]byte, error) { return hex.DecodeString(key) }
func (stateCodec) decodeKey(raw []byte) (string, error) { return hex.EncodeToString(raw), nil }
func (stateCodec) encodeValue(value Account) ([]byte, error) {
	raw := make([]byte, 10)
	binary.LittleEndian.PutUint16(raw[0:2], value.Nonce)
	binary.LittleEndian.PutUint64(raw[2:10], value.Balance)
	return raw, nil
}
func (stateCodec) decodeValue(raw []byte) (Account, error) {
	if len(raw) != 10 {
		return Account{}, fmt.Errorf("%w: account record", ErrMalformedInput)
	}
	return Account{
		Nonce:   binary.LittleEndian.Uint16(raw[0:2]),
		Balance: binary.LittleEndian.Uint64(raw[2:10]),
	}, nil
}

// StateIndex maps addresses to account records. Built with a parent it
// acts as the copy on write overlay used while evaluating a block.
type StateIndex struct {
	Index[Account]
}

// NewStateIndex creates a state index; parent may be nil.
func NewStateIndex(parent *StateIndex) *StateIndex {
	var p *Index[Account]
	if parent != nil {
		p = &parent.Index
	}
	return &StateIndex{Index: newIndex[Account](stateCodec{}, p)}
}

// Set validates the address before writing.
func (s *StateIndex) Set(key string, value Account) error {
	if !wallet.ValidateAddress(key) {
		return fmt.Errorf("%w: state key %q", ErrInvalidAddress, key)
	}
	s.Index.Set(key, value)
	return nil
}

// GetBalance returns the balance of address, zero for unknown accounts.
func (s *StateIndex) GetBalance(address string) uint64 {
	account, _ := s.Get(address)
	return account.Balance
}

// GetNonce returns the nonce of address, zero for unknown accounts.
func (s *StateIndex) GetNonce(address string) uint16 {
	account, _ := s.Get(address)
	return account.Nonce
}

// SetBalance writes the balance of address, initializing a missing
// account with a zero nonce.
func (s *StateIndex) SetBalance(address string, balance uint64) error {
	account, _ := s.Get(address)
	account.Balance = balance
	return s.Set(address, account)
}

// SetNonce writes the nonce of address, initializing a missing account
// with a zero balance.
func (s *StateIndex) SetNonce(address string, nonce uint16) error {
	account, _ := s.Get(address)
	account.Nonce = nonce
	return s.Set(address, account)
}
