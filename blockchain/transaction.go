package blockchain

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"

	"github.com/Vetrovec/chainee/wallet"
)

// maxOutputs is the most outputs a transaction can carry: the canonical
// encoding stores the count as a signed 8 bit integer.
const maxOutputs = 127

// Transaction is an account model transfer: a per sender replay nonce and
// an ordered list of recipient credits, signed as a whole. Immutable once
// signed; Sign overwrites any prior signature.
type Transaction struct {
	Nonce     uint16
	Outputs   []TxOutput
	Signature []byte

	sender string // cached recovery result, reset by Sign
}

// NewTransaction builds a transaction and validates every output.
func NewTransaction(nonce uint16, outputs []TxOutput) (*Transaction, error) {
	tx := &Transaction{Nonce: nonce}
	for _, out := range outputs {
		if err := tx.SetOut(out.Address, out.Amount); err != nil {
			return nil, err
		}
	}
	return tx, nil
}

// SetOut adds a recipient credit, or updates it in place when the address
// is already present so the encoded order stays stable.
func (tx *Transaction) SetOut(address string, amount uint64) error {
	if err := validateOutput(address, amount); err != nil {
		return err
	}
	for i := range tx.Outputs {
		if tx.Outputs[i].Address == address {
			tx.Outputs[i].Amount = amount
			return nil
		}
	}
	if len(tx.Outputs) >= maxOutputs {
		return fmt.Errorf("%w: more than %d outputs", ErrMalformedInput, maxOutputs)
	}
	tx.Outputs = append(tx.Outputs, TxOutput{Address: address, Amount: amount})
	return nil
}

// Value sums all output amounts, failing on uint64 overflow.
func (tx *Transaction) Value() (uint64, error) {
	var value uint64
	for _, out := range tx.Outputs {
		if value > math.MaxUint64-out.Amount {
			return 0, ErrOverflow
		}
		value += out.Amount
	}
	return value, nil
}

// Serialize returns the canonical little endian encoding:
// u16 nonce, i8 output count, then 20 raw address bytes and a u64 amount
// per output. The signature, when present and requested, is appended
// unframed.
func (tx *Transaction) Serialize(includeSignature bool) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, tx.Nonce)
	buf.WriteByte(byte(int8(len(tx.Outputs))))
	for _, out := range tx.Outputs {
		raw, _ := hex.DecodeString(out.Address) // validated in SetOut
		buf.Write(raw)
		binary.Write(&buf, binary.LittleEndian, out.Amount)
	}
	if includeSignature && tx.Signature != nil {
		buf.Write(tx.Signature)
	}
	return buf.Bytes()
}

// ID is the SHA3-256 digest of the full serialized form, signature
// included, so signing changes the id.
func (tx *Transaction) ID() string {
	return wallet.Sha3(tx.Serialize(true))
}

// Sign attaches a recoverable ECDSA signature over the unsigned encoding,
// replacing any previous signature.
func (tx *Transaction) Sign(privateKey string) error {
	signature, err := wallet.SignBytes(tx.Serialize(false), privateKey)
	if err != nil {
		return err
	}
	tx.Signature = signature
	tx.sender = ""
	return nil
}

// Sender recovers the signer address from the signature. Defined only for
// signed transactions.
func (tx *Transaction) Sender() (string, error) {
	if tx.Signature == nil {
		return "", fmt.Errorf("transaction not signed")
	}
	if tx.sender != "" {
		return tx.sender, nil
	}
	sender, err := wallet.RecoverBytes(tx.Serialize(false), tx.Signature)
	if err != nil {
		return "", err
	}
	tx.sender = sender
	return sender, nil
}

// DeserializeTransaction parses the canonical encoding. Bytes past the
// last output are taken as the signature; no cryptographic check happens
// here, sender recovery during block application does the verifying.
func DeserializeTransaction(data []byte) (*Transaction, error) {
	if len(data) < 3 {
		return nil, fmt.Errorf("%w: transaction too short", ErrMalformedInput)
	}
	nonce := binary.LittleEndian.Uint16(data[:2])
	outLen := int(int8(data[2]))
	if outLen < 0 {
		return nil, fmt.Errorf("%w: negative output count", ErrMalformedInput)
	}
	end := 3 + 28*outLen
	if len(data) < end {
		return nil, fmt.Errorf("%w: truncated outputs", ErrMalformedInput)
	}
	outputs := make([]TxOutput, 0, outLen)
	for i := 3; i < end; i += 28 {
		outputs = append(outputs, TxOutput{
			Address: hex.EncodeToString(data[i : i+20]),
			Amount:  binary.LittleEndian.Uint64(data[i+20 : i+28]),
		})
	}
	tx, err := NewTransaction(nonce, outputs)
	if err != nil {
		return nil, err
	}
	if len(data) > end {
		tx.Signature = append([]byte(nil), data[end:]...)
	}
	return tx, nil
}

// MarshalJSON renders the transaction with its derived id and, when
// signed, the recovered sender address.
func (tx *Transaction) MarshalJSON() ([]byte, error) {
	record := struct {
		Nonce     uint16     `json:"nonce"`
		Outputs   []TxOutput `json:"out"`
		Signature string     `json:"signature,omitempty"`
		ID        string     `json:"id"`
		Address   string     `json:"address,omitempty"`
	}{
		Nonce:   tx.Nonce,
		Outputs: tx.Outputs,
		ID:      tx.ID(),
	}
	if tx.Signature != nil {
		record.Signature = hex.EncodeToString(tx.Signature)
		sender, err := tx.Sender()
		if err != nil {
			return nil, err
		}
		record.Address = sender
	}
	return json.Marshal(record)
}
