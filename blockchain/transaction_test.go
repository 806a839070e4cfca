package blockchain

import (
	"bytes"
	"encoding/hex"
	"errors"
	"math"
	"testing"
)

const (
	testPrivateKey = "685cf62751cef607271ed7190b6a707405c5b07ec0830156e748c0c2ea4a2cfe"
	testSender     = "c70f4891d2ce22b1f62492605c1d5c2fc1a8ef47"
	testRecipient  = "38fb65b08416b9870067b6cba63fa50a81bc78c8"
)

func signedTestTransaction(t *testing.T) *Transaction {
	t.Helper()
	tx, err := NewTransaction(1, []TxOutput{{Address: testRecipient, Amount: 100}})
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	if err := tx.Sign(testPrivateKey); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	return tx
}

func TestTransactionID(t *testing.T) {
	tx := signedTestTransaction(t)
	if want := "d1ed0b9ab80eb6dcacb8d54cc164700e34a1950fbe0589a181b158568f7c4041"; tx.ID() != want {
		t.Errorf("ID = %s, want %s", tx.ID(), want)
	}
}

func TestTransactionSender(t *testing.T) {
	tx := signedTestTransaction(t)
	sender, err := tx.Sender()
	if err != nil {
		t.Fatalf("Sender: %v", err)
	}
	if sender != testSender {
		t.Errorf("Sender = %s, want %s", sender, testSender)
	}
}

func TestTransactionSenderUnsigned(t *testing.T) {
	tx, err := NewTransaction(1, []TxOutput{{Address: testRecipient, Amount: 100}})
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	if _, err := tx.Sender(); err == nil {
		t.Error("expected error recovering sender of unsigned transaction")
	}
}

func TestTransactionValue(t *testing.T) {
	tx := signedTestTransaction(t)
	value, err := tx.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if value != 100 {
		t.Errorf("Value = %d, want 100", value)
	}
}

func TestTransactionValueOverflow(t *testing.T) {
	tx, err := NewTransaction(0, []TxOutput{
		{Address: testRecipient, Amount: math.MaxUint64},
		{Address: testSender, Amount: 1},
	})
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	if _, err := tx.Value(); !errors.Is(err, ErrOverflow) {
		t.Errorf("Value returned %v, want ErrOverflow", err)
	}
}

func TestTransactionSerialize(t *testing.T) {
	tx := signedTestTransaction(t)
	want := "01000138fb65b08416b9870067b6cba63fa50a81bc78c8640000000000000034c4ac66523f355dba984e99baff0d991096bcf52b64909201a604b78fb48433106b598de5a8a69a79655414338dc43f8f197ed0d607e29f12d6f67b6fb852a301"
	if got := hex.EncodeToString(tx.Serialize(true)); got != want {
		t.Errorf("Serialize = %s, want %s", got, want)
	}
}

func TestTransactionDeserialize(t *testing.T) {
	tx := signedTestTransaction(t)
	serialized := tx.Serialize(true)
	parsed, err := DeserializeTransaction(serialized)
	if err != nil {
		t.Fatalf("DeserializeTransaction: %v", err)
	}
	if !bytes.Equal(parsed.Serialize(true), serialized) {
		t.Error("round trip produced different bytes")
	}
	if parsed.ID() != tx.ID() {
		t.Errorf("round trip id %s, want %s", parsed.ID(), tx.ID())
	}
}

func TestTransactionDeserializeUnsigned(t *testing.T) {
	tx, err := NewTransaction(7, []TxOutput{{Address: testRecipient, Amount: 3}})
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	parsed, err := DeserializeTransaction(tx.Serialize(true))
	if err != nil {
		t.Fatalf("DeserializeTransaction: %v", err)
	}
	if parsed.Signature != nil {
		t.Error("expected no signature on unsigned round trip")
	}
	if parsed.Nonce != 7 {
		t.Errorf("nonce = %d, want 7", parsed.Nonce)
	}
}

func TestTransactionDeserializeMalformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short header", []byte{1, 0}},
		{"truncated outputs", []byte{1, 0, 2, 0xaa}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DeserializeTransaction(tt.data); !errors.Is(err, ErrMalformedInput) {
				t.Errorf("DeserializeTransaction returned %v, want ErrMalformedInput", err)
			}
		})
	}
}

func TestNewTransactionValidation(t *testing.T) {
	if _, err := NewTransaction(0, []TxOutput{{Address: "1234", Amount: 5}}); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("bad address returned %v, want ErrInvalidAddress", err)
	}
	if _, err := NewTransaction(0, []TxOutput{{Address: testRecipient, Amount: 0}}); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("zero amount returned %v, want ErrInvalidAmount", err)
	}
}

func TestSetOutUpdatesInPlace(t *testing.T) {
	tx, err := NewTransaction(0, []TxOutput{
		{Address: testRecipient, Amount: 1},
		{Address: testSender, Amount: 2},
	})
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	if err := tx.SetOut(testRecipient, 9); err != nil {
		t.Fatalf("SetOut: %v", err)
	}
	if len(tx.Outputs) != 2 {
		t.Fatalf("outputs = %d, want 2", len(tx.Outputs))
	}
	if tx.Outputs[0].Address != testRecipient || tx.Outputs[0].Amount != 9 {
		t.Errorf("first output = %+v, want updated %s amount 9", tx.Outputs[0], testRecipient)
	}
}

func TestSignChangesID(t *testing.T) {
	tx, err := NewTransaction(1, []TxOutput{{Address: testRecipient, Amount: 100}})
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	unsignedID := tx.ID()
	if err := tx.Sign(testPrivateKey); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if tx.ID() == unsignedID {
		t.Error("signing should change the transaction id")
	}
}
