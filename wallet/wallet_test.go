package wallet

import (
	"errors"
	"testing"
)

const testPrivateKey = "685cf62751cef607271ed7190b6a707405c5b07ec0830156e748c0c2ea4a2cfe"

func TestSign(t *testing.T) {
	tests := []struct {
		name    string
		message string
		isHex   bool
		want    string
	}{
		{
			name:    "hex message",
			message: "abcdef",
			isHex:   true,
			want:    "b90e97baea96a2120a53d3ba34201705891e79beb8b86cfaf26a4e467264ac6e2481ffed9036a8403161d1d0bf7a7485f6e190d1ffdc1bccefd74fe6c547b30a01",
		},
		{
			name:    "text message",
			message: "test",
			isHex:   false,
			want:    "6f2dfa18ba808d126ef8d7664cbb5331a4464f6ab739f82981a179e47569550636daa57960b6bfeef2981ea61141ce34b2febe811394ce3b46ffde0ce121516101",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Sign(tt.message, testPrivateKey, tt.isHex)
			if err != nil {
				t.Fatalf("Sign: %v", err)
			}
			if got != tt.want {
				t.Errorf("Sign = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSignInvalidKey(t *testing.T) {
	if _, err := Sign("abcdef", "zz", true); !errors.Is(err, ErrInvalidPrivateKey) {
		t.Errorf("Sign with bad key returned %v, want ErrInvalidPrivateKey", err)
	}
}

func TestRecover(t *testing.T) {
	tests := []struct {
		name      string
		message   string
		signature string
		isHex     bool
	}{
		{
			name:      "hex message",
			message:   "abcdef",
			signature: "b90e97baea96a2120a53d3ba34201705891e79beb8b86cfaf26a4e467264ac6e2481ffed9036a8403161d1d0bf7a7485f6e190d1ffdc1bccefd74fe6c547b30a01",
			isHex:     true,
		},
		{
			name:      "text message",
			message:   "test",
			signature: "6f2dfa18ba808d126ef8d7664cbb5331a4464f6ab739f82981a179e47569550636daa57960b6bfeef2981ea61141ce34b2febe811394ce3b46ffde0ce121516101",
			isHex:     false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Recover(tt.message, tt.signature, tt.isHex)
			if err != nil {
				t.Fatalf("Recover: %v", err)
			}
			if want := "c70f4891d2ce22b1f62492605c1d5c2fc1a8ef47"; got != want {
				t.Errorf("Recover = %s, want %s", got, want)
			}
		})
	}
}

func TestRecoverInvalidSignature(t *testing.T) {
	if _, err := Recover("abcdef", "b90e97", true); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("Recover with short signature returned %v, want ErrInvalidSignature", err)
	}
}

func TestSignRecoverRoundTrip(t *testing.T) {
	privateKey := GeneratePrivateKey()
	address, err := AddressFromPrivate(privateKey)
	if err != nil {
		t.Fatalf("AddressFromPrivate: %v", err)
	}
	signature, err := Sign("roundtrip", privateKey, false)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	recovered, err := Recover("roundtrip", signature, false)
	if err != nil {
		t.Fatalf("Recover: %v", err)
	}
	if recovered != address {
		t.Errorf("recovered %s, want %s", recovered, address)
	}
}

func TestPrivateKeyFromSeed(t *testing.T) {
	got := PrivateKeyFromSeed("test")
	if want := "36f028580bb02cc8272a9a020f4200e346e276ae664e45ee80745574e2f5ab80"; got != want {
		t.Errorf("PrivateKeyFromSeed(test) = %s, want %s", got, want)
	}
	if !ValidatePrivateKey(got) {
		t.Errorf("seed derived key %s is not valid", got)
	}
}

func TestUnpaddedPrivateKey(t *testing.T) {
	// Keys with leading zeros stripped are still accepted.
	padded := "00000000000000000000000000000000000000000000000000000000000000ff"
	wantAddress, err := AddressFromPrivate(padded)
	if err != nil {
		t.Fatalf("AddressFromPrivate padded: %v", err)
	}
	gotAddress, err := AddressFromPrivate("ff")
	if err != nil {
		t.Fatalf("AddressFromPrivate unpadded: %v", err)
	}
	if gotAddress != wantAddress {
		t.Errorf("unpadded key address %s, want %s", gotAddress, wantAddress)
	}
}
