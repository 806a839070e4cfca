package wallet

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/sha3"
)

// curveOrder is the order n of the secp256k1 group.
// https://www.secg.org/sec2-v2.pdf
var curveOrder, _ = new(big.Int).SetString(
	"FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEBAAEDCE6AF48A03BBFD25E8CD0364141", 16)

// Timestamp returns the current time as unix seconds.
func Timestamp() uint32 {
	return uint32(time.Now().Unix())
}

// IsHexString reports whether every character of input is a hex digit.
// Case-insensitive; the empty string counts as hex.
func IsHexString(input string) bool {
	for _, c := range input {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// ValidateAddress checks that address is a 40 character hex string,
// the canonical form of a 20 byte account address.
func ValidateAddress(address string) bool {
	return IsHexString(address) && len(address) == 40
}

// ValidatePrivateKey checks that privateKey is a hex encoded scalar k
// with 0 < k < n. Leading zeros may be omitted.
func ValidatePrivateKey(privateKey string) bool {
	if !IsHexString(privateKey) {
		return false
	}
	k, ok := new(big.Int).SetString(privateKey, 16)
	if !ok {
		return false
	}
	return k.Sign() > 0 && k.Cmp(curveOrder) < 0
}

// Sha3 hashes raw bytes with SHA3-256 and returns the lowercase hex digest.
func Sha3(data []byte) string {
	digest := sha3.Sum256(data)
	return hex.EncodeToString(digest[:])
}

// Sha3String hashes a string input. When isHex is true the input is first
// hex decoded; otherwise it is hashed as UTF-8 text.
func Sha3String(input string, isHex bool) (string, error) {
	if !isHex {
		return Sha3([]byte(input)), nil
	}
	data, err := hex.DecodeString(input)
	if err != nil {
		return "", fmt.Errorf("decode hex input: %w", err)
	}
	return Sha3(data), nil
}
