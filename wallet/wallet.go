package wallet

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"golang.org/x/crypto/sha3"
)

// compactSigMagic is the offset btcec adds to the recovery id in the
// leading byte of a compact signature.
const compactSigMagic = 27

// ErrInvalidPrivateKey is returned when a private key string is not a
// valid secp256k1 scalar.
var ErrInvalidPrivateKey = errors.New("private key not valid")

// ErrInvalidSignature is returned when a signature is not 65 bytes of
// compact ECDSA followed by a recovery id.
var ErrInvalidSignature = errors.New("signature not valid")

// GeneratePrivateKey draws 32 cryptographically random bytes until they
// fall inside (0, n) and returns the scalar as a 64 character zero padded
// hex string.
func GeneratePrivateKey() string {
	buf := make([]byte, 32)
	for {
		if _, err := rand.Read(buf); err != nil {
			// Exhausted entropy source, nothing sensible to do.
			panic(err)
		}
		key := hex.EncodeToString(buf)
		if ValidatePrivateKey(key) {
			return key
		}
	}
}

// PrivateKeyFromSeed derives a deterministic private key as the SHA3-256
// digest of the UTF-8 seed. Meant for test tooling, not real funds.
func PrivateKeyFromSeed(seed string) string {
	return Sha3([]byte(seed))
}

// parsePrivateKey pads, validates and decodes a hex private key.
func parsePrivateKey(privateKey string) (*btcec.PrivateKey, error) {
	if !ValidatePrivateKey(privateKey) || len(privateKey) > 64 {
		return nil, ErrInvalidPrivateKey
	}
	padded := strings.Repeat("0", 64-len(privateKey)) + strings.ToLower(privateKey)
	raw, err := hex.DecodeString(padded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	key, _ := btcec.PrivKeyFromBytes(raw)
	return key, nil
}

// PublicKeyFromPrivate returns the uncompressed public key of the private
// key with the leading 04 byte stripped (128 hex characters).
func PublicKeyFromPrivate(privateKey string) (string, error) {
	key, err := parsePrivateKey(privateKey)
	if err != nil {
		return "", err
	}
	uncompressed := key.PubKey().SerializeUncompressed()
	return hex.EncodeToString(uncompressed[1:]), nil
}

// AddressFromPublic derives an account address from an uncompressed public
// key without the 04 prefix: the last 20 bytes of its SHA3-256 digest.
func AddressFromPublic(pubKey string) (string, error) {
	digest, err := Sha3String(pubKey, true)
	if err != nil {
		return "", fmt.Errorf("decode public key: %w", err)
	}
	return digest[len(digest)-40:], nil
}

// AddressFromPrivate derives the account address controlled by privateKey.
func AddressFromPrivate(privateKey string) (string, error) {
	pubKey, err := PublicKeyFromPrivate(privateKey)
	if err != nil {
		return "", err
	}
	return AddressFromPublic(pubKey)
}

// messageBytes applies the shared input convention: hex strings are
// decoded, anything else is treated as UTF-8 text.
func messageBytes(message string, isHex bool) ([]byte, error) {
	if !isHex {
		return []byte(message), nil
	}
	data, err := hex.DecodeString(message)
	if err != nil {
		return nil, fmt.Errorf("decode hex message: %w", err)
	}
	return data, nil
}

// SignBytes signs the SHA3-256 digest of data with a recoverable ECDSA
// signature: 64 compact bytes followed by a single recovery id byte.
func SignBytes(data []byte, privateKey string) ([]byte, error) {
	key, err := parsePrivateKey(privateKey)
	if err != nil {
		return nil, err
	}
	digest := sha3.Sum256(data)
	compact, err := ecdsa.SignCompact(key, digest[:], false)
	if err != nil {
		return nil, err
	}
	// btcec puts the recovery id first (offset by 27); the wire format
	// wants it appended after r||s.
	signature := make([]byte, 65)
	copy(signature, compact[1:])
	signature[64] = compact[0] - compactSigMagic
	return signature, nil
}

// Sign signs a message with the private key and returns the 65 byte
// recoverable signature hex encoded. When isHex is true the message is hex
// decoded first, otherwise it is signed as UTF-8 text.
func Sign(message, privateKey string, isHex bool) (string, error) {
	data, err := messageBytes(message, isHex)
	if err != nil {
		return "", err
	}
	signature, err := SignBytes(data, privateKey)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(signature), nil
}

// RecoverBytes recovers the signer address from data and a 65 byte
// recoverable signature.
func RecoverBytes(data, signature []byte) (string, error) {
	if len(signature) != 65 {
		return "", ErrInvalidSignature
	}
	digest := sha3.Sum256(data)
	compact := make([]byte, 65)
	compact[0] = signature[64] + compactSigMagic
	copy(compact[1:], signature[:64])
	pubKey, _, err := ecdsa.RecoverCompact(compact, digest[:])
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	uncompressed := pubKey.SerializeUncompressed()
	return AddressFromPublic(hex.EncodeToString(uncompressed[1:]))
}

// Recover recovers the signer address from a message and a hex encoded
// recoverable signature. The isHex flag follows the same convention as Sign.
func Recover(message, signature string, isHex bool) (string, error) {
	data, err := messageBytes(message, isHex)
	if err != nil {
		return "", err
	}
	raw, err := hex.DecodeString(signature)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return RecoverBytes(data, raw)
}
