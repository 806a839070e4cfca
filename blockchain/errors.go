package blockchain

import "errors"

// Sentinel errors for everything the core can reject. Callers match with
// errors.Is; messages carry context via fmt.Errorf("%w: ...").
var (
	// ErrInvalidAddress marks a recipient or state key that is not a 40
	// character hex address.
	ErrInvalidAddress = errors.New("address not valid")

	// ErrInvalidAmount marks a transaction output amount below 1.
	ErrInvalidAmount = errors.New("amount not valid")

	// ErrInvalidRoot marks a deserialized block whose stored transactions
	// root does not match the recomputed one.
	ErrInvalidRoot = errors.New("invalid root")

	// ErrInvalidNumber marks a block whose number does not follow the tip.
	ErrInvalidNumber = errors.New("invalid number")

	// ErrInvalidParent marks a block whose parent hash does not match the
	// tip hash.
	ErrInvalidParent = errors.New("invalid parent hash")

	// ErrSelfPayment marks a transaction paying its own sender.
	ErrSelfPayment = errors.New("receiver same as sender")

	// ErrInsufficientBalance marks a transaction spending more than the
	// sender's balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrStaleNonce marks a transaction reusing a nonce below the
	// sender's account nonce.
	ErrStaleNonce = errors.New("previously used nonce")

	// ErrOverflow marks a transaction whose output sum exceeds uint64.
	ErrOverflow = errors.New("value overflow")

	// ErrMalformedInput marks truncated or wrong sized input to any
	// deserializer.
	ErrMalformedInput = errors.New("malformed input")
)
