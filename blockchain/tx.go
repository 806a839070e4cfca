package blockchain

import (
	"fmt"

	"github.com/Vetrovec/chainee/wallet"
)

// TxOutput credits a single recipient. Outputs keep their insertion order:
// the order is part of the canonical encoding and therefore of the
// transaction id.
type TxOutput struct {
	Address string `json:"address"`
	Amount  uint64 `json:"amount"`
}

// validateOutput checks the recipient address and amount bounds shared by
// the constructor and SetOut.
func validateOutput(address string, amount uint64) error {
	if !wallet.ValidateAddress(address) {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	if amount < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}
	return nil
}
