package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Funder is a single entry of a campaign's deposit log. One entry is appended
// per deposit, so the same address may appear several times.
type Funder struct {
	FunderAddress common.Address `json:"funderAddress"`
	TokenAddress  common.Address `json:"tokenAddress"`
	Amount        *big.Int       `json:"amount"`
}

// Clone returns a deep copy of the funder entry.
func (f Funder) Clone() Funder {
	clone := f
	if f.Amount != nil {
		clone.Amount = new(big.Int).Set(f.Amount)
	} else {
		clone.Amount = big.NewInt(0)
	}
	return clone
}
