package fees

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const (
	// MinPlatformFee is the lowest configurable platform fee percentage.
	MinPlatformFee     = 1
	// MaxPlatformFee is the highest configurable platform fee percentage.
	MaxPlatformFee     = 20
	// DefaultPlatformFee is applied when the factory is deployed.
	DefaultPlatformFee = 5

	percentDenominator = 100
)

var (
	ErrFeeOutOfRange  = errors.New("fees: platform fee out of range")
	ErrInvalidAmount  = errors.New("fees: amount must not be negative")
	ErrAmountOverflow = errors.New("fees: amount exceeds 256 bits")
)

// ValidatePercent reports whether pct is an acceptable platform fee.
func ValidatePercent(pct uint64) error {
	if pct < MinPlatformFee || pct > MaxPlatformFee {
		return ErrFeeOutOfRange
	}
	return nil
}

// ApplyInput captures the gross contribution and the fee percentage charged
// on it.
type ApplyInput struct {
	Gross   *big.Int
	Percent uint64
}

// ApplyResult holds the split of a contribution. Fee+Net always equals the
// gross amount.
type ApplyResult struct {
	Gross *big.Int
	Fee   *big.Int
	Net   *big.Int
}

// Apply splits the gross amount into the platform fee, floor(gross*pct/100),
// and the remainder forwarded to the campaign. Arithmetic is carried out in
// 256-bit words so amounts outside the uint256 domain are rejected.
func Apply(input ApplyInput) (ApplyResult, error) {
	gross := input.Gross
	if gross == nil {
		gross = big.NewInt(0)
	}
	if gross.Sign() < 0 {
		return ApplyResult{}, ErrInvalidAmount
	}
	amount, overflow := uint256.FromBig(gross)
	if overflow {
		return ApplyResult{}, ErrAmountOverflow
	}
	if input.Percent > percentDenominator {
		return ApplyResult{}, ErrFeeOutOfRange
	}
	fee, overflow := new(uint256.Int).MulOverflow(amount, uint256.NewInt(input.Percent))
	if overflow {
		return ApplyResult{}, ErrAmountOverflow
	}
	fee.Div(fee, uint256.NewInt(percentDenominator))
	net := new(uint256.Int).Sub(amount, fee)
	return ApplyResult{
		Gross: new(big.Int).Set(gross),
		Fee:   fee.ToBig(),
		Net:   net.ToBig(),
	}, nil
}

// Totals aggregates fee accounting per asset.
type Totals struct {
	Asset  common.Address
	Wallet common.Address
	Gross  *big.Int
	Fee    *big.Int
	Net    *big.Int
}

// Clone returns a copy of the totals structure with duplicated big.Int values.
func (t Totals) Clone() Totals {
	clone := Totals{Asset: t.Asset, Wallet: t.Wallet}
	clone.Gross = cloneOrZero(t.Gross)
	clone.Fee = cloneOrZero(t.Fee)
	clone.Net = cloneOrZero(t.Net)
	return clone
}

// Add accumulates a single split into the totals and records the wallet that
// received the fee.
func (t Totals) Add(result ApplyResult, wallet common.Address) Totals {
	out := t.Clone()
	out.Wallet = wallet
	out.Gross.Add(out.Gross, cloneOrZero(result.Gross))
	out.Fee.Add(out.Fee, cloneOrZero(result.Fee))
	out.Net.Add(out.Net, cloneOrZero(result.Net))
	return out
}

func cloneOrZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
