package factory

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// DefaultMaxBatchSize caps the number of campaigns a batch moderation call
	// may touch.
	DefaultMaxBatchSize = 50
)

// DefaultFundingLimit is the USD value (18 decimals) an unverified creator's
// campaign may collect in capped assets.
var DefaultFundingLimit = new(big.Int).Mul(big.NewInt(35_000), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

// Factory is the persisted singleton record of the platform factory.
type Factory struct {
	Address       common.Address
	Owner         common.Address
	Paused        bool
	PlatformFee   uint64
	FeeWallet     common.Address
	StableCoin    common.Address
	CapitaToken   common.Address
	CapitaPoints  common.Address
	LimitsEnabled bool
	CampaignCount uint64
}

// Clone returns a copy of the record.
func (f *Factory) Clone() *Factory {
	if f == nil {
		return nil
	}
	clone := *f
	return &clone
}

// Params are the deployment-time knobs of the factory that are not part of
// its persisted record.
type Params struct {
	FundingLimit *big.Int
	MaxBatchSize int
	// CapNativeContributions counts native-coin deposits towards the
	// unverified-creator limit.
	CapNativeContributions bool
}

// DefaultParams returns the stock configuration.
func DefaultParams() Params {
	return Params{
		FundingLimit: new(big.Int).Set(DefaultFundingLimit),
		MaxBatchSize: DefaultMaxBatchSize,
	}
}

func (p Params) normalized() Params {
	out := p
	if out.FundingLimit == nil || out.FundingLimit.Sign() <= 0 {
		out.FundingLimit = new(big.Int).Set(DefaultFundingLimit)
	} else {
		out.FundingLimit = new(big.Int).Set(out.FundingLimit)
	}
	if out.MaxBatchSize <= 0 {
		out.MaxBatchSize = DefaultMaxBatchSize
	}
	return out
}

// InitParams describes the factory at deployment.
type InitParams struct {
	Address     common.Address
	Owner       common.Address
	FeeWallet   common.Address
	StableCoin  common.Address
	CapitaToken common.Address
}
