package campaign

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// MaxOtherTokens bounds the number of additional assets a campaign accepts.
const MaxOtherTokens = 5

// Campaign is the persisted record of a single fundraising effort.
type Campaign struct {
	Address     common.Address
	Factory     common.Address
	Owner       common.Address
	StableCoin  common.Address
	CapitaToken common.Address
	StartTime   uint64
	EndTime     uint64
	MetadataURI string
	OtherTokens []common.Address

	Paused                    bool
	FundingApproved           bool
	FundingDisapproved        bool
	Ended                     bool
	WithdrawApproved          bool
	WithdrawalApprovalRevoked bool

	FundersCount uint64
	// CappedValue is the USD value (18 decimals) of the deposits counted
	// towards the unverified-creator funding limit.
	CappedValue *big.Int
	CreatedAt   uint64
}

// Clone returns a deep copy of the campaign record.
func (c *Campaign) Clone() *Campaign {
	if c == nil {
		return nil
	}
	clone := *c
	clone.OtherTokens = append([]common.Address(nil), c.OtherTokens...)
	if c.CappedValue != nil {
		clone.CappedValue = new(big.Int).Set(c.CappedValue)
	} else {
		clone.CappedValue = big.NewInt(0)
	}
	return &clone
}

// Accepts reports whether asset may be deposited into the campaign. The
// native coin and the two platform assets are always accepted.
func (c *Campaign) Accepts(asset common.Address) bool {
	if c == nil {
		return false
	}
	if asset == (common.Address{}) || asset == c.StableCoin || asset == c.CapitaToken {
		return true
	}
	for _, token := range c.OtherTokens {
		if token == asset {
			return true
		}
	}
	return false
}

// Tokens lists the fungible assets held by the campaign in withdrawal order:
// the stable coin, the capita token and then the additional tokens. Duplicates
// are dropped.
func (c *Campaign) Tokens() []common.Address {
	if c == nil {
		return nil
	}
	seen := make(map[common.Address]struct{}, 2+len(c.OtherTokens))
	out := make([]common.Address, 0, 2+len(c.OtherTokens))
	for _, token := range append([]common.Address{c.StableCoin, c.CapitaToken}, c.OtherTokens...) {
		if token == (common.Address{}) {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}

// Started reports whether the funding period has begun at now.
func (c *Campaign) Started(now uint64) bool {
	return c != nil && now >= c.StartTime
}

// Over reports whether the funding period has finished at now, either
// explicitly or because the end time passed.
func (c *Campaign) Over(now uint64) bool {
	return c != nil && (c.Ended || now > c.EndTime)
}

// FundingOpen returns the lifecycle error that blocks a deposit at now, or
// nil when the campaign accepts contributions.
func (c *Campaign) FundingOpen(now uint64) error {
	switch {
	case c == nil:
		return ErrCampaignNotFound
	case !c.Started(now):
		return ErrFundingPeriodNotStarted
	case c.Over(now):
		return ErrFundingPeriodOver
	case c.Paused:
		return ErrFundingPaused
	case c.FundingDisapproved:
		return ErrFundingDisapproved
	case !c.FundingApproved:
		return ErrFundingNotApproved
	}
	return nil
}

// Withdrawable reports whether moderators have released the funds.
func (c *Campaign) Withdrawable() bool {
	return c != nil && c.WithdrawApproved && !c.WithdrawalApprovalRevoked
}

// DeployParams describes a campaign about to be created by the factory.
type DeployParams struct {
	Address     common.Address
	Owner       common.Address
	StableCoin  common.Address
	CapitaToken common.Address
	StartTime   uint64
	EndTime     uint64
	MetadataURI string
	OtherTokens []common.Address
}

// DepositInput carries a contribution forwarded by the factory. Amount is the
// gross contribution, Fee and Net its split. CapValue is the USD value counted
// towards Limit; a nil Limit disables the cap for this deposit.
type DepositInput struct {
	Funder    common.Address
	Token     common.Address
	Amount    *big.Int
	Value     *big.Int
	Fee       *big.Int
	Net       *big.Int
	FeeWallet common.Address
	CapValue  *big.Int
	Limit     *big.Int
}

// WithdrawResult summarises a multi-asset withdrawal.
type WithdrawResult struct {
	Withdrawn map[common.Address]*big.Int
	Failed    []common.Address
}
