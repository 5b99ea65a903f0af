package core

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"capitafund/core/state"
	"capitafund/core/types"
	"capitafund/native/bank"
	"capitafund/native/campaign"
	"capitafund/native/factory"
	"capitafund/native/fees"
	"capitafund/native/token"
)

// Factory returns the factory record.
func (n *Node) Factory() (*factory.Factory, error) {
	var out *factory.Factory
	err := n.view(func(tx *txContext) error {
		var err error
		out, err = tx.factory.Factory()
		return err
	})
	return out, err
}

func (n *Node) IsModerator(addr common.Address) (bool, error) {
	var out bool
	err := n.view(func(tx *txContext) error {
		var err error
		out, err = tx.factory.IsModerator(addr)
		return err
	})
	return out, err
}

func (n *Node) IsVerifiedCreator(addr common.Address) (bool, error) {
	var out bool
	err := n.view(func(tx *txContext) error {
		var err error
		out, err = tx.factory.IsVerifiedCreator(addr)
		return err
	})
	return out, err
}

func (n *Node) CheckAcceptableToken(tok common.Address) (bool, error) {
	var out bool
	err := n.view(func(tx *txContext) error {
		var err error
		out, err = tx.factory.CheckAcceptableTokenAddress(tok)
		return err
	})
	return out, err
}

func (n *Node) AcceptableTokens() ([]common.Address, error) {
	return n.addresses(func(tx *txContext) ([]common.Address, error) {
		return tx.factory.AcceptableTokens()
	})
}

// DeployedCampaigns lists every campaign in creation order.
func (n *Node) DeployedCampaigns() ([]common.Address, error) {
	return n.addresses(func(tx *txContext) ([]common.Address, error) {
		return tx.factory.DeployedCampaigns()
	})
}

// UserCampaigns lists the campaigns created by user.
func (n *Node) UserCampaigns(user common.Address) ([]common.Address, error) {
	return n.addresses(func(tx *txContext) ([]common.Address, error) {
		return tx.factory.UserCampaigns(user)
	})
}

func (n *Node) addresses(read func(tx *txContext) ([]common.Address, error)) ([]common.Address, error) {
	var out []common.Address
	err := n.view(func(tx *txContext) error {
		var err error
		out, err = read(tx)
		return err
	})
	return out, err
}

// FeeTotals returns the accumulated fee split for asset.
func (n *Node) FeeTotals(asset common.Address) (fees.Totals, error) {
	var out fees.Totals
	err := n.view(func(tx *txContext) error {
		var err error
		out, err = tx.factory.FeeTotals(asset)
		return err
	})
	return out, err
}

func (n *Node) Campaign(addr common.Address) (*campaign.Campaign, error) {
	var out *campaign.Campaign
	err := n.view(func(tx *txContext) error {
		var err error
		out, err = tx.campaigns.Get(addr)
		return err
	})
	return out, err
}

// Funders returns the deposit log of a campaign in arrival order.
func (n *Node) Funders(addr common.Address) ([]types.Funder, error) {
	var out []types.Funder
	err := n.view(func(tx *txContext) error {
		var err error
		out, err = tx.campaigns.GetFundersDetails(addr)
		return err
	})
	return out, err
}

// Contribution returns the cumulative gross amount funder gave in asset.
func (n *Node) Contribution(addr, funder, asset common.Address) (*big.Int, error) {
	return n.amount(func(tx *txContext) (*big.Int, error) {
		return tx.campaigns.Contribution(addr, funder, asset)
	})
}

func (n *Node) SpenderPoints(addr common.Address) (*big.Int, error) {
	return n.amount(func(tx *txContext) (*big.Int, error) {
		return tx.points.GetSpenderPoints(addr)
	})
}

func (n *Node) NativeBalance(addr common.Address) (*big.Int, error) {
	return n.amount(func(tx *txContext) (*big.Int, error) {
		return bank.Balance(tx.state, addr)
	})
}

func (n *Node) TokenBalance(tok, holder common.Address) (*big.Int, error) {
	return n.amount(func(tx *txContext) (*big.Int, error) {
		impl, err := n.registry.Resolve(tok)
		if err != nil {
			return nil, err
		}
		return token.SafeBalanceOf(impl, tx.state, holder)
	})
}

func (n *Node) TokenAllowance(tok, owner, spender common.Address) (*big.Int, error) {
	return n.amount(func(tx *txContext) (*big.Int, error) {
		if _, err := n.ledger(tok); err != nil {
			return nil, err
		}
		allowance, err := tx.state.TokenAllowance(tok, owner, spender)
		if err != nil {
			return nil, err
		}
		if allowance == nil {
			return big.NewInt(0), nil
		}
		return allowance, nil
	})
}

func (n *Node) amount(read func(tx *txContext) (*big.Int, error)) (*big.Int, error) {
	var out *big.Int
	err := n.view(func(tx *txContext) error {
		var err error
		out, err = read(tx)
		return err
	})
	return out, err
}

// Events returns up to limit committed events starting at offset.
func (n *Node) Events(offset, limit uint64) ([]state.EventRecord, error) {
	var out []state.EventRecord
	err := n.view(func(tx *txContext) error {
		var err error
		out, err = tx.state.Events(offset, limit)
		return err
	})
	return out, err
}

// Height returns the number of committed transactions.
func (n *Node) Height() (uint64, error) {
	var out uint64
	err := n.view(func(tx *txContext) error {
		var err error
		out, err = tx.state.Height()
		return err
	})
	return out, err
}
