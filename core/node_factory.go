package core

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"capitafund/native/campaign"
	"capitafund/native/factory"
)

func (n *Node) AddModerator(ctx context.Context, caller, moderator common.Address) error {
	return n.execute(ctx, "factory_addModerator", caller, func(tx *txContext) error {
		return tx.factory.AddModerator(caller, moderator)
	})
}

func (n *Node) RemoveModerator(ctx context.Context, caller, moderator common.Address) error {
	return n.execute(ctx, "factory_removeModerator", caller, func(tx *txContext) error {
		return tx.factory.RemoveModerator(caller, moderator)
	})
}

func (n *Node) SetCapitaPointsAddress(ctx context.Context, caller, points common.Address) error {
	return n.execute(ctx, "factory_setCapitaPoints", caller, func(tx *txContext) error {
		return tx.factory.SetCapitaPointsAddress(caller, points)
	})
}

func (n *Node) UpdatePaused(ctx context.Context, caller common.Address, paused bool) error {
	return n.execute(ctx, "factory_updatePaused", caller, func(tx *txContext) error {
		return tx.factory.UpdatePaused(caller, paused)
	})
}

func (n *Node) SetAcceptableToken(ctx context.Context, caller, tok common.Address) error {
	return n.execute(ctx, "factory_setAcceptableToken", caller, func(tx *txContext) error {
		return tx.factory.SetAcceptableToken(caller, tok)
	})
}

func (n *Node) RemoveTokenAddress(ctx context.Context, caller, tok common.Address) error {
	return n.execute(ctx, "factory_removeToken", caller, func(tx *txContext) error {
		return tx.factory.RemoveTokenAddress(caller, tok)
	})
}

func (n *Node) UpdatePlatformFee(ctx context.Context, caller common.Address, fee uint64) error {
	return n.execute(ctx, "factory_updatePlatformFee", caller, func(tx *txContext) error {
		return tx.factory.UpdatePlatformFee(caller, fee)
	})
}

func (n *Node) UpdateFeeWalletAddress(ctx context.Context, caller, wallet common.Address) error {
	return n.execute(ctx, "factory_updateFeeWallet", caller, func(tx *txContext) error {
		return tx.factory.UpdateFeeWalletAddress(caller, wallet)
	})
}

func (n *Node) VerifyCreator(ctx context.Context, caller, creator common.Address, verified bool) error {
	return n.execute(ctx, "factory_verifyCreator", caller, func(tx *txContext) error {
		return tx.factory.VerifyCreator(caller, creator, verified)
	})
}

func (n *Node) UpdateLimitsEnabled(ctx context.Context, caller common.Address, enabled bool) error {
	return n.execute(ctx, "factory_updateLimitsEnabled", caller, func(tx *txContext) error {
		return tx.factory.UpdateLimitsEnabled(caller, enabled)
	})
}

// CreateCampaign deploys a campaign owned by caller and returns its address.
func (n *Node) CreateCampaign(ctx context.Context, caller common.Address, startTime, endTime uint64, metadataURI string, otherTokens []common.Address) (common.Address, error) {
	var addr common.Address
	err := n.execute(ctx, "factory_createCampaign", caller, func(tx *txContext) error {
		var err error
		addr, err = tx.factory.CreateChainFundMe(caller, startTime, endTime, metadataURI, otherTokens)
		return err
	})
	return addr, err
}

func (n *Node) ApproveFunding(ctx context.Context, caller, addr common.Address) error {
	return n.execute(ctx, "factory_approveFunding", caller, func(tx *txContext) error {
		return tx.factory.ApproveFunding(caller, addr)
	})
}

func (n *Node) DisapproveFunding(ctx context.Context, caller, addr common.Address, disapproved bool) error {
	return n.execute(ctx, "factory_disapproveFunding", caller, func(tx *txContext) error {
		return tx.factory.DisapproveFunding(caller, addr, disapproved)
	})
}

func (n *Node) PauseCampaign(ctx context.Context, caller, addr common.Address, paused bool) error {
	return n.execute(ctx, "factory_pauseCampaign", caller, func(tx *txContext) error {
		return tx.factory.PauseCampaign(caller, addr, paused)
	})
}

func (n *Node) ApproveWithdraw(ctx context.Context, caller, addr common.Address) error {
	return n.execute(ctx, "factory_approveWithdraw", caller, func(tx *txContext) error {
		return tx.factory.ApproveWithdraw(caller, addr)
	})
}

func (n *Node) RevokeApproval(ctx context.Context, caller, addr common.Address, revoked bool) error {
	return n.execute(ctx, "factory_revokeApproval", caller, func(tx *txContext) error {
		return tx.factory.RevokeApproval(caller, addr, revoked)
	})
}

// BatchApproveFunding approves every campaign or none of them.
func (n *Node) BatchApproveFunding(ctx context.Context, caller common.Address, addrs []common.Address) error {
	return n.execute(ctx, "factory_batchApproveFunding", caller, func(tx *txContext) error {
		return tx.factory.BatchApproveFunding(caller, addrs)
	})
}

func (n *Node) BatchDisapproveFunding(ctx context.Context, caller common.Address, addrs []common.Address, disapproved bool) error {
	return n.execute(ctx, "factory_batchDisapproveFunding", caller, func(tx *txContext) error {
		return tx.factory.BatchDisapproveFunding(caller, addrs, disapproved)
	})
}

func (n *Node) BatchApproveWithdraw(ctx context.Context, caller common.Address, addrs []common.Address) error {
	return n.execute(ctx, "factory_batchApproveWithdraw", caller, func(tx *txContext) error {
		return tx.factory.BatchApproveWithdraw(caller, addrs)
	})
}

// WithdrawETH pays the native balance of a campaign to its creator.
func (n *Node) WithdrawETH(ctx context.Context, caller, addr common.Address) (*big.Int, error) {
	var amount *big.Int
	err := n.execute(ctx, "factory_withdrawETH", caller, func(tx *txContext) error {
		var err error
		amount, err = tx.factory.WithdrawETH(caller, addr)
		return err
	})
	return amount, err
}

// WithdrawTokens pays every token balance of a campaign to its creator.
// Tokens whose transfer fails are reported and left in the campaign.
func (n *Node) WithdrawTokens(ctx context.Context, caller, addr common.Address) (*campaign.WithdrawResult, error) {
	var result *campaign.WithdrawResult
	err := n.execute(ctx, "factory_withdrawTokens", caller, func(tx *txContext) error {
		var err error
		result, err = tx.factory.WithdrawTokens(caller, addr)
		return err
	})
	if err == nil && result != nil {
		for _, failed := range result.Failed {
			n.metrics.RecordWithdrawalFailure(failed.Hex())
		}
	}
	return result, err
}

// Fund contributes amount of asset to a campaign. For the native coin value
// is the coin attached to the call.
func (n *Node) Fund(ctx context.Context, caller, addr, asset common.Address, amount, value *big.Int) (*factory.FundResult, error) {
	var result *factory.FundResult
	err := n.execute(ctx, "factory_fund", caller, func(tx *txContext) error {
		var err error
		result, err = tx.factory.FundChainFundMe(caller, addr, asset, amount, value)
		return err
	})
	if err != nil {
		return nil, err
	}
	n.metrics.RecordDeposit(n.assetLabel(asset))
	n.metrics.AddPoints(result.Points)
	return result, nil
}

func (n *Node) assetLabel(asset common.Address) string {
	if asset == (common.Address{}) {
		return "native"
	}
	if ledger, ok := n.ledgers[asset]; ok {
		return ledger.Symbol()
	}
	return asset.Hex()
}
