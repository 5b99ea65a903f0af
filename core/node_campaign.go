package core

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"capitafund/native/bank"
	"capitafund/native/token"
)

// EndCampaign closes a campaign on behalf of its owner.
func (n *Node) EndCampaign(ctx context.Context, caller, addr common.Address) error {
	return n.execute(ctx, "campaign_end", caller, func(tx *txContext) error {
		_, err := tx.campaigns.EndCampaign(caller, addr)
		return err
	})
}

func (n *Node) UpdateStartTime(ctx context.Context, caller, addr common.Address, startTime uint64) error {
	return n.execute(ctx, "campaign_updateStartTime", caller, func(tx *txContext) error {
		return tx.campaigns.UpdateStartTime(caller, addr, startTime)
	})
}

func (n *Node) UpdateEndTime(ctx context.Context, caller, addr common.Address, endTime uint64) error {
	return n.execute(ctx, "campaign_updateEndTime", caller, func(tx *txContext) error {
		return tx.campaigns.UpdateEndTime(caller, addr, endTime)
	})
}

func (n *Node) UpdateMetadataURI(ctx context.Context, caller, addr common.Address, uri string) error {
	return n.execute(ctx, "campaign_updateMetadataURI", caller, func(tx *txContext) error {
		return tx.campaigns.UpdateMetadataURI(caller, addr, uri)
	})
}

// TokenApprove sets the allowance spender may pull from caller. Funders
// approve the campaign address before a token contribution.
func (n *Node) TokenApprove(ctx context.Context, caller, tok, spender common.Address, amount *big.Int) error {
	return n.execute(ctx, "token_approve", caller, func(tx *txContext) error {
		impl, err := n.registry.Resolve(tok)
		if err != nil {
			return err
		}
		ok, err := impl.Approve(tx.state, caller, spender, amount)
		if err != nil {
			return err
		}
		if !ok {
			return token.ErrTransferFailed
		}
		return nil
	})
}

// TokenTransfer moves amount of tok from caller to another holder.
func (n *Node) TokenTransfer(ctx context.Context, caller, tok, to common.Address, amount *big.Int) error {
	return n.execute(ctx, "token_transfer", caller, func(tx *txContext) error {
		impl, err := n.registry.Resolve(tok)
		if err != nil {
			return err
		}
		return token.SafeTransfer(impl, tx.state, caller, to, amount)
	})
}

// NativeTransfer moves native coin from caller to another holder.
func (n *Node) NativeTransfer(ctx context.Context, caller, to common.Address, amount *big.Int) error {
	return n.execute(ctx, "native_transfer", caller, func(tx *txContext) error {
		return bank.Transfer(tx.state, caller, to, amount)
	})
}
