package core

import (
	"context"

	"capitafund/native/bank"
	"capitafund/native/factory"
)

// bootstrap deploys the factory and points ledger described by the genesis
// spec. It is a no-op once the factory exists.
func (n *Node) bootstrap(ctx context.Context) error {
	var initialized bool
	if err := n.view(func(tx *txContext) error {
		_, ok, err := tx.state.FactoryGet()
		initialized = ok
		return err
	}); err != nil {
		return err
	}
	if initialized {
		return nil
	}
	spec := n.genesis
	owner := spec.OwnerAddress()
	return n.execute(ctx, "genesis", owner, func(tx *txContext) error {
		if _, err := tx.factory.Init(factory.InitParams{
			Address:     spec.FactoryAddress(),
			Owner:       owner,
			FeeWallet:   spec.FeeWalletAddress(),
			StableCoin:  spec.StableCoinAddress(),
			CapitaToken: spec.CapitaTokenAddress(),
		}); err != nil {
			return err
		}
		for _, moderator := range spec.ModeratorAddresses() {
			if err := tx.factory.AddModerator(owner, moderator); err != nil {
				return err
			}
		}
		for _, tok := range spec.ExtraTokenAddresses() {
			if err := tx.factory.SetAcceptableToken(owner, tok); err != nil {
				return err
			}
		}
		for _, creator := range spec.VerifiedCreatorAddresses() {
			if err := tx.factory.VerifyCreator(owner, creator, true); err != nil {
				return err
			}
		}
		if err := tx.factory.SetCapitaPointsAddress(owner, spec.PointsAddress()); err != nil {
			return err
		}
		allocs, err := spec.Allocations()
		if err != nil {
			return err
		}
		for _, alloc := range allocs {
			if alloc.Native {
				if err := bank.Credit(tx.state, alloc.Holder, alloc.Amount); err != nil {
					return err
				}
				continue
			}
			ledger, err := n.ledger(alloc.Asset)
			if err != nil {
				return err
			}
			if err := ledger.Mint(tx.state, alloc.Holder, alloc.Amount); err != nil {
				return err
			}
		}
		return nil
	})
}
