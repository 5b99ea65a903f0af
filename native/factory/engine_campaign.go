package factory

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	cerrors "capitafund/core/errors"
	"capitafund/native/bank"
	"capitafund/native/campaign"
	"capitafund/native/fees"
)

// FundResult summarises a settled contribution.
type FundResult struct {
	Fee    *big.Int
	Net    *big.Int
	Points *big.Int
}

func (e *Engine) campaignEngine() (*campaign.Engine, error) {
	if e.campaigns == nil {
		return nil, ErrCampaignsNotConfigured
	}
	return e.campaigns, nil
}

func (e *Engine) pointsLedger(record *Factory) (PointsLedger, error) {
	if record.CapitaPoints == (common.Address{}) || e.points == nil || e.points.Address() != record.CapitaPoints {
		return nil, invalidAddress(record.CapitaPoints)
	}
	return e.points, nil
}

func (e *Engine) loadCampaign(addr common.Address) (*campaign.Campaign, error) {
	campaigns, err := e.campaignEngine()
	if err != nil {
		return nil, err
	}
	record, err := campaigns.Get(addr)
	if errors.Is(err, campaign.ErrCampaignNotFound) {
		return nil, invalidAddress(addr)
	}
	return record, err
}

// CreateChainFundMe deploys a campaign owned by caller and credits them the
// creation bonus.
func (e *Engine) CreateChainFundMe(caller common.Address, startTime, endTime uint64, metadataURI string, otherTokens []common.Address) (common.Address, error) {
	record, err := e.load()
	if err != nil {
		return common.Address{}, err
	}
	campaigns, err := e.campaignEngine()
	if err != nil {
		return common.Address{}, err
	}
	if record.Paused {
		return common.Address{}, ErrContractPaused
	}
	if record.CapitaPoints == (common.Address{}) {
		return common.Address{}, invalidAddress(common.Address{})
	}
	if len(otherTokens) > campaign.MaxOtherTokens {
		return common.Address{}, ErrMaxOf5TokensExceeded
	}
	if len(otherTokens) > 0 {
		verified, err := e.state.FactoryVerifiedCreator(caller)
		if err != nil {
			return common.Address{}, err
		}
		if !verified {
			return common.Address{}, ErrUnverifiedUser
		}
	}
	for _, token := range otherTokens {
		if token == (common.Address{}) {
			return common.Address{}, invalidAddress(token)
		}
		ok, err := e.state.FactoryAcceptableToken(token)
		if err != nil {
			return common.Address{}, err
		}
		if !ok {
			return common.Address{}, cerrors.WithAddress(ErrTokenNotAllowed, token)
		}
	}
	if startTime <= e.now() || startTime >= endTime {
		return common.Address{}, ErrInvalidDatesSet
	}
	points, err := e.pointsLedger(record)
	if err != nil {
		return common.Address{}, err
	}

	addr := crypto.CreateAddress(record.Address, record.CampaignCount)
	if _, err := campaigns.Deploy(record.Address, campaign.DeployParams{
		Address:     addr,
		Owner:       caller,
		StableCoin:  record.StableCoin,
		CapitaToken: record.CapitaToken,
		StartTime:   startTime,
		EndTime:     endTime,
		MetadataURI: metadataURI,
		OtherTokens: otherTokens,
	}); err != nil {
		return common.Address{}, err
	}
	record.CampaignCount++
	if err := e.state.FactoryPut(record); err != nil {
		return common.Address{}, err
	}
	if err := e.state.FactoryCampaignAppend(caller, addr); err != nil {
		return common.Address{}, err
	}
	if _, err := points.CreditCampaignCreation(record.Address, caller); err != nil {
		return common.Address{}, err
	}
	e.emit(NewChainFundMeCreatedEvent(caller, addr))
	return addr, nil
}

// ApproveFunding opens a campaign for deposits.
func (e *Engine) ApproveFunding(caller, addr common.Address) error {
	record, err := e.loadAsModerator(caller)
	if err != nil {
		return err
	}
	campaigns, err := e.campaignEngine()
	if err != nil {
		return err
	}
	return campaigns.UpdateFundingApproval(record.Address, addr)
}

// DisapproveFunding sets or clears a campaign's disapproval flag.
func (e *Engine) DisapproveFunding(caller, addr common.Address, disapproved bool) error {
	record, err := e.loadAsModerator(caller)
	if err != nil {
		return err
	}
	campaigns, err := e.campaignEngine()
	if err != nil {
		return err
	}
	return campaigns.UpdateFundingDisapproval(record.Address, addr, disapproved)
}

// PauseCampaign pauses or resumes deposits into a campaign.
func (e *Engine) PauseCampaign(caller, addr common.Address, paused bool) error {
	record, err := e.loadAsModerator(caller)
	if err != nil {
		return err
	}
	campaigns, err := e.campaignEngine()
	if err != nil {
		return err
	}
	return campaigns.UpdatePause(record.Address, addr, paused)
}

// ApproveWithdraw releases the funds of an ended campaign.
func (e *Engine) ApproveWithdraw(caller, addr common.Address) error {
	record, err := e.loadAsModerator(caller)
	if err != nil {
		return err
	}
	campaigns, err := e.campaignEngine()
	if err != nil {
		return err
	}
	return campaigns.ApproveWithdraw(record.Address, addr)
}

// RevokeApproval blocks or unblocks withdrawals. Owner only.
func (e *Engine) RevokeApproval(caller, addr common.Address, revoked bool) error {
	record, err := e.loadAsOwner(caller)
	if err != nil {
		return err
	}
	campaigns, err := e.campaignEngine()
	if err != nil {
		return err
	}
	return campaigns.RevokeApproval(record.Address, addr, revoked)
}

func (e *Engine) batch(caller common.Address, addrs []common.Address, apply func(factory, addr common.Address) error) error {
	record, err := e.loadAsModerator(caller)
	if err != nil {
		return err
	}
	if len(addrs) > e.params.MaxBatchSize {
		return fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(addrs), e.params.MaxBatchSize)
	}
	for _, addr := range addrs {
		if err := apply(record.Address, addr); err != nil {
			return fmt.Errorf("campaign %s: %w", addr.Hex(), err)
		}
	}
	return nil
}

// BatchApproveFunding approves funding for each campaign.
func (e *Engine) BatchApproveFunding(caller common.Address, addrs []common.Address) error {
	campaigns, err := e.campaignEngine()
	if err != nil {
		return err
	}
	return e.batch(caller, addrs, campaigns.UpdateFundingApproval)
}

// BatchDisapproveFunding sets the disapproval flag of each campaign.
func (e *Engine) BatchDisapproveFunding(caller common.Address, addrs []common.Address, disapproved bool) error {
	campaigns, err := e.campaignEngine()
	if err != nil {
		return err
	}
	return e.batch(caller, addrs, func(factory, addr common.Address) error {
		return campaigns.UpdateFundingDisapproval(factory, addr, disapproved)
	})
}

// BatchApproveWithdraw approves withdrawal for each campaign.
func (e *Engine) BatchApproveWithdraw(caller common.Address, addrs []common.Address) error {
	campaigns, err := e.campaignEngine()
	if err != nil {
		return err
	}
	return e.batch(caller, addrs, campaigns.ApproveWithdraw)
}

func (e *Engine) loadAsCreator(caller, addr common.Address) (*Factory, error) {
	record, err := e.load()
	if err != nil {
		return nil, err
	}
	camp, err := e.loadCampaign(addr)
	if err != nil {
		return nil, err
	}
	if caller != camp.Owner {
		return nil, ErrNotOwner
	}
	return record, nil
}

// WithdrawETH pays out a campaign's native balance to its creator.
func (e *Engine) WithdrawETH(caller, addr common.Address) (*big.Int, error) {
	record, err := e.loadAsCreator(caller, addr)
	if err != nil {
		return nil, err
	}
	return e.campaigns.WithdrawETH(record.Address, addr)
}

// WithdrawTokens pays out a campaign's token balances to its creator.
func (e *Engine) WithdrawTokens(caller, addr common.Address) (*campaign.WithdrawResult, error) {
	record, err := e.loadAsCreator(caller, addr)
	if err != nil {
		return nil, err
	}
	return e.campaigns.WithdrawTokens(record.Address, addr)
}

// capFor returns the value counted towards the funding limit and the limit
// itself, or nil values when the deposit is not capped.
func (e *Engine) capFor(record *Factory, camp *campaign.Campaign, asset common.Address, amount *big.Int) (*big.Int, *big.Int, error) {
	if !record.LimitsEnabled || !camp.Accepts(asset) {
		return nil, nil, nil
	}
	if asset == (common.Address{}) && !e.params.CapNativeContributions {
		return nil, nil, nil
	}
	verified, err := e.state.FactoryVerifiedCreator(camp.Owner)
	if err != nil {
		return nil, nil, err
	}
	if verified {
		return nil, nil, nil
	}
	if e.valuer == nil {
		return nil, nil, cerrors.WithAddress(ErrAssetNotPriced, asset)
	}
	value, priced, err := e.valuer.ValueOf(asset, amount)
	if err != nil {
		return nil, nil, err
	}
	if !priced {
		return nil, nil, cerrors.WithAddress(ErrAssetNotPriced, asset)
	}
	return value, new(big.Int).Set(e.params.FundingLimit), nil
}

// FundChainFundMe contributes amount of asset to a campaign on behalf of
// caller. For the native coin value is the coin attached to the call and
// must equal amount; it is escrowed by the factory before the campaign
// settles it. Points are credited once the contribution has settled.
func (e *Engine) FundChainFundMe(caller, addr, asset common.Address, amount, value *big.Int) (*FundResult, error) {
	record, err := e.load()
	if err != nil {
		return nil, err
	}
	camp, err := e.loadCampaign(addr)
	if err != nil {
		return nil, err
	}
	if amount == nil {
		amount = big.NewInt(0)
	}
	if value == nil {
		value = big.NewInt(0)
	}
	if amount.Sign() < 0 || value.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	if err := camp.FundingOpen(e.now()); err != nil {
		return nil, err
	}
	split, err := fees.Apply(fees.ApplyInput{Gross: amount, Percent: record.PlatformFee})
	if err != nil {
		return nil, err
	}
	capValue, limit, err := e.capFor(record, camp, asset, amount)
	if err != nil {
		return nil, err
	}
	points, err := e.pointsLedger(record)
	if err != nil {
		return nil, err
	}
	if value.Sign() > 0 {
		if err := bank.Transfer(e.state, caller, record.Address, value); err != nil {
			return nil, err
		}
	}
	if err := e.campaigns.Deposit(record.Address, addr, campaign.DepositInput{
		Funder:    caller,
		Token:     asset,
		Amount:    amount,
		Value:     value,
		Fee:       split.Fee,
		Net:       split.Net,
		FeeWallet: record.FeeWallet,
		CapValue:  capValue,
		Limit:     limit,
	}); err != nil {
		return nil, err
	}
	totals, err := e.FeeTotals(asset)
	if err != nil {
		return nil, err
	}
	totals = totals.Add(split, record.FeeWallet)
	if err := e.state.FactoryFeeTotalsPut(&totals); err != nil {
		return nil, err
	}
	credited, err := points.CreditContribution(record.Address, caller, asset, amount)
	if err != nil {
		return nil, err
	}
	return &FundResult{Fee: split.Fee, Net: split.Net, Points: credited}, nil
}
