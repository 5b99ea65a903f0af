package campaign

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"capitafund/core/events"
	"capitafund/core/types"
	"capitafund/native/bank"
	"capitafund/native/token"
)

type engineState interface {
	bank.BalanceState
	token.State
	CampaignGet(addr common.Address) (*Campaign, bool, error)
	CampaignPut(record *Campaign) error
	CampaignFunderAppend(addr common.Address, funder types.Funder) (uint64, error)
	CampaignFunderCount(addr common.Address) (uint64, error)
	CampaignFunderGet(addr common.Address, index uint64) (types.Funder, bool, error)
	CampaignContribution(addr, funder, asset common.Address) (*big.Int, error)
	SetCampaignContribution(addr, funder, asset common.Address, amount *big.Int) error
	Snapshot() int
	RevertToSnapshot(id int)
}

// TokenResolver maps a token address to its implementation.
type TokenResolver interface {
	Resolve(addr common.Address) (token.Token, error)
}

// Engine runs the lifecycle of every campaign. Mutating calls are accepted
// only from the factory recorded in each campaign, or from the campaign owner
// for the owner operations.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
	factory common.Address
	tokens  TokenResolver
}

// NewEngine constructs a campaign engine trusting factory.
func NewEngine(factory common.Address, tokens TokenResolver) *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
		factory: factory,
		tokens:  tokens,
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(events.Wrap(evt))
}

func (e *Engine) now() uint64 {
	var ts int64
	if e == nil || e.nowFn == nil {
		ts = time.Now().Unix()
	} else {
		ts = e.nowFn()
	}
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

func (e *Engine) load(addr common.Address) (*Campaign, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	record, ok, err := e.state.CampaignGet(addr)
	if err != nil {
		return nil, err
	}
	if !ok || record == nil {
		return nil, fmt.Errorf("%w: %s", ErrCampaignNotFound, addr.Hex())
	}
	if record.CappedValue == nil {
		record.CappedValue = big.NewInt(0)
	}
	return record, nil
}

func (e *Engine) loadAsFactory(caller, addr common.Address) (*Campaign, error) {
	record, err := e.load(addr)
	if err != nil {
		return nil, err
	}
	if caller != record.Factory {
		return nil, ErrNotFactory
	}
	return record, nil
}

func (e *Engine) loadAsOwner(caller, addr common.Address) (*Campaign, error) {
	record, err := e.load(addr)
	if err != nil {
		return nil, err
	}
	if caller != record.Owner {
		return nil, ErrNotOwner
	}
	return record, nil
}

func (e *Engine) resolve(addr common.Address) (token.Token, error) {
	if e.tokens == nil {
		return nil, ErrTokensNotConfigured
	}
	return e.tokens.Resolve(addr)
}

// Deploy creates the campaign described by params.
func (e *Engine) Deploy(caller common.Address, params DeployParams) (*Campaign, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if caller != e.factory {
		return nil, ErrNotFactory
	}
	if params.Address == (common.Address{}) || params.Owner == (common.Address{}) {
		return nil, ErrInvalidAddress
	}
	if len(params.OtherTokens) > MaxOtherTokens {
		return nil, ErrMaxOf5TokensExceeded
	}
	if params.StartTime >= params.EndTime {
		return nil, ErrInvalidDatesSet
	}
	if _, exists, err := e.state.CampaignGet(params.Address); err != nil {
		return nil, err
	} else if exists {
		return nil, fmt.Errorf("%w: %s", ErrCampaignExists, params.Address.Hex())
	}
	record := &Campaign{
		Address:     params.Address,
		Factory:     caller,
		Owner:       params.Owner,
		StableCoin:  params.StableCoin,
		CapitaToken: params.CapitaToken,
		StartTime:   params.StartTime,
		EndTime:     params.EndTime,
		MetadataURI: strings.TrimSpace(params.MetadataURI),
		OtherTokens: append([]common.Address(nil), params.OtherTokens...),
		CappedValue: big.NewInt(0),
		CreatedAt:   e.now(),
	}
	if err := e.state.CampaignPut(record); err != nil {
		return nil, err
	}
	return record.Clone(), nil
}

// Deposit books a contribution forwarded by the factory and settles it. All
// bookkeeping happens before any asset moves.
func (e *Engine) Deposit(caller, addr common.Address, in DepositInput) error {
	record, err := e.loadAsFactory(caller, addr)
	if err != nil {
		return err
	}
	if err := record.FundingOpen(e.now()); err != nil {
		return err
	}
	if in.Amount == nil || in.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if !record.Accepts(in.Token) {
		return fmt.Errorf("%w: %s", ErrTokenNotAllowed, in.Token.Hex())
	}
	value := in.Value
	if value == nil {
		value = big.NewInt(0)
	}
	native := in.Token == (common.Address{})
	if native && value.Cmp(in.Amount) != 0 {
		return ErrValueSentNotEqualAmount
	}
	if !native && value.Sign() != 0 {
		return ErrValueSentNotEqualAmount
	}
	fee, net := in.Fee, in.Net
	if fee == nil {
		fee = big.NewInt(0)
	}
	if net == nil {
		net = new(big.Int).Sub(in.Amount, fee)
	}
	if fee.Sign() < 0 || net.Sign() < 0 || new(big.Int).Add(fee, net).Cmp(in.Amount) != 0 {
		return ErrInvalidAmount
	}
	capped := record.CappedValue
	if in.Limit != nil && in.CapValue != nil {
		capped = new(big.Int).Add(record.CappedValue, in.CapValue)
		if capped.Cmp(in.Limit) >= 0 {
			return ErrFundingLimitExceeded
		}
	}

	if _, err := e.state.CampaignFunderAppend(addr, types.Funder{
		FunderAddress: in.Funder,
		TokenAddress:  in.Token,
		Amount:        new(big.Int).Set(in.Amount),
	}); err != nil {
		return err
	}
	contributed, err := e.state.CampaignContribution(addr, in.Funder, in.Token)
	if err != nil {
		return err
	}
	if contributed == nil {
		contributed = big.NewInt(0)
	}
	if err := e.state.SetCampaignContribution(addr, in.Funder, in.Token, new(big.Int).Add(contributed, in.Amount)); err != nil {
		return err
	}
	record.FundersCount++
	record.CappedValue = capped
	if err := e.state.CampaignPut(record); err != nil {
		return err
	}

	if native {
		if err := bank.Transfer(e.state, record.Factory, addr, net); err != nil {
			return err
		}
		if fee.Sign() > 0 {
			if err := bank.Transfer(e.state, record.Factory, in.FeeWallet, fee); err != nil {
				return err
			}
		}
	} else {
		tok, err := e.resolve(in.Token)
		if err != nil {
			return err
		}
		if err := token.SafeTransferFrom(tok, e.state, addr, in.Funder, addr, net); err != nil {
			return err
		}
		if fee.Sign() > 0 {
			if err := token.SafeTransferFrom(tok, e.state, addr, in.Funder, in.FeeWallet, fee); err != nil {
				return err
			}
		}
	}
	e.emit(NewDepositedEvent(addr, in.Funder, in.Token, in.Amount))
	return nil
}

// EndCampaign closes the funding period early.
func (e *Engine) EndCampaign(caller, addr common.Address) (*Campaign, error) {
	record, err := e.loadAsOwner(caller, addr)
	if err != nil {
		return nil, err
	}
	now := e.now()
	if !record.Started(now) {
		return nil, ErrFundingPeriodNotStarted
	}
	record.Ended = true
	if now < record.EndTime {
		record.EndTime = now
	}
	if err := e.state.CampaignPut(record); err != nil {
		return nil, err
	}
	e.emit(NewCampaignEndedEvent(addr, record.EndTime))
	return record.Clone(), nil
}

// ApproveWithdraw releases the funds of an ended campaign. A campaign whose
// end time passed counts as ended.
func (e *Engine) ApproveWithdraw(caller, addr common.Address) error {
	record, err := e.loadAsFactory(caller, addr)
	if err != nil {
		return err
	}
	if !record.Over(e.now()) {
		return ErrFundingStillActive
	}
	if record.WithdrawApproved {
		return ErrAlreadyApproved
	}
	record.Ended = true
	record.WithdrawApproved = true
	if err := e.state.CampaignPut(record); err != nil {
		return err
	}
	e.emit(NewWithdrawApprovedEvent(addr))
	return nil
}

// RevokeApproval sets or clears the withdrawal revocation flag.
func (e *Engine) RevokeApproval(caller, addr common.Address, revoked bool) error {
	record, err := e.loadAsFactory(caller, addr)
	if err != nil {
		return err
	}
	record.WithdrawalApprovalRevoked = revoked
	if err := e.state.CampaignPut(record); err != nil {
		return err
	}
	e.emit(NewApprovalRevokedEvent(addr, revoked))
	return nil
}

// UpdatePause pauses or resumes deposits.
func (e *Engine) UpdatePause(caller, addr common.Address, paused bool) error {
	record, err := e.loadAsFactory(caller, addr)
	if err != nil {
		return err
	}
	record.Paused = paused
	if err := e.state.CampaignPut(record); err != nil {
		return err
	}
	e.emit(NewPausedEvent(addr, paused))
	return nil
}

// UpdateFundingApproval allows deposits into the campaign.
func (e *Engine) UpdateFundingApproval(caller, addr common.Address) error {
	record, err := e.loadAsFactory(caller, addr)
	if err != nil {
		return err
	}
	record.FundingApproved = true
	if err := e.state.CampaignPut(record); err != nil {
		return err
	}
	e.emit(NewFundingApprovedEvent(addr, true))
	return nil
}

// UpdateFundingDisapproval sets or clears the disapproval flag.
func (e *Engine) UpdateFundingDisapproval(caller, addr common.Address, disapproved bool) error {
	record, err := e.loadAsFactory(caller, addr)
	if err != nil {
		return err
	}
	record.FundingDisapproved = disapproved
	if err := e.state.CampaignPut(record); err != nil {
		return err
	}
	e.emit(NewFundingDisapprovedEvent(addr, disapproved))
	return nil
}

// WithdrawETH moves the whole native balance of the campaign to its owner.
func (e *Engine) WithdrawETH(caller, addr common.Address) (*big.Int, error) {
	record, err := e.loadAsFactory(caller, addr)
	if err != nil {
		return nil, err
	}
	if !record.Withdrawable() {
		return nil, ErrNotApproved
	}
	balance, err := bank.Balance(e.state, addr)
	if err != nil {
		return nil, err
	}
	if err := bank.Transfer(e.state, addr, record.Owner, balance); err != nil {
		return nil, err
	}
	e.emit(NewWithdrawnETHEvent(addr, record.Owner, balance))
	return balance, nil
}

// WithdrawTokens moves every token balance of the campaign to its owner. Each
// asset is transferred in its own state snapshot: a failing token is rolled
// back and reported while the others still settle.
func (e *Engine) WithdrawTokens(caller, addr common.Address) (*WithdrawResult, error) {
	record, err := e.loadAsFactory(caller, addr)
	if err != nil {
		return nil, err
	}
	if !record.Withdrawable() {
		return nil, ErrNotApproved
	}
	result := &WithdrawResult{Withdrawn: make(map[common.Address]*big.Int)}
	for _, asset := range record.Tokens() {
		tok, err := e.resolve(asset)
		if errors.Is(err, token.ErrUnknownToken) {
			// Deposits of an unregistered token cannot settle, so it holds nothing.
			continue
		}
		if err != nil {
			result.Failed = append(result.Failed, asset)
			continue
		}
		balance, err := token.SafeBalanceOf(tok, e.state, addr)
		if err != nil {
			result.Failed = append(result.Failed, asset)
			continue
		}
		if balance.Sign() == 0 {
			continue
		}
		snap := e.state.Snapshot()
		if err := token.SafeTransfer(tok, e.state, addr, record.Owner, balance); err != nil {
			e.state.RevertToSnapshot(snap)
			result.Failed = append(result.Failed, asset)
			continue
		}
		result.Withdrawn[asset] = balance
		e.emit(NewWithdrawnTokenEvent(addr, record.Owner, balance, asset))
	}
	if len(result.Failed) > 0 {
		e.emit(NewFailedOtherTokensWithdrawalEvent(addr, result.Failed))
	}
	return result, nil
}

// UpdateStartTime reschedules a campaign that has not started yet.
func (e *Engine) UpdateStartTime(caller, addr common.Address, startTime uint64) error {
	record, err := e.loadAsOwner(caller, addr)
	if err != nil {
		return err
	}
	now := e.now()
	if record.Started(now) {
		return ErrFundingStillActive
	}
	if startTime <= now || startTime >= record.EndTime {
		return ErrInvalidDatesSet
	}
	record.StartTime = startTime
	if err := e.state.CampaignPut(record); err != nil {
		return err
	}
	e.emit(NewStartTimeUpdatedEvent(addr, startTime))
	return nil
}

// UpdateEndTime moves the end of a campaign that is not over yet.
func (e *Engine) UpdateEndTime(caller, addr common.Address, endTime uint64) error {
	record, err := e.loadAsOwner(caller, addr)
	if err != nil {
		return err
	}
	now := e.now()
	if record.Over(now) {
		return ErrFundingPeriodOver
	}
	if endTime <= record.StartTime || endTime <= now {
		return ErrInvalidDatesSet
	}
	record.EndTime = endTime
	if err := e.state.CampaignPut(record); err != nil {
		return err
	}
	e.emit(NewEndTimeUpdatedEvent(addr, endTime))
	return nil
}

// UpdateMetadataURI replaces the off-chain metadata pointer.
func (e *Engine) UpdateMetadataURI(caller, addr common.Address, uri string) error {
	record, err := e.loadAsOwner(caller, addr)
	if err != nil {
		return err
	}
	if record.Over(e.now()) {
		return ErrFundingPeriodOver
	}
	record.MetadataURI = strings.TrimSpace(uri)
	if err := e.state.CampaignPut(record); err != nil {
		return err
	}
	e.emit(NewMetadataURIUpdatedEvent(addr, record.MetadataURI))
	return nil
}

// Get returns a copy of the campaign record.
func (e *Engine) Get(addr common.Address) (*Campaign, error) {
	record, err := e.load(addr)
	if err != nil {
		return nil, err
	}
	return record.Clone(), nil
}

// GetFundersDetails returns the deposit log in deposit order.
func (e *Engine) GetFundersDetails(addr common.Address) ([]types.Funder, error) {
	if _, err := e.load(addr); err != nil {
		return nil, err
	}
	count, err := e.state.CampaignFunderCount(addr)
	if err != nil {
		return nil, err
	}
	out := make([]types.Funder, 0, count)
	for i := uint64(0); i < count; i++ {
		funder, ok, err := e.state.CampaignFunderGet(addr, i)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, funder)
		}
	}
	return out, nil
}

// Funder returns the deposit log entry at index.
func (e *Engine) Funder(addr common.Address, index uint64) (types.Funder, bool, error) {
	if _, err := e.load(addr); err != nil {
		return types.Funder{}, false, err
	}
	return e.state.CampaignFunderGet(addr, index)
}

// Contribution returns funder's cumulative gross contribution of asset.
func (e *Engine) Contribution(addr, funder, asset common.Address) (*big.Int, error) {
	if _, err := e.load(addr); err != nil {
		return nil, err
	}
	return e.state.CampaignContribution(addr, funder, asset)
}

// EthContribution returns funder's cumulative native-coin contribution.
func (e *Engine) EthContribution(addr, funder common.Address) (*big.Int, error) {
	return e.Contribution(addr, funder, common.Address{})
}
