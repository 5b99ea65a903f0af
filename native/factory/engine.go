package factory

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"capitafund/core/events"
	cerrors "capitafund/core/errors"
	"capitafund/core/types"
	"capitafund/native/bank"
	"capitafund/native/campaign"
	"capitafund/native/fees"
)

type engineState interface {
	bank.BalanceState
	FactoryGet() (*Factory, bool, error)
	FactoryPut(record *Factory) error
	FactoryModerator(addr common.Address) (bool, error)
	SetFactoryModerator(addr common.Address, enabled bool) error
	FactoryVerifiedCreator(addr common.Address) (bool, error)
	SetFactoryVerifiedCreator(addr common.Address, verified bool) error
	FactoryAcceptableToken(token common.Address) (bool, error)
	SetFactoryAcceptableToken(token common.Address, enabled bool) error
	FactoryAcceptableTokens() ([]common.Address, error)
	FactoryCampaignAppend(creator, campaign common.Address) error
	FactoryCampaigns() ([]common.Address, error)
	FactoryUserCampaigns(user common.Address) ([]common.Address, error)
	FactoryFeeTotals(asset common.Address) (*fees.Totals, bool, error)
	FactoryFeeTotalsPut(totals *fees.Totals) error
}

// PointsLedger is the reward ledger the factory credits.
type PointsLedger interface {
	Address() common.Address
	CreditCampaignCreation(caller, creator common.Address) (*big.Int, error)
	CreditContribution(caller, spender, token common.Address, amount *big.Int) (*big.Int, error)
}

// Valuer prices an asset amount in 18-decimal USD. The boolean reports
// whether a price is known.
type Valuer interface {
	ValueOf(asset common.Address, amount *big.Int) (*big.Int, bool, error)
}

// Engine is the platform factory: it owns access control and the token
// allow-list, deploys campaigns and forwards every privileged campaign call.
type Engine struct {
	state     engineState
	emitter   events.Emitter
	nowFn     func() int64
	campaigns *campaign.Engine
	points    PointsLedger
	valuer    Valuer
	params    Params
}

// NewEngine constructs a factory engine driving campaigns.
func NewEngine(campaigns *campaign.Engine, points PointsLedger, valuer Valuer, params Params) *Engine {
	return &Engine{
		emitter:   events.NoopEmitter{},
		nowFn:     func() int64 { return time.Now().Unix() },
		campaigns: campaigns,
		points:    points,
		valuer:    valuer,
		params:    params.normalized(),
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

// Params returns the deployment parameters.
func (e *Engine) Params() Params { return e.params.normalized() }

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

func invalidAddress(addr common.Address) error {
	return cerrors.WithAddress(ErrInvalidAddress, addr)
}

func (e *Engine) load() (*Factory, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	record, ok, err := e.state.FactoryGet()
	if err != nil {
		return nil, err
	}
	if !ok || record == nil {
		return nil, ErrNotInitialized
	}
	return record, nil
}

func (e *Engine) loadAsOwner(caller common.Address) (*Factory, error) {
	record, err := e.load()
	if err != nil {
		return nil, err
	}
	if caller != record.Owner {
		return nil, ErrNotOwner
	}
	return record, nil
}

// loadAsModerator admits moderators and the owner, whose privileges are a
// superset of the moderator role.
func (e *Engine) loadAsModerator(caller common.Address) (*Factory, error) {
	record, err := e.load()
	if err != nil {
		return nil, err
	}
	if caller == record.Owner {
		return record, nil
	}
	ok, err := e.state.FactoryModerator(caller)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotModerator
	}
	return record, nil
}

// Init deploys the factory. The owner starts out as a moderator, the fee is
// DefaultPlatformFee and the unverified-creator limit is enabled.
func (e *Engine) Init(params InitParams) (*Factory, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if _, ok, err := e.state.FactoryGet(); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrAlreadyInitialized
	}
	for _, addr := range []common.Address{params.Address, params.Owner, params.FeeWallet} {
		if addr == (common.Address{}) {
			return nil, invalidAddress(addr)
		}
	}
	record := &Factory{
		Address:       params.Address,
		Owner:         params.Owner,
		PlatformFee:   fees.DefaultPlatformFee,
		FeeWallet:     params.FeeWallet,
		StableCoin:    params.StableCoin,
		CapitaToken:   params.CapitaToken,
		LimitsEnabled: true,
	}
	if err := e.state.FactoryPut(record); err != nil {
		return nil, err
	}
	if err := e.state.SetFactoryModerator(params.Owner, true); err != nil {
		return nil, err
	}
	return record.Clone(), nil
}

// AddModerator grants the moderator role.
func (e *Engine) AddModerator(caller, moderator common.Address) error {
	if _, err := e.loadAsOwner(caller); err != nil {
		return err
	}
	if moderator == (common.Address{}) {
		return invalidAddress(moderator)
	}
	if err := e.state.SetFactoryModerator(moderator, true); err != nil {
		return err
	}
	e.emit(NewModeratorAddedEvent(moderator))
	return nil
}

// RemoveModerator revokes the moderator role.
func (e *Engine) RemoveModerator(caller, moderator common.Address) error {
	if _, err := e.loadAsOwner(caller); err != nil {
		return err
	}
	if err := e.state.SetFactoryModerator(moderator, false); err != nil {
		return err
	}
	e.emit(NewModeratorRemovedEvent(moderator))
	return nil
}

// SetCapitaPointsAddress binds the points ledger. Once set the fee wallet is
// frozen.
func (e *Engine) SetCapitaPointsAddress(caller, points common.Address) error {
	record, err := e.loadAsOwner(caller)
	if err != nil {
		return err
	}
	if points == (common.Address{}) {
		return invalidAddress(points)
	}
	record.CapitaPoints = points
	if err := e.state.FactoryPut(record); err != nil {
		return err
	}
	e.emit(NewCapitaPointsAddressSetEvent(points))
	return nil
}

// UpdatePaused toggles the factory kill-switch, which blocks campaign creation.
func (e *Engine) UpdatePaused(caller common.Address, paused bool) error {
	record, err := e.loadAsOwner(caller)
	if err != nil {
		return err
	}
	record.Paused = paused
	if err := e.state.FactoryPut(record); err != nil {
		return err
	}
	e.emit(NewCapitaFactoryPausedEvent(paused))
	return nil
}

// SetAcceptableToken adds token to the global allow-list.
func (e *Engine) SetAcceptableToken(caller, token common.Address) error {
	return e.setAcceptable(caller, token, true)
}

// RemoveTokenAddress removes token from the global allow-list. Campaigns that
// already accept it are unaffected.
func (e *Engine) RemoveTokenAddress(caller, token common.Address) error {
	return e.setAcceptable(caller, token, false)
}

func (e *Engine) setAcceptable(caller, token common.Address, enabled bool) error {
	if _, err := e.loadAsOwner(caller); err != nil {
		return err
	}
	if token == (common.Address{}) {
		return invalidAddress(token)
	}
	if err := e.state.SetFactoryAcceptableToken(token, enabled); err != nil {
		return err
	}
	e.emit(NewAcceptableTokenSetEvent(token, enabled))
	return nil
}

// UpdatePlatformFee sets the fee percentage charged on deposits.
func (e *Engine) UpdatePlatformFee(caller common.Address, fee uint64) error {
	record, err := e.loadAsOwner(caller)
	if err != nil {
		return err
	}
	if err := fees.ValidatePercent(fee); err != nil {
		return ErrFeeOutOfRange
	}
	record.PlatformFee = fee
	if err := e.state.FactoryPut(record); err != nil {
		return err
	}
	e.emit(NewPlatformFeeUpdatedEvent(fee))
	return nil
}

// UpdateFeeWalletAddress changes the fee receiver until the points ledger is
// bound.
func (e *Engine) UpdateFeeWalletAddress(caller, wallet common.Address) error {
	record, err := e.loadAsOwner(caller)
	if err != nil {
		return err
	}
	if record.CapitaPoints != (common.Address{}) {
		return ErrCapitaPointsAlreadySet
	}
	if wallet == (common.Address{}) {
		return invalidAddress(wallet)
	}
	record.FeeWallet = wallet
	if err := e.state.FactoryPut(record); err != nil {
		return err
	}
	e.emit(NewUpdatedFeeWalletAddressEvent(wallet))
	return nil
}

// VerifyCreator exempts creator from, or subjects them to, the funding limit.
func (e *Engine) VerifyCreator(caller, creator common.Address, verified bool) error {
	if _, err := e.loadAsOwner(caller); err != nil {
		return err
	}
	if creator == (common.Address{}) {
		return invalidAddress(creator)
	}
	if err := e.state.SetFactoryVerifiedCreator(creator, verified); err != nil {
		return err
	}
	e.emit(NewCreatorVerifiedEvent(creator, verified))
	return nil
}

// UpdateLimitsEnabled switches the unverified-creator funding limit on or off.
func (e *Engine) UpdateLimitsEnabled(caller common.Address, enabled bool) error {
	record, err := e.loadAsOwner(caller)
	if err != nil {
		return err
	}
	record.LimitsEnabled = enabled
	if err := e.state.FactoryPut(record); err != nil {
		return err
	}
	e.emit(NewLimitsEnabledEvent(enabled))
	return nil
}

// Factory returns a copy of the factory record.
func (e *Engine) Factory() (*Factory, error) {
	record, err := e.load()
	if err != nil {
		return nil, err
	}
	return record.Clone(), nil
}

// IsModerator reports whether addr may run moderator operations.
func (e *Engine) IsModerator(addr common.Address) (bool, error) {
	record, err := e.load()
	if err != nil {
		return false, err
	}
	if addr == record.Owner {
		return true, nil
	}
	return e.state.FactoryModerator(addr)
}

// IsVerifiedCreator reports whether creator is exempt from the funding limit.
func (e *Engine) IsVerifiedCreator(creator common.Address) (bool, error) {
	if e == nil || e.state == nil {
		return false, ErrNilState
	}
	return e.state.FactoryVerifiedCreator(creator)
}

// CheckAcceptableTokenAddress reports whether token is on the allow-list.
func (e *Engine) CheckAcceptableTokenAddress(token common.Address) (bool, error) {
	if e == nil || e.state == nil {
		return false, ErrNilState
	}
	return e.state.FactoryAcceptableToken(token)
}

// AcceptableTokens lists the allow-listed tokens.
func (e *Engine) AcceptableTokens() ([]common.Address, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	return e.state.FactoryAcceptableTokens()
}

// DeployedCampaigns lists every campaign in creation order.
func (e *Engine) DeployedCampaigns() ([]common.Address, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	return e.state.FactoryCampaigns()
}

// UserCampaigns lists the campaigns created by user.
func (e *Engine) UserCampaigns(user common.Address) ([]common.Address, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	return e.state.FactoryUserCampaigns(user)
}

// FeeTotals returns the fees collected in asset.
func (e *Engine) FeeTotals(asset common.Address) (fees.Totals, error) {
	if e == nil || e.state == nil {
		return fees.Totals{}, ErrNilState
	}
	totals, ok, err := e.state.FactoryFeeTotals(asset)
	if err != nil {
		return fees.Totals{}, err
	}
	if !ok || totals == nil {
		return fees.Totals{Asset: asset}.Clone(), nil
	}
	return totals.Clone(), nil
}
