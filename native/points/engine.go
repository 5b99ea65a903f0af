package points

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"capitafund/core/events"
	"capitafund/core/types"
	"capitafund/native/oracle"
)

type engineState interface {
	SpenderPoints(addr common.Address) (*big.Int, error)
	SetSpenderPoints(addr common.Address, amount *big.Int) error
}

// Engine is the points ledger. Balances only grow and only the factory it is
// bound to may credit them.
type Engine struct {
	state   engineState
	emitter events.Emitter
	address common.Address
	factory common.Address
	oracle  *oracle.Adapter
}

// NewEngine constructs a ledger living at address that trusts factory and
// prices contributions with adapter.
func NewEngine(address, factory common.Address, adapter *oracle.Adapter) *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		address: address,
		factory: factory,
		oracle:  adapter,
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

// Address returns the ledger's address.
func (e *Engine) Address() common.Address { return e.address }

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(events.Wrap(evt))
}

// GetSpenderPoints returns the cumulative balance of addr.
func (e *Engine) GetSpenderPoints(addr common.Address) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	return e.state.SpenderPoints(addr)
}

// CreditCampaignCreation adds BasePoints to creator.
func (e *Engine) CreditCampaignCreation(caller, creator common.Address) (*big.Int, error) {
	if err := e.authorize(caller); err != nil {
		return nil, err
	}
	return e.credit(creator, new(big.Int).Set(BasePoints), ReasonCampaign)
}

// CreditContribution adds the USD value of amount of token to spender. Assets
// without a configured price credit nothing.
func (e *Engine) CreditContribution(caller, spender, token common.Address, amount *big.Int) (*big.Int, error) {
	if err := e.authorize(caller); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	value, priced, err := e.oracle.ValueOf(token, amount)
	if err != nil {
		return nil, err
	}
	if !priced {
		e.emit(NewPointsSkippedEvent(spender, token, amount))
		return big.NewInt(0), nil
	}
	return e.credit(spender, value, ReasonContribution)
}

func (e *Engine) authorize(caller common.Address) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if caller != e.factory {
		return ErrNotFactory
	}
	return nil
}

func (e *Engine) credit(addr common.Address, points *big.Int, reason string) (*big.Int, error) {
	balance, err := e.state.SpenderPoints(addr)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		balance = big.NewInt(0)
	}
	if points.Sign() == 0 {
		return points, nil
	}
	next := new(big.Int).Add(balance, points)
	if err := e.state.SetSpenderPoints(addr, next); err != nil {
		return nil, err
	}
	e.emit(NewPointsCreditedEvent(addr, points, next, reason))
	return points, nil
}
