package token

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	ErrUnknownToken      = errors.New("token: unknown token")
	ErrTransferFailed    = errors.New("token: transfer failed")
	ErrInsufficientFunds = errors.New("token: transfer amount exceeds balance")
	ErrInsufficientAllow = errors.New("token: insufficient allowance")
	ErrInvalidRecipient  = errors.New("token: transfer to the zero address")
	ErrInvalidAmount     = errors.New("token: amount must not be negative")
	ErrAmountOverflow    = errors.New("token: amount exceeds 256 bits")
	ErrDuplicateRegister = errors.New("token: address already registered")
	ErrNilTokenOrState   = errors.New("token: token or state not configured")
	errTransferPanicked  = errors.New("token: transfer aborted")
)

// State is the storage a ledger needs to track balances and allowances.
type State interface {
	TokenBalance(token, holder common.Address) (*big.Int, error)
	SetTokenBalance(token, holder common.Address, amount *big.Int) error
	TokenAllowance(token, owner, spender common.Address) (*big.Int, error)
	SetTokenAllowance(token, owner, spender common.Address, amount *big.Int) error
}

// Token is the fungible-asset capability consumed by the platform. caller is
// the account invoking the operation. Implementations signal failure either
// by returning false or by returning an error; callers treat both the same.
type Token interface {
	Address() common.Address
	Transfer(st State, caller, to common.Address, amount *big.Int) (bool, error)
	TransferFrom(st State, caller, from, to common.Address, amount *big.Int) (bool, error)
	Approve(st State, caller, spender common.Address, amount *big.Int) (bool, error)
	BalanceOf(st State, holder common.Address) (*big.Int, error)
}

// CheckAmount rejects negative amounts and amounts that do not fit in 256 bits.
func CheckAmount(amount *big.Int) error {
	if amount == nil {
		return nil
	}
	if amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if _, overflow := uint256.FromBig(amount); overflow {
		return ErrAmountOverflow
	}
	return nil
}

// SafeTransfer invokes tok.Transfer and folds a false result or a panic into
// an error so a misbehaving implementation cannot abort the caller.
func SafeTransfer(tok Token, st State, caller, to common.Address, amount *big.Int) (err error) {
	if tok == nil || st == nil {
		return ErrNilTokenOrState
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errTransferPanicked, r)
		}
	}()
	ok, err := tok.Transfer(st, caller, to, amount)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	if !ok {
		return ErrTransferFailed
	}
	return nil
}

// SafeTransferFrom is the TransferFrom counterpart of SafeTransfer.
func SafeTransferFrom(tok Token, st State, caller, from, to common.Address, amount *big.Int) (err error) {
	if tok == nil || st == nil {
		return ErrNilTokenOrState
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errTransferPanicked, r)
		}
	}()
	ok, err := tok.TransferFrom(st, caller, from, to, amount)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	if !ok {
		return ErrTransferFailed
	}
	return nil
}

// SafeBalanceOf reads a balance, recovering from panicking implementations.
func SafeBalanceOf(tok Token, st State, holder common.Address) (bal *big.Int, err error) {
	if tok == nil || st == nil {
		return nil, ErrNilTokenOrState
	}
	defer func() {
		if r := recover(); r != nil {
			bal, err = nil, fmt.Errorf("%w: %v", errTransferPanicked, r)
		}
	}()
	bal, err = tok.BalanceOf(st, holder)
	if err != nil {
		return nil, err
	}
	if bal == nil {
		return big.NewInt(0), nil
	}
	return bal, nil
}

// Registry resolves token addresses to their implementation.
type Registry struct {
	mu     sync.RWMutex
	tokens map[common.Address]Token
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{tokens: make(map[common.Address]Token)}
}

// Register adds tok to the registry.
func (r *Registry) Register(tok Token) error {
	if tok == nil {
		return ErrNilTokenOrState
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	addr := tok.Address()
	if _, exists := r.tokens[addr]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateRegister, addr.Hex())
	}
	r.tokens[addr] = tok
	return nil
}

// Resolve returns the implementation registered for addr.
func (r *Registry) Resolve(addr common.Address) (Token, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownToken, addr.Hex())
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	tok, ok := r.tokens[addr]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownToken, addr.Hex())
	}
	return tok, nil
}

// Addresses lists every registered token.
func (r *Registry) Addresses() []common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]common.Address, 0, len(r.tokens))
	for addr := range r.tokens {
		out = append(out, addr)
	}
	return out
}
