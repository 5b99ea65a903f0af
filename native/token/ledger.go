package token

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Ledger is a state-backed fungible token with ERC-20 transfer semantics.
type Ledger struct {
	address  common.Address
	symbol   string
	decimals uint8
}

// NewLedger describes a token living at address.
func NewLedger(address common.Address, symbol string, decimals uint8) *Ledger {
	return &Ledger{address: address, symbol: symbol, decimals: decimals}
}

func (l *Ledger) Address() common.Address { return l.address }

func (l *Ledger) Symbol() string { return l.symbol }

func (l *Ledger) Decimals() uint8 { return l.decimals }

func (l *Ledger) balance(st State, holder common.Address) (*big.Int, error) {
	bal, err := st.TokenBalance(l.address, holder)
	if err != nil {
		return nil, err
	}
	if bal == nil {
		return big.NewInt(0), nil
	}
	return bal, nil
}

func (l *Ledger) move(st State, from, to common.Address, amount *big.Int) error {
	if to == (common.Address{}) {
		return ErrInvalidRecipient
	}
	if err := CheckAmount(amount); err != nil {
		return err
	}
	fromBal, err := l.balance(st, from)
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	if from == to || amount.Sign() == 0 {
		return nil
	}
	toBal, err := l.balance(st, to)
	if err != nil {
		return err
	}
	next := new(big.Int).Add(toBal, amount)
	if err := CheckAmount(next); err != nil {
		return err
	}
	if err := st.SetTokenBalance(l.address, from, new(big.Int).Sub(fromBal, amount)); err != nil {
		return err
	}
	return st.SetTokenBalance(l.address, to, next)
}

// Transfer moves amount from caller to to.
func (l *Ledger) Transfer(st State, caller, to common.Address, amount *big.Int) (bool, error) {
	if st == nil {
		return false, ErrNilTokenOrState
	}
	if amount == nil {
		amount = big.NewInt(0)
	}
	if err := l.move(st, caller, to, amount); err != nil {
		return false, err
	}
	return true, nil
}

// TransferFrom moves amount from from to to, spending caller's allowance.
func (l *Ledger) TransferFrom(st State, caller, from, to common.Address, amount *big.Int) (bool, error) {
	if st == nil {
		return false, ErrNilTokenOrState
	}
	if amount == nil {
		amount = big.NewInt(0)
	}
	allowance, err := st.TokenAllowance(l.address, from, caller)
	if err != nil {
		return false, err
	}
	if allowance == nil {
		allowance = big.NewInt(0)
	}
	if allowance.Cmp(amount) < 0 {
		return false, ErrInsufficientAllow
	}
	if err := l.move(st, from, to, amount); err != nil {
		return false, err
	}
	if err := st.SetTokenAllowance(l.address, from, caller, new(big.Int).Sub(allowance, amount)); err != nil {
		return false, err
	}
	return true, nil
}

// Approve sets spender's allowance over caller's balance.
func (l *Ledger) Approve(st State, caller, spender common.Address, amount *big.Int) (bool, error) {
	if st == nil {
		return false, ErrNilTokenOrState
	}
	if spender == (common.Address{}) {
		return false, ErrInvalidRecipient
	}
	if amount == nil {
		amount = big.NewInt(0)
	}
	if err := CheckAmount(amount); err != nil {
		return false, err
	}
	if err := st.SetTokenAllowance(l.address, caller, spender, new(big.Int).Set(amount)); err != nil {
		return false, err
	}
	return true, nil
}

// BalanceOf reports holder's balance.
func (l *Ledger) BalanceOf(st State, holder common.Address) (*big.Int, error) {
	if st == nil {
		return nil, ErrNilTokenOrState
	}
	return l.balance(st, holder)
}

// Mint credits amount to holder. Only genesis allocation mints.
func (l *Ledger) Mint(st State, holder common.Address, amount *big.Int) error {
	if st == nil {
		return ErrNilTokenOrState
	}
	if err := CheckAmount(amount); err != nil {
		return err
	}
	bal, err := l.balance(st, holder)
	if err != nil {
		return err
	}
	next := new(big.Int).Add(bal, amount)
	if err := CheckAmount(next); err != nil {
		return err
	}
	return st.SetTokenBalance(l.address, holder, next)
}
