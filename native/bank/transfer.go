package bank

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrNilState            = errors.New("bank: state not configured")
	ErrInvalidAmount       = errors.New("bank: amount must not be negative")
	ErrInsufficientBalance = errors.New("bank: insufficient native balance")
)

// BalanceState is the slice of state the bank needs to move native coin.
type BalanceState interface {
	NativeBalance(addr common.Address) (*big.Int, error)
	SetNativeBalance(addr common.Address, amount *big.Int) error
}

// Balance returns the native balance of addr, never nil.
func Balance(st BalanceState, addr common.Address) (*big.Int, error) {
	if st == nil {
		return nil, ErrNilState
	}
	bal, err := st.NativeBalance(addr)
	if err != nil {
		return nil, err
	}
	if bal == nil {
		return big.NewInt(0), nil
	}
	return bal, nil
}

// Credit mints amount into addr. It is used by genesis allocation only.
func Credit(st BalanceState, addr common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	bal, err := Balance(st, addr)
	if err != nil {
		return err
	}
	return st.SetNativeBalance(addr, new(big.Int).Add(bal, amount))
}

// Transfer moves amount of native coin from one address to another. A zero
// amount is a no-op.
func Transfer(st BalanceState, from, to common.Address, amount *big.Int) error {
	if st == nil {
		return ErrNilState
	}
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	fromBal, err := Balance(st, from)
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, from.Hex(), fromBal, amount)
	}
	if from == to {
		return nil
	}
	toBal, err := Balance(st, to)
	if err != nil {
		return err
	}
	if err := st.SetNativeBalance(from, new(big.Int).Sub(fromBal, amount)); err != nil {
		return err
	}
	return st.SetNativeBalance(to, new(big.Int).Add(toBal, amount))
}
