package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

func (m *Manager) getBig(key []byte) (*big.Int, error) {
	value := new(big.Int)
	ok, err := m.KVGet(key, value)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return value, nil
}

func (m *Manager) putBig(key []byte, value *big.Int) error {
	if value == nil || value.Sign() == 0 {
		return m.KVDelete(key)
	}
	return m.KVPut(key, value)
}

// NativeBalance returns the native-coin balance of addr.
func (m *Manager) NativeBalance(addr common.Address) (*big.Int, error) {
	return m.getBig(addrKey(nativeBalancePrefix, addr))
}

// SetNativeBalance overwrites the native-coin balance of addr.
func (m *Manager) SetNativeBalance(addr common.Address, amount *big.Int) error {
	return m.putBig(addrKey(nativeBalancePrefix, addr), amount)
}

// TokenBalance returns holder's balance of token.
func (m *Manager) TokenBalance(token, holder common.Address) (*big.Int, error) {
	return m.getBig(addrKey(tokenBalancePrefix, token, holder))
}

// SetTokenBalance overwrites holder's balance of token.
func (m *Manager) SetTokenBalance(token, holder common.Address, amount *big.Int) error {
	return m.putBig(addrKey(tokenBalancePrefix, token, holder), amount)
}

// TokenAllowance returns the amount of owner's token that spender may move.
func (m *Manager) TokenAllowance(token, owner, spender common.Address) (*big.Int, error) {
	return m.getBig(addrKey(tokenAllowancePrefix, token, owner, spender))
}

// SetTokenAllowance overwrites spender's allowance over owner's token.
func (m *Manager) SetTokenAllowance(token, owner, spender common.Address, amount *big.Int) error {
	return m.putBig(addrKey(tokenAllowancePrefix, token, owner, spender), amount)
}

// SpenderPoints returns the cumulative points credited to addr.
func (m *Manager) SpenderPoints(addr common.Address) (*big.Int, error) {
	return m.getBig(addrKey(pointsBalancePrefix, addr))
}

// SetSpenderPoints overwrites the points balance of addr.
func (m *Manager) SetSpenderPoints(addr common.Address, amount *big.Int) error {
	return m.putBig(addrKey(pointsBalancePrefix, addr), amount)
}
