package oracle

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

type failingFeed struct{}

func (failingFeed) LatestPrice() (*big.Int, error) { return nil, errors.New("feed offline") }
func (failingFeed) Decimals() (uint8, error)       { return 8, nil }

func TestNativeToUSD(t *testing.T) {
	feed := NewStaticFeed(big.NewInt(2000_00000000), 8)
	adapter := NewAdapter(feed)

	value, err := adapter.NativeToUSD(ether(1))
	require.NoError(t, err)
	require.Zero(t, value.Cmp(ether(2000)))

	half := new(big.Int).Div(ether(1), big.NewInt(2))
	value, err = adapter.NativeToUSD(half)
	require.NoError(t, err)
	require.Zero(t, value.Cmp(ether(1000)))

	feed.SetPrice(big.NewInt(0))
	_, err = adapter.NativeToUSD(ether(1))
	require.ErrorIs(t, err, ErrInvalidPrice)

	_, err = NewAdapter(failingFeed{}).NativeToUSD(ether(1))
	require.Error(t, err)

	_, err = NewAdapter(nil).NativeToUSD(ether(1))
	require.ErrorIs(t, err, ErrFeedNotSet)
}

func TestTokenToUSD(t *testing.T) {
	adapter := NewAdapter(NewStaticFeed(big.NewInt(2000_00000000), 8))
	usdc := common.HexToAddress("0x0000000000000000000000000000000000000c0c")
	rate, err := ParseRate("1.00", 6)
	require.NoError(t, err)
	require.NoError(t, adapter.SetTokenRate(usdc, rate))

	value, ok, err := adapter.TokenToUSD(usdc, big.NewInt(35_000_000_000))
	require.NoError(t, err)
	require.True(t, ok)
	require.Zero(t, value.Cmp(ether(35_000)))

	unknown := common.HexToAddress("0x0000000000000000000000000000000000000bad")
	value, ok, err = adapter.TokenToUSD(unknown, big.NewInt(10))
	require.NoError(t, err)
	require.False(t, ok)
	require.Zero(t, value.Sign())
}

func TestParseRate(t *testing.T) {
	rate, err := ParseRate("0.25", 18)
	require.NoError(t, err)
	require.Equal(t, "250000000000000000", rate.Price.String())
	require.Equal(t, uint8(USDDecimals), rate.PriceDecimals)

	_, err = ParseRate("-1", 18)
	require.ErrorIs(t, err, ErrInvalidPrice)
	_, err = ParseRate("abc", 18)
	require.Error(t, err)
	_, err = ParseRate("", 18)
	require.Error(t, err)
}

func TestValueOfRoutesNativeToFeed(t *testing.T) {
	adapter := NewAdapter(NewStaticFeed(big.NewInt(2000_00000000), 8))
	value, ok, err := adapter.ValueOf(common.Address{}, ether(2))
	require.NoError(t, err)
	require.True(t, ok)
	require.Zero(t, value.Cmp(ether(4000)))
}
