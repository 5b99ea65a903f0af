package genesis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

const (
	testOwner  = "0x1111111111111111111111111111111111111111"
	testWallet = "0x2222222222222222222222222222222222222222"
	testAlice  = "0x3333333333333333333333333333333333333333"
)

func writeSpec(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "genesis.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadGenesisSpecDerivesAddresses(t *testing.T) {
	path := writeSpec(t, `{
		"owner": "`+testOwner+`",
		"feeWallet": "`+testWallet+`",
		"stableCoin": {"symbol": "usdc", "decimals": 6, "priceUsd": "1.00"},
		"capitaToken": {"symbol": "CAP", "decimals": 18},
		"tokens": [{"symbol": "DAI", "decimals": 18, "priceUsd": "0.999"}],
		"alloc": {"`+testAlice+`": {"native": "1000", "USDC": "50"}}
	}`)
	spec, err := LoadGenesisSpec(path)
	require.NoError(t, err)

	owner := common.HexToAddress(testOwner)
	require.Equal(t, owner, spec.OwnerAddress())
	require.Equal(t, crypto.CreateAddress(owner, 0), spec.FactoryAddress())
	require.Equal(t, crypto.CreateAddress(owner, 1), spec.PointsAddress())
	require.Equal(t, crypto.CreateAddress(owner, 2), spec.StableCoinAddress())
	require.Equal(t, crypto.CreateAddress(owner, 3), spec.CapitaTokenAddress())
	require.Equal(t, []common.Address{crypto.CreateAddress(owner, 4)}, spec.ExtraTokenAddresses())

	rates := spec.Rates()
	require.Len(t, rates, 2)
	_, capPriced := rates[spec.CapitaTokenAddress()]
	require.False(t, capPriced)

	ledgers := spec.Ledgers()
	require.Len(t, ledgers, 3)
	require.Equal(t, "USDC", ledgers[0].Symbol())

	allocs, err := spec.Allocations()
	require.NoError(t, err)
	require.Len(t, allocs, 2)
	require.Equal(t, spec.StableCoinAddress(), allocs[0].Asset)
	require.Equal(t, "50", allocs[0].Amount.String())
	require.True(t, allocs[1].Native)
	require.Equal(t, "1000", allocs[1].Amount.String())
}

func TestLoadGenesisSpecRejectsUnknownFields(t *testing.T) {
	path := writeSpec(t, `{"owner": "`+testOwner+`", "chainId": 7}`)
	_, err := LoadGenesisSpec(path)
	require.Error(t, err)
}

func TestValidateErrors(t *testing.T) {
	base := func() GenesisSpec {
		return GenesisSpec{
			Owner:       testOwner,
			FeeWallet:   testWallet,
			StableCoin:  TokenSpec{Symbol: "USDC", Decimals: 6},
			CapitaToken: TokenSpec{Symbol: "CAP", Decimals: 18},
		}
	}
	cases := map[string]func(*GenesisSpec){
		"zero owner":       func(s *GenesisSpec) { s.Owner = "0x0000000000000000000000000000000000000000" },
		"bad fee wallet":   func(s *GenesisSpec) { s.FeeWallet = "nope" },
		"duplicate symbol": func(s *GenesisSpec) { s.CapitaToken.Symbol = "usdc" },
		"native symbol":    func(s *GenesisSpec) { s.Tokens = []TokenSpec{{Symbol: "native"}} },
		"bad price":        func(s *GenesisSpec) { s.StableCoin.PriceUSD = "abc" },
		"unknown asset":    func(s *GenesisSpec) { s.Alloc = map[string]map[string]string{testAlice: {"WBTC": "1"}} },
		"negative amount":  func(s *GenesisSpec) { s.Alloc = map[string]map[string]string{testAlice: {"native": "-1"}} },
		"bad moderator":    func(s *GenesisSpec) { s.Moderators = []string{"0x12"} },
		"token collides": func(s *GenesisSpec) {
			s.StableCoin.Address = crypto.CreateAddress(common.HexToAddress(testOwner), 0).Hex()
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			spec := base()
			mutate(&spec)
			require.Error(t, spec.Validate())
		})
	}

	spec := base()
	require.NoError(t, spec.Validate())
}

func TestApplyPriceOverrides(t *testing.T) {
	spec := GenesisSpec{
		Owner:       testOwner,
		FeeWallet:   testWallet,
		StableCoin:  TokenSpec{Symbol: "USDC", Decimals: 6},
		CapitaToken: TokenSpec{Symbol: "CAP", Decimals: 18},
	}
	require.NoError(t, spec.Validate())
	require.Empty(t, spec.Rates())

	require.NoError(t, spec.ApplyPriceOverrides(map[string]string{"cap": "0.5"}))
	rate, ok := spec.Rates()[spec.CapitaTokenAddress()]
	require.True(t, ok)
	require.Equal(t, uint8(18), rate.TokenDecimals)

	require.Error(t, spec.ApplyPriceOverrides(map[string]string{"WBTC": "60000"}))
}
