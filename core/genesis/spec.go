// core/genesis/spec.go
package genesis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"capitafund/native/oracle"
	"capitafund/native/token"
)

// NativeAsset is the alloc key for native-coin balances.
const NativeAsset = "NATIVE"

type GenesisSpec struct {
	Owner            string                       `json:"owner"`
	FeeWallet        string                       `json:"feeWallet"`
	Factory          string                       `json:"factory,omitempty"`
	Points           string                       `json:"points,omitempty"`
	StableCoin       TokenSpec                    `json:"stableCoin"`
	CapitaToken      TokenSpec                    `json:"capitaToken"`
	Tokens           []TokenSpec                  `json:"tokens,omitempty"`
	Moderators       []string                     `json:"moderators,omitempty"`
	VerifiedCreators []string                     `json:"verifiedCreators,omitempty"`
	Alloc            map[string]map[string]string `json:"alloc,omitempty"` // addr -> asset -> amount

	owner     common.Address
	feeWallet common.Address
	factory   common.Address
	points    common.Address
	tokens    []resolvedToken
}

type TokenSpec struct {
	Address  string `json:"address,omitempty"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
	// PriceUSD is the fixed USD price of one whole token used for points and
	// the funding limit. Tokens without a price credit no points.
	PriceUSD string `json:"priceUsd,omitempty"`
}

type resolvedToken struct {
	spec    TokenSpec
	address common.Address
	rate    *oracle.TokenRate
}

// Allocation is a resolved genesis balance.
type Allocation struct {
	Holder common.Address
	Asset  common.Address
	Native bool
	Amount *big.Int
}

func LoadGenesisSpec(path string) (*GenesisSpec, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("genesis spec path must be provided")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis spec %q: %w", path, err)
	}
	var spec GenesisSpec
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("decode genesis spec %q: %w", path, err)
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid genesis spec %q: %w", path, err)
	}
	return &spec, nil
}

func parseAddress(field, value string) (common.Address, error) {
	trimmed := strings.TrimSpace(value)
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, fmt.Errorf("%s: invalid address %q", field, value)
	}
	addr := common.HexToAddress(trimmed)
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%s: zero address", field)
	}
	return addr, nil
}

func parseAmountString(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}
	return amount, nil
}

// Validate checks the spec and resolves derived addresses. Addresses that are
// omitted are derived from the owner with CREATE semantics: the factory at
// nonce 0, the points ledger at nonce 1 and tokens from nonce 2 onwards.
func (s *GenesisSpec) Validate() error {
	var err error
	if s.owner, err = parseAddress("owner", s.Owner); err != nil {
		return err
	}
	if s.feeWallet, err = parseAddress("feeWallet", s.FeeWallet); err != nil {
		return err
	}
	s.factory = crypto.CreateAddress(s.owner, 0)
	if strings.TrimSpace(s.Factory) != "" {
		if s.factory, err = parseAddress("factory", s.Factory); err != nil {
			return err
		}
	}
	s.points = crypto.CreateAddress(s.owner, 1)
	if strings.TrimSpace(s.Points) != "" {
		if s.points, err = parseAddress("points", s.Points); err != nil {
			return err
		}
	}

	all := append([]TokenSpec{s.StableCoin, s.CapitaToken}, s.Tokens...)
	s.tokens = make([]resolvedToken, 0, len(all))
	symbols := make(map[string]struct{}, len(all))
	addresses := map[common.Address]struct{}{s.factory: {}, s.points: {}}
	for i, spec := range all {
		field := fmt.Sprintf("token[%d]", i)
		symbol := strings.ToUpper(strings.TrimSpace(spec.Symbol))
		if symbol == "" || symbol == NativeAsset {
			return fmt.Errorf("%s: invalid symbol %q", field, spec.Symbol)
		}
		if _, dup := symbols[symbol]; dup {
			return fmt.Errorf("%s: duplicate symbol %q", field, spec.Symbol)
		}
		symbols[symbol] = struct{}{}
		addr := crypto.CreateAddress(s.owner, uint64(2+i))
		if strings.TrimSpace(spec.Address) != "" {
			if addr, err = parseAddress(field, spec.Address); err != nil {
				return err
			}
		}
		if _, dup := addresses[addr]; dup {
			return fmt.Errorf("%s: address %s already in use", field, addr.Hex())
		}
		addresses[addr] = struct{}{}
		resolved := resolvedToken{spec: spec, address: addr}
		resolved.spec.Symbol = symbol
		if strings.TrimSpace(spec.PriceUSD) != "" {
			rate, err := oracle.ParseRate(spec.PriceUSD, spec.Decimals)
			if err != nil {
				return fmt.Errorf("%s: %w", field, err)
			}
			resolved.rate = &rate
		}
		s.tokens = append(s.tokens, resolved)
	}

	for i, mod := range s.Moderators {
		if _, err := parseAddress(fmt.Sprintf("moderators[%d]", i), mod); err != nil {
			return err
		}
	}
	for i, creator := range s.VerifiedCreators {
		if _, err := parseAddress(fmt.Sprintf("verifiedCreators[%d]", i), creator); err != nil {
			return err
		}
	}
	if _, err := s.Allocations(); err != nil {
		return err
	}
	return nil
}

func (s *GenesisSpec) OwnerAddress() common.Address     { return s.owner }
func (s *GenesisSpec) FeeWalletAddress() common.Address { return s.feeWallet }
func (s *GenesisSpec) FactoryAddress() common.Address   { return s.factory }
func (s *GenesisSpec) PointsAddress() common.Address    { return s.points }

// StableCoinAddress returns the resolved address of the stable settlement asset.
func (s *GenesisSpec) StableCoinAddress() common.Address {
	if len(s.tokens) < 1 {
		return common.Address{}
	}
	return s.tokens[0].address
}

// CapitaTokenAddress returns the resolved address of the platform token.
func (s *GenesisSpec) CapitaTokenAddress() common.Address {
	if len(s.tokens) < 2 {
		return common.Address{}
	}
	return s.tokens[1].address
}

// ExtraTokenAddresses lists the tokens that are allow-listed at genesis.
func (s *GenesisSpec) ExtraTokenAddresses() []common.Address {
	if len(s.tokens) <= 2 {
		return nil
	}
	out := make([]common.Address, 0, len(s.tokens)-2)
	for _, tok := range s.tokens[2:] {
		out = append(out, tok.address)
	}
	return out
}

// ModeratorAddresses returns the parsed moderator list.
func (s *GenesisSpec) ModeratorAddresses() []common.Address {
	return hexList(s.Moderators)
}

// VerifiedCreatorAddresses returns the parsed verified-creator list.
func (s *GenesisSpec) VerifiedCreatorAddresses() []common.Address {
	return hexList(s.VerifiedCreators)
}

func hexList(values []string) []common.Address {
	out := make([]common.Address, 0, len(values))
	for _, value := range values {
		out = append(out, common.HexToAddress(strings.TrimSpace(value)))
	}
	return out
}

// Ledgers builds the token implementations described by the spec.
func (s *GenesisSpec) Ledgers() []*token.Ledger {
	out := make([]*token.Ledger, 0, len(s.tokens))
	for _, tok := range s.tokens {
		out = append(out, token.NewLedger(tok.address, tok.spec.Symbol, tok.spec.Decimals))
	}
	return out
}

// Rates returns the configured USD rates keyed by token address.
func (s *GenesisSpec) Rates() map[common.Address]oracle.TokenRate {
	out := make(map[common.Address]oracle.TokenRate)
	for _, tok := range s.tokens {
		if tok.rate != nil {
			out[tok.address] = *tok.rate
		}
	}
	return out
}

// Allocations resolves the alloc table into a deterministic list sorted by
// holder and asset.
func (s *GenesisSpec) Allocations() ([]Allocation, error) {
	bySymbol := make(map[string]common.Address, len(s.tokens))
	for _, tok := range s.tokens {
		bySymbol[tok.spec.Symbol] = tok.address
	}
	holders := make([]string, 0, len(s.Alloc))
	for holder := range s.Alloc {
		holders = append(holders, holder)
	}
	sort.Strings(holders)
	var out []Allocation
	for _, holder := range holders {
		addr, err := parseAddress("alloc", holder)
		if err != nil {
			return nil, err
		}
		assets := make([]string, 0, len(s.Alloc[holder]))
		for asset := range s.Alloc[holder] {
			assets = append(assets, asset)
		}
		sort.Strings(assets)
		for _, asset := range assets {
			amount, err := parseAmountString(s.Alloc[holder][asset])
			if err != nil {
				return nil, fmt.Errorf("alloc[%s][%s]: %w", holder, asset, err)
			}
			symbol := strings.ToUpper(strings.TrimSpace(asset))
			if symbol == NativeAsset {
				out = append(out, Allocation{Holder: addr, Native: true, Amount: amount})
				continue
			}
			tokenAddr, ok := bySymbol[symbol]
			if !ok {
				return nil, fmt.Errorf("alloc[%s]: unknown asset %q", holder, asset)
			}
			out = append(out, Allocation{Holder: addr, Asset: tokenAddr, Amount: amount})
		}
	}
	return out, nil
}

// ApplyPriceOverrides replaces the USD price of the tokens named in prices,
// keyed by symbol, and re-validates the spec.
func (s *GenesisSpec) ApplyPriceOverrides(prices map[string]string) error {
	if len(prices) == 0 {
		return nil
	}
	specs := []*TokenSpec{&s.StableCoin, &s.CapitaToken}
	for i := range s.Tokens {
		specs = append(specs, &s.Tokens[i])
	}
	for symbol, price := range prices {
		matched := false
		for _, spec := range specs {
			if strings.EqualFold(strings.TrimSpace(spec.Symbol), strings.TrimSpace(symbol)) {
				spec.PriceUSD = price
				matched = true
			}
		}
		if !matched {
			return fmt.Errorf("price override: unknown token %q", symbol)
		}
	}
	return s.Validate()
}
