package oracle

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// USDDecimals is the fixed-point precision of every USD value produced by the
// adapter.
const USDDecimals = 18

// NativeDecimals is the precision of the native coin.
const NativeDecimals = 18

var (
	ErrInvalidPrice    = errors.New("oracle: price must be positive")
	ErrFeedNotSet      = errors.New("oracle: price feed not configured")
	ErrInvalidAmount   = errors.New("oracle: amount must not be negative")
	ErrInvalidDecimals = errors.New("oracle: decimals out of range")
)

const maxDecimals = 36

// Feed is the read-only price capability consumed by the platform. Prices are
// USD per whole native coin scaled by 10^Decimals.
type Feed interface {
	LatestPrice() (*big.Int, error)
	Decimals() (uint8, error)
}

// StaticFeed is an in-memory feed used for configuration-driven prices and
// tests.
type StaticFeed struct {
	mu       sync.RWMutex
	price    *big.Int
	decimals uint8
}

// NewStaticFeed constructs a feed reporting price with the supplied decimals.
func NewStaticFeed(price *big.Int, decimals uint8) *StaticFeed {
	feed := &StaticFeed{decimals: decimals}
	if price != nil {
		feed.price = new(big.Int).Set(price)
	}
	return feed
}

// SetPrice replaces the reported price.
func (f *StaticFeed) SetPrice(price *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if price == nil {
		f.price = nil
		return
	}
	f.price = new(big.Int).Set(price)
}

// LatestPrice implements Feed.
func (f *StaticFeed) LatestPrice() (*big.Int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.price == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(f.price), nil
}

// Decimals implements Feed.
func (f *StaticFeed) Decimals() (uint8, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.decimals, nil
}

// TokenRate is a fixed USD conversion for a fungible token: one whole token is
// worth Price/10^PriceDecimals USD and the token uses TokenDecimals.
type TokenRate struct {
	Price         *big.Int
	PriceDecimals uint8
	TokenDecimals uint8
}

// Validate checks the rate is usable.
func (r TokenRate) Validate() error {
	if r.Price == nil || r.Price.Sign() <= 0 {
		return ErrInvalidPrice
	}
	if r.PriceDecimals > maxDecimals || r.TokenDecimals > maxDecimals {
		return ErrInvalidDecimals
	}
	return nil
}

// ParseRate builds a rate from a decimal USD price such as "1.00" or "0.25".
func ParseRate(price string, tokenDecimals uint8) (TokenRate, error) {
	trimmed := strings.TrimSpace(price)
	if trimmed == "" {
		return TokenRate{}, fmt.Errorf("oracle: rate required")
	}
	rat, ok := new(big.Rat).SetString(trimmed)
	if !ok {
		return TokenRate{}, fmt.Errorf("oracle: invalid rate %q", price)
	}
	if rat.Sign() <= 0 {
		return TokenRate{}, ErrInvalidPrice
	}
	scaled := new(big.Rat).Mul(rat, new(big.Rat).SetInt(pow10(USDDecimals)))
	value := new(big.Int).Quo(scaled.Num(), scaled.Denom())
	rate := TokenRate{Price: value, PriceDecimals: USDDecimals, TokenDecimals: tokenDecimals}
	if err := rate.Validate(); err != nil {
		return TokenRate{}, err
	}
	return rate, nil
}

// Adapter converts native-coin and token amounts into 18-decimal USD values.
type Adapter struct {
	mu    sync.RWMutex
	feed  Feed
	rates map[common.Address]TokenRate
}

// NewAdapter wraps feed.
func NewAdapter(feed Feed) *Adapter {
	return &Adapter{feed: feed, rates: make(map[common.Address]TokenRate)}
}

// SetTokenRate configures the conversion used for token.
func (a *Adapter) SetTokenRate(token common.Address, rate TokenRate) error {
	if err := rate.Validate(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rates[token] = TokenRate{
		Price:         new(big.Int).Set(rate.Price),
		PriceDecimals: rate.PriceDecimals,
		TokenDecimals: rate.TokenDecimals,
	}
	return nil
}

// TokenRate returns the configured conversion for token.
func (a *Adapter) TokenRate(token common.Address) (TokenRate, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	rate, ok := a.rates[token]
	return rate, ok
}

// NativeToUSD returns wei*price/10^decimals, which is the USD value with 18
// decimals because the native coin itself has 18 decimals.
func (a *Adapter) NativeToUSD(wei *big.Int) (*big.Int, error) {
	if a == nil || a.feed == nil {
		return nil, ErrFeedNotSet
	}
	if wei == nil {
		return big.NewInt(0), nil
	}
	if wei.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	price, err := a.feed.LatestPrice()
	if err != nil {
		return nil, fmt.Errorf("oracle: latest price: %w", err)
	}
	if price == nil || price.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}
	decimals, err := a.feed.Decimals()
	if err != nil {
		return nil, fmt.Errorf("oracle: decimals: %w", err)
	}
	if decimals > maxDecimals {
		return nil, ErrInvalidDecimals
	}
	value := new(big.Int).Mul(wei, price)
	return value.Quo(value, pow10(decimals)), nil
}

// TokenToUSD converts amount of token using its configured rate. The boolean
// is false when no rate is configured.
func (a *Adapter) TokenToUSD(token common.Address, amount *big.Int) (*big.Int, bool, error) {
	if amount != nil && amount.Sign() < 0 {
		return nil, false, ErrInvalidAmount
	}
	if a == nil {
		return big.NewInt(0), false, nil
	}
	rate, ok := a.TokenRate(token)
	if !ok {
		return big.NewInt(0), false, nil
	}
	if amount == nil {
		return big.NewInt(0), true, nil
	}
	value := new(big.Int).Mul(amount, rate.Price)
	value.Mul(value, pow10(USDDecimals))
	denom := new(big.Int).Mul(pow10(rate.PriceDecimals), pow10(rate.TokenDecimals))
	return value.Quo(value, denom), true, nil
}

// ValueOf converts amount of asset, where the zero address denotes the native
// coin. The boolean reports whether the asset could be priced.
func (a *Adapter) ValueOf(asset common.Address, amount *big.Int) (*big.Int, bool, error) {
	if asset == (common.Address{}) {
		value, err := a.NativeToUSD(amount)
		if err != nil {
			return nil, false, err
		}
		return value, true, nil
	}
	return a.TokenToUSD(asset, amount)
}

func pow10(n uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
