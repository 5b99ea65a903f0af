package config

import (
	"fmt"
	"math/big"
	"strings"

	"capitafund/native/factory"
	"capitafund/native/oracle"
	"capitafund/observability/logging"
	"capitafund/storage"
)

// Validate checks the configuration for values the node cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.RPCAddress) == "" {
		return fmt.Errorf("RPCAddress must be set")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("DataDir must be set")
	}
	switch strings.ToLower(strings.TrimSpace(c.Storage)) {
	case "", storage.EngineLevelDB, storage.EngineBolt:
	default:
		return fmt.Errorf("Storage: unknown engine %q", c.Storage)
	}
	if strings.TrimSpace(c.GenesisFile) == "" {
		return fmt.Errorf("GenesisFile must be set")
	}
	if _, err := c.FactoryParams(); err != nil {
		return err
	}
	if _, err := c.PriceFeed(); err != nil {
		return err
	}
	for symbol, price := range c.TokenPrices {
		if _, err := oracle.ParseRate(price, 0); err != nil {
			return fmt.Errorf("TokenPrices.%s: %w", symbol, err)
		}
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("RateLimit: values must not be negative")
	}
	if c.RateLimit.RequestsPerSecond > 0 && c.RateLimit.Burst == 0 {
		return fmt.Errorf("RateLimit: Burst must be positive when RequestsPerSecond is set")
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("Logging: %w", err)
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("Telemetry: SampleRatio must be within [0,1]")
	}
	if c.Telemetry.Enabled && strings.TrimSpace(c.Telemetry.ServiceName) == "" {
		return fmt.Errorf("Telemetry: ServiceName must be set")
	}
	if strings.TrimSpace(c.Webhook.URL) != "" {
		if strings.TrimSpace(c.Webhook.Secret) == "" {
			return fmt.Errorf("Webhook: Secret must be set when URL is configured")
		}
		if c.Webhook.MaxAttempts < 0 || c.Webhook.QueueSize < 0 {
			return fmt.Errorf("Webhook: values must not be negative")
		}
	}
	return nil
}

// FactoryParams converts the platform section into factory parameters.
func (c *Config) FactoryParams() (factory.Params, error) {
	params := factory.DefaultParams()
	if raw := strings.TrimSpace(c.Platform.FundingLimitUSD); raw != "" {
		whole, ok := new(big.Int).SetString(raw, 10)
		if !ok || whole.Sign() <= 0 {
			return params, fmt.Errorf("Platform.FundingLimitUSD: invalid value %q", raw)
		}
		params.FundingLimit = new(big.Int).Mul(whole, new(big.Int).Exp(big.NewInt(10), big.NewInt(oracle.USDDecimals), nil))
	}
	if c.Platform.MaxBatchSize < 0 {
		return params, fmt.Errorf("Platform.MaxBatchSize must not be negative")
	}
	if c.Platform.MaxBatchSize > 0 {
		params.MaxBatchSize = c.Platform.MaxBatchSize
	}
	params.CapNativeContributions = c.Platform.CapNativeContributions
	return params, nil
}

// PriceFeed builds the static native-coin feed described by the oracle
// section.
func (c *Config) PriceFeed() (*oracle.StaticFeed, error) {
	rate, err := oracle.ParseRate(c.Oracle.Price, oracle.NativeDecimals)
	if err != nil {
		return nil, fmt.Errorf("Oracle.Price: %w", err)
	}
	if c.Oracle.Decimals == 0 || c.Oracle.Decimals > 36 {
		return nil, fmt.Errorf("Oracle.Decimals: %w", oracle.ErrInvalidDecimals)
	}
	// Rescale the parsed price to the configured feed precision.
	price := new(big.Int).Set(rate.Price)
	switch {
	case rate.PriceDecimals < c.Oracle.Decimals:
		price.Mul(price, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(c.Oracle.Decimals-rate.PriceDecimals)), nil))
	case rate.PriceDecimals > c.Oracle.Decimals:
		price.Quo(price, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(rate.PriceDecimals-c.Oracle.Decimals)), nil))
	}
	if price.Sign() <= 0 {
		return nil, fmt.Errorf("Oracle.Price: %w", oracle.ErrInvalidPrice)
	}
	return oracle.NewStaticFeed(price, c.Oracle.Decimals), nil
}
