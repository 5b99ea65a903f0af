package config

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"capitafund/native/factory"
)

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.FileExists(t, path)
	require.Equal(t, ":8545", cfg.RPCAddress)

	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.Platform, reloaded.Platform)
	require.Equal(t, cfg.Oracle, reloaded.Oracle)
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
RPCAddress = ":9000"
DataDir = "/tmp/capita"
GenesisFile = "genesis.json"

[Platform]
FundingLimitUSD = "1000"
MaxBatchSize = 10
CapNativeContributions = true

[Oracle]
Price = "2500.5"
Decimals = 8

[TokenPrices]
USDC = "1.00"

[Auth]
JWTSecret = "s3cret"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.RPCAddress)
	require.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	require.Equal(t, "1.00", cfg.TokenPrices["USDC"])

	params, err := cfg.FactoryParams()
	require.NoError(t, err)
	require.Equal(t, 10, params.MaxBatchSize)
	require.True(t, params.CapNativeContributions)
	require.Equal(t, new(big.Int).Mul(big.NewInt(1000), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)), params.FundingLimit)

	feed, err := cfg.PriceFeed()
	require.NoError(t, err)
	price, err := feed.LatestPrice()
	require.NoError(t, err)
	require.Equal(t, big.NewInt(250_050_000_000), price)
}

func TestLoadYAML(t *testing.T) {
	t.Setenv("CAPITA_JWT_SECRET", "from-env")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rpcAddress: ":9100"
dataDir: ./data
genesisFile: genesis.json
oracle:
  price: "1800"
  decimals: 8
rateLimit:
  requestsPerSecond: 5
  burst: 10
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9100", cfg.RPCAddress)
	require.Equal(t, "from-env", cfg.Auth.JWTSecret)
	require.Equal(t, 5.0, cfg.RateLimit.RequestsPerSecond)

	params, err := cfg.FactoryParams()
	require.NoError(t, err)
	require.Equal(t, factory.DefaultFundingLimit, params.FundingLimit)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte("ListenAddress = \":6001\"\n"), 0o600))
	_, err := Load(tomlPath)
	require.Error(t, err)

	yamlPath := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("bootnodes: []\n"), 0o600))
	_, err = Load(yamlPath)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"empty rpc":        func(c *Config) { c.RPCAddress = "" },
		"empty genesis":    func(c *Config) { c.GenesisFile = " " },
		"unknown storage":  func(c *Config) { c.Storage = "rocksdb" },
		"bad limit":        func(c *Config) { c.Platform.FundingLimitUSD = "-5" },
		"negative batch":   func(c *Config) { c.Platform.MaxBatchSize = -1 },
		"zero price":       func(c *Config) { c.Oracle.Price = "0" },
		"zero decimals":    func(c *Config) { c.Oracle.Decimals = 0 },
		"bad token price":  func(c *Config) { c.TokenPrices = map[string]string{"DAI": "free"} },
		"burst missing":    func(c *Config) { c.RateLimit = RateLimit{RequestsPerSecond: 1} },
		"bad log level":    func(c *Config) { c.Logging.Level = "chatty" },
		"bad sample ratio": func(c *Config) { c.Telemetry.SampleRatio = 2 },
		"webhook secret":   func(c *Config) { c.Webhook = Webhook{URL: "https://hooks.example"} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
	require.NoError(t, Default().Validate())
}
