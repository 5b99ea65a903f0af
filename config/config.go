package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type Config struct {
	RPCAddress  string            `toml:"RPCAddress" yaml:"rpcAddress"`
	DataDir     string            `toml:"DataDir" yaml:"dataDir"`
	Storage     string            `toml:"Storage" yaml:"storage"`
	GenesisFile string            `toml:"GenesisFile" yaml:"genesisFile"`
	Environment string            `toml:"Environment" yaml:"environment"`
	Platform    Platform          `toml:"Platform" yaml:"platform"`
	Oracle      Oracle            `toml:"Oracle" yaml:"oracle"`
	TokenPrices map[string]string `toml:"TokenPrices" yaml:"tokenPrices"`
	Auth        Auth              `toml:"Auth" yaml:"auth"`
	RateLimit   RateLimit         `toml:"RateLimit" yaml:"rateLimit"`
	Logging     Logging           `toml:"Logging" yaml:"logging"`
	Telemetry   Telemetry         `toml:"Telemetry" yaml:"telemetry"`
	Webhook     Webhook           `toml:"Webhook" yaml:"webhook"`
}

// Load loads the configuration from the given path. Files ending in .yaml or
// .yml are decoded as YAML, everything else as TOML. A missing file is
// created with the defaults.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	} else if err != nil {
		return nil, err
	}

	cfg := Default()
	if isYAML(path) {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		dec := yaml.NewDecoder(strings.NewReader(string(raw)))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	} else {
		meta, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("config file %s: unknown field %s", path, undecoded[0].String())
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the configuration used for new installations.
func Default() *Config {
	return &Config{
		RPCAddress:  ":8545",
		DataDir:     "./capita-data",
		Storage:     "leveldb",
		GenesisFile: "genesis.json",
		Environment: "local",
		Platform: Platform{
			FundingLimitUSD: "35000",
			MaxBatchSize:    50,
		},
		Oracle: Oracle{
			Price:    "2000",
			Decimals: 8,
		},
		TokenPrices: map[string]string{},
		Auth: Auth{
			JWTSecretEnv: "CAPITA_JWT_SECRET",
			Issuer:       "capitafund",
		},
		RateLimit: RateLimit{RequestsPerSecond: 20, Burst: 40},
		Logging:   Logging{Level: "info", MaxSizeMB: 100, MaxBackups: 5, MaxAgeDays: 28},
		Telemetry: Telemetry{ServiceName: "capitad", Endpoint: "localhost:4318", Insecure: true},
		Webhook:   Webhook{SecretEnv: "CAPITA_WEBHOOK_SECRET", MaxAttempts: 5, QueueSize: 256},
	}
}

// applyEnv resolves secrets referenced through environment variables.
func (c *Config) applyEnv() {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" && c.Auth.JWTSecretEnv != "" {
		c.Auth.JWTSecret = os.Getenv(c.Auth.JWTSecretEnv)
	}
	if strings.TrimSpace(c.Webhook.Secret) == "" && c.Webhook.SecretEnv != "" {
		c.Webhook.Secret = os.Getenv(c.Webhook.SecretEnv)
	}
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if isYAML(path) {
		enc := yaml.NewEncoder(f)
		defer enc.Close()
		return enc.Encode(cfg)
	}
	return toml.NewEncoder(f).Encode(cfg)
}
