package config

// Platform tunes the factory deployment.
type Platform struct {
	// FundingLimitUSD is the unverified-creator cap in whole USD.
	FundingLimitUSD        string `toml:"FundingLimitUSD" yaml:"fundingLimitUsd"`
	MaxBatchSize           int    `toml:"MaxBatchSize" yaml:"maxBatchSize"`
	CapNativeContributions bool   `toml:"CapNativeContributions" yaml:"capNativeContributions"`
}

// Oracle configures the static native-coin price feed.
type Oracle struct {
	// Price is the USD price of one native coin as a decimal string.
	Price    string `toml:"Price" yaml:"price"`
	Decimals uint8  `toml:"Decimals" yaml:"decimals"`
}

// Auth configures bearer-token authentication of RPC callers.
type Auth struct {
	JWTSecret    string `toml:"JWTSecret,omitempty" yaml:"jwtSecret,omitempty"`
	JWTSecretEnv string `toml:"JWTSecretEnv" yaml:"jwtSecretEnv"`
	Issuer       string `toml:"Issuer" yaml:"issuer"`
}

// RateLimit bounds the request rate per client address.
type RateLimit struct {
	RequestsPerSecond float64 `toml:"RequestsPerSecond" yaml:"requestsPerSecond"`
	Burst             int     `toml:"Burst" yaml:"burst"`
	TrustProxyHeaders bool    `toml:"TrustProxyHeaders" yaml:"trustProxyHeaders"`
}

type Logging struct {
	Level      string `toml:"Level" yaml:"level"`
	File       string `toml:"File" yaml:"file"`
	MaxSizeMB  int    `toml:"MaxSizeMB" yaml:"maxSizeMb"`
	MaxBackups int    `toml:"MaxBackups" yaml:"maxBackups"`
	MaxAgeDays int    `toml:"MaxAgeDays" yaml:"maxAgeDays"`
}

// Telemetry configures the OTLP exporters.
type Telemetry struct {
	Enabled     bool    `toml:"Enabled" yaml:"enabled"`
	ServiceName string  `toml:"ServiceName" yaml:"serviceName"`
	Endpoint    string  `toml:"Endpoint" yaml:"endpoint"`
	Insecure    bool    `toml:"Insecure" yaml:"insecure"`
	Headers     string  `toml:"Headers" yaml:"headers"`
	Metrics     bool    `toml:"Metrics" yaml:"metrics"`
	Traces      bool    `toml:"Traces" yaml:"traces"`
	SampleRatio float64 `toml:"SampleRatio" yaml:"sampleRatio"`
}

// Webhook forwards committed platform events to an HTTP endpoint.
type Webhook struct {
	URL         string   `toml:"URL" yaml:"url"`
	Secret      string   `toml:"Secret,omitempty" yaml:"secret,omitempty"`
	SecretEnv   string   `toml:"SecretEnv" yaml:"secretEnv"`
	Topics      []string `toml:"Topics" yaml:"topics"`
	MaxAttempts int      `toml:"MaxAttempts" yaml:"maxAttempts"`
	QueueSize   int      `toml:"QueueSize" yaml:"queueSize"`
}
