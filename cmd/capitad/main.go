package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"capitafund/config"
	"capitafund/core"
	"capitafund/core/events"
	"capitafund/core/genesis"
	"capitafund/integrations/webhooks"
	"capitafund/observability"
	"capitafund/observability/logging"
	cotel "capitafund/observability/otel"
	"capitafund/rpc"
	"capitafund/storage"
)

const (
	defaultConfig = "./config.toml"
	tokenCommand  = "token"
	genesisEnv    = "CAPITA_GENESIS"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == tokenCommand {
		if err := runToken(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	configFile := flag.String("config", defaultConfig, "Path to the configuration file (.toml, .yaml or .yml)")
	genesisFlag := flag.String("genesis", "", "Path to the genesis JSON file (overrides CAPITA_GENESIS and config GenesisFile)")
	flag.Parse()

	if err := serve(*configFile, *genesisFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func serve(configFile, genesisFlag string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, logCloser, err := logging.Setup("capitad", cfg.Environment, logging.Options{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		return fmt.Errorf("set up logging: %w", err)
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdown, err := cotel.Init(ctx, cotel.Config{
			ServiceName: cfg.Telemetry.ServiceName,
			Environment: cfg.Environment,
			Endpoint:    cfg.Telemetry.Endpoint,
			Insecure:    cfg.Telemetry.Insecure,
			Headers:     cotel.ParseHeaders(cfg.Telemetry.Headers),
			Metrics:     cfg.Telemetry.Metrics,
			Traces:      cfg.Telemetry.Traces,
			SampleRatio: cfg.Telemetry.SampleRatio,
		})
		if err != nil {
			return fmt.Errorf("init telemetry: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				logger.Warn("telemetry shutdown failed", slog.Any("error", err))
			}
		}()
	}

	spec, err := genesis.LoadGenesisSpec(resolveGenesisPath(genesisFlag, cfg.GenesisFile, os.LookupEnv))
	if err != nil {
		return err
	}
	if err := spec.ApplyPriceOverrides(cfg.TokenPrices); err != nil {
		return fmt.Errorf("apply token prices: %w", err)
	}
	params, err := cfg.FactoryParams()
	if err != nil {
		return err
	}
	feed, err := cfg.PriceFeed()
	if err != nil {
		return err
	}

	db, err := storage.Open(cfg.Storage, cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	var subscriber events.Emitter
	if strings.TrimSpace(cfg.Webhook.URL) != "" {
		dispatcher, err := webhooks.NewDispatcher(cfg.Webhook.URL, []byte(cfg.Webhook.Secret),
			webhooks.WithRetryPolicy(cfg.Webhook.MaxAttempts, 0, 0),
			webhooks.WithTopics(cfg.Webhook.Topics...),
			webhooks.WithQueueSize(cfg.Webhook.QueueSize),
			webhooks.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("webhook: %w", err)
		}
		defer dispatcher.Close()
		subscriber = dispatcher
		logger.Info("forwarding events to webhook", slog.String("url", logging.MaskURL(cfg.Webhook.URL)))
	}

	node, err := core.NewNode(ctx, db, spec, feed, core.Options{
		Params:     params,
		Logger:     logger,
		Tracer:     cotel.Tracer("core"),
		Metrics:    observability.Platform(),
		Subscriber: subscriber,
	})
	if err != nil {
		return fmt.Errorf("create node: %w", err)
	}
	logger.Info("platform ready",
		slog.String("factory", node.FactoryAddress().Hex()),
		slog.String("points", node.PointsAddress().Hex()),
		slog.String("stable", spec.StableCoinAddress().Hex()),
		slog.String("capita", spec.CapitaTokenAddress().Hex()))

	server := rpc.NewServer(node, rpc.Config{
		Auth: rpc.AuthConfig{
			HMACSecret: cfg.Auth.JWTSecret,
			Issuer:     cfg.Auth.Issuer,
		},
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
		TrustProxyHeaders: cfg.RateLimit.TrustProxyHeaders,
		Logger:            logger,
	})
	if err := server.Start(ctx, cfg.RPCAddress); err != nil {
		return fmt.Errorf("rpc server: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}

// resolveGenesisPath prefers the flag, then the environment, then the
// configured file.
func resolveGenesisPath(flagValue, configValue string, lookup func(string) (string, bool)) string {
	if trimmed := strings.TrimSpace(flagValue); trimmed != "" {
		return trimmed
	}
	if lookup != nil {
		if value, ok := lookup(genesisEnv); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return strings.TrimSpace(configValue)
}

// runToken issues a bearer token for an operator or test wallet.
func runToken(args []string) error {
	fs := flag.NewFlagSet(tokenCommand, flag.ContinueOnError)
	configPath := fs.String("config", defaultConfig, "Path to the configuration file")
	address := fs.String("address", "", "Caller address the token authenticates")
	ttl := fs.Duration("ttl", time.Hour, "Token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !common.IsHexAddress(*address) {
		return errors.New("-address must be a hex address")
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	token, err := rpc.IssueToken(cfg.Auth.JWTSecret, cfg.Auth.Issuer, common.HexToAddress(*address), *ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
