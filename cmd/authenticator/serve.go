package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/ghodss/yaml"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/ockam-network/direct-authenticator/authenticator"
	"github.com/ockam-network/direct-authenticator/credential"
	"github.com/ockam-network/direct-authenticator/enroller"
	alog "github.com/ockam-network/direct-authenticator/log"
	"github.com/ockam-network/direct-authenticator/tokencache"
)

type serveOptions struct {
	config      string
	metricsAddr string
}

func commandServe() *cobra.Command {
	options := serveOptions{}

	cmd := &cobra.Command{
		Use:     "serve [flags] [config file]",
		Short:   "Construct an authenticator and expose its metrics endpoint",
		Example: "authenticator serve config.yaml",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true
			options.config = args[0]
			return runServe(options)
		},
	}

	cmd.Flags().StringVar(&options.metricsAddr, "metrics-addr", "", "Prometheus metrics address, overrides the config file")

	return cmd
}

func runServe(options serveOptions) error {
	configData, err := os.ReadFile(options.config)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", options.config, err)
	}

	var c Config
	if err := yaml.Unmarshal(configData, &c); err != nil {
		return fmt.Errorf("error parsing config file %s: %w", options.config, err)
	}
	if options.metricsAddr != "" {
		c.MetricsAddr = options.metricsAddr
	}
	if err := c.Validate(); err != nil {
		return err
	}

	level := slog.LevelInfo
	if c.Log.Level != "" {
		if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
			return fmt.Errorf("invalid config value %q for log level: %w", c.Log.Level, err)
		}
	}
	logger, err := alog.New(level, c.Log.Format)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	projectID, err := c.ProjectIDBytes()
	if err != nil {
		return err
	}

	store, err := c.Store.Config.Open(logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	directory, err := enroller.New(c.Enroller, c.EnrollerReload)
	if err != nil {
		return fmt.Errorf("failed to load enroller directory: %w", err)
	}

	// The real identity subsystem (out of scope per spec §1) supplies the
	// server's own signing identity; LocalSigner stands in for it here so
	// this binary can issue real, verifiable credentials standalone.
	signer, publicKey, err := credential.NewLocalSigner()
	if err != nil {
		return fmt.Errorf("failed to generate signing key: %w", err)
	}
	logger.Info("generated local signing key", "public_key_hex", fmt.Sprintf("%x", publicKey))

	registry := prometheus.NewRegistry()
	tokens := tokencache.New()
	metrics := authenticator.NewMetrics(registry, tokens.Len)

	srv, err := authenticator.NewServer(context.Background(), authenticator.Config{
		Store:     store,
		Directory: directory,
		Issuer:    credential.NewIssuer(projectID, signer),
		Tokens:    tokens,
		Logger:    logger,
		Metrics:   metrics,
	})
	if err != nil {
		return fmt.Errorf("failed to construct authenticator: %w", err)
	}

	if c.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		logger.Info("serving metrics", "addr", c.MetricsAddr)
		return http.ListenAndServe(c.MetricsAddr, mux)
	}

	logger.Info("authenticator constructed; no secure-channel transport wired (out of scope)",
		"live_tokens", srv.TokenCount())
	select {}
}
