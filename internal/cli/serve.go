package cli

import (
	"fmt"

	"cvscreen/internal/config"
	"cvscreen/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for application document screening",
	Long: `Start an HTTP server that provides REST API endpoints for document screening.

Available endpoints:
- POST /screen: Screen one application document against required keywords
- POST /screen/batch: Screen a batch of applications concurrently
- GET /health: Health check endpoint
- GET /stats: Server statistics, screening counters and rate limiting info

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
	serveCmd.Flags().String("ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")

	// Bind flags to viper config keys
	bindFlag := func(key, flagName string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(flagName)); err != nil {
			panic(err)
		}
	}

	bindFlag("server.port", "port")
	bindFlag("server.host", "host")
	bindFlag("server.tls.mode", "tls-mode")
	bindFlag("server.tls.certfile", "cert-file")
	bindFlag("server.tls.keyfile", "key-file")
	bindFlag("server.tls.cafile", "ca-file")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	// Validate TLS configuration after applying overrides
	tempConfig := &config.Config{Server: cfg.Server}
	if err := tempConfig.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	// Pull API keys from Vault when configured
	if cfg.Vault.Enabled {
		vaultClient, err := config.NewVaultClient(cfg.Vault, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize Vault client: %w", err)
		}
		if err := cfg.LoadServerAPIKeys(vaultClient); err != nil {
			return fmt.Errorf("failed to load API keys from Vault: %w", err)
		}
	}

	om, err := buildObservability(cfg, Version)
	if err != nil {
		return err
	}

	svc, cleanup, err := buildScreeningService(cmd.Context(), cfg, om, logger)
	if err != nil {
		return fmt.Errorf("failed to build screening pipeline: %w", err)
	}
	defer cleanup()

	serverCfg := server.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        Version,
		TLSConfig:      cfg.Server.TLS,
		APIKeys:        cfg.Server.APIKeys,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.Screening.MaxDocumentSize,
		RateLimit:      &cfg.Server.RateLimit,
	}
	return server.NewServer(cfg, serverCfg, svc, om, logger).Start()
}
