package cli

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"payflow/auth"
	"payflow/executor"
	"payflow/runtime"
	"payflow/service"
)

var (
	flagDebug      bool
	flagDelay      time.Duration
	flagTokenCache string
)

var rootCmd = &cobra.Command{
	Use:   "payflow",
	Short: "Payflow - declarative financial operation runner",
	Long: `Payflow reads a YAML workflow of financial operations (deposits,
transfers, obligations, swaps, treasury actions) and executes them in order
against the identity and payments services, wiring outputs of earlier
operations into the parameters of later ones.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&flagDelay, "delay", 0, "fixed pause between operations")
	rootCmd.PersistentFlags().StringVar(&flagTokenCache, "token-cache", "", "file path to cache the login credential between runs")

	rootCmd.AddCommand(executeCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(variablesCmd)
}

// components holds everything a command needs, wired once per invocation.
type components struct {
	cfg      *runtime.Config
	l        *slog.Logger
	gateway  *auth.Gateway
	client   *service.Client
	registry *runtime.Registry
	runner   *runtime.Runner
}

func bootstrap(cmd *cobra.Command) (*components, error) {
	cfg, err := runtime.LoadConfig()
	if err != nil {
		return nil, err
	}

	// Flags beat environment when explicitly set.
	if cmd.Flags().Changed("debug") {
		cfg.Debug = flagDebug
	}
	if cmd.Flags().Changed("delay") {
		cfg.Delay = flagDelay
	}
	if cmd.Flags().Changed("token-cache") {
		cfg.TokenCache = flagTokenCache
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	l := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	gateway := auth.NewGateway(cfg.AuthURL, cfg.Timeout, l)
	client := service.NewClient(cfg.PaymentsURL, cfg.Timeout)
	registry := executor.NewRegistry(client, gateway)

	var authenticator runtime.Authenticator = gateway
	if cfg.TokenCache != "" {
		authenticator = auth.NewCachedAuthenticator(gateway, auth.NewTokenCache(cfg.TokenCache), l)
	}

	return &components{
		cfg:      cfg,
		l:        l,
		gateway:  gateway,
		client:   client,
		registry: registry,
		runner:   runtime.NewRunner(registry, authenticator, l, cfg.Delay),
	}, nil
}
