package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"resqgrid/internal/config"
	"resqgrid/internal/grid"
	"resqgrid/internal/incident"
	"resqgrid/internal/logging"
	"resqgrid/internal/perception"
)

var (
	// Global flags
	verbose       bool
	configPath    string
	forceFallback bool
	jsonOutput    bool

	// Loaded in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "resq",
	Short: "resq - incident resolution engine for the tactical grid",
	Long: `resq classifies free-text reports as casual chat, emergencies or operator
commands, resolves the place they mention to grid cells, and updates the
grid accordingly.

Without a classifier API key (GEMINI_API_KEY or API_KEY) every report goes
through the deterministic keyword classifier.`,
	Version:      config.DefaultConfig().Version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = config.DefaultConfigPath()
		}

		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return err
		}
		if forceFallback {
			cfg.Classifier.Mode = config.ModeFallback
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		logger, err = logging.New(cfg.Logging, verbose)
		if err != nil {
			return err
		}
		logging.For(logger, logging.CategoryBoot).Debug("config loaded",
			zap.String("path", path),
			zap.String("mode", cfg.Classifier.Mode))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: .resq/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&forceFallback, "fallback", false, "Use the deterministic classifier even when an API key is set")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print machine-readable JSON")

	evalCmd.Flags().StringVarP(&evalFile, "file", "f", "", "File with one report per line (- for stdin)")
	evalCmd.Flags().IntVar(&evalParallel, "parallel", 0, "Concurrent classifications (default: session.parallel from config)")
	_ = evalCmd.MarkFlagRequired("file")

	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(initCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// loadCatalog returns the configured catalog, or the built-in one.
func loadCatalog() (*grid.Catalog, error) {
	if cfg == nil || cfg.Catalog.Path == "" {
		return grid.DefaultCatalog(), nil
	}
	catalog, err := grid.LoadCatalogFile(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}
	logging.For(logger, logging.CategoryBoot).Info("catalog loaded",
		zap.String("path", cfg.Catalog.Path),
		zap.Int("cells", catalog.Len()))
	return catalog, nil
}

// newGateway builds the classifier gateway from the loaded config.
func newGateway(ctx context.Context) (*perception.Gateway, error) {
	c := cfg
	if c == nil {
		c = config.DefaultConfig()
	}
	return perception.NewGatewayFromConfig(ctx, c, logging.For(logger, logging.CategoryPerception))
}

// newOrchestrator wires catalog, gateway and orchestrator.
func newOrchestrator(ctx context.Context) (*incident.Orchestrator, error) {
	catalog, err := loadCatalog()
	if err != nil {
		return nil, err
	}
	gw, err := newGateway(ctx)
	if err != nil {
		return nil, err
	}
	return incident.New(gw, catalog, logging.For(logger, logging.CategoryIncident)), nil
}

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
