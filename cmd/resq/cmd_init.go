package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"resqgrid/internal/config"
	"resqgrid/internal/logging"
)

var initForce bool

// initCmd writes a default config file
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long: `Writes the default configuration to --config (default: .resq/config.yaml).
Credentials are never written; set GEMINI_API_KEY or API_KEY instead.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
	}

	def := config.DefaultConfig()
	if err := def.Save(path); err != nil {
		return err
	}

	logging.For(logger, logging.CategoryBoot).Info("config written", zap.String("path", path))
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s %s config to %s\n", def.Name, def.Version, path)
	return nil
}

// banner names the running configuration.
func banner() string {
	c := cfg
	if c == nil {
		c = config.DefaultConfig()
	}
	return fmt.Sprintf("%s %s", c.Name, c.Version)
}
