// ABOUTME: Shared utility functions for CLI commands
// ABOUTME: Config and app loading, output helpers, and flag validation
package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/joho/godotenv"

	"github.com/harper/ragdoc/internal/app"
	"github.com/harper/ragdoc/internal/config"
	"github.com/harper/ragdoc/internal/logging"
)

// loadConfig reads .env, the config file, and the environment, then sets up logging
func loadConfig() (*config.Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	opts := logging.Options{
		Level: logging.LevelForFlags(cfg.LogLevel, verbose, quiet),
		JSON:  cfg.LogJSON,
	}
	if err := logging.Setup(opts, nil); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openApp loads configuration and wires the application
func openApp() (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a, err := app.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing: %w", err)
	}
	return a, nil
}

func jsonOutput() bool {
	return outputFormat == "json"
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// validatePositiveInt returns error if n is not positive
func validatePositiveInt(n int, name string) error {
	if n <= 0 {
		return fmt.Errorf("%s must be positive, got %d", name, n)
	}
	return nil
}
