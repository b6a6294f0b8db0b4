// Package cli implements the lattice-e2e command, a thin launcher for
// poking a live deployment with the same primitives the test suite
// uses: minting credentials, granting relations, revoking zones and
// injecting faults.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/latticefs/lattice-e2e/internal/config"
	"github.com/latticefs/lattice-e2e/internal/credstore"
	"github.com/latticefs/lattice-e2e/internal/forge"
	"github.com/latticefs/lattice-e2e/internal/logging"
)

// Version is set at build time via ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "lattice-e2e",
	Short: "Verification harness tooling for a Lattice deployment",
	Long: `lattice-e2e exposes the E2E harness primitives as commands so an
operator can mint synthetic credentials, grant relations, revoke whole
zones and inject infrastructure faults against a live deployment
without writing a test.

Configuration is read from .lattice-e2e/config.yaml in the current
directory, with LATTICE_E2E_* environment variables taking precedence.`,
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("lattice-e2e version {{.Version}}\n")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// commandContext returns the cobra command's context, defaulting to
// Background.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// loadConfig reads harness configuration from the working directory.
func loadConfig() (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	return config.Load(cwd)
}

// buildForge wires a Forge from configuration. The credential store is
// opened only when one is configured; the caller must Close the
// returned store when it is non-nil.
func buildForge(ctx context.Context, cfg *config.Config) (*forge.Forge, credstore.Store, error) {
	var store credstore.Store
	if cfg.Credentials.StoreURL != "" {
		var err error
		store, err = credstore.Open(ctx, cfg.Credentials.StoreURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open credential store: %w", err)
		}
	}

	f := forge.New(forge.Options{
		Admin:  adminFromConfig(cfg),
		Store:  store,
		Salt:   cfg.Credentials.TokenSalt,
		Logger: logging.New("forge"),
	})
	return f, store, nil
}
