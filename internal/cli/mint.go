package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/latticefs/lattice-e2e/internal/client"
	"github.com/latticefs/lattice-e2e/internal/config"
	"github.com/latticefs/lattice-e2e/internal/forge"
)

var (
	mintLabel string
	mintAdmin bool
)

var mintCmd = &cobra.Command{
	Use:   "mint <zone-id> <subject-id>",
	Short: "Mint a synthetic credential for a zone and subject",
	Long: `Mint an access credential for the given zone and subject.

The administrative API is tried first; when it is unavailable the
credential is forged locally and its digest written directly into the
configured relational backend. The raw token is printed exactly once
and is never persisted.

Example:
  lattice-e2e mint z1 u1 --label boundary-test --admin`,
	Args: cobra.ExactArgs(2),
	RunE: runMint,
}

func init() {
	mintCmd.Flags().StringVar(&mintLabel, "label", "lattice-e2e", "Credential label")
	mintCmd.Flags().BoolVar(&mintAdmin, "admin", false, "Mint an admin credential")
	rootCmd.AddCommand(mintCmd)
}

// adminFromConfig returns the admin mint path when a target URL is
// configured, nil otherwise.
func adminFromConfig(cfg *config.Config) forge.AdminMinter {
	if cfg.Target.URL == "" {
		return nil
	}
	return clientMinter{c: client.NewHTTP(cfg.Target.URL, cfg.Target.AdminToken)}
}

type clientMinter struct {
	c client.Client
}

func (m clientMinter) CreateCredential(ctx context.Context, zoneID, subjectID, label string, admin bool) (string, error) {
	resp, err := m.c.CreateCredential(ctx, client.CreateCredentialRequest{
		Label:     label,
		ZoneID:    zoneID,
		SubjectID: subjectID,
		IsAdmin:   admin,
	})
	if err != nil {
		return "", err
	}
	return resp.RawToken, nil
}

func runMint(cmd *cobra.Command, args []string) error {
	zoneID, subjectID := args[0], args[1]
	ctx := commandContext(cmd)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	f, store, err := buildForge(ctx, cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	cred, err := f.Mint(ctx, zoneID, subjectID, mintLabel, mintAdmin)
	if err != nil {
		return fmt.Errorf("failed to mint credential: %w", err)
	}

	fmt.Printf("Minted credential for %s/%s\n", zoneID, subjectID)
	if cred.KeyID != "" {
		fmt.Printf("  Key ID: %s\n", cred.KeyID)
	}
	fmt.Printf("  Token:  %s\n", cred.Token)
	return nil
}
