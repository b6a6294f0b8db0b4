package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var revokeZoneCmd = &cobra.Command{
	Use:   "revoke-zone <zone-id>",
	Short: "Terminate a zone, revoking its credentials and tuples",
	Long: `Mark the zone terminated, flag every credential under it as
revoked, and delete its permission tuples. Idempotent: revoking an
already-terminated zone is a no-op.

Example:
  lattice-e2e revoke-zone z1`,
	Args: cobra.ExactArgs(1),
	RunE: runRevokeZone,
}

func init() {
	rootCmd.AddCommand(revokeZoneCmd)
}

func runRevokeZone(cmd *cobra.Command, args []string) error {
	zoneID := args[0]
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

	if err := f.RevokeZone(ctx, zoneID); err != nil {
		return fmt.Errorf("failed to revoke zone: %w", err)
	}

	fmt.Printf("Zone %s terminated\n", zoneID)
	return nil
}
