package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var grantRelation string

var grantCmd = &cobra.Command{
	Use:   "grant <zone-id> <subject-id> <path>",
	Short: "Grant a relation on a path directly in the backend",
	Long: `Insert a permission tuple for the subject on the given path,
bypassing the permission-administration API.

Example:
  lattice-e2e grant z1 u1 /docs/report.md --relation reader`,
	Args: cobra.ExactArgs(3),
	RunE: runGrant,
}

func init() {
	grantCmd.Flags().StringVar(&grantRelation, "relation", "reader", "Relation to grant")
	rootCmd.AddCommand(grantCmd)
}

func runGrant(cmd *cobra.Command, args []string) error {
	zoneID, subjectID, path := args[0], args[1], args[2]
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

	if err := f.GrantRelation(ctx, zoneID, subjectID, path, grantRelation); err != nil {
		return fmt.Errorf("failed to grant relation: %w", err)
	}

	fmt.Printf("Granted %s on %s to %s/%s\n", grantRelation, path, zoneID, subjectID)
	return nil
}
