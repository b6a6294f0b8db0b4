package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/latticefs/lattice-e2e/internal/report"
)

var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "List archived harness runs, or show one report",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}
	store := report.NewStore(cwd)

	if len(args) == 0 {
		runs, err := store.List()
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No archived runs")
			return nil
		}
		for _, id := range runs {
			fmt.Println(id)
		}
		return nil
	}

	r, err := store.Read(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Run %s against %s\n", r.RunID, r.Target)
	fmt.Printf("  Started:  %s\n", r.StartedAt)
	fmt.Printf("  Finished: %s\n", r.FinishedAt)
	for _, p := range r.Polls {
		path := "primary"
		if p.ViaFallback {
			path = "fallback"
		}
		fmt.Printf("  Poll %-30s found=%-5v via=%-8s attempts=%d latency=%.1fms\n",
			p.Target, p.Found, path, p.Attempts, p.LatencyMS)
	}
	for name, l := range r.Latencies {
		fmt.Printf("  Latency %-20s n=%-4d p50=%.1fms p95=%.1fms p99=%.1fms max=%.1fms\n",
			name, l.Count, l.P50MS, l.P95MS, l.P99MS, l.MaxMS)
	}
	for _, f := range r.Faults {
		fmt.Printf("  Fault %-30s applied=%s restored=%s\n", f.Name, f.Applied, f.Restored)
	}
	return nil
}
