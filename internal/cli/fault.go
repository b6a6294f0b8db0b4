package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/latticefs/lattice-e2e/internal/config"
	"github.com/latticefs/lattice-e2e/internal/fault"
	"github.com/latticefs/lattice-e2e/internal/logging"
)

var faultHold time.Duration

var faultCmd = &cobra.Command{
	Use:   "fault",
	Short: "Inject a fault against the deployment, then restore it",
}

var faultStopCmd = &cobra.Command{
	Use:   "stop <container>",
	Short: "Stop a container for a duration, then restart it",
	Long: `Stop the named container, hold the fault for --for, then
restart it. Restoration runs even if the hold is interrupted.

Example:
  lattice-e2e fault stop lattice-node-1 --for 30s`,
	Args: cobra.ExactArgs(1),
	RunE: runFaultStop,
}

var faultPartitionCmd = &cobra.Command{
	Use:   "partition <container>",
	Short: "Disconnect a container from the configured network, then reconnect",
	Long: `Disconnect the named container from the network configured under
fault.network, hold the fault for --for, then reconnect.

Example:
  lattice-e2e fault partition lattice-node-2 --for 10s`,
	Args: cobra.ExactArgs(1),
	RunE: runFaultPartition,
}

func init() {
	faultCmd.PersistentFlags().DurationVar(&faultHold, "for", 10*time.Second, "How long to hold the fault")
	faultCmd.AddCommand(faultStopCmd)
	faultCmd.AddCommand(faultPartitionCmd)
	rootCmd.AddCommand(faultCmd)
}

func runnerFromConfig(cfg *config.Config) fault.Runner {
	return &fault.DockerRunner{
		Binary:  cfg.Fault.DockerBinary,
		Timeout: cfg.Fault.CommandTimeout(),
	}
}

func holdFault(cmd *cobra.Command, f fault.Fault) error {
	ctx := commandContext(cmd)
	in := fault.NewInjector(logging.New("fault"))

	return in.WithFault(ctx, f, func(ctx context.Context) error {
		fmt.Printf("Fault applied: %s (holding for %s)\n", f.Name, faultHold)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(faultHold):
			return nil
		}
	})
}

func runFaultStop(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return holdFault(cmd, fault.StopContainer(runnerFromConfig(cfg), args[0]))
}

func runFaultPartition(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Fault.Network == "" {
		return fmt.Errorf("fault.network is not configured")
	}
	return holdFault(cmd, fault.PartitionNetwork(runnerFromConfig(cfg), args[0], cfg.Fault.Network))
}
