package main

import (
	"context"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/swaprouter/gateway/config"
	"github.com/swaprouter/gateway/domain"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe every registered provider once and print its status",
	RunE:  runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	gw, err := wireGateway(cfg)
	if err != nil {
		return fmt.Errorf("wiring gateway: %w", err)
	}
	defer gw.Close()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " probing providers..."
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	snapshots := gw.monitor.All(ctx)

	s.Stop()

	for _, snap := range snapshots {
		printSnapshot(snap)
	}
	return nil
}

func printSnapshot(snap domain.ProviderHealth) {
	switch snap.Status {
	case domain.HealthHealthy:
		color.Green("%-16s healthy   (%dms)", snap.Name, snap.LatencyMs)
	case domain.HealthDegraded:
		color.Yellow("%-16s degraded  (%dms, error rate %.0f%%)", snap.Name, snap.LatencyMs, snap.ErrorRate*100)
	default:
		color.Red("%-16s unhealthy (error rate %.0f%%)", snap.Name, snap.ErrorRate*100)
	}
}
