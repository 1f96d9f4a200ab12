package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:     "gateway",
	Short:   "Universal swap aggregation gateway",
	Long:    "gateway routes swap requests across EVM DEX aggregators, cross-chain meta-aggregators, and native-chain routers, picking the right one for a given source/destination pair.",
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
