package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/swaprouter/gateway/classify"
	"github.com/swaprouter/gateway/domain"
)

var (
	analyzeSourceChain      int64
	analyzeDestinationChain int64
	analyzeSourceEco        string
	analyzeDestinationEco   string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Preview the routing classification for a source/destination pair",
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().Int64Var(&analyzeSourceChain, "source-chain", 0, "source chain ID")
	analyzeCmd.Flags().Int64Var(&analyzeDestinationChain, "destination-chain", 0, "destination chain ID")
	analyzeCmd.Flags().StringVar(&analyzeSourceEco, "source-ecosystem", "evm", "source ecosystem")
	analyzeCmd.Flags().StringVar(&analyzeDestinationEco, "destination-ecosystem", "evm", "destination ecosystem")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	req := domain.UniversalSwapRequest{
		Source:      domain.ChainRef{ChainID: analyzeSourceChain, Ecosystem: domain.Ecosystem(analyzeSourceEco)},
		Destination: domain.ChainRef{ChainID: analyzeDestinationChain, Ecosystem: domain.Ecosystem(analyzeDestinationEco)},
	}

	swapType, err := classify.DetermineSwapType(req)
	if err != nil {
		return err
	}
	category, err := classify.CategoryFor(swapType, req)
	if err != nil {
		return err
	}

	color.Cyan("swap type: %s", swapType)
	fmt.Printf("provider category: %s\n", category)
	return nil
}
