package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/swaprouter/gateway/chainlist"
	"github.com/swaprouter/gateway/config"
	"github.com/swaprouter/gateway/httpapi"
	"github.com/swaprouter/gateway/notify"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gateway's HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	gw, err := wireGateway(cfg)
	if err != nil {
		return fmt.Errorf("wiring gateway: %w", err)
	}
	defer gw.Close()

	for _, chainID := range gw.rpc.Chains() {
		log.Printf("connected RPC for chain %d", chainID)
	}

	notifier, err := notify.New(cfg.TelegramToken, cfg.TelegramAdminChat)
	if err != nil {
		return fmt.Errorf("creating notifier: %w", err)
	}

	srv := httpapi.New(httpapi.Deps{
		CORSOrigin:   cfg.CORSOrigin,
		Registry:     gw.registry,
		Monitor:      gw.monitor,
		Orchestrator: gw.orchestrator,
		QuoteCache:   gw.quoteCache,
		Precheck:     gw.precheck,
		Approval:     gw.approvals,
		Spenders:     gw.spenders,
		Coordinator:  gw.coordinator,
		RPC:          gw.rpc,
		Store:        gw.store,
		Chains:       chainlist.New(),
		Notifier:     notifier,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		color.Yellow("shutting down...")
		cancel()
	}()

	addr := ":" + strconv.Itoa(cfg.Port)
	color.Green("gateway listening on %s", addr)
	return srv.Start(ctx, addr)
}
