package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/arnac-io/wton/internal/config"
	"github.com/arnac-io/wton/pkg/api"
	"github.com/arnac-io/wton/pkg/app"
	"github.com/arnac-io/wton/pkg/contract"
	"github.com/arnac-io/wton/pkg/emulator"
	"github.com/arnac-io/wton/pkg/genesis"
	"github.com/arnac-io/wton/pkg/sentry"
	"github.com/arnac-io/wton/pkg/wton"
)

func main() {
	cfg := config.Load()
	log := app.Logger(cfg.App.LogLevel)
	defer log.Sync() //nolint:errcheck

	params := cfg.Params()
	registry, err := contract.NewRegistry(wton.NewMinter(params), wton.NewWallet(params))
	if err != nil {
		log.Fatal("registry init", zap.Error(err))
	}
	executor, err := emulator.NewExecutor(registry, cfg.Prices(), log, emulator.WithOpNames(wton.OpName))
	if err != nil {
		log.Fatal("executor init", zap.Error(err))
	}
	network := emulator.NewNetwork(executor, log, emulator.WithMailboxCapacity(cfg.Emulator.MailboxCapacity))

	g := genesis.FromAccounts(cfg.App.Accounts, cfg.App.AccountBalance)
	g.Workchain = cfg.Emulator.Workchain
	if cfg.App.GenesisPath != "" {
		if g, err = genesis.Load(cfg.App.GenesisPath); err != nil {
			log.Fatal("genesis load", zap.String("path", cfg.App.GenesisPath), zap.Error(err))
		}
	}
	state, err := g.Apply(network)
	if err != nil {
		log.Fatal("genesis apply", zap.Error(err))
	}
	log.Info("genesis applied",
		zap.String("minter", state.Minter.ToRaw()),
		zap.Int("wallets", len(state.Wallets)),
		zap.String("total_supply", state.Supply.Format()),
		zap.Stringer("mint_policy", params.MintPolicy))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go app.ServeMetrics(ctx, log, cfg.App.MetricsPort)

	server := api.NewServer(log, api.NewHandler(log, network, state.Minter), fmt.Sprintf(":%v", cfg.API.Port),
		api.WithWriteRateLimit(cfg.API.WriteRateLimit, cfg.API.WriteRateWindow))
	go func() {
		<-ctx.Done()
		app.Shutdown(log, "api", server.Shutdown)
	}()
	server.Run()

	if err := network.Close(); err != nil {
		log.Error("network close", zap.Error(err))
	}
	sentry.Flush(2 * time.Second)
}
