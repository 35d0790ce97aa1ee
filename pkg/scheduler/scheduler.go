package scheduler

import (
	"context"

	"github.com/NpoolPlatform/go-service-framework/pkg/logger"
	"github.com/xmrshop/wallet-scheduler/pkg/commission"
	"github.com/xmrshop/wallet-scheduler/pkg/config"
	"github.com/xmrshop/wallet-scheduler/pkg/control"
	"github.com/xmrshop/wallet-scheduler/pkg/order"
	"github.com/xmrshop/wallet-scheduler/pkg/orderstore"
	"github.com/xmrshop/wallet-scheduler/pkg/wallet/supervisor"
	"github.com/xmrshop/wallet-scheduler/pkg/walletrpc"
)

// Initialize brings the wallet server up, then starts the order monitors.
// It blocks until the wallet RPC answers or startup fails terminally.
func Initialize(
	ctx context.Context,
	cancel context.CancelFunc,
	store orderstore.Store,
	notifier orderstore.Notifier,
) (*control.Controller, error) {
	cfg := config.GetConfig()

	wallet := walletrpc.NewClient(cfg.Wallet.RPCPort)
	sup := supervisor.NewSupervisor(&cfg.Wallet, wallet)
	forwarder := commission.NewForwarder(wallet, store, config.GetCommissionPolicy())
	controller := control.NewController(sup, wallet, forwarder)

	result, err := controller.Initialize(ctx)
	if err != nil {
		return nil, err
	}
	if result.RecoveryPhrase != "" {
		logger.Sugar().Warnw(
			"Initialize",
			"State", "FreshWallet",
			"RecoveryPhrase", result.RecoveryPhrase,
			"Notice", "record the phrase now, it is not stored",
		)
	}

	order.Initialize(ctx, cancel, &order.Deps{
		Store:     store,
		Notifier:  notifier,
		Wallet:    wallet,
		Forwarder: forwarder,
	})

	return controller, nil
}

// Finalize stops the order monitors first so no settlement pass is in
// flight against a dying wallet process, then terminates the process.
func Finalize(ctx context.Context, controller *control.Controller) {
	order.Finalize(ctx)
	if controller != nil {
		controller.Stop(ctx)
	}
}

func InitializeSubsystem(ctx context.Context, system string) {
	config.EnableSubsystem(system)
	order.InitializeSubsystem(ctx, system)
}

func FinalizeSubsystem(ctx context.Context, system string) {
	logger.Sugar().Infow(
		"FinalizeSubsystem",
		"Subsystem", system,
	)
	config.DisableSubsystem(system)
	order.FinalizeSubsystem(ctx, system)
}
