package wait

import (
	"context"
	"sync"

	"github.com/NpoolPlatform/go-service-framework/pkg/logger"
	"github.com/xmrshop/wallet-scheduler/pkg/base"
	"github.com/xmrshop/wallet-scheduler/pkg/commission"
	"github.com/xmrshop/wallet-scheduler/pkg/config"
	constant "github.com/xmrshop/wallet-scheduler/pkg/const"
	"github.com/xmrshop/wallet-scheduler/pkg/order/payment/wait/executor"
	"github.com/xmrshop/wallet-scheduler/pkg/order/payment/wait/notif"
	"github.com/xmrshop/wallet-scheduler/pkg/order/payment/wait/persistent"
	"github.com/xmrshop/wallet-scheduler/pkg/order/payment/wait/sentinel"
	"github.com/xmrshop/wallet-scheduler/pkg/orderstore"
)

const subsystem = "orderpaymentwait"

var h *base.Handler

func Initialize(
	ctx context.Context,
	cancel context.CancelFunc,
	running *sync.Map,
	store orderstore.Store,
	wallet executor.Wallet,
	forwarder *commission.Forwarder,
	notifier orderstore.Notifier,
	confirmations uint64,
	operatorID string,
) {
	if b := config.SupportSubsystem(subsystem); !b {
		return
	}
	_h, err := base.NewHandler(
		ctx,
		cancel,
		base.WithSubsystem(subsystem),
		base.WithScanInterval(constant.PaymentScanInterval),
		base.WithScanner(sentinel.NewSentinel(store)),
		base.WithExec(executor.NewExecutor(wallet, confirmations)),
		base.WithPersistenter(persistent.NewPersistent(store, forwarder)),
		base.WithNotify(notif.NewNotif(notifier, operatorID)),
		base.WithRunningMap(running),
	)
	if err != nil || _h == nil {
		logger.Sugar().Errorw(
			"Initialize",
			"Subsystem", subsystem,
			"Error", err,
		)
		return
	}

	h = _h
	go h.Run(ctx, cancel)
}

// Trigger forces an immediate settlement pass.
func Trigger() {
	if h != nil {
		h.Trigger(subsystem)
	}
}

func Finalize(ctx context.Context) {
	if h != nil {
		h.Finalize(ctx)
	}
}
