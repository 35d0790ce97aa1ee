package expiry

import (
	"context"
	"sync"
	"time"

	"github.com/NpoolPlatform/go-service-framework/pkg/logger"
	"github.com/xmrshop/wallet-scheduler/pkg/base"
	"github.com/xmrshop/wallet-scheduler/pkg/config"
	constant "github.com/xmrshop/wallet-scheduler/pkg/const"
	"github.com/xmrshop/wallet-scheduler/pkg/order/expiry/executor"
	"github.com/xmrshop/wallet-scheduler/pkg/order/expiry/persistent"
	"github.com/xmrshop/wallet-scheduler/pkg/order/expiry/sentinel"
	"github.com/xmrshop/wallet-scheduler/pkg/orderstore"
)

const subsystem = "orderexpiry"

var h *base.Handler

func Initialize(
	ctx context.Context,
	cancel context.CancelFunc,
	running *sync.Map,
	store orderstore.Store,
	wallet executor.Wallet,
	ttl time.Duration,
) {
	if b := config.SupportSubsystem(subsystem); !b {
		return
	}
	_h, err := base.NewHandler(
		ctx,
		cancel,
		base.WithSubsystem(subsystem),
		base.WithScanInterval(constant.ExpiryScanInterval),
		base.WithScanner(sentinel.NewSentinel(store)),
		base.WithExec(executor.NewExecutor(wallet, ttl)),
		base.WithPersistenter(persistent.NewPersistent(store)),
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

func Finalize(ctx context.Context) {
	if h != nil {
		h.Finalize(ctx)
	}
}
