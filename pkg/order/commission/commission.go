package commission

import (
	"context"
	"fmt"
	"time"

	"github.com/NpoolPlatform/go-service-framework/pkg/action"
	"github.com/NpoolPlatform/go-service-framework/pkg/logger"
	redis2 "github.com/NpoolPlatform/go-service-framework/pkg/redis"
	"github.com/NpoolPlatform/go-service-framework/pkg/watcher"
	"github.com/xmrshop/wallet-scheduler/pkg/commission"
	"github.com/xmrshop/wallet-scheduler/pkg/config"
	"github.com/xmrshop/wallet-scheduler/pkg/order/commission/sentinel"
	"github.com/xmrshop/wallet-scheduler/pkg/orderstore"
)

var locked = false

const subsystem = "ordercommission"

type handler struct {
	exec      chan *orderstore.Order
	forwarder *commission.Forwarder
	w         *watcher.Watcher
}

func lockKey() string {
	return fmt.Sprintf("wallet-scheduler:%v", subsystem)
}

func Initialize(ctx context.Context, cancel context.CancelFunc, store orderstore.Store, forwarder *commission.Forwarder, retryInterval time.Duration) {
	if b := config.SupportSubsystem(subsystem); !b {
		return
	}
	logger.Sugar().Infow(
		"Initialize",
		"Subsystem", subsystem,
	)

	if err := redis2.TryLock(lockKey(), 0); err != nil {
		logger.Sugar().Infow(
			"Initialize",
			"Subsystem", subsystem,
			"Error", err,
		)
		return
	}
	locked = true

	h := &handler{
		exec:      make(chan *orderstore.Order),
		forwarder: forwarder,
		w:         watcher.NewWatcher(),
	}
	sentinel.Initialize(ctx, cancel, store, retryInterval, h.exec)
	go action.Watch(ctx, cancel, h.run, h.paniced)
}

func (h *handler) handler(ctx context.Context) bool {
	select {
	case order := <-h.exec:
		if _, err := h.forwarder.Forward(ctx, order); err != nil {
			logger.Sugar().Infow(
				"handler",
				"State", "Forward",
				"OrderID", order.ID,
				"Error", err,
			)
		}
		return false
	case <-ctx.Done():
		logger.Sugar().Infow(
			"handler",
			"State", "Done",
			"Error", ctx.Err(),
		)
		close(h.w.ClosedChan())
		return true
	case <-h.w.CloseChan():
		close(h.w.ClosedChan())
		return true
	}
}

func (h *handler) paniced(ctx context.Context) {
	logger.Sugar().Errorw(
		"Paniced",
		"Subsystem", subsystem,
	)
	close(h.w.ClosedChan())
}

func (h *handler) run(ctx context.Context) {
	for {
		if b := h.handler(ctx); b {
			break
		}
	}
}

func Finalize(ctx context.Context) {
	if b := config.SupportSubsystem(subsystem); !b {
		return
	}
	sentinel.Finalize(ctx)
	if locked {
		_ = redis2.Unlock(lockKey()) //nolint
	}
}
