package sentinel

import (
	"context"
	"time"

	"github.com/NpoolPlatform/go-service-framework/pkg/action"
	"github.com/NpoolPlatform/go-service-framework/pkg/logger"
	"github.com/NpoolPlatform/go-service-framework/pkg/watcher"
	constant "github.com/xmrshop/wallet-scheduler/pkg/const"
	"github.com/xmrshop/wallet-scheduler/pkg/orderstore"
)

type handler struct {
	w             *watcher.Watcher
	exec          chan *orderstore.Order
	store         orderstore.Store
	retryInterval time.Duration
}

var h *handler

func Initialize(ctx context.Context, cancel context.CancelFunc, store orderstore.Store, retryInterval time.Duration, exec chan *orderstore.Order) {
	h = &handler{
		w:             watcher.NewWatcher(),
		exec:          exec,
		store:         store,
		retryInterval: retryInterval,
	}
	go action.Watch(ctx, cancel, h.run, h.paniced)
}

func (h *handler) scanOrders(ctx context.Context) error {
	offset := int32(0)
	limit := constant.DefaultRowLimit

	for {
		orders, err := h.store.ListOrders(ctx, []orderstore.PaymentStatus{
			orderstore.PaymentStatusConfirmed,
		}, offset, limit)
		if err != nil {
			return err
		}
		if len(orders) == 0 {
			return nil
		}

		for _, order := range orders {
			if order.CommissionPaid {
				continue
			}
			if time.Since(order.PaidAt) < h.retryInterval {
				continue
			}
			select {
			case h.exec <- order:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		offset += limit
	}
}

func (h *handler) handler(ctx context.Context, ticker *time.Ticker) bool {
	select {
	case <-ticker.C:
		if err := h.scanOrders(ctx); err != nil {
			logger.Sugar().Infow(
				"handler",
				"State", "scanOrders",
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

func (h *handler) run(ctx context.Context) {
	ticker := time.NewTicker(constant.CommissionInterval)
	defer ticker.Stop()
	for {
		if b := h.handler(ctx, ticker); b {
			break
		}
	}
}

func (h *handler) paniced(ctx context.Context) {
	logger.Sugar().Errorw(
		"Paniced",
		"State", "Sentinel",
	)
	close(h.w.ClosedChan())
}

func Finalize(ctx context.Context) {
	if h != nil && h.w != nil {
		h.w.Shutdown(ctx)
	}
}
