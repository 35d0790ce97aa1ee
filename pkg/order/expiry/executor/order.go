package executor

import (
	"context"
	"time"

	"github.com/NpoolPlatform/go-service-framework/pkg/logger"
	"github.com/xmrshop/wallet-scheduler/pkg/base/asyncfeed"
	"github.com/xmrshop/wallet-scheduler/pkg/order/expiry/types"
	"github.com/xmrshop/wallet-scheduler/pkg/orderstore"
)

type orderHandler struct {
	*orderstore.Order
	persistent chan interface{}
	done       chan interface{}
	wallet     Wallet
	ttl        time.Duration
}

// expired holds only for an aged pending order with no transfer on its
// subaddress. The wallet is consulted last: a payment observed there but not
// yet persisted must keep the order open for the settlement monitor. On a
// wallet error the order is kept; the next tick re-checks.
func (h *orderHandler) expired(ctx context.Context) bool {
	if h.PaymentStatus != orderstore.PaymentStatusPending {
		return false
	}
	if time.Since(h.CreatedAt) <= h.ttl {
		return false
	}
	transfers, err := h.wallet.IncomingTransfers(ctx, h.SubaddressIndex)
	if err != nil {
		logger.Sugar().Infow(
			"expired",
			"OrderID", h.ID,
			"State", "IncomingTransfers",
			"Error", err,
		)
		return false
	}
	for _, transfer := range transfers {
		if transfer.SubaddressIndex() == h.SubaddressIndex {
			return false
		}
	}
	return true
}

func (h *orderHandler) exec(ctx context.Context) error {
	if !h.expired(ctx) {
		asyncfeed.AsyncFeed(ctx, &types.PersistentOrder{Order: h.Order}, h.done)
		return nil
	}
	asyncfeed.AsyncFeed(ctx, &types.PersistentOrder{Order: h.Order}, h.persistent)
	return nil
}
