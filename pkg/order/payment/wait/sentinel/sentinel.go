package sentinel

import (
	"context"

	"github.com/xmrshop/wallet-scheduler/pkg/base/cancelablefeed"
	basesentinel "github.com/xmrshop/wallet-scheduler/pkg/base/sentinel"
	constant "github.com/xmrshop/wallet-scheduler/pkg/const"
	"github.com/xmrshop/wallet-scheduler/pkg/order/payment/wait/types"
	"github.com/xmrshop/wallet-scheduler/pkg/orderstore"
)

type handler struct {
	store orderstore.Store
}

func NewSentinel(store orderstore.Store) basesentinel.Scanner {
	return &handler{
		store: store,
	}
}

func (h *handler) Scan(ctx context.Context, exec chan interface{}) error {
	offset := int32(0)
	limit := constant.DefaultRowLimit

	for {
		orders, err := h.store.ListOrders(ctx, []orderstore.PaymentStatus{
			orderstore.PaymentStatusPending,
			orderstore.PaymentStatusUnconfirmed,
			orderstore.PaymentStatusPartial,
		}, offset, limit)
		if err != nil {
			return err
		}
		if len(orders) == 0 {
			return nil
		}

		for _, order := range orders {
			cancelablefeed.CancelableFeed(ctx, order, exec)
		}

		offset += limit
	}
}

func (h *handler) ObjectID(ent interface{}) string {
	if order, ok := ent.(*types.PersistentOrder); ok {
		return order.ID
	}
	return ent.(*orderstore.Order).ID
}
