package persistent

import (
	"context"
	"fmt"

	"github.com/xmrshop/wallet-scheduler/pkg/base/asyncfeed"
	basepersistent "github.com/xmrshop/wallet-scheduler/pkg/base/persistent"
	"github.com/xmrshop/wallet-scheduler/pkg/order/expiry/types"
	"github.com/xmrshop/wallet-scheduler/pkg/orderstore"
)

type handler struct {
	store orderstore.Store
}

func NewPersistent(store orderstore.Store) basepersistent.Persistenter {
	return &handler{
		store: store,
	}
}

func (p *handler) Update(ctx context.Context, ent interface{}, notif, done chan interface{}) error {
	order, ok := ent.(*types.PersistentOrder)
	if !ok {
		return fmt.Errorf("invalid order")
	}
	defer asyncfeed.AsyncFeed(ctx, order, done)

	if !order.PaymentStatus.CanTransition(orderstore.PaymentStatusExpired) {
		return nil
	}
	order.PaymentStatus = orderstore.PaymentStatusExpired
	return p.store.UpdateOrder(ctx, order.Order)
}
