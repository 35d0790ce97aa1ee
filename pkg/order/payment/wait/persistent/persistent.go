package persistent

import (
	"context"
	"fmt"
	"time"

	"github.com/NpoolPlatform/go-service-framework/pkg/logger"
	"github.com/xmrshop/wallet-scheduler/pkg/base/asyncfeed"
	basepersistent "github.com/xmrshop/wallet-scheduler/pkg/base/persistent"
	"github.com/xmrshop/wallet-scheduler/pkg/commission"
	"github.com/xmrshop/wallet-scheduler/pkg/order/payment/wait/types"
	"github.com/xmrshop/wallet-scheduler/pkg/orderstore"
)

type handler struct {
	store     orderstore.Store
	forwarder *commission.Forwarder
}

func NewPersistent(store orderstore.Store, forwarder *commission.Forwarder) basepersistent.Persistenter {
	return &handler{
		store:     store,
		forwarder: forwarder,
	}
}

func (p *handler) Update(ctx context.Context, ent interface{}, notif, done chan interface{}) error {
	order, ok := ent.(*types.PersistentOrder)
	if !ok {
		return fmt.Errorf("invalid order")
	}
	defer asyncfeed.AsyncFeed(ctx, order, done)

	confirmedNow := order.NewPaymentStatus == orderstore.PaymentStatusConfirmed &&
		order.PaymentStatus != orderstore.PaymentStatusConfirmed

	order.PaymentStatus = order.NewPaymentStatus
	order.PaidAmount = order.NewPaidAmount
	if order.NewTxID != "" {
		order.TxID = order.NewTxID
	}
	order.Confirmations = order.NewConfirmations
	if confirmedNow {
		order.PaidAt = time.Now()
	}

	if err := p.store.UpdateOrder(ctx, order.Order); err != nil {
		return err
	}

	if confirmedNow {
		asyncfeed.AsyncFeed(ctx, order, notif)
		if _, err := p.forwarder.Forward(ctx, order.Order); err != nil {
			// The retry sweep settles it later; confirmation stands.
			logger.Sugar().Warnw(
				"Update",
				"OrderID", order.ID,
				"State", "ForwardCommission",
				"Error", err,
			)
		}
	}
	return nil
}
