package notif

import (
	"context"
	"fmt"

	basenotif "github.com/xmrshop/wallet-scheduler/pkg/base/notif"
	"github.com/xmrshop/wallet-scheduler/pkg/order/payment/wait/types"
	"github.com/xmrshop/wallet-scheduler/pkg/orderstore"
)

type handler struct {
	notifier   orderstore.Notifier
	operatorID string
}

func NewNotif(notifier orderstore.Notifier, operatorID string) basenotif.Notify {
	return &handler{
		notifier:   notifier,
		operatorID: operatorID,
	}
}

func (p *handler) Notify(ctx context.Context, ent interface{}) error {
	order, ok := ent.(*types.PersistentOrder)
	if !ok {
		return fmt.Errorf("invalid order")
	}
	if order.PaymentStatus != orderstore.PaymentStatusConfirmed {
		return nil
	}

	if order.BuyerID != "" {
		text := fmt.Sprintf("Payment for order %v confirmed (%v received).", order.ID, order.PaidAmount)
		if err := p.notifier.Notify(ctx, order.BuyerID, text); err != nil {
			return err
		}
	}
	if p.operatorID != "" {
		text := fmt.Sprintf("Order %v paid: %v on subaddress %v.", order.ID, order.PaidAmount, order.Subaddress)
		if err := p.notifier.Notify(ctx, p.operatorID, text); err != nil {
			return err
		}
	}
	return nil
}
