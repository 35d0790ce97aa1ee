package executor

import (
	"context"

	"github.com/NpoolPlatform/go-service-framework/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/xmrshop/wallet-scheduler/pkg/base/asyncfeed"
	"github.com/xmrshop/wallet-scheduler/pkg/order/payment/wait/types"
	"github.com/xmrshop/wallet-scheduler/pkg/orderstore"
	"github.com/xmrshop/wallet-scheduler/pkg/walletrpc"
)

type orderHandler struct {
	*orderstore.Order
	persistent chan interface{}
	notif      chan interface{}
	done       chan interface{}

	wallet        Wallet
	confirmations uint64

	observedAmount   decimal.Decimal
	observedConfirms uint64
	observedTxID     string
	transferSeen     bool
	newStatus        orderstore.PaymentStatus
}

// getTransfers sums every transfer that landed on the order's subaddress.
// Several partial payments may fund one order; the conservative confirmation
// count is the minimum across them, since the newest top-up cannot borrow an
// older transfer's depth.
func (h *orderHandler) getTransfers(ctx context.Context) error {
	transfers, err := h.wallet.IncomingTransfers(ctx, h.SubaddressIndex)
	if err != nil {
		return err
	}

	total := decimal.Zero
	for _, transfer := range transfers {
		if transfer.SubaddressIndex() != h.SubaddressIndex {
			continue
		}
		total = total.Add(walletrpc.AmountFromAtomic(transfer.Amount))
		if !h.transferSeen || transfer.Confirmations < h.observedConfirms {
			h.observedConfirms = transfer.Confirmations
		}
		if transfer.TxID != "" {
			h.observedTxID = transfer.TxID
		}
		h.transferSeen = true
	}
	h.observedAmount = total
	return nil
}

func (h *orderHandler) amountEnough() bool {
	return h.observedAmount.Cmp(h.ExpectedAmount) >= 0
}

func (h *orderHandler) resolveNewState() {
	if !h.transferSeen {
		return
	}
	if !h.amountEnough() {
		h.newStatus = orderstore.PaymentStatusPartial
		return
	}
	if h.observedConfirms >= h.confirmations {
		h.newStatus = orderstore.PaymentStatusConfirmed
		return
	}
	h.newStatus = orderstore.PaymentStatusUnconfirmed
}

//nolint:gocritic
func (h *orderHandler) final(ctx context.Context, err *error) {
	if *err != nil {
		logger.Sugar().Errorw(
			"final",
			"OrderID", h.ID,
			"PaymentStatus", h.PaymentStatus,
			"ObservedAmount", h.observedAmount,
			"ObservedConfirms", h.observedConfirms,
			"NewStatus", h.newStatus,
			"Error", *err,
		)
	}

	persistentOrder := &types.PersistentOrder{
		Order:            h.Order,
		NewPaymentStatus: h.newStatus,
		NewPaidAmount:    h.observedAmount,
		NewTxID:          h.observedTxID,
		NewConfirmations: h.observedConfirms,
		Error:            *err,
	}
	if *err != nil {
		asyncfeed.AsyncFeed(ctx, persistentOrder, h.done)
		return
	}
	if h.newStatus != h.PaymentStatus {
		asyncfeed.AsyncFeed(ctx, persistentOrder, h.persistent)
		return
	}
	if h.transferSeen && !h.observedAmount.Equal(h.PaidAmount) {
		// Same status but a new partial top-up arrived; record it.
		asyncfeed.AsyncFeed(ctx, persistentOrder, h.persistent)
		return
	}
	asyncfeed.AsyncFeed(ctx, persistentOrder, h.done)
}

func (h *orderHandler) exec(ctx context.Context) error {
	h.newStatus = h.PaymentStatus

	var err error
	defer h.final(ctx, &err)

	// Status is checked before transitioning: a confirmed order must never
	// re-fire its side effects even if the scan raced a previous tick.
	if h.PaymentStatus.Terminal() {
		return nil
	}
	if err = h.getTransfers(ctx); err != nil {
		return err
	}
	h.resolveNewState()
	if !h.PaymentStatus.CanTransition(h.newStatus) {
		h.newStatus = h.PaymentStatus
	}
	return nil
}
