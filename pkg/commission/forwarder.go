package commission

import (
	"context"
	"strings"
	"time"

	"github.com/NpoolPlatform/go-service-framework/pkg/logger"
	"github.com/xmrshop/wallet-scheduler/pkg/config"
	constant "github.com/xmrshop/wallet-scheduler/pkg/const"
	"github.com/xmrshop/wallet-scheduler/pkg/orderstore"
	"github.com/xmrshop/wallet-scheduler/pkg/walletrpc"
)

// Wallet is the spend surface the forwarder needs from the wallet server.
type Wallet interface {
	Transfer(ctx context.Context, address string, amount uint64) (*walletrpc.TransferResult, error)
	QueryKey(ctx context.Context, keyType string) (string, error)
}

type Forwarder struct {
	wallet Wallet
	store  orderstore.Store
	policy *config.CommissionPolicy
}

func NewForwarder(wallet Wallet, store orderstore.Store, policy *config.CommissionPolicy) *Forwarder {
	return &Forwarder{
		wallet: wallet,
		store:  store,
		policy: policy,
	}
}

// canSpend reports whether the wallet holds non-zero private spend material.
// A view-only wallet cannot originate the commission transfer.
func (f *Forwarder) canSpend(ctx context.Context) (bool, error) {
	key, err := f.wallet.QueryKey(ctx, "spend_key")
	if err != nil {
		return false, err
	}
	return strings.Trim(key, "0") != "", nil
}

func (f *Forwarder) markPaid(ctx context.Context, order *orderstore.Order, txid string) error {
	order.CommissionPaid = true
	order.CommissionTxID = txid
	order.CommissionPaidAt = time.Now()
	return f.store.UpdateOrder(ctx, order)
}

// Forward settles the commission for a confirmed order. It returns true when
// no further automatic action is required; the order's CommissionPaid flag
// only ever moves false -> true. Safe to re-invoke from overlapping monitor
// ticks or after a process restart.
func (f *Forwarder) Forward(ctx context.Context, order *orderstore.Order) (bool, error) {
	if order.CommissionPaid {
		return true, nil
	}
	if !f.policy.AutoSend {
		return true, nil
	}

	paid := order.PaidAmount
	if paid.IsZero() {
		paid = order.ExpectedAmount
	}
	amount := Amount(paid, f.policy.Percent)
	order.CommissionAmount = amount

	if amount.Cmp(f.policy.MinAmount) < 0 {
		// Dust; not worth a transaction fee. Mark handled so the retry
		// sweep does not pick it up forever.
		logger.Sugar().Infow(
			"Forward",
			"OrderID", order.ID,
			"Amount", amount,
			"State", "BelowMinimum",
		)
		if err := f.markPaid(ctx, order, ""); err != nil {
			return false, err
		}
		return true, nil
	}

	spendable, err := f.canSpend(ctx)
	if err != nil {
		return false, err
	}
	if !spendable {
		logger.Sugar().Warnw(
			"Forward",
			"OrderID", order.ID,
			"Amount", amount,
			"Destination", f.policy.Address,
			"State", "ManualSettlement",
		)
		return true, nil
	}

	result, err := f.wallet.Transfer(ctx, f.policy.Address, walletrpc.AmountToAtomic(amount))
	if err != nil {
		logger.Sugar().Errorw(
			"Forward",
			"OrderID", order.ID,
			"Amount", amount,
			"Error", err,
		)
		return false, err
	}
	if err := f.markPaid(ctx, order, result.TxHash); err != nil {
		return false, err
	}
	logger.Sugar().Infow(
		"Forward",
		"OrderID", order.ID,
		"Amount", amount,
		"TxID", result.TxHash,
	)
	return true, nil
}

// RetryPending sweeps confirmed orders whose commission is still unpaid and
// older than the retry interval, and re-invokes Forward for each. Returns the
// number of orders whose commission got settled.
func (f *Forwarder) RetryPending(ctx context.Context) (int, error) {
	offset := int32(0)
	limit := constant.DefaultRowLimit
	settled := 0

	for {
		orders, err := f.store.ListOrders(ctx, []orderstore.PaymentStatus{
			orderstore.PaymentStatusConfirmed,
		}, offset, limit)
		if err != nil {
			return settled, err
		}
		if len(orders) == 0 {
			return settled, nil
		}

		for _, order := range orders {
			if order.CommissionPaid {
				continue
			}
			if time.Since(order.PaidAt) < f.policy.RetryInterval {
				continue
			}
			if _, err := f.Forward(ctx, order); err != nil {
				logger.Sugar().Infow(
					"RetryPending",
					"OrderID", order.ID,
					"Error", err,
				)
				continue
			}
			if order.CommissionPaid {
				settled++
			}
		}

		offset += limit
	}
}
