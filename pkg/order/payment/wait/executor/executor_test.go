package executor

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/NpoolPlatform/go-service-framework/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xmrshop/wallet-scheduler/pkg/order/payment/wait/types"
	"github.com/xmrshop/wallet-scheduler/pkg/orderstore"
	"github.com/xmrshop/wallet-scheduler/pkg/walletrpc"
)

func TestMain(m *testing.M) {
	if err := logger.Init(logger.DebugLevel, os.DevNull); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type fakeWallet struct {
	transfers []*walletrpc.Transfer
	err       error
}

func (w *fakeWallet) IncomingTransfers(ctx context.Context, subaddrIndex uint32) ([]*walletrpc.Transfer, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.transfers, nil
}

func atomic(amount string) uint64 {
	return walletrpc.AmountToAtomic(decimal.RequireFromString(amount))
}

func newOrder(status orderstore.PaymentStatus, expected string) *orderstore.Order {
	return &orderstore.Order{
		ID:             uuid.NewString(),
		BuyerID:        uuid.NewString(),
		ExpectedAmount: decimal.RequireFromString(expected),
		Subaddress:     "87someSubaddress",
		PaymentStatus:  status,
		CreatedAt:      time.Now(),
	}
}

func runExec(t *testing.T, wallet Wallet, confirmations uint64, order *orderstore.Order) (persistent, done *types.PersistentOrder) {
	persistentCh := make(chan interface{}, 1)
	notifCh := make(chan interface{}, 1)
	doneCh := make(chan interface{}, 1)

	err := NewExecutor(wallet, confirmations).Exec(context.Background(), order, persistentCh, notifCh, doneCh)

	select {
	case ent := <-persistentCh:
		return ent.(*types.PersistentOrder), nil
	case ent := <-doneCh:
		fed := ent.(*types.PersistentOrder)
		assert.Equal(t, err, fed.Error)
		return nil, fed
	case <-time.After(time.Second):
		require.Fail(t, "no channel fed")
	}
	return nil, nil
}

func TestConfirmAtThreshold(t *testing.T) {
	wallet := &fakeWallet{
		transfers: []*walletrpc.Transfer{
			{Amount: atomic("1.0"), Confirmations: 12, TxID: "tx1"},
		},
	}
	order := newOrder(orderstore.PaymentStatusUnconfirmed, "1.0")

	persistent, _ := runExec(t, wallet, 10, order)
	require.NotNil(t, persistent)
	assert.Equal(t, orderstore.PaymentStatusConfirmed, persistent.NewPaymentStatus)
	assert.True(t, persistent.NewPaidAmount.Equal(decimal.RequireFromString("1.0")))
	assert.Equal(t, "tx1", persistent.NewTxID)
	assert.Equal(t, uint64(12), persistent.NewConfirmations)
}

func TestBelowThresholdStaysUnconfirmed(t *testing.T) {
	wallet := &fakeWallet{
		transfers: []*walletrpc.Transfer{
			{Amount: atomic("1.0"), Confirmations: 3, TxID: "tx1"},
		},
	}
	order := newOrder(orderstore.PaymentStatusPending, "1.0")

	persistent, _ := runExec(t, wallet, 10, order)
	require.NotNil(t, persistent)
	assert.Equal(t, orderstore.PaymentStatusUnconfirmed, persistent.NewPaymentStatus)
}

func TestPartialPayment(t *testing.T) {
	wallet := &fakeWallet{
		transfers: []*walletrpc.Transfer{
			{Amount: atomic("0.4"), Confirmations: 20, TxID: "tx1"},
		},
	}
	order := newOrder(orderstore.PaymentStatusPending, "1.0")

	persistent, _ := runExec(t, wallet, 10, order)
	require.NotNil(t, persistent)
	assert.Equal(t, orderstore.PaymentStatusPartial, persistent.NewPaymentStatus)
	assert.True(t, persistent.NewPaidAmount.Equal(decimal.RequireFromString("0.4")))
}

func TestMultiTransferSumWithMinimumConfirmations(t *testing.T) {
	wallet := &fakeWallet{
		transfers: []*walletrpc.Transfer{
			{Amount: atomic("0.6"), Confirmations: 30, TxID: "tx1"},
			{Amount: atomic("0.4"), Confirmations: 4, TxID: "tx2"},
		},
	}
	order := newOrder(orderstore.PaymentStatusPartial, "1.0")

	// Total covers the order but the newest top-up is shallow, so the
	// order waits as unconfirmed rather than confirming.
	persistent, _ := runExec(t, wallet, 10, order)
	require.NotNil(t, persistent)
	assert.Equal(t, orderstore.PaymentStatusUnconfirmed, persistent.NewPaymentStatus)
	assert.True(t, persistent.NewPaidAmount.Equal(decimal.RequireFromString("1.0")))
	assert.Equal(t, uint64(4), persistent.NewConfirmations)
}

func TestNoTransfersYet(t *testing.T) {
	wallet := &fakeWallet{}
	order := newOrder(orderstore.PaymentStatusPending, "1.0")

	persistent, done := runExec(t, wallet, 10, order)
	assert.Nil(t, persistent)
	require.NotNil(t, done)
	assert.Nil(t, done.Error)
	assert.Equal(t, orderstore.PaymentStatusPending, done.NewPaymentStatus)
}

func TestConfirmedOrderNeverRefires(t *testing.T) {
	wallet := &fakeWallet{
		transfers: []*walletrpc.Transfer{
			{Amount: atomic("1.0"), Confirmations: 50, TxID: "tx1"},
		},
	}
	order := newOrder(orderstore.PaymentStatusConfirmed, "1.0")

	persistent, done := runExec(t, wallet, 10, order)
	assert.Nil(t, persistent)
	require.NotNil(t, done)
	assert.Nil(t, done.Error)
}

func TestWalletErrorIsolated(t *testing.T) {
	wallet := &fakeWallet{err: fmt.Errorf("connection refused")}
	order := newOrder(orderstore.PaymentStatusPending, "1.0")

	persistent, done := runExec(t, wallet, 10, order)
	assert.Nil(t, persistent)
	require.NotNil(t, done)
	assert.NotNil(t, done.Error)
}

func TestPartialTopUpPersistsSameStatus(t *testing.T) {
	wallet := &fakeWallet{
		transfers: []*walletrpc.Transfer{
			{Amount: atomic("0.3"), Confirmations: 20, TxID: "tx1"},
			{Amount: atomic("0.2"), Confirmations: 15, TxID: "tx2"},
		},
	}
	order := newOrder(orderstore.PaymentStatusPartial, "1.0")
	order.PaidAmount = decimal.RequireFromString("0.3")

	persistent, _ := runExec(t, wallet, 10, order)
	require.NotNil(t, persistent)
	assert.Equal(t, orderstore.PaymentStatusPartial, persistent.NewPaymentStatus)
	assert.True(t, persistent.NewPaidAmount.Equal(decimal.RequireFromString("0.5")))
}
