package persistent

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/NpoolPlatform/go-service-framework/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xmrshop/wallet-scheduler/pkg/commission"
	"github.com/xmrshop/wallet-scheduler/pkg/config"
	"github.com/xmrshop/wallet-scheduler/pkg/order/payment/wait/types"
	"github.com/xmrshop/wallet-scheduler/pkg/orderstore"
	"github.com/xmrshop/wallet-scheduler/pkg/orderstore/mockstore"
	"github.com/xmrshop/wallet-scheduler/pkg/walletrpc"
)

func TestMain(m *testing.M) {
	if err := logger.Init(logger.DebugLevel, os.DevNull); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type fakeWallet struct {
	transfers int
}

func (w *fakeWallet) Transfer(ctx context.Context, address string, amount uint64) (*walletrpc.TransferResult, error) {
	w.transfers++
	return &walletrpc.TransferResult{TxHash: "commissiontx"}, nil
}

func (w *fakeWallet) QueryKey(ctx context.Context, keyType string) (string, error) {
	return "9f3a", nil
}

func testPolicy() *config.CommissionPolicy {
	return &config.CommissionPolicy{
		Percent:       decimal.RequireFromString("5"),
		MinAmount:     decimal.RequireFromString("0.001"),
		Address:       "45commissionDestination",
		AutoSend:      true,
		RetryInterval: time.Hour,
	}
}

func TestUpdateConfirmsOnce(t *testing.T) {
	store := mockstore.NewStore()
	wallet := &fakeWallet{}
	order := &orderstore.Order{
		ID:             uuid.NewString(),
		BuyerID:        uuid.NewString(),
		ExpectedAmount: decimal.RequireFromString("1.0"),
		PaymentStatus:  orderstore.PaymentStatusUnconfirmed,
		CreatedAt:      time.Now(),
	}
	store.Put(order)

	persistenter := NewPersistent(store, commission.NewForwarder(wallet, store, testPolicy()))
	notifCh := make(chan interface{}, 1)
	doneCh := make(chan interface{}, 1)

	ent := &types.PersistentOrder{
		Order:            order,
		NewPaymentStatus: orderstore.PaymentStatusConfirmed,
		NewPaidAmount:    decimal.RequireFromString("1.0"),
		NewTxID:          "tx1",
		NewConfirmations: 12,
	}
	require.NoError(t, persistenter.Update(context.Background(), ent, notifCh, doneCh))

	stored, err := store.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, orderstore.PaymentStatusConfirmed, stored.PaymentStatus)
	assert.True(t, stored.PaidAmount.Equal(decimal.RequireFromString("1.0")))
	assert.Equal(t, "tx1", stored.TxID)
	assert.False(t, stored.PaidAt.IsZero())
	assert.Equal(t, 1, wallet.transfers)

	select {
	case <-notifCh:
	case <-time.After(time.Second):
		require.Fail(t, "confirmation must notify")
	}
	select {
	case <-doneCh:
	case <-time.After(time.Second):
		require.Fail(t, "update must release the order")
	}
}

func TestUpdatePartialDoesNotNotify(t *testing.T) {
	store := mockstore.NewStore()
	wallet := &fakeWallet{}
	order := &orderstore.Order{
		ID:             uuid.NewString(),
		BuyerID:        uuid.NewString(),
		ExpectedAmount: decimal.RequireFromString("1.0"),
		PaymentStatus:  orderstore.PaymentStatusPending,
		CreatedAt:      time.Now(),
	}
	store.Put(order)

	persistenter := NewPersistent(store, commission.NewForwarder(wallet, store, testPolicy()))
	notifCh := make(chan interface{}, 1)
	doneCh := make(chan interface{}, 1)

	ent := &types.PersistentOrder{
		Order:            order,
		NewPaymentStatus: orderstore.PaymentStatusPartial,
		NewPaidAmount:    decimal.RequireFromString("0.4"),
		NewTxID:          "tx1",
		NewConfirmations: 20,
	}
	require.NoError(t, persistenter.Update(context.Background(), ent, notifCh, doneCh))

	stored, err := store.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, orderstore.PaymentStatusPartial, stored.PaymentStatus)
	assert.True(t, stored.PaidAt.IsZero())
	assert.Equal(t, 0, wallet.transfers)

	select {
	case <-doneCh:
	case <-time.After(time.Second):
		require.Fail(t, "update must release the order")
	}
	select {
	case <-notifCh:
		require.Fail(t, "partial payment must not notify")
	default:
	}
}
