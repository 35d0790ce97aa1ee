package commission

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

	"github.com/xmrshop/wallet-scheduler/pkg/config"
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
	spendKey    string
	transferErr error
	transfers   int
}

func (w *fakeWallet) Transfer(ctx context.Context, address string, amount uint64) (*walletrpc.TransferResult, error) {
	if w.transferErr != nil {
		return nil, w.transferErr
	}
	w.transfers++
	return &walletrpc.TransferResult{TxHash: fmt.Sprintf("commissiontx%v", w.transfers)}, nil
}

func (w *fakeWallet) QueryKey(ctx context.Context, keyType string) (string, error) {
	return w.spendKey, nil
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

func confirmedOrder(paid string) *orderstore.Order {
	return &orderstore.Order{
		ID:            uuid.NewString(),
		BuyerID:       uuid.NewString(),
		PaymentStatus: orderstore.PaymentStatusConfirmed,
		PaidAmount:    decimal.RequireFromString(paid),
		CreatedAt:     time.Now().Add(-2 * time.Hour),
		PaidAt:        time.Now().Add(-2 * time.Hour),
	}
}

func TestAmount(t *testing.T) {
	amount := Amount(decimal.RequireFromString("2.5"), decimal.RequireFromString("5"))
	assert.True(t, amount.Equal(decimal.RequireFromString("0.125")))

	truncated := Amount(decimal.RequireFromString("0.0000000000001"), decimal.RequireFromString("5"))
	assert.True(t, truncated.IsZero())
}

func TestForwardSendsAndPersists(t *testing.T) {
	store := mockstore.NewStore()
	wallet := &fakeWallet{spendKey: "9f3a"}
	order := confirmedOrder("2.0")
	store.Put(order)

	done, err := NewForwarder(wallet, store, testPolicy()).Forward(context.Background(), order)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, 1, wallet.transfers)

	stored, err := store.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.True(t, stored.CommissionPaid)
	assert.Equal(t, "commissiontx1", stored.CommissionTxID)
	assert.True(t, stored.CommissionAmount.Equal(decimal.RequireFromString("0.1")))
	assert.False(t, stored.CommissionPaidAt.IsZero())
}

func TestForwardIdempotent(t *testing.T) {
	store := mockstore.NewStore()
	wallet := &fakeWallet{spendKey: "9f3a"}
	order := confirmedOrder("2.0")
	order.CommissionPaid = true
	order.CommissionTxID = "earliertx"
	store.Put(order)

	done, err := NewForwarder(wallet, store, testPolicy()).Forward(context.Background(), order)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, 0, wallet.transfers, "paid commission must not send again")
}

func TestForwardDustMarkedHandled(t *testing.T) {
	store := mockstore.NewStore()
	wallet := &fakeWallet{spendKey: "9f3a"}
	order := confirmedOrder("0.001")
	store.Put(order)

	done, err := NewForwarder(wallet, store, testPolicy()).Forward(context.Background(), order)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, 0, wallet.transfers)

	stored, err := store.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.True(t, stored.CommissionPaid)
	assert.Empty(t, stored.CommissionTxID)
}

func TestForwardViewOnlyManual(t *testing.T) {
	store := mockstore.NewStore()
	wallet := &fakeWallet{spendKey: "0000000000000000"}
	order := confirmedOrder("2.0")
	store.Put(order)

	done, err := NewForwarder(wallet, store, testPolicy()).Forward(context.Background(), order)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, 0, wallet.transfers)

	stored, err := store.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.False(t, stored.CommissionPaid, "manual settlement stays retryable")
}

func TestForwardAutoSendDisabled(t *testing.T) {
	store := mockstore.NewStore()
	wallet := &fakeWallet{spendKey: "9f3a"}
	policy := testPolicy()
	policy.AutoSend = false
	order := confirmedOrder("2.0")
	store.Put(order)

	done, err := NewForwarder(wallet, store, policy).Forward(context.Background(), order)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, 0, wallet.transfers)
}

func TestForwardTransferFailure(t *testing.T) {
	store := mockstore.NewStore()
	wallet := &fakeWallet{spendKey: "9f3a", transferErr: fmt.Errorf("not enough money")}
	order := confirmedOrder("2.0")
	store.Put(order)

	done, err := NewForwarder(wallet, store, testPolicy()).Forward(context.Background(), order)
	require.Error(t, err)
	assert.False(t, done)

	stored, err := store.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.False(t, stored.CommissionPaid)
}

func TestRetryPending(t *testing.T) {
	store := mockstore.NewStore()
	wallet := &fakeWallet{spendKey: "9f3a"}

	due := confirmedOrder("2.0")
	store.Put(due)

	fresh := confirmedOrder("2.0")
	fresh.PaidAt = time.Now().Add(-time.Minute)
	store.Put(fresh)

	alreadyPaid := confirmedOrder("2.0")
	alreadyPaid.CommissionPaid = true
	store.Put(alreadyPaid)

	settled, err := NewForwarder(wallet, store, testPolicy()).RetryPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, settled)
	assert.Equal(t, 1, wallet.transfers)

	stored, err := store.GetOrder(context.Background(), due.ID)
	require.NoError(t, err)
	assert.True(t, stored.CommissionPaid)
}
