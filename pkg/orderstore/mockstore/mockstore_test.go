package mockstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xmrshop/wallet-scheduler/pkg/orderstore"
)

func TestListOrdersPagesAreStable(t *testing.T) {
	store := NewStore()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		store.Put(&orderstore.Order{
			ID:            uuid.NewString(),
			PaymentStatus: orderstore.PaymentStatusPending,
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
		})
	}

	seen := map[string]bool{}
	total := 0
	for offset := int32(0); ; offset += 2 {
		page, err := store.ListOrders(context.Background(), []orderstore.PaymentStatus{
			orderstore.PaymentStatusPending,
		}, offset, 2)
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		for _, order := range page {
			assert.Falsef(t, seen[order.ID], "order %v returned twice across pages", order.ID)
			seen[order.ID] = true
			total++
		}
	}
	assert.Equal(t, 5, total)
}

func TestListOrdersOrderedByCreation(t *testing.T) {
	store := NewStore()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 4; i++ {
		store.Put(&orderstore.Order{
			ID:            uuid.NewString(),
			PaymentStatus: orderstore.PaymentStatusPending,
			CreatedAt:     base.Add(time.Duration(3-i) * time.Minute),
		})
	}

	orders, err := store.ListOrders(context.Background(), []orderstore.PaymentStatus{
		orderstore.PaymentStatusPending,
	}, 0, 10)
	require.NoError(t, err)
	require.Len(t, orders, 4)
	for i := 1; i < len(orders); i++ {
		assert.True(t, orders[i-1].CreatedAt.Before(orders[i].CreatedAt))
	}
}
