package orderstore

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending     PaymentStatus = "pending"
	PaymentStatusUnconfirmed PaymentStatus = "unconfirmed"
	PaymentStatusPartial     PaymentStatus = "partial"
	PaymentStatusConfirmed   PaymentStatus = "confirmed"
	PaymentStatusExpired     PaymentStatus = "expired"
)

// Terminal reports whether no further payment transition may occur. A late
// commission settlement is still allowed on a confirmed order.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusConfirmed || s == PaymentStatusExpired
}

// CanTransition enforces the forward-only state machine: a status never
// regresses, and confirmed/expired are absorbing.
func (s PaymentStatus) CanTransition(next PaymentStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case PaymentStatusPending:
		return true
	case PaymentStatusUnconfirmed:
		return next == PaymentStatusConfirmed || next == PaymentStatusPartial
	case PaymentStatusPartial:
		return next == PaymentStatusConfirmed || next == PaymentStatusUnconfirmed
	}
	return false
}

// Order is the payment-relevant subset owned by the external order store.
type Order struct {
	ID               string
	BuyerID          string
	ExpectedAmount   decimal.Decimal
	Subaddress       string
	SubaddressIndex  uint32
	PaymentStatus    PaymentStatus
	PaidAmount       decimal.Decimal
	TxID             string
	Confirmations    uint64
	CommissionAmount decimal.Decimal
	CommissionPaid   bool
	CommissionTxID   string
	CommissionPaidAt time.Time
	CreatedAt        time.Time
	PaidAt           time.Time
}

type Store interface {
	ListOrders(ctx context.Context, statuses []PaymentStatus, offset, limit int32) ([]*Order, error)
	GetOrder(ctx context.Context, id string) (*Order, error)
	UpdateOrder(ctx context.Context, order *Order) error
}

// Notifier delivers a text message to an external party identified by an
// opaque recipient id. Implemented by the messaging layer of the parent
// application.
type Notifier interface {
	Notify(ctx context.Context, recipientID, text string) error
}
