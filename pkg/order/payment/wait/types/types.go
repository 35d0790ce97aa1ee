package types

import (
	"github.com/shopspring/decimal"
	"github.com/xmrshop/wallet-scheduler/pkg/orderstore"
)

type PersistentOrder struct {
	*orderstore.Order
	NewPaymentStatus orderstore.PaymentStatus
	NewPaidAmount    decimal.Decimal
	NewTxID          string
	NewConfirmations uint64
	Error            error
}
