package types

import (
	"github.com/xmrshop/wallet-scheduler/pkg/orderstore"
)

type PersistentOrder struct {
	*orderstore.Order
}
