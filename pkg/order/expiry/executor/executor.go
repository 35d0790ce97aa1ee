package executor

import (
	"context"
	"fmt"
	"time"

	baseexecutor "github.com/xmrshop/wallet-scheduler/pkg/base/executor"
	"github.com/xmrshop/wallet-scheduler/pkg/orderstore"
	"github.com/xmrshop/wallet-scheduler/pkg/walletrpc"
)

// Wallet is the read surface the expiry check needs.
type Wallet interface {
	IncomingTransfers(ctx context.Context, subaddrIndex uint32) ([]*walletrpc.Transfer, error)
}

type handler struct {
	wallet Wallet
	ttl    time.Duration
}

func NewExecutor(wallet Wallet, ttl time.Duration) baseexecutor.Exec {
	return &handler{
		wallet: wallet,
		ttl:    ttl,
	}
}

func (e *handler) Exec(ctx context.Context, ent interface{}, persistent, notif, done chan interface{}) error {
	order, ok := ent.(*orderstore.Order)
	if !ok {
		return fmt.Errorf("invalid order")
	}
	h := &orderHandler{
		Order:      order,
		persistent: persistent,
		done:       done,
		wallet:     e.wallet,
		ttl:        e.ttl,
	}
	return h.exec(ctx)
}
