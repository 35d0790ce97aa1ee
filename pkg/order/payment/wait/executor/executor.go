package executor

import (
	"context"
	"fmt"

	baseexecutor "github.com/xmrshop/wallet-scheduler/pkg/base/executor"
	"github.com/xmrshop/wallet-scheduler/pkg/orderstore"
	"github.com/xmrshop/wallet-scheduler/pkg/walletrpc"
)

// Wallet is the read surface the settlement check needs.
type Wallet interface {
	IncomingTransfers(ctx context.Context, subaddrIndex uint32) ([]*walletrpc.Transfer, error)
}

type handler struct {
	wallet        Wallet
	confirmations uint64
}

func NewExecutor(wallet Wallet, confirmations uint64) baseexecutor.Exec {
	return &handler{
		wallet:        wallet,
		confirmations: confirmations,
	}
}

func (e *handler) Exec(ctx context.Context, ent interface{}, persistent, notif, done chan interface{}) error {
	order, ok := ent.(*orderstore.Order)
	if !ok {
		return fmt.Errorf("invalid order")
	}
	h := &orderHandler{
		Order:         order,
		persistent:    persistent,
		notif:         notif,
		done:          done,
		wallet:        e.wallet,
		confirmations: e.confirmations,
	}
	return h.exec(ctx)
}
