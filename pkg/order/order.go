package order

import (
	"context"
	"sync"
	"time"

	commission1 "github.com/xmrshop/wallet-scheduler/pkg/commission"
	"github.com/xmrshop/wallet-scheduler/pkg/config"
	"github.com/xmrshop/wallet-scheduler/pkg/order/commission"
	"github.com/xmrshop/wallet-scheduler/pkg/order/expiry"
	"github.com/xmrshop/wallet-scheduler/pkg/order/payment/wait"
	"github.com/xmrshop/wallet-scheduler/pkg/orderstore"
	"github.com/xmrshop/wallet-scheduler/pkg/walletrpc"
)

// Deps carries the external collaborators the order subsystems share.
type Deps struct {
	Store     orderstore.Store
	Notifier  orderstore.Notifier
	Wallet    *walletrpc.Client
	Forwarder *commission1.Forwarder
}

var (
	deps    *Deps
	running sync.Map
)

func initWait(ctx context.Context, cancel context.CancelFunc) {
	cfg := config.GetConfig()
	wait.Initialize(
		ctx,
		cancel,
		&running,
		deps.Store,
		deps.Wallet,
		deps.Forwarder,
		deps.Notifier,
		cfg.Monitor.Confirmations,
		cfg.Monitor.OperatorID,
	)
}

func initExpiry(ctx context.Context, cancel context.CancelFunc) {
	cfg := config.GetConfig()
	expiry.Initialize(
		ctx,
		cancel,
		&running,
		deps.Store,
		deps.Wallet,
		time.Duration(cfg.Monitor.OrderTTLMinutes)*time.Minute,
	)
}

func initCommission(ctx context.Context, cancel context.CancelFunc) {
	policy := config.GetCommissionPolicy()
	commission.Initialize(ctx, cancel, deps.Store, deps.Forwarder, policy.RetryInterval)
}

type initializer struct {
	init  func(context.Context, context.CancelFunc)
	final func(context.Context)
}

var subsystems = map[string]initializer{
	"orderpaymentwait": {initWait, wait.Finalize},
	"orderexpiry":      {initExpiry, expiry.Finalize},
	"ordercommission":  {initCommission, commission.Finalize},
}

func Initialize(ctx context.Context, cancel context.CancelFunc, _deps *Deps) {
	deps = _deps
	initWait(ctx, cancel)
	initExpiry(ctx, cancel)
	initCommission(ctx, cancel)
}

// TriggerSettlement forces an immediate settlement pass outside the normal
// scan interval.
func TriggerSettlement() {
	wait.Trigger()
}

func Finalize(ctx context.Context) {
	commission.Finalize(ctx)
	expiry.Finalize(ctx)
	wait.Finalize(ctx)
}

func InitializeSubsystem(ctx context.Context, system string) {
	_initializer, ok := subsystems[system]
	if !ok || deps == nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	_initializer.init(ctx, cancel)
}

func FinalizeSubsystem(ctx context.Context, system string) {
	_finalizer, ok := subsystems[system]
	if !ok {
		return
	}
	_finalizer.final(ctx)
}
