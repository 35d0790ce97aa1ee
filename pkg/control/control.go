package control

import (
	"context"
	"encoding/json"
	"time"

	"github.com/NpoolPlatform/go-service-framework/pkg/logger"
	"github.com/xmrshop/wallet-scheduler/pkg/cache"
	"github.com/xmrshop/wallet-scheduler/pkg/commission"
	"github.com/xmrshop/wallet-scheduler/pkg/order"
	"github.com/xmrshop/wallet-scheduler/pkg/wallet/supervisor"
	"github.com/xmrshop/wallet-scheduler/pkg/walletrpc"
)

const (
	healthCacheKey = "wallet-scheduler:health"
	healthCacheTTL = 5 * time.Second
)

type HealthReport struct {
	Running    bool
	PID        int
	Port       int
	Responding bool
	Healthy    bool
}

type InitResult struct {
	Ready bool
	// RecoveryPhrase is set exactly once, after a fresh wallet was
	// generated. The caller must show it to the operator and drop it.
	RecoveryPhrase string
}

// Controller is the thin command/query surface the dashboard and CLI consume.
type Controller struct {
	supervisor *supervisor.Supervisor
	wallet     *walletrpc.Client
	forwarder  *commission.Forwarder
}

func NewController(sup *supervisor.Supervisor, wallet *walletrpc.Client, forwarder *commission.Forwarder) *Controller {
	return &Controller{
		supervisor: sup,
		wallet:     wallet,
		forwarder:  forwarder,
	}
}

// Initialize brings the wallet server up; it blocks until the server answers
// RPC or startup fails terminally. A returned error is a hard failure, not
// "still starting".
func (c *Controller) Initialize(ctx context.Context) (*InitResult, error) {
	if err := c.supervisor.Start(ctx); err != nil {
		return nil, err
	}
	result := &InitResult{Ready: true}
	if c.supervisor.FreshWallet() {
		phrase, err := c.wallet.QueryKey(ctx, "mnemonic")
		if err != nil {
			logger.Sugar().Warnw(
				"Initialize",
				"State", "QueryMnemonic",
				"Error", err,
			)
		} else {
			result.RecoveryPhrase = phrase
		}
	}
	return result, nil
}

func (c *Controller) Status(ctx context.Context) *HealthReport {
	if val, err := cache.QueryCache(ctx, healthCacheKey); err == nil && val != nil {
		return val.(*HealthReport)
	}

	status := c.supervisor.Status(ctx)
	report := &HealthReport{
		Running:    status.Running,
		PID:        status.PID,
		Port:       status.Port,
		Responding: status.Responding,
		Healthy:    status.Healthy(),
	}

	if err := cache.CreateCache(ctx, healthCacheKey, report, healthCacheTTL, func(val string) (interface{}, error) {
		cached := &HealthReport{}
		if err := json.Unmarshal([]byte(val), cached); err != nil {
			return nil, err
		}
		return cached, nil
	}); err != nil {
		logger.Sugar().Infow(
			"Status",
			"State", "Cache",
			"Error", err,
		)
	}
	return report
}

// ForceResync rescans the blockchain from the wallet's restore height and
// kicks an immediate settlement pass when the scan completes.
func (c *Controller) ForceResync(ctx context.Context) error {
	if err := c.wallet.RescanBlockchain(ctx); err != nil {
		return err
	}
	order.TriggerSettlement()
	return nil
}

func (c *Controller) RetryPendingCommissions(ctx context.Context) (int, error) {
	return c.forwarder.RetryPending(ctx)
}

// Stop terminates the supervised wallet server. The scheduler subsystems must
// be finalized first so no tick is in flight against a dying process.
func (c *Controller) Stop(ctx context.Context) {
	c.supervisor.Stop(ctx)
}
