package supervisor

import (
	"context"
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/NpoolPlatform/go-service-framework/pkg/logger"
	"github.com/xmrshop/wallet-scheduler/pkg/config"
	constant "github.com/xmrshop/wallet-scheduler/pkg/const"
	"github.com/xmrshop/wallet-scheduler/pkg/wallet/cachecheck"
	"github.com/xmrshop/wallet-scheduler/pkg/walletrpc"
)

// Prober is the minimal RPC surface used for readiness and health checks.
type Prober interface {
	GetBalance(ctx context.Context, accountIndex uint32) (*walletrpc.Balance, error)
}

type Status struct {
	Running    bool
	PID        int
	Port       int
	Responding bool
}

func (s *Status) Healthy() bool {
	return s.Running && s.Responding
}

// Supervisor owns the wallet server process exclusively. The raw handle never
// leaves it.
type Supervisor struct {
	mu     sync.Mutex
	cfg    *config.WalletConfig
	wallet Prober
	launch Launcher
	handle Process
	fresh  bool
}

func NewSupervisor(cfg *config.WalletConfig, wallet Prober, options ...func(*Supervisor)) *Supervisor {
	s := &Supervisor{
		cfg:    cfg,
		wallet: wallet,
		launch: launchWalletServer,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func WithLauncher(launch Launcher) func(*Supervisor) {
	return func(s *Supervisor) {
		s.launch = launch
	}
}

// FreshWallet reports whether the last Start generated a new wallet. The
// caller uses it to surface the recovery phrase exactly once.
func (s *Supervisor) FreshWallet() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fresh
}

// Start brings the wallet server up and blocks until it answers RPC or the
// readiness deadline passes. Calling Start while a live process is tracked is
// a no-op returning success.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle != nil && s.handle.Alive() {
		return nil
	}
	s.handle = nil

	_, err := os.Stat(s.cfg.WalletFile + ".keys")
	fresh := os.IsNotExist(err)
	s.fresh = fresh

	if err := s.reconcileZombies(ctx); err != nil {
		logger.Sugar().Warnw(
			"Start",
			"State", "ReconcileZombies",
			"Error", err,
		)
	}

	if !fresh {
		report, err := cachecheck.Check(s.cfg.WalletFile, s.cfg.CacheCeilingMB)
		if err != nil {
			return fmt.Errorf("check wallet cache: %w", err)
		}
		if !report.Healthy {
			logger.Sugar().Warnw(
				"Start",
				"State", "CacheUnhealthy",
				"Reason", report.Reason,
				"FileSize", report.FileSize,
			)
			if err := cachecheck.Repair(s.cfg.WalletFile); err != nil {
				return fmt.Errorf("repair wallet cache: %w", err)
			}
		}
	}

	proc, err := s.launch(s.cfg, fresh)
	if err != nil {
		return fmt.Errorf("launch wallet server: %w", err)
	}

	if err := s.waitReady(ctx, proc, fresh); err != nil {
		if proc.Alive() {
			_ = proc.Signal(syscall.SIGKILL) //nolint
		}
		return err
	}

	s.handle = proc
	logger.Sugar().Infow(
		"Start",
		"PID", proc.PID(),
		"Port", s.cfg.RPCPort,
		"Fresh", fresh,
	)
	return nil
}

func (s *Supervisor) waitReady(ctx context.Context, proc Process, fresh bool) error {
	timeout := constant.ReadyTimeoutSynced
	if fresh {
		timeout = constant.ReadyTimeoutFresh
	}
	deadline := time.Now().Add(timeout)

	for {
		if !proc.Alive() {
			code, _ := proc.ExitCode()
			return fmt.Errorf("wallet server exited with code %v before ready", code)
		}
		_, err := s.wallet.GetBalance(ctx, 0)
		if err == nil {
			return nil
		}
		// Expected while the server pulls chain data; keep polling.
		logger.Sugar().Infow(
			"waitReady",
			"State", "Polling",
			"Error", err,
		)
		if time.Now().After(deadline) {
			return fmt.Errorf("wallet server not ready within %v", timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(constant.ReadyPollInterval):
		}
	}
}

// Stop terminates the tracked process gracefully and clears the handle. Safe
// to call when nothing is running.
func (s *Supervisor) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle == nil {
		return
	}
	proc := s.handle
	s.handle = nil

	if !proc.Alive() {
		return
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		logger.Sugar().Warnw(
			"Stop",
			"PID", proc.PID(),
			"Error", err,
		)
	}

	deadline := time.Now().Add(10 * time.Second)
	for proc.Alive() && time.Now().Before(deadline) && ctx.Err() == nil {
		time.Sleep(200 * time.Millisecond)
	}
	if proc.Alive() {
		_ = proc.Signal(syscall.SIGKILL) //nolint
	}
	logger.Sugar().Infow(
		"Stop",
		"PID", proc.PID(),
	)
}

// Status combines process liveness with an RPC probe. Both must hold for the
// wallet to count as healthy.
func (s *Supervisor) Status(ctx context.Context) *Status {
	s.mu.Lock()
	handle := s.handle
	s.mu.Unlock()

	status := &Status{
		Port: s.cfg.RPCPort,
	}
	if handle == nil || !handle.Alive() {
		return status
	}
	status.Running = true
	status.PID = handle.PID()

	ctx, cancel := context.WithTimeout(ctx, constant.StatusProbeTO)
	defer cancel()
	if _, err := s.wallet.GetBalance(ctx, 0); err == nil {
		status.Responding = true
	}
	return status
}
