package supervisor

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/NpoolPlatform/go-service-framework/pkg/logger"
	"github.com/shirou/gopsutil/v3/process"
)

// reconcileZombies terminates wallet server instances bound to our port that
// this supervisor does not track, typically left over from a crash. Such an
// instance would hold the RPC port and the wallet file lock.
func (s *Supervisor) reconcileZombies(ctx context.Context) error {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return err
	}

	binName := filepath.Base(s.cfg.ServerBin)
	port := strconv.Itoa(s.cfg.RPCPort)
	trackedPID := 0
	if s.handle != nil {
		trackedPID = s.handle.PID()
	}

	for _, p := range procs {
		if int(p.Pid) == trackedPID {
			continue
		}
		name, err := p.NameWithContext(ctx)
		if err != nil || name != binName {
			continue
		}
		cmdline, err := p.CmdlineWithContext(ctx)
		if err != nil || !strings.Contains(cmdline, port) {
			continue
		}

		logger.Sugar().Warnw(
			"reconcileZombies",
			"PID", p.Pid,
			"Port", port,
			"State", "Terminating",
		)
		if err := p.TerminateWithContext(ctx); err != nil {
			logger.Sugar().Warnw(
				"reconcileZombies",
				"PID", p.Pid,
				"Error", err,
			)
		}
		if !waitGone(ctx, p, 5*time.Second) {
			if err := p.KillWithContext(ctx); err != nil {
				logger.Sugar().Errorw(
					"reconcileZombies",
					"PID", p.Pid,
					"Error", err,
				)
			}
		}
	}
	return nil
}

func waitGone(ctx context.Context, p *process.Process, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		running, err := p.IsRunningWithContext(ctx)
		if err != nil || !running {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(200 * time.Millisecond):
		}
	}
	return false
}
