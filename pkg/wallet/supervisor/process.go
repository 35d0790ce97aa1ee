package supervisor

import (
	"os/exec"
	"strconv"
	"sync"
	"syscall"

	"github.com/xmrshop/wallet-scheduler/pkg/config"
)

// Process is the supervisor's private view of the launched wallet server.
// The handle never leaves this package; callers only see Status snapshots.
type Process interface {
	PID() int
	Alive() bool
	Signal(sig syscall.Signal) error
	ExitCode() (int, bool)
}

// Launcher starts the wallet server process. Swapped out in tests.
type Launcher func(cfg *config.WalletConfig, fresh bool) (Process, error)

type osProcess struct {
	cmd      *exec.Cmd
	mu       sync.Mutex
	exited   bool
	exitCode int
}

func (p *osProcess) reap() {
	err := p.cmd.Wait()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exited = true
	if exitErr, ok := err.(*exec.ExitError); ok {
		p.exitCode = exitErr.ExitCode()
	}
}

func (p *osProcess) PID() int {
	return p.cmd.Process.Pid
}

func (p *osProcess) Alive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.exited
}

func (p *osProcess) Signal(sig syscall.Signal) error {
	return p.cmd.Process.Signal(sig)
}

func (p *osProcess) ExitCode() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode, p.exited
}

func launchWalletServer(cfg *config.WalletConfig, fresh bool) (Process, error) {
	args := []string{
		"--daemon-address", cfg.DaemonAddress,
		"--rpc-bind-port", strconv.Itoa(cfg.RPCPort),
		"--rpc-bind-ip", "127.0.0.1",
		"--disable-rpc-login",
		"--password", "",
	}
	if fresh {
		args = append(args, "--generate-new-wallet", cfg.WalletFile)
	} else {
		args = append(args, "--wallet-file", cfg.WalletFile)
	}

	cmd := exec.Command(cfg.ServerBin, args...) //nolint
	// The server must never block on an interactive prompt.
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	p := &osProcess{cmd: cmd}
	go p.reap()
	return p, nil
}
