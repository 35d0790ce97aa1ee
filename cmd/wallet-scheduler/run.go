package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NpoolPlatform/go-service-framework/pkg/logger"
	cli "github.com/urfave/cli/v2"

	"github.com/xmrshop/wallet-scheduler/pkg/base/retry"
	"github.com/xmrshop/wallet-scheduler/pkg/config"
	"github.com/xmrshop/wallet-scheduler/pkg/orderstore/redisstore"
	"github.com/xmrshop/wallet-scheduler/pkg/scheduler"
)

const shutdownTimeout = 30 * time.Second

var runCmd = &cli.Command{
	Name:    "run",
	Aliases: []string{"s"},
	Usage:   "Run the daemon",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to the config file",
			Value:   "wallet-scheduler.toml",
		},
	},
	Action: func(c *cli.Context) error {
		if err := config.Load(c.String("config")); err != nil {
			return err
		}
		cfg := config.GetConfig()
		if err := logger.Init(logger.DebugLevel, cfg.LogFile); err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(c.Context)
		defer cancel()

		logger.Sugar().Infow(
			"run",
			"Subsystems", config.Subsystems(),
		)

		retry.Initialize(ctx)

		controller, err := scheduler.Initialize(ctx, cancel, redisstore.NewStore(), &logNotifier{})
		if err != nil {
			return err
		}

		go watchSignals(ctx, cancel)
		<-ctx.Done()
		logger.Sugar().Infow(
			"run",
			"State", "Done",
			"Error", ctx.Err(),
		)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		scheduler.Finalize(shutdownCtx, controller)
		return nil
	},
}

func watchSignals(ctx context.Context, cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-ctx.Done():
	case sig := <-sigs:
		logger.Sugar().Infow(
			"run",
			"Signal", sig.String(),
		)
		cancel()
	}
}

// logNotifier stands in when no messaging layer is attached. Deployments
// that integrate a bot or mailer pass their own orderstore.Notifier instead.
type logNotifier struct{}

func (n *logNotifier) Notify(ctx context.Context, recipientID, text string) error {
	logger.Sugar().Infow(
		"Notify",
		"RecipientID", recipientID,
		"Text", text,
	)
	return nil
}
