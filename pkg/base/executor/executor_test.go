package executor

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/NpoolPlatform/go-service-framework/pkg/logger"
	"github.com/NpoolPlatform/go-service-framework/pkg/watcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if err := logger.Init(logger.DebugLevel, os.DevNull); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type passthroughExec struct{}

func (e *passthroughExec) Exec(ctx context.Context, ent interface{}, persistent, notif, done chan interface{}) error {
	done <- ent
	return nil
}

func TestFeedReachesExec(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	persistent := make(chan interface{})
	notif := make(chan interface{})
	done := make(chan interface{})

	e := NewExecutor(ctx, cancel, persistent, notif, done, &passthroughExec{}, "test")
	go e.Feed(ctx, "ent1")

	select {
	case ent := <-done:
		assert.Equal(t, "ent1", ent)
	case <-time.After(time.Second):
		require.Fail(t, "executor did not run the entity")
	}

	e.Finalize(ctx)
}

func TestPanicedReleasesWatcher(t *testing.T) {
	e := &handler{
		w:         watcher.NewWatcher(),
		subsystem: "test",
	}
	e.paniced(context.Background())

	select {
	case <-e.w.ClosedChan():
	case <-time.After(time.Second):
		require.Fail(t, "watcher not released")
	}
}
