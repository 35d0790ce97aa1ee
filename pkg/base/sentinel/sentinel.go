package sentinel

import (
	"context"
	"time"

	"github.com/NpoolPlatform/go-service-framework/pkg/action"
	"github.com/NpoolPlatform/go-service-framework/pkg/logger"
	"github.com/NpoolPlatform/go-service-framework/pkg/watcher"
)

type Scanner interface {
	Scan(ctx context.Context, exec chan interface{}) error
	ObjectID(ent interface{}) string
}

type Sentinel interface {
	Exec() chan interface{}
	Trigger(cond interface{})
	Finalize(ctx context.Context)
}

type handler struct {
	w            *watcher.Watcher
	exec         chan interface{}
	trigger      chan interface{}
	scanner      Scanner
	scanInterval time.Duration
	subsystem    string
}

func NewSentinel(ctx context.Context, cancel context.CancelFunc, scanner Scanner, scanInterval time.Duration, subsystem string) Sentinel {
	h := &handler{
		w:            watcher.NewWatcher(),
		exec:         make(chan interface{}),
		trigger:      make(chan interface{}, 1),
		scanner:      scanner,
		scanInterval: scanInterval,
		subsystem:    subsystem,
	}
	go action.Watch(ctx, cancel, h.run, h.paniced)
	return h
}

func (h *handler) Exec() chan interface{} {
	return h.exec
}

// Trigger requests an immediate scan without waiting for the next tick. A
// pending trigger is enough; extra ones are dropped.
func (h *handler) Trigger(cond interface{}) {
	select {
	case h.trigger <- cond:
	default:
	}
}

func (h *handler) scan(ctx context.Context) {
	if err := h.scanner.Scan(ctx, h.exec); err != nil {
		logger.Sugar().Infow(
			"scan",
			"Subsystem", h.subsystem,
			"Error", err,
		)
	}
}

func (h *handler) handler(ctx context.Context, ticker *time.Ticker) bool {
	select {
	case <-ticker.C:
		h.scan(ctx)
		return false
	case <-h.trigger:
		h.scan(ctx)
		return false
	case <-ctx.Done():
		logger.Sugar().Infow(
			"handler",
			"State", "Done",
			"Subsystem", h.subsystem,
			"Error", ctx.Err(),
		)
		close(h.w.ClosedChan())
		return true
	case <-h.w.CloseChan():
		close(h.w.ClosedChan())
		return true
	}
}

func (h *handler) run(ctx context.Context) {
	ticker := time.NewTicker(h.scanInterval)
	defer ticker.Stop()

	// Pick up work interrupted by the last shutdown before the first tick.
	h.scan(ctx)

	for {
		if b := h.handler(ctx, ticker); b {
			break
		}
	}
}

func (h *handler) paniced(ctx context.Context) {
	logger.Sugar().Errorw(
		"Paniced",
		"Subsystem", h.subsystem,
	)
	close(h.w.ClosedChan())
}

func (h *handler) Finalize(ctx context.Context) {
	if h != nil && h.w != nil {
		h.w.Shutdown(ctx)
	}
}
