package usecase

import (
	"context"
	"fmt"

	"SymDir/internal/domain/models"
	domrepo "SymDir/internal/domain/repository"
	"SymDir/pkg/logger"
)

// InvalidationHandler applies cache invalidations locally and fans them out
// to the other instances through a Broadcaster.
type InvalidationHandler struct {
	svc     *SymbolService
	bus     domrepo.Broadcaster
	origin  string
	metrics domrepo.Metrics
	log     *logger.Logger
}

// NewInvalidationHandler applies events to svc and fans them out over bus.
func NewInvalidationHandler(svc *SymbolService, bus domrepo.Broadcaster, origin string, metrics domrepo.Metrics, l *logger.Logger) *InvalidationHandler {
	if metrics == nil {
		metrics = domrepo.NopMetrics{}
	}
	if l == nil {
		l = logger.Nop()
	}
	return &InvalidationHandler{svc: svc, bus: bus, origin: origin, metrics: metrics, log: l.With("invalidation")}
}

// Publish applies ev to this instance and then broadcasts it. A failed
// broadcast is returned; the local caches are already invalidated by then.
func (h *InvalidationHandler) Publish(ctx context.Context, ev models.InvalidationEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	ev.Origin = h.origin
	h.apply(ev)
	if err := h.bus.Publish(ctx, ev); err != nil {
		h.metrics.RecordError("broadcast")
		return fmt.Errorf("broadcast invalidation: %w", err)
	}
	return nil
}

// Apply handles an event received from the broadcaster. Events published by
// this instance were applied at publish time and are skipped.
func (h *InvalidationHandler) Apply(_ context.Context, ev models.InvalidationEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	if ev.Origin != "" && ev.Origin == h.origin {
		return nil
	}
	h.apply(ev)
	return nil
}

// Run subscribes to the broadcaster until ctx is cancelled.
func (h *InvalidationHandler) Run(ctx context.Context) error {
	return h.bus.Subscribe(ctx, h.Apply)
}

func (h *InvalidationHandler) apply(ev models.InvalidationEvent) {
	switch ev.Kind {
	case models.InvalidateSymbol:
		h.svc.InvalidateSymbol(ev.ID, ev.TradingSymbol, ev.Exchange)
	case models.InvalidateAll:
		h.svc.InvalidateAll()
	case models.InvalidateSearch:
		h.svc.ClearSearchCache()
	}
	h.log.Debug("invalidation applied",
		logger.String("type", string(ev.Kind)),
		logger.String("id", ev.ID),
		logger.String("trading_symbol", ev.TradingSymbol),
		logger.String("origin", ev.Origin),
	)
}
