package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"xclone/internal/logger"
	"xclone/internal/queue"
)

// AssetDeleter removes an object from storage.
type AssetDeleter interface {
	Delete(ctx context.Context, key string) error
}

// Handler executes asset events.
type Handler struct {
	deleter   AssetDeleter
	protected map[string]struct{}
}

// NewHandler builds a handler that never deletes any of the protected keys.
func NewHandler(deleter AssetDeleter, protectedKeys ...string) *Handler {
	protected := make(map[string]struct{}, len(protectedKeys))
	for _, k := range protectedKeys {
		protected[k] = struct{}{}
	}
	return &Handler{deleter: deleter, protected: protected}
}

func (h *Handler) HandleEvent(ctx context.Context, event queue.AssetEvent) error {
	startTime := time.Now()

	switch event.Type {
	case queue.EventAssetDiscarded:
		if err := h.handleAssetDiscarded(ctx, event); err != nil {
			logger.Log.Warn("[Worker] HandleEvent FAILED",
				zap.String("type", event.Type),
				zap.String("key", event.Key),
				zap.Duration("duration", time.Since(startTime)),
				zap.Error(err),
			)
			return err
		}
	default:
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	logger.Log.Debug("[Worker] HandleEvent OK",
		zap.String("type", event.Type), zap.Duration("duration", time.Since(startTime)))
	return nil
}

func (h *Handler) handleAssetDiscarded(ctx context.Context, event queue.AssetEvent) error {
	if event.Key == "" {
		return nil
	}
	if _, ok := h.protected[event.Key]; ok {
		logger.Log.Info("[Worker] Skipping protected asset", zap.String("key", event.Key))
		return nil
	}

	if err := h.deleter.Delete(ctx, event.Key); err != nil {
		return fmt.Errorf("delete asset %s: %w", event.Key, err)
	}

	logger.Log.Info("[Worker] Asset deleted",
		zap.String("key", event.Key),
		zap.Int64("owner_id", event.OwnerID),
		zap.String("reason", event.Reason),
	)
	return nil
}
