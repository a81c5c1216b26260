package service

import (
	"context"

	"go.uber.org/zap"

	"xclone/internal/logger"
	"xclone/internal/queue"
	"xclone/internal/worker"
)

// AssetJanitor gets rid of stored images nothing references any more.
// Deletions are queued for the worker pool when a publisher is available and
// run inline otherwise. Failures never reach the caller.
type AssetJanitor struct {
	publisher queue.Publisher
	deleter   worker.AssetDeleter
	protected map[string]struct{}
}

func NewAssetJanitor(publisher queue.Publisher, deleter worker.AssetDeleter, protectedKeys ...string) *AssetJanitor {
	protected := make(map[string]struct{}, len(protectedKeys))
	for _, k := range protectedKeys {
		protected[k] = struct{}{}
	}
	return &AssetJanitor{publisher: publisher, deleter: deleter, protected: protected}
}

// Discard schedules deletion of keys. Empty and protected keys are skipped.
func (j *AssetJanitor) Discard(ctx context.Context, ownerID int64, reason string, keys ...string) {
	if j == nil {
		return
	}
	// The request may finish before an inline delete does.
	ctx = context.WithoutCancel(ctx)

	for _, key := range keys {
		if key == "" {
			continue
		}
		if _, ok := j.protected[key]; ok {
			continue
		}

		if j.publisher != nil {
			event := queue.NewAssetDiscardedEvent(key, ownerID, reason)
			_, err := j.publisher.Publish(ctx, queue.StreamAssets, event)
			if err == nil {
				continue
			}
			logger.Log.Warn("[AssetJanitor] Publish failed, deleting inline",
				zap.String("key", key), zap.Error(err))
		}

		if j.deleter == nil {
			continue
		}
		if err := j.deleter.Delete(ctx, key); err != nil {
			logger.Log.Warn("[AssetJanitor] Delete failed",
				zap.String("key", key), zap.Int64("owner_id", ownerID), zap.String("reason", reason), zap.Error(err))
		}
	}
}
