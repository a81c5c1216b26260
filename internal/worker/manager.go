package worker

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"xclone/internal/logger"
	"xclone/internal/queue"
)

const (
	DefaultWorkerCount = 2

	DefaultBatchSize = 10

	// DefaultBlockTimeout bounds each XREADGROUP so workers notice shutdown.
	DefaultBlockTimeout = 5 * time.Second
)

// Manager runs the asset janitor goroutines.
type Manager struct {
	consumer    queue.Consumer
	handler     *Handler
	workerCount int
	batchSize   int64
	blockTime   time.Duration
	stream      string
	group       string

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

type ManagerConfig struct {
	WorkerCount  int
	BatchSize    int64
	BlockTimeout time.Duration
}

func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		WorkerCount:  DefaultWorkerCount,
		BatchSize:    DefaultBatchSize,
		BlockTimeout: DefaultBlockTimeout,
	}
}

func NewManager(consumer queue.Consumer, handler *Handler, cfg ManagerConfig) *Manager {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultWorkerCount
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = DefaultBlockTimeout
	}

	return &Manager{
		consumer:    consumer,
		handler:     handler,
		workerCount: cfg.WorkerCount,
		batchSize:   cfg.BatchSize,
		blockTime:   cfg.BlockTimeout,
		stream:      queue.StreamAssets,
		group:       queue.ConsumerGroupAssets,
	}
}

// Start ensures the consumer group exists and launches the workers.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	if err := m.consumer.EnsureGroup(m.ctx, m.stream, m.group); err != nil {
		m.cancel()
		return err
	}

	for i := 0; i < m.workerCount; i++ {
		workerID := i + 1
		m.wg.Add(1)
		go m.runWorker(workerID, consumerNameForWorker(workerID))
	}

	logger.Log.Info("[Manager] Workers started",
		zap.Int("count", m.workerCount), zap.String("stream", m.stream), zap.String("group", m.group))
	return nil
}

// Stop cancels the workers and waits for them to exit.
func (m *Manager) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	m.wg.Wait()
	logger.Log.Info("[Manager] All workers stopped")
}

func (m *Manager) runWorker(workerID int, consumerName string) {
	defer m.wg.Done()

	// Recover anything this consumer left unacknowledged before a restart.
	m.processPending(workerID, consumerName)

	for {
		select {
		case <-m.ctx.Done():
			return
		default:
			m.processMessages(workerID, consumerName)
		}
	}
}

func (m *Manager) processPending(workerID int, consumerName string) {
	for {
		messages, err := m.consumer.ReadPending(m.ctx, m.stream, m.group, consumerName, m.batchSize)
		if err != nil {
			logger.Log.Warn("[Manager] Error reading pending", zap.Int("worker", workerID), zap.Error(err))
			return
		}
		if len(messages) == 0 {
			return
		}
		m.handleMessages(workerID, messages)
	}
}

func (m *Manager) processMessages(workerID int, consumerName string) {
	messages, err := m.consumer.Read(m.ctx, m.stream, m.group, consumerName, m.batchSize, m.blockTime)
	if err != nil {
		if m.ctx.Err() != nil {
			return
		}
		logger.Log.Warn("[Manager] Error reading", zap.Int("worker", workerID), zap.Error(err))
		select {
		case <-m.ctx.Done():
		case <-time.After(time.Second):
		}
		return
	}

	if len(messages) > 0 {
		m.handleMessages(workerID, messages)
	}
}

// handleMessages acks every message, including failed ones. A failed delete
// leaves an orphaned object, which is logged and never retried.
func (m *Manager) handleMessages(workerID int, messages []queue.Message) {
	for _, msg := range messages {
		if err := m.handler.HandleEvent(m.ctx, msg.Event); err != nil {
			logger.Log.Warn("[Manager] Handler error",
				zap.Int("worker", workerID), zap.String("msg_id", msg.ID), zap.Error(err))
		}

		if err := m.consumer.Ack(m.ctx, m.stream, m.group, msg.ID); err != nil {
			logger.Log.Warn("[Manager] ACK error",
				zap.Int("worker", workerID), zap.String("msg_id", msg.ID), zap.Error(err))
		}
	}
}

// consumerNameForWorker is stable per host so pending recovery finds the
// messages a previous run of the same worker left behind.
func consumerNameForWorker(workerID int) string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "local"
	}
	return fmt.Sprintf("%s-worker-%d", host, workerID)
}
