package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/tg-sentinel/app/cfg"
	"github.com/lysyi3m/tg-sentinel/app/config"
	"github.com/lysyi3m/tg-sentinel/app/database"
	"github.com/lysyi3m/tg-sentinel/app/scoring"
	"github.com/lysyi3m/tg-sentinel/app/transfer"
	"github.com/lysyi3m/tg-sentinel/app/transport"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	configCache      *config.Cache
	unitRepo         database.UnitRepository
	trackingRepo     database.TrackingRepository
	transport        transport.Transport
	scorer           *scoring.Scorer
	selector         transfer.SelectorInterface
	ownerID          string
	ingestInterval   time.Duration
	scoutInterval    time.Duration
	dispatchInterval time.Duration
	workerCount      int
	ctx              context.Context
	cancel           context.CancelFunc
	wg               sync.WaitGroup
	taskQueue        chan TaskInterface

	// activityMu serializes all channel activity across workers: the
	// transport session and the scoring oracle both handle one operation
	// at a time.
	activityMu sync.Mutex
}

func NewScheduler(configCache *config.Cache, unitRepo database.UnitRepository,
	trackingRepo database.TrackingRepository, tp transport.Transport,
	scorer *scoring.Scorer, selector transfer.SelectorInterface) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		configCache:      configCache,
		unitRepo:         unitRepo,
		trackingRepo:     trackingRepo,
		transport:        tp,
		scorer:           scorer,
		selector:         selector,
		ownerID:          cfg.OwnerID,
		ingestInterval:   time.Duration(cfg.IngestInterval) * time.Second,
		scoutInterval:    time.Duration(cfg.ScoutInterval) * time.Second,
		dispatchInterval: time.Duration(cfg.DispatchInterval) * time.Second,
		workerCount:      cfg.WorkerCount,
		ctx:              ctx,
		cancel:           cancel,
		taskQueue:        make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.enqueueIngestTasks()
		s.tick(s.ingestInterval, s.enqueueIngestTasks)
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.tick(s.scoutInterval, s.enqueueEditScanTasks)
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.tick(s.dispatchInterval, s.enqueueDispatchTasks)
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) tick(interval time.Duration, enqueue func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			enqueue()
		}
	}
}

func (s *Scheduler) enqueueIngestTasks() {
	for _, channelConfig := range s.configCache.GetEnabledConfigs() {
		task := NewIngestTask(channelConfig.Name, channelConfig, s.transport, s.unitRepo, s.ownerID, &s.activityMu)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue IngestTask", "channel", channelConfig.Name, "error", err)
		}
	}
}

func (s *Scheduler) enqueueEditScanTasks() {
	for _, channelConfig := range s.configCache.GetEnabledConfigs() {
		task := NewEditScanTask(channelConfig.Name, channelConfig, s.transport, s.unitRepo, s.ownerID, &s.activityMu)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue EditScanTask", "channel", channelConfig.Name, "error", err)
		}
	}
}

func (s *Scheduler) enqueueDispatchTasks() {
	for _, channelConfig := range s.configCache.GetEnabledConfigs() {
		task := NewDispatchTask(channelConfig.Name, channelConfig, s.unitRepo, s.trackingRepo, s.scorer, s.selector, s.ownerID, &s.activityMu)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue DispatchTask", "channel", channelConfig.Name, "error", err)
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 10*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "channel", task.GetChannelName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			// The retry goroutine joins the WaitGroup so Stop cannot
			// close the queue underneath a pending re-enqueue
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()

				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
