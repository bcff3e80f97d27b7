package tasks

import (
	"context"
	"errors"
	"testing"
	"time"
)

type failingTask struct {
	Task
}

func (t *failingTask) Execute(ctx context.Context) error {
	return errors.New("transient failure")
}

func TestScheduler_StopWaitsForPendingRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		workerCount: 1,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 10),
	}

	s.wg.Add(1)
	go s.worker(0)

	if err := s.EnqueueTask(&failingTask{Task: NewTask(TaskTypeDispatch, "source")}); err != nil {
		t.Fatalf("EnqueueTask failed: %v", err)
	}

	// Let the worker fail the task and schedule its retry
	time.Sleep(100 * time.Millisecond)

	// Stop must wait out the retry goroutine before closing the queue,
	// otherwise the re-enqueue would hit a closed channel and panic
	s.Stop()

	if _, ok := <-s.taskQueue; ok {
		t.Error("Expected an empty closed queue after Stop")
	}
}
