package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Worker polls the store and runs claimed tasks on a fixed-size pool of
// goroutines. Processor errors are recorded on the task and never bubble
// up into the poll loop, so a misbehaving downstream cannot stall or
// re-trigger the queue.
type Worker struct {
	store        Store
	dispatcher   *Dispatcher
	concurrency  int
	pollInterval time.Duration
}

func NewWorker(store Store, dispatcher *Dispatcher, concurrency int, pollInterval time.Duration) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Worker{
		store:        store,
		dispatcher:   dispatcher,
		concurrency:  concurrency,
		pollInterval: pollInterval,
	}
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	slog.Info("worker starting", "concurrency", w.concurrency, "poll_interval", w.pollInterval.String())

	var wg sync.WaitGroup
	wg.Add(w.concurrency)
	for i := 0; i < w.concurrency; i++ {
		go func(workerIndex int) {
			defer wg.Done()
			w.runLoop(ctx, workerIndex)
		}(i)
	}
	wg.Wait()
	slog.Info("worker stopped")
	return ctx.Err()
}

func (w *Worker) runLoop(ctx context.Context, workerIndex int) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		task, err := w.store.DequeueNext(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("failed to dequeue task", "error", err, "worker", workerIndex)
			w.sleep(ctx)
			continue
		}
		if task == nil {
			w.sleep(ctx)
			continue
		}

		w.processTask(ctx, task, workerIndex)
	}
}

func (w *Worker) processTask(ctx context.Context, task *Task, workerIndex int) {
	slog.Info("processing task", "task_id", task.ID, "task_type", task.Type, "worker", workerIndex)

	processor, err := w.dispatcher.Get(task.Type)
	if err != nil {
		slog.Error("task has no processor", "error", err, "task_id", task.ID, "task_type", task.Type)
		if recErr := w.store.RecordError(ctx, task.ID, err.Error()); recErr != nil {
			slog.Error("failed to record task error", "error", recErr, "task_id", task.ID)
		}
		return
	}

	if err := processor.Process(ctx, task); err != nil {
		slog.Error("task processing failed", "error", err, "task_id", task.ID, "task_type", task.Type)
		if recErr := w.store.RecordError(ctx, task.ID, err.Error()); recErr != nil {
			slog.Error("failed to record task error", "error", recErr, "task_id", task.ID)
		}
		return
	}

	if err := w.store.MarkCompleted(ctx, task.ID); err != nil {
		slog.Error("failed to mark task completed", "error", err, "task_id", task.ID)
		return
	}
	slog.Info("task completed", "task_id", task.ID, "task_type", task.Type)
}

func (w *Worker) sleep(ctx context.Context) {
	t := time.NewTimer(w.pollInterval)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
