package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Task is one unit of asynchronous work. A task is claimed at most once;
// there is no redelivery or retry schedule.
type Task struct {
	ID          int64
	Type        string
	Payload     json.RawMessage
	EnqueuedAt  time.Time
	ScheduledAt time.Time
	DequeuedAt  *time.Time
}

// Enqueuer hands a task to the queue and returns immediately. Execution
// happens later on a worker, possibly in another process.
type Enqueuer interface {
	Enqueue(ctx context.Context, taskType string, payload any) (int64, error)
}

// Store is the queue backing store used by workers.
type Store interface {
	Enqueuer
	// DequeueNext claims the next runnable task, or returns (nil, nil)
	// when the queue is empty.
	DequeueNext(ctx context.Context) (*Task, error)
	MarkCompleted(ctx context.Context, taskID int64) error
	RecordError(ctx context.Context, taskID int64, message string) error
}

// Processor handles one task type. A processor returning an error marks
// the task failed; the queue never re-attempts it.
type Processor interface {
	TaskType() string
	Process(ctx context.Context, task *Task) error
}

// Dispatcher routes tasks to registered processors by task type.
type Dispatcher struct {
	processors map[string]Processor
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{processors: map[string]Processor{}}
}

func (d *Dispatcher) Register(p Processor) {
	d.processors[p.TaskType()] = p
}

func (d *Dispatcher) Get(taskType string) (Processor, error) {
	p, ok := d.processors[taskType]
	if !ok {
		return nil, fmt.Errorf("no processor registered for task type %q", taskType)
	}
	return p, nil
}
