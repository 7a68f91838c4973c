package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeStore struct {
	mu        sync.Mutex
	tasks     []*Task
	completed []int64
	errored   map[int64]string
	nextID    int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{errored: map[int64]string{}}
}

func (s *fakeStore) Enqueue(_ context.Context, taskType string, payload any) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}
	s.nextID++
	s.tasks = append(s.tasks, &Task{ID: s.nextID, Type: taskType, Payload: b, EnqueuedAt: time.Now(), ScheduledAt: time.Now()})
	return s.nextID, nil
}

func (s *fakeStore) DequeueNext(context.Context) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tasks) == 0 {
		return nil, nil
	}
	t := s.tasks[0]
	s.tasks = s.tasks[1:]
	return t, nil
}

func (s *fakeStore) MarkCompleted(_ context.Context, taskID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed = append(s.completed, taskID)
	return nil
}

func (s *fakeStore) RecordError(_ context.Context, taskID int64, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errored[taskID] = message
	return nil
}

type recordingProcessor struct {
	taskType string
	err      error

	mu   sync.Mutex
	seen []int64
}

func (p *recordingProcessor) TaskType() string { return p.taskType }

func (p *recordingProcessor) Process(_ context.Context, task *Task) error {
	p.mu.Lock()
	p.seen = append(p.seen, task.ID)
	p.mu.Unlock()
	return p.err
}

func (p *recordingProcessor) seenCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.seen)
}

func TestDispatcher_RoutesByTaskType(t *testing.T) {
	d := NewDispatcher()
	p := &recordingProcessor{taskType: "transcribe_answer"}
	d.Register(p)

	got, err := d.Get("transcribe_answer")
	if err != nil {
		t.Fatalf("expected processor, got error %v", err)
	}
	if got != p {
		t.Fatal("dispatcher returned wrong processor")
	}
}

func TestDispatcher_UnknownType(t *testing.T) {
	d := NewDispatcher()
	if _, err := d.Get("nope"); err == nil {
		t.Fatal("expected error for unknown task type")
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestWorker_ProcessesAndCompletesTask(t *testing.T) {
	store := newFakeStore()
	p := &recordingProcessor{taskType: "transcribe_answer"}
	d := NewDispatcher()
	d.Register(p)

	if _, err := store.Enqueue(context.Background(), "transcribe_answer", map[string]string{"answer_id": "a1"}); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := NewWorker(store, d, 1, time.Millisecond)
	go func() { _ = w.Run(ctx) }()

	waitFor(t, time.Second, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.completed) == 1
	})
	if p.seenCount() != 1 {
		t.Fatalf("expected processor to run once, ran %d times", p.seenCount())
	}
}

func TestWorker_RecordsProcessorErrorWithoutRescheduling(t *testing.T) {
	store := newFakeStore()
	p := &recordingProcessor{taskType: "transcribe_answer", err: errors.New("provider exploded")}
	d := NewDispatcher()
	d.Register(p)

	id, err := store.Enqueue(context.Background(), "transcribe_answer", map[string]string{"answer_id": "a1"})
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := NewWorker(store, d, 1, time.Millisecond)
	go func() { _ = w.Run(ctx) }()

	waitFor(t, time.Second, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.errored[id] != ""
	})

	// The task must not be run again.
	time.Sleep(20 * time.Millisecond)
	if p.seenCount() != 1 {
		t.Fatalf("expected a failed task to stay failed, processor ran %d times", p.seenCount())
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.completed) != 0 {
		t.Fatal("failed task must not be marked completed")
	}
}

func TestWorker_UnknownTaskTypeIsRecorded(t *testing.T) {
	store := newFakeStore()
	d := NewDispatcher()

	id, err := store.Enqueue(context.Background(), "mystery", nil)
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := NewWorker(store, d, 2, time.Millisecond)
	go func() { _ = w.Run(ctx) }()

	waitFor(t, time.Second, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.errored[id] != ""
	})
}
