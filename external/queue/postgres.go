package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shirakawalab/kikitori/internal/queue"
)

type PostgresQueue struct {
	pool *pgxpool.Pool
}

func NewPostgresQueue(pool *pgxpool.Pool) queue.Store {
	return &PostgresQueue{pool: pool}
}

func (q *PostgresQueue) Enqueue(ctx context.Context, taskType string, payload any) (int64, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal task payload: %w", err)
	}
	var id int64
	err = q.pool.QueryRow(ctx,
		`INSERT INTO tasks (task_type, payload) VALUES ($1, $2) RETURNING id`,
		taskType, b).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// DequeueNext claims the oldest unclaimed runnable task. SKIP LOCKED keeps
// concurrent workers from claiming the same row.
func (q *PostgresQueue) DequeueNext(ctx context.Context) (*queue.Task, error) {
	row := q.pool.QueryRow(ctx,
		`UPDATE tasks SET dequeued_at = NOW()
		 WHERE id = (
			SELECT id FROM tasks
			WHERE dequeued_at IS NULL AND scheduled_at <= NOW()
			ORDER BY id ASC
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		 )
		 RETURNING id, task_type, payload, enqueued_at, scheduled_at, dequeued_at`)
	var t queue.Task
	err := row.Scan(&t.ID, &t.Type, &t.Payload, &t.EnqueuedAt, &t.ScheduledAt, &t.DequeuedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (q *PostgresQueue) MarkCompleted(ctx context.Context, taskID int64) error {
	_, err := q.pool.Exec(ctx,
		`UPDATE tasks SET completed_at = NOW() WHERE id = $1`, taskID)
	return err
}

func (q *PostgresQueue) RecordError(ctx context.Context, taskID int64, message string) error {
	_, err := q.pool.Exec(ctx,
		`UPDATE tasks SET completed_at = NOW(), last_error = $2 WHERE id = $1`, taskID, message)
	return err
}

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
		id BIGSERIAL PRIMARY KEY,
		task_type TEXT NOT NULL,
		payload JSONB NOT NULL DEFAULT '{}',
		enqueued_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		scheduled_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		dequeued_at TIMESTAMPTZ,
		completed_at TIMESTAMPTZ,
		last_error TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_runnable ON tasks (scheduled_at, id) WHERE dequeued_at IS NULL`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
