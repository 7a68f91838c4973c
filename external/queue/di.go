package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/do/v2"
	"github.com/shirakawalab/kikitori/internal/queue"
)

const queueInitTimeout = 15 * time.Second

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (queue.Store, error) {
		pool := do.MustInvoke[*pgxpool.Pool](i)
		ctx, cancel := context.WithTimeout(context.Background(), queueInitTimeout)
		defer cancel()

		if err := RunMigration(ctx, pool); err != nil {
			return nil, fmt.Errorf("failed to run queue migration: %w", err)
		}
		return NewPostgresQueue(pool), nil
	})

	do.Provide(injector, func(i do.Injector) (queue.Enqueuer, error) {
		return do.MustInvoke[queue.Store](i), nil
	})
}
