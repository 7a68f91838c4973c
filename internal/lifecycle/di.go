package lifecycle

import (
	"github.com/samber/do/v2"
	"github.com/shirakawalab/kikitori/internal/blob"
	"github.com/shirakawalab/kikitori/internal/config"
	"github.com/shirakawalab/kikitori/internal/queue"
	"github.com/shirakawalab/kikitori/internal/repository"
	"github.com/shirakawalab/kikitori/internal/transcriber"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[repository.Repository](i)
		enqueuer := do.MustInvoke[queue.Enqueuer](i)
		stt := do.MustInvoke[transcriber.Transcriber](i)
		blobs := do.MustInvoke[blob.Store](i)
		return NewService(cfg, repo, enqueuer, stt, blobs), nil
	})

	do.Provide(injector, func(i do.Injector) (*queue.Dispatcher, error) {
		svc := do.MustInvoke[*Service](i)
		d := queue.NewDispatcher()
		d.Register(NewTranscribeProcessor(svc))
		return d, nil
	})
}
