package httpserver

import (
	"github.com/samber/do/v2"
	"github.com/shirakawalab/kikitori/internal/config"
	"github.com/shirakawalab/kikitori/internal/lifecycle"
	"github.com/shirakawalab/kikitori/internal/repository"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[repository.Repository](i)
		svc := do.MustInvoke[*lifecycle.Service](i)
		return NewServer(cfg, repo, svc), nil
	})
}
