package pollcatalog

import (
	"log/slog"

	httpadapter "livepolls/contexts/live-polls/poll-catalog/adapters/http"
	"livepolls/contexts/live-polls/poll-catalog/adapters/memory"
	"livepolls/contexts/live-polls/poll-catalog/application/commands"
	"livepolls/contexts/live-polls/poll-catalog/application/queries"
	"livepolls/contexts/live-polls/poll-catalog/domain/entities"
	"livepolls/contexts/live-polls/poll-catalog/ports"
)

type Module struct {
	Handler    httpadapter.Handler
	Repository ports.PollRepository
	Store      *memory.Store
}

type Dependencies struct {
	Repository  ports.PollRepository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	return Module{
		Handler: httpadapter.Handler{
			Commands: commands.CreatePollUseCase{
				Polls:  deps.Repository,
				Clock:  deps.Clock,
				IDGen:  deps.IDGenerator,
				Logger: deps.Logger,
			},
			Queries: queries.PollUseCase{Polls: deps.Repository},
			Logger:  deps.Logger,
		},
		Repository: deps.Repository,
	}
}

func NewInMemoryModule(seed []entities.Poll, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Repository:  store,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	return module
}
