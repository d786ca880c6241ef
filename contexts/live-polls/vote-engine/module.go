package voteengine

import (
	"log/slog"

	httpadapter "livepolls/contexts/live-polls/vote-engine/adapters/http"
	"livepolls/contexts/live-polls/vote-engine/adapters/memory"
	"livepolls/contexts/live-polls/vote-engine/application/commands"
	"livepolls/contexts/live-polls/vote-engine/application/queries"
	"livepolls/contexts/live-polls/vote-engine/application/workers"
	"livepolls/contexts/live-polls/vote-engine/ports"
)

type Module struct {
	Handler    httpadapter.Handler
	Reconciler workers.LedgerReconciler
	Store      *memory.Store
}

type Dependencies struct {
	Registry    ports.VoteRegistry
	Ledger      ports.ScoreLedger
	Directory   ports.PollDirectory
	Publisher   ports.DeltaPublisher
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	return Module{
		Handler: httpadapter.Handler{
			Votes: commands.VoteUseCase{
				Registry:  deps.Registry,
				Ledger:    deps.Ledger,
				Directory: deps.Directory,
				Publisher: deps.Publisher,
				Clock:     deps.Clock,
				IDGen:     deps.IDGenerator,
				Logger:    deps.Logger,
			},
			Tallies: queries.TallyUseCase{
				Ledger:    deps.Ledger,
				Directory: deps.Directory,
			},
			Logger: deps.Logger,
		},
		Reconciler: workers.LedgerReconciler{
			Registry:  deps.Registry,
			Ledger:    deps.Ledger,
			Directory: deps.Directory,
			Logger:    deps.Logger,
		},
	}
}

// NewInMemoryModule wires the engine on the in-memory store. The directory
// defaults to the store's own poll projection unless the caller supplies the
// catalog-backed one.
func NewInMemoryModule(directory ports.PollDirectory, publisher ports.DeltaPublisher, logger *slog.Logger) Module {
	store := memory.NewStore()
	if directory == nil {
		directory = store
	}
	module := NewModule(Dependencies{
		Registry:    store,
		Ledger:      store,
		Directory:   directory,
		Publisher:   publisher,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	return module
}
