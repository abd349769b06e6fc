package pollengine

import (
	"log/slog"
	"time"

	"werewolf/contexts/game/poll-engine/adapters/memory"
	"werewolf/contexts/game/poll-engine/application/commands"
	"werewolf/contexts/game/poll-engine/application/queries"
	"werewolf/contexts/game/poll-engine/application/workers"
	"werewolf/contexts/game/poll-engine/ports"
)

type Module struct {
	Polls   commands.PollUseCase
	Queries queries.PollsUseCase
	Sweeper workers.ExpirySweeper
	Store   *memory.Store
}

type Dependencies struct {
	Store         ports.PollStore
	Renderer      ports.Renderer
	Clock         ports.Clock
	IDGen         ports.IDGenerator
	Archive       ports.ArchiveWriter
	Events        ports.EventPublisher
	SweepInterval time.Duration
	Logger        *slog.Logger
}

func NewModule(deps Dependencies) Module {
	pollUseCase := commands.PollUseCase{
		Polls:    deps.Store,
		Renderer: deps.Renderer,
		Clock:    deps.Clock,
		IDGen:    deps.IDGen,
		Archive:  deps.Archive,
		Events:   deps.Events,
		Logger:   deps.Logger,
	}
	return Module{
		Polls:   pollUseCase,
		Queries: queries.PollsUseCase{Polls: deps.Store},
		Sweeper: workers.ExpirySweeper{
			Polls:     deps.Store,
			Finalizer: pollUseCase,
			Clock:     deps.Clock,
			Interval:  deps.SweepInterval,
			Logger:    deps.Logger,
		},
	}
}

// NewInMemoryModule wires the engine on the memory store; the store also
// serves as clock and id source, matching test wiring.
func NewInMemoryModule(renderer ports.Renderer, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Store:    store,
		Renderer: renderer,
		Clock:    store,
		IDGen:    store,
		Logger:   logger,
	})
	module.Store = store
	return module
}
