package sessionservice

import (
	"log/slog"
	"math/rand"

	"werewolf/contexts/game/session-service/adapters/memory"
	"werewolf/contexts/game/session-service/application/commands"
	"werewolf/contexts/game/session-service/application/queries"
	"werewolf/contexts/game/session-service/ports"
)

type Module struct {
	Sessions commands.SessionUseCase
	Queries  queries.SessionsUseCase
	Store    *memory.Store
}

type Dependencies struct {
	Store   ports.SessionStore
	Guilds  ports.GuildDirectory
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Replays ports.ReplayWriter
	Events  ports.EventPublisher
	Rand    *rand.Rand
	Logger  *slog.Logger
}

func NewModule(deps Dependencies) Module {
	return Module{
		Sessions: commands.SessionUseCase{
			Sessions: deps.Store,
			Guilds:   deps.Guilds,
			Clock:    deps.Clock,
			IDGen:    deps.IDGen,
			Replays:  deps.Replays,
			Events:   deps.Events,
			Rand:     deps.Rand,
			Logger:   deps.Logger,
		},
		Queries: queries.SessionsUseCase{Sessions: deps.Store},
	}
}

// NewInMemoryModule wires the service on the memory store; the store also
// serves as clock and id source, matching test wiring.
func NewInMemoryModule(guilds ports.GuildDirectory, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Store:  store,
		Guilds: guilds,
		Clock:  store,
		IDGen:  store,
		Logger: logger,
	})
	module.Store = store
	return module
}
