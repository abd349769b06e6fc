package gameplayservice

import (
	"log/slog"
	"math/rand"
	"time"

	"werewolf/contexts/game/gameplay-service/adapters/memory"
	"werewolf/contexts/game/gameplay-service/application/commands"
	"werewolf/contexts/game/gameplay-service/application/workers"
	"werewolf/contexts/game/gameplay-service/ports"
)

type Module struct {
	Gameplay commands.GameplayUseCase
	Sweeper  workers.EnrollmentSweeper
	Store    *memory.Store
}

type Dependencies struct {
	Store         *memory.Store
	Renderer      ports.EnrollmentRenderer
	Roster        ports.RosterProvider
	Polls         ports.PollLauncher
	Messenger     ports.Messenger
	Clock         ports.Clock
	IDGen         ports.IDGenerator
	Events        ports.EventPublisher
	Rand          *rand.Rand
	SweepInterval time.Duration
	Logger        *slog.Logger
}

func NewModule(deps Dependencies) Module {
	store := deps.Store
	if store == nil {
		store = memory.NewStore()
	}
	clock := deps.Clock
	if clock == nil {
		clock = store
	}
	idGen := deps.IDGen
	if idGen == nil {
		idGen = store
	}
	useCase := commands.GameplayUseCase{
		Enrollments: store,
		Renderer:    deps.Renderer,
		Candidates:  store,
		Countdowns:  store,
		Roster:      deps.Roster,
		Polls:       deps.Polls,
		Messenger:   deps.Messenger,
		Clock:       clock,
		IDGen:       idGen,
		Events:      deps.Events,
		Rand:        deps.Rand,
		Logger:      deps.Logger,
	}
	return Module{
		Gameplay: useCase,
		Sweeper: workers.EnrollmentSweeper{
			Enrollments: store,
			Closer:      useCase,
			Clock:       clock,
			Interval:    deps.SweepInterval,
			Logger:      deps.Logger,
		},
		Store: store,
	}
}
