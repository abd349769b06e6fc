package bootstrap

import (
	"context"
	"log/slog"
	"strings"

	gameplayservice "werewolf/contexts/game/gameplay-service"
	pollengine "werewolf/contexts/game/poll-engine"
	pollmemory "werewolf/contexts/game/poll-engine/adapters/memory"
	pollpostgres "werewolf/contexts/game/poll-engine/adapters/postgres"
	sessionservice "werewolf/contexts/game/session-service"
	sessionmemory "werewolf/contexts/game/session-service/adapters/memory"
	sessionpostgres "werewolf/contexts/game/session-service/adapters/postgres"
	"werewolf/internal/platform/config"
	"werewolf/internal/platform/db"
	"werewolf/internal/platform/discord"
	"werewolf/internal/platform/httpserver"
	"werewolf/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

const (
	pollTopic     = "poll.events"
	sessionTopic  = "session.events"
	gameplayTopic = "gameplay.events"
)

type BotApp struct {
	client   *discord.Client
	gateway  *discord.Gateway
	server   *httpserver.Server
	bus      *messaging.Bus
	gameLog  *messaging.GameLog
	polls    pollengine.Module
	gameplay gameplayservice.Module
	postgres *db.Postgres
	logger   *slog.Logger
}

func BuildBot() (*BotApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "bot")

	client, err := discord.New(cfg.DiscordToken, logger)
	if err != nil {
		return nil, err
	}

	directory := discord.NewDirectory(client)
	renderer := discord.NewRenderer(client)
	messenger := discord.NewMessenger(client)

	bus := messaging.NewBus(logger)
	gameLog := messaging.NewGameLog(cfg.GameLogSize)

	// Archives are optional: without a DSN results and replays only live in
	// the Discord messages themselves.
	var postgres *db.Postgres
	var pollArchive *pollpostgres.Archive
	var replayArchive *sessionpostgres.ReplayArchive
	if strings.TrimSpace(cfg.PostgresDSN) != "" {
		postgres, err = db.Connect(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		pollArchive = pollpostgres.NewArchive(postgres.DB, logger)
		if err := pollArchive.Migrate(); err != nil {
			return nil, err
		}
		replayArchive = sessionpostgres.NewReplayArchive(postgres.DB, logger)
		if err := replayArchive.Migrate(); err != nil {
			return nil, err
		}
	}

	pollStore := pollmemory.NewStore()
	pollDeps := pollengine.Dependencies{
		Store:         pollStore,
		Renderer:      renderer,
		Clock:         pollStore,
		IDGen:         pollStore,
		Events:        bus,
		SweepInterval: cfg.SweepInterval,
		Logger:        logger,
	}
	if pollArchive != nil {
		pollDeps.Archive = pollArchive
	}
	pollModule := pollengine.NewModule(pollDeps)
	pollModule.Store = pollStore

	sessionStore := sessionmemory.NewStore()
	sessionDeps := sessionservice.Dependencies{
		Store:  sessionStore,
		Guilds: directory,
		Clock:  sessionStore,
		IDGen:  sessionStore,
		Events: bus,
		Logger: logger,
	}
	if replayArchive != nil {
		sessionDeps.Replays = replayArchive
	}
	sessionModule := sessionservice.NewModule(sessionDeps)
	sessionModule.Store = sessionStore

	gameplayModule := gameplayservice.NewModule(gameplayservice.Dependencies{
		Renderer:      renderer,
		Roster:        sessionRoster{sessions: sessionModule.Queries},
		Polls:         pollLauncher{polls: pollModule.Polls},
		Messenger:     messenger,
		Events:        bus,
		SweepInterval: cfg.SweepInterval,
		Logger:        logger,
	})

	gateway := discord.NewGateway(client, pollModule, sessionModule, gameplayModule, logger)
	gateway.RegisterHandlers()

	server := httpserver.New(pollModule, sessionModule, gameLog, logger, normalizeAddr(cfg.HTTPPort))

	return &BotApp{
		client:   client,
		gateway:  gateway,
		server:   server,
		bus:      bus,
		gameLog:  gameLog,
		polls:    pollModule,
		gameplay: gameplayModule,
		postgres: postgres,
		logger:   logger,
	}, nil
}

// Run connects the gateway, starts the expiry sweepers and serves the
// dashboard until ctx is cancelled or the HTTP listener fails.
func (a *BotApp) Run(ctx context.Context) error {
	a.gameLog.Attach(ctx, a.bus, pollTopic, sessionTopic, gameplayTopic)

	if err := a.client.Open(); err != nil {
		return err
	}
	if err := a.gateway.RegisterCommands(); err != nil {
		return err
	}

	go func() { _ = a.polls.Sweeper.Run(ctx) }()
	go func() { _ = a.gameplay.Sweeper.Run(ctx) }()

	a.logger.Info("bot app started",
		"event", "bootstrap_bot_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)

	serverErr := make(chan error, 1)
	go func() { serverErr <- a.server.Start() }()

	select {
	case <-ctx.Done():
		return nil
	case err := <-serverErr:
		return err
	}
}

func (a *BotApp) Close() error {
	var closeErr error
	if a.client != nil {
		closeErr = a.client.Close()
	}
	if a.postgres != nil {
		if err := a.postgres.Close(); err != nil && closeErr == nil {
			closeErr = err
		}
	}
	return closeErr
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
