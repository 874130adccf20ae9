package bootstrap

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"werewolf-service/config"
	"werewolf-service/infra/postgres"
	redisinfra "werewolf-service/infra/redis"
	kafkaHandler "werewolf-service/internal/api/kafka"
	"werewolf-service/internal/api/ws/hub"
	"werewolf-service/internal/game"
	"werewolf-service/internal/initializer"
	"werewolf-service/internal/messaging"
	"werewolf-service/pkg/graceful"
)

type App struct {
	config config.Config

	postgresRepo *postgres.Repository
	redisManager *redisinfra.Manager
	kafka        *messaging.KafkaClient
	stopConsumer context.CancelFunc
	stopRelay    func() error

	registry *game.Registry
	timers   *game.TimerService
	wsHub    *hub.Hub
	fiberApp *fiber.App

	sweepStop chan struct{}
}

func NewApp(appConfig config.Config) *App {
	app := &App{
		config:    appConfig,
		sweepStop: make(chan struct{}),
	}
	app.initDependencies()
	return app
}

func (a *App) initDependencies() {
	a.postgresRepo = initializer.InitDatabase(a.config)
	a.redisManager = initializer.InitRedis(a.config)

	timerQueue := redisinfra.NewTimerQueue(a.redisManager.Client())
	gameConfig := game.Config{
		DefaultNightDuration:  a.config.Game.NightDuration,
		DefaultDayDuration:    a.config.Game.DayDuration,
		DefaultVoteDuration:   a.config.Game.VoteDuration,
		LittleGirlCatchChance: a.config.Game.LittleGirlCatchChance,
		HunterGrace:           time.Duration(a.config.Game.HunterGraceSeconds) * time.Second,
		DisconnectGrace:       time.Duration(a.config.Game.DisconnectGraceSeconds) * time.Second,
		AbandonTimeout:        time.Duration(a.config.Game.AbandonTimeoutMinutes) * time.Minute,
	}
	a.registry = game.NewRegistry(a.postgresRepo, a.redisManager, timerQueue, gameConfig)
	a.timers = game.NewTimerService(timerQueue, a.registry.HandleExpiry)

	messageHandlers := SetupMessageHandlers(a.postgresRepo)
	a.kafka, a.stopConsumer = initializer.InitMessaging(a.config, messageHandlers)

	gameService := SetupGameService(a.registry)
	a.wsHub = hub.NewHub(a.redisManager, gameService)

	httpHandlers := SetupHTTPHandlers(a.registry)
	wsHandlers := SetupWSHandlers(a.registry, a.wsHub, gameService)
	a.fiberApp = SetupServer(a.config, httpHandlers, wsHandlers)
}

func (a *App) Start() {
	ctx := context.Background()

	// Reload rooms that were mid-game when the process stopped; the timer
	// dispatcher then drains any deadlines that passed while we were down.
	if err := a.registry.Recover(ctx); err != nil {
		zap.L().Error("room recovery failed", zap.Error(err))
	}

	relay := kafkaHandler.NewGameEventRelay(a.kafka)
	if stop, err := relay.Start(ctx, a.redisManager); err != nil {
		zap.L().Error("failed to start game event relay", zap.Error(err))
	} else {
		a.stopRelay = stop
	}

	a.wsHub.Run(ctx)
	a.timers.Start(ctx)
	go a.sweepLoop(ctx)

	go func() {
		if err := a.fiberApp.Listen(":" + a.config.Server.Port); err != nil {
			zap.L().Error("Failed to start server", zap.Error(err))
		}
	}()
	zap.L().Info("Server started on port", zap.String("port", a.config.Server.Port))

	graceful.WaitForShutdown(a.fiberApp, 10*time.Second,
		graceful.Hook{Name: "registry", Fn: a.registry.Shutdown},
		graceful.Hook{Name: "timers", Fn: func(ctx context.Context) error {
			close(a.sweepStop)
			a.timers.Stop()
			return nil
		}},
		graceful.Hook{Name: "kafka", Fn: func(ctx context.Context) error {
			if a.stopRelay != nil {
				a.stopRelay()
			}
			a.stopConsumer()
			return a.kafka.Close()
		}},
		graceful.Hook{Name: "redis", Fn: func(ctx context.Context) error {
			return a.redisManager.Close()
		}},
		graceful.Hook{Name: "postgres", Fn: func(ctx context.Context) error {
			return a.postgresRepo.Close()
		}},
	)
}

// sweepLoop periodically cancels abandoned lobbies, expires hunter windows
// and drops finished rooms from the registry.
func (a *App) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.registry.Sweep(ctx, time.Now())
		case <-a.sweepStop:
			return
		case <-ctx.Done():
			return
		}
	}
}
