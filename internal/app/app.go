// Package app assembles the sandbox: the world, its scheduler, the content
// registries, the debug console and its websocket server.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/yohamta/donburi"

	"github.com/zeusync/sandbox/internal/config"
	"github.com/zeusync/sandbox/internal/console"
	"github.com/zeusync/sandbox/internal/core/character"
	"github.com/zeusync/sandbox/internal/core/command"
	"github.com/zeusync/sandbox/internal/core/item"
	"github.com/zeusync/sandbox/internal/core/observability/log"
	"github.com/zeusync/sandbox/internal/core/system"
	"github.com/zeusync/sandbox/internal/game"
	"github.com/zeusync/sandbox/internal/server"
)

const (
	auditSystemName = "item-audit"
	shutdownTimeout = 5 * time.Second
)

var (
	ErrAlreadyStarted = errors.New("app already started")
	ErrNotStarted     = errors.New("app not started")
)

type App struct {
	config config.Config
	logger log.Log

	world   donburi.World
	queue   *command.Queue
	manager *system.Manager
	regs    *game.Registries
	console *console.Console
	server  *server.ConsoleServer
	auditor *item.Auditor
	wander  *character.Wander

	started atomic.Bool
	content game.World
}

func New(cfg config.Config, logger log.Log, regs *game.Registries) (*App, error) {
	logger = logger.With(log.String("component", "app"))

	world := donburi.NewWorld()
	queue := command.NewQueue(logger)
	a := &App{
		config:  cfg,
		logger:  logger,
		world:   world,
		queue:   queue,
		manager: system.NewManager(world, queue, logger, system.WithWorkers(cfg.Scheduler.Workers)),
		regs:    regs,
		console: console.New(logger),
		auditor: item.NewAuditor(logger),
		wander:  character.NewWander(cfg.World.Seed),
	}

	if err := a.addCommands(); err != nil {
		return nil, fmt.Errorf("console commands: %w", err)
	}
	if err := a.addSystems(); err != nil {
		return nil, fmt.Errorf("systems: %w", err)
	}
	a.subscribe()

	if cfg.Console.Enabled {
		a.server = server.NewConsoleServer(cfg.ConsoleServer(), a.console, logger)
	}
	return a, nil
}

func (a *App) addCommands() error {
	if err := console.AddRegistryCommands(a.console, a.regs.Items, game.ParseItemID, console.RegistryNames{
		List:    "list-items",
		Spawn:   "spawn-item",
		Despawn: "despawn-items",
		Noun:    "an item",
	}); err != nil {
		return err
	}
	if err := console.AddRegistryCommands(a.console, a.regs.Characters, game.ParseCharacterID, console.RegistryNames{
		List:    "list-characters",
		Spawn:   "spawn-character",
		Despawn: "despawn-characters",
		Noun:    "a character",
	}); err != nil {
		return err
	}
	return console.AddWorldCommands(a.console)
}

func (a *App) addSystems() error {
	if err := a.manager.Register(a.console.System(), system.StageExclusive); err != nil {
		return err
	}
	if a.config.Debug.Audit {
		audit := system.NewFunc(auditSystemName, func(_ context.Context, sc *system.Context) error {
			a.auditor.Audit(sc.World)
			return nil
		})
		if err := a.manager.Register(system.Every(a.config.Debug.AuditEvery, audit), system.StageExclusive); err != nil {
			return err
		}
	}
	wander := system.NewFunc(a.wander.Name(), func(_ context.Context, sc *system.Context) error {
		a.wander.Step(sc.World, sc.DeltaSeconds())
		return nil
	})
	if err := a.manager.Register(wander, system.StageParallel); err != nil {
		return err
	}

	a.manager.OnSyncError(a.auditor.Report)
	a.manager.AfterSync(func(donburi.World) { a.console.Deliver() })
	return nil
}

func (a *App) subscribe() {
	item.Inserted.Subscribe(a.world, func(_ donburi.World, ev item.InsertedEvent) {
		a.logger.Debug("Item inserted", log.Entity("storage", ev.Storage), log.Entity("item", ev.Item))
	})
	item.Dropped.Subscribe(a.world, func(_ donburi.World, ev item.DroppedEvent) {
		a.logger.Debug("Item dropped",
			log.Entity("storage", ev.Storage),
			log.Entity("item", ev.Item),
			log.Stringer("placement", ev.Placement))
	})
}

// Start spawns the startup content, applies it and starts the console server.
func (a *App) Start(ctx context.Context) error {
	if !a.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	content, err := game.Setup(a.world, a.regs, a.queue, game.Layout{
		EnemyGrid: a.config.World.EnemyGrid,
		Seed:      a.config.World.Seed,
	})
	if err != nil {
		return fmt.Errorf("world setup: %w", err)
	}
	if err := a.manager.Sync(ctx); err != nil {
		return fmt.Errorf("world setup: %w", err)
	}
	a.content = content

	a.logger.Info("World ready",
		log.Entity("player", content.Player),
		log.Int("enemies", len(content.Enemies)),
		log.Int("entities", a.world.Len()))

	if a.server != nil {
		if err := a.server.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Step runs one tick.
func (a *App) Step(ctx context.Context, delta time.Duration) error {
	return a.manager.Update(ctx, delta)
}

// Run starts the app and ticks it at the configured rate until ctx is done.
// Tick errors are logged, they never stop the loop.
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}

	interval := a.config.TickInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.logger.Info("Sandbox running", log.Int("tick_rate", a.config.TickRate))
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			err := a.Stop(stopCtx)
			cancel()
			return err
		case now := <-ticker.C:
			if err := a.Step(ctx, now.Sub(last)); err != nil {
				a.logger.Debug("Tick finished with errors", log.Uint64("tick", a.manager.Tick()), log.Error(err))
			}
			last = now
		}
	}
}

// Stop closes the console and shuts the console server down.
func (a *App) Stop(ctx context.Context) error {
	if !a.started.Load() {
		return ErrNotStarted
	}
	a.console.Close()

	var err error
	if a.server != nil {
		err = a.server.Stop(ctx)
	}

	metrics := a.manager.Metrics()
	a.logger.Info("Sandbox stopped",
		log.Uint64("ticks", metrics.Ticks),
		log.Duration("avg_tick", metrics.AverageUpdateTime),
		log.Uint64("violations", a.auditor.Found()),
		log.Uint64("rejected_transfers", a.auditor.Rejected()))
	return err
}

func (a *App) World() donburi.World {
	return a.world
}

func (a *App) Manager() *system.Manager {
	return a.manager
}

func (a *App) Console() *console.Console {
	return a.console
}

func (a *App) Registries() *game.Registries {
	return a.regs
}

func (a *App) Auditor() *item.Auditor {
	return a.auditor
}

// Content is what Start spawned.
func (a *App) Content() game.World {
	return a.content
}

// Server is nil when the console server is disabled.
func (a *App) Server() *server.ConsoleServer {
	return a.server
}
