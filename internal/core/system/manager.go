package system

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"

	"github.com/zeusync/sandbox/internal/core/command"
	"github.com/zeusync/sandbox/internal/core/observability/log"
	"github.com/zeusync/sandbox/pkg/concurrent"
)

const tracerName = "github.com/zeusync/sandbox/internal/core/system"

// ManagerMetrics provides scheduler statistics
type ManagerMetrics struct {
	Ticks             uint64
	RegisteredSystems int
	TotalUpdateTime   time.Duration
	AverageUpdateTime time.Duration
	LastUpdateTime    time.Time
	SyncErrorCount    uint64
}

type registered struct {
	system System
	stage  Stage

	mu      sync.Mutex
	metrics Metrics
}

// Manager runs the systems of one world tick by tick.
//
// Every tick runs the exclusive systems in registration order, then the
// parallel systems concurrently, then the sync point: queued commands are
// applied in submission order and queued events are delivered.
// Update must not be called concurrently.
type Manager struct {
	world  donburi.World
	queue  *command.Queue
	logger log.Log
	tracer trace.Tracer

	workers int

	mu          sync.RWMutex
	exclusive   []*registered
	parallel    []*registered
	byName      map[string]*registered
	onSyncError []func(error)
	afterSync   []func(donburi.World)

	tick    uint64
	metrics ManagerMetrics
}

type Option func(*Manager)

// WithWorkers bounds how many parallel systems run at once. Values below one
// mean no bound.
func WithWorkers(n int) Option {
	return func(m *Manager) {
		m.workers = n
	}
}

// WithTracer replaces the tracer taken from the global otel provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(m *Manager) {
		m.tracer = tracer
	}
}

func NewManager(world donburi.World, queue *command.Queue, logger log.Log, opts ...Option) *Manager {
	m := &Manager{
		world:   world,
		queue:   queue,
		logger:  logger.With(log.String("component", "system-manager")),
		tracer:  otel.Tracer(tracerName),
		workers: 1,
		byName:  make(map[string]*registered),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) World() donburi.World {
	return m.world
}

func (m *Manager) Commands() *command.Queue {
	return m.queue
}

func (m *Manager) Register(sys System, stage Stage) error {
	if sys == nil {
		return ErrNilSystem
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	name := sys.Name()
	if _, exists := m.byName[name]; exists {
		return fmt.Errorf("%w: %s", ErrSystemExists, name)
	}

	r := &registered{system: sys, stage: stage}
	m.byName[name] = r
	if stage == StageExclusive {
		m.exclusive = append(m.exclusive, r)
	} else {
		m.parallel = append(m.parallel, r)
	}
	m.metrics.RegisteredSystems++

	m.logger.Debug("System registered", log.String("system", name), log.Stringer("stage", stage))
	return nil
}

// OnSyncError registers fn to receive the error of every failed sync point.
func (m *Manager) OnSyncError(fn func(error)) {
	m.mu.Lock()
	m.onSyncError = append(m.onSyncError, fn)
	m.mu.Unlock()
}

// AfterSync registers fn to run after every sync point, when the world is
// consistent and nothing else is running.
func (m *Manager) AfterSync(fn func(donburi.World)) {
	m.mu.Lock()
	m.afterSync = append(m.afterSync, fn)
	m.mu.Unlock()
}

// Update runs one tick and returns the errors of the systems and of the sync point.
func (m *Manager) Update(ctx context.Context, delta time.Duration) error {
	started := time.Now()
	m.tick++

	ctx, span := m.tracer.Start(ctx, "tick", trace.WithAttributes(attribute.Int64("tick", int64(m.tick))))
	defer span.End()

	m.mu.RLock()
	exclusive, parallel := m.exclusive, m.parallel
	m.mu.RUnlock()

	sc := &Context{World: m.world, Commands: m.queue, Delta: delta, Tick: m.tick}

	var errs error
	for _, r := range exclusive {
		errs = multierr.Append(errs, m.run(ctx, r, sc))
	}

	var errsMu sync.Mutex
	_ = concurrent.ForEachLimit(ctx, parallel, m.workers, func(ctx context.Context, r *registered) error {
		if err := m.run(ctx, r, sc); err != nil {
			errsMu.Lock()
			errs = multierr.Append(errs, err)
			errsMu.Unlock()
		}
		return nil
	})

	errs = multierr.Append(errs, m.Sync(ctx))

	took := time.Since(started)
	m.metrics.Ticks++
	m.metrics.TotalUpdateTime += took
	m.metrics.AverageUpdateTime = m.metrics.TotalUpdateTime / time.Duration(m.metrics.Ticks)
	m.metrics.LastUpdateTime = started

	if errs != nil {
		span.SetStatus(codes.Error, errs.Error())
	}
	return errs
}

// Sync applies the queued commands, delivers queued events and runs the
// after-sync hooks. Update calls it; setup code calls it directly.
func (m *Manager) Sync(ctx context.Context) error {
	_, span := m.tracer.Start(ctx, "sync", trace.WithAttributes(attribute.Int("commands", m.queue.Len())))
	defer span.End()

	err := m.queue.Flush(m.world)
	events.ProcessAllEvents(m.world)

	m.mu.RLock()
	onSyncError, afterSync := m.onSyncError, m.afterSync
	m.mu.RUnlock()

	if err != nil {
		m.metrics.SyncErrorCount++
		span.SetStatus(codes.Error, err.Error())
		for _, fn := range onSyncError {
			fn(err)
		}
	}
	for _, fn := range afterSync {
		fn(m.world)
	}
	return err
}

func (m *Manager) run(ctx context.Context, r *registered, sc *Context) (err error) {
	name := r.system.Name()
	ctx, span := m.tracer.Start(ctx, name, trace.WithAttributes(attribute.String("stage", r.stage.String())))
	started := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("system %s panicked: %v", name, rec)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			m.logger.Error("System update failed", log.String("system", name), log.Error(err))
		}
		span.End()

		r.mu.Lock()
		r.metrics.record(started, time.Since(started), err)
		r.mu.Unlock()
	}()

	return r.system.Update(ctx, sc)
}

// Systems lists the system names in execution order.
func (m *Manager) Systems() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.exclusive)+len(m.parallel))
	for _, r := range m.exclusive {
		names = append(names, r.system.Name())
	}
	for _, r := range m.parallel {
		names = append(names, r.system.Name())
	}
	return names
}

func (m *Manager) SystemMetrics(name string) (Metrics, bool) {
	m.mu.RLock()
	r, ok := m.byName[name]
	m.mu.RUnlock()
	if !ok {
		return Metrics{}, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.metrics, true
}

func (m *Manager) Metrics() ManagerMetrics {
	return m.metrics
}

func (m *Manager) Tick() uint64 {
	return m.tick
}
