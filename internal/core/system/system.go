package system

import (
	"context"
	"errors"
	"time"
)

var (
	ErrSystemExists = errors.New("system already registered")
	ErrNilSystem    = errors.New("system is nil")
)

// System is game logic run once per tick.
type System interface {
	Name() string
	Update(ctx context.Context, sc *Context) error
}

// Stage defines when a system runs within a tick.
type Stage uint8

const (
	// StageExclusive systems run one at a time before the parallel stage and
	// may mutate the world directly.
	StageExclusive Stage = iota
	// StageParallel systems run concurrently and only defer structural changes.
	StageParallel
)

func (s Stage) String() string {
	if s == StageExclusive {
		return "exclusive"
	}
	return "parallel"
}

type funcSystem struct {
	name string
	fn   func(ctx context.Context, sc *Context) error
}

// NewFunc adapts fn into a System.
func NewFunc(name string, fn func(ctx context.Context, sc *Context) error) System {
	return &funcSystem{name: name, fn: fn}
}

func (s *funcSystem) Name() string {
	return s.name
}

func (s *funcSystem) Update(ctx context.Context, sc *Context) error {
	return s.fn(ctx, sc)
}

// Every wraps sys so it only runs on every n-th tick.
func Every(n uint64, sys System) System {
	if n <= 1 {
		return sys
	}
	return NewFunc(sys.Name(), func(ctx context.Context, sc *Context) error {
		if sc.Tick%n != 0 {
			return nil
		}
		return sys.Update(ctx, sc)
	})
}

// Metrics provides runtime metrics for a system
type Metrics struct {
	ExecutionCount       uint64
	TotalExecutionTime   time.Duration
	AverageExecutionTime time.Duration
	MaxExecutionTime     time.Duration
	MinExecutionTime     time.Duration
	ErrorCount           uint64
	LastError            error
	LastExecutionTime    time.Time
}

func (m *Metrics) record(started time.Time, took time.Duration, err error) {
	m.ExecutionCount++
	m.TotalExecutionTime += took
	m.AverageExecutionTime = m.TotalExecutionTime / time.Duration(m.ExecutionCount)
	if took > m.MaxExecutionTime {
		m.MaxExecutionTime = took
	}
	if m.MinExecutionTime == 0 || took < m.MinExecutionTime {
		m.MinExecutionTime = took
	}
	m.LastExecutionTime = started
	if err != nil {
		m.ErrorCount++
		m.LastError = err
	}
}
