// Package command implements deferred structural mutation.
//
// Systems never add or remove entities or components while other systems
// may be reading the world. They push a Command instead, and the scheduler
// applies every queued command in submission order at the sync point.
package command

import (
	"sync"

	"github.com/yohamta/donburi"
	"go.uber.org/multierr"

	"github.com/zeusync/sandbox/internal/core/observability/log"
	"github.com/zeusync/sandbox/pkg/sequence"
)

// Command is a structural mutation applied at the sync point.
// A failing command must leave the world unchanged.
type Command interface {
	Apply(w donburi.World) error
}

// Func adapts a plain function into a Command.
type Func func(w donburi.World) error

func (f Func) Apply(w donburi.World) error {
	return f(w)
}

// Queue collects commands pushed during a tick. Push is safe for concurrent use.
type Queue struct {
	mu      sync.Mutex
	pending *sequence.Queue[Command]
	logger  log.Log
}

func NewQueue(logger log.Log) *Queue {
	return &Queue{
		pending: sequence.NewQueue[Command](64),
		logger:  logger.With(log.String("component", "command-queue")),
	}
}

// Push appends commands in the given order.
func (q *Queue) Push(cmds ...Command) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, cmd := range cmds {
		if cmd != nil {
			q.pending.Enqueue(cmd)
		}
	}
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending.Len()
}

// Flush applies every pending command in submission order, including commands
// pushed by commands being applied. A failed command is logged and skipped;
// the failures are returned together.
func (q *Queue) Flush(w donburi.World) error {
	var errs error
	applied := 0

	for {
		q.mu.Lock()
		batch := q.pending.Drain()
		q.mu.Unlock()

		if len(batch) == 0 {
			break
		}

		for _, cmd := range batch {
			if err := cmd.Apply(w); err != nil {
				q.logger.Error("Command rejected", log.Error(err))
				errs = multierr.Append(errs, err)
				continue
			}
			applied++
		}
	}

	if applied > 0 {
		q.logger.Debug("Commands applied", log.Int("count", applied))
	}
	return errs
}
