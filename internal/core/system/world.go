package system

import (
	"time"

	"github.com/yohamta/donburi"

	"github.com/zeusync/sandbox/internal/core/command"
)

// Context is what a system sees during one tick.
// Systems in the parallel stage must treat World as read-only apart from
// components of entities they exclusively own, and push structural changes
// to Commands.
type Context struct {
	World    donburi.World
	Commands *command.Queue
	Delta    time.Duration
	Tick     uint64
}

// DeltaSeconds is Delta in seconds.
func (c *Context) DeltaSeconds() float32 {
	return float32(c.Delta.Seconds())
}
