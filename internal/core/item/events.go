package item

import (
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"

	"github.com/zeusync/sandbox/internal/core/models"
)

// InsertedEvent is published after an item entered a storage.
type InsertedEvent struct {
	Storage donburi.Entity
	Item    donburi.Entity
}

// DroppedEvent is published after an item left a storage for the world.
type DroppedEvent struct {
	Storage   donburi.Entity
	Item      donburi.Entity
	Placement models.TransformData
}

var (
	Inserted = events.NewEventType[InsertedEvent]()
	Dropped  = events.NewEventType[DroppedEvent]()
)

// ProcessEvents delivers the queued transfer events to their subscribers.
func ProcessEvents(w donburi.World) {
	Inserted.ProcessEvents(w)
	Dropped.ProcessEvents(w)
}
