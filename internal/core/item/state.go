package item

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/yohamta/donburi"

	"github.com/zeusync/sandbox/internal/core/models"
)

// State is the representation an item is currently in.
type State uint8

const (
	// StateInvalid means the item has neither a Transform nor a Parent.
	// Nothing in this package produces it; the auditor reports it.
	StateInvalid State = iota
	StateWorld
	StateContained
)

func (s State) String() string {
	switch s {
	case StateWorld:
		return "World"
	case StateContained:
		return "Contained"
	default:
		return "Invalid"
	}
}

func IsItem(entry *donburi.Entry) bool {
	return entry != nil && entry.HasComponent(Item)
}

func IsStorage(entry *donburi.Entry) bool {
	return entry != nil && entry.HasComponent(Storage)
}

func stateOf(entry *donburi.Entry) State {
	switch {
	case entry.HasComponent(models.Transform):
		return StateWorld
	case entry.HasComponent(models.Parent):
		return StateContained
	default:
		return StateInvalid
	}
}

// StateOf reports the state of item e. ok is false when e is not a live item.
func StateOf(w donburi.World, e donburi.Entity) (state State, ok bool) {
	entry, alive := models.Lookup(w, e)
	if !alive || !IsItem(entry) {
		return StateInvalid, false
	}
	return stateOf(entry), true
}

// ContainerOf returns the storage holding item e.
func ContainerOf(w donburi.World, e donburi.Entity) (donburi.Entity, bool) {
	entry, ok := models.Lookup(w, e)
	if !ok || !IsItem(entry) || stateOf(entry) != StateContained {
		return donburi.Null, false
	}
	return models.ParentOf(entry)
}

// Contents lists the items held by storage s in insertion order.
// ok is false when s is not a live storage.
func Contents(w donburi.World, s donburi.Entity) ([]donburi.Entity, bool) {
	entry, alive := models.Lookup(w, s)
	if !alive || !IsStorage(entry) {
		return nil, false
	}
	return Storage.Get(entry).Items(), true
}

// Nearest returns the World item closest to from within radius, measured in
// world space.
func Nearest(w donburi.World, from mgl32.Vec3, radius float32) (donburi.Entity, bool) {
	best := donburi.Null
	bestDist := radius
	itemQuery.Each(w, func(entry *donburi.Entry) {
		if stateOf(entry) != StateWorld {
			return
		}
		global, ok := models.GlobalTransform(w, entry.Entity())
		if !ok {
			return
		}
		if d := global.Translation.Sub(from).Len(); d <= bestDist {
			best, bestDist = entry.Entity(), d
		}
	})
	return best, best != donburi.Null
}
