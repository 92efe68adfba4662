package item

import (
	"errors"
	"slices"

	"github.com/yohamta/donburi"

	"github.com/zeusync/sandbox/internal/core/models"
)

var ErrNotAlive = errors.New("entity is not alive")

// Despawn removes an entity together with everything parented to it.
// A contained entity is first taken off its storage list so the storage
// never lists a dead item.
type Despawn struct {
	Entity donburi.Entity
}

func (c Despawn) Apply(w donburi.World) error {
	_, err := DespawnTree(w, c.Entity)
	return err
}

// DespawnTree removes e and its descendants immediately and returns how many
// entities were removed. Callers must hold exclusive access to w.
func DespawnTree(w donburi.World, e donburi.Entity) (int, error) {
	entry, ok := models.Lookup(w, e)
	if !ok {
		return 0, ErrNotAlive
	}

	if parent, ok := models.ParentOf(entry); ok {
		if storageEntry, alive := models.Lookup(w, parent); alive && IsStorage(storageEntry) {
			Storage.Get(storageEntry).remove(e)
		}
	}

	doomed := []donburi.Entity{e}
	for i := 0; i < len(doomed); i++ {
		for _, child := range models.ChildrenOf(w, doomed[i]) {
			if !slices.Contains(doomed, child) {
				doomed = append(doomed, child)
			}
		}
	}

	for i := len(doomed) - 1; i >= 0; i-- {
		w.Remove(doomed[i])
	}
	return len(doomed), nil
}
