package item

import (
	"fmt"

	"github.com/yohamta/donburi"

	"github.com/zeusync/sandbox/internal/core/models"
)

// Insert moves a World item into storage. It is a deferred command: push it
// to a command.Queue and it runs at the next sync point.
type Insert struct {
	Storage donburi.Entity
	Item    donburi.Entity
}

func (c Insert) Apply(w donburi.World) error {
	if err := CheckInsert(w, c.Storage, c.Item); err != nil {
		return violation(err)
	}
	insert(w, c.Storage, c.Item)
	return nil
}

// CheckInsert reports why Insert{storage, item} would be rejected right now.
// Callers handling user input check first so a rejected transfer is a reply,
// not a contract violation.
func CheckInsert(w donburi.World, storage, item donburi.Entity) error {
	if err := checkTarget("insert", w, storage, item); err != nil {
		return err
	}
	if Storage.Get(w.Entry(storage)).Contains(item) {
		return rejection("insert", storage, item, "item is already in this storage")
	}
	if state := stateOf(w.Entry(item)); state != StateWorld {
		return rejection("insert", storage, item, fmt.Sprintf("item is %s, expected World", state))
	}
	return nil
}

// Drop moves a Contained item out of storage and places it exactly where the
// storage is in the world at the moment the command runs.
type Drop struct {
	Storage donburi.Entity
	Item    donburi.Entity
}

func (c Drop) Apply(w donburi.World) error {
	placement, err := checkDrop(w, c.Storage, c.Item)
	if err != nil {
		return violation(err)
	}
	drop(w, c.Storage, c.Item, placement)
	return nil
}

// CheckDrop reports why Drop{storage, item} would be rejected right now.
func CheckDrop(w donburi.World, storage, item donburi.Entity) error {
	_, err := checkDrop(w, storage, item)
	return err
}

func checkDrop(w donburi.World, storage, item donburi.Entity) (models.TransformData, error) {
	if err := checkSource("drop", w, storage, item); err != nil {
		return models.TransformData{}, err
	}
	placement, ok := models.GlobalTransform(w, storage)
	if !ok {
		return models.TransformData{}, rejection("drop", storage, item, "storage has no world placement")
	}
	return placement, nil
}

// Move takes item out of From and inserts it into To within one command.
// Both sides are checked before anything changes. The item never enters the
// world, so only Inserted is published.
type Move struct {
	From donburi.Entity
	To   donburi.Entity
	Item donburi.Entity
}

func (c Move) Apply(w donburi.World) error {
	if err := CheckMove(w, c.From, c.To, c.Item); err != nil {
		return violation(err)
	}
	detach(w, c.From, c.Item)
	insert(w, c.To, c.Item)
	return nil
}

// CheckMove reports why Move{from, to, item} would be rejected right now.
// Unlike a drop, a move needs no world placement.
func CheckMove(w donburi.World, from, to, item donburi.Entity) error {
	if err := checkSource("move", w, from, item); err != nil {
		return err
	}
	if err := checkTarget("move", w, to, item); err != nil {
		return err
	}
	if from == to {
		return rejection("move", to, item, "item is already in this storage")
	}
	return nil
}

// checkSource validates that item is Contained in storage.
func checkSource(op string, w donburi.World, storage, item donburi.Entity) error {
	storageEntry, ok := models.Lookup(w, storage)
	if !ok {
		return rejection(op, storage, item, "storage is not alive")
	}
	if !IsStorage(storageEntry) {
		return rejection(op, storage, item, "entity has no storage")
	}
	itemEntry, ok := models.Lookup(w, item)
	if !ok || !IsItem(itemEntry) {
		return rejection(op, storage, item, "entity is not a live item")
	}
	if state := stateOf(itemEntry); state != StateContained {
		return rejection(op, storage, item, fmt.Sprintf("item is %s, expected Contained", state))
	}
	if parent, _ := models.ParentOf(itemEntry); parent != storage {
		return rejection(op, storage, item, "item is parented to "+models.FormatEntity(parent))
	}
	if !Storage.Get(storageEntry).Contains(item) {
		return rejection(op, storage, item, "item is not listed in this storage")
	}
	return nil
}

// checkTarget validates that item may be put into storage, ignoring the
// item's current state.
func checkTarget(op string, w donburi.World, storage, item donburi.Entity) error {
	storageEntry, ok := models.Lookup(w, storage)
	if !ok {
		return rejection(op, storage, item, "storage is not alive")
	}
	if !IsStorage(storageEntry) {
		return rejection(op, storage, item, "entity has no storage")
	}
	itemEntry, ok := models.Lookup(w, item)
	if !ok || !IsItem(itemEntry) {
		return rejection(op, storage, item, "entity is not a live item")
	}
	if storage == item || models.IsAncestor(w, item, storage) {
		return rejection(op, storage, item, "storage is the item or is inside it")
	}
	return nil
}

func insert(w donburi.World, storage, item donburi.Entity) {
	itemEntry := w.Entry(item)
	if itemEntry.HasComponent(models.Transform) {
		itemEntry.RemoveComponent(models.Transform)
	}
	models.SetParent(w.Entry(item), storage)
	Storage.Get(w.Entry(storage)).add(item)

	Inserted.Publish(w, InsertedEvent{Storage: storage, Item: item})
}

func detach(w donburi.World, storage, item donburi.Entity) {
	Storage.Get(w.Entry(storage)).remove(item)
	models.RemoveParent(w.Entry(item))
}

func drop(w donburi.World, storage, item donburi.Entity, placement models.TransformData) {
	detach(w, storage, item)
	models.SetTransform(w.Entry(item), placement)

	Dropped.Publish(w, DroppedEvent{Storage: storage, Item: item, Placement: placement})
}
