// Package item implements items and the storages that hold them.
//
// An item is always in exactly one of two states. In the World state it
// owns a Transform and is listed in no storage. In the Contained state it
// has no Transform, its Parent is a storage, and that storage lists it.
// Items only move between the states through the Insert and Drop commands.
package item

import (
	"slices"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/component"

	"github.com/zeusync/sandbox/internal/core/models"
)

const defaultName = "Item"

type ItemData struct{}

// Item flags an entity as an item.
var Item = donburi.NewComponentType[ItemData]()

type DescriptionData struct {
	Text string
}

var Description = donburi.NewComponentType[DescriptionData]()

type ValueData struct {
	Amount uint16
}

var Value = donburi.NewComponentType[ValueData]()

// Bundle is the template of an item. Items spawn in the World state at the
// origin; SpawnAt or a later Insert moves them.
type Bundle struct {
	Name        string
	Description string
	Value       uint16
}

func (b Bundle) Apply(entry *donburi.Entry) {
	name := b.Name
	if name == "" {
		name = defaultName
	}

	for _, ct := range []component.IComponentType{Item, Description, Value} {
		if !entry.HasComponent(ct) {
			entry.AddComponent(ct)
		}
	}
	Description.SetValue(entry, DescriptionData{Text: b.Description})
	Value.SetValue(entry, ValueData{Amount: b.Value})
	models.SetName(entry, name)
	if !entry.HasComponent(models.Transform) {
		models.SetTransform(entry, models.Identity())
	}
}

// StorageData is the ordered, duplicate free list of items held by a storage.
// Only the transfer commands in this package mutate it.
type StorageData struct {
	items []donburi.Entity
	index map[donburi.Entity]struct{}
}

var Storage = donburi.NewComponentType[StorageData]()

// Items returns a copy of the held items in insertion order.
func (s *StorageData) Items() []donburi.Entity {
	return slices.Clone(s.items)
}

func (s *StorageData) Len() int {
	return len(s.items)
}

func (s *StorageData) Contains(e donburi.Entity) bool {
	_, ok := s.index[e]
	return ok
}

func (s *StorageData) add(e donburi.Entity) {
	if s.index == nil {
		s.index = make(map[donburi.Entity]struct{})
	}
	s.items = append(s.items, e)
	s.index[e] = struct{}{}
}

func (s *StorageData) remove(e donburi.Entity) bool {
	if _, ok := s.index[e]; !ok {
		return false
	}
	delete(s.index, e)
	s.items = slices.DeleteFunc(s.items, func(held donburi.Entity) bool { return held == e })
	return true
}

// AddStorage gives entry an empty storage unless it already has one.
func AddStorage(entry *donburi.Entry) {
	if entry.HasComponent(Storage) {
		return
	}
	entry.AddComponent(Storage)
	Storage.SetValue(entry, StorageData{})
}

func init() {
	models.RegisterDescriber(models.Describer{
		Name:   "Item",
		Type:   Item,
		Format: func(*donburi.Entry) string { return "Item" },
	})
	models.RegisterDescriber(models.Describer{
		Name: "Description",
		Type: Description,
		Format: func(entry *donburi.Entry) string {
			return Description.Get(entry).Text
		},
	})
	models.RegisterDescriber(models.DescribeComponent("Value", Value))
	models.RegisterDescriber(models.Describer{
		Name: "Storage",
		Type: Storage,
		Format: func(entry *donburi.Entry) string {
			held := Storage.Get(entry).items
			out := "["
			for i, e := range held {
				if i > 0 {
					out += ", "
				}
				out += models.FormatEntity(e)
			}
			return out + "]"
		},
	})
}
