package models

import (
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"
)

// ParentData links an entity to its parent.
type ParentData struct {
	Entity donburi.Entity
}

var Parent = donburi.NewComponentType[ParentData]()

var childQuery = donburi.NewQuery(filter.Contains(Parent))

func ParentOf(entry *donburi.Entry) (donburi.Entity, bool) {
	if entry == nil || !entry.HasComponent(Parent) {
		return donburi.Null, false
	}
	return Parent.Get(entry).Entity, true
}

// SetParent adds or replaces the parent link.
func SetParent(entry *donburi.Entry, parent donburi.Entity) {
	if !entry.HasComponent(Parent) {
		entry.AddComponent(Parent)
	}
	Parent.SetValue(entry, ParentData{Entity: parent})
}

func RemoveParent(entry *donburi.Entry) {
	if entry.HasComponent(Parent) {
		entry.RemoveComponent(Parent)
	}
}

// ChildrenOf lists every live entity whose parent link points at parent.
// The scan is linear in the number of parented entities.
func ChildrenOf(w donburi.World, parent donburi.Entity) []donburi.Entity {
	var children []donburi.Entity
	childQuery.Each(w, func(entry *donburi.Entry) {
		if Parent.Get(entry).Entity == parent {
			children = append(children, entry.Entity())
		}
	})
	return children
}

// IsAncestor reports whether ancestor appears on e's parent chain.
func IsAncestor(w donburi.World, ancestor, e donburi.Entity) bool {
	entry, ok := Lookup(w, e)
	for depth := 0; ok && depth < maxHierarchyDepth; depth++ {
		parent, hasParent := ParentOf(entry)
		if !hasParent {
			return false
		}
		if parent == ancestor {
			return true
		}
		entry, ok = Lookup(w, parent)
	}
	return false
}
