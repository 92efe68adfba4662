package item

import (
	"errors"
	"sync/atomic"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"
	"go.uber.org/multierr"

	"github.com/zeusync/sandbox/internal/core/models"
	"github.com/zeusync/sandbox/internal/core/observability/log"
)

// ViolationKind classifies a broken item invariant.
type ViolationKind uint8

const (
	// KindNoState is an item with neither a Transform nor a Parent.
	KindNoState ViolationKind = iota + 1
	// KindUnlisted is a contained item its parent storage does not list.
	KindUnlisted
	// KindOrphaned is a contained item whose parent is dead or holds no storage.
	KindOrphaned
	// KindDangling is a storage entry that is not a contained item parented to the storage.
	KindDangling
)

func (k ViolationKind) String() string {
	switch k {
	case KindNoState:
		return "no-state"
	case KindUnlisted:
		return "unlisted"
	case KindOrphaned:
		return "orphaned"
	case KindDangling:
		return "dangling"
	default:
		return "unknown"
	}
}

// Violation is one corrupt entity found by the auditor.
type Violation struct {
	Entity     donburi.Entity
	Name       string
	Kind       ViolationKind
	Detail     string
	Components []string
}

var (
	itemQuery    = donburi.NewQuery(filter.Contains(Item))
	storageQuery = donburi.NewQuery(filter.Contains(Storage))
)

// Auditor scans the world for items breaking the state and containment
// invariants. It only reports; repairing is left to the caller.
type Auditor struct {
	logger   log.Log
	found    atomic.Uint64
	rejected atomic.Uint64
}

func NewAuditor(logger log.Log) *Auditor {
	return &Auditor{logger: logger.With(log.String("component", "item-auditor"))}
}

// Audit must run while no command is being applied.
func (a *Auditor) Audit(w donburi.World) []Violation {
	var found []Violation

	report := func(entry *donburi.Entry, kind ViolationKind, detail string) {
		v := Violation{
			Entity:     entry.Entity(),
			Name:       models.DisplayName(entry),
			Kind:       kind,
			Detail:     detail,
			Components: models.Describe(entry),
		}
		found = append(found, v)
		a.logger.Error("Item is in invalid state, entity components are listed",
			log.Entity("entity", v.Entity),
			log.String("name", v.Name),
			log.Stringer("kind", v.Kind),
			log.String("detail", v.Detail),
			log.Strings("components", v.Components),
		)
	}

	itemQuery.Each(w, func(entry *donburi.Entry) {
		switch stateOf(entry) {
		case StateInvalid:
			report(entry, KindNoState, "item has neither a transform nor a parent")
		case StateContained:
			parent, _ := models.ParentOf(entry)
			storageEntry, ok := models.Lookup(w, parent)
			if !ok || !IsStorage(storageEntry) {
				report(entry, KindOrphaned, "parent "+models.FormatEntity(parent)+" is not a live storage")
				return
			}
			if !Storage.Get(storageEntry).Contains(entry.Entity()) {
				report(entry, KindUnlisted, "storage "+models.FormatEntity(parent)+" does not list the item")
			}
		}
	})

	storageQuery.Each(w, func(storageEntry *donburi.Entry) {
		for _, held := range Storage.Get(storageEntry).items {
			itemEntry, ok := models.Lookup(w, held)
			if !ok {
				report(storageEntry, KindDangling, "lists dead entity "+models.FormatEntity(held))
				continue
			}
			parent, hasParent := models.ParentOf(itemEntry)
			if !IsItem(itemEntry) || stateOf(itemEntry) != StateContained || !hasParent || parent != storageEntry.Entity() {
				report(storageEntry, KindDangling, "lists "+models.FormatEntity(held)+" which is not contained here")
			}
		}
	})

	a.found.Add(uint64(len(found)))
	return found
}

// Report records the contract violations among err, typically the error
// returned by a command queue flush. Other errors are ignored.
func (a *Auditor) Report(err error) {
	for _, e := range multierr.Errors(err) {
		var contract *ContractError
		if !errors.As(e, &contract) {
			continue
		}
		a.rejected.Add(1)
		a.logger.Warn("Item transfer rejected",
			log.String("op", contract.Op),
			log.Entity("storage", contract.Storage),
			log.Entity("item", contract.Item),
			log.String("reason", contract.Reason),
		)
	}
}

// Found is the total number of violations reported by Audit.
func (a *Auditor) Found() uint64 {
	return a.found.Load()
}

// Rejected is the total number of transfers reported through Report.
func (a *Auditor) Rejected() uint64 {
	return a.rejected.Load()
}
