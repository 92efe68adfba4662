package prototype

import (
	"fmt"
	"sync/atomic"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"

	"github.com/zeusync/sandbox/internal/core/models"
)

// Instance tags every entity spawned by a registry with the identifier it
// was spawned from.
type Instance[T Identifier] struct {
	ID T
}

// Registry maps identifiers to templates and is the only way tagged
// instances come into existence.
//
// Register is for the build phase. Once Seal is called the registry is
// read-only and may be shared by any number of concurrent readers; Spawn
// itself mutates the world and therefore runs where structural changes
// are allowed (exclusive systems, setup, command application).
type Registry[T Identifier] struct {
	kind      string
	templates map[T]Template
	order     []T
	sealed    atomic.Bool

	instance *donburi.ComponentType[Instance[T]]
	query    *donburi.Query
	index    *instanceIndex[T]
}

// NewRegistry creates an empty registry. kind names what it spawns
// ("item", "character") in logs, errors and component dumps.
func NewRegistry[T Identifier](kind string) *Registry[T] {
	instance := donburi.NewComponentType[Instance[T]]()
	r := &Registry[T]{
		kind:      kind,
		templates: make(map[T]Template),
		instance:  instance,
		query:     donburi.NewQuery(filter.Contains(instance)),
		index:     newInstanceIndex[T](defaultShardCount),
	}

	models.RegisterDescriber(models.Describer{
		Name: "Instance[" + kind + "]",
		Type: instance,
		Format: func(entry *donburi.Entry) string {
			return instance.Get(entry).ID.String()
		},
	})

	return r
}

func (r *Registry[T]) Kind() string {
	return r.kind
}

// Register inserts or replaces the template stored under id.
func (r *Registry[T]) Register(id T, template Template) error {
	if r.sealed.Load() {
		return fmt.Errorf("%w: cannot register %s %q", ErrRegistrySealed, r.kind, id)
	}
	if template == nil {
		return fmt.Errorf("%w: %s %q", ErrNilTemplate, r.kind, id)
	}
	if _, exists := r.templates[id]; !exists {
		r.order = append(r.order, id)
	}
	r.templates[id] = template
	return nil
}

// Seal ends the build phase. It is idempotent.
func (r *Registry[T]) Seal() {
	r.sealed.Store(true)
}

func (r *Registry[T]) Sealed() bool {
	return r.sealed.Load()
}

func (r *Registry[T]) Lookup(id T) (Template, bool) {
	t, ok := r.templates[id]
	return t, ok
}

// IDs lists the registered identifiers in registration order.
func (r *Registry[T]) IDs() []T {
	out := make([]T, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry[T]) Len() int {
	return len(r.templates)
}

// InstanceType exposes the Instance component so callers can build queries on it.
func (r *Registry[T]) InstanceType() *donburi.ComponentType[Instance[T]] {
	return r.instance
}

// Spawn creates a new entity from the template registered under id and tags
// it with id. An unknown id is reported as ErrNotRegistered and creates nothing.
func (r *Registry[T]) Spawn(w donburi.World, id T) (donburi.Entity, error) {
	template, ok := r.templates[id]
	if !ok {
		return donburi.Null, fmt.Errorf("%w: %s %q", ErrNotRegistered, r.kind, id)
	}

	e := w.Create(r.instance)
	entry := w.Entry(e)
	r.instance.SetValue(entry, Instance[T]{ID: id})
	template.Apply(entry)

	r.index.add(id, e)
	return e, nil
}

// SpawnAt spawns id and sets its spatial placement to exactly placement.
func (r *Registry[T]) SpawnAt(w donburi.World, id T, placement models.TransformData) (donburi.Entity, error) {
	e, err := r.Spawn(w, id)
	if err != nil {
		return donburi.Null, err
	}
	models.SetTransform(w.Entry(e), placement)
	return e, nil
}

// MustSpawn panics when id is not registered. It is meant for startup
// content whose identifiers are compile-time constants; anything reachable
// from user input goes through Spawn.
func (r *Registry[T]) MustSpawn(w donburi.World, id T) donburi.Entity {
	e, err := r.Spawn(w, id)
	if err != nil {
		panic(err)
	}
	return e
}

// InstanceOf reports the identifier entry was spawned from.
func (r *Registry[T]) InstanceOf(entry *donburi.Entry) (T, bool) {
	if entry == nil || !entry.Valid() || !entry.HasComponent(r.instance) {
		var zero T
		return zero, false
	}
	return r.instance.Get(entry).ID, true
}

// Instances returns the live entities spawned from id, oldest first.
func (r *Registry[T]) Instances(w donburi.World, id T) []donburi.Entity {
	return r.index.live(id, func(e donburi.Entity) bool {
		entry, ok := models.Lookup(w, e)
		if !ok {
			return false
		}
		got, ok := r.InstanceOf(entry)
		return ok && got == id
	})
}

// All returns every live entity carrying this registry's Instance tag.
func (r *Registry[T]) All(w donburi.World) []donburi.Entity {
	var out []donburi.Entity
	r.query.Each(w, func(entry *donburi.Entry) {
		out = append(out, entry.Entity())
	})
	return out
}

// Each calls fn for every live instance together with its identifier.
func (r *Registry[T]) Each(w donburi.World, fn func(entry *donburi.Entry, id T)) {
	r.query.Each(w, func(entry *donburi.Entry) {
		fn(entry, r.instance.Get(entry).ID)
	})
}
