package prototype

import "github.com/yohamta/donburi"

// Template is the capability to dress a freshly created entity with a
// pre-configured set of components. Templates are immutable once
// registered; Apply must add fresh copies of its components every call.
type Template interface {
	Apply(entry *donburi.Entry)
}

// TemplateFunc adapts a function into a Template.
type TemplateFunc func(entry *donburi.Entry)

func (f TemplateFunc) Apply(entry *donburi.Entry) {
	f(entry)
}

// Setter adds a single component value to an entry.
type Setter func(entry *donburi.Entry)

// With returns a Setter that adds ct holding value. The value is copied on
// every Apply, so reference fields inside it are shared between spawns.
func With[T any](ct *donburi.ComponentType[T], value T) Setter {
	return func(entry *donburi.Entry) {
		if !entry.HasComponent(ct) {
			entry.AddComponent(ct)
		}
		ct.SetValue(entry, value)
	}
}

// Bundle is a Template made of component setters applied in order.
type Bundle []Setter

func (b Bundle) Apply(entry *donburi.Entry) {
	for _, set := range b {
		set(entry)
	}
}
