package models

import (
	"fmt"
	"sync"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/component"
)

// Describer renders one component of an entry for diagnostics.
type Describer struct {
	Name   string
	Type   component.IComponentType
	Format func(entry *donburi.Entry) string
}

var (
	describersMu sync.RWMutex
	describers   []Describer
)

// DescribeComponent builds a Describer that prints the component value with %+v.
func DescribeComponent[T any](name string, ct *donburi.ComponentType[T]) Describer {
	return Describer{
		Name: name,
		Type: ct,
		Format: func(entry *donburi.Entry) string {
			return fmt.Sprintf("%+v", *ct.Get(entry))
		},
	}
}

// RegisterDescriber makes a component visible to Describe.
// Packages owning components register them from init.
func RegisterDescriber(d Describer) {
	describersMu.Lock()
	defer describersMu.Unlock()
	describers = append(describers, d)
}

// Describe dumps every registered component present on entry as "Name: value".
func Describe(entry *donburi.Entry) []string {
	describersMu.RLock()
	defer describersMu.RUnlock()

	out := make([]string, 0, len(describers))
	for _, d := range describers {
		if !entry.HasComponent(d.Type) {
			continue
		}
		out = append(out, d.Name+": "+d.Format(entry))
	}
	return out
}

func init() {
	RegisterDescriber(Describer{
		Name: "Name",
		Type: Name,
		Format: func(entry *donburi.Entry) string {
			return Name.Get(entry).Value
		},
	})
	RegisterDescriber(Describer{
		Name: "Transform",
		Type: Transform,
		Format: func(entry *donburi.Entry) string {
			return Transform.Get(entry).String()
		},
	})
	RegisterDescriber(Describer{
		Name: "Parent",
		Type: Parent,
		Format: func(entry *donburi.Entry) string {
			return FormatEntity(Parent.Get(entry).Entity)
		},
	})
}
