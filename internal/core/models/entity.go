// Package models holds the components shared by every part of the sandbox:
// entity names, spatial placement and parent links, plus helpers to print
// and parse entity handles.
package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yohamta/donburi"
)

// NameData is the human readable name of an entity.
type NameData struct {
	Value string
}

var Name = donburi.NewComponentType[NameData]()

// NameOf returns the entity name, or "" when the entity has none.
func NameOf(entry *donburi.Entry) (string, bool) {
	if entry == nil || !entry.HasComponent(Name) {
		return "", false
	}
	return Name.Get(entry).Value, true
}

// DisplayName returns the entity name or "<None>".
func DisplayName(entry *donburi.Entry) string {
	if name, ok := NameOf(entry); ok {
		return name
	}
	return "<None>"
}

// SetName adds or replaces the Name component.
func SetName(entry *donburi.Entry, name string) {
	if !entry.HasComponent(Name) {
		entry.AddComponent(Name)
	}
	Name.SetValue(entry, NameData{Value: name})
}

// FormatEntity renders an entity handle the way the console prints it:
// "id" for a first generation entity, "id:version" once its id was reused.
func FormatEntity(e donburi.Entity) string {
	if e == donburi.Null {
		return "0"
	}
	id := strconv.FormatUint(uint64(e.Id()), 10)
	if e.Version() == 0 {
		return id
	}
	return id + ":" + strconv.FormatUint(uint64(e.Version()), 10)
}

// ParseEntity is the inverse of FormatEntity. A leading '#' is accepted.
func ParseEntity(s string) (donburi.Entity, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	rawID, rawVersion, hasVersion := strings.Cut(s, ":")

	id, err := strconv.ParseUint(rawID, 10, 32)
	if err != nil {
		return donburi.Null, fmt.Errorf("cannot parse entity %q: expected id or id:version", s)
	}
	var version uint64
	if hasVersion {
		if version, err = strconv.ParseUint(rawVersion, 10, 24); err != nil {
			return donburi.Null, fmt.Errorf("cannot parse entity %q: expected id or id:version", s)
		}
	}
	if id == 0 && version == 0 {
		return donburi.Null, nil
	}
	// live handles always carry donburi's ready bit
	return donburi.Entity(id<<32 | version).Ready(), nil
}

// Lookup returns the entry of e if e is alive in w.
func Lookup(w donburi.World, e donburi.Entity) (*donburi.Entry, bool) {
	if e == donburi.Null || !w.Valid(e) {
		return nil, false
	}
	return w.Entry(e), true
}
