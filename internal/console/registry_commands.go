package console

import (
	"errors"
	"strings"

	"github.com/yohamta/donburi"

	"github.com/zeusync/sandbox/internal/core/character"
	"github.com/zeusync/sandbox/internal/core/item"
	"github.com/zeusync/sandbox/internal/core/models"
	"github.com/zeusync/sandbox/internal/core/prototype"
)

// RegistryNames are the verbs and wording used for one registry.
type RegistryNames struct {
	List    string
	Spawn   string
	Despawn string
	// Noun is "an item", "a character"...
	Noun string
}

// AddRegistryCommands adds the list, spawn and despawn commands of reg.
func AddRegistryCommands[T prototype.Identifier](c *Console, reg *prototype.Registry[T], parse prototype.Parser[T], names RegistryNames) error {
	cmds := []Command{
		{
			Name:     names.List,
			Usage:    "[id]",
			About:    "Lists instances of " + names.Noun + " in a world",
			Optional: 1,
			Run: func(call *Call) {
				listInstances(call, reg, parse)
			},
		},
		{
			Name:  names.Spawn,
			Usage: "<id> <position>",
			About: "Spawns new instance of " + names.Noun + " in world",
			Args:  2,
			Run: func(call *Call) {
				spawnInstance(call, reg, parse)
			},
		},
		{
			Name:  names.Despawn,
			Usage: "<id> [--all]",
			About: "Despawns instances of " + names.Noun + " from a world",
			Args:  1,
			Flags: []string{"all"},
			Run: func(call *Call) {
				despawnInstances(call, reg, parse)
			},
		},
	}

	for _, cmd := range cmds {
		if err := c.Add(cmd); err != nil {
			return err
		}
	}
	return nil
}

func listInstances[T prototype.Identifier](call *Call, reg *prototype.Registry[T], parse prototype.Parser[T]) {
	filter := func(T) bool { return true }
	if raw := call.Arg(0); raw != "" {
		id, err := parse(raw)
		if err != nil {
			replyParseID(call, raw, err)
			return
		}
		filter = func(got T) bool { return got == id }
	}

	found := 0
	reg.Each(call.World, func(entry *donburi.Entry, id T) {
		if !filter(id) {
			return
		}
		found++
		call.Reply("%s - %s", models.FormatEntity(entry.Entity()), models.DisplayName(entry))
	})
	if found == 0 {
		call.Reply("No %s instances found", reg.Kind())
	}
}

func spawnInstance[T prototype.Identifier](call *Call, reg *prototype.Registry[T], parse prototype.Parser[T]) {
	id, err := parse(call.Arg(0))
	if err != nil {
		replyParseID(call, call.Arg(0), err)
		return
	}
	if _, ok := reg.Lookup(id); !ok {
		call.Reply("Cannot spawn %s: %v", id, prototype.ErrNotRegistered)
		return
	}

	position, err := ParsePosition(call.Arg(1))
	if err != nil {
		call.Reply("%v", err)
		return
	}

	point := position.Point
	if position.AtPlayer {
		var ok bool
		if point, ok = character.PlayerPosition(call.World); !ok {
			call.Reply("Cannot spawn %s at @p: there is no player", id)
			return
		}
	}

	placement := models.FromTranslation(point)
	call.Defer(spawnCommand[T]{reg: reg, id: id, placement: placement},
		id.String()+" has been successfully spawned at "+models.FormatVec3(point))
}

func despawnInstances[T prototype.Identifier](call *Call, reg *prototype.Registry[T], parse prototype.Parser[T]) {
	id, err := parse(call.Arg(0))
	if err != nil {
		replyParseID(call, call.Arg(0), err)
		return
	}

	instances := reg.Instances(call.World, id)
	if len(instances) == 0 {
		call.Reply("No instances of %s found", id)
		return
	}
	if !call.Flags["all"] {
		instances = instances[:1]
	}
	for _, e := range instances {
		call.Defer(item.Despawn{Entity: e}, models.FormatEntity(e)+" has been successfully despawned")
	}
}

func replyParseID(call *Call, raw string, err error) {
	var parseErr *prototype.ParseError
	if errors.As(err, &parseErr) {
		call.Reply("Cannot parse id '%s'. Supported values are %s.", raw, strings.Join(parseErr.Accepted, ", "))
		return
	}
	call.Reply("Cannot parse id '%s': %v", raw, err)
}

type spawnCommand[T prototype.Identifier] struct {
	reg       *prototype.Registry[T]
	id        T
	placement models.TransformData
}

func (c spawnCommand[T]) Apply(w donburi.World) error {
	_, err := c.reg.SpawnAt(w, c.id, c.placement)
	return err
}
