package console

import (
	"errors"
	"strconv"

	"github.com/yohamta/donburi"

	"github.com/zeusync/sandbox/internal/core/character"
	"github.com/zeusync/sandbox/internal/core/item"
	"github.com/zeusync/sandbox/internal/core/models"
)

const defaultPickupRadius = 2

// AddWorldCommands adds the entity, storage and transfer commands.
func AddWorldCommands(c *Console) error {
	cmds := []Command{
		{
			Name:  "despawn-entity",
			Usage: "<entity>",
			About: "Despawns entity from a world",
			Args:  1,
			Run:   despawnEntity,
		},
		{
			Name:  "describe",
			Usage: "<entity>",
			About: "Lists the components of an entity",
			Args:  1,
			Run:   describeEntity,
		},
		{
			Name:  "state",
			Usage: "<entity>",
			About: "Shows whether an item is in the world or inside a storage",
			Args:  1,
			Run:   itemState,
		},
		{
			Name:     "inventory",
			Usage:    "[storage]",
			About:    "Lists the items inside a storage, the player's by default",
			Optional: 1,
			Run:      inventory,
		},
		{
			Name:  "insert-item",
			Usage: "<storage> <item>",
			About: "Puts a world item into a storage",
			Args:  2,
			Run:   insertItem,
		},
		{
			Name:  "drop-item",
			Usage: "<storage> <item>",
			About: "Drops an item from a storage at the storage's location",
			Args:  2,
			Run:   dropItem,
		},
		{
			Name:  "move-item",
			Usage: "<from> <to> <item>",
			About: "Moves an item between two storages",
			Args:  3,
			Run:   moveItem,
		},
		{
			Name:     "pickup",
			Usage:    "[radius]",
			About:    "Picks up the nearest world item around the player",
			Optional: 1,
			Run:      pickup,
		},
	}

	for _, cmd := range cmds {
		if err := c.Add(cmd); err != nil {
			return err
		}
	}
	return nil
}

// entityArg resolves an entity argument; "@p" is the player.
func entityArg(call *Call, raw string) (donburi.Entity, bool) {
	if raw == "@p" {
		player, ok := character.FindPlayer(call.World)
		if !ok {
			call.Reply("There is no player")
		}
		return player, ok
	}

	e, err := models.ParseEntity(raw)
	if err != nil {
		call.Reply("Cannot parse entity '%s'", raw)
		return donburi.Null, false
	}
	if _, ok := models.Lookup(call.World, e); !ok {
		call.Reply("Entity %s does not exist", raw)
		return donburi.Null, false
	}
	return e, true
}

func entityArgs(call *Call) ([]donburi.Entity, bool) {
	out := make([]donburi.Entity, 0, len(call.Args))
	for _, raw := range call.Args {
		e, ok := entityArg(call, raw)
		if !ok {
			return nil, false
		}
		out = append(out, e)
	}
	return out, true
}

func label(w donburi.World, e donburi.Entity) string {
	entry, ok := models.Lookup(w, e)
	if !ok {
		return models.FormatEntity(e)
	}
	return models.FormatEntity(e) + " (" + models.DisplayName(entry) + ")"
}

func despawnEntity(call *Call) {
	e, ok := entityArg(call, call.Arg(0))
	if !ok {
		return
	}
	call.Defer(item.Despawn{Entity: e}, models.FormatEntity(e)+" has been successfully despawned")
}

func describeEntity(call *Call) {
	e, ok := entityArg(call, call.Arg(0))
	if !ok {
		return
	}
	call.Reply("%s", label(call.World, e))
	for _, line := range models.Describe(call.World.Entry(e)) {
		call.Reply("  %s", line)
	}
}

func itemState(call *Call) {
	e, ok := entityArg(call, call.Arg(0))
	if !ok {
		return
	}
	state, ok := item.StateOf(call.World, e)
	if !ok {
		call.Reply("%s is not an item", label(call.World, e))
		return
	}
	if container, ok := item.ContainerOf(call.World, e); ok {
		call.Reply("%s is %s in %s", label(call.World, e), state, label(call.World, container))
		return
	}
	call.Reply("%s is %s", label(call.World, e), state)
}

func inventory(call *Call) {
	raw := call.Arg(0)
	if raw == "" {
		raw = "@p"
	}
	s, ok := entityArg(call, raw)
	if !ok {
		return
	}
	held, ok := item.Contents(call.World, s)
	if !ok {
		call.Reply("%s is not a storage", label(call.World, s))
		return
	}
	if len(held) == 0 {
		call.Reply("%s is empty", label(call.World, s))
		return
	}
	for _, e := range held {
		call.Reply("%s", label(call.World, e))
	}
}

func insertItem(call *Call) {
	es, ok := entityArgs(call)
	if !ok {
		return
	}
	storage, it := es[0], es[1]
	if refused(call, item.CheckInsert(call.World, storage, it)) {
		return
	}
	call.Defer(item.Insert{Storage: storage, Item: it},
		label(call.World, it)+" has been inserted into "+label(call.World, storage))
}

func dropItem(call *Call) {
	es, ok := entityArgs(call)
	if !ok {
		return
	}
	storage, it := es[0], es[1]
	if refused(call, item.CheckDrop(call.World, storage, it)) {
		return
	}
	call.Defer(item.Drop{Storage: storage, Item: it},
		label(call.World, it)+" has been dropped from "+label(call.World, storage))
}

func moveItem(call *Call) {
	es, ok := entityArgs(call)
	if !ok {
		return
	}
	from, to, it := es[0], es[1], es[2]
	if refused(call, item.CheckMove(call.World, from, to, it)) {
		return
	}
	call.Defer(item.Move{From: from, To: to, Item: it},
		label(call.World, it)+" has been moved to "+label(call.World, to))
}

func pickup(call *Call) {
	radius := float32(defaultPickupRadius)
	if raw := call.Arg(0); raw != "" {
		r, err := strconv.ParseFloat(raw, 32)
		if err != nil || r <= 0 {
			call.Reply("Cannot parse radius '%s', expected a positive number", raw)
			return
		}
		radius = float32(r)
	}

	player, ok := character.FindPlayer(call.World)
	if !ok {
		call.Reply("There is no player")
		return
	}
	position, _ := character.PlayerPosition(call.World)

	found, ok := item.Nearest(call.World, position, radius)
	if !ok {
		call.Reply("There is no item within %g of the player", radius)
		return
	}
	if refused(call, item.CheckInsert(call.World, player, found)) {
		return
	}
	call.Defer(item.Insert{Storage: player, Item: found}, label(call.World, found)+" has been picked up")
}

// refused replies with the reason a transfer cannot run and reports whether
// it did. Checked transfers are still deferred, so a conflicting line in the
// same tick ends up as a "Rejected" reply.
func refused(call *Call, err error) bool {
	if err == nil {
		return false
	}
	var contract *item.ContractError
	if errors.As(err, &contract) {
		call.Reply("Cannot %s %s: %s", contract.Op, label(call.World, contract.Item), contract.Reason)
	} else {
		call.Reply("%s", capitalize(err.Error()))
	}
	return true
}
