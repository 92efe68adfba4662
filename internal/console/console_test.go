package console

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yohamta/donburi"

	assertion "github.com/zeusync/sandbox/internal/core/assert"
	"github.com/zeusync/sandbox/internal/core/character"
	"github.com/zeusync/sandbox/internal/core/command"
	"github.com/zeusync/sandbox/internal/core/item"
	"github.com/zeusync/sandbox/internal/core/models"
	"github.com/zeusync/sandbox/internal/core/observability/log"
	"github.com/zeusync/sandbox/internal/core/prototype"
	"github.com/zeusync/sandbox/internal/core/system"
)

type env struct {
	w       donburi.World
	queue   *command.Queue
	console *Console
	items   *prototype.Registry[prototype.Name]
}

func newEnv(t *testing.T) *env {
	t.Helper()

	items := prototype.NewRegistry[prototype.Name]("item")
	require.NoError(t, items.Register("Sword", item.Bundle{Name: "Sword", Description: "Long steel sword"}))
	require.NoError(t, items.Register("Chestplate", item.Bundle{Name: "Chestplate"}))
	items.Seal()
	parse := prototype.EnumParser[prototype.Name]("item", "Sword", "Chestplate", "Ghost")

	c := New(log.NewNop())
	require.NoError(t, AddRegistryCommands(c, items, parse, RegistryNames{
		List:    "list-items",
		Spawn:   "spawn-item",
		Despawn: "despawn-items",
		Noun:    "an item",
	}))
	require.NoError(t, AddWorldCommands(c))

	return &env{
		w:       donburi.NewWorld(),
		queue:   command.NewQueue(log.NewNop()),
		console: c,
		items:   items,
	}
}

// exec runs line and the following sync point.
func (e *env) exec(line string) []string {
	resp := e.console.Execute(e.w, e.queue, line)
	_ = e.queue.Flush(e.w)
	return resp.Lines()
}

func (e *env) player(at models.TransformData) donburi.Entity {
	entry := e.w.Entry(e.w.Create(character.Character))
	character.Bundle{Role: character.RolePlayer}.Apply(entry)
	models.SetTransform(entry, at)
	return entry.Entity()
}

func (e *env) spawn(id prototype.Name, at models.TransformData) donburi.Entity {
	ent, err := e.items.SpawnAt(e.w, id, at)
	if err != nil {
		panic(err)
	}
	return ent
}

func TestParsePosition(t *testing.T) {
	tests := []struct {
		input string
		want  Position
		err   string
	}{
		{input: "@p", want: Position{AtPlayer: true}},
		{input: "(@P)", want: Position{AtPlayer: true}},
		{input: "1,2", want: Position{Point: mgl32.Vec3{1, 0, 2}}},
		{input: "(1.5,-2)", want: Position{Point: mgl32.Vec3{1.5, 0, -2}}},
		{input: "1,2,3", want: Position{Point: mgl32.Vec3{1, 2, 3}}},
		{input: "1, 2, 3", want: Position{Point: mgl32.Vec3{1, 2, 3}}},
		{input: "1,2,", want: Position{Point: mgl32.Vec3{1, 0, 2}}},
		{input: "a,2", err: "Cannot parse X coordinate. Supported values are (@p), (x,z), (x,y,z)."},
		{input: "", err: "Cannot parse X coordinate. Supported values are (@p), (x,z), (x,y,z)."},
		{input: "1", err: "Cannot parse Y/Z coordinate. Supported values are (@p), (x,z), (x,y,z)."},
		{input: "1,b", err: "Cannot parse Y/Z coordinate. Supported values are (@p), (x,z), (x,y,z)."},
		{input: "1,2,c", err: "Cannot parse Z coordinate. Supported values are (@p), (x,z), (x,y,z)."},
		{input: "1,2,3,4", err: "Cannot parse position, too many coordinates. Supported values are (@p), (x,z), (x,y,z)."},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePosition(tt.input)
			if tt.err != "" {
				require.ErrorIs(t, err, ErrBadPosition)
				assert.Equal(t, tt.err, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnknownCommandAndUsage(t *testing.T) {
	e := newEnv(t)

	assert.Equal(t, []string{"Unknown command 'fly'. Type 'help' for a list of commands."}, e.exec("fly"))
	assert.Empty(t, e.exec("   "))
	assert.Equal(t, []string{"Wrong number of arguments. Usage: spawn-item <id> <position>"}, e.exec("spawn-item Sword"))
	assert.Equal(t, []string{"Unknown flag '--each'. Usage: despawn-items <id> [--all]"}, e.exec("despawn-items Sword --each"))

	help := e.exec("help")
	assert.Contains(t, help, "spawn-item <id> <position> - Spawns new instance of an item in world")
	assert.Contains(t, help, "help - Lists console commands")

	require.ErrorIs(t, e.console.Add(Command{Name: "help"}), ErrCommandExists)
}

func TestSpawnItem(t *testing.T) {
	e := newEnv(t)

	assert.Equal(t, []string{"Sword has been successfully spawned at [3, 0, 4]"}, e.exec("spawn-item Sword 3,4"))
	swords := e.items.Instances(e.w, "Sword")
	require.Len(t, swords, 1)
	assert.Equal(t, models.FromXYZ(3, 0, 4), models.Transform.GetValue(e.w.Entry(swords[0])))

	assert.Equal(t, []string{"Cannot parse id 'Axe'. Supported values are Sword, Chestplate, Ghost."}, e.exec("spawn-item Axe 1,2"))
	before := e.w.Len()
	assert.Equal(t, []string{"Cannot spawn Ghost: prototype is not registered"}, e.exec("spawn-item Ghost 1,2"))
	assert.Equal(t, before, e.w.Len())

	assert.Equal(t,
		[]string{"Cannot parse Z coordinate. Supported values are (@p), (x,z), (x,y,z)."},
		e.exec("spawn-item Sword 1,2,z"))

	assert.Equal(t, []string{"Cannot spawn Chestplate at @p: there is no player"}, e.exec("spawn-item Chestplate @p"))
	e.player(models.FromXYZ(5, 1, 5))
	assert.Equal(t, []string{"Chestplate has been successfully spawned at [5, 1, 5]"}, e.exec("spawn-item Chestplate @p"))
}

func TestListAndDespawnItems(t *testing.T) {
	e := newEnv(t)
	first := e.spawn("Sword", models.Identity())
	second := e.spawn("Sword", models.Identity())
	third := e.spawn("Sword", models.Identity())

	lines := e.exec("list-items Sword")
	assert.Equal(t, []string{
		models.FormatEntity(first) + " - Sword",
		models.FormatEntity(second) + " - Sword",
		models.FormatEntity(third) + " - Sword",
	}, lines)
	assert.Len(t, e.exec("list-items"), 3)
	assert.Equal(t, []string{"No item instances found"}, e.exec("list-items Chestplate"))
	assert.Equal(t, []string{"Cannot parse id 'Axe'. Supported values are Sword, Chestplate, Ghost."}, e.exec("list-items Axe"))

	assert.Equal(t, []string{models.FormatEntity(first) + " has been successfully despawned"}, e.exec("despawn-items Sword"))
	assert.False(t, e.w.Valid(first))
	assert.Len(t, e.exec("despawn-items Sword --all"), 2)
	assert.Empty(t, e.items.Instances(e.w, "Sword"))
	assert.Equal(t, []string{"No instances of Sword found"}, e.exec("despawn-items Sword"))
}

func TestTransferCommands(t *testing.T) {
	e := newEnv(t)
	player := e.player(models.FromXYZ(2, 0, 2))
	sword := e.spawn("Sword", models.FromXYZ(2.5, 0, 2))
	swordRef := models.FormatEntity(sword)
	swordLabel := swordRef + " (Sword)"
	playerLabel := models.FormatEntity(player) + " (Player)"

	assert.Equal(t, []string{playerLabel + " is empty"}, e.exec("inventory"))
	assert.Equal(t, []string{swordLabel + " is World"}, e.exec("state "+swordRef))

	assert.Equal(t, []string{swordLabel + " has been inserted into " + playerLabel}, e.exec("insert-item @p "+swordRef))
	assert.Equal(t, []string{swordLabel}, e.exec("inventory @p"))
	assert.Equal(t, []string{swordLabel + " is Contained in " + playerLabel}, e.exec("state "+swordRef))

	assert.Equal(t, []string{swordLabel + " has been dropped from " + playerLabel}, e.exec("drop-item @p "+swordRef))
	assert.Equal(t, models.FromXYZ(2, 0, 2), models.Transform.GetValue(e.w.Entry(sword)))

	assert.Equal(t, []string{swordLabel + " has been picked up"}, e.exec("pickup"))
	held, _ := item.Contents(e.w, player)
	assert.Equal(t, []donburi.Entity{sword}, held)
	assert.Equal(t, []string{"There is no item within 2 of the player"}, e.exec("pickup"))

	assert.Equal(t, []string{"Cannot parse entity 'sword'"}, e.exec("state sword"))
	assert.Equal(t, []string{"Entity 999999 does not exist"}, e.exec("state 999999"))
	assert.Equal(t, []string{playerLabel + " is not an item"}, e.exec("state @p"))

	describe := e.exec("describe " + swordRef)
	assert.Equal(t, swordLabel, describe[0])
	assert.Contains(t, describe, "  Description: Long steel sword")

	assert.Equal(t, []string{swordRef + " has been successfully despawned"}, e.exec("despawn-entity "+swordRef))
	held, _ = item.Contents(e.w, player)
	assert.Empty(t, held)
}

func TestRefusedTransferIsReplied(t *testing.T) {
	e := newEnv(t)
	player := e.player(models.Identity())
	sword := e.spawn("Sword", models.Identity())
	swordLabel := label(e.w, sword)

	assert.Equal(t,
		[]string{"Cannot drop " + swordLabel + ": item is World, expected Contained"},
		e.exec(fmt.Sprintf("drop-item @p %s", models.FormatEntity(sword))))
	assert.Equal(t,
		[]string{"Cannot move " + swordLabel + ": item is World, expected Contained"},
		e.exec(fmt.Sprintf("move-item @p @p %s", models.FormatEntity(sword))))
	assert.Equal(t,
		[]string{"Cannot insert " + label(e.w, player) + ": entity has no storage"},
		e.exec(fmt.Sprintf("insert-item %s @p", models.FormatEntity(sword))))
	assert.Zero(t, e.queue.Len())

	state, _ := item.StateOf(e.w, sword)
	assert.Equal(t, item.StateWorld, state)
}

func TestRefusedTransferDoesNotPanicThroughScheduler(t *testing.T) {
	e := newEnv(t)
	m := system.NewManager(e.w, e.queue, log.NewNop())
	require.NoError(t, m.Register(e.console.System(), system.StageExclusive))
	m.AfterSync(func(donburi.World) { e.console.Deliver() })
	e.player(models.Identity())
	sword := e.spawn("Sword", models.Identity())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	replies := make(chan []string, 1)
	go func() {
		lines, err := e.console.Submit(ctx, "drop-item @p "+models.FormatEntity(sword))
		assert.NoError(t, err)
		replies <- lines
	}()

	for {
		require.NotPanics(t, func() { _ = m.Update(ctx, time.Millisecond) })
		select {
		case lines := <-replies:
			require.Len(t, lines, 1)
			assert.Contains(t, lines[0], "expected Contained")
			return
		case <-ctx.Done():
			t.Fatal("no reply")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestConflictingTransfersInOneTick(t *testing.T) {
	if assertion.Enabled {
		t.Skip("contract violations panic in assertion builds")
	}

	e := newEnv(t)
	e.player(models.Identity())
	sword := e.spawn("Sword", models.Identity())
	line := "insert-item @p " + models.FormatEntity(sword)

	first := e.console.Execute(e.w, e.queue, line)
	second := e.console.Execute(e.w, e.queue, line)
	_ = e.queue.Flush(e.w)

	require.Len(t, first.Lines(), 1)
	assert.Contains(t, first.Lines()[0], "has been inserted into")
	require.Len(t, second.Lines(), 1)
	assert.Contains(t, second.Lines()[0], "Rejected: item transfer contract violated")
}

func TestSubmitThroughScheduler(t *testing.T) {
	e := newEnv(t)
	m := system.NewManager(e.w, e.queue, log.NewNop())
	require.NoError(t, m.Register(e.console.System(), system.StageExclusive))
	m.AfterSync(func(donburi.World) { e.console.Deliver() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	replies := make(chan []string, 1)
	go func() {
		lines, err := e.console.Submit(ctx, "spawn-item Sword 1,2,3")
		assert.NoError(t, err)
		replies <- lines
	}()

	for {
		require.NoError(t, m.Update(ctx, time.Millisecond))
		select {
		case lines := <-replies:
			assert.Equal(t, []string{"Sword has been successfully spawned at [1, 2, 3]"}, lines)
			assert.Len(t, e.items.Instances(e.w, "Sword"), 1)
			return
		case <-ctx.Done():
			t.Fatal("no reply")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestSubmitAfterClose(t *testing.T) {
	c := New(log.NewNop())
	c.Close()
	_, err := c.Submit(context.Background(), "help")
	require.ErrorIs(t, err, ErrClosed)
}
