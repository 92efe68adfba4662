package game

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yohamta/donburi"

	"github.com/zeusync/sandbox/internal/core/character"
	"github.com/zeusync/sandbox/internal/core/command"
	"github.com/zeusync/sandbox/internal/core/item"
	"github.com/zeusync/sandbox/internal/core/models"
	"github.com/zeusync/sandbox/internal/core/observability/log"
	"github.com/zeusync/sandbox/internal/core/prototype"
)

func TestIdentifiersRoundTrip(t *testing.T) {
	for _, id := range ItemIDs {
		assert.True(t, prototype.RoundTrips(ParseItemID, id), id.String())
	}
	for _, id := range CharacterIDs {
		assert.True(t, prototype.RoundTrips(ParseCharacterID, id), id.String())
	}

	_, err := ParseItemID("LongSword")
	require.ErrorIs(t, err, prototype.ErrParse)
	assert.Equal(t, "ItemID(9)", ItemID(9).String())
}

func TestDefaultRegistries(t *testing.T) {
	regs, err := DefaultRegistries()
	require.NoError(t, err)

	assert.True(t, regs.Items.Sealed())
	assert.True(t, regs.Characters.Sealed())
	assert.Equal(t, ItemIDs, regs.Items.IDs())
	assert.Equal(t, CharacterIDs, regs.Characters.IDs())

	w := donburi.NewWorld()
	sword, err := regs.Items.Spawn(w, Sword)
	require.NoError(t, err)
	entry := w.Entry(sword)
	assert.Equal(t, "Sword", models.DisplayName(entry))
	assert.Equal(t, "Long steel sword", item.Description.Get(entry).Text)

	enemy, err := regs.Characters.Spawn(w, Enemy)
	require.NoError(t, err)
	entry = w.Entry(enemy)
	assert.True(t, entry.HasComponent(character.Npc))
	assert.Equal(t, character.HealthData{Current: 50, Max: 50}, character.Health.GetValue(entry))
	assert.True(t, item.IsStorage(entry))
}

func TestLoadCatalogRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "unknown field", doc: "items:\n  - id: Sword\n    weight: 3\n"},
		{name: "missing id", doc: "items:\n  - name: Sword\n"},
		{name: "bad role", doc: "characters:\n  - id: Player\n    role: boss\n"},
		{name: "negative value", doc: "items:\n  - id: Sword\n    value: -1\n"},
		{name: "not a mapping", doc: "- Sword\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCatalog(strings.NewReader(tt.doc))
			require.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}

func TestBuildRegistries(t *testing.T) {
	c, err := LoadCatalog(strings.NewReader("items:\n  - id: Sword\n"))
	require.NoError(t, err)
	regs, err := BuildRegistries(c)
	require.NoError(t, err)

	_, ok := regs.Items.Lookup(Chestplate)
	assert.False(t, ok)
	_, err = regs.Items.Spawn(donburi.NewWorld(), Chestplate)
	require.ErrorIs(t, err, prototype.ErrNotRegistered)

	c, err = LoadCatalog(strings.NewReader("items:\n  - id: Axe\n"))
	require.NoError(t, err)
	_, err = BuildRegistries(c)
	require.ErrorIs(t, err, ErrInvalidCatalog)

	c, err = LoadCatalog(strings.NewReader("characters:\n  - id: Enemy\n  - id: Enemy\n"))
	require.NoError(t, err)
	_, err = BuildRegistries(c)
	require.ErrorIs(t, err, ErrDuplicateID)
}

func TestSetup(t *testing.T) {
	regs, err := DefaultRegistries()
	require.NoError(t, err)
	w := donburi.NewWorld()
	queue := command.NewQueue(log.NewNop())

	out, err := Setup(w, regs, queue, Layout{EnemyGrid: 2, Seed: 7})
	require.NoError(t, err)

	state, _ := item.StateOf(w, out.Sword)
	assert.Equal(t, item.StateWorld, state, "insert is deferred")
	require.NoError(t, queue.Flush(w))

	held, ok := item.Contents(w, out.Player)
	require.True(t, ok)
	assert.Equal(t, []donburi.Entity{out.Sword}, held)

	assert.Equal(t, ChestplatePlacement, models.Transform.GetValue(w.Entry(out.Chestplate)))
	player, ok := character.FindPlayer(w)
	require.True(t, ok)
	assert.Equal(t, out.Player, player)

	require.Len(t, out.Enemies, 4)
	assert.ElementsMatch(t, out.Enemies, regs.Characters.Instances(w, Enemy))
	for _, e := range out.Enemies {
		speed := character.Speed.GetValue(w.Entry(e)).Value
		assert.GreaterOrEqual(t, speed, float32(minEnemySpeed))
		assert.Less(t, speed, float32(maxEnemySpeed))
	}
	first := models.Transform.GetValue(w.Entry(out.Enemies[0])).Translation
	assert.InDelta(t, -5, first.X(), 1e-6)
	assert.InDelta(t, 70, first.Z(), 1e-6)
}

func TestSetupWithoutPlayerTemplate(t *testing.T) {
	c, err := LoadCatalog(strings.NewReader("items:\n  - id: Sword\n"))
	require.NoError(t, err)
	regs, err := BuildRegistries(c)
	require.NoError(t, err)

	w := donburi.NewWorld()
	_, err = Setup(w, regs, command.NewQueue(log.NewNop()), Layout{})
	require.ErrorIs(t, err, prototype.ErrNotRegistered)
	assert.Equal(t, 0, w.Len())
}
