package game

import (
	"fmt"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/yohamta/donburi"

	"github.com/zeusync/sandbox/internal/core/character"
	"github.com/zeusync/sandbox/internal/core/command"
	"github.com/zeusync/sandbox/internal/core/item"
	"github.com/zeusync/sandbox/internal/core/models"
)

const (
	enemySpacing  = 5
	enemyRowStart = 75
	minEnemySpeed = 3
	maxEnemySpeed = 10
)

var ChestplatePlacement = models.FromXYZ(-10, 0, 2.5)

// Layout configures the startup world.
type Layout struct {
	// EnemyGrid spawns an EnemyGrid x EnemyGrid block of enemies north of the origin.
	EnemyGrid int
	Seed      uint64
}

// World lists what Setup spawned.
type World struct {
	Player     donburi.Entity
	Sword      donburi.Entity
	Chestplate donburi.Entity
	Enemies    []donburi.Entity
}

// Setup spawns the startup content. The sword is handed to the player through
// queue, so it is Contained only after the next flush.
func Setup(w donburi.World, regs *Registries, queue *command.Queue, layout Layout) (World, error) {
	var out World
	var err error

	if out.Player, err = regs.Characters.Spawn(w, Player); err != nil {
		return World{}, fmt.Errorf("spawn player: %w", err)
	}
	if out.Sword, err = regs.Items.SpawnAt(w, Sword, models.Identity()); err != nil {
		return World{}, fmt.Errorf("spawn sword: %w", err)
	}
	queue.Push(item.Insert{Storage: out.Player, Item: out.Sword})

	if out.Chestplate, err = regs.Items.SpawnAt(w, Chestplate, ChestplatePlacement); err != nil {
		return World{}, fmt.Errorf("spawn chestplate: %w", err)
	}

	if layout.EnemyGrid > 0 {
		rng := rand.New(rand.NewPCG(layout.Seed, layout.Seed^0x9e3779b97f4a7c15))
		half := layout.EnemyGrid / 2
		for x := 0; x < layout.EnemyGrid; x++ {
			for z := 0; z < layout.EnemyGrid; z++ {
				at := models.FromTranslation(mgl32.Vec3{
					float32((x - half) * enemySpacing),
					0,
					float32(enemyRowStart + (z-half)*enemySpacing),
				})
				enemy, err := regs.Characters.SpawnAt(w, Enemy, at)
				if err != nil {
					return World{}, fmt.Errorf("spawn enemy: %w", err)
				}
				speed := minEnemySpeed + rng.Float32()*(maxEnemySpeed-minEnemySpeed)
				character.Speed.SetValue(w.Entry(enemy), character.SpeedData{Value: speed})
				out.Enemies = append(out.Enemies, enemy)
			}
		}
	}

	return out, nil
}
