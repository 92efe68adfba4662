// Package character holds the components shared by the player and NPCs.
// Every character carries a transform and an item storage.
package character

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"

	"github.com/zeusync/sandbox/internal/core/item"
	"github.com/zeusync/sandbox/internal/core/models"
)

const (
	DefaultHealth uint16  = 100
	DefaultSpeed  float32 = 5
)

type CharacterData struct{}

var Character = donburi.NewComponentType[CharacterData]()

type PlayerData struct{}

var Player = donburi.NewComponentType[PlayerData]()

type HealthData struct {
	Current uint16
	Max     uint16
}

var Health = donburi.NewComponentType[HealthData]()

type SpeedData struct {
	Value float32
}

var Speed = donburi.NewComponentType[SpeedData]()

// Role selects the extra components a character spawns with.
type Role uint8

const (
	RoleNone Role = iota
	RolePlayer
	RoleNpc
)

// Bundle is the template of a character. Zero fields take defaults.
type Bundle struct {
	Name   string
	Role   Role
	Health uint16
	Speed  float32
}

func (b Bundle) Apply(entry *donburi.Entry) {
	health := b.Health
	if health == 0 {
		health = DefaultHealth
	}
	speed := b.Speed
	if speed == 0 {
		speed = DefaultSpeed
	}

	add(entry, Character)
	add(entry, Health)
	add(entry, Speed)
	Health.SetValue(entry, HealthData{Current: health, Max: health})
	Speed.SetValue(entry, SpeedData{Value: speed})
	item.AddStorage(entry)
	if !entry.HasComponent(models.Transform) {
		models.SetTransform(entry, models.Identity())
	}

	name := b.Name
	switch b.Role {
	case RolePlayer:
		add(entry, Player)
		if name == "" {
			name = "Player"
		}
	case RoleNpc:
		add(entry, Npc)
		Npc.SetValue(entry, NewIdle(initialIdleSeconds))
		if name == "" {
			name = "NPC"
		}
	}
	if name == "" {
		name = "Character"
	}
	models.SetName(entry, name)
}

func add[T any](entry *donburi.Entry, ct *donburi.ComponentType[T]) {
	if !entry.HasComponent(ct) {
		entry.AddComponent(ct)
	}
}

var playerQuery = donburi.NewQuery(filter.Contains(Player, models.Transform))

// FindPlayer returns the first player in the world.
func FindPlayer(w donburi.World) (donburi.Entity, bool) {
	entry, ok := playerQuery.First(w)
	if !ok {
		return donburi.Null, false
	}
	return entry.Entity(), true
}

// PlayerPosition is the world-space translation of the player.
func PlayerPosition(w donburi.World) (mgl32.Vec3, bool) {
	player, ok := FindPlayer(w)
	if !ok {
		return mgl32.Vec3{}, false
	}
	global, ok := models.GlobalTransform(w, player)
	if !ok {
		return mgl32.Vec3{}, false
	}
	return global.Translation, true
}

func init() {
	models.RegisterDescriber(models.Describer{
		Name:   "Character",
		Type:   Character,
		Format: func(*donburi.Entry) string { return "Character" },
	})
	models.RegisterDescriber(models.Describer{
		Name:   "Player",
		Type:   Player,
		Format: func(*donburi.Entry) string { return "Player" },
	})
	models.RegisterDescriber(models.DescribeComponent("Health", Health))
	models.RegisterDescriber(models.DescribeComponent("Speed", Speed))
	models.RegisterDescriber(models.Describer{
		Name: "Npc",
		Type: Npc,
		Format: func(entry *donburi.Entry) string {
			return Npc.Get(entry).String()
		},
	})
}
