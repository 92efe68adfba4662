package game

import (
	"fmt"

	"github.com/zeusync/sandbox/internal/core/prototype"
)

type ItemID uint8

const (
	Chestplate ItemID = iota + 1
	Sword
)

func (id ItemID) String() string {
	switch id {
	case Chestplate:
		return "Chestplate"
	case Sword:
		return "Sword"
	default:
		return fmt.Sprintf("ItemID(%d)", uint8(id))
	}
}

type CharacterID uint8

const (
	Player CharacterID = iota + 1
	Enemy
)

func (id CharacterID) String() string {
	switch id {
	case Player:
		return "Player"
	case Enemy:
		return "Enemy"
	default:
		return fmt.Sprintf("CharacterID(%d)", uint8(id))
	}
}

var (
	ItemIDs      = []ItemID{Chestplate, Sword}
	CharacterIDs = []CharacterID{Player, Enemy}

	ParseItemID      = prototype.EnumParser("item", ItemIDs...)
	ParseCharacterID = prototype.EnumParser("character", CharacterIDs...)
)
