package item

import (
	"errors"
	"fmt"

	"github.com/yohamta/donburi"

	"github.com/zeusync/sandbox/internal/core/assert"
	"github.com/zeusync/sandbox/internal/core/models"
)

// ErrContractViolation marks a transfer whose preconditions did not hold
// when it was applied. The world is left untouched.
var ErrContractViolation = errors.New("item transfer contract violated")

// ContractError describes a rejected transfer.
type ContractError struct {
	Op      string
	Storage donburi.Entity
	Item    donburi.Entity
	Reason  string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("%s: %s item %s, storage %s: %s",
		ErrContractViolation, e.Op,
		models.FormatEntity(e.Item), models.FormatEntity(e.Storage), e.Reason)
}

func (e *ContractError) Unwrap() error {
	return ErrContractViolation
}

func rejection(op string, storage, item donburi.Entity, reason string) error {
	return &ContractError{Op: op, Storage: storage, Item: item, Reason: reason}
}

// violation returns err from an applied transfer. In assertion builds it
// panics instead.
func violation(err error) error {
	assert.Fail("%s", err.Error())
	return err
}
