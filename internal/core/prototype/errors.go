package prototype

import "errors"

var (
	// ErrNotRegistered is returned when no template is registered under an identifier.
	ErrNotRegistered = errors.New("prototype is not registered")
	// ErrRegistrySealed is returned by Register once the registry is shared.
	ErrRegistrySealed = errors.New("registry is sealed")
	ErrNilTemplate    = errors.New("template is nil")
	// ErrParse is wrapped by identifier parsers.
	ErrParse = errors.New("cannot parse identifier")
)
