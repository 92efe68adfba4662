// Package game holds the sandbox content: item and character identifiers,
// the catalog their templates are built from, and the startup world.
package game

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/sandbox/internal/core/character"
	"github.com/zeusync/sandbox/internal/core/item"
	"github.com/zeusync/sandbox/internal/core/prototype"
)

const schemaURL = "https://zeusync.dev/sandbox/catalog.schema.json"

var (
	//go:embed catalog.yaml
	defaultCatalog []byte
	//go:embed catalog.schema.json
	catalogSchema []byte
)

var (
	ErrInvalidCatalog = errors.New("invalid catalog")
	ErrDuplicateID    = errors.New("duplicate catalog id")
)

type Catalog struct {
	Items      []ItemSpec      `yaml:"items"`
	Characters []CharacterSpec `yaml:"characters"`
}

type ItemSpec struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Value       uint16 `yaml:"value"`
}

type CharacterSpec struct {
	ID     string  `yaml:"id"`
	Name   string  `yaml:"name"`
	Role   string  `yaml:"role"`
	Health uint16  `yaml:"health"`
	Speed  float32 `yaml:"speed"`
}

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(catalogSchema)); err != nil {
		return nil, err
	}
	return compiler.Compile(schemaURL)
})

// DefaultCatalog is the catalog shipped with the binary.
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(bytes.NewReader(defaultCatalog))
}

// LoadCatalog reads a YAML catalog and validates it against the catalog schema.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	if err := validate(raw); err != nil {
		return nil, err
	}

	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return &c, nil
}

// validate runs the schema over the document. YAML is converted to its JSON
// form first so the validator sees JSON types.
func validate(raw []byte) error {
	schema, err := compileSchema()
	if err != nil {
		return fmt.Errorf("compile catalog schema: %w", err)
	}

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	asJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	var value any
	if err := json.Unmarshal(asJSON, &value); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	if err := schema.Validate(value); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return nil
}

// Registries are the sealed item and character registries built from a catalog.
type Registries struct {
	Items      *prototype.Registry[ItemID]
	Characters *prototype.Registry[CharacterID]
}

// BuildRegistries turns c into sealed registries. Identifiers missing from
// the catalog stay unregistered.
func BuildRegistries(c *Catalog) (*Registries, error) {
	items := prototype.NewRegistry[ItemID]("item")
	for _, def := range c.Items {
		id, err := ParseItemID(def.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
		}
		if _, ok := items.Lookup(id); ok {
			return nil, fmt.Errorf("%w: item %s", ErrDuplicateID, id)
		}
		name := def.Name
		if name == "" {
			name = id.String()
		}
		if err := items.Register(id, item.Bundle{Name: name, Description: def.Description, Value: def.Value}); err != nil {
			return nil, err
		}
	}

	characters := prototype.NewRegistry[CharacterID]("character")
	for _, def := range c.Characters {
		id, err := ParseCharacterID(def.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
		}
		if _, ok := characters.Lookup(id); ok {
			return nil, fmt.Errorf("%w: character %s", ErrDuplicateID, id)
		}
		if err := characters.Register(id, character.Bundle{
			Name:   def.Name,
			Role:   parseRole(def.Role),
			Health: def.Health,
			Speed:  def.Speed,
		}); err != nil {
			return nil, err
		}
	}

	items.Seal()
	characters.Seal()
	return &Registries{Items: items, Characters: characters}, nil
}

// DefaultRegistries builds the registries from the embedded catalog.
func DefaultRegistries() (*Registries, error) {
	c, err := DefaultCatalog()
	if err != nil {
		return nil, err
	}
	return BuildRegistries(c)
}

func parseRole(s string) character.Role {
	switch s {
	case "player":
		return character.RolePlayer
	case "npc":
		return character.RoleNpc
	default:
		return character.RoleNone
	}
}
