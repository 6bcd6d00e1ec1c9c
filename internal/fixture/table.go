package fixture

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sort"

	"github.com/rohmanhakim/dogbreeds/internal/breed"
	"gopkg.in/yaml.v3"
)

// Table is a breed.Source answering from a fixed in-memory table.
// It is used for local runs without network access and in tests.
type Table struct {
	breeds map[string][]string
}

var _ breed.Source = (*Table)(nil)

// tableDTO is the on-disk YAML layout:
//
//	breeds:
//	  hound: [afghan, basset]
type tableDTO struct {
	Breeds map[string][]string `yaml:"breeds"`
}

// New builds a Table. Keys are normalized; lists are copied.
func New(breeds map[string][]string) *Table {
	t := &Table{breeds: make(map[string][]string, len(breeds))}
	for name, subs := range breeds {
		list := slices.Clone(subs)
		if list == nil {
			list = []string{}
		}
		t.breeds[breed.Normalize(name)] = list
	}
	return t
}

// Default returns a small built-in table mirroring part of the dog.ceo catalogue.
func Default() *Table {
	return New(map[string][]string{
		"hound":     {"afghan", "basset", "blood", "english", "ibizan", "plott", "walker"},
		"bulldog":   {"boston", "english", "french"},
		"retriever": {"chesapeake", "curly", "flatcoated", "golden"},
		"spaniel":   {"blenheim", "brittany", "cocker", "irish", "japanese", "sussex", "welsh"},
		"pug":       {},
	})
}

// LoadFile reads a Table from a YAML file.
func LoadFile(path string) (*Table, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrReadFixtureFail, err.Error())
	}

	var dto tableDTO
	if err := yaml.Unmarshal(content, &dto); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFixtureParsingFail, err.Error())
	}
	if len(dto.Breeds) == 0 {
		return nil, fmt.Errorf("%w: no breeds defined in %s", ErrFixtureParsingFail, path)
	}
	return New(dto.Breeds), nil
}

func (t *Table) SubBreeds(ctx context.Context, name string) ([]string, error) {
	key := breed.Normalize(name)
	if key == "" {
		return nil, &breed.BreedError{
			Breed:   name,
			Message: "breed name is empty",
			Cause:   breed.ErrCauseInvalidBreed,
		}
	}

	list, ok := t.breeds[key]
	if !ok {
		return nil, breed.NotFound(name)
	}
	return slices.Clone(list), nil
}

// Breeds lists the known breed keys in sorted order.
func (t *Table) Breeds() []string {
	names := make([]string, 0, len(t.breeds))
	for name := range t.breeds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
