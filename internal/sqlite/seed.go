// Descriptor seeding from YAML definition files.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/atlas/pkg/types"
)

// SeedFile is the YAML layout accepted by LoadSeedFile:
//
//	descriptors:
//	  - name: Categories
//	    values: [Food, Housing, Hygiene]
//	    searchable: true
//	  - name: Phone Number
type SeedFile struct {
	Descriptors []SeedDescriptor `yaml:"descriptors"`
}

// SeedDescriptor describes one descriptor to create.
type SeedDescriptor struct {
	Name       string   `yaml:"name"`
	Values     []string `yaml:"values"`
	Searchable bool     `yaml:"searchable"`
}

// LoadSeedFile parses a YAML seed file. Every entry must have a name.
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	var sf SeedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parsing seed file %s: %w: %w", path, err, types.ErrValidationFailure)
	}
	for i, d := range sf.Descriptors {
		if d.Name == "" {
			return nil, fmt.Errorf("seed descriptor %d has no name: %w", i, types.ErrValidationFailure)
		}
	}
	return &sf, nil
}

// Seed creates every seed descriptor whose name is not defined yet, in one
// transaction, and returns how many were created. Running the same seed
// twice creates nothing the second time.
func (b *Backend) Seed(ctx context.Context, defs []SeedDescriptor) (int, error) {
	created := 0
	err := b.InTx(ctx, func(tx types.Store) error {
		registry := tx.Descriptors()
		for _, def := range defs {
			_, err := registry.FindByName(ctx, def.Name)
			if err == nil {
				continue
			}
			if !errors.Is(err, types.ErrNotFound) {
				return err
			}
			d := &types.Descriptor{Name: def.Name, Values: def.Values, IsSearchable: def.Searchable}
			if _, err := registry.Create(ctx, d); err != nil {
				return fmt.Errorf("seeding descriptor %q: %w", def.Name, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}
