// Package catalog loads product fixtures from YAML into the catalog tables.
package catalog

import (
	"context"
	"fmt"
	"io"
	"os"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Fixture is the YAML document root.
type Fixture struct {
	Products []ProductFixture `yaml:"products" validate:"required,min=1,dive"`
}

// ProductFixture describes one product and its variants. Price is in the
// smallest currency unit.
type ProductFixture struct {
	Name     string           `yaml:"name" validate:"required,max=200"`
	Price    int64            `yaml:"price" validate:"gte=0"`
	Active   *bool            `yaml:"active"`
	Variants []VariantFixture `yaml:"variants" validate:"dive"`
}

// VariantFixture describes one purchasable variant.
type VariantFixture struct {
	Size  *string `yaml:"size"`
	Color *string `yaml:"color"`
	Stock int     `yaml:"stock" validate:"gte=0"`
}

// IsActive defaults to true when the fixture omits the flag.
func (p ProductFixture) IsActive() bool {
	return p.Active == nil || *p.Active
}

// Parse decodes and validates a fixture.
func Parse(r io.Reader) (*Fixture, error) {
	var fixture Fixture
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&fixture); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	if err := validator.New().Struct(fixture); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return &fixture, nil
}

// LoadFile parses the fixture at path.
func LoadFile(path string) (*Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog %s: %w", path, err)
	}
	defer f.Close()

	return Parse(f)
}

// Summary counts what Apply inserted.
type Summary struct {
	Products int
	Variants int
	Units    int
}

// Apply inserts every product and variant of the fixture.
func Apply(ctx context.Context, fixture *Fixture, products repository.ProductRepository, logger zerolog.Logger) (Summary, error) {
	var summary Summary
	for _, pf := range fixture.Products {
		product := &model.Product{
			Name:     pf.Name,
			Price:    pf.Price,
			IsActive: pf.IsActive(),
		}
		if err := products.Create(ctx, product); err != nil {
			return summary, fmt.Errorf("failed to seed product %q: %w", pf.Name, err)
		}
		summary.Products++

		for _, vf := range pf.Variants {
			variant := &model.Variant{
				ProductID: product.ID,
				Size:      vf.Size,
				Color:     vf.Color,
				Stock:     vf.Stock,
			}
			if err := products.CreateVariant(ctx, variant); err != nil {
				return summary, fmt.Errorf("failed to seed variant of %q: %w", pf.Name, err)
			}
			summary.Variants++
			summary.Units += vf.Stock
		}

		logger.Debug().
			Int64("product_id", product.ID).
			Str("name", product.Name).
			Int("variants", len(pf.Variants)).
			Msg("product seeded")
	}
	return summary, nil
}
