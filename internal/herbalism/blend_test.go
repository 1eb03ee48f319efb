package herbalism

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/legionforge/engine/internal/store/memstore"
	"github.com/legionforge/engine/internal/types"
)

func boolPtr(b bool) *bool     { return &b }
func strPtr(s string) *string { return &s }

func TestBlendMatchesSubsetRecipe(t *testing.T) {
	ms := memstore.New()
	ctx := context.Background()

	ms.SeedIngredient(types.Ingredient{ItemNumber: 5111, PrimaryChakra: "root", PrimaryChakraStrength: 3,
		Properties: map[string]bool{"ingestible": true}})
	ms.SeedIngredient(types.Ingredient{ItemNumber: 5419, PrimaryChakra: "heart", PrimaryChakraStrength: 2,
		Properties: map[string]bool{"ingestible": true}})
	ms.SeedSubsetRecipe(types.SubsetRecipe{
		ID: 1, Product: 7001, ProductType: types.ProductTea,
		Ingredients: []int{5419, 5111}, QuantityProduced: 3,
	})
	ms.SeedProduct(types.Product{ItemNumber: 7001, ProductType: types.ProductTea, Name: "Calming Tea"})

	result, err := Blend(ctx, ms, []int{5111, 5419})
	require.NoError(t, err)
	require.Equal(t, "Calming Tea", result.Product.Name)
	require.Equal(t, 3, result.Quantity)
}

func TestBlendRuinsOnAlcoholOverflow(t *testing.T) {
	ms := memstore.New()
	ctx := context.Background()

	for _, n := range []int{1, 2, 3} {
		ms.SeedIngredient(types.Ingredient{ItemNumber: n, Properties: map[string]bool{"alcohol": true, "ingestible": true}})
	}
	ms.SeedFailedBlend(types.FailedBlend{ProductType: types.ProductTincture, RuinedItemNumber: 9001})
	ms.SeedProduct(types.Product{ItemNumber: 9001, ProductType: types.ProductTincture, Name: "Burnt Mash"})

	result, err := Blend(ctx, ms, []int{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, "Burnt Mash", result.Product.Name)
	require.Equal(t, 1, result.Quantity)
}

func TestBlendRuinsOnLowTier(t *testing.T) {
	ms := memstore.New()
	ctx := context.Background()

	ms.SeedIngredient(types.Ingredient{ItemNumber: 1, PrimaryChakra: "root", PrimaryChakraStrength: 5,
		SecondaryChakra: "throat", SecondaryChakraStrength: 5, Properties: map[string]bool{"ingestible": true}})

	result, err := Blend(ctx, ms, []int{1})
	require.NoError(t, err)
	require.Equal(t, 6000, result.Product.ItemNumber)
	require.Equal(t, "Sludge", result.Product.Name)
}

func TestBlendMatchesConstraintRecipeFIFO(t *testing.T) {
	ms := memstore.New()
	ctx := context.Background()

	ms.SeedIngredient(types.Ingredient{ItemNumber: 1, PrimaryChakra: "root", PrimaryChakraStrength: 12,
		Properties: map[string]bool{}})

	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	ms.SeedConstraintRecipe(types.ConstraintRecipe{
		ID: 2, Product: 7100, ProductType: types.ProductSalve, QuantityProduced: 1, CreatedAt: newer,
		PrimaryChakra: strPtr("root"), PrimaryIsBoon: boolPtr(true),
	})
	ms.SeedConstraintRecipe(types.ConstraintRecipe{
		ID: 1, Product: 7099, ProductType: types.ProductSalve, QuantityProduced: 1, CreatedAt: older,
		PrimaryChakra: strPtr("root"), PrimaryIsBoon: boolPtr(true),
	})
	ms.SeedProduct(types.Product{ItemNumber: 7099, ProductType: types.ProductSalve, Name: "Root Balm"})
	ms.SeedProduct(types.Product{ItemNumber: 7100, ProductType: types.ProductSalve, Name: "Root Unguent"})

	result, err := Blend(ctx, ms, []int{1})
	require.NoError(t, err)
	require.Equal(t, "Root Balm", result.Product.Name)
}

func TestBlendRejectsUnknownIngredient(t *testing.T) {
	ms := memstore.New()
	ctx := context.Background()

	_, err := Blend(ctx, ms, []int{9999})
	require.Error(t, err)
}

func TestBlendRejectsTooManyIngredients(t *testing.T) {
	ms := memstore.New()
	ctx := context.Background()

	_, err := Blend(ctx, ms, []int{1, 2, 3, 4, 5, 6, 7})
	require.Error(t, err)
}
