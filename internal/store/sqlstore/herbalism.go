package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/legionforge/engine/internal/types"
)

func (s *Store) GetIngredient(ctx context.Context, itemNumber int) (*types.Ingredient, error) {
	row := s.exec.QueryRowContext(ctx, `
		SELECT item_number, primary_chakra, primary_chakra_strength, secondary_chakra,
		       secondary_chakra_strength, properties
		FROM ingredients WHERE item_number = ?`, itemNumber)
	var i types.Ingredient
	var properties []byte
	if err := row.Scan(&i.ItemNumber, &i.PrimaryChakra, &i.PrimaryChakraStrength,
		&i.SecondaryChakra, &i.SecondaryChakraStrength, &properties); err != nil {
		return nil, wrapDBError("get ingredient", err)
	}
	if len(properties) > 0 {
		if err := json.Unmarshal(properties, &i.Properties); err != nil {
			return nil, fmt.Errorf("unmarshal ingredient properties: %w", err)
		}
	}
	return &i, nil
}

func (s *Store) GetProduct(ctx context.Context, itemNumber int, productType types.ProductType) (*types.Product, error) {
	row := s.exec.QueryRowContext(ctx, `
		SELECT item_number, product_type, name
		FROM products WHERE item_number = ? AND product_type = ?`, itemNumber, productType)
	var p types.Product
	if err := row.Scan(&p.ItemNumber, &p.ProductType, &p.Name); err != nil {
		return nil, wrapDBError("get product", err)
	}
	return &p, nil
}

func (s *Store) ListSubsetRecipes(ctx context.Context, productType types.ProductType) ([]types.SubsetRecipe, error) {
	rows, err := s.exec.QueryContext(ctx, `
		SELECT id, product, product_type, ingredients, quantity_produced
		FROM subset_recipes WHERE product_type = ?`, productType)
	if err != nil {
		return nil, wrapDBError("list subset recipes", err)
	}
	defer func() { _ = rows.Close() }()

	var out []types.SubsetRecipe
	for rows.Next() {
		var r types.SubsetRecipe
		var ingredients []byte
		if err := rows.Scan(&r.ID, &r.Product, &r.ProductType, &ingredients, &r.QuantityProduced); err != nil {
			return nil, wrapDBError("list subset recipes", err)
		}
		if err := json.Unmarshal(ingredients, &r.Ingredients); err != nil {
			return nil, fmt.Errorf("unmarshal subset recipe ingredients: %w", err)
		}
		out = append(out, r)
	}
	return out, wrapDBError("list subset recipes", rows.Err())
}

func (s *Store) ListConstraintRecipes(ctx context.Context, productType types.ProductType) ([]types.ConstraintRecipe, error) {
	rows, err := s.exec.QueryContext(ctx, `
		SELECT id, product, product_type, quantity_produced, ingredient_patterns, tier, primary_chakra,
		       primary_is_boon, secondary_chakra, secondary_is_boon, created_at
		FROM constraint_recipes WHERE product_type = ? ORDER BY created_at ASC`, productType)
	if err != nil {
		return nil, wrapDBError("list constraint recipes", err)
	}
	defer func() { _ = rows.Close() }()

	var out []types.ConstraintRecipe
	for rows.Next() {
		var r types.ConstraintRecipe
		var patterns []byte
		if err := rows.Scan(&r.ID, &r.Product, &r.ProductType, &r.QuantityProduced, &patterns, &r.Tier,
			&r.PrimaryChakra, &r.PrimaryIsBoon, &r.SecondaryChakra, &r.SecondaryIsBoon,
			&r.CreatedAt); err != nil {
			return nil, wrapDBError("list constraint recipes", err)
		}
		if err := json.Unmarshal(patterns, &r.IngredientPatterns); err != nil {
			return nil, fmt.Errorf("unmarshal constraint recipe patterns: %w", err)
		}
		out = append(out, r)
	}
	return out, wrapDBError("list constraint recipes", rows.Err())
}

func (s *Store) GetFailedBlend(ctx context.Context, productType types.ProductType) (*types.FailedBlend, error) {
	row := s.exec.QueryRowContext(ctx, `
		SELECT product_type, ruined_item_number FROM failed_blends WHERE product_type = ?`, productType)
	var fb types.FailedBlend
	if err := row.Scan(&fb.ProductType, &fb.RuinedItemNumber); err != nil {
		return nil, wrapDBError("get failed blend", err)
	}
	return &fb, nil
}
