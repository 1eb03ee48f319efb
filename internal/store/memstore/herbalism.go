package memstore

import (
	"context"

	"github.com/legionforge/engine/internal/store"
	"github.com/legionforge/engine/internal/types"
)

func (s *Store) GetIngredient(ctx context.Context, itemNumber int) (*types.Ingredient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.ingredients[itemNumber]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *i
	return &cp, nil
}

func (s *Store) GetProduct(ctx context.Context, itemNumber int, productType types.ProductType) (*types.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productKey(itemNumber, productType)]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) ListSubsetRecipes(ctx context.Context, productType types.ProductType) ([]types.SubsetRecipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.SubsetRecipe
	for _, r := range s.subsetRecipes {
		if r.ProductType == productType {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) ListConstraintRecipes(ctx context.Context, productType types.ProductType) ([]types.ConstraintRecipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.ConstraintRecipe
	for _, r := range s.constraintRecipes {
		if r.ProductType == productType {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) GetFailedBlend(ctx context.Context, productType types.ProductType) (*types.FailedBlend, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fb, ok := s.failedBlends[productType]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *fb
	return &cp, nil
}

// SeedIngredient inserts or replaces an ingredient row.
func (s *Store) SeedIngredient(i types.Ingredient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := i
	s.ingredients[i.ItemNumber] = &cp
}

// SeedProduct inserts or replaces a product row.
func (s *Store) SeedProduct(p types.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := p
	s.products[productKey(p.ItemNumber, p.ProductType)] = &cp
}

// SeedSubsetRecipe appends a subset recipe.
func (s *Store) SeedSubsetRecipe(r types.SubsetRecipe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subsetRecipes = append(s.subsetRecipes, r)
}

// SeedConstraintRecipe appends a constraint recipe.
func (s *Store) SeedConstraintRecipe(r types.ConstraintRecipe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.constraintRecipes = append(s.constraintRecipes, r)
}

// SeedFailedBlend inserts or replaces a failed-blend mapping.
func (s *Store) SeedFailedBlend(fb types.FailedBlend) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := fb
	s.failedBlends[fb.ProductType] = &cp
}
