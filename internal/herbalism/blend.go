// Package herbalism implements the item-blending engine: ingredient
// normalization, product-type classification, subset-recipe matching,
// chakra-tier computation, and constraint-recipe scanning, per spec.md
// §4.11. It is not one of the nine turn phases — a blend is resolved
// on demand, outside resolve_turn, against the same immutable recipe
// tables the phases treat as read-only.
package herbalism

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/legionforge/engine/internal/store"
	"github.com/legionforge/engine/internal/types"
)

const maxIngredients = 6
const sludgeItemNumber = 6000

// Result is the product and quantity a blend attempt resolves to. A failed
// blend still returns a Result (the ruined product), never a nil one —
// only a malformed request (too many ingredients, unknown item numbers)
// returns an error.
type Result struct {
	Product  *types.Product
	Quantity int
}

// Blend resolves the product produced by combining itemNumbers, per
// spec.md §4.11. itemNumbers must hold 1 to 6 entries; duplicates are
// permitted and do not affect subset or constraint matching, both of
// which ignore multiplicity.
func Blend(ctx context.Context, s store.HerbalismStore, itemNumbers []int) (*Result, error) {
	if len(itemNumbers) == 0 {
		return nil, fmt.Errorf("at least one ingredient is required")
	}
	if len(itemNumbers) > maxIngredients {
		return nil, fmt.Errorf("maximum of %d ingredients allowed", maxIngredients)
	}

	sorted := append([]int(nil), itemNumbers...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	ingredients := make([]types.Ingredient, 0, len(sorted))
	var unknown []int
	for _, n := range sorted {
		ing, err := s.GetIngredient(ctx, n)
		if err != nil {
			if isNotFound(err) {
				unknown = append(unknown, n)
				continue
			}
			return nil, fmt.Errorf("get ingredient %d: %w", n, err)
		}
		ingredients = append(ingredients, *ing)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown ingredient item numbers: %v", unknown)
	}

	productType, ruinedType, ruined := classifyProductType(ingredients)
	if ruined {
		return ruinedResult(ctx, s, ruinedType)
	}

	recipe, ok, err := matchSubsetRecipe(ctx, s, productType, sorted)
	if err != nil {
		return nil, err
	}
	if ok {
		return productResult(ctx, s, productType, recipe.Product, recipe.QuantityProduced)
	}

	chakras := computeChakras(ingredients)
	if chakras.Tier == 0 {
		return ruinedResult(ctx, s, productType)
	}

	constraint, ok, err := matchConstraintRecipe(ctx, s, productType, sorted, chakras)
	if err != nil {
		return nil, err
	}
	if !ok {
		return ruinedResult(ctx, s, productType)
	}
	return productResult(ctx, s, productType, constraint.Product, constraint.QuantityProduced)
}

// classifyProductType implements the fixed decision table of spec.md
// §4.11 step 3. When ruined is true, the blend is already known to be a
// ruined product of ruinedType regardless of chakra tier; productType is
// meaningless in that case.
func classifyProductType(ingredients []types.Ingredient) (productType, ruinedType types.ProductType, ruined bool) {
	alcohol := countProperty(ingredients, "alcohol")
	ingestible := allHaveProperty(ingredients, "ingestible")
	aromatic := anyHasProperty(ingredients, "aromatic")
	salt := anyHasProperty(ingredients, "salt")

	switch {
	case alcohol > 2:
		return "", types.ProductTincture, true
	case alcohol == 2:
		if ingestible {
			return types.ProductTincture, "", false
		}
		return "", types.ProductTincture, true
	case alcohol == 1:
		if ingestible {
			return types.ProductTincture, "", false
		}
		if aromatic {
			return types.ProductIncense, "", false
		}
		return types.ProductDecoction, "", false
	default:
		if ingestible {
			return types.ProductTea, "", false
		}
		if salt {
			return types.ProductBath, "", false
		}
		return types.ProductSalve, "", false
	}
}

func countProperty(ingredients []types.Ingredient, name string) int {
	n := 0
	for _, ing := range ingredients {
		if ing.HasProperty(name) {
			n++
		}
	}
	return n
}

func allHaveProperty(ingredients []types.Ingredient, name string) bool {
	if len(ingredients) == 0 {
		return false
	}
	for _, ing := range ingredients {
		if !ing.HasProperty(name) {
			return false
		}
	}
	return true
}

func anyHasProperty(ingredients []types.Ingredient, name string) bool {
	for _, ing := range ingredients {
		if ing.HasProperty(name) {
			return true
		}
	}
	return false
}

// matchSubsetRecipe returns the largest subset-recipe whose ingredient
// list is fully contained in sortedInput, ties broken by ascending id,
// per spec.md §4.11 step 4.
func matchSubsetRecipe(ctx context.Context, s store.HerbalismStore, productType types.ProductType, sortedInput []int) (*types.SubsetRecipe, bool, error) {
	recipes, err := s.ListSubsetRecipes(ctx, productType)
	if err != nil {
		return nil, false, fmt.Errorf("list subset recipes: %w", err)
	}

	inputSet := make(map[int]bool, len(sortedInput))
	for _, n := range sortedInput {
		inputSet[n] = true
	}

	var best *types.SubsetRecipe
	for i := range recipes {
		r := &recipes[i]
		if !isSubset(r.Ingredients, inputSet) {
			continue
		}
		if best == nil || len(r.Ingredients) > len(best.Ingredients) ||
			(len(r.Ingredients) == len(best.Ingredients) && r.ID < best.ID) {
			best = r
		}
	}
	if best == nil {
		return nil, false, nil
	}
	return best, true, nil
}

func isSubset(ingredients []int, set map[int]bool) bool {
	for _, n := range ingredients {
		if !set[n] {
			return false
		}
	}
	return true
}

// chakras is the outcome of spec.md §4.11 step 5. An empty chakra name
// means that slot is absent (no secondary chakra, or no chakra at all).
type chakras struct {
	PrimaryChakra      string
	PrimaryMagnitude   int
	PrimaryIsBoon      bool
	SecondaryChakra    string
	SecondaryMagnitude int
	SecondaryIsBoon    bool
	Tier               int
}

// computeChakras sums per-lowercased-chakra strength across every
// ingredient's primary and secondary chakra fields, picks the two
// highest-magnitude chakras as primary/secondary, and derives a tier from
// their magnitude gap. Chakras are ranked by a stable sort on |total| so a
// tie preserves the order in which the chakra was first seen across the
// (already descending-sorted) ingredient list, matching the source's
// stable-sort-over-dict-insertion-order behavior.
func computeChakras(ingredients []types.Ingredient) chakras {
	var order []string
	totals := map[string]int{}
	add := func(name string, strength int) {
		if name == "" {
			return
		}
		name = strings.ToLower(name)
		if _, seen := totals[name]; !seen {
			order = append(order, name)
		}
		totals[name] += strength
	}
	for _, ing := range ingredients {
		add(ing.PrimaryChakra, ing.PrimaryChakraStrength)
		add(ing.SecondaryChakra, ing.SecondaryChakraStrength)
	}
	if len(order) == 0 {
		return chakras{}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return abs(totals[order[i]]) > abs(totals[order[j]])
	})

	var c chakras
	c.PrimaryChakra = order[0]
	c.PrimaryMagnitude = totals[order[0]]
	c.PrimaryIsBoon = c.PrimaryMagnitude > 0

	secondaryAbs := 0
	if len(order) >= 2 {
		c.SecondaryChakra = order[1]
		c.SecondaryMagnitude = totals[order[1]]
		c.SecondaryIsBoon = c.SecondaryMagnitude > 0
		secondaryAbs = abs(c.SecondaryMagnitude)
	}

	switch diff := abs(c.PrimaryMagnitude) - secondaryAbs; {
	case diff > 10:
		c.Tier = 3
	case diff >= 8:
		c.Tier = 2
	case diff >= 4:
		c.Tier = 1
	default:
		c.Tier = 0
	}
	if c.SecondaryChakra == "" {
		c.Tier++
	}
	return c
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// matchConstraintRecipe scans productType's constraint recipes in
// created_at ASC, id ASC order and returns the first whose constraints
// all match, per spec.md §4.11 step 6.
func matchConstraintRecipe(ctx context.Context, s store.HerbalismStore, productType types.ProductType, sortedInput []int, c chakras) (*types.ConstraintRecipe, bool, error) {
	recipes, err := s.ListConstraintRecipes(ctx, productType)
	if err != nil {
		return nil, false, fmt.Errorf("list constraint recipes: %w", err)
	}
	sort.SliceStable(recipes, func(i, j int) bool {
		if !recipes[i].CreatedAt.Equal(recipes[j].CreatedAt) {
			return recipes[i].CreatedAt.Before(recipes[j].CreatedAt)
		}
		return recipes[i].ID < recipes[j].ID
	})

	inputStrs := make([]string, len(sortedInput))
	for i, n := range sortedInput {
		inputStrs[i] = strconv.Itoa(n)
	}

	for i := range recipes {
		if constraintMatches(&recipes[i], inputStrs, c) {
			return &recipes[i], true, nil
		}
	}
	return nil, false, nil
}

func constraintMatches(r *types.ConstraintRecipe, inputStrs []string, c chakras) bool {
	if r.Tier != nil && *r.Tier != c.Tier {
		return false
	}
	if r.PrimaryChakra != nil && (c.PrimaryChakra == "" || !strings.EqualFold(*r.PrimaryChakra, c.PrimaryChakra)) {
		return false
	}
	if r.PrimaryIsBoon != nil && (c.PrimaryChakra == "" || *r.PrimaryIsBoon != c.PrimaryIsBoon) {
		return false
	}
	if r.SecondaryChakra != nil && (c.SecondaryChakra == "" || !strings.EqualFold(*r.SecondaryChakra, c.SecondaryChakra)) {
		return false
	}
	if r.SecondaryIsBoon != nil && (c.SecondaryChakra == "" || *r.SecondaryIsBoon != c.SecondaryIsBoon) {
		return false
	}
	if len(r.IngredientPatterns) > 0 && !patternsMatch(r.IngredientPatterns, inputStrs) {
		return false
	}
	return true
}

// patternsMatch reports whether every recipe ingredient pattern matches
// at least one input ingredient, per spec.md §4.11's "for every recipe
// ingredient pattern there exists an input ingredient with the same
// length whose non-'*' characters match positionally."
func patternsMatch(patterns, inputs []string) bool {
	for _, pattern := range patterns {
		found := false
		for _, in := range inputs {
			if patternMatches(pattern, in) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func patternMatches(pattern, value string) bool {
	if len(pattern) != len(value) {
		return false
	}
	for i := 0; i < len(pattern); i++ {
		if pattern[i] != '*' && pattern[i] != value[i] {
			return false
		}
	}
	return true
}

func productResult(ctx context.Context, s store.HerbalismStore, productType types.ProductType, itemNumber, quantity int) (*Result, error) {
	product, err := s.GetProduct(ctx, itemNumber, productType)
	if err != nil {
		if isNotFound(err) {
			return ruinedResult(ctx, s, productType)
		}
		return nil, fmt.Errorf("get product %d: %w", itemNumber, err)
	}
	return &Result{Product: product, Quantity: quantity}, nil
}

func ruinedResult(ctx context.Context, s store.HerbalismStore, productType types.ProductType) (*Result, error) {
	product, err := ruinedProduct(ctx, s, productType)
	if err != nil {
		return nil, err
	}
	return &Result{Product: product, Quantity: 1}, nil
}

// ruinedProduct returns the ruined product for productType, falling back
// to the hard-coded sludge product if the FailedBlend mapping or its
// target Product row is missing, per spec.md §4.11 step 7.
func ruinedProduct(ctx context.Context, s store.HerbalismStore, productType types.ProductType) (*types.Product, error) {
	fb, err := s.GetFailedBlend(ctx, productType)
	if err != nil {
		if isNotFound(err) {
			return sludgeProduct(ctx, s)
		}
		return nil, fmt.Errorf("get failed blend: %w", err)
	}
	product, err := s.GetProduct(ctx, fb.RuinedItemNumber, productType)
	if err != nil {
		if isNotFound(err) {
			return sludgeProduct(ctx, s)
		}
		return nil, fmt.Errorf("get ruined product: %w", err)
	}
	return product, nil
}

func sludgeProduct(ctx context.Context, s store.HerbalismStore) (*types.Product, error) {
	product, err := s.GetProduct(ctx, sludgeItemNumber, types.ProductSalve)
	if err != nil {
		if isNotFound(err) {
			return &types.Product{ItemNumber: sludgeItemNumber, ProductType: types.ProductSalve, Name: "Sludge"}, nil
		}
		return nil, fmt.Errorf("get sludge product: %w", err)
	}
	return product, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
