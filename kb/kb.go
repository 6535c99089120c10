// Package kb holds the static catalog of crafting recipes.
package kb

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/world-simulator/internal/sim/craft"
)

var (
	// ErrRecipeNotFound is returned when a codename is not in the book.
	ErrRecipeNotFound = errors.New("recipe not found")
	// ErrRecipeExists is returned when adding a codename twice.
	ErrRecipeExists = errors.New("recipe already exists")
	// ErrRecipeInvalid is returned for recipes that can never be crafted.
	ErrRecipeInvalid = errors.New("invalid recipe")
)

//go:embed recipes.yaml
var defaultRecipes []byte

// RecipeBook is an in-memory, thread-safe store of recipes. It is filled at
// startup and only read afterwards.
type RecipeBook struct {
	mu      sync.RWMutex
	recipes map[string]*craft.Recipe
}

// NewRecipeBook constructs an empty book.
func NewRecipeBook() *RecipeBook {
	return &RecipeBook{recipes: make(map[string]*craft.Recipe)}
}

// DefaultRecipes returns the built-in catalog.
func DefaultRecipes() *RecipeBook {
	book, err := LoadRecipes(bytes.NewReader(defaultRecipes))
	if err != nil {
		panic(fmt.Sprintf("kb: built-in recipes: %v", err))
	}
	return book
}

// AddRecipe adds a new recipe. It returns an error if the codename already
// exists or the recipe is malformed.
func (kb *RecipeBook) AddRecipe(r *craft.Recipe) error {
	if err := validateRecipe(r); err != nil {
		return err
	}

	kb.mu.Lock()
	defer kb.mu.Unlock()

	if _, exists := kb.recipes[r.Codename]; exists {
		return fmt.Errorf("%w: %q", ErrRecipeExists, r.Codename)
	}
	kb.recipes[r.Codename] = r
	return nil
}

// Recipe returns the recipe with the given codename.
func (kb *RecipeBook) Recipe(codename string) (*craft.Recipe, error) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	r, ok := kb.recipes[codename]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrRecipeNotFound, codename)
	}
	return r, nil
}

// ListRecipes returns a snapshot of all recipes ordered by codename.
func (kb *RecipeBook) ListRecipes() []*craft.Recipe {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	res := make([]*craft.Recipe, 0, len(kb.recipes))
	for _, r := range kb.recipes {
		res = append(res, r)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Codename < res[j].Codename })
	return res
}

// Len returns the number of recipes.
func (kb *RecipeBook) Len() int {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return len(kb.recipes)
}

type recipeFile struct {
	Recipes []*craft.Recipe `yaml:"recipes"`
}

// LoadRecipes decodes a YAML recipe document.
func LoadRecipes(r io.Reader) (*RecipeBook, error) {
	var doc recipeFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode recipes: %w", err)
	}

	book := NewRecipeBook()
	for _, recipe := range doc.Recipes {
		if err := book.AddRecipe(recipe); err != nil {
			return nil, err
		}
	}
	return book, nil
}

// LoadRecipesFile reads recipes from a YAML file.
func LoadRecipesFile(path string) (*RecipeBook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recipes: %w", err)
	}
	defer f.Close()

	book, err := LoadRecipes(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return book, nil
}

func validateRecipe(r *craft.Recipe) error {
	if r == nil || r.Codename == "" {
		return fmt.Errorf("%w: missing codename", ErrRecipeInvalid)
	}
	if len(r.Ingredients) == 0 {
		return fmt.Errorf("%w: %q has no ingredients", ErrRecipeInvalid, r.Codename)
	}
	for i, ing := range r.Ingredients {
		if _, err := craft.ParseMaterial(string(ing.Material)); err != nil {
			return fmt.Errorf("%w: %q ingredient %d: %v", ErrRecipeInvalid, r.Codename, i, err)
		}
		if ing.Value <= 0 {
			return fmt.Errorf("%w: %q ingredient %d: value must be positive", ErrRecipeInvalid, r.Codename, i)
		}
	}
	return nil
}
