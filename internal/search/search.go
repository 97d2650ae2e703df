// Package search filters and pages the recipe list for the find-recipe view.
package search

import (
	"errors"
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"

	"btmad/internal/model"
)

// AllCategories matches recipes in any category.
const AllCategories = "all"

// DefaultPageSize is the number of recipes shown per page.
const DefaultPageSize = 20

// TimeOptions are the standard maximum preparation times, in minutes.
var TimeOptions = []int{15, 30, 60}

// Filter selects recipes by category and preparation time. The zero value
// matches everything.
type Filter struct {
	CategoryID string // "" or AllCategories for any
	MaxMinutes int    // 0 for any time
}

// Match reports whether r passes the filter.
func (f Filter) Match(r model.Recipe) bool {
	if f.CategoryID != "" && f.CategoryID != AllCategories && !r.InCategory(f.CategoryID) {
		return false
	}
	if f.MaxMinutes > 0 && r.PrepTime > f.MaxMinutes {
		return false
	}
	return true
}

// Apply returns the recipes that pass the filter, in their original order.
func (f Filter) Apply(recipes []model.Recipe) []model.Recipe {
	out := []model.Recipe{}
	for _, r := range recipes {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Env is what a Where expression sees for each recipe.
type Env struct {
	Title       string
	PrepTime    int
	Categories  []string // category names; deleted categories are skipped
	Author      string   // author name, "" when the author was deleted
	Average     float64  // 0 when unrated
	Ratings     int
	Ingredients []string
}

// Where is a compiled boolean recipe expression, e.g.
// `PrepTime < 30 && "Dinner" in Categories`.
type Where struct {
	source  string
	program *exprvm.Program
}

// Compile parses source. The expression must evaluate to a bool.
func Compile(source string) (*Where, error) {
	if source == "" {
		return nil, errors.New("expression must not be empty")
	}
	program, err := exprlang.Compile(source, exprlang.Env(Env{}), exprlang.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compiling %q: %w", source, err)
	}
	return &Where{source: source, program: program}, nil
}

// String returns the expression source.
func (w *Where) String() string { return w.source }

// Match evaluates the expression for r within b.
func (w *Where) Match(b model.Bundle, r model.Recipe) (bool, error) {
	out, err := exprlang.Run(w.program, NewEnv(b, r))
	if err != nil {
		return false, fmt.Errorf("evaluating %q for %s: %w", w.source, r.ID, err)
	}
	ok, _ := out.(bool)
	return ok, nil
}

// Apply returns the recipes that match, in their original order.
func (w *Where) Apply(b model.Bundle, recipes []model.Recipe) ([]model.Recipe, error) {
	out := []model.Recipe{}
	for _, r := range recipes {
		ok, err := w.Match(b, r)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// NewEnv builds the expression environment for r.
func NewEnv(b model.Bundle, r model.Recipe) Env {
	env := Env{
		Title:       r.Title,
		PrepTime:    r.PrepTime,
		Categories:  b.CategoryNames(r),
		Ratings:     len(r.Ratings),
		Ingredients: make([]string, 0, len(r.Ingredients)),
	}
	if author, ok := b.User(r.AuthorID); ok {
		env.Author = author.Name
	}
	if avg := model.AverageRating(r); avg.Rated() {
		env.Average = avg.Value
	}
	for _, ing := range r.Ingredients {
		env.Ingredients = append(env.Ingredients, ing.Name)
	}
	return env
}

// Page returns the 1-based page of recipes. A size <= 0 uses
// DefaultPageSize; a page past the end is empty.
func Page(recipes []model.Recipe, page, size int) []model.Recipe {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start >= len(recipes) {
		return []model.Recipe{}
	}
	end := min(start+size, len(recipes))
	return recipes[start:end]
}

// Pages returns how many pages n recipes fill.
func Pages(n, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	if n == 0 {
		return 1
	}
	return (n + size - 1) / size
}
