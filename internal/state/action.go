package state

import "btmad/internal/model"

// Action is one of the closed set of mutations the reducer understands.
// The unexported marker method keeps the set closed to this package.
type Action interface {
	// Name identifies the action in logs.
	Name() string
	action()
}

// LoadState replaces the entire aggregate.
type LoadState struct{ State model.State }

// SetCurrentUser sets the transient selected-user pointer.
type SetCurrentUser struct{ UserID string }

// AddRecipe prepends a new recipe (most recent first).
type AddRecipe struct{ Recipe model.Recipe }

// UpdateRecipe replaces the recipe with the same ID, keeping its position.
type UpdateRecipe struct{ Recipe model.Recipe }

// AddUser appends a user.
type AddUser struct{ User model.User }

// DeleteUser removes a user. Recipes authored or rated by the user are kept.
type DeleteUser struct{ UserID string }

// AddCategory appends a category.
type AddCategory struct{ Category model.Category }

// DeleteCategory removes a category. Recipes keep their references to it.
type DeleteCategory struct{ CategoryID string }

// ToggleFavorite adds RecipeID to the user's favorites, or removes it if it
// is already there.
type ToggleFavorite struct {
	UserID   string
	RecipeID string
}

// RateRecipe upserts the user's rating on a recipe.
type RateRecipe struct {
	UserID   string
	RecipeID string
	Score    int
}

func (LoadState) Name() string      { return "LoadState" }
func (SetCurrentUser) Name() string { return "SetCurrentUser" }
func (AddRecipe) Name() string      { return "AddRecipe" }
func (UpdateRecipe) Name() string   { return "UpdateRecipe" }
func (AddUser) Name() string        { return "AddUser" }
func (DeleteUser) Name() string     { return "DeleteUser" }
func (AddCategory) Name() string    { return "AddCategory" }
func (DeleteCategory) Name() string { return "DeleteCategory" }
func (ToggleFavorite) Name() string { return "ToggleFavorite" }
func (RateRecipe) Name() string     { return "RateRecipe" }

func (LoadState) action()      {}
func (SetCurrentUser) action() {}
func (AddRecipe) action()      {}
func (UpdateRecipe) action()   {}
func (AddUser) action()        {}
func (DeleteUser) action()     {}
func (AddCategory) action()    {}
func (DeleteCategory) action() {}
func (ToggleFavorite) action() {}
func (RateRecipe) action()     {}

// Persistent reports whether applying the action should be followed by a
// save. LoadState seeds memory from a store and is never written back.
func Persistent(a Action) bool {
	switch a.(type) {
	case LoadState:
		return false
	default:
		return true
	}
}
