package state

import (
	"slices"

	"btmad/internal/model"
)

// Reduce returns the aggregate that results from applying a to s.
//
// Reduce is pure and total: it never mutates s (every slice it changes is
// copied first), never reads the clock, and returns s unchanged when the
// action targets a recipe or user that does not exist. Check enforces the
// remaining preconditions.
func Reduce(s model.State, a Action) model.State {
	switch a := a.(type) {
	case LoadState:
		next := a.State
		next.Bundle = next.Bundle.Normalize()
		return next

	case SetCurrentUser:
		s.CurrentUserID = a.UserID
		return s

	case AddRecipe:
		recipes := make([]model.Recipe, 0, len(s.Recipes)+1)
		recipes = append(recipes, a.Recipe.Normalize())
		s.Recipes = append(recipes, s.Recipes...)
		return s

	case UpdateRecipe:
		i := recipeIndex(s.Bundle, a.Recipe.ID)
		if i < 0 {
			return s
		}
		s.Recipes = slices.Clone(s.Recipes)
		s.Recipes[i] = a.Recipe.Normalize()
		return s

	case AddUser:
		s.Users = append(slices.Clone(s.Users), a.User.Normalize())
		return s

	case DeleteUser:
		s.Users = filter(s.Users, func(u model.User) bool { return u.ID != a.UserID })
		return s

	case AddCategory:
		s.Categories = append(slices.Clone(s.Categories), a.Category)
		return s

	case DeleteCategory:
		s.Categories = filter(s.Categories, func(c model.Category) bool { return c.ID != a.CategoryID })
		return s

	case ToggleFavorite:
		i := userIndex(s.Bundle, a.UserID)
		if i < 0 {
			return s
		}
		u := s.Users[i]
		if u.IsFavorite(a.RecipeID) {
			u.Favorites = filter(u.Favorites, func(id string) bool { return id != a.RecipeID })
		} else {
			u.Favorites = append(slices.Clone(u.Favorites), a.RecipeID)
		}
		s.Users = slices.Clone(s.Users)
		s.Users[i] = u
		return s

	case RateRecipe:
		i := recipeIndex(s.Bundle, a.RecipeID)
		if i < 0 {
			return s
		}
		r := s.Recipes[i]
		r.Ratings = upsertRating(r.Ratings, model.Rating{UserID: a.UserID, Score: a.Score})
		s.Recipes = slices.Clone(s.Recipes)
		s.Recipes[i] = r
		return s
	}
	return s
}

// upsertRating overwrites the entry for rt.UserID in place, or appends one.
func upsertRating(ratings []model.Rating, rt model.Rating) []model.Rating {
	out := slices.Clone(ratings)
	if out == nil {
		out = []model.Rating{}
	}
	for i := range out {
		if out[i].UserID == rt.UserID {
			out[i] = rt
			return out
		}
	}
	return append(out, rt)
}

// filter returns a new non-nil slice holding the elements that satisfy keep.
func filter[T any](in []T, keep func(T) bool) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func recipeIndex(b model.Bundle, id string) int {
	return slices.IndexFunc(b.Recipes, func(r model.Recipe) bool { return r.ID == id })
}

func userIndex(b model.Bundle, id string) int {
	return slices.IndexFunc(b.Users, func(u model.User) bool { return u.ID == id })
}

func categoryIndex(b model.Bundle, id string) int {
	return slices.IndexFunc(b.Categories, func(c model.Category) bool { return c.ID == id })
}
