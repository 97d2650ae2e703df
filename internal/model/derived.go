package model

import (
	"fmt"
	"math"
	"slices"
)

// Average is a derived average rating. A zero Count means the recipe has no
// ratings yet, which is distinct from an average of 0.
type Average struct {
	Value float64 // rounded to one decimal place
	Count int
}

// Rated reports whether at least one rating contributed to the average.
func (a Average) Rated() bool { return a.Count > 0 }

func (a Average) String() string {
	if !a.Rated() {
		return "N/A"
	}
	return fmt.Sprintf("%.1f", a.Value)
}

// AverageRating computes the rounded mean score of a recipe's ratings.
func AverageRating(r Recipe) Average {
	if len(r.Ratings) == 0 {
		return Average{}
	}
	sum := 0
	for _, rt := range r.Ratings {
		sum += rt.Score
	}
	mean := float64(sum) / float64(len(r.Ratings))
	return Average{
		Value: math.Round(mean*10) / 10,
		Count: len(r.Ratings),
	}
}

// Cover returns the first image URL, or "" if the recipe has no images.
func (r Recipe) Cover() string {
	if len(r.Images) == 0 {
		return ""
	}
	return r.Images[0]
}

// RatingBy returns the score userID gave this recipe, if any.
func (r Recipe) RatingBy(userID string) (int, bool) {
	for _, rt := range r.Ratings {
		if rt.UserID == userID {
			return rt.Score, true
		}
	}
	return 0, false
}

// InCategory reports whether the recipe references categoryID.
func (r Recipe) InCategory(categoryID string) bool {
	return slices.Contains(r.CategoryIDs, categoryID)
}

// IsFavorite reports whether recipeID is in the user's favorites.
func (u User) IsFavorite(recipeID string) bool {
	return slices.Contains(u.Favorites, recipeID)
}

// Recipe looks up a recipe by ID.
func (b Bundle) Recipe(id string) (Recipe, bool) {
	for _, r := range b.Recipes {
		if r.ID == id {
			return r, true
		}
	}
	return Recipe{}, false
}

// User looks up a user by ID.
func (b Bundle) User(id string) (User, bool) {
	for _, u := range b.Users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

// Category looks up a category by ID.
func (b Bundle) Category(id string) (Category, bool) {
	for _, c := range b.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// CurrentUser returns the selected user. It returns false when nothing is
// selected or the selected user has since been deleted.
func (s State) CurrentUser() (User, bool) {
	if s.CurrentUserID == "" {
		return User{}, false
	}
	return s.User(s.CurrentUserID)
}

// FavoriteRecipes returns the user's favorite recipes in recipe-list order.
// Favorites that point at unknown recipes are skipped.
func (b Bundle) FavoriteRecipes(userID string) []Recipe {
	u, ok := b.User(userID)
	if !ok {
		return nil
	}
	var out []Recipe
	for _, r := range b.Recipes {
		if u.IsFavorite(r.ID) {
			out = append(out, r)
		}
	}
	return out
}

// RecipesByAuthor returns the recipes created by userID.
func (b Bundle) RecipesByAuthor(userID string) []Recipe {
	var out []Recipe
	for _, r := range b.Recipes {
		if r.AuthorID == userID {
			out = append(out, r)
		}
	}
	return out
}

// CategoryNames resolves a recipe's category references to names.
// Dangling references are skipped.
func (b Bundle) CategoryNames(r Recipe) []string {
	var names []string
	for _, id := range r.CategoryIDs {
		if c, ok := b.Category(id); ok {
			names = append(names, c.Name)
		}
	}
	return names
}

// CategoriesOf returns the categories referenced by recipes, in bundle order.
// Deleted categories are skipped.
func (b Bundle) CategoriesOf(recipes []Recipe) []Category {
	out := []Category{}
	for _, c := range b.Categories {
		for _, r := range recipes {
			if r.InCategory(c.ID) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}
