package model

import "time"

// Ingredient is a single line in a recipe's ingredient list.
type Ingredient struct {
	ID     string
	Name   string
	Amount string // optional free text, e.g. "500 g"
}

// Rating is one user's score for a recipe. A recipe holds at most one
// Rating per user.
type Rating struct {
	UserID string
	Score  int // 0-10
}

// Recipe is a user-submitted recipe. ID and AuthorID never change after
// creation.
type Recipe struct {
	ID           string
	Title        string
	Images       []string // first element is the cover
	PrepTime     int      // minutes
	Ingredients  []Ingredient
	Instructions string
	Notes        string
	CategoryIDs  []string // may reference deleted categories
	AuthorID     string
	Ratings      []Rating
	CreatedAt    time.Time
}

// User is a profile that can author, rate and favorite recipes.
type User struct {
	ID        string
	Name      string
	Avatar    string   // image URL
	Favorites []string // recipe IDs, no duplicates
}

// Category groups recipes. Recipes reference categories by ID.
type Category struct {
	ID   string
	Name string
}

// Bundle is the persisted aggregate: everything that survives a reload.
type Bundle struct {
	Recipes    []Recipe
	Users      []User
	Categories []Category
}

// State is the in-memory aggregate. CurrentUserID is transient selection
// state; only the local store persists it.
type State struct {
	Bundle
	CurrentUserID string
}

// NewBundle returns an empty, normalized Bundle.
func NewBundle() Bundle {
	return Bundle{
		Recipes:    []Recipe{},
		Users:      []User{},
		Categories: []Category{},
	}
}

// Normalize replaces nil slices with empty ones, recursively. Aggregates built
// by the reducer are always normalized, so they compare equal after a trip
// through the codec.
func (b Bundle) Normalize() Bundle {
	out := Bundle{
		Recipes:    make([]Recipe, len(b.Recipes)),
		Users:      make([]User, len(b.Users)),
		Categories: make([]Category, len(b.Categories)),
	}
	for i, r := range b.Recipes {
		out.Recipes[i] = r.Normalize()
	}
	for i, u := range b.Users {
		out.Users[i] = u.Normalize()
	}
	copy(out.Categories, b.Categories)
	return out
}

// Normalize replaces nil slices on a recipe with empty ones.
func (r Recipe) Normalize() Recipe {
	r.Images = nonNil(r.Images)
	r.CategoryIDs = nonNil(r.CategoryIDs)
	if r.Ingredients == nil {
		r.Ingredients = []Ingredient{}
	}
	if r.Ratings == nil {
		r.Ratings = []Rating{}
	}
	return r
}

// Normalize replaces a nil favorites list with an empty one.
func (u User) Normalize() User {
	u.Favorites = nonNil(u.Favorites)
	return u
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
