package model

import (
	"reflect"
	"testing"
)

func TestAverageRating(t *testing.T) {
	tests := []struct {
		name      string
		scores    []int
		wantValue float64
		wantRated bool
		wantStr   string
	}{
		{name: "two ratings", scores: []int{9, 8}, wantValue: 8.5, wantRated: true, wantStr: "8.5"},
		{name: "single rating", scores: []int{7}, wantValue: 7.0, wantRated: true, wantStr: "7.0"},
		{name: "rounds to one decimal", scores: []int{10, 9, 9}, wantValue: 9.3, wantRated: true, wantStr: "9.3"},
		{name: "zero score is still rated", scores: []int{0}, wantValue: 0, wantRated: true, wantStr: "0.0"},
		{name: "no ratings", scores: nil, wantValue: 0, wantRated: false, wantStr: "N/A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Recipe{ID: "r1"}
			for i, s := range tt.scores {
				r.Ratings = append(r.Ratings, Rating{UserID: string(rune('a' + i)), Score: s})
			}

			got := AverageRating(r)
			if got.Value != tt.wantValue {
				t.Errorf("Value = %v, want %v", got.Value, tt.wantValue)
			}
			if got.Rated() != tt.wantRated {
				t.Errorf("Rated() = %v, want %v", got.Rated(), tt.wantRated)
			}
			if got.String() != tt.wantStr {
				t.Errorf("String() = %q, want %q", got.String(), tt.wantStr)
			}
		})
	}
}

func TestBundle_Normalize(t *testing.T) {
	b := Bundle{
		Recipes: []Recipe{{ID: "r1"}},
		Users:   []User{{ID: "u1"}},
	}

	got := b.Normalize()

	if got.Categories == nil {
		t.Error("Categories is nil after Normalize()")
	}
	r := got.Recipes[0]
	if r.Images == nil || r.Ingredients == nil || r.CategoryIDs == nil || r.Ratings == nil {
		t.Errorf("recipe slices not normalized: %+v", r)
	}
	if got.Users[0].Favorites == nil {
		t.Error("user favorites not normalized")
	}
	if b.Recipes[0].Images != nil {
		t.Error("Normalize() mutated its receiver")
	}
}

func TestRecipe_Cover(t *testing.T) {
	if got := (Recipe{}).Cover(); got != "" {
		t.Errorf("Cover() on empty = %q, want empty", got)
	}
	r := Recipe{Images: []string{"a.jpg", "b.jpg"}}
	if got := r.Cover(); got != "a.jpg" {
		t.Errorf("Cover() = %q, want %q", got, "a.jpg")
	}
}

func TestRecipe_RatingBy(t *testing.T) {
	r := Recipe{Ratings: []Rating{{UserID: "u1", Score: 4}}}

	if score, ok := r.RatingBy("u1"); !ok || score != 4 {
		t.Errorf("RatingBy(u1) = %d, %v; want 4, true", score, ok)
	}
	if _, ok := r.RatingBy("u2"); ok {
		t.Error("RatingBy(u2) reported a rating")
	}
}

func TestState_Lookups(t *testing.T) {
	s := State{
		Bundle: Bundle{
			Recipes: []Recipe{
				{ID: "r1", AuthorID: "u1", CategoryIDs: []string{"c1", "gone"}},
				{ID: "r2", AuthorID: "u2"},
				{ID: "r3", AuthorID: "u1"},
			},
			Users: []User{
				{ID: "u1", Favorites: []string{"r3", "missing", "r1"}},
				{ID: "u2"},
			},
			Categories: []Category{{ID: "c1", Name: "Dinner"}, {ID: "c2", Name: "Cake"}},
		},
		CurrentUserID: "u1",
	}

	t.Run("current user", func(t *testing.T) {
		u, ok := s.CurrentUser()
		if !ok || u.ID != "u1" {
			t.Errorf("CurrentUser() = %v, %v", u.ID, ok)
		}
		if _, ok := (State{CurrentUserID: "nobody"}).CurrentUser(); ok {
			t.Error("CurrentUser() found a deleted user")
		}
	})

	t.Run("favorites follow recipe order", func(t *testing.T) {
		var ids []string
		for _, r := range s.FavoriteRecipes("u1") {
			ids = append(ids, r.ID)
		}
		if want := []string{"r1", "r3"}; !reflect.DeepEqual(ids, want) {
			t.Errorf("FavoriteRecipes() = %v, want %v", ids, want)
		}
	})

	t.Run("recipes by author", func(t *testing.T) {
		if got := len(s.RecipesByAuthor("u1")); got != 2 {
			t.Errorf("len(RecipesByAuthor(u1)) = %d, want 2", got)
		}
	})

	t.Run("category names skip dangling ids", func(t *testing.T) {
		got := s.CategoryNames(s.Recipes[0])
		if want := []string{"Dinner"}; !reflect.DeepEqual(got, want) {
			t.Errorf("CategoryNames() = %v, want %v", got, want)
		}
	})

	t.Run("categories of favorites", func(t *testing.T) {
		got := s.CategoriesOf(s.FavoriteRecipes("u1"))
		if want := []Category{{ID: "c1", Name: "Dinner"}}; !reflect.DeepEqual(got, want) {
			t.Errorf("CategoriesOf() = %v, want %v", got, want)
		}
		if got := s.CategoriesOf(nil); len(got) != 0 || got == nil {
			t.Errorf("CategoriesOf(nil) = %#v, want empty", got)
		}
	})
}
