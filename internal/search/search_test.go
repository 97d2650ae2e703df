package search

import (
	"fmt"
	"strings"
	"testing"

	"btmad/internal/model"
)

func recipesWithTimes(times ...int) []model.Recipe {
	var out []model.Recipe
	for i, m := range times {
		out = append(out, model.Recipe{ID: fmt.Sprintf("r%d", i+1), PrepTime: m})
	}
	return out
}

func ids(rs []model.Recipe) string {
	var parts []string
	for _, r := range rs {
		parts = append(parts, r.ID)
	}
	return strings.Join(parts, ",")
}

func TestFilter_MaxMinutes(t *testing.T) {
	recipes := recipesWithTimes(10, 40, 70)

	tests := []struct {
		max  int
		want string
	}{
		{max: 0, want: "r1,r2,r3"},
		{max: 15, want: "r1"},
		{max: 30, want: "r1"},
		{max: 40, want: "r1,r2"},
		{max: 60, want: "r1,r2"},
		{max: 70, want: "r1,r2,r3"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("max %d", tt.max), func(t *testing.T) {
			got := Filter{MaxMinutes: tt.max}.Apply(recipes)
			if ids(got) != tt.want {
				t.Errorf("Apply() = %s, want %s", ids(got), tt.want)
			}
		})
	}
}

func TestFilter_Category(t *testing.T) {
	recipes := []model.Recipe{
		{ID: "soup", CategoryIDs: []string{"dinner"}},
		{ID: "cake", CategoryIDs: []string{"dessert", "party"}},
		{ID: "bread", CategoryIDs: []string{}},
	}

	tests := []struct {
		category string
		want     string
	}{
		{category: "", want: "soup,cake,bread"},
		{category: AllCategories, want: "soup,cake,bread"},
		{category: "party", want: "cake"},
		{category: "gone", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			got := Filter{CategoryID: tt.category}.Apply(recipes)
			if ids(got) != tt.want {
				t.Errorf("Apply() = %s, want %s", ids(got), tt.want)
			}
		})
	}
}

func TestWhere(t *testing.T) {
	b := model.Bundle{
		Recipes: []model.Recipe{
			{
				ID: "soup", Title: "Soup", PrepTime: 20, AuthorID: "u1",
				CategoryIDs: []string{"c1"},
				Ingredients: []model.Ingredient{{Name: "Water"}, {Name: "Salt"}},
				Ratings:     []model.Rating{{UserID: "u1", Score: 9}, {UserID: "u2", Score: 8}},
			},
			{ID: "cake", Title: "Cake", PrepTime: 90, AuthorID: "gone", CategoryIDs: []string{"c2"}},
		},
		Users:      []model.User{{ID: "u1", Name: "Mads"}},
		Categories: []model.Category{{ID: "c1", Name: "Dinner"}},
	}

	tests := []struct {
		expr string
		want string
	}{
		{expr: `PrepTime <= 30`, want: "soup"},
		{expr: `"Dinner" in Categories`, want: "soup"},
		{expr: `Author == "Mads"`, want: "soup"},
		{expr: `Author == ""`, want: "cake"},
		{expr: `Average >= 8.5`, want: "soup"},
		{expr: `Ratings == 0`, want: "cake"},
		{expr: `"Salt" in Ingredients`, want: "soup"},
		{expr: `Title contains "a"`, want: "cake"},
		{expr: `len(Categories) == 0`, want: "cake"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			w, err := Compile(tt.expr)
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}
			got, err := w.Apply(b, b.Recipes)
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if ids(got) != tt.want {
				t.Errorf("Apply() = %s, want %s", ids(got), tt.want)
			}
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	for _, src := range []string{"", "PrepTime +", "PrepTime + 1", "Unknown > 3"} {
		if _, err := Compile(src); err == nil {
			t.Errorf("Compile(%q) expected error", src)
		}
	}
}

func TestPage(t *testing.T) {
	recipes := recipesWithTimes(make([]int, 45)...)

	tests := []struct {
		page, size int
		wantLen    int
		wantFirst  string
	}{
		{page: 1, size: 0, wantLen: 20, wantFirst: "r1"},
		{page: 2, size: 20, wantLen: 20, wantFirst: "r21"},
		{page: 3, size: 20, wantLen: 5, wantFirst: "r41"},
		{page: 4, size: 20, wantLen: 0},
		{page: 0, size: 10, wantLen: 10, wantFirst: "r1"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("page %d size %d", tt.page, tt.size), func(t *testing.T) {
			got := Page(recipes, tt.page, tt.size)
			if len(got) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(got), tt.wantLen)
			}
			if tt.wantLen > 0 && got[0].ID != tt.wantFirst {
				t.Errorf("first = %s, want %s", got[0].ID, tt.wantFirst)
			}
		})
	}

	if n := Pages(45, 0); n != 3 {
		t.Errorf("Pages(45) = %d, want 3", n)
	}
	if n := Pages(0, 20); n != 1 {
		t.Errorf("Pages(0) = %d, want 1", n)
	}
}
