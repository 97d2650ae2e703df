package mad

import (
	"reflect"
	"testing"
)

func TestKeepIngredientIDs(t *testing.T) {
	prev := []IngredientDraft{
		{ID: "i1", Name: "Water", Amount: "1 l"},
		{ID: "i2", Name: "Salt"},
		{ID: "i3", Name: "Leek"},
	}

	tests := []struct {
		name string
		next []IngredientDraft
		want []string
	}{
		{
			name: "same rows",
			next: []IngredientDraft{{Name: "Water", Amount: "2 l"}, {Name: "Salt"}, {Name: "Leek"}},
			want: []string{"i1", "i2", "i3"},
		},
		{
			name: "reordered by name",
			next: []IngredientDraft{{Name: "leek"}, {Name: "Water"}},
			want: []string{"i3", "i1"},
		},
		{
			name: "renamed row keeps its position",
			next: []IngredientDraft{{Name: "Water"}, {Name: "Pepper"}, {Name: "Leek"}},
			want: []string{"i1", "i2", "i3"},
		},
		{
			name: "extra row stays new",
			next: []IngredientDraft{{Name: "Water"}, {Name: "Salt"}, {Name: "Leek"}, {Name: "Butter"}},
			want: []string{"i1", "i2", "i3", ""},
		},
		{
			name: "duplicate names take one id each",
			next: []IngredientDraft{{Name: "Water"}, {Name: "Water"}},
			want: []string{"i1", "i2"},
		},
		{
			name: "explicit id kept",
			next: []IngredientDraft{{ID: "x", Name: "Water"}},
			want: []string{"x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := KeepIngredientIDs(prev, tt.next)
			ids := make([]string, len(got))
			for i, g := range got {
				ids[i] = g.ID
			}
			if !reflect.DeepEqual(ids, tt.want) {
				t.Errorf("ids = %v, want %v", ids, tt.want)
			}
		})
	}
}
