package mad

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	"btmad/internal/model"
)

// RecipeDraft is the user-entered form of a recipe. The service fills in ids,
// author and creation time.
type RecipeDraft struct {
	Title        string            `validate:"required"`
	Instructions string            `validate:"required"`
	PrepTime     int               `validate:"gte=0"`
	Ingredients  []IngredientDraft `validate:"dive"`
	CategoryIDs  []string          `validate:"omitempty,dive,required"`

	Images []string // blank entries are dropped
	Notes  string
}

// IngredientDraft is one ingredient row. An empty ID gets a generated one.
type IngredientDraft struct {
	ID     string
	Name   string `validate:"required"`
	Amount string
}

// UserDraft is the form for a new user profile.
type UserDraft struct {
	Name   string `validate:"required"`
	Avatar string `validate:"omitempty,url"`
}

// CategoryDraft is the form for a new category.
type CategoryDraft struct {
	Name string `validate:"required"`
}

// DraftFromRecipe returns the editable form of r.
func DraftFromRecipe(r model.Recipe) RecipeDraft {
	d := RecipeDraft{
		Title:        r.Title,
		Images:       append([]string(nil), r.Images...),
		PrepTime:     r.PrepTime,
		Instructions: r.Instructions,
		Notes:        r.Notes,
		CategoryIDs:  append([]string(nil), r.CategoryIDs...),
	}
	for _, ing := range r.Ingredients {
		d.Ingredients = append(d.Ingredients, IngredientDraft{ID: ing.ID, Name: ing.Name, Amount: ing.Amount})
	}
	return d
}

// KeepIngredientIDs returns next with ids carried over from prev. A row takes
// the id of the first unused prev row with the same name, ignoring case, and
// otherwise the id of the unused prev row at the same position. Rows that
// already have an id are left alone.
func KeepIngredientIDs(prev, next []IngredientDraft) []IngredientDraft {
	used := make([]bool, len(prev))
	out := append([]IngredientDraft(nil), next...)

	for i := range out {
		if out[i].ID != "" {
			continue
		}
		for j, p := range prev {
			if !used[j] && p.ID != "" && strings.EqualFold(strings.TrimSpace(p.Name), strings.TrimSpace(out[i].Name)) {
				out[i].ID = p.ID
				used[j] = true
				break
			}
		}
	}
	for i := range out {
		if out[i].ID == "" && i < len(prev) && !used[i] && prev[i].ID != "" {
			out[i].ID = prev[i].ID
			used[i] = true
		}
	}
	return out
}

// DefaultAvatar is the placeholder image used when a user has none.
func DefaultAvatar(name string) string {
	return "https://picsum.photos/seed/" + url.PathEscape(name) + "/100/100"
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// validateDraft runs struct validation and converts failures into a single
// error wrapping ErrValidation that names every failing field.
func validateDraft(v *validator.Validate, draft any) error {
	err := v.Struct(draft)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := fe.Namespace()
		if i := strings.IndexByte(name, '.'); i >= 0 {
			name = name[i+1:]
		}
		fields = append(fields, name+" "+describeTag(fe))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(fields, "; "))
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be at least " + fe.Param()
	case "url":
		return "must be a URL"
	default:
		return "failed " + fe.Tag()
	}
}
