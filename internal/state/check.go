package state

import (
	"errors"
	"fmt"
	"strings"

	"btmad/internal/model"
)

// ErrPrecondition is wrapped by every error returned from Check.
var ErrPrecondition = errors.New("precondition failed")

// MinScore and MaxScore bound a rating.
const (
	MinScore = 0
	MaxScore = 10
)

// Check reports whether a may be applied to s.
func Check(s model.State, a Action) error {
	switch a := a.(type) {
	case LoadState:
		return nil

	case SetCurrentUser:
		if userIndex(s.Bundle, a.UserID) < 0 {
			return preconditionf("user %q does not exist", a.UserID)
		}

	case AddRecipe:
		if err := checkRecipe(a.Recipe); err != nil {
			return err
		}
		if recipeIndex(s.Bundle, a.Recipe.ID) >= 0 {
			return preconditionf("recipe %q already exists", a.Recipe.ID)
		}

	case UpdateRecipe:
		if err := checkRecipe(a.Recipe); err != nil {
			return err
		}
		if recipeIndex(s.Bundle, a.Recipe.ID) < 0 {
			return preconditionf("recipe %q does not exist", a.Recipe.ID)
		}

	case AddUser:
		if a.User.ID == "" {
			return preconditionf("user id is empty")
		}
		if blank(a.User.Name) {
			return preconditionf("user name is empty")
		}
		if userIndex(s.Bundle, a.User.ID) >= 0 {
			return preconditionf("user %q already exists", a.User.ID)
		}

	case DeleteUser:
		if userIndex(s.Bundle, a.UserID) < 0 {
			return preconditionf("user %q does not exist", a.UserID)
		}

	case AddCategory:
		if a.Category.ID == "" {
			return preconditionf("category id is empty")
		}
		if blank(a.Category.Name) {
			return preconditionf("category name is empty")
		}
		if categoryIndex(s.Bundle, a.Category.ID) >= 0 {
			return preconditionf("category %q already exists", a.Category.ID)
		}

	case DeleteCategory:
		if categoryIndex(s.Bundle, a.CategoryID) < 0 {
			return preconditionf("category %q does not exist", a.CategoryID)
		}

	case ToggleFavorite:
		if userIndex(s.Bundle, a.UserID) < 0 {
			return preconditionf("user %q does not exist", a.UserID)
		}

	case RateRecipe:
		if recipeIndex(s.Bundle, a.RecipeID) < 0 {
			return preconditionf("recipe %q does not exist", a.RecipeID)
		}
		if a.Score < MinScore || a.Score > MaxScore {
			return preconditionf("score %d outside %d-%d", a.Score, MinScore, MaxScore)
		}

	default:
		return preconditionf("unknown action %T", a)
	}
	return nil
}

func checkRecipe(r model.Recipe) error {
	switch {
	case r.ID == "":
		return preconditionf("recipe id is empty")
	case blank(r.Title):
		return preconditionf("recipe title is empty")
	case blank(r.Instructions):
		return preconditionf("recipe instructions are empty")
	case r.AuthorID == "":
		return preconditionf("recipe has no author")
	case r.PrepTime < 0:
		return preconditionf("prep time %d is negative", r.PrepTime)
	}
	return nil
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func preconditionf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPrecondition, fmt.Sprintf(format, args...))
}
