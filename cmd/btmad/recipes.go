package main

import (
	"fmt"
	"strconv"
	"strings"

	"btmad/internal/app"
	"btmad/internal/mad"
	"btmad/internal/model"
	"btmad/internal/search"

	"github.com/spf13/cobra"
)

// user command
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user profiles",
}

var userAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add a user profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		avatar, _ := cmd.Flags().GetString("avatar")

		a, err := startApp(cmd.Context(), "AddUser")
		if err != nil {
			return err
		}
		defer a.Close()

		u, err := a.AddUser(cmd.Context(), args[0], avatar)
		if err := saved(err); err != nil {
			return fmt.Errorf("adding user: %w", err)
		}
		fmt.Printf("Added user %s (%s)\n", u.Name, u.ID)
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List user profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := startApp(cmd.Context(), "ListUsers")
		if err != nil {
			return err
		}
		defer a.Close()

		st := a.State()
		if len(st.Users) == 0 {
			fmt.Println("No users.")
			return nil
		}
		for _, u := range st.Users {
			marker := " "
			if u.ID == st.CurrentUserID {
				marker = "*"
			}
			fmt.Printf("%s %s\t%s\n", marker, u.ID, u.Name)
		}
		return nil
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete USER_ID",
	Short: "Delete a user profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := startApp(cmd.Context(), "DeleteUser")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := saved(a.DeleteUser(cmd.Context(), args[0])); err != nil {
			return fmt.Errorf("deleting user: %w", err)
		}
		fmt.Printf("Deleted user %s\n", args[0])
		return nil
	},
}

var userSelectCmd = &cobra.Command{
	Use:   "select USER_ID",
	Short: "Select the current user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := startApp(cmd.Context(), "SelectUser")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := saved(a.SelectUser(cmd.Context(), args[0])); err != nil {
			return fmt.Errorf("selecting user: %w", err)
		}
		u, _ := a.State().CurrentUser()
		fmt.Printf("Current user: %s\n", u.Name)
		return nil
	},
}

var userShowCmd = &cobra.Command{
	Use:   "show [USER_ID]",
	Short: "Show a profile with favorites and recipes",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var filter search.Filter
		filter.CategoryID, _ = cmd.Flags().GetString("category")

		a, err := startApp(cmd.Context(), "ShowUser")
		if err != nil {
			return err
		}
		defer a.Close()

		st := a.State()
		var (
			u  model.User
			ok bool
		)
		if len(args) > 0 {
			u, ok = st.User(args[0])
		} else {
			u, ok = st.CurrentUser()
		}
		if !ok {
			return fmt.Errorf("no such user; run \"btmad user list\"")
		}

		fmt.Printf("%s (%s)\n", u.Name, u.ID)
		fmt.Printf("Avatar: %s\n", u.Avatar)
		favorites := st.FavoriteRecipes(u.ID)
		fmt.Println("\nFavorites:")
		if cats := st.CategoriesOf(favorites); len(cats) > 0 {
			names := make([]string, len(cats))
			for i, c := range cats {
				names[i] = c.Name + " (" + c.ID + ")"
			}
			fmt.Printf("Categories: %s\n", strings.Join(names, ", "))
		}
		printRecipes(st.Bundle, filter.Apply(favorites))
		fmt.Println("\nRecipes:")
		printRecipes(st.Bundle, st.RecipesByAuthor(u.ID))
		return nil
	},
}

// category command
var categoryCmd = &cobra.Command{
	Use:   "category",
	Short: "Manage categories",
}

var categoryAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := startApp(cmd.Context(), "AddCategory")
		if err != nil {
			return err
		}
		defer a.Close()

		c, err := a.AddCategory(cmd.Context(), args[0])
		if err := saved(err); err != nil {
			return fmt.Errorf("adding category: %w", err)
		}
		fmt.Printf("Added category %s (%s)\n", c.Name, c.ID)
		return nil
	},
}

var categoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := startApp(cmd.Context(), "ListCategories")
		if err != nil {
			return err
		}
		defer a.Close()

		cats := a.State().Categories
		if len(cats) == 0 {
			fmt.Println("No categories.")
			return nil
		}
		for _, c := range cats {
			fmt.Printf("%s\t%s\n", c.ID, c.Name)
		}
		return nil
	},
}

var categoryDeleteCmd = &cobra.Command{
	Use:   "delete CATEGORY_ID",
	Short: "Delete a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := startApp(cmd.Context(), "DeleteCategory")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := saved(a.DeleteCategory(cmd.Context(), args[0])); err != nil {
			return fmt.Errorf("deleting category: %w", err)
		}
		fmt.Printf("Deleted category %s\n", args[0])
		return nil
	},
}

// recipe command
var recipeCmd = &cobra.Command{
	Use:   "recipe",
	Short: "Manage recipes",
}

var recipeAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a recipe as the current user",
	RunE: func(cmd *cobra.Command, args []string) error {
		draft := draftFromFlags(cmd, mad.RecipeDraft{})

		a, err := startApp(cmd.Context(), "AddRecipe")
		if err != nil {
			return err
		}
		defer a.Close()

		r, err := a.SaveRecipe(cmd.Context(), draft, "")
		if err := saved(err); err != nil {
			return fmt.Errorf("adding recipe: %w", err)
		}
		fmt.Printf("Added recipe %s (%s)\n", r.Title, r.ID)
		return nil
	},
}

var recipeEditCmd = &cobra.Command{
	Use:   "edit RECIPE_ID",
	Short: "Edit a recipe; unset flags keep their current values",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := startApp(cmd.Context(), "EditRecipe")
		if err != nil {
			return err
		}
		defer a.Close()

		existing, ok := a.State().Recipe(args[0])
		if !ok {
			return fmt.Errorf("recipe %s: %w", args[0], mad.ErrNotFound)
		}
		draft := draftFromFlags(cmd, mad.DraftFromRecipe(existing))

		r, err := a.SaveRecipe(cmd.Context(), draft, existing.ID)
		if err := saved(err); err != nil {
			return fmt.Errorf("editing recipe: %w", err)
		}
		fmt.Printf("Updated recipe %s (%s)\n", r.Title, r.ID)
		return nil
	},
}

var recipeListCmd = &cobra.Command{
	Use:   "list",
	Short: "Find recipes",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := app.Query{}
		q.Filter.CategoryID, _ = cmd.Flags().GetString("category")
		q.Filter.MaxMinutes, _ = cmd.Flags().GetInt("max-time")
		q.Where, _ = cmd.Flags().GetString("where")
		q.Page, _ = cmd.Flags().GetInt("page")

		a, err := startApp(cmd.Context(), "FindRecipes")
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Search(q)
		if err != nil {
			return err
		}
		printRecipes(a.State().Bundle, res.Recipes)
		fmt.Printf("\nPage %d of %d (%d recipe(s))\n", res.Page, res.Pages, res.Total)
		return nil
	},
}

var recipeShowCmd = &cobra.Command{
	Use:   "show RECIPE_ID",
	Short: "Show a recipe",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := startApp(cmd.Context(), "ShowRecipe")
		if err != nil {
			return err
		}
		defer a.Close()

		st := a.State()
		r, ok := st.Recipe(args[0])
		if !ok {
			return fmt.Errorf("recipe %s: %w", args[0], mad.ErrNotFound)
		}

		author := "(deleted user)"
		if u, ok := st.User(r.AuthorID); ok {
			author = u.Name
		}
		fmt.Printf("%s\n", r.Title)
		fmt.Printf("By:         %s\n", author)
		fmt.Printf("Created:    %s\n", r.CreatedAt.Format("2006-01-02 15:04"))
		fmt.Printf("Prep time:  %d min\n", r.PrepTime)
		fmt.Printf("Categories: %s\n", strings.Join(st.CategoryNames(r), ", "))
		avg := model.AverageRating(r)
		fmt.Printf("Rating:     %s (%d)\n", avg, avg.Count)
		if u, ok := st.CurrentUser(); ok {
			if score, ok := r.RatingBy(u.ID); ok {
				fmt.Printf("Your score: %d\n", score)
			}
			if u.IsFavorite(r.ID) {
				fmt.Println("Favorite:   yes")
			}
		}
		if cover := r.Cover(); cover != "" {
			fmt.Printf("Image:      %s\n", cover)
		}
		fmt.Println("\nIngredients:")
		for _, ing := range r.Ingredients {
			fmt.Printf("  - %s %s\n", ing.Amount, ing.Name)
		}
		fmt.Printf("\n%s\n", r.Instructions)
		if r.Notes != "" {
			fmt.Printf("\nNotes: %s\n", r.Notes)
		}
		return nil
	},
}

// favorite command
var favoriteCmd = &cobra.Command{
	Use:   "favorite RECIPE_ID",
	Short: "Toggle a recipe in the current user's favorites",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := startApp(cmd.Context(), "ToggleFavorite")
		if err != nil {
			return err
		}
		defer a.Close()

		fav, err := a.ToggleFavorite(cmd.Context(), args[0])
		if err := saved(err); err != nil {
			return fmt.Errorf("toggling favorite: %w", err)
		}
		if fav {
			fmt.Println("Added to favorites.")
		} else {
			fmt.Println("Removed from favorites.")
		}
		return nil
	},
}

// rate command
var rateCmd = &cobra.Command{
	Use:   "rate RECIPE_ID SCORE",
	Short: "Rate a recipe from 0 to 10",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		score, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("score must be a number: %w", err)
		}

		a, err := startApp(cmd.Context(), "RateRecipe")
		if err != nil {
			return err
		}
		defer a.Close()

		avg, err := a.RateRecipe(cmd.Context(), args[0], score)
		if err := saved(err); err != nil {
			return fmt.Errorf("rating recipe: %w", err)
		}
		fmt.Printf("Average rating: %s (%d)\n", avg, avg.Count)
		return nil
	},
}

// draftFromFlags overlays the flags that were set on base.
func draftFromFlags(cmd *cobra.Command, base mad.RecipeDraft) mad.RecipeDraft {
	flags := cmd.Flags()
	if flags.Changed("title") {
		base.Title, _ = flags.GetString("title")
	}
	if flags.Changed("instructions") {
		base.Instructions, _ = flags.GetString("instructions")
	}
	if flags.Changed("notes") {
		base.Notes, _ = flags.GetString("notes")
	}
	if flags.Changed("prep-time") {
		base.PrepTime, _ = flags.GetInt("prep-time")
	}
	if flags.Changed("category") {
		base.CategoryIDs, _ = flags.GetStringSlice("category")
	}
	if flags.Changed("image") {
		base.Images, _ = flags.GetStringArray("image")
	}
	if flags.Changed("ingredient") {
		raw, _ := flags.GetStringArray("ingredient")
		var rows []mad.IngredientDraft
		for _, s := range raw {
			name, amount, _ := strings.Cut(s, "=")
			rows = append(rows, mad.IngredientDraft{
				Name:   strings.TrimSpace(name),
				Amount: strings.TrimSpace(amount),
			})
		}
		base.Ingredients = mad.KeepIngredientIDs(base.Ingredients, rows)
	}
	return base
}

func printRecipes(b model.Bundle, recipes []model.Recipe) {
	if len(recipes) == 0 {
		fmt.Println("No recipes found.")
		return
	}
	for _, r := range recipes {
		fmt.Printf("%s\t%s\t%d min\t%s\t%s\n",
			r.ID, r.Title, r.PrepTime, model.AverageRating(r), strings.Join(b.CategoryNames(r), ", "))
	}
}

func addRecipeFlags(cmd *cobra.Command) {
	cmd.Flags().String("title", "", "Recipe title")
	cmd.Flags().String("instructions", "", "Preparation instructions")
	cmd.Flags().String("notes", "", "Free-form notes")
	cmd.Flags().Int("prep-time", 0, "Preparation time in minutes")
	cmd.Flags().StringSlice("category", nil, "Category ID (repeatable)")
	cmd.Flags().StringArray("image", nil, "Image URL (repeatable)")
	cmd.Flags().StringArray("ingredient", nil, "Ingredient as NAME=AMOUNT (repeatable)")
}

func addDataCommands() {
	userCmd.AddCommand(userAddCmd)
	userAddCmd.Flags().String("avatar", "", "Avatar image URL")
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userDeleteCmd)
	userCmd.AddCommand(userSelectCmd)
	userCmd.AddCommand(userShowCmd)
	userShowCmd.Flags().String("category", search.AllCategories, "Only show favorites in this category ID, or \"all\"")

	categoryCmd.AddCommand(categoryAddCmd)
	categoryCmd.AddCommand(categoryListCmd)
	categoryCmd.AddCommand(categoryDeleteCmd)

	recipeCmd.AddCommand(recipeAddCmd)
	addRecipeFlags(recipeAddCmd)
	recipeCmd.AddCommand(recipeEditCmd)
	addRecipeFlags(recipeEditCmd)
	recipeCmd.AddCommand(recipeListCmd)
	recipeListCmd.Flags().String("category", search.AllCategories, "Category ID, or \"all\"")
	recipeListCmd.Flags().Int("max-time", 0, fmt.Sprintf("Maximum prep time in minutes, e.g. %v (0 for any)", search.TimeOptions))
	recipeListCmd.Flags().String("where", "", "Filter expression, e.g. 'PrepTime < 30 && \"Dinner\" in Categories'")
	recipeListCmd.Flags().IntP("page", "p", 1, "Page number")
	recipeCmd.AddCommand(recipeShowCmd)

	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(categoryCmd)
	rootCmd.AddCommand(recipeCmd)
	rootCmd.AddCommand(favoriteCmd)
	rootCmd.AddCommand(rateCmd)
}
