package mad

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"btmad/internal/model"
	"btmad/internal/state"
)

// Service is the orchestration layer between callers, the state container
// and the persistence adapter. Every mutation is applied to memory first and
// then written through to the store as a full document.
type Service struct {
	container *state.Container
	store     Store
	logger    Logger
	clock     Clock
	idgen     IDGenerator
	validate  *validator.Validate
}

// NewService creates a Service with an empty aggregate. Call Start to load
// stored data.
func NewService(store Store, logger Logger, clock Clock, idgen IDGenerator) *Service {
	return &Service{
		container: state.NewContainer(model.State{Bundle: model.NewBundle()}),
		store:     store,
		logger:    logger,
		clock:     clock,
		idgen:     idgen,
		validate:  newValidator(),
	}
}

// Start loads the stored aggregate into the container. A store with no data
// yields an empty aggregate.
func (s *Service) Start(ctx context.Context) (model.State, error) {
	loaded, err := s.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return s.container.Current(), err
		}
		s.logger.Info("no stored data, starting empty", "store", s.store.Name())
		loaded = model.State{Bundle: model.NewBundle()}
	}

	next, err := s.container.Dispatch(state.LoadState{State: loaded})
	if err != nil {
		return next, fmt.Errorf("loading state: %w", err)
	}
	s.logger.Info("state loaded", "store", s.store.Name(),
		"recipes", len(next.Recipes), "users", len(next.Users), "categories", len(next.Categories))
	return next, nil
}

// State returns the current aggregate.
func (s *Service) State() model.State {
	return s.container.Current()
}

// Subscribe registers l for every successful mutation.
func (s *Service) Subscribe(l state.Listener) (unsubscribe func()) {
	return s.container.Subscribe(l)
}

// Apply dispatches a and then persists the resulting aggregate. When the
// write fails the new state is still returned and kept in memory; the error
// wraps ErrSave and Persist may be called to retry.
func (s *Service) Apply(ctx context.Context, a state.Action) (model.State, error) {
	next, err := s.container.Dispatch(a)
	if err != nil {
		return next, fmt.Errorf("applying %s: %w", a.Name(), err)
	}
	if !state.Persistent(a) {
		return next, nil
	}
	return next, s.persist(ctx, a, next)
}

// ApplyAsync dispatches a synchronously and persists on a separate goroutine.
// The returned channel receives the save result and is then closed. Writes
// are neither queued nor coalesced: concurrent saves race and the last one to
// complete wins.
func (s *Service) ApplyAsync(ctx context.Context, a state.Action) (model.State, <-chan error) {
	done := make(chan error, 1)

	next, err := s.container.Dispatch(a)
	if err != nil {
		done <- fmt.Errorf("applying %s: %w", a.Name(), err)
		close(done)
		return next, done
	}
	if !state.Persistent(a) {
		close(done)
		return next, done
	}

	go func() {
		defer close(done)
		if err := s.persist(ctx, a, next); err != nil {
			done <- err
		}
	}()
	return next, done
}

// Persist writes the current aggregate to the store.
func (s *Service) Persist(ctx context.Context) error {
	return s.save(ctx, s.container.Current())
}

// persist writes st after a. A selection change on a store that implements
// SelectionSaver writes only the selection.
func (s *Service) persist(ctx context.Context, a state.Action, st model.State) error {
	if sel, ok := a.(state.SetCurrentUser); ok {
		if saver, ok := s.store.(SelectionSaver); ok {
			if err := saver.SaveSelection(ctx, sel.UserID); err != nil {
				s.logger.Error("saving selection failed", "store", s.store.Name(), "error", err)
				if errors.Is(err, ErrSave) {
					return err
				}
				return fmt.Errorf("%w: %w", ErrSave, err)
			}
			s.logger.Debug("selection saved", "store", s.store.Name())
			return nil
		}
	}
	return s.save(ctx, st)
}

func (s *Service) save(ctx context.Context, st model.State) error {
	if err := s.store.Save(ctx, st); err != nil {
		s.logger.Error("save failed", "store", s.store.Name(), "error", err)
		if errors.Is(err, ErrSave) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrSave, err)
	}
	s.logger.Debug("state saved", "store", s.store.Name())
	return nil
}

// SaveRecipe validates draft and either creates a new recipe (existingID
// empty) authored by the selected user, or replaces the recipe existingID in
// place, preserving its id, author, ratings and creation time.
func (s *Service) SaveRecipe(ctx context.Context, draft RecipeDraft, existingID string) (model.Recipe, error) {
	if err := validateDraft(s.validate, draft); err != nil {
		return model.Recipe{}, err
	}
	current := s.container.Current()

	recipe := model.Recipe{
		Title:        draft.Title,
		Images:       nonEmpty(draft.Images),
		PrepTime:     draft.PrepTime,
		Ingredients:  s.ingredients(draft.Ingredients),
		Instructions: draft.Instructions,
		Notes:        draft.Notes,
		CategoryIDs:  append([]string{}, draft.CategoryIDs...),
	}

	var action state.Action
	if existingID == "" {
		user, ok := current.CurrentUser()
		if !ok {
			return model.Recipe{}, ErrNoCurrentUser
		}
		recipe.ID = recipePrefix + s.idgen.New()
		recipe.AuthorID = user.ID
		recipe.Ratings = []model.Rating{}
		recipe.CreatedAt = s.clock.Now().UTC()
		action = state.AddRecipe{Recipe: recipe}
	} else {
		existing, ok := current.Recipe(existingID)
		if !ok {
			return model.Recipe{}, fmt.Errorf("recipe %s: %w", existingID, ErrNotFound)
		}
		recipe.ID = existing.ID
		recipe.AuthorID = existing.AuthorID
		recipe.Ratings = existing.Ratings
		recipe.CreatedAt = existing.CreatedAt
		action = state.UpdateRecipe{Recipe: recipe}
	}

	if _, err := s.Apply(ctx, action); err != nil {
		return recipe, err
	}
	s.logger.Info("recipe saved", "id", recipe.ID, "title", recipe.Title, "new", existingID == "")
	return recipe, nil
}

// ingredients drops rows whose name is only whitespace and assigns ids to
// rows that lack one.
func (s *Service) ingredients(drafts []IngredientDraft) []model.Ingredient {
	out := []model.Ingredient{}
	for _, d := range drafts {
		if strings.TrimSpace(d.Name) == "" {
			continue
		}
		id := d.ID
		if id == "" {
			id = ingredientPrefix + s.idgen.New()
		}
		out = append(out, model.Ingredient{ID: id, Name: d.Name, Amount: d.Amount})
	}
	return out
}

// AddUser creates a user profile. An empty avatar gets a placeholder image.
func (s *Service) AddUser(ctx context.Context, draft UserDraft) (model.User, error) {
	if err := validateDraft(s.validate, draft); err != nil {
		return model.User{}, err
	}
	user := model.User{
		ID:        userPrefix + s.idgen.New(),
		Name:      draft.Name,
		Avatar:    draft.Avatar,
		Favorites: []string{},
	}
	if user.Avatar == "" {
		user.Avatar = DefaultAvatar(user.Name)
	}
	if _, err := s.Apply(ctx, state.AddUser{User: user}); err != nil {
		return user, err
	}
	s.logger.Info("user added", "id", user.ID, "name", user.Name)
	return user, nil
}

// DeleteUser removes a user profile. Recipes they authored are kept.
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	if _, ok := s.container.Current().User(userID); !ok {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	_, err := s.Apply(ctx, state.DeleteUser{UserID: userID})
	return err
}

// SelectUser makes userID the current user.
func (s *Service) SelectUser(ctx context.Context, userID string) error {
	if _, ok := s.container.Current().User(userID); !ok {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	_, err := s.Apply(ctx, state.SetCurrentUser{UserID: userID})
	return err
}

// AddCategory creates a category.
func (s *Service) AddCategory(ctx context.Context, draft CategoryDraft) (model.Category, error) {
	if err := validateDraft(s.validate, draft); err != nil {
		return model.Category{}, err
	}
	category := model.Category{ID: categoryPrefix + s.idgen.New(), Name: draft.Name}
	if _, err := s.Apply(ctx, state.AddCategory{Category: category}); err != nil {
		return category, err
	}
	s.logger.Info("category added", "id", category.ID, "name", category.Name)
	return category, nil
}

// DeleteCategory removes a category. Recipes keep their references to it.
func (s *Service) DeleteCategory(ctx context.Context, categoryID string) error {
	if _, ok := s.container.Current().Category(categoryID); !ok {
		return fmt.Errorf("category %s: %w", categoryID, ErrNotFound)
	}
	_, err := s.Apply(ctx, state.DeleteCategory{CategoryID: categoryID})
	return err
}

// ToggleFavorite flips recipeID in the selected user's favorites and reports
// whether it is now a favorite.
func (s *Service) ToggleFavorite(ctx context.Context, recipeID string) (bool, error) {
	user, err := s.currentUser()
	if err != nil {
		return false, err
	}
	if _, ok := s.container.Current().Recipe(recipeID); !ok {
		return false, fmt.Errorf("recipe %s: %w", recipeID, ErrNotFound)
	}

	next, err := s.Apply(ctx, state.ToggleFavorite{UserID: user.ID, RecipeID: recipeID})
	updated, _ := next.User(user.ID)
	return updated.IsFavorite(recipeID), err
}

// RateRecipe records the selected user's score for recipeID, replacing any
// earlier score from the same user.
func (s *Service) RateRecipe(ctx context.Context, recipeID string, score int) (model.Average, error) {
	user, err := s.currentUser()
	if err != nil {
		return model.Average{}, err
	}
	if score < state.MinScore || score > state.MaxScore {
		return model.Average{}, fmt.Errorf("%w: score must be between %d and %d", ErrValidation, state.MinScore, state.MaxScore)
	}
	if _, ok := s.container.Current().Recipe(recipeID); !ok {
		return model.Average{}, fmt.Errorf("recipe %s: %w", recipeID, ErrNotFound)
	}

	next, err := s.Apply(ctx, state.RateRecipe{UserID: user.ID, RecipeID: recipeID, Score: score})
	recipe, _ := next.Recipe(recipeID)
	return model.AverageRating(recipe), err
}

func (s *Service) currentUser() (model.User, error) {
	user, ok := s.container.Current().CurrentUser()
	if !ok {
		return model.User{}, ErrNoCurrentUser
	}
	return user, nil
}

func nonEmpty(in []string) []string {
	out := []string{}
	for _, v := range in {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
