package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"btmad/internal/auth"
	"btmad/internal/config"
	"btmad/internal/encryption"
	"btmad/internal/kv"
	"btmad/internal/mad"
	"btmad/internal/model"
	"btmad/internal/search"
	"btmad/internal/storage"
)

// ErrNotSignedIn is returned when a drive-backed command runs before login.
var ErrNotSignedIn = fmt.Errorf("%w: not signed in, run \"btmad login\"", mad.ErrAuthorization)

// MadApp is the application layer between the CLI and mad.Service.
// It constructs all dependencies from config, exposes high-level operations
// and manages the local database lifecycle on Close.
type MadApp struct {
	cfg       *config.Config
	kv        *kv.Store
	encryptor mad.Encryptor
	logger    *slogAdapter
	logFile   *os.File
	op        *Operation

	// Populated by connect.
	session *auth.Session
	store   mad.Store
	service *mad.Service

	providerClient *http.Client
}

// Option customizes a MadApp.
type Option func(*options)

type options struct {
	stderr         io.Writer
	providerClient *http.Client
}

// WithStderr mirrors log output to w instead of os.Stderr. A nil w disables
// the mirror.
func WithStderr(w io.Writer) Option {
	return func(o *options) { o.stderr = w }
}

// WithProviderClient sets the HTTP client used to reach the identity
// provider.
func WithProviderClient(c *http.Client) Option {
	return func(o *options) { o.providerClient = c }
}

// NewMadApp opens local storage and the logger for cfg. Remote subsystems
// are initialized on first use. operation identifies the CLI command being
// run (e.g. "AddRecipe", "Login"). The caller must call Close when done.
func NewMadApp(cfg *config.Config, operation string, opts ...Option) (*MadApp, error) {
	o := options{stderr: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	store, err := kv.Open(cfg.Local.Path)
	if err != nil {
		return nil, fmt.Errorf("opening local storage: %w", err)
	}
	if err := store.CheckMigrations(); err != nil {
		store.Close()
		return nil, fmt.Errorf("checking local storage: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	op := NewOperation(operation, time.Now())
	logger, logFile, err := newLogger(cfg.LogDir, op.ID, o.stderr)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	return &MadApp{
		cfg:            cfg,
		kv:             store,
		encryptor:      enc,
		logger:         &slogAdapter{l: logger},
		logFile:        logFile,
		op:             op,
		providerClient: o.providerClient,
	}, nil
}

// connect builds the store. For drive, the authorization session and the
// document API client are initialized concurrently and no data operation is
// attempted until both are ready.
func (a *MadApp) connect(ctx context.Context) error {
	if a.service != nil {
		return nil
	}

	deps := storage.Deps{KV: a.kv, Logger: a.logger}
	if storage.Remote(a.cfg.Store) {
		if err := a.connectRemote(ctx, &deps); err != nil {
			return err
		}
	}

	store, err := storage.NewStoreFromConfig(ctx, a.cfg.Store, deps)
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	a.store = store
	a.service = mad.NewService(store, a.logger, mad.RealClock{}, mad.UUIDGenerator{})
	return nil
}

func (a *MadApp) connectRemote(ctx context.Context, deps *storage.Deps) error {
	if a.cfg.Store.Type == "drive" {
		creds, err := auth.LoadCredentials(a.kv)
		if err != nil {
			return fmt.Errorf("loading credentials: %w", err)
		}
		a.session = auth.NewSession(a.cfg.Auth, creds, a.kv, a.encryptor, a.logger)
		if a.providerClient != nil {
			a.session.WithHTTPClient(a.providerClient)
		}
		deps.HTTPClient = a.session.Client(ctx)
		deps.APIKey = creds.APIKey
	}

	g, gctx := errgroup.WithContext(ctx)
	if a.session != nil {
		g.Go(func() error {
			if err := a.session.Init(gctx); err != nil {
				return fmt.Errorf("initializing session: %w", err)
			}
			return nil
		})
	}
	var docs storage.Documents
	g.Go(func() error {
		var err error
		if docs, err = storage.NewDocumentsFromConfig(gctx, a.cfg.Store, *deps); err != nil {
			return fmt.Errorf("initializing document client: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	deps.Documents = docs
	a.logger.Debug("remote subsystems ready", "store", a.cfg.Store.Type)
	return nil
}

// Start connects and loads the stored aggregate.
func (a *MadApp) Start(ctx context.Context) (model.State, error) {
	if err := a.op.Track(a.connect(ctx)); err != nil {
		return model.State{}, err
	}
	if a.session != nil && a.session.Status() == auth.NoSession {
		return model.State{}, a.op.Track(ErrNotSignedIn)
	}
	st, err := a.service.Start(ctx)
	return st, a.op.Track(err)
}

// Service returns the service. Valid after Start.
func (a *MadApp) Service() *mad.Service { return a.service }

// State returns the current aggregate. Valid after Start.
func (a *MadApp) State() model.State { return a.service.State() }

// StoreName names the active store, e.g. "local" or "remote:BTMad.data.json".
func (a *MadApp) StoreName() string {
	if a.store == nil {
		return a.cfg.Store.Type
	}
	return a.store.Name()
}

// AddUser creates a user profile.
func (a *MadApp) AddUser(ctx context.Context, name, avatar string) (model.User, error) {
	u, err := a.service.AddUser(ctx, mad.UserDraft{Name: name, Avatar: avatar})
	return u, a.op.Track(err)
}

// DeleteUser removes a user profile.
func (a *MadApp) DeleteUser(ctx context.Context, userID string) error {
	return a.op.Track(a.service.DeleteUser(ctx, userID))
}

// SelectUser makes userID the current user.
func (a *MadApp) SelectUser(ctx context.Context, userID string) error {
	return a.op.Track(a.service.SelectUser(ctx, userID))
}

// AddCategory creates a category.
func (a *MadApp) AddCategory(ctx context.Context, name string) (model.Category, error) {
	c, err := a.service.AddCategory(ctx, mad.CategoryDraft{Name: name})
	return c, a.op.Track(err)
}

// DeleteCategory removes a category.
func (a *MadApp) DeleteCategory(ctx context.Context, categoryID string) error {
	return a.op.Track(a.service.DeleteCategory(ctx, categoryID))
}

// SaveRecipe creates (existingID empty) or replaces a recipe.
func (a *MadApp) SaveRecipe(ctx context.Context, draft mad.RecipeDraft, existingID string) (model.Recipe, error) {
	r, err := a.service.SaveRecipe(ctx, draft, existingID)
	return r, a.op.Track(err)
}

// ToggleFavorite flips recipeID in the current user's favorites.
func (a *MadApp) ToggleFavorite(ctx context.Context, recipeID string) (bool, error) {
	fav, err := a.service.ToggleFavorite(ctx, recipeID)
	return fav, a.op.Track(err)
}

// RateRecipe records the current user's score for recipeID.
func (a *MadApp) RateRecipe(ctx context.Context, recipeID string, score int) (model.Average, error) {
	avg, err := a.service.RateRecipe(ctx, recipeID, score)
	return avg, a.op.Track(err)
}

// Query describes a recipe search.
type Query struct {
	Filter   search.Filter
	Where    string // optional expression, see search.Env
	Page     int    // 1-based
	PageSize int
}

// Results is one page of a recipe search.
type Results struct {
	Recipes []model.Recipe
	Total   int
	Page    int
	Pages   int
}

// Search filters the recipe list and returns the requested page.
func (a *MadApp) Search(q Query) (Results, error) {
	st := a.service.State()
	recipes := q.Filter.Apply(st.Recipes)
	if q.Where != "" {
		where, err := search.Compile(q.Where)
		if err != nil {
			return Results{}, a.op.Track(err)
		}
		if recipes, err = where.Apply(st.Bundle, recipes); err != nil {
			return Results{}, a.op.Track(err)
		}
	}

	page := max(q.Page, 1)
	return Results{
		Recipes: search.Page(recipes, page, q.PageSize),
		Total:   len(recipes),
		Page:    page,
		Pages:   search.Pages(len(recipes), q.PageSize),
	}, nil
}

// Login signs in through the device flow. prompt shows the verification URL
// and code to the user.
func (a *MadApp) Login(ctx context.Context, prompt auth.Prompt) error {
	if err := a.op.Track(a.connect(ctx)); err != nil {
		return err
	}
	if a.session == nil {
		return a.op.Track(fmt.Errorf("store type %s does not use sign-in", a.cfg.Store.Type))
	}
	return a.op.Track(a.session.SignIn(ctx, prompt))
}

// Logout revokes the session and clears the cached token.
func (a *MadApp) Logout(ctx context.Context) error {
	if err := a.op.Track(a.connect(ctx)); err != nil {
		return err
	}
	if a.session == nil {
		return nil
	}
	return a.op.Track(a.session.Revoke(ctx))
}

// SessionStatus reports whether a token is cached. Stores without sign-in
// report auth.NoSession.
func (a *MadApp) SessionStatus(ctx context.Context) (auth.Status, error) {
	if a.cfg.Store.Type != "drive" {
		return auth.NoSession, nil
	}
	if err := a.connect(ctx); err != nil {
		if errors.Is(err, mad.ErrNotConfigured) {
			return auth.NoSession, nil
		}
		return auth.NoSession, err
	}
	return a.session.Status(), nil
}

// Credentials returns the stored credentials. A partial set is returned
// together with mad.ErrNotConfigured.
func (a *MadApp) Credentials() (auth.Credentials, error) {
	return auth.LoadCredentials(a.kv)
}

// SetCredentials stores credentials locally.
func (a *MadApp) SetCredentials(c auth.Credentials) error {
	return a.op.Track(auth.SaveCredentials(a.kv, c))
}

// ClearCredentials removes stored credentials and the cached token.
func (a *MadApp) ClearCredentials() error {
	return a.op.Track(auth.ClearCredentials(a.kv))
}

// Reset clears everything kept in local storage: credentials, the cached
// token, the selected user and the local aggregate.
func (a *MadApp) Reset() error {
	if err := a.op.Track(a.kv.Clear()); err != nil {
		return fmt.Errorf("clearing local storage: %w", err)
	}
	a.logger.Info("local storage cleared", "path", a.kv.Path())
	return nil
}

// Close logs the operation outcome and closes all resources.
func (a *MadApp) Close() error {
	a.logger.Info("operation finished", "operation", a.op.Name, "status", a.op.Status,
		"duration", time.Since(a.op.StartedAt).Round(time.Millisecond))

	var firstErr error
	if err := a.kv.Close(); err != nil {
		firstErr = fmt.Errorf("closing local storage: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
