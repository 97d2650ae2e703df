// Package auth drives the identity provider: device-flow sign-in, a cached
// and refreshed access token, and revocation.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/oauth2"

	"btmad/internal/config"
	"btmad/internal/kv"
	"btmad/internal/mad"
)

// Status is the observable state of a Session.
type Status int

const (
	NoSession Status = iota
	HasSession
)

func (s Status) String() string {
	if s == HasSession {
		return "signed in"
	}
	return "signed out"
}

// Prompt shows the user where to approve the sign-in.
type Prompt func(verificationURL, userCode string)

// Session holds the access token for one local profile. It implements
// oauth2.TokenSource, refreshing when needed and writing refreshed tokens
// back to the encrypted cache. Safe for concurrent use.
type Session struct {
	oauth     *oauth2.Config
	revokeURL string
	kv        KeyValue
	enc       mad.Encryptor
	logger    mad.Logger
	client    *http.Client

	mu    sync.Mutex
	token *oauth2.Token
}

var _ oauth2.TokenSource = (*Session)(nil)

// NewSession creates a signed-out session. Call Init to restore a cached token.
func NewSession(cfg config.AuthConfig, creds Credentials, store KeyValue, enc mad.Encryptor, logger mad.Logger) *Session {
	return &Session{
		oauth: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				DeviceAuthURL: cfg.DeviceAuthURL,
				TokenURL:      cfg.TokenURL,
				AuthStyle:     oauth2.AuthStyleInParams,
			},
		},
		revokeURL: cfg.RevokeURL,
		kv:        store,
		enc:       enc,
		logger:    logger,
		client:    http.DefaultClient,
	}
}

// WithHTTPClient sets the client used to talk to the identity provider.
func (s *Session) WithHTTPClient(c *http.Client) *Session {
	s.client = c
	return s
}

// Init restores a cached token, if any. A cache that cannot be decrypted or
// parsed is discarded and the session stays signed out.
func (s *Session) Init(context.Context) error {
	raw, ok, err := s.kv.Get(kv.KeyToken)
	if err != nil {
		return fmt.Errorf("reading cached token: %w", err)
	}
	if !ok {
		return nil
	}

	tok, err := s.decodeToken(raw)
	if err != nil {
		s.logger.Warn("discarding unreadable cached token", "error", err)
		return s.kv.Delete(kv.KeyToken)
	}

	s.mu.Lock()
	s.token = tok
	s.mu.Unlock()
	return nil
}

// Status reports whether a token is held.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == nil {
		return NoSession
	}
	return HasSession
}

// SignIn runs the device authorization flow unless a session already exists.
// It blocks until the user approves, the code expires or ctx is done.
func (s *Session) SignIn(ctx context.Context, prompt Prompt) error {
	if s.Status() == HasSession {
		return nil
	}
	ctx = s.withClient(ctx)

	da, err := s.oauth.DeviceAuth(ctx)
	if err != nil {
		return fmt.Errorf("%w: requesting device code: %w", mad.ErrAuthorization, err)
	}
	prompt(da.VerificationURI, da.UserCode)

	tok, err := s.oauth.DeviceAccessToken(ctx, da)
	if err != nil {
		return fmt.Errorf("%w: waiting for approval: %w", mad.ErrAuthorization, err)
	}

	s.mu.Lock()
	s.token = tok
	s.mu.Unlock()

	if err := s.storeToken(tok); err != nil {
		return err
	}
	s.logger.Info("signed in", "expiry", tok.Expiry)
	return nil
}

// Token returns a valid access token, refreshing it if it has expired.
func (s *Session) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == nil {
		return nil, fmt.Errorf("%w: not signed in", mad.ErrAuthorization)
	}
	if s.token.Valid() {
		return s.token, nil
	}

	tok, err := s.oauth.TokenSource(s.withClient(context.Background()), s.token).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: refreshing token: %w", mad.ErrAuthorization, err)
	}
	if tok.AccessToken != s.token.AccessToken {
		if err := s.storeToken(tok); err != nil {
			s.logger.Warn("could not cache refreshed token", "error", err)
		}
	}
	s.token = tok
	return tok, nil
}

// Client returns an HTTP client that authorizes requests with this session.
// The token is fetched on first use, so the client can be built before
// sign-in completes.
func (s *Session) Client(ctx context.Context) *http.Client {
	return oauth2.NewClient(s.withClient(ctx), s)
}

// Revoke revokes the token at the provider and clears the cache. The local
// session is cleared even when the provider call fails.
func (s *Session) Revoke(ctx context.Context) error {
	s.mu.Lock()
	tok := s.token
	s.token = nil
	s.mu.Unlock()

	if err := s.kv.Delete(kv.KeyToken); err != nil {
		return fmt.Errorf("clearing cached token: %w", err)
	}
	if tok == nil || s.revokeURL == "" {
		return nil
	}

	value := tok.AccessToken
	if tok.RefreshToken != "" {
		value = tok.RefreshToken
	}
	form := url.Values{"token": {value}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: building revoke request: %w", mad.ErrAuthorization, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: revoking token: %w", mad.ErrAuthorization, err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: revoke returned %s", mad.ErrAuthorization, resp.Status)
	}
	s.logger.Info("token revoked")
	return nil
}

func (s *Session) withClient(ctx context.Context) context.Context {
	if s.client == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, s.client)
}

func (s *Session) storeToken(tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}
	if err := s.enc.Setup(); err != nil {
		return fmt.Errorf("preparing token encryption: %w", err)
	}
	sealed, err := s.enc.Encrypt(data)
	if err != nil {
		return fmt.Errorf("encrypting token: %w", err)
	}
	if err := s.kv.Set(kv.KeyToken, string(sealed)); err != nil {
		return fmt.Errorf("caching token: %w", err)
	}
	return nil
}

func (s *Session) decodeToken(raw string) (*oauth2.Token, error) {
	data, err := s.enc.Decrypt([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("decrypting token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, errors.New("cached token is empty")
	}
	return &tok, nil
}
