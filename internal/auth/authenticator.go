// Package auth implements sign-in for the admin project browser.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/waabox/sitedeck/internal/domain"
)

// ErrMissingCredentials is returned by Login when email or password is blank.
var ErrMissingCredentials = errors.New("email and password are required")

// PasswordAuthenticator signs in with the OAuth2 resource-owner password grant.
// It starts in the loading state until Restore has run.
type PasswordAuthenticator struct {
	oauth  *oauth2.Config
	tokens *TokenManager
	logger *slog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	loading bool
	user    *domain.User
}

var _ domain.Authenticator = (*PasswordAuthenticator)(nil)

// NewPasswordAuthenticator creates an authenticator. logger may be nil.
func NewPasswordAuthenticator(oauthCfg *oauth2.Config, tokens *TokenManager, logger *slog.Logger) *PasswordAuthenticator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PasswordAuthenticator{
		oauth:   oauthCfg,
		tokens:  tokens,
		logger:  logger,
		now:     time.Now,
		loading: true,
	}
}

// Restore resumes a stored session. Expired sessions are refreshed when a
// refresh token is available and discarded otherwise.
func (a *PasswordAuthenticator) Restore(ctx context.Context) error {
	defer a.finishLoading()

	stored, err := a.tokens.Load()
	if err != nil {
		return err
	}
	if stored.AccessToken == "" {
		return nil
	}

	claims, err := ParseClaims(identityToken(stored))
	if err != nil {
		// Opaque token: nothing to inspect, let the backend decide.
		a.setUser(domain.User{Email: stored.Email, Role: DefaultRole})
		return nil
	}
	if !claims.Expired(a.now()) {
		a.setUser(claims.User(stored.Email))
		return nil
	}

	if stored.RefreshToken != "" {
		if _, rerr := a.tokens.Refresh(ctx); rerr == nil {
			if claims, err := ParseClaims(identityToken(a.tokens.Tokens())); err == nil {
				a.setUser(claims.User(stored.Email))
				return nil
			}
		}
	}

	a.logger.Info("stored session discarded")
	if cerr := a.tokens.Clear(); cerr != nil {
		return cerr
	}
	return nil
}

// Login exchanges credentials for tokens. A nil error means the user is signed in.
func (a *PasswordAuthenticator) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return ErrMissingCredentials
	}
	if a.oauth == nil || a.oauth.Endpoint.TokenURL == "" {
		return fmt.Errorf("sign-in is not configured: set auth.token_url")
	}

	tok, err := a.oauth.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) {
			status := ""
			if rerr.Response != nil {
				status = rerr.Response.Status
			}
			return fmt.Errorf("sign-in rejected: %s", firstNonBlank(rerr.ErrorDescription, rerr.ErrorCode, status))
		}
		return fmt.Errorf("signing in: %w", err)
	}

	t := tokensFrom(tok, email)
	user := domain.User{Email: email, Role: DefaultRole}
	if claims, err := ParseClaims(identityToken(t)); err == nil {
		user = claims.User(email)
	}
	a.setUser(user)
	if err := a.tokens.Set(t); err != nil {
		a.logger.Warn("signed in but session not persisted", "error", err)
	}
	a.logger.Info("signed in", "email", user.Email)
	return nil
}

// Logout forgets the session. Local state is cleared even if the store fails.
func (a *PasswordAuthenticator) Logout(_ context.Context) error {
	a.mu.Lock()
	a.user = nil
	a.mu.Unlock()
	return a.tokens.Clear()
}

func (a *PasswordAuthenticator) IsAuthenticated() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.user != nil
}

func (a *PasswordAuthenticator) IsLoading() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.loading
}

func (a *PasswordAuthenticator) CurrentUser() (domain.User, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.user == nil {
		return domain.User{}, false
	}
	return *a.user, true
}

func (a *PasswordAuthenticator) setUser(u domain.User) {
	a.mu.Lock()
	a.user = &u
	a.mu.Unlock()
}

func (a *PasswordAuthenticator) finishLoading() {
	a.mu.Lock()
	a.loading = false
	a.mu.Unlock()
}

// identityToken prefers the ID token, which carries the email claim on most providers.
func identityToken(t Tokens) string {
	if t.IDToken != "" {
		return t.IDToken
	}
	return t.AccessToken
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return "unknown error"
}
