package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// TokenManager holds the current tokens, refreshes them silently and persists
// every change through a TokenStore.
type TokenManager struct {
	oauth  *oauth2.Config
	store  TokenStore
	logger *slog.Logger

	mu       sync.Mutex
	tokens   Tokens
	listener func(accessToken string)
}

// NewTokenManager creates a TokenManager. logger may be nil.
func NewTokenManager(oauthCfg *oauth2.Config, store TokenStore, logger *slog.Logger) *TokenManager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &TokenManager{oauth: oauthCfg, store: store, logger: logger}
}

// OnChange registers fn to receive the access token after every change,
// including the empty token on Clear.
func (tm *TokenManager) OnChange(fn func(accessToken string)) {
	tm.mu.Lock()
	tm.listener = fn
	tm.mu.Unlock()
}

// Load reads the stored tokens into memory.
func (tm *TokenManager) Load() (Tokens, error) {
	t, err := tm.store.Load()
	if err != nil {
		return Tokens{}, fmt.Errorf("loading stored tokens: %w", err)
	}
	tm.set(t)
	return t, nil
}

// Tokens returns the current tokens.
func (tm *TokenManager) Tokens() Tokens {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return tm.tokens
}

// AccessToken returns the current access token, or "" when signed out.
func (tm *TokenManager) AccessToken() string {
	return tm.Tokens().AccessToken
}

// Set replaces the tokens and persists them. The in-memory value is updated
// even when persisting fails.
func (tm *TokenManager) Set(t Tokens) error {
	tm.set(t)
	if err := tm.store.Save(t); err != nil {
		return fmt.Errorf("saving tokens: %w", err)
	}
	return nil
}

// Clear forgets the tokens in memory and in the store.
func (tm *TokenManager) Clear() error {
	tm.set(Tokens{})
	if err := tm.store.Clear(); err != nil {
		return fmt.Errorf("clearing stored tokens: %w", err)
	}
	return nil
}

// Refresh exchanges the refresh token for a new access token.
// On success the new tokens are stored; a failure to persist them is logged
// since the token is still usable for this run.
func (tm *TokenManager) Refresh(ctx context.Context) (string, error) {
	current := tm.Tokens()
	if current.RefreshToken == "" {
		return "", fmt.Errorf("no refresh token available")
	}
	if tm.oauth == nil {
		return "", fmt.Errorf("token refresh is not configured")
	}

	expired := &oauth2.Token{RefreshToken: current.RefreshToken, Expiry: time.Now().Add(-time.Minute)}
	tok, err := tm.oauth.TokenSource(ctx, expired).Token()
	if err != nil {
		return "", fmt.Errorf("refreshing token: %w", err)
	}

	next := tokensFrom(tok, current.Email)
	if next.RefreshToken == "" {
		next.RefreshToken = current.RefreshToken
	}
	if next.IDToken == "" {
		next.IDToken = current.IDToken
	}
	if err := tm.Set(next); err != nil {
		tm.logger.Warn("token refreshed but not persisted", "error", err)
	}
	return next.AccessToken, nil
}

func (tm *TokenManager) set(t Tokens) {
	tm.mu.Lock()
	tm.tokens = t
	listener := tm.listener
	tm.mu.Unlock()
	if listener != nil {
		listener(t.AccessToken)
	}
}

func tokensFrom(tok *oauth2.Token, email string) Tokens {
	t := Tokens{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Email:        email,
	}
	if id, ok := tok.Extra("id_token").(string); ok {
		t.IDToken = id
	}
	return t
}
