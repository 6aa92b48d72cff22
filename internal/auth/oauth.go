package auth

import (
	"golang.org/x/oauth2"

	"github.com/waabox/sitedeck/internal/config"
)

// NewOAuthConfig builds the OAuth2 client from the [auth] config section.
func NewOAuthConfig(cfg config.AuthConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       cfg.Scopes,
		Endpoint: oauth2.Endpoint{
			TokenURL: cfg.TokenURL,
		},
	}
}
