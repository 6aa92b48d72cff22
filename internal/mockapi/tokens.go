package mockapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// accessTTL is the lifetime of issued access tokens.
const accessTTL = time.Hour

type tokenClaims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// issuer signs tokens for the password and refresh_token grants.
type issuer struct {
	secret []byte
	users  map[string]string
	now    func() time.Time

	mu      sync.Mutex
	refresh map[string]string // refresh token -> email
}

func newIssuer(users map[string]string, now func() time.Time) *issuer {
	return &issuer{
		secret:  []byte(uuid.NewString()),
		users:   users,
		now:     now,
		refresh: make(map[string]string),
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

func (i *issuer) issue(email string, withRefresh bool) (tokenResponse, error) {
	now := i.now()
	claims := tokenClaims{
		Email: email,
		Role:  "super-admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewSHA1(uuid.NameSpaceURL, []byte(email)).String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(accessTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return tokenResponse{}, fmt.Errorf("signing token: %w", err)
	}
	resp := tokenResponse{
		AccessToken: signed,
		IDToken:     signed,
		TokenType:   "Bearer",
		ExpiresIn:   int(accessTTL.Seconds()),
	}
	if withRefresh {
		resp.RefreshToken = uuid.NewString()
		i.mu.Lock()
		i.refresh[resp.RefreshToken] = email
		i.mu.Unlock()
	}
	return resp, nil
}

// valid reports whether token was signed by this issuer and has not expired.
func (i *issuer) valid(token string) bool {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	return err == nil && parsed.Valid
}

func (i *issuer) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request", "malformed form body")
		return
	}

	var email string
	switch r.PostForm.Get("grant_type") {
	case "password":
		email = r.PostForm.Get("username")
		want, ok := i.users[email]
		if !ok || want != r.PostForm.Get("password") {
			writeOAuthError(w, http.StatusBadRequest, "invalid_grant", "Incorrect username or password.")
			return
		}
	case "refresh_token":
		i.mu.Lock()
		e, ok := i.refresh[r.PostForm.Get("refresh_token")]
		i.mu.Unlock()
		if !ok {
			writeOAuthError(w, http.StatusBadRequest, "invalid_grant", "Refresh token is not valid.")
			return
		}
		email = e
	default:
		writeOAuthError(w, http.StatusBadRequest, "unsupported_grant_type", "")
		return
	}

	// Refreshing keeps the caller's refresh token, so only the password grant issues one.
	resp, err := i.issue(email, r.PostForm.Get("grant_type") == "password")
	if err != nil {
		writeOAuthError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	json.NewEncoder(w).Encode(resp)
}

func writeOAuthError(w http.ResponseWriter, status int, code, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":             code,
		"error_description": description,
	})
}
