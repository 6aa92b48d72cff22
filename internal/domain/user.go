package domain

import "context"

// User is the signed-in operator.
type User struct {
	ID    string
	Email string
	Role  string
	Name  string
}

// Authenticator is the authentication capability injected into components that need it.
// A nil error from Login means the user is signed in.
type Authenticator interface {
	IsAuthenticated() bool
	IsLoading() bool
	Login(ctx context.Context, email, password string) error
	Logout(ctx context.Context) error
	CurrentUser() (User, bool)
}
