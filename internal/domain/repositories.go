package domain

import (
	"context"
)

// RecommendationRepository provides access to the upstream recommendation endpoint
type RecommendationRepository interface {
	// GetRecommendations issues one upstream request. ForceFresh and any
	// cache-busting details are the implementation's concern.
	GetRecommendations(ctx context.Context, req RecommendationRequest) (*RecommendationResult, error)
}

// AccountRepository provides the minimal account operations needed to hold a session
type AccountRepository interface {
	// Login exchanges credentials for an access token
	Login(ctx context.Context, email, password string) (*AuthResult, error)

	// CurrentUser returns the signed-in user
	CurrentUser(ctx context.Context) (*User, error)

	// Logout ends the server-side session
	Logout(ctx context.Context) error
}

// User is the signed-in account
type User struct {
	ID    int64
	Name  string
	Email string
}

// AuthResult contains the result of a successful authentication
type AuthResult struct {
	Token string // Bearer token for API calls
	Email string // Login email
	Name  string // Display name, may be empty
}

// AuthFlow runs an interactive login against the book platform.
// Implementations handle their own user interaction (prompting for credentials, etc.)
type AuthFlow interface {
	Run(ctx context.Context, serverURL string) (*AuthResult, error)
}
