package tui

import (
	"github.com/mmcdole/folio/internal/domain"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// RecommendationsLoadedMsg signals that a recommendation fetch finished.
// Seq identifies the fetch so that superseded results can be dropped.
type RecommendationsLoadedMsg struct {
	Strategy domain.Strategy
	Seq      uint64
	Result   *domain.RecommendationResult
	Err      error
}

// UserLoadedMsg carries the signed-in user for the header
type UserLoadedMsg struct {
	User *domain.User
}

// LogoutCompleteMsg signals that the session was ended
type LogoutCompleteMsg struct{}

// TickMsg drives the cooldown countdown
type TickMsg struct{}
