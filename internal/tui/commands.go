package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/folio/internal/domain"
)

// Command factories for async operations

// FetchRecommendationsCmd runs one coordinator request
func FetchRecommendationsCmd(rec Recommender, req domain.RecommendationRequest, seq uint64, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		result, err := rec.GetRecommendations(ctx, req)
		return RecommendationsLoadedMsg{
			Strategy: req.Strategy,
			Seq:      seq,
			Result:   result,
			Err:      err,
		}
	}
}

// LoadUserCmd fetches the signed-in user
func LoadUserCmd(account domain.AccountRepository) tea.Cmd {
	if account == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		user, err := account.CurrentUser(ctx)
		if err != nil {
			return ErrMsg{Err: err, Context: "loading account"}
		}
		return UserLoadedMsg{User: user}
	}
}

// LogoutCmd ends the session and runs clear to forget local credentials
func LogoutCmd(account domain.AccountRepository, clear func() error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if account != nil {
			if err := account.Logout(ctx); err != nil {
				return ErrMsg{Err: err, Context: "logging out"}
			}
		}
		if clear != nil {
			if err := clear(); err != nil {
				return ErrMsg{Err: err, Context: "clearing credentials"}
			}
		}
		return LogoutCompleteMsg{}
	}
}

// TickCmd returns a command that sends a tick after the given duration
func TickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}
