package bookapi

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/mmcdole/folio/internal/domain"
)

// AuthFlow implements domain.AuthFlow with an email/password prompt
type AuthFlow struct {
	logger       *slog.Logger
	opts         Options
	in           io.Reader
	out          io.Writer
	readPassword func() ([]byte, error)
}

// NewAuthFlow creates an interactive login flow on the terminal
func NewAuthFlow(opts Options, logger *slog.Logger) *AuthFlow {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthFlow{
		logger: logger,
		opts:   opts,
		in:     os.Stdin,
		out:    os.Stdout,
		readPassword: func() ([]byte, error) {
			return term.ReadPassword(int(syscall.Stdin))
		},
	}
}

// Run prompts for credentials and logs in against serverURL
func (f *AuthFlow) Run(ctx context.Context, serverURL string) (*domain.AuthResult, error) {
	fmt.Fprintln(f.out)
	fmt.Fprintln(f.out, "Sign in")
	fmt.Fprintln(f.out, "━━━━━━━")

	reader := bufio.NewReader(f.in)
	fmt.Fprint(f.out, "Email: ")
	email, err := reader.ReadString('\n')
	if err != nil && email == "" {
		return nil, fmt.Errorf("failed to read email: %w", err)
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}

	// Hidden input
	fmt.Fprint(f.out, "Password: ")
	passwordBytes, err := f.readPassword()
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Fprintln(f.out)

	fmt.Fprintln(f.out, "Authenticating...")

	client := NewClient(serverURL, "", f.opts, f.logger)
	result, err := client.Login(ctx, email, string(passwordBytes))
	if err != nil {
		return nil, err
	}

	if result.Name != "" {
		fmt.Fprintf(f.out, "Signed in as %s.\n", result.Name)
	} else {
		fmt.Fprintln(f.out, "Authentication successful!")
	}
	return result, nil
}

var _ domain.AuthFlow = (*AuthFlow)(nil)
