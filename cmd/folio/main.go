package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/folio/internal/bookapi"
	"github.com/mmcdole/folio/internal/config"
	"github.com/mmcdole/folio/internal/domain"
	"github.com/mmcdole/folio/internal/log"
	"github.com/mmcdole/folio/internal/recommend"
	"github.com/mmcdole/folio/internal/store"
	"github.com/mmcdole/folio/internal/tui"
	"github.com/mmcdole/folio/internal/tui/styles"
)

// Version is set at build time via -ldflags
var Version = "dev"

// clearSpinnerLine clears the spinner line from the terminal
const clearSpinnerLine = "\r                                    \r"

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func main() {
	var showVersion, logout, clearCache bool
	var configPath string
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.BoolVar(&logout, "logout", false, "end the session and forget saved credentials")
	flag.BoolVar(&clearCache, "clear-cache", false, "delete persisted recommendations")
	flag.StringVar(&configPath, "config", "", "config file (default ~/.config/folio/config.yaml)")
	flag.Parse()

	if showVersion {
		fmt.Printf("folio %s\n", Version)
		return
	}

	var err error
	switch {
	case clearCache:
		err = runClearCache()
	case logout:
		err = runLogout(configPath)
	default:
		err = run(configPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration and the file logger shared by every mode
func setup(configPath string) (*config.Config, *slog.Logger, io.Closer, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadConfigFile(configPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, closer, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)
	return cfg, logger, closer, nil
}

func clientOptions(cfg *config.Config) bookapi.Options {
	return bookapi.Options{
		Timeout:           cfg.Recommendations.RequestTimeout,
		RequestsPerSecond: cfg.Recommendations.RequestsPerSecond,
		Breaker:           bookapi.DefaultBreakerSettings(),
	}
}

// openStore opens the recommendation cache, on disk when persist_cache is set
func openStore(cfg *config.Config, logger *slog.Logger) (*store.RecommendationStore, error) {
	cacheDir := ""
	if cfg.Recommendations.PersistCache {
		cacheDir = config.GetCachePath()
	}
	recStore, err := store.NewRecommendationStore(cacheDir, cfg.Server.URL, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open recommendation cache: %w", err)
	}
	return recStore, nil
}

func run(configPath string) error {
	cfg, logger, closer, err := setup(configPath)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	logger.Info("starting folio", "version", Version)

	if err := styles.ApplyTheme(cfg.UI.Theme); err != nil {
		logger.Warn("falling back to default theme", "error", err)
		_ = styles.ApplyTheme("default")
	}

	if !cfg.IsConfigured() {
		if err := runSetupFlow(cfg, logger); err != nil {
			return err
		}
	}

	initial, err := domain.ParseStrategy(cfg.Recommendations.DefaultStrategy)
	if err != nil {
		logger.Warn("unknown default strategy, using top rated", "strategy", cfg.Recommendations.DefaultStrategy)
		initial = domain.StrategyTopRated
	}

	client := bookapi.NewClient(cfg.Server.URL, cfg.Server.Token, clientOptions(cfg), logger)
	client.OnUnauthorized(func() {
		if err := config.SaveToken(""); err != nil {
			logger.Error("failed to clear expired token", "error", err)
		}
	})

	recStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer recStore.Close()

	coordinator := recommend.NewCoordinator(client, recStore, nil, logger)
	coordinator.SetDefaultLimit(cfg.Recommendations.Limit)

	controller := tui.NewController(coordinator, tui.ControllerOptions{
		Initial:               initial,
		Limit:                 cfg.Recommendations.Limit,
		ForceFreshOnTabSwitch: cfg.Recommendations.ForceFreshOnTabSwitch,
		Timeout:               cfg.Recommendations.RequestTimeout,
	}, logger)

	// Recommendations are personal; drop them with the credentials
	clearSession := func() error {
		coordinator.Invalidate()
		return config.ClearServerConfig()
	}

	model := tui.NewModel(controller, client, clearSession, logger)

	p := tea.NewProgram(model, tea.WithAltScreen())

	logger.Info("starting TUI")

	final, err := p.Run()
	if err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	if m, ok := final.(tui.Model); ok && m.LoggedOut {
		fmt.Println("Logged out. Run folio again to sign in.")
	}

	logger.Info("shutting down")
	return nil
}

// runSetupFlow asks for the server URL and credentials, then saves them
func runSetupFlow(cfg *config.Config, logger *slog.Logger) error {
	fmt.Println()
	fmt.Println("Welcome to Folio!")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)
	serverURL := cfg.Server.URL

	for {
		fmt.Printf("Enter your server URL [%s]: ", serverURL)
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		if input = strings.TrimSpace(input); input != "" {
			serverURL = strings.TrimRight(input, "/")
		}

		if serverURL == "" {
			fmt.Println("Server URL cannot be empty. Please try again.")
			continue
		}

		fmt.Println()
		if err := pingWithSpinner(serverURL, clientOptions(cfg), logger); err != nil {
			fmt.Printf("\n✗ Could not reach server: %v\n", err)
			fmt.Println("Please check the URL and try again.")
			fmt.Println()
			continue
		}
		break
	}

	cfg.Server.URL = serverURL

	authFlow := bookapi.NewAuthFlow(clientOptions(cfg), logger)
	result, err := authFlow.Run(context.Background(), serverURL)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	cfg.Server.Token = result.Token
	cfg.Server.Email = result.Email

	if err := config.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	if result.Name != "" {
		fmt.Printf("✓ Signed in as %s. Configuration saved!\n", result.Name)
	} else {
		fmt.Println("✓ Configuration saved!")
	}
	return nil
}

// pingWithSpinner checks that the server answers while showing a spinner
func pingWithSpinner(serverURL string, opts bookapi.Options, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	resultCh := make(chan error, 1)
	go func() {
		resultCh <- bookapi.NewClient(serverURL, "", opts, logger).Ping(ctx)
	}()

	frame := 0
	fmt.Printf("\r%s Connecting...", spinnerFrames[frame])

	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case err := <-resultCh:
			fmt.Print(clearSpinnerLine)
			if err != nil {
				return err
			}
			fmt.Printf("✓ Connected to %s\n", serverURL)
			return nil

		case <-ticker.C:
			frame++
			fmt.Printf("\r%s Connecting...", spinnerFrames[frame%len(spinnerFrames)])

		case <-ctx.Done():
			fmt.Print(clearSpinnerLine)
			return fmt.Errorf("connection timed out")
		}
	}
}

// runLogout ends the server session and removes saved credentials
func runLogout(configPath string) error {
	cfg, logger, closer, err := setup(configPath)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	if cfg.IsConfigured() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Recommendations.RequestTimeout)
		defer cancel()
		client := bookapi.NewClient(cfg.Server.URL, cfg.Server.Token, clientOptions(cfg), logger)
		if err := client.Logout(ctx); err != nil {
			// Credentials are cleared locally regardless
			logger.Warn("server logout failed", "error", err)
		}
	}

	recStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	recStore.InvalidateAll()
	if err := recStore.Close(); err != nil {
		logger.Warn("failed to close recommendation cache", "error", err)
	}

	if err := config.ClearServerConfig(); err != nil {
		return err
	}
	fmt.Println("✓ Logged out.")
	return nil
}

func runClearCache() error {
	if err := config.ClearCache(); err != nil {
		return err
	}
	fmt.Println("✓ Cache cleared.")
	return nil
}
