package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"cyclist-energy/internal/auth"
	"cyclist-energy/internal/config"
	"cyclist-energy/internal/logging"
	"cyclist-energy/internal/service"
	"cyclist-energy/internal/store"
	"cyclist-energy/internal/strava"
	"cyclist-energy/internal/tui"
)

var (
	profileName string
	profilePIN  string
)

var rootCmd = &cobra.Command{
	Use:   "energy",
	Short: "Daily energy expenditure estimates for cyclists",
	Long: `energy estimates how much a cyclist burns in a day: resting metabolic
rate times an activity level, plus the work done in each power zone.

Run without a subcommand to open the interactive journal.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		svc := tui.Services{
			Journal:  env.Journal(),
			Profiles: env.Profiles(),
		}
		if rides, err := env.Rides(cmd.Context()); err == nil {
			svc.Rides = rides
		}

		p := tea.NewProgram(tui.NewApp(svc, env.cfg.Display, profileName), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("running TUI: %w", err)
		}
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", "", "Profile name")
	rootCmd.PersistentFlags().StringVar(&profilePIN, "pin", "", "PIN of a protected profile")
}

// env is what every command needs: config, log file and the database
type env struct {
	cfg *config.Config
	db  *store.DB
	log io.Closer
}

// openEnv loads the config, starts file logging and opens the database
func openEnv() (*env, error) {
	cfg, err := config.Load()
	if errors.Is(err, config.ErrNoConfig) {
		if err := config.CreateExample(); err != nil {
			return nil, fmt.Errorf("creating example config: %w", err)
		}
		configDir, _ := config.GetConfigDir()
		fmt.Printf("Created a default config at:\n  %s/config.json\n\n", configDir)
		fmt.Println("Strava ride import needs client_id and client_secret from https://www.strava.com/settings/api")
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		configDir, _ := config.GetConfigDir()
		return nil, fmt.Errorf("config validation failed: %w (edit %s/config.json)", err, configDir)
	}

	configDir, err := config.GetConfigDir()
	if err != nil {
		return nil, err
	}
	closer, err := logging.Setup(configDir)
	if err != nil {
		return nil, fmt.Errorf("setting up logging: %w", err)
	}

	var db *store.DB
	if cfg.Storage.DatabaseURL != "" {
		db, err = store.OpenURL(cfg.Storage.DatabaseURL)
	} else {
		db, err = store.Open(configDir)
	}
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return &env{cfg: cfg, db: db, log: closer}, nil
}

func (e *env) Close() {
	e.db.Close()
	e.log.Close()
}

func (e *env) Journal() *service.JournalService {
	return service.NewJournalService(e.db, e.cfg)
}

func (e *env) Profiles() *service.ProfileService {
	return service.NewProfileService(e.db, e.cfg)
}

// Rides returns the ride importer backed by the stored Strava login
func (e *env) Rides(ctx context.Context) (*service.RideImportService, error) {
	if !e.cfg.HasStrava() {
		return nil, errors.New("strava credentials missing from config")
	}
	stored, err := e.db.GetAuth()
	if errors.Is(err, store.ErrNoAuth) {
		return nil, errors.New("not connected to Strava, run: energy strava login")
	}
	if err != nil {
		return nil, fmt.Errorf("checking auth: %w", err)
	}

	oauthCfg := auth.NewOAuthConfig(e.stravaConfig())
	token := auth.StoredToken(stored.AccessToken, stored.RefreshToken, stored.ExpiresAt)
	source := auth.NewRefreshingSource(ctx, oauthCfg, token, func(t *oauth2.Token) error {
		return e.db.UpdateTokens(t.AccessToken, t.RefreshToken, t.Expiry)
	})

	return service.NewRideImportService(strava.NewClient(ctx, source), e.db), nil
}

func (e *env) stravaConfig() auth.StravaConfig {
	return auth.StravaConfig{
		ClientID:     e.cfg.Strava.ClientID,
		ClientSecret: e.cfg.Strava.ClientSecret,
	}
}

// requireProfile returns the --profile value or an error naming the flag
func requireProfile() (string, error) {
	if profileName == "" {
		return "", errors.New("no profile selected, pass --profile NAME")
	}
	return profileName, nil
}

var (
	bold    = color.New(color.Bold).SprintFunc()
	cyan    = color.New(color.FgCyan).SprintFunc()
	green   = color.New(color.FgGreen, color.Bold).SprintFunc()
	yellow  = color.New(color.FgYellow).SprintFunc()
	magenta = color.New(color.FgMagenta, color.Bold).SprintFunc()
	faint   = color.New(color.Faint).SprintFunc()
)
