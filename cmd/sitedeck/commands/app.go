package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/waabox/sitedeck/internal/api"
	"github.com/waabox/sitedeck/internal/auth"
	"github.com/waabox/sitedeck/internal/config"
	"github.com/waabox/sitedeck/internal/domain"
	"github.com/waabox/sitedeck/internal/logging"
	"github.com/waabox/sitedeck/internal/provider"
	"github.com/waabox/sitedeck/internal/session"
	"github.com/waabox/sitedeck/internal/submission"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	apiURL     string
	backend    string
	logLevel   string
}

// app holds the wired collaborators for one command run.
type app struct {
	cfg     config.Config
	cfgPath string
	logger  *slog.Logger
	closer  io.Closer

	client  *api.Client
	tokens  *auth.TokenManager
	authn   *auth.PasswordAuthenticator
	service *provider.RefreshingService
	sources *provider.Registry
}

// newApp loads configuration and wires the backend client, the token
// manager and the status sources. With logToFile the logger writes to the
// configured log file instead of stderr.
func newApp(ctx context.Context, opts *globalOptions, logToFile bool) (*app, error) {
	path := opts.configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if opts.apiURL != "" {
		cfg.API.BaseURL = opts.apiURL
	}
	if opts.backend != "" {
		cfg.Poll.Backend = opts.backend
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	a := &app{cfg: cfg, cfgPath: path}
	if logToFile {
		a.logger, a.closer, err = logging.OpenFile(cfg.LogFileOrDefault(), cfg.LogLevelOrDefault())
	} else {
		a.logger, err = logging.New(os.Stderr, cfg.LogLevelOrDefault())
	}
	if err != nil {
		return nil, err
	}

	a.client = api.New(api.Options{
		BaseURL:   cfg.BaseURLOrDefault(),
		Token:     cfg.Auth.Token,
		UserEmail: cfg.API.UserEmail,
		Timeout:   cfg.Timeout(),
		Logger:    a.logger.With("component", "api"),
	})

	authCfg := cfg.Auth
	authCfg.TokenURL = cfg.TokenURLOrDefault()
	oauthCfg := auth.NewOAuthConfig(authCfg)
	// The store shares a.cfg so refreshed tokens are written back to the same file.
	store := auth.NewConfigStore(&a.cfg, path)
	a.tokens = auth.NewTokenManager(oauthCfg, store, a.logger.With("component", "auth"))
	a.tokens.OnChange(a.client.SetToken)
	a.authn = auth.NewPasswordAuthenticator(oauthCfg, a.tokens, a.logger.With("component", "auth"))
	if err := a.authn.Restore(ctx); err != nil {
		a.logger.Warn("restoring session failed", "error", err)
	}

	a.service = provider.NewRefreshingService(a.client, a.tokens.Refresh, a.client.SetToken)
	a.sources = provider.NewDefaultRegistry(a.service)
	return a, nil
}

// newSession builds a generation session for the given backend shape.
// An empty shape selects the configured one.
func (a *app) newSession(shape string, onChange func(session.View)) (*session.Session, error) {
	if shape == "" {
		shape = a.cfg.BackendOrDefault()
	}
	source, err := a.sources.Lookup(shape)
	if err != nil {
		return nil, err
	}
	return session.New(source, session.Config{
		Interval:    a.cfg.PollInterval(),
		MaxAttempts: a.cfg.MaxAttemptsOrDefault(),
		Logger:      a.logger.With("component", "session"),
		OnChange:    onChange,
	})
}

func (a *app) newFlow(sess *session.Session) *submission.Flow {
	return submission.NewFlow(a.service, sess, a.logger.With("component", "submission"))
}

// requireUser returns the signed-in user or an error telling how to sign in.
func (a *app) requireUser() (domain.User, error) {
	u, ok := a.authn.CurrentUser()
	if !ok {
		return domain.User{}, fmt.Errorf("not signed in: run 'sitedeck login' first")
	}
	return u, nil
}

func (a *app) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}
