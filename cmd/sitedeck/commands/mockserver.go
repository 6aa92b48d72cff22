package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/waabox/sitedeck/internal/logging"
	"github.com/waabox/sitedeck/internal/mockapi"
)

type mockServerOptions struct {
	addr       string
	prefix     string
	token      string
	domain     string
	failMarker string
	users      []string
	logLevel   string
}

// NewMockServerCommand creates the mock-server command, which serves an
// in-memory backend for local development.
func NewMockServerCommand() *cobra.Command {
	opts := &mockServerOptions{}
	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Run an in-memory backend for local development",
		Long: `Serves the project, deployment and domain routes from memory. Projects move
through every pipeline stage within a few status checks.`,
		Example: `  sitedeck mock-server --addr :3000 --user admin@example.com:secret
  sitedeck build "A portfolio for a wedding photographer"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMockServer(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.addr, "addr", ":3000", "listen address")
	flags.StringVar(&opts.prefix, "prefix", "/dev", "path prefix the routes are mounted under")
	flags.StringVar(&opts.token, "token", "", "static bearer token required on every request")
	flags.StringVar(&opts.domain, "domain", mockapi.DefaultDomain, "parent domain of generated site URLs")
	flags.StringVar(&opts.failMarker, "fail-marker", "[fail]", "prompts containing this text fail during tests")
	flags.StringArrayVar(&opts.users, "user", nil, "email:password accepted by /oauth/token (repeatable)")
	flags.StringVar(&opts.logLevel, "log-level", "info", "debug, info, warn or error")
	return cmd
}

func runMockServer(ctx context.Context, opts *mockServerOptions) error {
	logger, err := logging.New(os.Stderr, opts.logLevel)
	if err != nil {
		return err
	}
	users, err := parseUsers(opts.users)
	if err != nil {
		return err
	}

	backend := mockapi.New(mockapi.Options{
		Logger:     logger,
		Token:      opts.token,
		Domain:     opts.domain,
		FailMarker: opts.failMarker,
		Users:      users,
	})
	var handler http.Handler = backend
	if prefix := strings.TrimRight(opts.prefix, "/"); prefix != "" {
		root := chi.NewRouter()
		root.Mount(prefix, backend)
		handler = root
	}

	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("mock backend listening", "addr", opts.addr, "prefix", opts.prefix)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("mock server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down mock backend")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func parseUsers(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	users := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		email, password, ok := strings.Cut(pair, ":")
		if !ok || email == "" || password == "" {
			return nil, fmt.Errorf("invalid --user %q: want email:password", pair)
		}
		users[email] = password
	}
	return users, nil
}
