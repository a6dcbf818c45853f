// Command storefront is a terminal client for the storefront: browse the
// catalog, sign in, and check out a cart through PayPal.
//
// Usage:
//
//	storefront products [-category electronics] [-price under25] [-sort price-low]
//	storefront register -name "Ada" -email ada@example.com
//	storefront login -email ada@example.com
//	storefront whoami
//	storefront checkout -item 1:2 -item 5 -first-name Ada ...
//	storefront logout
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/logging"
	"github.com/example/storefront/internal/session"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = []command{
	{"products", "list and filter the catalog", runProducts},
	{"categories", "list catalog categories", runCategories},
	{"register", "create an account and sign in", runRegister},
	{"login", "sign in", runLogin},
	{"whoami", "show the signed-in user", runWhoami},
	{"logout", "sign out and forget the stored credential", runLogout},
	{"checkout", "buy items through PayPal", runCheckout},
}

// app carries what every command needs
type app struct {
	cfg     *config.ClientConfig
	logger  *zap.Logger
	session *session.Session
	redis   *redis.Client
	in      *bufio.Reader
	out     io.Writer
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	name := os.Args[1]
	if name == "-h" || name == "--help" || name == "help" {
		usage(os.Stdout)
		return
	}

	cmd, ok := lookup(name)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
		usage(os.Stderr)
		os.Exit(2)
	}

	if err := config.LoadEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Env, getEnv("LOG_LEVEL", "warn"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer a.close()

	if err := cmd.run(ctx, a, os.Args[2:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		var sessErr *session.Error
		if errors.As(err, &sessErr) {
			fmt.Fprintln(os.Stderr, sessErr.Message)
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		stop()
		os.Exit(1)
	}
}

func newApp(ctx context.Context, cfg *config.ClientConfig, logger *zap.Logger) (*app, error) {
	a := &app{
		cfg:    cfg,
		logger: logger,
		in:     bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("REDIS_URL: %w", err)
		}
		a.redis = redis.NewClient(opts)
	}

	var store session.CredentialStore
	switch cfg.CredentialStore {
	case config.CredentialStoreRedis:
		store = session.NewRedisCredentialStore(a.redis, cfg.Profile)
	case config.CredentialStoreMemory:
		store = session.NewMemoryCredentialStore()
	default:
		path, err := session.DefaultCredentialPath(cfg.Profile)
		if err != nil {
			return nil, err
		}
		store = session.NewFileCredentialStore(path)
	}

	client := session.NewHTTPAuthClient(cfg.APIBaseURL, cfg.RequestTimeout)
	a.session = session.New(client, store, logger)
	a.session.Bootstrap(ctx)
	return a, nil
}

func (a *app) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: storefront <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-11s %s\n", c.name, c.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'storefront <command> -h' for the flags of a command.")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
