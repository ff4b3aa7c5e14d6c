// Command basicfitctl drives the BasicFit client session from a terminal.
//
// Usage:
//
//	basicfitctl [--config <path>] login    <email>   sign in (prompts for password)
//	basicfitctl [--config <path>] register <email>   create a local account (prompts for password)
//	basicfitctl [--config <path>] logout             clear the stored session
//	basicfitctl [--config <path>] status             print logged-in or logged-out
//	basicfitctl [--config <path>] whoami             print the user greeting
//	basicfitctl [--config <path>] ping               test backend connectivity
//	basicfitctl [--config <path>] health             print the backend health report
//
// The config path can also be set via the BASICFIT_CONFIG environment variable.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/infodancer/basicfit"
	"github.com/infodancer/basicfit/config"
	"github.com/infodancer/basicfit/credential"
	"github.com/infodancer/basicfit/probe"
	"github.com/infodancer/basicfit/session"

	_ "github.com/infodancer/basicfit/store/file"
	_ "github.com/infodancer/basicfit/store/memory"
	_ "github.com/infodancer/basicfit/store/redis"
	_ "github.com/infodancer/basicfit/store/sqlite"
)

func main() {
	fs := flag.NewFlagSet("basicfitctl", flag.ExitOnError)
	configPath := fs.String("config", os.Getenv("BASICFIT_CONFIG"), "path to config.toml")
	fs.Usage = usage

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	args := fs.Args()
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	level, _ := config.ParseLevel(cfg.Log.Level)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx := context.Background()
	subcmd := args[0]

	switch subcmd {
	case "login", "register":
		if len(args) < 2 {
			usage()
			os.Exit(1)
		}
		err = withSession(cfg, logger, func(m *session.Manager) error {
			return cmdSignIn(ctx, m, subcmd, args[1])
		})

	case "logout":
		err = withSession(cfg, logger, func(m *session.Manager) error {
			return cmdLogout(ctx, m)
		})

	case "status":
		err = withSession(cfg, logger, func(m *session.Manager) error {
			return cmdStatus(ctx, m)
		})

	case "whoami":
		err = withSession(cfg, logger, func(m *session.Manager) error {
			return cmdWhoami(ctx, m)
		})

	case "ping":
		err = cmdPing(ctx, cfg, logger)

	case "health":
		err = cmdHealth(ctx, cfg, logger)

	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand: %s\n", subcmd)
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withSession opens the configured store, runs fn, and closes the store.
func withSession(cfg *config.Config, logger *slog.Logger, fn func(*session.Manager) error) error {
	store, err := basicfit.OpenStore(cfg.StoreConfig())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = store.Close() }()

	return fn(session.NewManager(store, logger))
}

func cmdSignIn(ctx context.Context, m *session.Manager, subcmd, email string) error {
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	var s *basicfit.Session
	if subcmd == "register" {
		s, err = m.SignUp(ctx, credential.String(email), credential.String(password))
	} else {
		s, err = m.SignIn(ctx, credential.String(email), credential.String(password))
	}
	if err != nil {
		return fmt.Errorf("%s failed: %w", subcmd, err)
	}

	fmt.Println(s.Greeting())
	return nil
}

func cmdLogout(ctx context.Context, m *session.Manager) error {
	if err := m.SignOut(ctx); err != nil {
		return err
	}
	fmt.Println("Logged out")
	return nil
}

func cmdStatus(ctx context.Context, m *session.Manager) error {
	if m.IsLoggedIn(ctx) {
		fmt.Println("logged in")
	} else {
		fmt.Println("logged out")
	}
	return nil
}

func cmdWhoami(ctx context.Context, m *session.Manager) error {
	info, ok := m.UserInfo(ctx)
	if !ok {
		return fmt.Errorf("not logged in")
	}
	fmt.Println(info)
	return nil
}

func newProber(cfg *config.Config, logger *slog.Logger) (*probe.Prober, error) {
	baseURL, err := cfg.BaseURL()
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: time.Duration(cfg.API.Timeout)}
	return probe.NewProber(client, baseURL, logger), nil
}

func cmdPing(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	p, err := newProber(cfg, logger)
	if err != nil {
		return err
	}
	if err := p.Check(ctx); err != nil {
		return fmt.Errorf("%s: %w", cfg.API.BaseURL, err)
	}
	fmt.Printf("OK: %s\n", cfg.API.BaseURL)
	return nil
}

func cmdHealth(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	p, err := newProber(cfg, logger)
	if err != nil {
		return err
	}
	h, err := p.Health(ctx)
	if err != nil {
		return fmt.Errorf("health: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(w, "SERVICE\t%s\nVERSION\t%s\nSTATUS\t%s\nDATABASE\t%s\n",
		h.Service, h.APIVersion, h.Status, h.Database); err != nil {
		return err
	}
	return w.Flush()
}

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage:
  basicfitctl [--config <path>] login    <email>   sign in (prompts for password)
  basicfitctl [--config <path>] register <email>   create a local account (prompts for password)
  basicfitctl [--config <path>] logout             clear the stored session
  basicfitctl [--config <path>] status             print logged-in or logged-out
  basicfitctl [--config <path>] whoami             print the user greeting
  basicfitctl [--config <path>] ping               test backend connectivity
  basicfitctl [--config <path>] health             print the backend health report

The config path can also be set via BASICFIT_CONFIG.
`)
}
