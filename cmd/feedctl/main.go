package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
	"golang.org/x/text/language"

	"github.com/blackmichael/skygazer/internal/bluesky"
	"github.com/blackmichael/skygazer/internal/credentials"
	"github.com/blackmichael/skygazer/internal/domain"
	"github.com/blackmichael/skygazer/internal/session"
	"github.com/blackmichael/skygazer/internal/store"
)

func main() {
	if err := run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	app := cli.App{
		Name:    "feedctl",
		Usage:   "browse Bluesky feeds through the moderation pipeline",
		Version: versioninfo.Short(),
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "pds",
			Usage:   "PDS service URL, when the account has none saved",
			Value:   bluesky.DefaultPDS,
			EnvVars: []string{"BLUESKY_PDS"},
		},
		&cli.StringFlag{
			Name:    "handle",
			Usage:   "account to use (defaults to the first saved account)",
			EnvVars: []string{"BLUESKY_HANDLE"},
		},
		&cli.StringFlag{
			Name:    "db",
			Usage:   "SQLite database holding saved accounts and feed snapshots",
			Value:   "skygazer.db",
			EnvVars: []string{"SKYGAZER_DB"},
		},
		&cli.Float64Flag{
			Name:    "rate-limit",
			Usage:   "max protocol requests per second (0 for unlimited)",
			Value:   10,
			EnvVars: []string{"SKYGAZER_RATE_LIMIT"},
		},
		&cli.IntFlag{
			Name:    "page-size",
			Usage:   "items requested per feed page",
			Value:   session.DefaultPageSize,
			EnvVars: []string{"SKYGAZER_PAGE_SIZE"},
		},
		&cli.StringFlag{
			Name:    "locale",
			Usage:   "locale for label names",
			Value:   "en",
			EnvVars: []string{"SKYGAZER_LOCALE"},
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "debug, info, warn or error",
			Value: "warn",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "print JSON instead of text",
		},
	}

	app.Before = func(cctx *cli.Context) error {
		var level slog.Level
		if err := level.UnmarshalText([]byte(cctx.String("log-level"))); err != nil {
			return fmt.Errorf("invalid --log-level: %w", err)
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	}

	app.Commands = []*cli.Command{
		loginCmd,
		accountsCmd,
		feedsCmd,
		feedCmd,
		postCmd,
		userCmd,
	}

	return app.Run(args)
}

// env is the state shared by commands that talk to the network.
type env struct {
	repo    *store.Repository
	client  *bluesky.Client
	session *session.Session
}

func (e *env) Close() error {
	if e.session != nil {
		e.session.Wait()
	}
	return e.repo.Close()
}

func openStore(cctx *cli.Context) (*store.Repository, error) {
	repo, err := store.NewRepository(cctx.String("db"))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return repo, nil
}

// connect signs in and builds a session with preferences loaded.
func connect(cctx *cli.Context) (*env, error) {
	ctx := cctx.Context
	repo, err := openStore(cctx)
	if err != nil {
		return nil, err
	}

	client, err := signIn(ctx, cctx, repo)
	if err != nil {
		repo.Close()
		return nil, err
	}

	locale, err := language.Parse(cctx.String("locale"))
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("invalid --locale: %w", err)
	}

	sess := session.New(client, session.Options{
		PageSize:  cctx.Int("page-size"),
		Locale:    locale,
		Snapshots: repo,
	})
	if _, err := sess.LoadPreferences(ctx); err != nil {
		repo.Close()
		return nil, err
	}
	return &env{repo: repo, client: client, session: sess}, nil
}

func signIn(ctx context.Context, cctx *cli.Context, accounts domain.AccountRepository) (*bluesky.Client, error) {
	handle, pds := cctx.String("handle"), cctx.String("pds")
	if handle == "" {
		saved, err := accounts.ListAccounts(ctx)
		if err != nil {
			return nil, fmt.Errorf("list accounts: %w", err)
		}
		if len(saved) == 0 {
			return nil, fmt.Errorf("no account: pass --handle or run 'feedctl accounts add'")
		}
		handle = saved[0].Handle
	}
	if acct, err := accounts.GetAccount(ctx, handle); err == nil && acct.PDS != "" {
		pds = acct.PDS
	} else if err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return login(ctx, cctx, pds, handle)
}

func login(ctx context.Context, cctx *cli.Context, pds, handle string) (*bluesky.Client, error) {
	creds, err := credentials.NewEnv(nil).Retrieve(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("%w (set %s)", err, credentials.EnvPassword)
	}

	client := bluesky.NewClient(pds, bluesky.Options{RateLimit: cctx.Float64("rate-limit")})
	if err := client.Login(ctx, handle, creds.Password); err != nil {
		return nil, fmt.Errorf("login as %s: %w", handle, err)
	}
	return client, nil
}

func printJSON(cctx *cli.Context, v any) error {
	enc := json.NewEncoder(cctx.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func normalizeHandle(h string) string {
	return strings.ToLower(strings.TrimPrefix(h, "@"))
}

var loginCmd = &cli.Command{
	Name:  "login",
	Usage: "check that the account can sign in",
	Action: func(cctx *cli.Context) error {
		repo, err := openStore(cctx)
		if err != nil {
			return err
		}
		defer repo.Close()

		client, err := signIn(cctx.Context, cctx, repo)
		if err != nil {
			return err
		}
		fmt.Fprintf(cctx.App.Writer, "signed in as @%s (%s)\n", client.Handle(), client.DID())
		return nil
	},
}
