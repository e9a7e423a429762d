// pricectl manages the product cost catalog.
//
// Usage:
//
//	pricectl migrate
//	pricectl seed --file catalog.yaml
//	pricectl validate --file catalog.yaml
//	pricectl query --catalog catalog.yaml "GT10 C级"
//	pricectl hash-password s3cret
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/GTDGit/costchecker/internal/cache"
	"github.com/GTDGit/costchecker/internal/catalogfile"
	"github.com/GTDGit/costchecker/internal/config"
	"github.com/GTDGit/costchecker/internal/database"
	"github.com/GTDGit/costchecker/internal/models"
	"github.com/GTDGit/costchecker/internal/repository"
	"github.com/GTDGit/costchecker/internal/service"
	"github.com/GTDGit/costchecker/pkg/deepseek"
)

func main() {
	_ = godotenv.Load()

	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:      "pricectl",
		Usage:     "Manage and query the product cost catalog",
		Writer:    out,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "db-host", Usage: "PostgreSQL host", EnvVars: []string{"DB_HOST"}},
			&cli.StringFlag{Name: "db-port", Value: "5432", Usage: "PostgreSQL port", EnvVars: []string{"DB_PORT"}},
			&cli.StringFlag{Name: "db-user", Usage: "PostgreSQL user", EnvVars: []string{"DB_USER"}},
			&cli.StringFlag{Name: "db-password", Usage: "PostgreSQL password", EnvVars: []string{"DB_PASSWORD"}},
			&cli.StringFlag{Name: "db-name", Usage: "PostgreSQL database", EnvVars: []string{"DB_NAME"}},
			&cli.StringFlag{Name: "db-sslmode", Value: "disable", Usage: "PostgreSQL sslmode", EnvVars: []string{"DB_SSLMODE"}},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Log debug output to stderr"},
		},
		Before: func(c *cli.Context) error {
			level := zerolog.WarnLevel
			if c.Bool("verbose") {
				level = zerolog.DebugLevel
			}
			zerolog.SetGlobalLevel(level)
			log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
			return nil
		},
		Commands: []*cli.Command{
			migrateCommand(),
			seedCommand(),
			validateCommand(),
			queryCommand(),
			hashPasswordCommand(),
		},
	}
}

func dbConfig(c *cli.Context) (*config.DatabaseConfig, error) {
	cfg := &config.DatabaseConfig{
		Host:     c.String("db-host"),
		Port:     c.String("db-port"),
		User:     c.String("db-user"),
		Password: c.String("db-password"),
		Name:     c.String("db-name"),
		SSLMode:  c.String("db-sslmode"),
	}
	if cfg.Host == "" || cfg.User == "" || cfg.Name == "" {
		return nil, errors.New("database configuration incomplete: set --db-host, --db-user and --db-name (or DB_HOST, DB_USER, DB_NAME)")
	}
	return cfg, nil
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending database migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Value: database.DefaultMigrationsDir, Usage: "Migrations directory"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := dbConfig(c)
			if err != nil {
				return err
			}
			db, err := database.Connect(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.Migrate(db.DB, c.String("dir")); err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, "migrations applied")
			return nil
		},
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Upsert products and prices from a YAML catalog file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Catalog YAML file", Required: true},
		},
		Action: func(c *cli.Context) error {
			f, err := catalogfile.Load(c.String("file"))
			if err != nil {
				return err
			}
			cfg, err := dbConfig(c)
			if err != nil {
				return err
			}
			db, err := database.Connect(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := repository.NewCatalogRepository(db).Seed(c.Context, f.SeedEntries(time.Now()))
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "seeded %d products, %d price rows\n", len(f.Products), n)
			return nil
		},
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Check a YAML catalog file without touching the database",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Catalog YAML file", Required: true},
		},
		Action: func(c *cli.Context) error {
			f, err := catalogfile.Load(c.String("file"))
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "%s: %d products OK\n", c.String("file"), len(f.Products))
			return nil
		},
	}
}

func queryCommand() *cli.Command {
	return &cli.Command{
		Name:      "query",
		Usage:     "Resolve a price question against the database or a catalog file",
		ArgsUsage: "TEXT",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "catalog", Usage: "Answer from this YAML catalog instead of the database"},
			&cli.StringFlag{Name: "pick", Usage: "Option id to choose when the query is ambiguous"},
			&cli.StringFlag{Name: "deepseek-key", Usage: "DeepSeek API key for parameter extraction", EnvVars: []string{"DEEPSEEK_API_KEY"}},
		},
		Action: func(c *cli.Context) error {
			text := strings.Join(c.Args().Slice(), " ")
			if strings.TrimSpace(text) == "" {
				return errors.New("query text is required")
			}

			catalog, closeFn, err := openCatalog(c)
			if err != nil {
				return err
			}
			defer closeFn()

			var extractor service.ParamExtractor = service.HeuristicExtractor{}
			if ds := deepseek.NewClient(c.String("deepseek-key"), "", ""); ds.Enabled() {
				extractor = service.NewFallbackExtractor(service.NewRemoteExtractor(ds), service.DefaultExtractorTimeout)
			}

			svc := service.NewQueryService(catalog, extractor, cache.NewMemoryStore(), service.QueryOptions{})
			return runQuery(c.Context, c.App.Writer, svc, text, c.String("pick"))
		},
	}
}

func openCatalog(c *cli.Context) (service.Catalog, func(), error) {
	if path := c.String("catalog"); path != "" {
		f, err := catalogfile.Load(path)
		if err != nil {
			return nil, nil, err
		}
		mem, err := f.NewMemoryCatalog(time.Now())
		if err != nil {
			return nil, nil, err
		}
		return mem, func() {}, nil
	}

	cfg, err := dbConfig(c)
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewCatalogRepository(db), func() { _ = db.Close() }, nil
}

type resolver interface {
	Resolve(ctx context.Context, text string) models.Resolution
	Confirm(ctx context.Context, confirmationID, optionID string) models.Resolution
}

// runQuery resolves text and, when pick is set, answers a confirmation
// request with it.
func runQuery(ctx context.Context, w io.Writer, svc resolver, text, pick string) error {
	res := svc.Resolve(ctx, text)
	if res.Status == models.StatusNeedsConfirmation && pick != "" {
		res = svc.Confirm(ctx, res.NeedsConfirmation.ConfirmationID, pick)
	}
	render(w, res)
	if res.Status == models.StatusError && res.Error.Kind == models.ErrInternal {
		return errors.New(res.Error.Message)
	}
	return nil
}

func render(w io.Writer, res models.Resolution) {
	switch res.Status {
	case models.StatusSuccess:
		fmt.Fprintln(w, res.Success.Text)
	case models.StatusNeedsConfirmation:
		fmt.Fprintln(w, res.NeedsConfirmation.Message)
		for _, opt := range res.NeedsConfirmation.Options {
			fmt.Fprintf(w, "  %s) %s  %s\n", opt.ID, opt.ProductCode, opt.MatchReason)
		}
		fmt.Fprintln(w, "Re-run with --pick <id> to choose.")
	case models.StatusError:
		fmt.Fprintf(w, "[%s] %s\n", res.Error.Kind, res.Error.Message)
	}
}

func hashPasswordCommand() *cli.Command {
	return &cli.Command{
		Name:      "hash-password",
		Usage:     "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
		ArgsUsage: "PASSWORD",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("exactly one password argument is required")
			}
			hash, err := service.HashPassword(c.Args().First())
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, hash)
			return nil
		},
	}
}
