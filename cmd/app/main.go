package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/vaultql/internal"
	pkgconfig "github.com/starford/vaultql/pkg/config"
)

const defaultQuery = "SELECT * FROM notes"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	found, err := pkgconfig.LoadOptional(configPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	// Flags win over the file.
	if v := cmd.String("vault"); v != "" {
		cfg.Vault.Path = v
	}
	if !found {
		slog.Debug("config file not found, using defaults", slog.String("path", configPath))
	}
	return cfg, nil
}

func runMode(mode internal.Mode, extra ...func(*cli.Command) []internal.Option) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		opts := []internal.Option{
			internal.WithConfig(cfg),
			internal.WithMode(mode),
		}
		for _, fn := range extra {
			opts = append(opts, fn(cmd)...)
		}

		if err := internal.Run(ctx, opts...); err != nil {
			return fmt.Errorf("app run error: %w", err)
		}
		return nil
	}
}

func queryOptions(cmd *cli.Command) []internal.Option {
	q := cmd.Args().First()
	if q == "" {
		q = defaultQuery
	}
	return []internal.Option{
		internal.WithQuery(q),
		internal.WithWatch(cmd.Bool("watch")),
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "vaultql",
		Usage: "Query a directory of Markdown notes with SQL",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "vault",
				Usage:   "Vault directory, overrides vault.path",
				Sources: cli.EnvVars("VAULT_PATH"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "query",
				Usage:     "Run a SQL statement and print rows as JSON lines",
				ArgsUsage: "[SQL]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "watch",
						Aliases: []string{"w"},
						Usage:   "Re-run the query whenever a note changes",
					},
				},
				Action: runMode(internal.ModeQuery, queryOptions),
			},
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API and live events",
				Action: runMode(internal.ModeServe),
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools on stdio",
				Action: runMode(internal.ModeMCP),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
