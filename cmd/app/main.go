package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/linkgraph/internal"
	"github.com/starford/linkgraph/internal/apperr"
	pkgconfig "github.com/starford/linkgraph/pkg/config"
)

var version = "dev"

// loadConfig starts from defaults and applies the config file, if any, then
// flag overrides. An explicitly requested config file must exist.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if cmd.IsSet("config") {
		if err := pkgconfig.Read(configPath, cfg); err != nil {
			return nil, fmt.Errorf("%w: %w", apperr.ErrConfig, err)
		}
	} else if _, err := pkgconfig.ReadIfExists(configPath, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrConfig, err)
	}

	if cmd.IsSet("output") {
		cfg.Inputs.Output = cmd.String("output")
	}
	if cmd.IsSet("sqlite") {
		cfg.SQLite.Path = cmd.String("sqlite")
	}
	return cfg, nil
}

func options(cfg *internal.Config) []internal.Option {
	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}
}

func resolve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Inputs.BindArgs(cmd.Args().Slice()); err != nil {
		return err
	}

	if err := internal.Run(ctx, options(cfg)...); err != nil {
		return fmt.Errorf("resolve: %w", err)
	}
	return nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Serve(ctx, options(cfg)...); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.ServeMCP(ctx, options(cfg)...); err != nil {
		return fmt.Errorf("mcp: %w", err)
	}
	return nil
}

func main() {
	const argsUsage = "<pages.zst> <redirects.zst> <links.zst> <unmatched.zst>"

	cmd := &cli.Command{
		Name:      "linkgraph",
		Usage:     "Normalize a page link graph: resolve titles to ids, follow redirects, split unmatched targets",
		Version:   version,
		ArgsUsage: argsUsage,
		Action:    resolve,
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
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Resolved edges destination (- for stdout, .zst to compress)",
			},
			&cli.StringFlag{
				Name:  "sqlite",
				Usage: "Path of the SQLite export",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "resolve",
				Usage:     "Resolve the dumps once",
				ArgsUsage: argsUsage,
				Action:    resolve,
			},
			{
				Name:   "serve",
				Usage:  "Build the SQLite export and serve the HTTP API",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve graph tools over MCP stdio",
				Action: serveMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
