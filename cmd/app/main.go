package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/nodeforge/internal"
	pkgconfig "github.com/starford/nodeforge/pkg/config"
)

func loadConfig(cmd *cli.Command) ([]internal.Option, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithOutput(os.Stdout),
	}, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, opts...)
}

func inspect(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("inspect: node id is required")
	}
	opts, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.Inspect(ctx, id, opts...)
}

func graph(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.ExportDOT(ctx, opts...)
}

func main() {
	cmd := &cli.Command{
		Name:   "nodeforge",
		Usage:  "Pipeline node editor backend: widget resolution, parameter binding and output handles",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP API and SSE stream",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the editor tools over MCP stdio",
				Action: mcp,
			},
			{
				Name:      "inspect",
				Usage:     "Render one node's view in the terminal",
				ArgsUsage: "<node-id>",
				Action:    inspect,
			},
			{
				Name:   "graph",
				Usage:  "Print the pipeline as a Graphviz digraph",
				Action: graph,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
