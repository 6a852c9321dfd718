package main

import (
	"context"
	"io"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/cognicore/chainer/pkg/chainer/config"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "chainer",
		Usage:     "forward-chaining inference over Horn-clause knowledge bases",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML configuration file",
				EnvVars: []string{"CHAINER_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "store",
				Usage: "SQLite database path; overrides the configured store",
			},
			&cli.StringFlag{
				Name:  "strategy",
				Usage: "forward matching strategy (joint, independent)",
			},
			&cli.StringFlag{
				Name:  "backend",
				Usage: "inference backend (forward, prolog); prolog may not terminate on left-recursive rules, see --timeout",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: time.Minute,
				Usage: "bound on each goal; 0 disables",
			},
			&cli.BoolFlag{
				Name:  "trace",
				Usage: "print every derived fact to stderr",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "ask",
				Usage:     "answer a goal against a knowledge base file",
				ArgsUsage: "<kb-file> [goal]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "text", Usage: "text, json or html"},
				},
				Action: askCmd,
			},
			{
				Name:      "check",
				Usage:     "ask the goal of every knowledge base under a directory",
				ArgsUsage: "<dir>",
				Action:    checkCmd,
			},
			{
				Name:      "export",
				Usage:     "render a knowledge base as a Prolog program",
				ArgsUsage: "<kb-file>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "write to a file instead of stdout"},
				},
				Action: exportCmd,
			},
			{
				Name:      "import",
				Usage:     "store knowledge base files",
				ArgsUsage: "<kb-file>...",
				Action:    importCmd,
			},
			{
				Name:      "runs",
				Usage:     "list recorded runs, newest first",
				ArgsUsage: "[kb-name]",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20},
				},
				Action: runsCmd,
			},
			{
				Name:  "serve",
				Usage: "serve JSON-RPC on stdio or a TCP address",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "listen", Usage: "TCP address, e.g. 127.0.0.1:7070"},
				},
				Action: serveCmd,
			},
			{
				Name:      "repl",
				Usage:     "interactive session",
				ArgsUsage: "[kb-file]...",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "history", Usage: "history file"},
				},
				Action: replCmd,
			},
		},
	}
}

// loader builds a config.Loader from the global flags.
func loader(ctx *cli.Context, kbPaths ...string) config.Loader {
	return config.Loader{
		ConfigPath:         ctx.String("config"),
		KnowledgeBasePaths: kbPaths,
		TraceOutput:        ctx.App.ErrWriter,
		Adjust: func(c *config.Config) {
			if p := ctx.String("store"); p != "" {
				c.Store.Driver = "sqlite"
				c.Store.Path = p
			}
			if s := ctx.String("strategy"); s != "" {
				c.Engine.Strategy = s
			}
			if b := ctx.String("backend"); b != "" {
				c.Engine.Backend = b
			}
			if ctx.Bool("trace") {
				c.Trace.Enabled = true
			}
		},
	}
}

// askContext bounds one goal by --timeout.
func askContext(ctx *cli.Context) (context.Context, context.CancelFunc) {
	if d := ctx.Duration("timeout"); d > 0 {
		return context.WithTimeout(ctx.Context, d)
	}
	return context.WithCancel(ctx.Context)
}
