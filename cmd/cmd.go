// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/crates/internal/formatter"
)

// setupCommand handles setup operations for the database and config file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "config",
				Usage:  "Write the example configuration to the --config path",
				Action: r.SetupConfig,
			},
		},
	}
}

// syncCommand runs and inspects the collection walk
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Mirror and enrich the collection",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Walk the collection from the checkpoint, fetching and enriching new releases",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Stop after this many items (default: sync.num_items)",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Ignore any item limit and walk to the end",
					},
					&cli.BoolFlag{
						Name:  "tui",
						Usage: "Show live progress in a terminal UI",
					},
					&cli.StringFlag{
						Name:  "emit",
						Usage: "Write each persisted record as JSON under this directory (default: sync.emit_dir)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the run summary as JSON",
					},
				},
				Action: r.SyncRun,
			},
			{
				Name:  "status",
				Usage: "Show the checkpoint, store counts and recent runs",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "runs",
						Usage: "Number of recent runs to show",
						Value: 5,
					},
				},
				Action: r.SyncStatus,
			},
			{
				Name:   "reset",
				Usage:  "Move the checkpoint back to the start of the collection",
				Action: r.SyncReset,
			},
		},
	}
}

// skipCommand manages the skip set
func skipCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "skip",
		Usage: "Manage releases excluded from syncing",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List skipped releases and why",
				Action: r.SkipList,
			},
			{
				Name:  "add",
				Usage: "Exclude a release from future runs",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "reason",
						Usage: "Why the release is skipped",
						Value: "added by operator",
					},
				},
				Action: r.SkipAdd,
			},
			{
				Name:  "clear",
				Usage: "Allow a skipped release to be fetched again",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.SkipClear,
			},
		},
	}
}

// recordsCommand reads, overwrites and exports stored releases
func recordsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "records",
		Aliases: []string{"rec"},
		Usage:   "Stored release records",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List stored releases",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Only releases whose title or artist contains this text",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of records (0 for all)",
						Value: 50,
					},
					&cli.IntFlag{
						Name:  "offset",
						Usage: "Number of records to skip",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.RecordsList,
			},
			{
				Name:  "show",
				Usage: "Print one release record",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "markdown",
						Usage: "Render as a markdown page instead of JSON",
					},
				},
				Action: r.RecordsShow,
			},
			{
				Name:  "put",
				Usage: "Replace a release record with the JSON in --file",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the edited record JSON",
						Required: true,
					},
				},
				Action: r.RecordsPut,
			},
			{
				Name:  "export",
				Usage: "Export stored releases to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "Output format: " + strings.Join(formatter.Formats, ", "),
						Value: formatter.FormatJSON,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: crates_export.<format>)",
					},
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Only export releases whose title or artist contains this text",
					},
				},
				Action: r.RecordsExport,
			},
		},
	}
}

// contributorsCommand reads stored artist records
func contributorsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "contributors",
		Aliases: []string{"artists"},
		Usage:   "Stored artist records",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print one contributor record",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.ContributorsShow,
			},
		},
	}
}

// serveCommand starts the HTTP API used by the editing UI
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the records over a JSON HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Address to bind (default: server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (default: server.port)",
			},
		},
		Action: r.Serve,
	}
}
