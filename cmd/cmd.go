package main

import (
	"github.com/urfave/cli/v3"
)

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Prepare local configuration and state",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Create the match cache database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Value:   "config.toml",
						Usage:   "path to config file",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with the source catalog",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in to Spotify via the browser",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "token-file",
						Aliases: []string{"t"},
						Value:   defaultTokenFile,
						Usage:   "where to store the OAuth token",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "status",
				Usage: "Show the stored token and account",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "token-file",
						Aliases: []string{"t"},
						Value:   defaultTokenFile,
						Usage:   "path to the stored OAuth token",
					},
				},
				Action: r.AuthStatus,
			},
		},
	}
}

func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the Spotify library to a JSON file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   defaultLibraryFile,
				Usage:   "export file path",
			},
			&cli.StringFlag{
				Name:    "token-file",
				Aliases: []string{"t"},
				Value:   defaultTokenFile,
				Usage:   "path to the stored OAuth token",
			},
		},
		Action: r.ExportLibrary,
	}
}

func syncCommand(r *Runner) *cli.Command {
	libraryFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:    "library",
			Aliases: []string{"l"},
			Value:   defaultLibraryFile,
			Usage:   "path to an exported library file",
		}
	}

	return &cli.Command{
		Name:  "sync",
		Usage: "Reconcile an exported library against YouTube Music",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run a sync without the TUI",
				Flags: []cli.Flag{
					libraryFlag(),
					&cli.StringFlag{
						Name:    "playlist",
						Aliases: []string{"p"},
						Usage:   "sync only the named playlist",
					},
					&cli.BoolFlag{
						Name:  "liked-only",
						Usage: "sync only the liked-songs collection",
					},
					&cli.BoolFlag{
						Name:  "no-cache",
						Usage: "skip the match cache and resolve everything by live search",
					},
				},
				Action: r.SyncRun,
			},
			{
				Name:  "ui",
				Usage: "Pick a sync target interactively",
				Flags: []cli.Flag{
					libraryFlag(),
					&cli.StringFlag{
						Name:  "log-file",
						Value: "tuneport.log",
						Usage: "log destination while the TUI owns the terminal",
					},
				},
				Action: r.SyncUI,
			},
		},
	}
}

func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search the destination catalog (debugging aid)",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Value:   5,
				Usage:   "maximum candidates to show",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "output raw JSON",
			},
		},
		Action: r.Search,
	}
}

func ledgerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "ledger",
		Usage: "Inspect the failure ledger",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print recorded failures",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "output format: text, markdown, csv, or json",
					},
					&cli.StringFlag{
						Name:  "path",
						Usage: "ledger file path (defaults to the configured path)",
					},
				},
				Action: r.LedgerShow,
			},
		},
	}
}
