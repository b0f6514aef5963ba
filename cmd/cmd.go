// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output raw JSON",
	}
}

// setupCommand handles first-run setup.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recently applied migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:   "config",
				Usage:  "Write the default config.toml",
				Action: r.SetupConfig,
			},
		},
	}
}

// authCommand manages the local session that switches the library into remote mode.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the signed-in user",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in (creating the user on first use) and migrate local songs",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "email"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "name",
						Usage: "Display name; renames an existing user",
					},
					&cli.StringFlag{
						Name:  "token",
						Usage: "Bearer token for the postgrest backend",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Sign out and drop the cached collection",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the signed-in user and library state",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.AuthStatus,
			},
			{
				Name:   "users",
				Usage:  "List local users",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.AuthUsers,
			},
			{
				Name:  "delete",
				Usage: "Remove a local user and its cached collection, signing out first if needed",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "email"},
				},
				Action: r.AuthDelete,
			},
		},
	}
}

// songsCommand handles single-song operations.
func songsCommand(r *Runner) *cli.Command {
	optional := func() []cli.Flag {
		return []cli.Flag{
			&cli.StringFlag{Name: "album", Usage: "Album name"},
			&cli.StringFlag{Name: "cover", Usage: "Cover image URL"},
			&cli.StringFlag{Name: "release", Usage: "Release date (YYYY or YYYY-MM-DD)"},
			&cli.IntFlag{Name: "duration", Usage: "Length in seconds"},
		}
	}

	return &cli.Command{
		Name:    "songs",
		Aliases: []string{"song", "s"},
		Usage:   "Add, list, edit and remove songs",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Add a song; missing cover or release date is looked up",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Song title", Required: true},
					&cli.StringFlag{Name: "artist", Aliases: []string{"a"}, Usage: "Artists, separated by , / or &", Required: true},
					jsonFlag(),
				}, optional()...),
				Action: r.SongsAdd,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List songs, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Filter by title, artist or album"},
					&cli.StringFlag{Name: "sort", Usage: "Sort by added, title or release"},
					&cli.BoolFlag{Name: "desc", Usage: "Reverse the sort order"},
					&cli.StringFlag{Name: "artist", Usage: "Only songs by this artist"},
					&cli.StringFlag{Name: "album", Usage: "Only songs on this album"},
					jsonFlag(),
				},
				Action: r.SongsList,
			},
			{
				Name:  "show",
				Usage: "Show every field of one song",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.SongsShow,
			},
			{
				Name:  "update",
				Usage: "Edit a song; an empty optional flag clears the field",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Song title"},
					&cli.StringFlag{Name: "artist", Aliases: []string{"a"}, Usage: "Artists, separated by , / or &"},
				}, optional()...),
				Action: r.SongsUpdate,
			},
			{
				Name:    "delete",
				Aliases: []string{"rm"},
				Usage:   "Remove a song",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.SongsDelete,
			},
			{
				Name:  "stats",
				Usage: "Show artist and album aggregates",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "top", Usage: "Entries per section", Value: 10},
					jsonFlag(),
				},
				Action: r.SongsStats,
			},
		},
	}
}

// importCommand handles bulk import.
func importCommand(r *Runner) *cli.Command {
	flags := func() []cli.Flag {
		return []cli.Flag{
			&cli.BoolFlag{
				Name:  "smart-match",
				Usage: "Look up missing album, cover and release date (defaults to import.smart_match)",
			},
			&cli.BoolFlag{
				Name:  "no-progress",
				Usage: "Hide the progress bar",
			},
			jsonFlag(),
		}
	}

	return &cli.Command{
		Name:  "import",
		Usage: "Bulk import songs",
		Commands: []*cli.Command{
			{
				Name:  "text",
				Usage: "Import \"title - artist (album)\" or JSON lines from a file, or stdin when omitted",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags:  flags(),
				Action: r.ImportText,
			},
			{
				Name:  "csv",
				Usage: "Import a CSV export",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags:  flags(),
				Action: r.ImportCSV,
			},
		},
	}
}

// exportCommand handles exports.
func exportCommand(r *Runner) *cli.Command {
	output := func() cli.Flag {
		return &cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output file path (defaults to MelodyLog_Export_<date>)",
		}
	}

	return &cli.Command{
		Name:  "export",
		Usage: "Export the collection",
		Commands: []*cli.Command{
			{
				Name:  "csv",
				Usage: "Export as CSV",
				Flags: []cli.Flag{
					output(),
					&cli.BoolFlag{Name: "rich", Usage: "Add release date, cover URL and added-at columns"},
				},
				Action: r.ExportCSV,
			},
			{
				Name:    "markdown",
				Aliases: []string{"md"},
				Usage:   "Export as a Markdown list",
				Flags: []cli.Flag{
					output(),
					&cli.StringFlag{Name: "title", Usage: "Document heading", Value: "MelodyLog"},
				},
				Action: r.ExportMarkdown,
			},
			{
				Name:   "text",
				Usage:  "Export as importable text lines",
				Flags:  []cli.Flag{output()},
				Action: r.ExportText,
			},
		},
	}
}

// searchCommand queries metadata providers directly.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search metadata providers",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   "Provider id; unset uses the default with fallback",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of results",
				Value: 10,
			},
			jsonFlag(),
		},
		Action: r.Search,
	}
}

func providersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "providers",
		Usage:  "List metadata providers",
		Flags:  []cli.Flag{jsonFlag()},
		Action: r.Providers,
	}
}

// cacheCommand inspects the remote-mode collection cache.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect the cached remote collection",
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show whether the cache is present and valid",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.CacheStatus,
			},
			{
				Name:  "clear",
				Usage: "Drop the cached collection",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Drop every user's cached collection",
					},
				},
				Action: r.CacheClear,
			},
		},
	}
}

func migrateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "migrate",
		Usage:  "Copy local-only songs into the signed-in user's collection",
		Action: r.Migrate,
	}
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the JSON API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (defaults to server.host:server.port)",
			},
		},
		Action: r.Serve,
	}
}
