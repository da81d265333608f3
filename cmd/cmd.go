// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func playlistFlag(required bool) cli.Flag {
	return &cli.StringFlag{
		Name:     "playlist",
		Aliases:  []string{"p"},
		Usage:    "Playlist key (ownerUid__playlistId)",
		Required: required,
	}
}

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
			Value: true,
		},
	}
}

// setupCommand handles setup operations for the local database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create the config file if needed, initialize the database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent database migration",
				Action: r.SetupRollback,
			},
			{
				Name:  "approve",
				Usage: "Approve a user so they can sign in to the viewer",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "uid"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "approved-email",
						Usage: "Email recorded on the approval",
					},
				},
				Action: r.SetupApprove,
			},
		},
	}
}

// playlistsCommand handles playlist browsing and export.
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "Playlist operations",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List owned and shared playlists",
				Flags:  jsonFlags(),
				Action: r.PlaylistsList,
			},
			{
				Name:   "entries",
				Usage:  "List the songs of a playlist in order",
				Flags:  append([]cli.Flag{playlistFlag(true)}, jsonFlags()...),
				Action: r.PlaylistsEntries,
			},
			{
				Name:  "export",
				Usage: "Export a playlist to csv, markdown, text or json",
				Flags: []cli.Flag{
					playlistFlag(true),
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "csv, markdown, text or json",
						Value:   "markdown",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output path (defaults to a name derived from the playlist key)",
					},
					&cli.BoolFlag{
						Name:  "transposed",
						Usage: "Apply each entry's transpose to the exported content",
					},
				},
				Action: r.PlaylistsExport,
			},
			{
				Name:  "export-all",
				Usage: "Export every visible playlist into one directory",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "csv, markdown, text or json",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output-dir",
						Aliases: []string{"o"},
						Usage:   "Output directory (defaults to chordsync_export_{epoch})",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent writers",
						Value: 4,
					},
					&cli.BoolFlag{
						Name:  "transposed",
						Usage: "Apply each entry's transpose to the exported content",
					},
				},
				Action: r.PlaylistsExportAll,
			},
			{
				Name:  "create",
				Usage: "Create a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "notes",
						Usage: "Playlist notes",
					},
				},
				Action: r.PlaylistsCreate,
			},
		},
	}
}

// songsCommand handles the user's song library.
func songsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "songs",
		Usage: "Song library operations",
		Commands: []*cli.Command{
			{
				Name:  "save",
				Usage: "Create or update a song, optionally adding it to a playlist",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "id",
						Usage: "Existing song id to update",
					},
					&cli.StringFlag{
						Name:     "title",
						Aliases:  []string{"t"},
						Usage:    "Song title",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "content",
						Usage: "Lyrics and chords",
					},
					&cli.StringFlag{
						Name:  "file",
						Usage: "Read lyrics and chords from a file",
					},
					playlistFlag(false),
				},
				Action: r.SongsSave,
			},
			{
				Name:  "delete",
				Usage: "Delete a song and remove it from every owned playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.SongsDelete,
			},
			{
				Name:  "search",
				Usage: "Search titles and lyrics, ignoring case and accents",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "term"},
				},
				Flags:  jsonFlags(),
				Action: r.SongsSearch,
			},
		},
	}
}

// entriesCommand handles per-playlist song settings.
func entriesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "entries",
		Usage: "Playlist entry operations",
		Commands: []*cli.Command{
			{
				Name:  "transpose",
				Usage: "Store the transpose of a song in a playlist",
				Flags: []cli.Flag{
					playlistFlag(true),
					&cli.StringFlag{
						Name:     "song",
						Aliases:  []string{"s"},
						Usage:    "Song id",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "semitones",
						Usage: "Semitones to shift, negative for down",
					},
				},
				Action: r.EntriesTranspose,
			},
		},
	}
}

// inboxCommand handles incoming shares.
func inboxCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "inbox",
		Usage: "Shared playlist inbox",
		Commands: []*cli.Command{
			{
				Name:   "sweep",
				Usage:  "Import every pending share once",
				Action: r.InboxSweep,
			},
			{
				Name:   "watch",
				Usage:  "Import shares as they arrive until interrupted",
				Action: r.InboxWatch,
			},
		},
	}
}

// shareCommand handles outgoing shares.
func shareCommand(r *Runner) *cli.Command {
	recipient := &cli.StringFlag{
		Name:     "to",
		Usage:    "Recipient user id",
		Required: true,
	}

	return &cli.Command{
		Name:  "share",
		Usage: "Share a playlist with another user",
		Commands: []*cli.Command{
			{
				Name:   "copy",
				Usage:  "Send full copies of the playlist's songs",
				Flags:  []cli.Flag{playlistFlag(true), recipient},
				Action: r.ShareCopy,
			},
			{
				Name:  "link",
				Usage: "Give access to the playlist itself",
				Flags: []cli.Flag{
					playlistFlag(true),
					recipient,
					&cli.StringFlag{
						Name:  "role",
						Usage: "viewer or editor",
						Value: "viewer",
					},
				},
				Action: r.ShareLink,
			},
		},
	}
}

// liveCommand handles the live performance session.
func liveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "live",
		Usage: "Live performance session",
		Commands: []*cli.Command{
			{
				Name:  "broadcast",
				Usage: "Show a song to everyone following the session (admin only)",
				Flags: []cli.Flag{
					playlistFlag(true),
					&cli.StringFlag{
						Name:     "song",
						Aliases:  []string{"s"},
						Usage:    "Song id",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "transpose",
						Usage: "Override the transpose stored on the entry",
					},
				},
				Action: r.LiveBroadcast,
			},
			{
				Name:   "follow",
				Usage:  "Print the session as it changes until interrupted",
				Flags:  jsonFlags(),
				Action: r.LiveFollow,
			},
			{
				Name:   "end",
				Usage:  "Mark the session inactive (admin only)",
				Action: r.LiveEnd,
			},
			{
				Name:  "serve",
				Usage: "Relay the session to websocket clients",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "host",
						Usage: "Listen host (defaults to server.host)",
					},
					&cli.IntFlag{
						Name:  "port",
						Usage: "Listen port (defaults to server.port)",
					},
				},
				Action: r.LiveServe,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for the interactive viewer.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive chord viewer",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the TUI owns the terminal",
				Value: "./tmp/chordsync-tui.log",
			},
		},
		Action: r.TUI,
	}
}
