package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

const AppName = "avfetch"

// Exit codes for the download workflow. Anything else exits 1.
const (
	exitCodeConfig         = 2
	exitCodeNoMatch        = 3
	exitCodeUpstreamFailed = 4
	exitCodeTimeout        = 5
)

type App struct {
	logger zerolog.Logger
	cli    *cli.App
}

func New() *App {

	// Set default log level to info
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger :=
		log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})

	app := &App{
		logger: logger,
		cli: &cli.App{
			Name:  AppName,
			Usage: "Wait for an AppVeyor build of the same commit, pull request or tag and download its artifacts",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "verbose",
					Usage: "Enable verbose (debug) logging",
				},
			},
			Before: func(ctx *cli.Context) error {
				if ctx.Bool("verbose") {
					zerolog.SetGlobalLevel(zerolog.DebugLevel)
				}
				return nil
			},
		},
	}
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "download",
		Usage:  "Locate the matching build, wait for it to finish and download all artifacts",
		Action: app.download,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "owner",
				Aliases: []string{"o"},
				Usage:   "AppVeyor account (repo owner) name",
				EnvVars: []string{"APPVEYOR_ACCOUNT_NAME"},
			},
			&cli.StringFlag{
				Name:    "repo",
				Aliases: []string{"r"},
				Usage:   "AppVeyor project (repo) name",
				EnvVars: []string{"APPVEYOR_PROJECT_SLUG"},
			},
			&cli.StringFlag{
				Name:    "commit",
				Aliases: []string{"c"},
				Usage:   "Match the build of this git commit hash",
			},
			&cli.StringFlag{
				Name:    "pull-request",
				Aliases: []string{"p"},
				Usage:   "Match the build of this pull request number (mutually exclusive with --commit)",
			},
			&cli.StringFlag{
				Name:    "tag",
				Aliases: []string{"t"},
				Usage:   "Match the build of this git tag (mutually exclusive with --commit)",
			},
			&cli.StringFlag{
				Name:    "job-name",
				Aliases: []string{"n"},
				Usage:   "Only download artifacts from the job with this name",
			},
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"C"},
				Usage:   "Download to this directory instead of the working directory",
			},
			&cli.BoolFlag{
				Name:  "always-job-dirs",
				Usage: "Always download each job's artifacts into a subdirectory named after the job ID",
			},
			&cli.StringFlag{
				Name:  "no-job-dirs",
				Usage: "Never use job subdirectories; resolve file conflicts with 'skip', 'overwrite' or 'rename'",
			},
			&cli.BoolFlag{
				Name:  "mangle-coverage",
				Usage: "Rewrite Windows paths inside downloaded .coverage files to local paths",
			},
			&cli.DurationFlag{
				Name:  "sleep",
				Usage: "Time to sleep between polls of the AppVeyor API",
				Value: 10 * time.Second,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Overall deadline for the build to appear and finish",
				Value: 15 * time.Minute,
			},
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "mangle-coverage",
		Usage:     "Rewrite Windows paths inside a downloaded coverage file to local paths",
		ArgsUsage: "FILE",
		Action:    app.mangleCoverage,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"C"},
				Usage:   "Directory the rewritten paths should point into (default: working directory)",
			},
		},
	})
	return app
}

func (a *App) Run(args []string) error {
	return a.cli.Run(args)
}

// SetVersion sets the version information for the CLI application
func (a *App) SetVersion(version, commit, date string) {
	a.cli.Version = version
	if commit != "none" && commit != "" {
		if len(commit) > 8 {
			commit = commit[:8]
		}
		a.cli.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
	}
}
