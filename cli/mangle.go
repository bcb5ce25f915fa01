package cli

import (
	"os"

	"github.com/avfetch/avfetch/coverage"

	"github.com/urfave/cli/v2"
)

func (a *App) mangleCoverage(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.Exit("mangle-coverage requires exactly one FILE argument", exitCodeConfig)
	}

	root := ctx.String("dir")
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		root = cwd
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return cli.Exit("not a directory or doesn't exist: "+root, exitCodeConfig)
	}

	if err := coverage.Mangle(a.logger, ctx.Args().First(), root); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return nil
}
