package cli

// This file contains the download command: locate the matching build,
// wait for it to reach a terminal status, then fetch every artifact.

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/avfetch/avfetch/appveyor"
	"github.com/avfetch/avfetch/coverage"
	"github.com/avfetch/avfetch/model"

	"github.com/urfave/cli/v2"
)

func (a *App) download(ctx *cli.Context) error {
	cfg := configFromContext(ctx)
	if err := cfg.validate(); err != nil {
		return cli.Exit(err.Error(), exitCodeConfig)
	}

	token := os.Getenv("APPVEYOR_API_TOKEN")
	if token == "" {
		a.logger.Error().Msg(`Environment variable "APPVEYOR_API_TOKEN" not defined.`)
		return cli.Exit("missing API token", exitCodeConfig)
	}

	client := appveyor.NewClient(a.logger, token)
	poller := &appveyor.Poller{
		Client:   client,
		Owner:    cfg.Owner,
		Repo:     cfg.Repo,
		Target:   cfg.Target(),
		JobName:  cfg.JobName,
		Interval: cfg.Sleep,
		Timeout:  cfg.Timeout,
		Logger:   a.logger,
	}

	jobs, err := poller.Wait(ctx.Context)
	if err != nil {
		return exitFor(err)
	}

	// Enumerate artifacts sequentially, preserving job and API order.
	var artifacts []model.Artifact
	for _, job := range jobs {
		list, err := client.JobArtifacts(ctx.Context, job.ID)
		if err != nil {
			return exitFor(err)
		}
		artifacts = append(artifacts, list...)
	}
	a.logger.Info().Msgf("Found %d artifact%s.", len(artifacts), plural(len(artifacts)))

	plan, err := planArtifacts(a.logger, cfg, client, artifacts)
	if err != nil {
		return exitFor(err)
	}
	if len(plan) == 0 {
		a.logger.Info().Msg("No artifacts; nothing to download.")
		return nil
	}

	total, err := a.downloadAll(ctx.Context, client, plan)
	if err != nil {
		return exitFor(err)
	}
	a.logger.Info().Msgf("Downloaded %d file(s), %d bytes total.", len(plan), total)

	if cfg.MangleCoverage {
		root := cfg.Dir
		if root == "" {
			if root, err = os.Getwd(); err != nil {
				return exitFor(err)
			}
		}
		for _, item := range plan {
			if filepath.Base(item.Path) != ".coverage" {
				continue
			}
			if err := coverage.Mangle(a.logger, item.Path, root); err != nil {
				return exitFor(err)
			}
		}
	}
	return nil
}

// downloadAll fetches every planned artifact, one at a time, and returns
// the total byte count written.
func (a *App) downloadAll(ctx context.Context, client *appveyor.Client, plan []model.LocalArtifact) (int64, error) {
	chunk := chunkSize(plan)
	a.logger.Info().Msgf("Downloading file%s (1 dot ~ %d KiB):", plural(len(plan)), chunk/1024)

	var total int64
	for _, item := range plan {
		n, err := a.downloadFile(ctx, client, item, chunk)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (a *App) downloadFile(ctx context.Context, client *appveyor.Client, item model.LocalArtifact, chunk int64) (int64, error) {
	if _, err := os.Stat(item.Path); err == nil {
		a.logger.Error().Msg("File already exists: " + item.Path)
		return 0, errors.New("file already exists: " + item.Path)
	}
	if dir := filepath.Dir(item.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, err
		}
	}

	body, err := client.Download(ctx, item.URL)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	out, err := os.Create(item.Path)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	written, err := copyWithProgress(out, body, item.Name, chunk)
	if err != nil {
		return written, err
	}
	if written != item.Size {
		a.logger.Error().Msgf("Expected %d bytes but got %d bytes instead.", item.Size, written)
		return written, errors.New("size mismatch: " + item.Name)
	}
	return written, nil
}

// exitFor translates the error taxonomy into documented exit codes.
func exitFor(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, appveyor.ErrUpstreamBuildFailed):
		return cli.Exit(err.Error(), exitCodeUpstreamFailed)
	case errors.Is(err, appveyor.ErrTimeout):
		return cli.Exit(err.Error(), exitCodeTimeout)
	case errors.Is(err, appveyor.ErrNoMatch):
		return cli.Exit(err.Error(), exitCodeNoMatch)
	default:
		return cli.Exit(err.Error(), 1)
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
