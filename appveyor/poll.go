package appveyor

// This file contains the locate-then-wait loop: first wait for AppVeyor to
// register a build for the target, then for every job to start, then for
// every job to reach a terminal status.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avfetch/avfetch/model"

	"github.com/rs/zerolog"
)

// registrationAttempts bounds the first phase: a build that has not shown
// up in the history after this many queries is treated as missing.
const registrationAttempts = 3

// Poller waits for the target build to finish. State between polls lives
// entirely in the Wait call stack; a Poller itself is immutable.
type Poller struct {
	Client  *Client
	Owner   string
	Repo    string
	Target  Target
	JobName string
	// Interval is the sleep between status queries.
	Interval time.Duration
	// Timeout is the overall deadline for the whole wait.
	Timeout time.Duration
	Logger  zerolog.Logger
}

// Wait blocks until every job of the matched build is terminal and returns
// the jobs. A build that never shows up in the history aborts the wait
// with ErrNoMatch; a failed job aborts it with ErrUpstreamBuildFailed; the
// deadline elapsing aborts it with ErrTimeout.
func (p *Poller) Wait(ctx context.Context) ([]model.Job, error) {
	deadline := time.Now().Add(p.Timeout)

	version, err := p.waitForBuild(ctx)
	if err != nil {
		return nil, err
	}
	return p.waitForJobs(ctx, deadline, version)
}

// waitForBuild polls the build history until the target matches a build
// and returns its version.
func (p *Poller) waitForBuild(ctx context.Context) (string, error) {
	for attempt := 0; attempt < registrationAttempts; attempt++ {
		if attempt > 0 {
			if err := p.sleep(ctx); err != nil {
				return "", err
			}
		}
		builds, err := p.Client.BuildHistory(ctx, p.Owner, p.Repo)
		if err != nil {
			return "", err
		}
		build, err := FindMatch(builds, p.Target)
		if errors.Is(err, ErrNoMatch) {
			p.Logger.Info().Msg("Waiting for job to be queued...")
			continue
		}
		if err != nil {
			return "", err
		}
		p.Logger.Info().Msgf("This is a %s build.", p.Target.Kind())
		return build.Version, nil
	}
	p.Logger.Error().Msg("Timed out waiting for job to be queued or build not found.")
	return "", fmt.Errorf("%w: build never registered after %d history queries", ErrNoMatch, registrationAttempts)
}

// waitForJobs re-queries the build until all jobs are terminal.
func (p *Poller) waitForJobs(ctx context.Context, deadline time.Time, version string) ([]model.Job, error) {
	for {
		if time.Now().After(deadline) {
			p.Logger.Error().Msg("Timed out waiting for build to finish.")
			return nil, fmt.Errorf("%w: build still not finished", ErrTimeout)
		}

		jobs, err := p.Client.BuildJobs(ctx, p.Owner, p.Repo, version)
		if err != nil {
			return nil, err
		}
		if p.JobName != "" {
			if jobs, err = FilterJobName(jobs, p.JobName); err != nil {
				return nil, err
			}
			p.Logger.Info().Msg("Filtering by job name: found match!")
		}

		var queued, running int
		for _, job := range jobs {
			switch job.Status {
			case model.StatusQueued:
				queued++
			case model.StatusRunning:
				running++
			case model.StatusSuccess:
			case model.StatusFailed:
				url := JobURL(p.Owner, p.Repo, job.ID)
				p.Logger.Error().Msg("AppVeyor job failed: " + url)
				return nil, fmt.Errorf("%w: %s", ErrUpstreamBuildFailed, url)
			default:
				p.Logger.Error().Msgf("Got unknown status from AppVeyor API: %s", job.Status)
				return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, job.Status)
			}
		}

		switch {
		case queued > 0:
			p.Logger.Info().Msg("Waiting for all jobs to start...")
		case running > 0:
			p.Logger.Info().Msg("Waiting for job to finish...")
		default:
			p.Logger.Info().Msgf("Build successful. Found %d job%s.", len(jobs), plural(len(jobs)))
			return jobs, nil
		}

		if err := p.sleep(ctx); err != nil {
			return nil, err
		}
	}
}

func (p *Poller) sleep(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.Interval):
		return nil
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
