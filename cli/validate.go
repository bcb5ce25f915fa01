package cli

// This file contains configuration loading and validation for the
// download command.

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/avfetch/avfetch/appveyor"

	"github.com/urfave/cli/v2"
)

var (
	reName   = regexp.MustCompile(`^[\w.-]+$`)
	reCommit = regexp.MustCompile(`^[0-9a-f]{7,40}$`)
	reDigits = regexp.MustCompile(`^[0-9]+$`)
	reTag    = regexp.MustCompile(`^[\w.-]+$`)
)

// Config is the validated, immutable input of one download run. It is
// built once from flags and environment and passed down explicitly so the
// locator and poller never read ambient state.
type Config struct {
	Owner          string
	Repo           string
	Commit         string
	PullRequest    string
	Tag            string
	JobName        string
	Dir            string
	AlwaysJobDirs  bool
	NoJobDirs      string
	MangleCoverage bool
	Sleep          time.Duration
	Timeout        time.Duration
}

// Target is the build match predicate this config describes.
func (c Config) Target() appveyor.Target {
	return appveyor.Target{
		Commit:      c.Commit,
		PullRequest: c.PullRequest,
		Tag:         c.Tag,
	}
}

func configFromContext(ctx *cli.Context) Config {
	return Config{
		Owner:          ctx.String("owner"),
		Repo:           ctx.String("repo"),
		Commit:         ctx.String("commit"),
		PullRequest:    ctx.String("pull-request"),
		Tag:            ctx.String("tag"),
		JobName:        ctx.String("job-name"),
		Dir:            ctx.String("dir"),
		AlwaysJobDirs:  ctx.Bool("always-job-dirs"),
		NoJobDirs:      ctx.String("no-job-dirs"),
		MangleCoverage: ctx.Bool("mangle-coverage"),
		Sleep:          ctx.Duration("sleep"),
		Timeout:        ctx.Duration("timeout"),
	}
}

// validate rejects configs the download workflow cannot act on. Messages
// are user-facing.
func (c Config) validate() error {
	if !reName.MatchString(c.Owner) {
		return fmt.Errorf("no or invalid repo owner name obtained")
	}
	if !reName.MatchString(c.Repo) {
		return fmt.Errorf("no or invalid repo name obtained")
	}

	targets := 0
	for _, t := range []string{c.Commit, c.PullRequest, c.Tag} {
		if t != "" {
			targets++
		}
	}
	if targets == 0 {
		return fmt.Errorf("one of --commit, --pull-request or --tag is required")
	}
	if targets > 1 {
		return fmt.Errorf("contradiction: --commit, --pull-request and --tag are mutually exclusive")
	}
	if c.Commit != "" && !reCommit.MatchString(c.Commit) {
		return fmt.Errorf("no or invalid git commit obtained")
	}
	if c.PullRequest != "" && !reDigits.MatchString(c.PullRequest) {
		return fmt.Errorf("--pull-request is not a digit")
	}
	if c.Tag != "" && !reTag.MatchString(c.Tag) {
		return fmt.Errorf("invalid git tag obtained")
	}

	if c.Dir != "" {
		if info, err := os.Stat(c.Dir); err != nil || !info.IsDir() {
			return fmt.Errorf("not a directory or doesn't exist: %s", c.Dir)
		}
	}
	if c.AlwaysJobDirs && c.NoJobDirs != "" {
		return fmt.Errorf("contradiction: --always-job-dirs and --no-job-dirs used")
	}
	switch c.NoJobDirs {
	case "", "skip", "overwrite", "rename":
	default:
		return fmt.Errorf("--no-job-dirs has invalid value, check --help for valid values")
	}
	return nil
}
