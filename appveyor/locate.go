package appveyor

// This file contains build-history scanning: finding the build that
// belongs to the commit, pull request or tag under test, and enumerating
// its jobs and artifacts.

import (
	"context"
	"fmt"

	"github.com/avfetch/avfetch/model"
)

// historyRecords is how many recent builds the history endpoint is asked
// for. The matching build is expected inside this window.
const historyRecords = 10

// Target identifies which build in the history belongs to this run.
// Exactly one field is consulted; Tag wins over PullRequest wins over
// Commit, matching how AppVeyor distinguishes build causes.
type Target struct {
	Commit      string
	PullRequest string
	Tag         string
}

// Kind returns a human label for the kind of change being matched.
func (t Target) Kind() string {
	switch {
	case t.Tag != "":
		return "tag"
	case t.PullRequest != "":
		return "pull request"
	default:
		return "branch"
	}
}

// matches reports whether one history entry satisfies the target.
func (t Target) matches(b model.Build) bool {
	switch {
	case t.Tag != "":
		return b.IsTag && b.Tag == t.Tag
	case t.PullRequest != "":
		return b.PullRequestID == t.PullRequest
	default:
		return t.Commit != "" && b.CommitID == t.Commit
	}
}

type historyResponse struct {
	Builds *[]model.Build `json:"builds"`
}

type buildResponse struct {
	Build *struct {
		Jobs *[]model.Job `json:"jobs"`
	} `json:"build"`
}

// BuildHistory returns the most recent builds of a project, newest first,
// exactly as the API orders them.
func (c *Client) BuildHistory(ctx context.Context, owner, repo string) ([]model.Build, error) {
	endpoint := fmt.Sprintf("/projects/%s/%s/history?recordsNumber=%d", owner, repo, historyRecords)
	var reply historyResponse
	if err := c.queryAPI(ctx, endpoint, &reply); err != nil {
		return nil, err
	}
	if reply.Builds == nil {
		return nil, fmt.Errorf(`%w: "builds" key missing`, ErrMalformedResponse)
	}
	return *reply.Builds, nil
}

// FindMatch returns the first build, in the given order, that the target
// selects. ErrNoMatch when no build qualifies.
func FindMatch(builds []model.Build, target Target) (model.Build, error) {
	for _, b := range builds {
		if target.matches(b) {
			return b, nil
		}
	}
	return model.Build{}, ErrNoMatch
}

// BuildJobs returns the jobs of one build version in API order.
func (c *Client) BuildJobs(ctx context.Context, owner, repo, version string) ([]model.Job, error) {
	endpoint := fmt.Sprintf("/projects/%s/%s/build/%s", owner, repo, version)
	var reply buildResponse
	if err := c.queryAPI(ctx, endpoint, &reply); err != nil {
		return nil, err
	}
	if reply.Build == nil {
		return nil, fmt.Errorf(`%w: "build" key missing`, ErrMalformedResponse)
	}
	if reply.Build.Jobs == nil {
		return nil, fmt.Errorf(`%w: "jobs" key missing`, ErrMalformedResponse)
	}
	return *reply.Build.Jobs, nil
}

// FilterJobName reduces jobs to the single job with the given name. An
// empty name keeps every job.
func FilterJobName(jobs []model.Job, name string) ([]model.Job, error) {
	if name == "" {
		return jobs, nil
	}
	for _, j := range jobs {
		if j.Name == name {
			return []model.Job{j}, nil
		}
	}
	return nil, fmt.Errorf("job name %q not found", name)
}

// JobArtifacts lists the artifacts one job uploaded, each stamped with the
// job ID so downstream planning can tell jobs apart.
func (c *Client) JobArtifacts(ctx context.Context, jobID string) ([]model.Artifact, error) {
	var artifacts []model.Artifact
	if err := c.queryAPI(ctx, "/buildjobs/"+jobID+"/artifacts", &artifacts); err != nil {
		return nil, err
	}
	for i := range artifacts {
		artifacts[i].JobID = jobID
	}
	return artifacts, nil
}

// JobURL is the human-facing page for one job, used in failure messages.
func JobURL(owner, repo, jobID string) string {
	return fmt.Sprintf("https://ci.appveyor.com/project/%s/%s/build/job/%s", owner, repo, jobID)
}
