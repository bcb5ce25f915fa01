package model

// Status is the lifecycle state AppVeyor reports for a build job.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Terminal reports whether no further status changes will occur.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// Build is a single entry from a project's build history.
// Decoded from API responses and never mutated, only re-fetched.
type Build struct {
	// Build version, used as the key for the build detail endpoint
	Version string `json:"version"`
	// Branch the build ran against
	Branch string `json:"branch"`
	// Full git commit hash
	CommitID string `json:"commitId"`
	// Pull request number as a string, empty for branch and tag builds
	PullRequestID string `json:"pullRequestId,omitempty"`
	// Whether this build was triggered by a tag push
	IsTag bool `json:"isTag"`
	// Tag name, only set when IsTag is true
	Tag string `json:"tag,omitempty"`
	// Jobs of this build (the history endpoint leaves this empty)
	Jobs []Job `json:"jobs"`
}

// Job is one job within a build.
type Job struct {
	ID     string `json:"jobId"`
	Name   string `json:"name"`
	Status Status `json:"status"`
}
