package appveyor

import "errors"

var (
	// ErrAPI is a request that still failed after retries, or came back
	// with a non-200 status.
	ErrAPI = errors.New("api request failed")
	// ErrMalformedResponse is a body that could not be parsed, or parsed
	// into a shape missing mandatory keys.
	ErrMalformedResponse = errors.New("malformed api response")
	// ErrNoMatch means no build in the queried history window matched the
	// target. Expected transiently right after a push, before AppVeyor has
	// registered the build.
	ErrNoMatch = errors.New("no matching build found")
	// ErrUpstreamBuildFailed means the matched build reached a terminal
	// failed status. Not a polling error, but the caller must surface it
	// as a non-zero exit.
	ErrUpstreamBuildFailed = errors.New("appveyor build failed")
	// ErrTimeout means the poll deadline elapsed while the build was
	// still non-terminal (or never appeared).
	ErrTimeout = errors.New("timed out waiting for build")
	// ErrUnknownStatus is a job status string this tool does not know.
	ErrUnknownStatus = errors.New("unknown job status")
)
