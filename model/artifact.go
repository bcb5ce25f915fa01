package model

// Artifact is one file a job uploaded, as listed by the artifacts endpoint.
type Artifact struct {
	// ID of the job that produced the artifact. Not part of the API
	// response (the endpoint is per-job); stamped on by the client.
	JobID string `json:"-"`
	// File name, may contain forward-slash subdirectories
	FileName string `json:"fileName"`
	// Size in bytes as reported by the API
	Size int64 `json:"size"`
	// Artifact type label (e.g. "File", "NuGetPackage")
	Type string `json:"type"`
}

// LocalArtifact is a planned download: where an artifact will be written
// and where it comes from.
type LocalArtifact struct {
	// Display name, relative to the output directory, forward slashes
	Name string
	// Local destination path
	Path string
	// Download URL
	URL string
	// Expected size in bytes; the downloaded byte count must match
	Size int64
}
