package cli

// This file maps remote artifacts to local destination paths, resolving
// file-name conflicts between jobs of the same build.

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/avfetch/avfetch/appveyor"
	"github.com/avfetch/avfetch/model"

	"github.com/rs/zerolog"
)

// planArtifacts decides where every artifact lands under cfg.Dir. Job-ID
// subdirectories are used when requested, or automatically when several
// jobs produce the same file name and --no-job-dirs was not given. Order
// of the input is preserved.
func planArtifacts(logger zerolog.Logger, cfg Config, client *appveyor.Client, artifacts []model.Artifact) ([]model.LocalArtifact, error) {
	jobDirs := cfg.AlwaysJobDirs

	switch jobs := countJobs(artifacts); {
	case jobs <= 1 && !cfg.AlwaysJobDirs:
		logger.Debug().Msg("Only one job ID, automatically setting job_dirs = False.")
		jobDirs = false
	case jobs > 1 && cfg.NoJobDirs == "" && !cfg.AlwaysJobDirs && hasConflicts(artifacts):
		logger.Debug().Msg("Multiple job IDs with file conflicts, automatically setting job_dirs = True")
		jobDirs = true
	}

	plan := make([]model.LocalArtifact, 0, len(artifacts))
	claimed := make(map[string]int, len(artifacts)) // local path -> index in plan

	for _, art := range artifacts {
		name := filepath.FromSlash(art.FileName)
		if jobDirs {
			name = filepath.Join(art.JobID, name)
		}
		path := filepath.Join(cfg.Dir, name)

		entry := model.LocalArtifact{
			Name: filepath.ToSlash(name),
			Path: path,
			URL:  client.ArtifactURL(art.JobID, art.FileName),
			Size: art.Size,
		}

		if prev, taken := claimed[path]; taken {
			switch cfg.NoJobDirs {
			case "skip":
				logger.Debug().Msgf("Skipping %s from job %s", art.FileName, art.JobID)
				continue
			case "overwrite":
				logger.Debug().Msgf("Overwriting %s from job %s with the copy from job %s",
					art.FileName, jobOf(plan[prev].URL), art.JobID)
				plan[prev] = entry
				continue
			case "rename":
				for {
					path = renameArtifact(path)
					if _, taken := claimed[path]; !taken {
						break
					}
				}
				logger.Debug().Msgf("Renaming %s to %s from job %s",
					art.FileName, filepath.Base(path), art.JobID)
				entry.Path = path
				entry.Name = renameLast(entry.Name, filepath.Base(path))
			default:
				logger.Error().Msgf("Collision: %s", path)
				return nil, fmt.Errorf("artifact collision: %s", path)
			}
		}

		claimed[path] = len(plan)
		plan = append(plan, entry)
	}
	return plan, nil
}

// renameArtifact inserts "_" before the final extension dot, or appends it
// when the name has no usable extension (dotfiles included).
func renameArtifact(path string) string {
	dir, base := filepath.Split(path)
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i] + "_" + base[i:]
	} else {
		base += "_"
	}
	return dir + base
}

// renameLast swaps the final element of a slash-separated display name.
func renameLast(name, base string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[:i+1] + base
	}
	return base
}

// hasConflicts reports whether two different jobs upload the same file name.
func hasConflicts(artifacts []model.Artifact) bool {
	owner := make(map[string]string, len(artifacts))
	for _, a := range artifacts {
		if job, ok := owner[a.FileName]; ok && job != a.JobID {
			return true
		}
		owner[a.FileName] = a.JobID
	}
	return false
}

func countJobs(artifacts []model.Artifact) int {
	seen := make(map[string]struct{}, len(artifacts))
	for _, a := range artifacts {
		seen[a.JobID] = struct{}{}
	}
	return len(seen)
}

// jobOf extracts the job ID from a buildjobs download URL, for log lines.
func jobOf(url string) string {
	parts := strings.Split(url, "/")
	for i, p := range parts {
		if p == "buildjobs" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}
