// Package coverage rewrites Windows build paths inside coverage.py data
// files so coverage collected on AppVeyor can be merged with coverage
// collected on the local platform.
package coverage

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// marker is how coverage.py data files begin.
const marker = "!coverage.py: This is a private format, don't read it directly!"

// windowsPath matches the JSON-escaped Windows checkout prefix AppVeyor
// uses (C:\projects\<slug>\), capturing the path remainder.
var windowsPath = regexp.MustCompile(`"C:\\\\projects\\\\[^\\"]+\\\\(.+?)"`)

// Mangle rewrites, in place, every C:\projects\<slug>\ path inside the
// coverage file at path to the corresponding path under root. Files that
// are not coverage.py data are skipped untouched. Every rewritten path
// must exist under root; a missing one fails the whole run so a bad merge
// is never produced silently.
func Mangle(logger zerolog.Logger, path, root string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read coverage file: %w", err)
	}
	if !bytes.HasPrefix(data, []byte(marker)) {
		logger.Info().Msgf("File %s not a coverage file.", path)
		return nil
	}

	for _, m := range windowsPath.FindAllStringSubmatch(string(data), -1) {
		local := localPath(root, m[1])
		if _, err := os.Stat(local); err != nil {
			logger.Error().Msg("No such file: " + local)
			return fmt.Errorf("no such file: %s", local)
		}
	}

	out := windowsPath.ReplaceAllStringFunc(string(data), func(m string) string {
		sub := windowsPath.FindStringSubmatch(m)
		return `"` + filepath.ToSlash(localPath(root, sub[1])) + `"`
	})
	if out == string(data) {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	logger.Info().Msgf("Mangling coverage file: %s", path)
	return os.WriteFile(path, []byte(out), info.Mode())
}

// localPath maps the JSON-escaped remainder of a Windows path to a path
// under root.
func localPath(root, rest string) string {
	return filepath.Join(root, filepath.FromSlash(strings.ReplaceAll(rest, `\\`, "/")))
}
