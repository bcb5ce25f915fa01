package coverage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const coverageBody = `!coverage.py: This is a private format, don't read it directly!` +
	`{"arcs": {"C:\\projects\\colorclass\\colorclass.py": [[516, 509], [398, 401], [173, 174], [-1, 380]]}}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestMangleNotACoverageFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".coverage", "lol jk")

	require.NoError(t, Mangle(zerolog.Nop(), path, dir))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "lol jk", string(data), "non-coverage files must not be touched")
}

func TestMangleMissingLocalFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".coverage", coverageBody)
	// colorclass.py does not exist under dir.

	err := Mangle(zerolog.Nop(), path, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, coverageBody, string(data), "file must stay untouched on error")
}

func TestMangleRewritesPaths(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "colorclass.py", "# source")
	path := writeFile(t, dir, ".coverage", coverageBody)

	require.NoError(t, Mangle(zerolog.Nop(), path, dir))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"C:`)
	assert.Contains(t, string(data), filepath.ToSlash(filepath.Join(dir, "colorclass.py")))
	// The arc data survives the rewrite.
	assert.Contains(t, string(data), "[[516, 509], [398, 401], [173, 174], [-1, 380]]")
}

func TestMangleSubdirectoryPaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src", "pkg"), 0o755))
	writeFile(t, filepath.Join(dir, "src", "pkg"), "mod.py", "# source")

	body := `!coverage.py: This is a private format, don't read it directly!` +
		`{"arcs": {"C:\\projects\\proj\\src\\pkg\\mod.py": [[1, 2]]}}`
	path := writeFile(t, dir, ".coverage", body)

	require.NoError(t, Mangle(zerolog.Nop(), path, dir))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), filepath.ToSlash(filepath.Join(dir, "src", "pkg", "mod.py")))
	assert.NotContains(t, string(data), `C:`)
}

func TestMangleIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "colorclass.py", "# source")
	path := writeFile(t, dir, ".coverage", coverageBody)

	require.NoError(t, Mangle(zerolog.Nop(), path, dir))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, Mangle(zerolog.Nop(), path, dir))
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}
