package cuda

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, filePath, contents string) {
	require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
	require.NoError(t, os.WriteFile(filePath, []byte(contents), 0o644))
}

func TestLoadLibraryPaths(t *testing.T) {
	dir := t.TempDir()
	confPath := filepath.Join(dir, "ld.so.conf")
	writeFile(t, confPath, "# system libraries\ninclude ld.so.conf.d/*.conf\n\n  /opt/lib  \n")
	writeFile(t, filepath.Join(dir, "ld.so.conf.d", "a-cuda.conf"), "/usr/local/cuda/lib64\n")
	writeFile(t, filepath.Join(dir, "ld.so.conf.d", "b-nvidia.conf"), "# nvidia\n/usr/lib/nvidia\n")

	paths := loadLibraryPaths([]string{"/first"}, confPath)
	require.Equal(t, []string{"/first", "/usr/local/cuda/lib64", "/usr/lib/nvidia", "/opt/lib"}, paths)

	// Missing files are ignored.
	paths = loadLibraryPaths(nil, filepath.Join(dir, "missing.conf"))
	require.Empty(t, paths)
}

func TestLibrarySearchPaths(t *testing.T) {
	t.Setenv(DriverLibraryPathsEnv, "/a::/b")
	require.Equal(t, []string{"/a", "/b"}, librarySearchPaths())

	require.NoError(t, os.Unsetenv(DriverLibraryPathsEnv))
	t.Setenv("LD_LIBRARY_PATH", "relative/dir:/ld/path")
	paths := librarySearchPaths()
	require.Equal(t, "/ld/path", paths[0])
	require.NotContains(t, paths, "relative/dir")
	require.Subset(t, paths, conventionalLibraryPaths)

	// Directories listed more than once are searched only once, in the position of their first occurrence.
	t.Setenv("LD_LIBRARY_PATH", conventionalLibraryPaths[0]+":/ld/path:/ld/path/:"+conventionalLibraryPaths[0])
	paths = librarySearchPaths()
	require.Equal(t, []string{conventionalLibraryPaths[0], "/ld/path"}, paths[:2])
	seen := make(map[string]bool)
	for _, p := range paths {
		require.Falsef(t, seen[filepath.Clean(p)], "directory %q searched twice in %v", p, paths)
		seen[filepath.Clean(p)] = true
	}
}

func TestUniquePaths(t *testing.T) {
	require.Equal(t, []string{"/a", "/b", "/c"}, uniquePaths([]string{"/a", "/b", "/a", "/b/", "/c", "/a"}))
	require.Empty(t, uniquePaths(nil))
}

func TestFindLibrary(t *testing.T) {
	dirA, dirB := t.TempDir(), t.TempDir()
	require.Equal(t, DriverLibraryName, findLibrary([]string{dirA, dirB}, DriverLibraryName))

	// A directory with the library name doesn't count.
	require.NoError(t, os.Mkdir(filepath.Join(dirA, DriverLibraryName), 0o755))
	writeFile(t, filepath.Join(dirB, DriverLibraryName), "not really a library")
	require.Equal(t, filepath.Join(dirB, DriverLibraryName), findLibrary([]string{dirA, dirB}, DriverLibraryName))
}
