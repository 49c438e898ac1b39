/*
 *	Copyright 2024 Jan Pfeifer
 *
 *	Licensed under the Apache License, Version 2.0 (the "License");
 *	you may not use this file except in compliance with the License.
 *	You may obtain a copy of the License at
 *
 *	http://www.apache.org/licenses/LICENSE-2.0
 *
 *	Unless required by applicable law or agreed to in writing, software
 *	distributed under the License is distributed on an "AS IS" BASIS,
 *	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *	See the License for the specific language governing permissions and
 *	limitations under the License.
 */

package cuda

// This file handles locating and loading the CUDA driver library (libcuda.so.1).

import (
	"bufio"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/NVIDIA/go-nvml/pkg/dl"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

const (
	// DriverLibraryPathsEnv is the name of the environment variable that define the search paths for the
	// CUDA driver library. It is a ":" separated list of directories.
	DriverLibraryPathsEnv = "CUDA_DRIVER_LIBRARY_PATH"

	// DriverLibraryName is the soname of the CUDA driver library.
	DriverLibraryName = "libcuda.so.1"

	// LdConfPath is the file listing the system dynamic library directories.
	LdConfPath = "/etc/ld.so.conf"
)

var (
	// driverLib is the opened driver library, nil if not loaded yet. Protected by muDriver.
	//
	// It is never closed: the driver handles live until the process exits.
	driverLib *dl.DynamicLibrary
	muDriver  sync.Mutex

	// conventionalLibraryPaths are searched after the ones configured in the system.
	conventionalLibraryPaths = []string{"/usr/lib/x86_64-linux-gnu", "/usr/lib64", "/usr/lib/wsl/lib"}

	reLdConfInclude = regexp.MustCompile(`^\s*include\s*(.*)$`)
	reLdConfComment = regexp.MustCompile(`^\s*#`)
	reLdConfPath    = regexp.MustCompile(`^\s*(.+?)\s*$`)
)

// librarySearchPaths returns the directories where to search for the driver library, in order.
//
// If CUDA_DRIVER_LIBRARY_PATH is set only its directories are searched. Otherwise it uses the absolute entries
// of LD_LIBRARY_PATH, then those listed in /etc/ld.so.conf, then a few conventional locations.
func librarySearchPaths() []string {
	if envPaths, found := os.LookupEnv(DriverLibraryPathsEnv); found {
		return slices.DeleteFunc(strings.Split(envPaths, ":"), func(p string) bool {
			return p == "" // Remove empty paths.
		})
	}

	var paths []string
	for _, ldPath := range strings.Split(os.Getenv("LD_LIBRARY_PATH"), ":") {
		if ldPath == "" || !path.IsAbs(ldPath) {
			// No empty or relative paths.
			continue
		}
		paths = append(paths, ldPath)
	}
	paths = loadLibraryPaths(paths, LdConfPath)
	paths = append(paths, conventionalLibraryPaths...)
	return uniquePaths(paths)
}

// uniquePaths removes repeated directories, keeping the first occurrence.
func uniquePaths(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	return slices.DeleteFunc(paths, func(p string) bool {
		p = filepath.Clean(p)
		if seen[p] {
			return true
		}
		seen[p] = true
		return false
	})
}

// loadLibraryPaths appends to paths the directories listed in an ld.so.conf formatted file, following its
// include directives.
func loadLibraryPaths(paths []string, fileWithIncludes string) []string {
	klog.V(2).Infof("Loading paths for libraries from %q", fileWithIncludes)
	file, err := os.Open(fileWithIncludes)
	if err != nil {
		klog.V(1).Infof("Failed to load paths for libraries from %q: %v", fileWithIncludes, err)
		return paths
	}
	defer func() { _ = file.Close() }()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if parts := reLdConfInclude.FindStringSubmatch(line); len(parts) > 0 {
			pattern := parts[1]
			if !path.IsAbs(pattern) {
				// Relative includes are relative to the including file.
				pattern = filepath.Join(filepath.Dir(fileWithIncludes), pattern)
			}
			klog.V(2).Infof("loadLibraryPaths: include %q", pattern)
			files, err := filepath.Glob(pattern)
			if err != nil {
				klog.Errorf("Failed to load paths for libraries while expanding include entry %q: %v", pattern, err)
				continue
			}
			for _, includeFile := range files {
				paths = loadLibraryPaths(paths, includeFile)
			}

		} else if reLdConfComment.MatchString(line) {
			klog.V(2).Infof("loadLibraryPaths: comment %q", line)

		} else if parts := reLdConfPath.FindStringSubmatch(line); len(parts) > 0 {
			klog.V(2).Infof("loadLibraryPaths: path %q", parts[1])
			paths = append(paths, parts[1])

		} else if strings.TrimSpace(line) != "" {
			klog.V(2).Infof("loadLibraryPaths: cannot parse line %q", line)
		}
	}
	if err := scanner.Err(); err != nil {
		klog.Errorf("Error while loading paths for libraries from %q: %v", fileWithIncludes, err)
	}
	return paths
}

// findLibrary returns the first path to a regular file called name in the given directories.
// If none is found it returns name itself, leaving the search to the system dynamic loader.
func findLibrary(paths []string, name string) string {
	for _, dir := range paths {
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		return candidate
	}
	return name
}

// loadDriver opens the CUDA driver library, if not yet opened, and checks that it exports all the required
// symbols.
//
// It uses a mutex to serialize (make it safe) calls from different goroutines.
func loadDriver() error {
	muDriver.Lock()
	defer muDriver.Unlock()
	if driverLib != nil {
		return nil
	}

	libPath := findLibrary(librarySearchPaths(), DriverLibraryName)
	klog.V(1).Infof("attempting to load CUDA driver from %s", libPath)
	lib := dl.New(libPath, dl.RTLD_LAZY|dl.RTLD_GLOBAL)
	if err := lib.Open(); err != nil {
		err = errors.Wrapf(err, "failed to load CUDA driver library %q: set %s to the directory holding %s",
			libPath, DriverLibraryPathsEnv, DriverLibraryName)
		if !hasNvidiaGPU() {
			err = errors.WithMessage(err, "no NVidia device files (/dev/nvidia*) found")
		}
		return err
	}
	for _, symbol := range requiredSymbols {
		if err := lib.Lookup(symbol); err != nil {
			if closeErr := lib.Close(); closeErr != nil {
				klog.Warningf("Failed to close dynamic library %q: %v", libPath, closeErr)
			}
			return errors.Wrapf(err, "CUDA driver library %q doesn't export %q, is the driver too old?", libPath, symbol)
		}
	}
	klog.V(1).Infof("loaded CUDA driver from %s", libPath)
	driverLib = lib
	return nil
}

var (
	hasNvidiaGPUOnce  sync.Once
	hasNvidiaGPUCache bool
)

// hasNvidiaGPU tries to guess if there is an actual NVidia GPU installed (as opposed to only the drivers).
// It does that by checking for the presence of the device files in /dev/nvidia*.
func hasNvidiaGPU() bool {
	hasNvidiaGPUOnce.Do(func() {
		matches, err := filepath.Glob("/dev/nvidia*")
		if err != nil {
			klog.Errorf("Failed to figure out if there is an NVidia GPU installed while searching for files matching \"/dev/nvidia*\": %v", err)
		}
		hasNvidiaGPUCache = len(matches) > 0
	})
	return hasNvidiaGPUCache
}
