package civiltime

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Directories searched for the host timezone database, in order. Matches the
// lookup order of the stdlib time package.
var zoneDirs = []string{
	"/usr/share/zoneinfo",
	"/usr/share/lib/zoneinfo",
	"/usr/lib/locale/TZ",
}

// Zones enumerates the IANA timezone identifiers supported by the host,
// sorted. Hosts without a readable zoneinfo tree yield an empty slice, not an
// error; callers treat that as "augmentation unavailable".
func Zones() []string {
	dirs := zoneDirs
	if env := os.Getenv("ZONEINFO"); env != "" {
		dirs = append([]string{env}, dirs...)
	}

	seen := make(map[string]bool)
	for _, dir := range dirs {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		root := dir
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // unreadable subtree, skip it
			}
			name, relErr := filepath.Rel(root, path)
			if relErr != nil || name == "." {
				return nil
			}
			// posix/ and right/ duplicate the whole tree.
			if d.IsDir() {
				if name == "posix" || name == "right" {
					return filepath.SkipDir
				}
				return nil
			}
			if !validZoneName(name) {
				return nil
			}
			seen[name] = true
			return nil
		})
		if len(seen) > 0 {
			break
		}
	}

	zones := make([]string, 0, len(seen))
	for z := range seen {
		zones = append(zones, z)
	}
	sort.Strings(zones)
	return zones
}

// validZoneName filters out the non-zone files that live in zoneinfo trees
// (tab files, posixrules, leap-second data). Real identifiers start every
// path component with an uppercase letter and contain no dots.
func validZoneName(name string) bool {
	if strings.Contains(name, ".") {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if part == "" {
			return false
		}
		first := part[0]
		if first < 'A' || first > 'Z' {
			return false
		}
	}
	return true
}
