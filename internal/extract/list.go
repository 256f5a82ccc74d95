package extract

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// ListFiles walks dir and returns paths of files whose extension matches one
// of extensions (dot and case insensitive; empty list matches all). Results
// are sorted so repeated scans of the same directory produce the same order.
func ListFiles(dir string, extensions []string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if MatchExtension(path, extensions) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// MatchExtension reports whether the file's extension is in extensions.
// An empty extensions list matches everything.
func MatchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}
