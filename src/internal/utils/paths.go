package utils

import "path/filepath"

// GetAbsolutePath returns path unchanged when it is absolute, otherwise
// resolves it against baseDir. Relative results are cleaned.
func GetAbsolutePath(path, baseDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
