package app

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"scriptlint/internal/shared/util"
)

// ScanPaths lists the descriptor and script files below paths, skipping
// excluded directories and files. A path naming a file is included when the
// extractor supports it and it is not excluded. The result is sorted.
func (a *Analyzer) ScanPaths(paths []string) ([]string, error) {
	var files []string
	for _, root := range util.UniqueRoots(paths) {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if a.includeFile(root) {
				files = append(files, root)
			}
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && util.MatchAny(a.excludeDirs, d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if a.includeFile(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	slices.Sort(files)
	return slices.Compact(files), nil
}

func (a *Analyzer) includeFile(path string) bool {
	return a.extractor.Supports(path) && !util.MatchAny(a.excludeFiles, filepath.Base(path))
}
