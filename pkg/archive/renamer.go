package archive

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	apperrors "tumblrlikes/pkg/errors"
	"tumblrlikes/pkg/logger"
)

// IndexedName is the on-disk name of a file belonging to the index-th oldest like
func IndexedName(index int, name string) string {
	return fmt.Sprintf("%d - %s", index, name)
}

// IndexOf returns the 1-based like index of the group at position i of n
// arrival-ordered groups. The oldest like, last to arrive, gets 1.
func IndexOf(i, n int) int {
	return n - i
}

// Rename walks groups from the oldest like to the newest and renames every
// file to IndexedName(index, remote filename). Each post consumes an index
// whether or not it produced files. Files already carrying their target
// name are left alone; a file shared by several posts keeps the index of
// its oldest like. The first failure aborts the pass. File paths are
// updated in place; the number of renamed files is returned.
func Rename(groups []Group, log logger.Logger) (int, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	renamed := 0
	moved := make(map[string]string)

	for i := len(groups) - 1; i >= 0; i-- {
		index := IndexOf(i, len(groups))

		for _, file := range groups[i].Files {
			if file == nil {
				continue
			}
			if newPath, ok := moved[file.Path]; ok {
				file.Path = newPath
				continue
			}

			target := filepath.Join(filepath.Dir(file.Path), IndexedName(index, file.Name))
			if file.Path == target {
				moved[file.Path] = target
				continue
			}

			if err := renameFile(file.Path, target); err != nil {
				log.WithError(err).WithFields(map[string]interface{}{
					"from": file.Path,
					"to":   target,
				}).Error("rename failed")
				return renamed, err
			}

			log.WithFields(map[string]interface{}{
				"index": index,
				"from":  filepath.Base(file.Path),
				"to":    filepath.Base(target),
			}).Debug("renamed")

			moved[file.Path] = target
			moved[target] = target
			file.Path = target
			renamed++
		}
	}

	return renamed, nil
}

// renameFile refuses to replace an existing different file, which os.Rename
// would otherwise do silently
func renameFile(from, to string) error {
	if dst, err := os.Lstat(to); err == nil {
		src, srcErr := os.Lstat(from)
		if srcErr != nil || !os.SameFile(src, dst) {
			return apperrors.Filesystem("rename "+from, fmt.Errorf("%s: %w", to, fs.ErrExist))
		}
	}
	if err := os.Rename(from, to); err != nil {
		return apperrors.Filesystem("rename "+from, err)
	}
	return nil
}
