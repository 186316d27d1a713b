// Package filesys provides the small set of file-system primitives the
// store's lifecycle actually needs: existence checks for Open, and (in
// copyrange.go) the copy_file_range(2)-backed split/merge of the
// auxiliary index file.
package filesys

import (
	"errors"
	"os"
)

// Exists reports whether a file or directory exists at path. It returns
// false, nil when the path does not exist, and propagates any other stat
// error (permission denied, I/O error on a network filesystem) rather than
// folding it into "doesn't exist".
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}
