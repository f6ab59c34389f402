// SPDX-License-Identifier: MPL-2.0

package location

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"bundlectl/internal/issue"
)

// copyTree copies the contents of src into dst with update/merge semantics:
// missing files are created, existing files are overwritten only when the
// source is newer, and files present only in dst are left alone. dst is
// created if needed.
func copyTree(src, dst string) error {
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}

		srcInfo, err := d.Info()
		if err != nil {
			return err
		}
		if dstInfo, err := os.Stat(target); err == nil {
			if !srcInfo.ModTime().After(dstInfo.ModTime()) {
				return nil
			}
		}

		return copyFile(path, target, srcInfo.Mode().Perm())
	})
	if err != nil {
		return issue.NewErrorContext().
			WithKind(issue.KindIO).
			WithOperation("copy bundle to destination").
			WithResource(dst).
			WithSuggestion("Check destination permissions and free disk space").
			Wrap(err).
			BuildError()
	}
	return nil
}

func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
