// Package fsops holds the filesystem primitives used to place generated HTML:
// directory creation, move with a cross-device fallback, and recursive copy.
package fsops

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"git.home.luguber.info/inful/doxyhook/internal/logfields"
)

var (
	// ErrSourceMissing is returned when the directory to move or copy does not exist.
	ErrSourceMissing = errors.New("source path does not exist")
	// ErrDestinationExists is returned when a move would land on an existing path.
	ErrDestinationExists = errors.New("destination path already exists")
)

// dirPerm is used for every directory doxyhook creates.
const dirPerm = 0o755

// EnsureDir creates dir and any missing parents. An existing directory is not an error.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}

// Exists reports whether path exists (any file type).
func Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Move relocates src to dst. dst must not exist and its parent must. When a
// plain rename crosses filesystems the tree is copied and src removed, so the
// observable result is always a move.
func Move(src, dst string) error {
	if ok, err := Exists(src); err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	} else if !ok {
		return fmt.Errorf("%w: %s", ErrSourceMissing, src)
	}
	if ok, err := Exists(dst); err != nil {
		return fmt.Errorf("stat %s: %w", dst, err)
	} else if ok {
		return fmt.Errorf("%w: %s", ErrDestinationExists, dst)
	}

	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return fmt.Errorf("move %s to %s: %w", src, dst, err)
	}

	slog.Debug("Rename crosses devices; copying instead", logfields.Source(src), logfields.Target(dst))
	if err := CopyDir(src, dst); err != nil {
		_ = os.RemoveAll(dst)
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	if err := os.RemoveAll(src); err != nil {
		return fmt.Errorf("remove %s after copy: %w", src, err)
	}
	return nil
}

// Replace copies src to dst, removing whatever dst held before.
func Replace(src, dst string) error {
	if ok, err := Exists(src); err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	} else if !ok {
		return fmt.Errorf("%w: %s", ErrSourceMissing, src)
	}
	if err := os.RemoveAll(dst); err != nil {
		return fmt.Errorf("remove %s: %w", dst, err)
	}
	return CopyDir(src, dst)
}

// CopyDir recursively copies a directory tree, preserving file modes and symlinks.
func CopyDir(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrSourceMissing, src)
		}
		return err
	}
	if !srcInfo.IsDir() {
		return fmt.Errorf("copy %s: not a directory", src)
	}
	if err := os.MkdirAll(dst, srcInfo.Mode().Perm()); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		switch {
		case entry.Type()&os.ModeSymlink != 0:
			target, err := os.Readlink(srcPath)
			if err != nil {
				return err
			}
			if err := os.Symlink(target, dstPath); err != nil {
				return err
			}
		case entry.IsDir():
			if err := CopyDir(srcPath, dstPath); err != nil {
				return err
			}
		default:
			if err := copyFile(srcPath, dstPath); err != nil {
				return err
			}
		}
	}
	return nil
}

// copyFile copies a single file from src to dst
func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = srcFile.Close()
	}()

	info, err := srcFile.Stat()
	if err != nil {
		return err
	}

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return err
	}
	return dstFile.Close()
}
