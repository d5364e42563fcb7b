package fs

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"sio-go/internal/organize"
)

// imageExts are the file extensions treated as organizable images.
var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
	".heic": true,
}

// OSFileOps is the real filesystem implementation of organize.FileOps.
type OSFileOps struct{}

// NewOSFileOps creates file ops that operate on the real filesystem.
func NewOSFileOps() *OSFileOps {
	return &OSFileOps{}
}

// Exists reports whether path is present. Errors other than "not exist"
// (e.g. permission problems on a parent) are surfaced.
func (o *OSFileOps) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (o *OSFileOps) MkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

// Move relocates a file via rename, falling back to copy-and-delete for
// cross-device moves. Timestamps survive either way.
func (o *OSFileOps) Move(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := o.Copy(src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("removing source after copy: %w", err)
	}
	return nil
}

// Copy duplicates src at dst, carrying over mode and modification time.
func (o *OSFileOps) Copy(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("copying content: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("closing destination: %w", err)
	}

	if err := os.Chmod(dst, info.Mode()); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("setting file times: %w", err)
	}
	return nil
}

func (o *OSFileOps) Remove(path string) error {
	return os.Remove(path)
}

func (o *OSFileOps) WriteFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0644)
}

// FindImages walks root recursively and returns image files in walk order,
// skipping hidden files and directories.
func (o *OSFileOps) FindImages(root string) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if imageExts[strings.ToLower(filepath.Ext(p))] {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return paths, nil
}

// Compile-time check that OSFileOps implements organize.FileOps
var _ organize.FileOps = (*OSFileOps)(nil)
