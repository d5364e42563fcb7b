package organize

// FileOps abstracts the filesystem operations the planner, executor and undo
// engine perform, so all three can run against a mock in tests.
type FileOps interface {
	// Exists reports whether a file or directory is present at path.
	Exists(path string) (bool, error)

	// MkdirAll creates a directory and any missing parents.
	MkdirAll(path string) error

	// Move relocates a file, preserving its original timestamps.
	// Implementations fall back to copy-and-delete for cross-device moves.
	Move(src, dst string) error

	// Copy duplicates a file, preserving timestamps and leaving the
	// source untouched.
	Copy(src, dst string) error

	// Remove deletes a single file.
	Remove(path string) error

	// WriteFile writes data to path, creating or truncating it.
	WriteFile(path string, data []byte) error

	// FindImages discovers image files under root, recursively, skipping
	// hidden files and directories. Results are returned in a stable order.
	FindImages(root string) ([]string, error)
}
