package ports

import "time"

// FileStat is the file metadata used to tell whether a file changed.
type FileStat struct {
	Size    int64
	ModTime time.Time
}

// FileSystem abstracts file system operations.
type FileSystem interface {
	// ReadFile reads the entire contents of a file.
	ReadFile(path string) ([]byte, error)

	// WriteFile writes data to a file, creating it if necessary.
	WriteFile(path string, data []byte) error

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(path string) error

	// Exists checks if a file or directory exists.
	Exists(path string) (bool, error)

	// Size returns the size of a regular file in bytes.
	Size(path string) (int64, error)

	// Stat returns the size and modification time of a path.
	Stat(path string) (FileStat, error)

	// Remove deletes a file or empty directory.
	Remove(path string) error
}
