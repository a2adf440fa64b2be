package storage

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// RefPrefix is the path prefix of every attachment reference handed back to
// callers. The filename after it is the only addressing scheme.
const RefPrefix = "/uploads/"

// allowedExtensions is the fixed allow-list for attachment uploads.
var allowedExtensions = map[string]bool{
	"pdf":  true,
	"doc":  true,
	"docx": true,
	"ppt":  true,
	"pptx": true,
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ErrUnsafeFilename is returned when a name would escape the upload
// directory or sanitizes down to nothing.
var ErrUnsafeFilename = errors.New("unsafe filename")

// IsAllowed reports whether the filename carries an extension from the
// allow-list. The check is case-insensitive and uses the substring after
// the last dot.
func IsAllowed(filename string) bool {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return false
	}
	return allowedExtensions[strings.ToLower(filename[i+1:])]
}

// UploadStore places attachment files in a single flat directory and hands
// out stable reference paths for them.
type UploadStore struct {
	dir string
}

// NewUploadStore creates the upload directory if needed and returns a store
// bound to it.
func NewUploadStore(dir string) (*UploadStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &UploadStore{dir: dir}, nil
}

// Dir returns the directory the store writes to.
func (u *UploadStore) Dir() string {
	return u.dir
}

// Store writes the blob under a sanitized form of filename and returns the
// reference path "/uploads/<final-name>". When the name is taken, a numeric
// suffix (_1, _2, ...) is probed before the extension until a free name is
// found. The probe is deterministic for a single writer but not safe under
// concurrent stores of the same base name.
func (u *UploadStore) Store(data []byte, filename string) (string, error) {
	name := sanitizeFilename(filename)
	if name == "" {
		return "", ErrUnsafeFilename
	}

	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidate := name
	for counter := 1; ; counter++ {
		if _, err := os.Stat(filepath.Join(u.dir, candidate)); errors.Is(err, os.ErrNotExist) {
			break
		} else if err != nil {
			return "", err
		}
		candidate = fmt.Sprintf("%s_%d%s", stem, counter, ext)
	}

	if err := os.WriteFile(filepath.Join(u.dir, candidate), data, 0o644); err != nil {
		return "", err
	}
	return RefPrefix + candidate, nil
}

// Resolve maps a stored filename back to its on-disk path, rejecting any
// name that would traverse outside the upload directory. Names containing
// dot runs (like "report..v2.pdf") are valid stored names; only the bare
// dot entries and names with separators are refused.
func (u *UploadStore) Resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", ErrUnsafeFilename
	}
	full := filepath.Join(u.dir, name)
	if _, err := os.Stat(full); err != nil {
		return "", err
	}
	return full, nil
}

// Files lists the filenames currently present in the upload directory.
func (u *UploadStore) Files() ([]string, error) {
	entries, err := os.ReadDir(u.dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// Remove deletes a stored file by name, with the same traversal checks as
// Resolve.
func (u *UploadStore) Remove(name string) error {
	full, err := u.Resolve(name)
	if err != nil {
		return err
	}
	return os.Remove(full)
}

// sanitizeFilename reduces a client-supplied name to a filesystem-safe base
// name, keeping the stem and extension where possible.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "." || name == ".." {
		return ""
	}
	return name
}
