// Package drafts is the device-local key/value area: one JSON file per key
// under a directory that never leaves this machine. Nothing stored here goes
// through the API or the document store.
//
// The area is best effort. Read and write failures are logged and a failed
// read looks exactly like a missing key.
package drafts

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeKey = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

type Area struct {
	dir    string
	logger *slog.Logger
}

// Open returns the area rooted at dir. The directory is created on first
// write.
func Open(dir string) *Area {
	return &Area{dir: dir, logger: slog.Default()}
}

func (a *Area) Dir() string { return a.dir }

func (a *Area) path(key string) string {
	name := unsafeKey.ReplaceAllString(key, "_")
	name = strings.Trim(name, ".")
	return filepath.Join(a.dir, name+".json")
}

// Get decodes the value stored under key into v and reports whether it was
// found.
func (a *Area) Get(key string, v any) bool {
	data, err := os.ReadFile(a.path(key))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			a.logger.Warn("reading local value", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		a.logger.Warn("decoding local value", "key", key, "error", err)
		return false
	}
	return true
}

// Set stores v under key, replacing any previous value. It reports whether
// the value was written.
func (a *Area) Set(key string, v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		a.logger.Warn("encoding local value", "key", key, "error", err)
		return false
	}
	if err := os.MkdirAll(a.dir, 0o700); err != nil {
		a.logger.Warn("creating local area", "dir", a.dir, "error", err)
		return false
	}

	// Write to a sibling and rename so a reader never sees half a value.
	tmp, err := os.CreateTemp(a.dir, ".tmp-*")
	if err != nil {
		a.logger.Warn("writing local value", "key", key, "error", err)
		return false
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		a.logger.Warn("writing local value", "key", key, "error", err)
		return false
	}
	if err := tmp.Close(); err != nil {
		a.logger.Warn("writing local value", "key", key, "error", err)
		return false
	}
	if err := os.Rename(tmp.Name(), a.path(key)); err != nil {
		a.logger.Warn("writing local value", "key", key, "error", err)
		return false
	}
	return true
}

// Remove deletes key. Removing a missing key is not an error.
func (a *Area) Remove(key string) {
	if err := os.Remove(a.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		a.logger.Warn("removing local value", "key", key, "error", err)
	}
}
