package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// metaFileName is the session metadata file name within each session
// directory.
const metaFileName = "meta.json"

// tantivyDirName is the on-disk name of the full-text index subdirectory.
// Opaque to callers, owned entirely by the index store.
const tantivyDirName = "tantivy"

// validSessionID matches a non-empty id of at most 64 characters, starting
// with an alphanumeric, drawn from [A-Za-z0-9_-].
var validSessionID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

// ValidateID validates a session id against the pattern named in the data
// model: non-empty, <= 64 characters, first character alphanumeric, all
// characters in [A-Za-z0-9_-].
func ValidateID(id string) error {
	if !validSessionID.MatchString(id) {
		return fmt.Errorf("invalid session id %q: must match ^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$", id)
	}
	return nil
}

func tantivyDir(sessionDir string) string {
	return filepath.Join(sessionDir, tantivyDirName)
}

func metaPath(sessionDir string) string {
	return filepath.Join(sessionDir, metaFileName)
}

// readMetadata reads and parses meta.json from sessionDir.
func readMetadata(sessionDir string) (*Metadata, error) {
	data, err := os.ReadFile(metaPath(sessionDir))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", metaFileName, err)
	}
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", metaFileName, err)
	}
	m.Dir = sessionDir
	return &m, nil
}

// writeMetadata atomically pretty-prints m to sessionDir/meta.json.
func writeMetadata(sessionDir string, m *Metadata) error {
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	path := metaPath(sessionDir)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("commit metadata: %w", err)
	}
	return nil
}
