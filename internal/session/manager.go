package session

import (
	"fmt"
	"os"
	"path/filepath"

	coreerrors "github.com/shebe-dev/shebe/internal/errors"
	"github.com/shebe-dev/shebe/internal/store"
)

// Manager maps session ids to their on-disk directories under
// <storage_root>/sessions/ and enforces the schema-version gate on Open.
// Manager exclusively owns sessions/; no other component writes into it.
type Manager struct {
	storageRoot string
}

// NewManager constructs a Manager rooted at storageRoot. storageRoot is
// created if it does not already exist.
func NewManager(storageRoot string) (*Manager, error) {
	if storageRoot == "" {
		return nil, fmt.Errorf("storage root is required")
	}
	sessionsDir := filepath.Join(storageRoot, "sessions")
	if err := os.MkdirAll(sessionsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create sessions directory: %w", err)
	}
	return &Manager{storageRoot: storageRoot}, nil
}

// SessionsDir returns <storage_root>/sessions.
func (m *Manager) SessionsDir() string {
	return filepath.Join(m.storageRoot, "sessions")
}

// Dir returns the root directory of session id, whether or not it exists.
func (m *Manager) Dir(id string) string {
	return filepath.Join(m.SessionsDir(), id)
}

// Exists reports whether a session directory exists on disk.
func (m *Manager) Exists(id string) bool {
	_, err := os.Stat(m.Dir(id))
	return err == nil
}

// Create materializes a new, empty session: directory tree, an empty index,
// and an initial metadata record at the current schema version. Fails with
// AlreadyExists if the session directory already exists.
func (m *Manager) Create(id, repositoryPath string, cfg IndexingConfig) (*store.Store, *Metadata, error) {
	if err := ValidateID(id); err != nil {
		return nil, nil, coreerrors.InvalidError(coreerrors.ErrCodeInvalidSessionID, err.Error())
	}
	if m.Exists(id) {
		return nil, nil, coreerrors.AlreadyExistsError(fmt.Sprintf("session %q already exists", id))
	}

	dir := m.Dir(id)
	idx, err := store.Create(tantivyDir(dir))
	if err != nil {
		return nil, nil, coreerrors.IndexFailedError(fmt.Sprintf("create index for session %q", id), err)
	}

	meta := NewMetadata(id, repositoryPath, dir, cfg)
	if err := writeMetadata(dir, meta); err != nil {
		_ = idx.Close()
		_ = os.RemoveAll(dir)
		return nil, nil, coreerrors.IOError(fmt.Sprintf("write metadata for session %q", id), err)
	}

	return idx, meta, nil
}

// Open loads an existing session for searching: a read-only index handle
// and its metadata. Fails with Stale if the on-disk schema_version is older
// or newer than CurrentSchemaVersion (§4.4: a newer schema is also
// rejected, since this binary cannot interpret fields it doesn't know).
func (m *Manager) Open(id string) (*store.Store, *Metadata, error) {
	if !m.Exists(id) {
		return nil, nil, coreerrors.NotFoundError(coreerrors.ErrCodeSessionNotFound, fmt.Sprintf("session %q not found", id))
	}

	meta, err := m.GetMetadata(id)
	if err != nil {
		return nil, nil, err
	}

	if meta.SchemaVersion != CurrentSchemaVersion {
		return nil, nil, coreerrors.StaleError(id, meta.SchemaVersion, CurrentSchemaVersion)
	}

	idx, err := store.OpenReadOnly(meta.TantivyDir())
	if err != nil {
		return nil, nil, coreerrors.SearchFailedError(fmt.Sprintf("open session %q index", id), err)
	}
	return idx, meta, nil
}

// OpenWriter loads an existing session for a rebuild: an exclusive writer
// handle over the index plus its metadata. Unlike Open, the schema gate
// does not apply here, since a stale session's only legal next step is
// exactly the reindex this handle supports.
func (m *Manager) OpenWriter(id string) (*store.Store, *Metadata, error) {
	if !m.Exists(id) {
		return nil, nil, coreerrors.NotFoundError(coreerrors.ErrCodeSessionNotFound, fmt.Sprintf("session %q not found", id))
	}
	meta, err := m.GetMetadata(id)
	if err != nil {
		return nil, nil, err
	}
	idx, err := store.Open(meta.TantivyDir())
	if err != nil {
		return nil, nil, coreerrors.IndexFailedError(fmt.Sprintf("open session %q index for writing", id), err)
	}
	return idx, meta, nil
}

// Delete recursively removes a session's directory. Fails if the session
// does not exist; there is no idempotent delete in this core.
func (m *Manager) Delete(id string) error {
	if !m.Exists(id) {
		return coreerrors.NotFoundError(coreerrors.ErrCodeSessionNotFound, fmt.Sprintf("session %q not found", id))
	}
	if err := os.RemoveAll(m.Dir(id)); err != nil {
		return coreerrors.IOError(fmt.Sprintf("delete session %q", id), err)
	}
	return nil
}

// GetMetadata reads and deserializes a session's meta.json. Unlike Open,
// this succeeds regardless of schema_version: the schema gate blocks
// reading the *index*, not the metadata describing it.
func (m *Manager) GetMetadata(id string) (*Metadata, error) {
	if !m.Exists(id) {
		return nil, coreerrors.NotFoundError(coreerrors.ErrCodeSessionNotFound, fmt.Sprintf("session %q not found", id))
	}
	meta, err := readMetadata(m.Dir(id))
	if err != nil {
		return nil, coreerrors.IOError(fmt.Sprintf("read metadata for session %q", id), err)
	}
	return meta, nil
}

// UpdateMetadata pretty-prints and atomically writes meta.json for an
// existing session.
func (m *Manager) UpdateMetadata(id string, meta *Metadata) error {
	if !m.Exists(id) {
		return coreerrors.NotFoundError(coreerrors.ErrCodeSessionNotFound, fmt.Sprintf("session %q not found", id))
	}
	if err := writeMetadata(m.Dir(id), meta); err != nil {
		return coreerrors.IOError(fmt.Sprintf("update metadata for session %q", id), err)
	}
	return nil
}

// List enumerates every session under sessions/. Entries whose metadata
// cannot be read are silently skipped, per §4.4; order is unspecified.
func (m *Manager) List() ([]*Metadata, error) {
	entries, err := os.ReadDir(m.SessionsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, coreerrors.IOError("list sessions", err)
	}

	var out []*Metadata
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(m.SessionsDir(), entry.Name())
		meta, err := readMetadata(dir)
		if err != nil {
			continue
		}
		out = append(out, meta)
	}
	return out, nil
}
