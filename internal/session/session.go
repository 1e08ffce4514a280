// Package session manages the lifecycle of indexing sessions: named,
// isolated indexes rooted at <storage_root>/sessions/<id>/, each holding a
// full-text index directory and a JSON metadata sidecar.
package session

import "time"

// CurrentSchemaVersion is the schema_version written to new session
// metadata. Sessions persisted under an older version are reported as
// KindStale on Open until reindexed.
//
// History:
//  1. initial layout: id, created_at, files_indexed, chunks_created,
//     index_size_bytes, config.
//  2. added the indexed flag on the chunk index, enabling chunk preview.
//  3. added repository_path, last_indexed_at, and the config pattern lists.
const CurrentSchemaVersion uint32 = 3

// IndexingConfig is the subset of indexing configuration captured with a
// session so a later reindex can reproduce it without re-reading the
// project's config file.
type IndexingConfig struct {
	ChunkSize       int      `json:"chunk_size"`
	Overlap         int      `json:"overlap"`
	IncludePatterns []string `json:"include_patterns"`
	ExcludePatterns []string `json:"exclude_patterns"`
}

// Metadata is a session's persisted record, stored as meta.json alongside
// its index directory.
type Metadata struct {
	ID             string         `json:"id"`
	RepositoryPath string         `json:"repository_path"`
	CreatedAt      time.Time      `json:"created_at"`
	LastIndexedAt  time.Time      `json:"last_indexed_at"`
	FilesIndexed   uint64         `json:"files_indexed"`
	ChunksCreated  uint64         `json:"chunks_created"`
	IndexSizeBytes uint64         `json:"index_size_bytes"`
	Config         IndexingConfig `json:"config"`
	SchemaVersion  uint32         `json:"schema_version"`

	// Dir is the session's root directory. Computed, not persisted.
	Dir string `json:"-"`
}

// NewMetadata constructs the metadata record for a freshly created session.
func NewMetadata(id, repositoryPath, dir string, cfg IndexingConfig) *Metadata {
	now := time.Now().UTC()
	return &Metadata{
		ID:             id,
		RepositoryPath: repositoryPath,
		CreatedAt:      now,
		LastIndexedAt:  now,
		Config:         cfg,
		SchemaVersion:  CurrentSchemaVersion,
		Dir:            dir,
	}
}

// RecordIndexRun updates the statistics recorded by a completed index or
// reindex operation.
func (m *Metadata) RecordIndexRun(filesIndexed, chunksCreated uint64, indexSizeBytes uint64) {
	m.FilesIndexed = filesIndexed
	m.ChunksCreated = chunksCreated
	m.IndexSizeBytes = indexSizeBytes
	m.LastIndexedAt = time.Now().UTC()
}

// TantivyDir returns the full-text index subdirectory for this session.
// The name is a fixed on-disk convention, not a reference to any specific
// search engine.
func (m *Metadata) TantivyDir() string {
	return tantivyDir(m.Dir)
}
