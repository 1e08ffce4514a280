// Package walker provides synchronous, glob-filtered directory
// enumeration for the indexing pipeline. It does not follow symlinks
// and never aborts a walk because of a single bad entry.
package walker
