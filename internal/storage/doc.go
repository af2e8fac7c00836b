// Package storage provides a thread-safe, disk-backed container for a single
// JSON-serializable document.
//
// A Store loads its document from disk on open, falling back to a caller
// supplied default when the file is absent, corrupt, or fails validation, and
// immediately normalizes the on-disk state in that case. All access goes
// through a Guard, which holds the store's lock and persists the document on
// release, skipping the write when the serialized bytes match what is already
// on disk.
package storage
