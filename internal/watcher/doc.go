// Package watcher reports saved changes to a single document file.
//
// It uses fsnotify on the file's directory, so editors that save by writing
// a temp file and renaming it over the original are seen too. When fsnotify
// is unavailable it falls back to polling the file's size, mtime and content
// hash. Bursts of events are coalesced by a Debouncer.
package watcher
