// Package watch keeps sheets current after the initial build.
//
// A Coordinator subscribes a Watcher to every sheet's source directories and
// turns membership changes (a matching file added or removed) into a
// rebuild of the owning sheet only. Rebuilds go through a Queue that runs at
// most one build per sheet and coalesces bursts into one follow-up build.
// Content edits of tracked files are ignored unless OnChange is set.
package watch
