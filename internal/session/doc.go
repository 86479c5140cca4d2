// Package session owns the per-visitor recording namespace and the file
// references used by storyboards. A Session is created once per run by the
// lifecycle and passed to every component that names recordings.
package session
