// Package storyboard interprets a chapter sequence against the box hardware.
//
// A storyboard is an ordered list of chapters; each chapter holds activity
// instances (Do) built from immutable per-activity default templates. The
// engine plays the current chapter, resolves visitor selections into a
// pending next chapter, and keeps enough position bookkeeping that skipping
// forward or jumping back issues the exact net scroll displacement.
//
// Storyboards are authored in YAML (see Parse) or taken from the embedded
// built-ins ("builtin:demo", "builtin:showcase").
package storyboard
