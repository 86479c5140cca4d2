// Package lifecycle drives the installation through its operational states:
// power-on, self test, waiting for the lid, language selection, playing the
// storyboard, post-processing recordings, rewinding, and either looping back
// or shutting down. Every fault funnels into a single Error state that tries
// to tell the visitor and then shuts down.
package lifecycle
