// Package services defines shared utilities consumed by the hardware link, the
// storyboard engine, and the lifecycle state machine.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs, lifecycle states, and chapter
//     indexes for logging.
//   - Structured fault markers plus the Wrap helper so the state machine can
//     classify a failure (link, peer, file system, configuration) without
//     string matching.
//
// Use these helpers when wiring new hardware or storyboard code so fault
// handling and observability stay uniform across the installation.
package services
