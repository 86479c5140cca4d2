// Package preflight provides readiness checks for the filesystem paths,
// removable storage, storyboard, and external tools the controller depends on.
//
// These checks run in two contexts:
//   - The "pizzabox selftest" command prints every result as a table.
//   - The "pizzabox run" command refuses to start when a required check fails.
//
// Storage checks are skipped in test mode, matching the power-on self test.
package preflight
