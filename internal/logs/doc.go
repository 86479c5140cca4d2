// Package logs finds the controller's per-run log files and tails them for
// `pizzabox logs`, optionally following new lines until the context ends.
package logs
