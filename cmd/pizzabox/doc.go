// Package main hosts the pizzabox CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the installation state machine, the
// maintenance routines (rewind, hardware self test, debug frames), storyboard
// inspection, the session ledger listing, and configuration scaffolding. It
// centralizes dotenv and configuration resolution, logger setup, and the
// process lock so subcommands can focus on their own output.
//
// Keep this package lean: behavior lives in the internal packages and is
// surfaced here through dedicated commands or flags.
package main
