// Package deps checks that the external media tools the controller shells
// out to are installed.
package deps
