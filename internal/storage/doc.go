// Package storage checks the removable recording stick and watches for it
// being plugged in or pulled while the installation runs.
package storage
