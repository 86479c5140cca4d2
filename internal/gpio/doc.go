// Package gpio drives the box's discrete lines through the sysfs GPIO
// interface: the lid switch, and the HELO1/HELO2 pair the microcontroller uses
// to signal that it is alive.
package gpio
