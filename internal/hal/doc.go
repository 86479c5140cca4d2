// Package hal is the hardware facade of the box.
//
// Box composes the serial link, the GPIO lines, and the media tools into the
// synchronous operations the storyboard and lifecycle use. The package level
// helpers (SetMovement, SetLight, DoIt, WaitForInput, PlaySound, TurnOff,
// RewindScrolls) work against the small Device interface so they can be
// exercised with a fake.
package hal
