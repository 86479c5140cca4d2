// Package media wraps the command-line audio and camera tools the box runs:
// a wav player with a small known-good cache, an audio recorder that can be
// stopped early, libcamera video and still capture, and an ffmpeg based
// corrector that undoes the keystone and rotation of recorded clips.
//
// Every failure is tagged with services.ErrExternalTool (or ErrFileSystem for
// missing sounds) so the lifecycle can classify it.
package media
