package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"pizzabox/internal/config"
)

// Requirement names an external tool the controller shells out to.
// Command may carry arguments; only its first word is looked up.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is a requirement after PATH lookup. Path is set when Available.
type Status struct {
	Requirement
	Path      string
	Available bool
	Detail    string
}

// MediaRequirements lists the audio, camera, and transcoding tools named
// by cfg. Camera and post-processing tools are optional: a box without a
// camera still runs audio-only storyboards.
func MediaRequirements(cfg *config.Config) []Requirement {
	if cfg == nil {
		return nil
	}
	m := cfg.Media
	return []Requirement{
		{Name: "Player", Command: m.Player, Description: "Required for sound playback"},
		{Name: "Recorder", Command: m.Recorder, Description: "Required for visitor audio"},
		{Name: "Video", Command: m.Video, Description: "Records visitor video", Optional: true},
		{Name: "Still", Command: m.Still, Description: "Captures visitor photos", Optional: true},
		{Name: "FFmpeg", Command: m.FFmpeg, Description: "Corrects recorded video", Optional: true},
		{Name: "FFprobe", Command: m.FFprobe, Description: "Inspects recorded video", Optional: true},
	}
}

// Resolve looks up a single requirement on PATH.
func Resolve(req Requirement) Status {
	status := Status{Requirement: req}
	fields := strings.Fields(req.Command)
	if len(fields) == 0 {
		status.Detail = "command not configured"
		return status
	}
	path, err := exec.LookPath(fields[0])
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", fields[0])
		return status
	}
	status.Path = path
	status.Available = true
	return status
}

// CheckBinaries resolves every requirement, preserving order.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, len(requirements))
	for i, req := range requirements {
		results[i] = Resolve(req)
	}
	return results
}

// Missing returns the required statuses that are unavailable.
func Missing(statuses []Status) []Status {
	var out []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			out = append(out, s)
		}
	}
	return out
}
