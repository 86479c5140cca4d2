package preflight

import (
	"pizzabox/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckSerialDevice(cfg.Serial.Device))
	results = append(results, CheckStoryboard(cfg.Story.Storyboard))
	results = append(results, CheckReadable("Story sounds", cfg.Paths.StoryDir))
	results = append(results, CheckReadable("Effect sounds", cfg.Paths.SFXDir))

	// The stick is only required outside test mode
	if !cfg.Session.Test {
		results = append(results, CheckDirectoryAccess("Recordings directory", cfg.Paths.RecordingsDir))
		results = append(results, CheckStorage(cfg))
	}

	for _, status := range CheckSystemDeps(cfg) {
		results = append(results, statusResult(status))
	}
	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			out = append(out, r)
		}
	}
	return out
}
