package lifecycle

import "fmt"

// State is one operational phase of the installation.
type State int

const (
	PowerOn State = iota
	PowerOnSelfTest
	IdleArmed
	LanguageSelect
	Play
	PostProcess
	Rewind
	IdleEnd
	Shutdown
	Error
)

var stateNames = [...]string{
	PowerOn:         "PowerOn",
	PowerOnSelfTest: "PowerOnSelfTest",
	IdleArmed:       "IdleArmed",
	LanguageSelect:  "LanguageSelect",
	Play:            "Play",
	PostProcess:     "PostProcess",
	Rewind:          "Rewind",
	IdleEnd:         "IdleEnd",
	Shutdown:        "Shutdown",
	Error:           "Error",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether the run loop stops in s.
func (s State) Terminal() bool { return s == Shutdown || s == Error }

// Process exit codes returned by Run.
const (
	ExitOK    = 0
	ExitError = 2
)

// Outcomes stored with a finished session.
const (
	OutcomeCompleted   = "completed"
	OutcomeInterrupted = "interrupted"
	OutcomeError       = "error"
)
