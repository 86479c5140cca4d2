package storyboard

import "fmt"

// Option is what a visitor's button press (or a timeout) asks the engine to do.
type Option int

const (
	// OptionNone leaves the input unbound; pressing it does nothing.
	OptionNone Option = iota
	OptionContinue
	OptionRepeat
	OptionGoto
	OptionQuit
)

func (o Option) String() string {
	switch o {
	case OptionContinue:
		return "continue"
	case OptionRepeat:
		return "repeat"
	case OptionGoto:
		return "goto"
	case OptionQuit:
		return "quit"
	default:
		return "none"
	}
}

// Rewind controls whether a repeat physically rewinds the scrolls.
// RewindUnset keeps the session's movement setting.
type Rewind int

const (
	RewindUnset Rewind = iota
	RewindYes
	RewindNo
)

func (r Rewind) String() string {
	switch r {
	case RewindYes:
		return "rewind"
	case RewindNo:
		return "no-rewind"
	default:
		return "default"
	}
}

// SkipOverride optionally replaces the storyboard's global skip flag.
type SkipOverride int

const (
	SkipUnset SkipOverride = iota
	SkipOn
	SkipOff
)

// SkipTo returns the override that sets the skip flag to v.
func SkipTo(v bool) SkipOverride {
	if v {
		return SkipOn
	}
	return SkipOff
}

// Apply returns the flag value after the override.
func (s SkipOverride) Apply(current bool) bool {
	switch s {
	case SkipOn:
		return true
	case SkipOff:
		return false
	default:
		return current
	}
}

func (s SkipOverride) String() string {
	switch s {
	case SkipOn:
		return "skip"
	case SkipOff:
		return "no-skip"
	default:
		return "default"
	}
}

// Selection binds an input to an Option and its parameters.
type Selection struct {
	Option  Option
	Chapter int
	Skip    SkipOverride
	Rewind  Rewind
}

func Continue() Selection { return Selection{Option: OptionContinue} }

// ContinueSkipping continues and sets the global skip flag to skip.
func ContinueSkipping(skip bool) Selection {
	return Selection{Option: OptionContinue, Skip: SkipTo(skip)}
}

func Repeat() Selection { return Selection{Option: OptionRepeat} }

// RepeatRewinding repeats the chapter and decides explicitly whether the
// scrolls move back to the chapter start.
func RepeatRewinding(rewind bool) Selection {
	r := RewindNo
	if rewind {
		r = RewindYes
	}
	return Selection{Option: OptionRepeat, Rewind: r}
}

// Goto jumps to chapter.
func Goto(chapter int) Selection { return Selection{Option: OptionGoto, Chapter: chapter} }

// GotoSkipping jumps to chapter and sets the global skip flag to skip.
func GotoSkipping(chapter int, skip bool) Selection {
	return Selection{Option: OptionGoto, Chapter: chapter, Skip: SkipTo(skip)}
}

func Quit() Selection { return Selection{Option: OptionQuit} }

func Unbound() Selection { return Selection{} }

// Bound reports whether the selection reacts to its input.
func (s Selection) Bound() bool { return s.Option != OptionNone }

func (s Selection) String() string {
	switch s.Option {
	case OptionGoto:
		if s.Skip != SkipUnset {
			return fmt.Sprintf("goto %d (%s)", s.Chapter, s.Skip)
		}
		return fmt.Sprintf("goto %d", s.Chapter)
	case OptionRepeat:
		if s.Rewind != RewindUnset {
			return "repeat (" + s.Rewind.String() + ")"
		}
	case OptionContinue:
		if s.Skip != SkipUnset {
			return "continue (" + s.Skip.String() + ")"
		}
	}
	return s.Option.String()
}
