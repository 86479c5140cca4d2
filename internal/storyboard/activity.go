package storyboard

import (
	"fmt"
	"sort"
	"strings"

	"pizzabox/internal/session"
)

// Activity is an operation kind the box can perform.
type Activity int

const (
	WaitForInput Activity = iota + 1
	PlaySound
	RecordSound
	RecordVideo
	TakePhoto
	AdvanceVertical
	AdvanceHorizontal
	FrontLight
	BackLight
	Parallel
	JumpToChapter
)

var activityNames = map[Activity]string{
	WaitForInput:      "wait_for_input",
	PlaySound:         "play_sound",
	RecordSound:       "record_sound",
	RecordVideo:       "record_video",
	TakePhoto:         "take_photo",
	AdvanceVertical:   "advance_vertical",
	AdvanceHorizontal: "advance_horizontal",
	FrontLight:        "front_light",
	BackLight:         "back_light",
	Parallel:          "parallel",
	JumpToChapter:     "goto",
}

var activityAliases = map[string]Activity{
	"advance_up":   AdvanceVertical,
	"advance_left": AdvanceHorizontal,
	"light_layer":  FrontLight,
	"light_back":   BackLight,
	"jump":         JumpToChapter,
}

func (a Activity) String() string {
	if name, ok := activityNames[a]; ok {
		return name
	}
	return fmt.Sprintf("activity(%d)", int(a))
}

// ParseActivity resolves an activity name as written in storyboard files.
func ParseActivity(name string) (Activity, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for a, n := range activityNames {
		if n == key {
			return a, nil
		}
	}
	if a, ok := activityAliases[key]; ok {
		return a, nil
	}
	return 0, fmt.Errorf("unknown activity %q", name)
}

// Stageable reports whether the activity may run inside a parallel block.
func (a Activity) Stageable() bool {
	switch a {
	case AdvanceVertical, AdvanceHorizontal, FrontLight, BackLight:
		return true
	}
	return false
}

// Parameter names.
const (
	KeySound     = "sound"
	KeyDE        = "de"
	KeyEN        = "en"
	KeyTR        = "tr"
	KeyOnBlue    = "on_blue"
	KeyOnRed     = "on_red"
	KeyOnYellow  = "on_yellow"
	KeyOnGreen   = "on_green"
	KeyOnTimeout = "on_timeout"
	KeyTimeout   = "timeout"
	KeyDuration  = "duration"
	KeyFilename  = "filename"
	KeyCache     = "cache"
	KeySteps     = "steps"
	KeySpeed     = "speed"
	KeyRed       = "r"
	KeyGreen     = "g"
	KeyBlue      = "b"
	KeyWhite     = "w"
	KeyFade      = "fade"
	KeyChildren  = "activities"
	KeyChapter   = "chapter"
	KeySkip      = "skip_flag"
)

// LanguageKeys are the per-language sound slots.
var LanguageKeys = []string{KeyDE, KeyEN, KeyTR}

// Params maps parameter names to values. Values are int, float64, bool,
// session.File, Selection, SkipOverride, or []Do.
type Params map[string]any

func soundSlots(p Params) Params {
	p[KeySound] = session.File{}
	for _, k := range LanguageKeys {
		p[k] = session.File{}
	}
	return p
}

func lightDefaults() Params {
	return Params{KeyRed: 0.0, KeyGreen: 0.0, KeyBlue: 0.0, KeyWhite: 0.0, KeyFade: 1.0}
}

// templates hold the declared defaults. They are never handed out; Defaults
// and NewDo clone them.
var templates = map[Activity]Params{
	WaitForInput: soundSlots(Params{
		KeyOnBlue:    Continue(),
		KeyOnRed:     Repeat(),
		KeyOnYellow:  Unbound(),
		KeyOnGreen:   Unbound(),
		KeyOnTimeout: Quit(),
		KeyTimeout:   0.0,
	}),
	PlaySound:         soundSlots(Params{}),
	RecordSound:       {KeyDuration: 10.0, KeyFilename: session.File{}, KeyCache: false},
	RecordVideo:       {KeyDuration: 60.0, KeyFilename: session.File{}},
	TakePhoto:         {KeyFilename: session.File{}},
	AdvanceVertical:   {KeySteps: 100, KeySpeed: 1},
	AdvanceHorizontal: {KeySteps: 200, KeySpeed: 1},
	FrontLight:        lightDefaults(),
	BackLight:         lightDefaults(),
	Parallel:          {KeyChildren: []Do(nil)},
	JumpToChapter:     {KeyChapter: 0, KeySkip: SkipUnset},
}

// Defaults returns a copy of the activity's declared parameters.
func Defaults(a Activity) (Params, bool) {
	t, ok := templates[a]
	if !ok {
		return nil, false
	}
	return t.clone(), true
}

// Keys lists the activity's declared parameter names in sorted order.
func Keys(a Activity) []string {
	t := templates[a]
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (p Params) clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		if children, ok := v.([]Do); ok {
			v = append([]Do(nil), children...)
		}
		out[k] = v
	}
	return out
}

// coerce converts v to the type of the declared default def.
func coerce(def, v any) (any, bool) {
	switch def.(type) {
	case int:
		switch x := v.(type) {
		case int:
			return x, true
		case float64:
			if x == float64(int(x)) {
				return int(x), true
			}
		}
	case float64:
		switch x := v.(type) {
		case float64:
			return x, true
		case int:
			return float64(x), true
		}
	case bool:
		if x, ok := v.(bool); ok {
			return x, true
		}
	case session.File:
		switch x := v.(type) {
		case session.File:
			return x, true
		case string:
			if x == "" {
				return session.File{}, true
			}
			f, err := session.ParseFile(x)
			return f, err == nil
		}
	case Selection:
		if x, ok := v.(Selection); ok {
			return x, true
		}
	case SkipOverride:
		switch x := v.(type) {
		case SkipOverride:
			return x, true
		case bool:
			return SkipTo(x), true
		}
	case []Do:
		if x, ok := v.([]Do); ok {
			return append([]Do(nil), x...), true
		}
	}
	return nil, false
}
