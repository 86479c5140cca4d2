package storyboard

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"pizzabox/internal/services"
	"pizzabox/internal/session"
)

// Do is an activity instance: the activity's defaults with some keys
// overridden. Its parameter keys are always the activity's declared keys.
type Do struct {
	Activity Activity
	params   Params
}

// NewDo binds overrides to an activity. Unknown keys and values of the
// wrong type fail with a configuration fault.
func NewDo(a Activity, overrides Params) (Do, error) {
	params, ok := Defaults(a)
	if !ok {
		return Do{}, configFault("new_do", fmt.Sprintf("unknown activity %s", a), nil)
	}
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		def, declared := params[k]
		if !declared {
			return Do{}, configFault("new_do",
				fmt.Sprintf("%s has no parameter %q (known: %s)", a, k, strings.Join(Keys(a), ", ")), nil)
		}
		v, ok := coerce(def, overrides[k])
		if !ok {
			return Do{}, configFault("new_do",
				fmt.Sprintf("%s parameter %q: cannot use %T value", a, k, overrides[k]), nil)
		}
		params[k] = v
	}
	if err := checkRanges(a, params); err != nil {
		return Do{}, err
	}
	return Do{Activity: a, params: params}, nil
}

func checkRanges(a Activity, params Params) error {
	switch a {
	case AdvanceVertical, AdvanceHorizontal:
		if steps := params[KeySteps].(int); steps < math.MinInt16 || steps > math.MaxInt16 {
			return configFault("new_do", fmt.Sprintf("%s steps %d out of range", a, steps), nil)
		}
		if speed := params[KeySpeed].(int); speed < 0 || speed > math.MaxUint8 {
			return configFault("new_do", fmt.Sprintf("%s speed %d out of range", a, speed), nil)
		}
	case FrontLight, BackLight:
		if fade := params[KeyFade].(float64); fade < 0 {
			return configFault("new_do", fmt.Sprintf("%s fade %v is negative", a, fade), nil)
		}
	case Parallel:
		for _, child := range params[KeyChildren].([]Do) {
			if !child.Activity.Stageable() {
				return configFault("new_do",
					fmt.Sprintf("parallel block cannot contain %s", child.Activity), nil)
			}
		}
	case WaitForInput, RecordSound, RecordVideo:
		key := KeyDuration
		if a == WaitForInput {
			key = KeyTimeout
		}
		if v := params[key].(float64); v < 0 {
			return configFault("new_do", fmt.Sprintf("%s %s %v is negative", a, key, v), nil)
		}
	}
	return nil
}

// MustDo is NewDo for storyboards built in code. It panics on error.
func MustDo(a Activity, overrides Params) Do {
	d, err := NewDo(a, overrides)
	if err != nil {
		panic(err)
	}
	return d
}

// Param returns the raw parameter value.
func (d Do) Param(key string) (any, bool) {
	v, ok := d.params[key]
	return v, ok
}

// Params returns a copy of the effective parameters.
func (d Do) Params() Params { return d.params.clone() }

func (d Do) Int(key string) int {
	v, _ := d.params[key].(int)
	return v
}

func (d Do) Float(key string) float64 {
	v, _ := d.params[key].(float64)
	return v
}

func (d Do) Bool(key string) bool {
	v, _ := d.params[key].(bool)
	return v
}

func (d Do) File(key string) session.File {
	v, _ := d.params[key].(session.File)
	return v
}

func (d Do) Selection(key string) Selection {
	v, _ := d.params[key].(Selection)
	return v
}

func (d Do) SkipOverride(key string) SkipOverride {
	v, _ := d.params[key].(SkipOverride)
	return v
}

// Children returns the nested instances of a parallel block.
func (d Do) Children() []Do {
	v, _ := d.params[KeyChildren].([]Do)
	return append([]Do(nil), v...)
}

// Displacement is the scroll movement the instance declares, nested
// parallel movements included.
func (d Do) Displacement() (h, v int) {
	switch d.Activity {
	case AdvanceHorizontal:
		return d.Int(KeySteps), 0
	case AdvanceVertical:
		return 0, d.Int(KeySteps)
	case Parallel:
		for _, child := range d.Children() {
			ch, cv := child.Displacement()
			h += ch
			v += cv
		}
	}
	return h, v
}

// Sound resolves the sound slot for lang, falling back to the neutral slot.
// A zero File means there is nothing to play.
func (d Do) Sound(lang string) session.File {
	if lang != "" {
		if f := d.File(lang); !f.IsZero() {
			return f
		}
	}
	return d.File(KeySound)
}

func configFault(op, msg string, err error) error {
	return services.Wrap(services.ErrConfiguration, "storyboard", op, msg, err)
}
