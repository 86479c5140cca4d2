package storyboard_test

import (
	"errors"
	"testing"

	"pizzabox/internal/services"
	"pizzabox/internal/session"
	sb "pizzabox/internal/storyboard"
)

func TestNewDoKeepsDefaultsForMissingKeys(t *testing.T) {
	d := sb.MustDo(sb.WaitForInput, sb.Params{sb.KeyOnGreen: sb.Continue()})
	if got := d.Selection(sb.KeyOnBlue); got.Option != sb.OptionContinue {
		t.Fatalf("on_blue = %v, want continue", got)
	}
	if got := d.Selection(sb.KeyOnRed); got.Option != sb.OptionRepeat || got.Rewind != sb.RewindUnset {
		t.Fatalf("on_red = %v, want repeat with default rewind", got)
	}
	if got := d.Selection(sb.KeyOnTimeout); got.Option != sb.OptionQuit {
		t.Fatalf("on_timeout = %v, want quit", got)
	}
	if d.Float(sb.KeyTimeout) != 0 {
		t.Fatalf("timeout = %v, want 0", d.Float(sb.KeyTimeout))
	}
	for key := range d.Params() {
		found := false
		for _, k := range sb.Keys(sb.WaitForInput) {
			found = found || k == key
		}
		if !found {
			t.Fatalf("instance carries undeclared key %q", key)
		}
	}
}

func TestNewDoCoercesNumbersAndFiles(t *testing.T) {
	d, err := sb.NewDo(sb.RecordSound, sb.Params{sb.KeyDuration: 5, sb.KeyFilename: "rec:name.wav"})
	if err != nil {
		t.Fatalf("NewDo: %v", err)
	}
	if d.Float(sb.KeyDuration) != 5.0 {
		t.Fatalf("duration = %v", d.Float(sb.KeyDuration))
	}
	if f := d.File(sb.KeyFilename); f != session.RecFile("name.wav") {
		t.Fatalf("filename = %v", f)
	}
}

func TestNewDoRejectsInvalidParameters(t *testing.T) {
	cases := []struct {
		name      string
		activity  sb.Activity
		overrides sb.Params
	}{
		{"unknown key", sb.PlaySound, sb.Params{"volume": 3}},
		{"wrong type", sb.AdvanceVertical, sb.Params{sb.KeySteps: "far"}},
		{"fractional steps", sb.AdvanceVertical, sb.Params{sb.KeySteps: 1.5}},
		{"steps out of range", sb.AdvanceHorizontal, sb.Params{sb.KeySteps: 40000}},
		{"negative fade", sb.BackLight, sb.Params{sb.KeyFade: -1.0}},
		{"unstageable child", sb.Parallel, sb.Params{sb.KeyChildren: []sb.Do{sb.MustDo(sb.PlaySound, nil)}}},
		{"unknown activity", sb.Activity(99), nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := sb.NewDo(tc.activity, tc.overrides)
			if !errors.Is(err, services.ErrConfiguration) {
				t.Fatalf("err = %v, want configuration fault", err)
			}
		})
	}
}

func TestDefaultsAreNotShared(t *testing.T) {
	p, _ := sb.Defaults(sb.WaitForInput)
	p[sb.KeyOnBlue] = sb.Quit()
	d := sb.MustDo(sb.WaitForInput, nil)
	if d.Selection(sb.KeyOnBlue).Option != sb.OptionContinue {
		t.Fatal("mutating returned defaults leaked into a new instance")
	}

	children := []sb.Do{sb.MustDo(sb.FrontLight, nil)}
	par := sb.MustDo(sb.Parallel, sb.Params{sb.KeyChildren: children})
	children[0] = sb.MustDo(sb.AdvanceVertical, nil)
	if got := par.Children()[0].Activity; got != sb.FrontLight {
		t.Fatalf("child = %v, want front_light", got)
	}
}

func TestSoundFallsBackToNeutralSlot(t *testing.T) {
	d := sb.MustDo(sb.PlaySound, sb.Params{sb.KeySound: "sfx:beep", sb.KeyDE: "story:DE01"})
	if got := d.Sound("de"); got != session.StoryFile("DE01") {
		t.Fatalf("de sound = %v", got)
	}
	if got := d.Sound("tr"); got != session.SFXFile("beep") {
		t.Fatalf("tr sound = %v, want neutral", got)
	}
	if got := sb.MustDo(sb.PlaySound, nil).Sound("en"); !got.IsZero() {
		t.Fatalf("expected no sound, got %v", got)
	}
}

func TestParseActivityAliases(t *testing.T) {
	for name, want := range map[string]sb.Activity{
		"advance_up":     sb.AdvanceVertical,
		"ADVANCE_LEFT":   sb.AdvanceHorizontal,
		"wait_for_input": sb.WaitForInput,
		"goto":           sb.JumpToChapter,
	} {
		got, err := sb.ParseActivity(name)
		if err != nil || got != want {
			t.Fatalf("ParseActivity(%q) = %v, %v; want %v", name, got, err, want)
		}
	}
	if _, err := sb.ParseActivity("dance"); err == nil {
		t.Fatal("expected error for unknown activity")
	}
}
