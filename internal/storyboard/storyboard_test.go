package storyboard_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"pizzabox/internal/link"
	"pizzabox/internal/services"
	"pizzabox/internal/session"
	sb "pizzabox/internal/storyboard"
)

func attach(t *testing.T, story *sb.Storyboard, hw *fakeHardware) *session.Session {
	t.Helper()
	root := t.TempDir()
	sess := &session.Session{ID: "test", Dir: filepath.Join(root, "rec")}
	story.Attach(hw, sess, session.Library{
		StoryDir:      filepath.Join(root, "story"),
		SFXDir:        filepath.Join(root, "sfx"),
		RecordingsDir: root,
	})
	return sess
}

// step plays the current chapter and advances, returning the new index.
func step(t *testing.T, story *sb.Storyboard) (int, sb.Delta) {
	t.Helper()
	ctx := context.Background()
	if err := story.PlayCurrentChapter(ctx); err != nil {
		t.Fatalf("PlayCurrentChapter: %v", err)
	}
	delta, err := story.AdvanceToNextChapter(ctx)
	if err != nil {
		t.Fatalf("AdvanceToNextChapter: %v", err)
	}
	return story.Current(), delta
}

func TestGotoThenContinueThenFallThrough(t *testing.T) {
	story := sb.New([]*sb.Chapter{
		sb.NewChapter(
			sb.MustDo(sb.AdvanceVertical, sb.Params{sb.KeySteps: 100}),
			sb.MustDo(sb.WaitForInput, sb.Params{
				sb.KeyOnBlue: sb.Continue(),
				sb.KeyOnRed:  sb.Goto(0),
			}),
		),
		sb.NewChapter(sb.MustDo(sb.PlaySound, sb.Params{sb.KeySound: "sfx:bye"})),
	}, nil)
	hw := newFakeHardware(link.ButtonRed, link.ButtonBlue)
	attach(t, story, hw)

	visited := []int{story.Current()}
	var repeatDelta sb.Delta
	for story.HasNext() {
		idx, delta := step(t, story)
		if len(visited) == 1 {
			repeatDelta = delta
		}
		visited = append(visited, idx)
	}
	want := []int{0, 0, 1, sb.Finished}
	if len(visited) != len(want) {
		t.Fatalf("visited %v, want %v", visited, want)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Fatalf("visited %v, want %v", visited, want)
		}
	}
	if repeatDelta != (sb.Delta{Vertical: -100}) {
		t.Fatalf("repeat delta = %+v, want vertical -100", repeatDelta)
	}

	net := 0
	for _, mv := range hw.movements() {
		if mv.Scroll == link.ScrollVertical {
			net += mv.Steps
		}
	}
	// chapter 0 played twice; its first visit is cancelled by the rewind
	if net != 100 {
		t.Fatalf("net vertical movement = %d, want 100", net)
	}
}

// travelFrames asserts the frames of one chapter move: both scrolls at
// travel speed followed by a commit.
func travelFrames(t *testing.T, frames []link.Frame, want sb.Delta) {
	t.Helper()
	if len(frames) != 3 || frames[2].Command != link.CmdDoIt {
		t.Fatalf("travel frames = %v, want two movements and DO_IT", frames)
	}
	for i, expect := range []struct {
		scroll link.Scroll
		steps  int
	}{{link.ScrollHorizontal, want.Horizontal}, {link.ScrollVertical, want.Vertical}} {
		mv, err := link.DecodeMovement(frames[i])
		if err != nil {
			t.Fatalf("decode movement %d: %v", i, err)
		}
		if mv.Scroll != expect.scroll || mv.Steps != expect.steps || mv.Speed != sb.TravelSpeed {
			t.Fatalf("movement %d = %+v, want scroll %v steps %d", i, mv, expect.scroll, expect.steps)
		}
	}
}

func TestGotoAcrossChaptersTravelsNetDisplacement(t *testing.T) {
	story := sb.New([]*sb.Chapter{
		sb.NewChapter(
			sb.MustDo(sb.AdvanceVertical, sb.Params{sb.KeySteps: 10}),
			sb.MustDo(sb.WaitForInput, sb.Params{sb.KeyOnRed: sb.Goto(3)}),
		),
		sb.NewChapter(sb.MustDo(sb.AdvanceVertical, sb.Params{sb.KeySteps: 10})),
		sb.NewChapter(sb.MustDo(sb.AdvanceVertical, sb.Params{sb.KeySteps: 10})),
		sb.NewChapter(
			sb.MustDo(sb.AdvanceVertical, sb.Params{sb.KeySteps: 10}),
			sb.MustDo(sb.WaitForInput, sb.Params{sb.KeyOnRed: sb.Goto(1)}),
		),
	}, nil)
	hw := newFakeHardware(link.ButtonRed, link.ButtonRed)
	attach(t, story, hw)
	ctx := context.Background()

	if err := story.PlayCurrentChapter(ctx); err != nil {
		t.Fatalf("PlayCurrentChapter: %v", err)
	}
	before := len(hw.frames)
	delta, err := story.AdvanceToNextChapter(ctx)
	if err != nil {
		t.Fatalf("AdvanceToNextChapter: %v", err)
	}
	if story.Current() != 3 || delta != (sb.Delta{Vertical: 20}) {
		t.Fatalf("forward jump: chapter %d delta %+v, want 3 and vertical 20", story.Current(), delta)
	}
	travelFrames(t, hw.frames[before:], delta)
	if got := story.Position(); got != (sb.Delta{Vertical: 30}) {
		t.Fatalf("position at chapter 3 = %+v, want vertical 30", got)
	}

	if err := story.PlayCurrentChapter(ctx); err != nil {
		t.Fatalf("PlayCurrentChapter: %v", err)
	}
	before = len(hw.frames)
	delta, err = story.AdvanceToNextChapter(ctx)
	if err != nil {
		t.Fatalf("AdvanceToNextChapter: %v", err)
	}
	if story.Current() != 1 || delta != (sb.Delta{Vertical: -30}) {
		t.Fatalf("backward jump: chapter %d delta %+v, want 1 and vertical -30", story.Current(), delta)
	}
	travelFrames(t, hw.frames[before:], delta)
	if got := story.Position(); got != (sb.Delta{Vertical: 10}) {
		t.Fatalf("position at chapter 1 = %+v, want vertical 10", got)
	}
}

func TestContinueDisplacementMatchesVisitedChapters(t *testing.T) {
	for _, move := range []bool{true, false} {
		chapters := []*sb.Chapter{
			sb.NewChapter(sb.MustDo(sb.AdvanceVertical, sb.Params{sb.KeySteps: 10})),
			sb.NewChapter(
				sb.MustDo(sb.AdvanceHorizontal, sb.Params{sb.KeySteps: 20}),
				sb.MustDo(sb.WaitForInput, sb.Params{sb.KeyOnBlue: sb.Continue()}),
			),
			sb.NewChapter(sb.MustDo(sb.Parallel, sb.Params{sb.KeyChildren: []sb.Do{
				sb.MustDo(sb.AdvanceVertical, sb.Params{sb.KeySteps: 5}),
				sb.MustDo(sb.AdvanceHorizontal, sb.Params{sb.KeySteps: -7}),
			}})),
		}
		story := sb.New(chapters, nil)
		story.SetMove(move)
		hw := newFakeHardware(link.ButtonBlue)
		attach(t, story, hw)

		var want sb.Delta
		for story.HasNext() {
			h, v := chapters[story.Current()].Declared()
			want.Horizontal += h
			want.Vertical += v
			step(t, story)
		}
		if got := story.Position(); got != want {
			t.Fatalf("move=%v: position = %+v, want %+v", move, got, want)
		}
		if !move && len(hw.movements()) != 0 {
			t.Fatalf("move=false: sent %d movement frames", len(hw.movements()))
		}
	}
}

func repeatOrQuit() *sb.Storyboard {
	return sb.New([]*sb.Chapter{
		sb.NewChapter(sb.MustDo(sb.WaitForInput, sb.Params{
			sb.KeyOnBlue:    sb.Unbound(),
			sb.KeyOnRed:     sb.Repeat(),
			sb.KeyOnTimeout: sb.Quit(),
			sb.KeyTimeout:   3.0,
		})),
		sb.NewChapter(),
	}, nil)
}

func TestTimeoutQuitFinishesStory(t *testing.T) {
	story := repeatOrQuit()
	hw := newFakeHardware(link.ButtonNone)
	attach(t, story, hw)
	step(t, story)
	if story.HasNext() {
		t.Fatalf("expected finished story, current = %d", story.Current())
	}
	in, err := link.DecodeInteraction(hw.frames[0])
	if err != nil {
		t.Fatalf("decode interaction: %v", err)
	}
	if in.Mask != link.ButtonRed {
		t.Fatalf("mask = %v, want red only", in.Mask)
	}
}

func TestBoundButtonRepeatsChapter(t *testing.T) {
	story := repeatOrQuit()
	attach(t, story, newFakeHardware(link.ButtonRed))
	if err := story.PlayCurrentChapter(context.Background()); err != nil {
		t.Fatalf("PlayCurrentChapter: %v", err)
	}
	next, ok := story.Pending()
	if !ok || next != 0 {
		t.Fatalf("pending = %d, %v; want 0, true", next, ok)
	}
}

func TestUnboundButtonIsIgnored(t *testing.T) {
	story := repeatOrQuit()
	attach(t, story, newFakeHardware(link.ButtonBlue))
	idx, _ := step(t, story)
	if idx != 1 {
		t.Fatalf("current = %d, want fall-through to 1", idx)
	}
}

func TestRepeatWithoutRewindSuppressesTravel(t *testing.T) {
	story := sb.New([]*sb.Chapter{
		sb.NewChapter(
			sb.MustDo(sb.AdvanceVertical, sb.Params{sb.KeySteps: 50}),
			sb.MustDo(sb.WaitForInput, sb.Params{
				sb.KeyOnRed:  sb.RepeatRewinding(false),
				sb.KeyOnBlue: sb.Continue(),
			}),
		),
		sb.NewChapter(sb.MustDo(sb.AdvanceHorizontal, sb.Params{sb.KeySteps: 30})),
	}, nil)
	hw := newFakeHardware(link.ButtonRed, link.ButtonBlue)
	attach(t, story, hw)

	_, delta := step(t, story)
	if delta != (sb.Delta{Vertical: -50}) {
		t.Fatalf("repeat delta = %+v", delta)
	}
	if story.Move() {
		t.Fatal("expected movement suppressed for the retry")
	}
	if n := len(hw.movements()); n != 1 {
		t.Fatalf("movement frames after repeat = %d, want 1", n)
	}

	step(t, story)
	if !story.Move() {
		t.Fatal("expected movement restored after leaving the chapter")
	}
	step(t, story)
	mvs := hw.movements()
	last := mvs[len(mvs)-1]
	if last.Scroll != link.ScrollHorizontal || last.Steps != 30 {
		t.Fatalf("last movement = %+v, want horizontal 30", last)
	}
}

func TestParallelCommitsOnce(t *testing.T) {
	story := sb.New([]*sb.Chapter{sb.NewChapter(sb.MustDo(sb.Parallel, sb.Params{sb.KeyChildren: []sb.Do{
		sb.MustDo(sb.FrontLight, sb.Params{sb.KeyWhite: 1.0, sb.KeyFade: 2.0}),
		sb.MustDo(sb.BackLight, nil),
		sb.MustDo(sb.AdvanceVertical, nil),
	}}))}, nil)
	hw := newFakeHardware()
	attach(t, story, hw)
	if err := story.PlayCurrentChapter(context.Background()); err != nil {
		t.Fatalf("PlayCurrentChapter: %v", err)
	}
	want := []link.Command{link.CmdSetLight, link.CmdSetLight, link.CmdSetMovement, link.CmdDoIt}
	if len(hw.frames) != len(want) {
		t.Fatalf("frames = %d, want %d", len(hw.frames), len(want))
	}
	for i, cmd := range want {
		if hw.frames[i].Command != cmd {
			t.Fatalf("frame %d = %v, want %v", i, hw.frames[i].Command, cmd)
		}
	}
	light, _ := link.DecodeLight(hw.frames[0])
	if light.Color != 0xFF000000 || light.Fade.Seconds() != 2 {
		t.Fatalf("front light = %+v", light)
	}
}

func TestSkipFlagBypassesChapter(t *testing.T) {
	story := sb.New([]*sb.Chapter{
		sb.NewChapter(sb.MustDo(sb.PlaySound, sb.Params{sb.KeySound: "sfx:menu"})).Skippable(),
		sb.NewChapter(),
	}, nil)
	story.SetSkip(true)
	hw := newFakeHardware()
	attach(t, story, hw)
	idx, _ := step(t, story)
	if idx != 1 {
		t.Fatalf("current = %d, want 1", idx)
	}
	if len(hw.played) != 0 {
		t.Fatalf("played %v while skipping", hw.played)
	}
}

func TestJumpToChapterOverridesSkip(t *testing.T) {
	story := sb.New([]*sb.Chapter{
		sb.NewChapter(),
		sb.NewChapter(sb.MustDo(sb.JumpToChapter, sb.Params{sb.KeyChapter: 0, sb.KeySkip: true})),
	}, nil)
	hw := newFakeHardware()
	attach(t, story, hw)
	step(t, story)
	idx, _ := step(t, story)
	if idx != 0 || !story.Skip() {
		t.Fatalf("current = %d skip = %v; want 0, true", idx, story.Skip())
	}
}

func TestLidClosureInterruptsChapter(t *testing.T) {
	story := sb.New([]*sb.Chapter{sb.NewChapter(
		sb.MustDo(sb.AdvanceVertical, nil),
		sb.MustDo(sb.AdvanceVertical, nil),
		sb.MustDo(sb.AdvanceVertical, nil),
	)}, nil)
	hw := newFakeHardware()
	hw.openChecks = 1
	attach(t, story, hw)
	if err := story.PlayCurrentChapter(context.Background()); err != nil {
		t.Fatalf("PlayCurrentChapter: %v", err)
	}
	c := story.Chapters()[0]
	if c.Cursor() != 1 {
		t.Fatalf("cursor = %d, want 1", c.Cursor())
	}
	if _, ok := story.Pending(); ok {
		t.Fatal("interrupted chapter should not decide a next chapter")
	}
	delta, err := story.AdvanceToNextChapter(context.Background())
	if err != nil || !delta.IsZero() || story.Current() != 0 {
		t.Fatalf("advance = %+v, %v, current %d", delta, err, story.Current())
	}
}

func TestLanguageSelectsSoundSlot(t *testing.T) {
	d := sb.MustDo(sb.PlaySound, sb.Params{sb.KeySound: "sfx:neutral", sb.KeyTR: "story:TR01"})
	for lang, want := range map[string]string{"tr": "TR01.wav", "de": "neutral.wav", "": "neutral.wav"} {
		story := sb.New([]*sb.Chapter{sb.NewChapter(d)}, nil)
		story.SetLanguage(lang)
		hw := newFakeHardware()
		attach(t, story, hw)
		if err := story.PlayCurrentChapter(context.Background()); err != nil {
			t.Fatalf("PlayCurrentChapter: %v", err)
		}
		if len(hw.played) != 1 || filepath.Base(hw.played[0]) != want {
			t.Fatalf("lang %q played %v, want %s", lang, hw.played, want)
		}
	}
}

func TestRecordingsLandInSession(t *testing.T) {
	story := sb.New([]*sb.Chapter{sb.NewChapter(
		sb.MustDo(sb.RecordSound, sb.Params{sb.KeyFilename: "rec:name.wav"}),
		sb.MustDo(sb.RecordVideo, sb.Params{sb.KeyFilename: "rec:city.h264", sb.KeyDuration: 2}),
		sb.MustDo(sb.RecordVideo, nil),
		sb.MustDo(sb.TakePhoto, nil),
	)}, nil)
	hw := newFakeHardware()
	sess := attach(t, story, hw)
	if err := story.PlayCurrentChapter(context.Background()); err != nil {
		t.Fatalf("PlayCurrentChapter: %v", err)
	}
	if len(hw.audio) != 1 || hw.audio[0] != filepath.Join(sess.Dir, "name.wav") {
		t.Fatalf("audio = %v", hw.audio)
	}
	videos := story.Videos()
	if len(videos) != 2 || videos[0] != filepath.Join(sess.Dir, "city.h264") {
		t.Fatalf("videos = %v", videos)
	}
	if filepath.Ext(videos[1]) != ".h264" || filepath.Dir(videos[1]) != sess.Dir {
		t.Fatalf("generated video path = %s", videos[1])
	}
	if len(hw.photos) != 1 || filepath.Ext(hw.photos[0]) != ".jpg" {
		t.Fatalf("photos = %v", hw.photos)
	}
	story.ClearVideos()
	if len(story.Videos()) != 0 {
		t.Fatal("expected videos cleared")
	}
}

func TestRewindAllResetsStory(t *testing.T) {
	story := sb.New([]*sb.Chapter{
		sb.NewChapter(sb.MustDo(sb.AdvanceHorizontal, nil)),
		sb.NewChapter(sb.MustDo(sb.AdvanceVertical, nil)),
	}, nil)
	hw := newFakeHardware()
	attach(t, story, hw)
	for story.HasNext() {
		step(t, story)
	}
	if err := story.RewindAll(context.Background()); err != nil {
		t.Fatalf("RewindAll: %v", err)
	}
	if hw.count(link.CmdRewind) != 1 {
		t.Fatalf("rewind frames = %d, want 1", hw.count(link.CmdRewind))
	}
	if story.Current() != 0 || !story.Position().IsZero() {
		t.Fatalf("current = %d position = %+v", story.Current(), story.Position())
	}

	story.SetMove(false)
	if err := story.RewindAll(context.Background()); err != nil {
		t.Fatalf("RewindAll: %v", err)
	}
	if hw.count(link.CmdRewind) != 1 {
		t.Fatal("rewind sent with movement disabled")
	}
}

func TestPlayRequiresHardware(t *testing.T) {
	story := sb.New([]*sb.Chapter{sb.NewChapter()}, nil)
	err := story.PlayCurrentChapter(context.Background())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("err = %v, want configuration fault", err)
	}
}

func TestValidateRejectsDanglingGoto(t *testing.T) {
	story := sb.New([]*sb.Chapter{sb.NewChapter(
		sb.MustDo(sb.WaitForInput, sb.Params{sb.KeyOnRed: sb.Goto(4)}),
	)}, nil)
	if err := story.Validate(); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("err = %v, want configuration fault", err)
	}
}
