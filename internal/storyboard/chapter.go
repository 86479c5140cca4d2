package storyboard

// Chapter is a replayable group of instances. It tracks how far playback
// got and how much scroll displacement the taken instances declared.
type Chapter struct {
	Title    string
	SkipFlag bool

	steps  []Do
	cursor int
	h, v   int
}

// NewChapter builds a chapter from its instances.
func NewChapter(steps ...Do) *Chapter {
	return &Chapter{steps: append([]Do(nil), steps...)}
}

// Skippable marks the chapter as bypassed while the global skip flag is set.
func (c *Chapter) Skippable() *Chapter {
	c.SkipFlag = true
	return c
}

// Named sets a display title.
func (c *Chapter) Named(title string) *Chapter {
	c.Title = title
	return c
}

// Steps returns a copy of the chapter's instances.
func (c *Chapter) Steps() []Do { return append([]Do(nil), c.steps...) }

func (c *Chapter) Len() int { return len(c.steps) }

func (c *Chapter) Cursor() int { return c.cursor }

// Position is the displacement accumulated by the instances taken so far.
func (c *Chapter) Position() (h, v int) { return c.h, c.v }

func (c *Chapter) HasNext() bool { return c.cursor < len(c.steps) }

// Next takes the instance at the cursor and accounts for its displacement.
func (c *Chapter) Next() (Do, bool) {
	if !c.HasNext() {
		return Do{}, false
	}
	d := c.steps[c.cursor]
	c.take(d)
	return d, true
}

func (c *Chapter) take(d Do) {
	c.cursor++
	h, v := d.Displacement()
	c.h += h
	c.v += v
}

// Rewind resets the chapter and returns the displacement that moves the
// scrolls back to its start.
func (c *Chapter) Rewind() (h, v int) {
	h, v = -c.h, -c.v
	c.cursor, c.h, c.v = 0, 0, 0
	return h, v
}

// Skip fast-forwards the cursor without running anything and returns the
// displacement of the instances passed over.
func (c *Chapter) Skip() (h, v int) {
	h0, v0 := c.h, c.v
	for c.HasNext() {
		c.take(c.steps[c.cursor])
	}
	return c.h - h0, c.v - v0
}

// Declared is the displacement of the whole chapter.
func (c *Chapter) Declared() (h, v int) {
	for _, d := range c.steps {
		dh, dv := d.Displacement()
		h += dh
		v += dv
	}
	return h, v
}

// Targets lists the chapter indexes the chapter can branch to explicitly.
func (c *Chapter) Targets() []int {
	var out []int
	for _, d := range c.steps {
		switch d.Activity {
		case JumpToChapter:
			out = append(out, d.Int(KeyChapter))
		case WaitForInput:
			for _, key := range selectionKeys {
				if sel := d.Selection(key); sel.Option == OptionGoto {
					out = append(out, sel.Chapter)
				}
			}
		}
	}
	return out
}

// selectionKeys are the wait-for-input inputs in button order.
var selectionKeys = []string{KeyOnBlue, KeyOnRed, KeyOnYellow, KeyOnGreen, KeyOnTimeout}
