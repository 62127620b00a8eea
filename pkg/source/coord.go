// Package source holds the resumable input streams the scanner reads from and
// the coordinate bookkeeping that maps every emitted token back to both the
// original file and the fully preprocessed text.
package source

import "fmt"

// Span is an offset/length pair.
type Span struct {
	Offset int
	Length int
}

// End returns the offset just past the span.
func (s Span) End() int { return s.Offset + s.Length }

func (s Span) String() string {
	return fmt.Sprintf("%d+%d", s.Offset, s.Length)
}

// Position carries the two coordinate spaces of a token.
type Position struct {
	OrigOffset int `yaml:"orig_offset"`
	OrigLength int `yaml:"orig_length"`
	PreOffset  int `yaml:"pre_offset"`
	PreLength  int `yaml:"pre_length"`
}

// Orig returns the original-coordinate span.
func (p Position) Orig() Span { return Span{Offset: p.OrigOffset, Length: p.OrigLength} }

// Pre returns the preprocessed-coordinate span.
func (p Position) Pre() Span { return Span{Offset: p.PreOffset, Length: p.PreLength} }

func (p Position) String() string {
	return fmt.Sprintf("orig %d+%d pre %d+%d", p.OrigOffset, p.OrigLength, p.PreOffset, p.PreLength)
}

// Tracker produces token positions. Original coordinates come from the root
// stream while no nested stream is live; once a macro expansion or include is
// entered, every token borrows the span of the construct in the root stream
// that started it (the anchor). The preprocessed offset advances for every
// forwarded token regardless of nesting.
type Tracker struct {
	pre        int
	anchor     Span
	anchorLine int
	anchored   bool
}

// Anchor pins original coordinates to site until Release. Anchoring an
// already anchored tracker keeps the outer site.
func (t *Tracker) Anchor(site Span, line int) {
	if t.anchored {
		return
	}
	t.anchor = site
	t.anchorLine = line
	t.anchored = true
}

// Release drops the anchor; called once the stream stack is back to the root.
func (t *Tracker) Release() {
	t.anchored = false
	t.anchor = Span{}
	t.anchorLine = 0
}

// Anchored reports whether original coordinates are pinned.
func (t *Tracker) Anchored() bool { return t.anchored }

// Site returns the original span to report for a lexeme at offset with the
// given length in the root stream, honouring the anchor.
func (t *Tracker) Site(offset, length int) Span {
	if t.anchored {
		return t.anchor
	}
	return Span{Offset: offset, Length: length}
}

// Line returns the line to report: the anchor's line while anchored.
func (t *Tracker) Line(rootLine int) int {
	if t.anchored {
		return t.anchorLine
	}
	return rootLine
}

// Next returns the position of a forwarded token and advances the
// preprocessed offset by length.
func (t *Tracker) Next(offset, length int) Position {
	site := t.Site(offset, length)
	p := Position{
		OrigOffset: site.Offset,
		OrigLength: site.Length,
		PreOffset:  t.pre,
		PreLength:  length,
	}
	t.pre += length
	return p
}

// Synthetic returns the position of text that exists only in the
// preprocessed output (re-emitted newlines). It never claims original text.
func (t *Tracker) Synthetic(offset, length int) Position {
	site := t.Site(offset, 0)
	p := Position{
		OrigOffset: site.Offset,
		OrigLength: 0,
		PreOffset:  t.pre,
		PreLength:  length,
	}
	t.pre += length
	return p
}

// Preprocessed returns the current preprocessed offset.
func (t *Tracker) Preprocessed() int { return t.pre }

// Reset returns the tracker to offset zero with no anchor.
func (t *Tracker) Reset() {
	*t = Tracker{}
}
