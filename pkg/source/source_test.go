package source

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type trackingCloser struct {
	io.Reader
	closed bool
}

func (c *trackingCloser) Close() error {
	c.closed = true
	return nil
}

func TestEntryAdvanceTracksLines(t *testing.T) {
	s := NewStack(0)
	require.NoError(t, s.PushReader("a.sqf", strings.NewReader("ab\n  cd\n")))
	e := s.Top()
	assert.True(t, e.AtLineStart())

	e.Advance(2)
	assert.Equal(t, 1, e.Line())
	assert.Equal(t, 3, e.Column())
	assert.False(t, e.AtLineStart())

	e.Advance(1) // newline
	assert.Equal(t, 2, e.Line())
	assert.True(t, e.AtLineStart())

	e.Advance(2) // blanks keep the line-start state
	assert.True(t, e.AtLineStart())
	assert.Equal(t, "cd", e.Text(2))

	e.Advance(100)
	assert.True(t, e.EOF())
	assert.Equal(t, 8, e.Offset())
}

func TestStackPushPopResumesParent(t *testing.T) {
	s := NewStack(0)
	require.NoError(t, s.PushReader("root", strings.NewReader("x y")))
	s.Top().Advance(2)

	require.NoError(t, s.PushExpansion("M", "expanded"))
	assert.Equal(t, 2, s.Depth())
	assert.Equal(t, "M", s.Top().Macro)
	s.Top().Advance(8)
	assert.True(t, s.Top().EOF())

	require.NoError(t, s.Pop())
	assert.Equal(t, 1, s.Depth())
	assert.Equal(t, 2, s.Top().Offset(), "popping must not disturb the parent cursor")
	assert.Equal(t, "y", string(s.Top().Rest()))
}

func TestStackPopClosesSource(t *testing.T) {
	s := NewStack(0)
	c := &trackingCloser{Reader: strings.NewReader("content")}
	require.NoError(t, s.PushReader("inc.hpp", c))
	assert.False(t, c.closed)
	require.NoError(t, s.Pop())
	assert.True(t, c.closed)
}

func TestStackPopEmptyIsInternal(t *testing.T) {
	s := NewStack(0)
	err := s.Pop()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInternal))
}

func TestStackDepthLimit(t *testing.T) {
	s := NewStack(2)
	require.NoError(t, s.PushReader("root", strings.NewReader("")))
	require.NoError(t, s.PushExpansion("A", "a"))
	err := s.PushExpansion("B", "b")
	assert.True(t, errors.Is(err, ErrTooDeep))

	c := &trackingCloser{Reader: strings.NewReader("x")}
	err = s.PushReader("deep.hpp", c)
	assert.True(t, errors.Is(err, ErrTooDeep))
	assert.True(t, c.closed, "rejected readers are released")
}

func TestHiddenNamesAreInherited(t *testing.T) {
	s := NewStack(0)
	require.NoError(t, s.PushReader("root", strings.NewReader("")))
	assert.False(t, s.Top().Hidden("A"))

	require.NoError(t, s.PushExpansion("A", "B", "C"))
	require.NoError(t, s.PushExpansion("B", "A"))
	top := s.Top()
	assert.True(t, top.Hidden("A"))
	assert.True(t, top.Hidden("B"))
	assert.True(t, top.Hidden("C"))

	require.NoError(t, s.Pop())
	assert.False(t, s.Top().Hidden("B"))
}

func TestFilesAndReset(t *testing.T) {
	s := NewStack(0)
	c := &trackingCloser{Reader: strings.NewReader("")}
	require.NoError(t, s.PushReader("main.sqf", strings.NewReader("")))
	require.NoError(t, s.PushExpansion("M", ""))
	require.NoError(t, s.PushReader("inc.hpp", c))
	assert.Equal(t, []string{"main.sqf", "inc.hpp"}, s.Files())

	s.Reset()
	assert.True(t, s.Empty())
	assert.Nil(t, s.Top())
	assert.True(t, c.closed)
}

func TestTrackerRootCoordinatesCoincide(t *testing.T) {
	var tr Tracker
	p := tr.Next(0, 4)
	assert.Equal(t, Position{OrigOffset: 0, OrigLength: 4, PreOffset: 0, PreLength: 4}, p)
	p = tr.Next(4, 1)
	assert.Equal(t, Position{OrigOffset: 4, OrigLength: 1, PreOffset: 4, PreLength: 1}, p)
}

func TestTrackerAnchorPinsOriginal(t *testing.T) {
	var tr Tracker
	tr.Next(0, 3)
	tr.Anchor(Span{Offset: 3, Length: 6}, 2)
	tr.Anchor(Span{Offset: 50, Length: 1}, 9) // nested push keeps the outer site

	a := tr.Next(100, 2)
	b := tr.Next(0, 5)
	assert.Equal(t, Span{Offset: 3, Length: 6}, a.Orig())
	assert.Equal(t, Span{Offset: 3, Length: 6}, b.Orig())
	assert.Equal(t, 3, a.PreOffset)
	assert.Equal(t, 5, b.PreOffset)
	assert.Equal(t, 2, tr.Line(40))

	tr.Release()
	c := tr.Next(9, 1)
	assert.Equal(t, Span{Offset: 9, Length: 1}, c.Orig())
	assert.Equal(t, 10, c.PreOffset)
	assert.Equal(t, 40, tr.Line(40))
}

func TestTrackerSynthetic(t *testing.T) {
	var tr Tracker
	tr.Next(0, 2)
	p := tr.Synthetic(7, 2)
	assert.Equal(t, Position{OrigOffset: 7, OrigLength: 0, PreOffset: 2, PreLength: 2}, p)
	assert.Equal(t, 4, tr.Preprocessed())

	tr.Reset()
	assert.Equal(t, 0, tr.Preprocessed())
	assert.False(t, tr.Anchored())
}
