package source

import (
	"errors"
	"fmt"
	"io"
)

// DefaultMaxDepth bounds include and rescan nesting.
const DefaultMaxDepth = 200

var (
	// ErrInternal marks corrupt stack state. It is the only condition that
	// ends a run early.
	ErrInternal = errors.New("internal error")
	// ErrTooDeep is returned by pushes beyond the depth limit.
	ErrTooDeep = errors.New("nested too deeply")
)

// Entry is one resumable input: a whole file, an included file or the
// materialized text of a macro expansion. It owns its buffer.
type Entry struct {
	Name  string // file name, or the macro name for expansions
	Macro string // set when the entry is a macro expansion

	buf       []byte
	pos       int
	line      int
	col       int
	lineStart bool
	hidden    map[string]bool
	closer    io.Closer
}

func newEntry(name string, buf []byte) Entry {
	return Entry{Name: name, buf: buf, line: 1, col: 1, lineStart: true}
}

// Rest returns the unread bytes.
func (e *Entry) Rest() []byte { return e.buf[e.pos:] }

// Offset is the number of bytes consumed.
func (e *Entry) Offset() int { return e.pos }

// Line returns the 1-based line of the cursor.
func (e *Entry) Line() int { return e.line }

// Column returns the 1-based column of the cursor.
func (e *Entry) Column() int { return e.col }

// EOF reports whether the entry is exhausted.
func (e *Entry) EOF() bool { return e.pos >= len(e.buf) }

// AtLineStart reports whether only blanks were read since the last newline.
func (e *Entry) AtLineStart() bool { return e.lineStart }

// Text returns n bytes starting at the cursor without consuming them.
func (e *Entry) Text(n int) string {
	end := e.pos + n
	if end > len(e.buf) {
		end = len(e.buf)
	}
	return string(e.buf[e.pos:end])
}

// Advance consumes n bytes, keeping line, column and line-start state.
func (e *Entry) Advance(n int) {
	for i := 0; i < n && e.pos < len(e.buf); i++ {
		switch c := e.buf[e.pos]; c {
		case '\n':
			e.line++
			e.col = 1
			e.lineStart = true
		case ' ', '\t', '\r':
			e.col++
		default:
			e.col++
			e.lineStart = false
		}
		e.pos++
	}
}

// Hidden reports whether name must not be expanded inside this entry.
func (e *Entry) Hidden(name string) bool { return e.hidden[name] }

func (e *Entry) close() error {
	if e.closer == nil {
		return nil
	}
	err := e.closer.Close()
	e.closer = nil
	return err
}

// Stack is the LIFO of live entries. The top entry is the one being scanned;
// entries below it resume where they stopped once everything above them is
// exhausted. It is not safe for concurrent use.
type Stack struct {
	entries  []Entry
	maxDepth int
}

// NewStack creates an empty stack limited to maxDepth entries
// (DefaultMaxDepth when maxDepth <= 0).
func NewStack(maxDepth int) *Stack {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Stack{maxDepth: maxDepth}
}

// Depth returns the number of live entries.
func (s *Stack) Depth() int { return len(s.entries) }

// Empty reports whether no entry is live.
func (s *Stack) Empty() bool { return len(s.entries) == 0 }

// Top returns the live entry, or nil. The pointer is valid until the next
// Push or Pop.
func (s *Stack) Top() *Entry {
	if len(s.entries) == 0 {
		return nil
	}
	return &s.entries[len(s.entries)-1]
}

// Root returns the bottom entry, or nil.
func (s *Stack) Root() *Entry {
	if len(s.entries) == 0 {
		return nil
	}
	return &s.entries[0]
}

// PushReader reads r completely into a new entry. If r is an io.Closer it is
// closed when the entry is popped.
func (s *Stack) PushReader(name string, r io.Reader) error {
	if len(s.entries) >= s.maxDepth {
		closeReader(r)
		return fmt.Errorf("%s: %w", name, ErrTooDeep)
	}
	buf, err := io.ReadAll(r)
	if err != nil {
		closeReader(r)
		return fmt.Errorf("reading %s: %w", name, err)
	}
	e := newEntry(name, buf)
	if c, ok := r.(io.Closer); ok {
		e.closer = c
	}
	e.hidden = s.inheritHidden()
	s.entries = append(s.entries, e)
	return nil
}

// PushExpansion pushes the expansion text of macro for rescanning. The
// macro and the names in hide stay unexpanded inside the new entry and any
// entry pushed above it.
func (s *Stack) PushExpansion(macro, text string, hide ...string) error {
	if len(s.entries) >= s.maxDepth {
		return fmt.Errorf("macro %s: %w", macro, ErrTooDeep)
	}
	e := newEntry(macro, []byte(text))
	e.Macro = macro
	e.hidden = s.inheritHidden()
	e.hidden[macro] = true
	for _, name := range hide {
		e.hidden[name] = true
	}
	s.entries = append(s.entries, e)
	return nil
}

func (s *Stack) inheritHidden() map[string]bool {
	hidden := make(map[string]bool)
	if top := s.Top(); top != nil {
		for name := range top.hidden {
			hidden[name] = true
		}
	}
	return hidden
}

// Pop discards the top entry and releases its source. Popping an empty
// stack means the caller lost track of its own state.
func (s *Stack) Pop() error {
	if len(s.entries) == 0 {
		return fmt.Errorf("pop of empty stream stack: %w", ErrInternal)
	}
	top := &s.entries[len(s.entries)-1]
	name := top.Name
	err := top.close()
	s.entries[len(s.entries)-1] = Entry{}
	s.entries = s.entries[:len(s.entries)-1]
	if err != nil {
		return fmt.Errorf("closing %s: %w", name, err)
	}
	return nil
}

// Files returns the names of live entries that are not macro expansions,
// outermost first.
func (s *Stack) Files() []string {
	var names []string
	for i := range s.entries {
		if s.entries[i].Macro == "" {
			names = append(names, s.entries[i].Name)
		}
	}
	return names
}

// Reset pops every entry, closing sources.
func (s *Stack) Reset() {
	for i := len(s.entries) - 1; i >= 0; i-- {
		_ = s.entries[i].close()
	}
	s.entries = s.entries[:0]
}

func closeReader(r io.Reader) {
	if c, ok := r.(io.Closer); ok {
		_ = c.Close()
	}
}
