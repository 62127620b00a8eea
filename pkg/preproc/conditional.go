package preproc

import "fmt"

// CondState is the state of one #ifdef/#ifndef level.
type CondState int

const (
	LexToElse     CondState = iota // condition held; #else starts skipping
	SkipElseBlock                  // after #else of a held condition
	SkipToElse                     // condition failed; #else starts lexing
	LexToEndIf                     // after #else of a failed condition
)

func (s CondState) String() string {
	switch s {
	case LexToElse:
		return "LexToElse"
	case SkipElseBlock:
		return "SkipElseBlock"
	case SkipToElse:
		return "SkipToElse"
	case LexToEndIf:
		return "LexToEndIf"
	default:
		return fmt.Sprintf("CondState(%d)", int(s))
	}
}

// Lexing reports whether tokens under this state are forwarded.
func (s CondState) Lexing() bool {
	return s == LexToElse || s == LexToEndIf
}

// conditions is the stack of open conditional levels.
type conditions struct {
	stack []CondState
}

// active returns true if every open level is lexing.
func (c *conditions) active() bool {
	for _, s := range c.stack {
		if !s.Lexing() {
			return false
		}
	}
	return true
}

func (c *conditions) push(cond bool) {
	if cond {
		c.stack = append(c.stack, LexToElse)
	} else {
		c.stack = append(c.stack, SkipToElse)
	}
}

// flip handles #else.
func (c *conditions) flip() error {
	if len(c.stack) == 0 {
		return fmt.Errorf("#else without #ifdef")
	}
	top := &c.stack[len(c.stack)-1]
	switch *top {
	case LexToElse:
		*top = SkipElseBlock
	case SkipToElse:
		*top = LexToEndIf
	default:
		return fmt.Errorf("duplicate #else")
	}
	return nil
}

// pop handles #endif.
func (c *conditions) pop() error {
	if len(c.stack) == 0 {
		return fmt.Errorf("#endif without #ifdef")
	}
	c.stack = c.stack[:len(c.stack)-1]
	return nil
}

func (c *conditions) depth() int { return len(c.stack) }

func (c *conditions) reset() { c.stack = c.stack[:0] }
