package macro

import "strings"

// Segment is a node of a parsed macro body. Trees are built once per
// definition and never mutated; binding arguments produces a new tree.
type Segment interface {
	// Unexpanded returns the text the segment was parsed from.
	Unexpanded() string

	expand(x *expansion) string
	bind(args []Segment) Segment
}

// Text is literal text: blanks, punctuation, numbers and string literals.
type Text string

func (t Text) Unexpanded() string       { return string(t) }
func (t Text) expand(*expansion) string { return string(t) }
func (t Text) bind([]Segment) Segment   { return t }

// Word is a bare identifier resolved against the macro table at expansion
// time, so macros defined after this body still apply.
type Word string

func (w Word) Unexpanded() string     { return string(w) }
func (w Word) bind([]Segment) Segment { return w }

func (w Word) expand(x *expansion) string {
	name := string(w)
	m := x.lookup(name)
	if m == nil || len(m.Params) > 0 {
		return name
	}
	return x.expandMacro(m, nil, name)
}

// Argument stands for the Index-th argument of the macro being defined.
type Argument struct {
	Index int
	Name  string
}

func (a Argument) Unexpanded() string { return a.Name }

func (a Argument) expand(*expansion) string {
	// Unbound arguments only survive in trees expanded without binding.
	return a.Name
}

func (a Argument) bind(args []Segment) Segment {
	if a.Index < len(args) && args[a.Index] != nil {
		return args[a.Index]
	}
	return a
}

// Sequence concatenates its parts.
type Sequence []Segment

func (s Sequence) Unexpanded() string {
	var sb strings.Builder
	for _, seg := range s {
		sb.WriteString(seg.Unexpanded())
	}
	return sb.String()
}

func (s Sequence) expand(x *expansion) string {
	var sb strings.Builder
	for _, seg := range s {
		sb.WriteString(seg.expand(x))
	}
	return sb.String()
}

func (s Sequence) bind(args []Segment) Segment {
	out := make(Sequence, len(s))
	for i, seg := range s {
		out[i] = seg.bind(args)
	}
	return out
}

// Invocation is a word directly followed by a parenthesized argument list
// inside a macro body. Groups hold one segment per comma-separated argument.
type Invocation struct {
	Name   string
	Groups []Segment
	Open   bool // the closing parenthesis was missing
}

func (inv Invocation) Unexpanded() string {
	var sb strings.Builder
	sb.WriteString(inv.Name)
	sb.WriteByte('(')
	for i, g := range inv.Groups {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(g.Unexpanded())
	}
	if !inv.Open {
		sb.WriteByte(')')
	}
	return sb.String()
}

func (inv Invocation) bind(args []Segment) Segment {
	groups := make([]Segment, len(inv.Groups))
	for i, g := range inv.Groups {
		groups[i] = g.bind(args)
	}
	return Invocation{Name: inv.Name, Groups: groups, Open: inv.Open}
}

func (inv Invocation) expand(x *expansion) string {
	m := x.lookup(inv.Name)
	switch {
	case m == nil:
		return inv.literal(x, inv.Name)
	case len(m.Params) == 0:
		return inv.literal(x, x.expandMacro(m, nil, inv.Name))
	case len(inv.Groups) == 0:
		x.noArguments(m)
		return inv.Unexpanded()
	case len(inv.Groups) != len(m.Params):
		x.wrongCount(m, len(inv.Groups))
		return inv.Unexpanded()
	}
	return x.expandMacro(m, inv.Groups, inv.Name)
}

// literal renders the invocation as a plain call with expanded arguments.
func (inv Invocation) literal(x *expansion, head string) string {
	var sb strings.Builder
	sb.WriteString(head)
	sb.WriteByte('(')
	for i, g := range inv.Groups {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(g.expand(x))
	}
	if !inv.Open {
		sb.WriteByte(')')
	}
	return sb.String()
}

// Glue is the ## operator. Both sides contribute their unexpanded text;
// the joined result is only looked up when it is rescanned.
type Glue struct {
	Left, Right       Segment // either may be nil at a body boundary
	LeftPad, RightPad string  // blanks around ##, dropped on expansion
}

func (g Glue) Unexpanded() string {
	return unexpanded(g.Left) + g.LeftPad + "##" + g.RightPad + unexpanded(g.Right)
}

func (g Glue) expand(*expansion) string {
	return unexpanded(g.Left) + unexpanded(g.Right)
}

func (g Glue) bind(args []Segment) Segment {
	return Glue{Left: bindOrNil(g.Left, args), Right: bindOrNil(g.Right, args), LeftPad: g.LeftPad, RightPad: g.RightPad}
}

// Stringify is the # operator: the unexpanded operand wrapped in quotes.
type Stringify struct {
	Operand Segment // nil when # ends the body
	Pad     string
}

func (s Stringify) Unexpanded() string {
	return "#" + s.Pad + unexpanded(s.Operand)
}

func (s Stringify) expand(*expansion) string {
	return `"` + unexpanded(s.Operand) + `"`
}

func (s Stringify) bind(args []Segment) Segment {
	return Stringify{Operand: bindOrNil(s.Operand, args), Pad: s.Pad}
}

func unexpanded(s Segment) string {
	if s == nil {
		return ""
	}
	return s.Unexpanded()
}

func bindOrNil(s Segment, args []Segment) Segment {
	if s == nil {
		return nil
	}
	return s.bind(args)
}

// Bind substitutes args for the Argument placeholders of seg.
func Bind(seg Segment, args []Segment) Segment {
	return bindOrNil(seg, args)
}
