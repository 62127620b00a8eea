package intern

import "golang.org/x/text/cases"

// Commands is a read-only, case-insensitive table of command names. Ids are
// positions in the list the table was built from.
type Commands struct {
	ids   map[string]int
	names []string
}

// NewCommands builds a table. Later case-variants of a name already present
// are ignored.
func NewCommands(names ...string) *Commands {
	c := &Commands{ids: make(map[string]int, len(names))}
	fold := cases.Fold()
	for _, name := range names {
		key := fold.String(name)
		if _, dup := c.ids[key]; dup {
			continue
		}
		c.ids[key] = len(c.names)
		c.names = append(c.names, name)
	}
	return c
}

// Lookup returns the id of name.
func (c *Commands) Lookup(name string) (int, bool) {
	id, ok := c.ids[cases.Fold().String(name)]
	return id, ok
}

// Name returns the spelling of id.
func (c *Commands) Name(id int) (string, bool) {
	if id < 0 || id >= len(c.names) {
		return "", false
	}
	return c.names[id], true
}

// Len returns the number of commands.
func (c *Commands) Len() int { return len(c.names) }

// Operators are the punctuation lexemes the scanner produces. They are
// delivered as commands, so every command table must contain them.
var Operators = []string{
	"(", ")", "[", "]", "{", "}", ",", ";",
	"=", "==", "!=", "<", ">", "<=", ">=", ">>",
	"&&", "||", "!", "+", "-", "*", "/", "%", "^", ":", "#",
}

// DefaultCommands holds the operators and the keyword-like commands that
// shape control flow. Real tools load the full command list themselves.
var DefaultCommands = NewCommands(append(append([]string{}, Operators...),
	"and", "or", "not",
	"if", "then", "else", "exitWith",
	"while", "do", "for", "from", "to", "step", "forEach",
	"switch", "case", "default",
	"try", "catch", "throw",
	"private", "params", "call", "spawn", "with",
	"true", "false", "nil",
	"count", "select", "hint",
)...)
