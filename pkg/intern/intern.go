// Package intern replaces SQF identifiers with stable integer ids.
//
// SQF names are case-insensitive, so every table folds case before lookup.
// Variables live in two tables: a global one that outlives a single file
// (ids stay stable across every file a tool processes) and a local one, for
// names starting with an underscore, that starts over with each file.
// Command names come from a static table.
package intern

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/text/cases"
)

// LocalSigil starts every local variable name.
const LocalSigil = '_'

// ErrUnknownID is returned for ids no table has handed out.
var ErrUnknownID = errors.New("unknown identifier id")

// IsLocal reports whether name is a local variable name.
func IsLocal(name string) bool {
	return len(name) > 0 && name[0] == LocalSigil
}

// table is a case-insensitive name/id set. Ids start at first and move by
// step, so local (negative) and global (positive) ids never collide.
type table struct {
	ids   map[string]int
	names map[int]string
	first int
	next  int
	step  int
	fold  cases.Caser
}

func newTable(first, step int) *table {
	return &table{
		ids:   make(map[string]int),
		names: make(map[int]string),
		first: first,
		next:  first,
		step:  step,
		fold:  cases.Fold(),
	}
}

func (t *table) id(name string) int {
	key := t.fold.String(name)
	if id, ok := t.ids[key]; ok {
		return id
	}
	id := t.next
	t.next += t.step
	t.ids[key] = id
	t.names[id] = name
	return id
}

func (t *table) lookup(name string) (int, bool) {
	id, ok := t.ids[t.fold.String(name)]
	return id, ok
}

func (t *table) name(id int) (string, bool) {
	name, ok := t.names[id]
	return name, ok
}

// Global is the persistent table of global variable names. It is safe for
// concurrent use so that one instance can back several pipelines.
type Global struct {
	mu sync.Mutex
	t  *table
}

// NewGlobal creates an empty global table. Its ids start at 1.
func NewGlobal() *Global {
	return &Global{t: newTable(1, 1)}
}

// ID returns the id of name, allocating one on first sighting.
func (g *Global) ID(name string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.t.id(name)
}

// Lookup returns the id of name without allocating.
func (g *Global) Lookup(name string) (int, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.t.lookup(name)
}

// Name returns the spelling name was first seen with.
func (g *Global) Name(id int) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.t.name(id)
}

// Len returns the number of names.
func (g *Global) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.t.names)
}

// Interner resolves names for one pipeline: its own local table plus a
// shared global table and command table.
type Interner struct {
	global   *Global
	local    *table
	commands *Commands
}

// New creates an interner. A nil global gets a fresh table; nil commands use
// DefaultCommands.
func New(global *Global, commands *Commands) *Interner {
	if global == nil {
		global = NewGlobal()
	}
	if commands == nil {
		commands = DefaultCommands
	}
	return &Interner{
		global:   global,
		local:    newTable(-1, -1),
		commands: commands,
	}
}

// ToID returns the id of a variable name: a negative local id for names
// starting with the local sigil, a positive global id otherwise.
func (in *Interner) ToID(name string) int {
	if IsLocal(name) {
		return in.local.id(name)
	}
	return in.global.ID(name)
}

// FromID returns the name behind a variable id.
func (in *Interner) FromID(id int) (string, error) {
	var (
		name string
		ok   bool
	)
	if id < 0 {
		name, ok = in.local.name(id)
	} else {
		name, ok = in.global.Name(id)
	}
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnknownID, id)
	}
	return name, nil
}

// Command returns the id of a command name.
func (in *Interner) Command(name string) (int, bool) {
	return in.commands.Lookup(name)
}

// CommandName returns the canonical spelling of a command id.
func (in *Interner) CommandName(id int) (string, error) {
	name, ok := in.commands.Name(id)
	if !ok {
		return "", fmt.Errorf("%w: command %d", ErrUnknownID, id)
	}
	return name, nil
}

// Global returns the shared global table.
func (in *Interner) Global() *Global { return in.global }

// Locals returns the number of local names seen since the last reset.
func (in *Interner) Locals() int { return len(in.local.names) }

// Reset starts a new local namespace. Global ids are kept.
func (in *Interner) Reset() {
	in.local = newTable(-1, -1)
}
