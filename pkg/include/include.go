// Package include resolves the targets of #include directives.
//
// Include paths use backslashes as separators. A path starting with a
// backslash is absolute and is looked up under each search root in order;
// a directory containing a prefix file ($PBOPREFIX$ by default) declares the
// absolute path it is mounted at. Other paths are relative to the working
// directory. Files inside PBO archives are not supported.
package include

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrInvalidPath is returned for paths that are not well formed.
	ErrInvalidPath = errors.New("invalid include path")
	// ErrNotFound is returned when no root holds the path.
	ErrNotFound = errors.New("include file not found")
	// ErrUnsupported is returned for paths that lead into a PBO archive.
	ErrUnsupported = errors.New("include from archive not supported")
)

// Separator separates include path components.
const Separator = '\\'

// Resolver opens include targets. The caller closes the returned reader.
type Resolver interface {
	Resolve(path string) (io.ReadCloser, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(path string) (io.ReadCloser, error)

func (f ResolverFunc) Resolve(path string) (io.ReadCloser, error) { return f(path) }

// Kind distinguishes between <file> and "file" includes.
type Kind int

const (
	Quoted Kind = iota // "file" form
	Angled             // <file> form
)

func (k Kind) String() string {
	if k == Angled {
		return "angled"
	}
	return "quoted"
}

// ParseTarget extracts the path from the argument of an #include directive.
func ParseTarget(arg string) (string, Kind, error) {
	arg = strings.TrimSpace(arg)
	if len(arg) < 2 {
		return "", Quoted, fmt.Errorf("%q: %w", arg, ErrInvalidPath)
	}
	var kind Kind
	switch {
	case arg[0] == '"' && arg[len(arg)-1] == '"':
		kind = Quoted
	case arg[0] == '<' && arg[len(arg)-1] == '>':
		kind = Angled
	default:
		return "", Quoted, fmt.Errorf("%s: expected \"path\" or <path>: %w", arg, ErrInvalidPath)
	}
	path := arg[1 : len(arg)-1]
	if path == "" {
		return "", kind, fmt.Errorf("empty path: %w", ErrInvalidPath)
	}
	return path, kind, nil
}

// Split validates path and returns its components and whether it is
// absolute. "." components are dropped and ".." components are kept for the
// caller to resolve.
func Split(path string) ([]string, bool, error) {
	if path == "" {
		return nil, false, fmt.Errorf("empty path: %w", ErrInvalidPath)
	}
	for i := 0; i < len(path); i++ {
		switch c := path[i]; {
		case c == '/':
			return nil, false, fmt.Errorf("%s: use %q as separator: %w", path, Separator, ErrInvalidPath)
		case c == ':' || c == '*' || c == '?' || c == '"' || c == '<' || c == '>' || c == '|':
			return nil, false, fmt.Errorf("%s: character %q not allowed: %w", path, c, ErrInvalidPath)
		case c < ' ':
			return nil, false, fmt.Errorf("%s: control character: %w", path, ErrInvalidPath)
		}
	}
	absolute := path[0] == Separator
	rest := path
	if absolute {
		rest = path[1:]
	}
	var parts []string
	for _, part := range strings.Split(rest, string(Separator)) {
		switch part {
		case "":
			return nil, false, fmt.Errorf("%s: empty component: %w", path, ErrInvalidPath)
		case ".":
			continue
		}
		parts = append(parts, part)
	}
	if len(parts) == 0 {
		return nil, false, fmt.Errorf("%s: no file name: %w", path, ErrInvalidPath)
	}
	return parts, absolute, nil
}

// Error reports a failed resolution.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return "include " + e.Path + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// CycleError indicates a file that includes itself, directly or not.
type CycleError struct {
	Path  string
	Stack []string
}

func (e *CycleError) Error() string {
	var sb strings.Builder
	sb.WriteString("circular include detected: ")
	sb.WriteString(e.Path)
	sb.WriteString("\ninclude stack:\n")
	for i, f := range e.Stack {
		sb.WriteString("  ")
		sb.WriteString(strings.Repeat("  ", i))
		sb.WriteString(f)
		sb.WriteString("\n")
	}
	return sb.String()
}
