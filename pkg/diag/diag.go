// Package diag defines the problem taxonomy reported by the SQF lexer and
// preprocessor, and the listener contract used to deliver it.
package diag

import "fmt"

// Kind identifies a class of problem. The set is closed.
type Kind int

const (
	EmptyInput                Kind = iota // a name or path was required but nothing was given
	UnclosedString                        // string literal runs to end of input
	UnclosedParenthesis                   // macro argument or parameter list never closed
	InvalidCharacter                      // byte that no lexeme starts with
	WhitespaceInMacroArgument             // leading/trailing whitespace around a parameter name
	NoArgumentsProvided                   // parameterized macro used without arguments
	WrongArgumentCount                    // argument count differs from parameter count
	MacroOverwritten                      // #define of an existing macro
	MacroNotDefined                       // #undef of an unknown macro
	InvalidIncludePath                    // #include path is malformed or cannot be found
	PreprocessorError                     // any other preprocessor problem
	InternalError                         // tool bug; stops the current run
)

func (k Kind) String() string {
	switch k {
	case EmptyInput:
		return "empty-input"
	case UnclosedString:
		return "unclosed-string"
	case UnclosedParenthesis:
		return "unclosed-parenthesis"
	case InvalidCharacter:
		return "invalid-character"
	case WhitespaceInMacroArgument:
		return "whitespace-in-macro-argument"
	case NoArgumentsProvided:
		return "no-arguments-provided"
	case WrongArgumentCount:
		return "wrong-argument-count"
	case MacroOverwritten:
		return "macro-overwritten"
	case MacroNotDefined:
		return "macro-not-defined"
	case InvalidIncludePath:
		return "invalid-include-path"
	case PreprocessorError:
		return "preprocessor-error"
	case InternalError:
		return "internal-error"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Severity grades a Kind.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Severity returns the severity of the kind. Only redefinitions and
// undefining an unknown macro are warnings.
func (k Kind) Severity() Severity {
	switch k {
	case MacroOverwritten, MacroNotDefined:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// Fatal reports whether a problem of this kind ends the run.
func (k Kind) Fatal() bool {
	return k == InternalError
}

// UnknownLine is passed as line when no line number applies.
const UnknownLine = -1

// Listener receives problems as they are found. Offsets and lengths are in
// original-input coordinates; line is 1-based or UnknownLine.
type Listener interface {
	ProblemEncountered(kind Kind, message string, offset, length, line int)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(kind Kind, message string, offset, length, line int)

func (f ListenerFunc) ProblemEncountered(kind Kind, message string, offset, length, line int) {
	f(kind, message, offset, length, line)
}

// Discard drops every problem.
var Discard Listener = ListenerFunc(func(Kind, string, int, int, int) {})

// Problem is one reported problem.
type Problem struct {
	Kind    Kind   `yaml:"kind"`
	Message string `yaml:"message"`
	Offset  int    `yaml:"offset"`
	Length  int    `yaml:"length"`
	Line    int    `yaml:"line"`
}

func (p Problem) String() string {
	if p.Line == UnknownLine {
		return fmt.Sprintf("%s: %s [%s]", p.Kind.Severity(), p.Message, p.Kind)
	}
	return fmt.Sprintf("%d: %s: %s [%s]", p.Line, p.Kind.Severity(), p.Message, p.Kind)
}

// Collector is a Listener that keeps every problem in order.
type Collector struct {
	Problems []Problem
}

func (c *Collector) ProblemEncountered(kind Kind, message string, offset, length, line int) {
	c.Problems = append(c.Problems, Problem{
		Kind:    kind,
		Message: message,
		Offset:  offset,
		Length:  length,
		Line:    line,
	})
}

// Kinds returns the kinds of the collected problems in report order.
func (c *Collector) Kinds() []Kind {
	kinds := make([]Kind, len(c.Problems))
	for i, p := range c.Problems {
		kinds[i] = p.Kind
	}
	return kinds
}

// Has reports whether a problem of the given kind was collected.
func (c *Collector) Has(kind Kind) bool {
	for _, p := range c.Problems {
		if p.Kind == kind {
			return true
		}
	}
	return false
}

// HasErrors reports whether any error-severity problem was collected.
func (c *Collector) HasErrors() bool {
	for _, p := range c.Problems {
		if p.Kind.Severity() == SeverityError {
			return true
		}
	}
	return false
}

// Reset drops the collected problems.
func (c *Collector) Reset() {
	c.Problems = nil
}

// MarshalYAML renders the kind by name.
func (k Kind) MarshalYAML() (interface{}, error) {
	return k.String(), nil
}
