// Package sink defines the receiver of the lexer's token stream and a few
// ready-made receivers.
package sink

import (
	"fmt"

	"github.com/raymyers/ralph-sqf/pkg/source"
)

// Kind is the kind of a delivered token.
type Kind int

const (
	Command Kind = iota
	LocalVariable
	GlobalVariable
	NumberLiteral
	StringLiteral
	Whitespace
	Comment
	UnexpandedMacroReference
)

var kindNames = [...]string{
	Command:                  "Command",
	LocalVariable:            "LocalVariable",
	GlobalVariable:           "GlobalVariable",
	NumberLiteral:            "NumberLiteral",
	StringLiteral:            "StringLiteral",
	Whitespace:               "Whitespace",
	Comment:                  "Comment",
	UnexpandedMacroReference: "UnexpandedMacroReference",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalYAML renders the kind by name.
func (k Kind) MarshalYAML() (interface{}, error) { return k.String(), nil }

// UnmarshalYAML parses a kind name.
func (k *Kind) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	for i, n := range kindNames {
		if n == name {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown token kind %q", name)
}

// IDBased reports whether tokens of this kind carry an id instead of text.
func (k Kind) IDBased() bool {
	return k == Command || k == LocalVariable || k == GlobalVariable
}

// Sink receives tokens in order. Offsets follow the two coordinate spaces of
// source.Position. Skipped events carry original coordinates only.
type Sink interface {
	Begin()
	AcceptCommand(id int, pos source.Position)
	AcceptLocalVariable(id int, pos source.Position)
	AcceptGlobalVariable(id int, pos source.Position)
	// AcceptLiteral receives NumberLiteral, StringLiteral and
	// UnexpandedMacroReference tokens. String text is decoded.
	AcceptLiteral(kind Kind, text string, pos source.Position)
	AcceptWhitespace(pos source.Position)
	AcceptComment(pos source.Position, newlines int)
	PreprocessorTokenSkipped(origOffset, origLength int)
	PreprocessorDirectiveSkipped(origOffset, origLength int)
	End()
}

// TextObserver is implemented by sinks that also want the preprocessed text
// of every token. ForwardedText is called right before the matching Accept
// call; kind is the kind that call delivers.
type TextObserver interface {
	ForwardedText(kind Kind, text string, pos source.Position)
}

// Nop ignores everything. Embed it to implement only some methods.
type Nop struct{}

func (Nop) Begin()                                      {}
func (Nop) AcceptCommand(int, source.Position)          {}
func (Nop) AcceptLocalVariable(int, source.Position)    {}
func (Nop) AcceptGlobalVariable(int, source.Position)   {}
func (Nop) AcceptLiteral(Kind, string, source.Position) {}
func (Nop) AcceptWhitespace(source.Position)            {}
func (Nop) AcceptComment(source.Position, int)          {}
func (Nop) PreprocessorTokenSkipped(int, int)           {}
func (Nop) PreprocessorDirectiveSkipped(int, int)       {}
func (Nop) End()                                        {}
