package sink

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/raymyers/ralph-sqf/pkg/source"
)

func TestKind(t *testing.T) {
	assert.Equal(t, "UnexpandedMacroReference", UnexpandedMacroReference.String())
	assert.Equal(t, "Kind(42)", Kind(42).String())
	assert.True(t, Command.IDBased())
	assert.True(t, GlobalVariable.IDBased())
	assert.False(t, StringLiteral.IDBased())
}

func TestRecorderYAML(t *testing.T) {
	var r Recorder
	r.Begin()
	r.AcceptGlobalVariable(1, source.Position{OrigLength: 4, PreLength: 4})
	r.AcceptWhitespace(source.Position{OrigOffset: 4, OrigLength: 1, PreOffset: 4, PreLength: 1})
	r.AcceptLiteral(StringLiteral, "hi", source.Position{OrigOffset: 5, OrigLength: 4, PreOffset: 5, PreLength: 4})
	r.PreprocessorDirectiveSkipped(10, 8)
	r.End()

	out, err := yaml.Marshal(r.Tokens)
	require.NoError(t, err)

	var back []Token
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, r.Tokens, back)
	assert.Contains(t, string(out), "kind: GlobalVariable")

	assert.Len(t, r.Significant(), 2)
	assert.Equal(t, []Skip{{Directive: true, Offset: 10, Length: 8}}, r.Skipped)
	assert.Equal(t, 1, r.Begins)
	assert.Equal(t, 1, r.Ends)

	r.Reset()
	assert.Empty(t, r.Tokens)
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.ForwardedText(GlobalVariable, "a", source.Position{})
	p.ForwardedText(Comment, "/* x\ny */", source.Position{})
	p.ForwardedText(Whitespace, " ", source.Position{})
	assert.Equal(t, "a\n ", buf.String())
	assert.Equal(t, int64(3), p.Written())

	buf.Reset()
	p = NewPrinter(&buf)
	p.KeepComments = true
	p.ForwardedText(Comment, "// c", source.Position{})
	assert.Equal(t, "// c", buf.String())
	assert.NoError(t, p.Err())
}

func TestTee(t *testing.T) {
	var a, b Recorder
	var buf bytes.Buffer
	tee := Tee{&a, &b, NewPrinter(&buf)}
	tee.Begin()
	tee.ForwardedText(Command, "+", source.Position{})
	tee.AcceptCommand(3, source.Position{})
	tee.End()

	assert.Equal(t, a, b)
	assert.Equal(t, []Token{{Kind: Command, ID: 3}}, a.Tokens)
	assert.Equal(t, "+", buf.String())
}
