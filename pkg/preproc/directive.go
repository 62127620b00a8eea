package preproc

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/raymyers/ralph-sqf/pkg/diag"
	"github.com/raymyers/ralph-sqf/pkg/include"
	"github.com/raymyers/ralph-sqf/pkg/macro"
)

// Directive is a parsed directive line.
type Directive struct {
	Name string // directive name without '#'
	Arg  string // text after the name, continuations joined, blanks trimmed
}

// ParseDirective splits the text of a directive span. Backslash-newline
// continuations and comments are removed.
func ParseDirective(text string) Directive {
	text = StripComments(JoinContinuations(text))
	text = strings.TrimLeft(text, " \t")
	text = strings.TrimPrefix(text, "#")
	text = strings.TrimLeft(text, " \t")
	end := 0
	for end < len(text) && isNameByte(text[end]) {
		end++
	}
	return Directive{
		Name: text[:end],
		Arg:  strings.Trim(text[end:], " \t\r\n"),
	}
}

// JoinContinuations removes every backslash that ends a line together with
// the line break.
func JoinContinuations(text string) string {
	if !strings.Contains(text, "\\\n") && !strings.Contains(text, "\\\r\n") {
		return text
	}
	text = strings.ReplaceAll(text, "\\\r\n", "")
	return strings.ReplaceAll(text, "\\\n", "")
}

// StripComments replaces every comment outside string literals with one
// space. A block comment left open runs to the end of text.
func StripComments(text string) string {
	if !strings.Contains(text, "/*") && !strings.Contains(text, "//") {
		return text
	}
	var b strings.Builder
	var quote byte
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '/' && i+1 < len(text) && text[i+1] == '/':
			end := strings.IndexByte(text[i:], '\n')
			if end < 0 {
				end = len(text) - i
			}
			b.WriteByte(' ')
			i += end - 1
			continue
		case c == '/' && i+1 < len(text) && text[i+1] == '*':
			end := strings.Index(text[i+2:], "*/")
			if end < 0 {
				end = len(text) - i
			} else {
				end += 4
			}
			b.WriteByte(' ')
			i += end - 1
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// conditional reports directives that run even inside skipped regions.
func conditional(name string) bool {
	switch name {
	case "ifdef", "ifndef", "else", "endif":
		return true
	}
	return false
}

// Directive executes the directive span text found at site. Inside a
// skipped region only conditional directives run.
func (p *Preprocessor) Directive(text string, site macro.Site) {
	site.File = p.opts.FileName
	d := ParseDirective(text)
	if !p.Active() && !conditional(d.Name) {
		return
	}
	p.log.Debug("directive", zap.String("name", d.Name), zap.String("arg", d.Arg), zap.Int("line", site.Line))
	switch d.Name {
	case "define":
		p.define(d.Arg, site)
	case "undef":
		p.undef(d.Arg, site)
	case "include":
		p.include(d.Arg, site)
	case "ifdef", "ifndef":
		name := firstWord(d.Arg)
		if name == "" {
			p.report(diag.EmptyInput, fmt.Sprintf("#%s without a macro name", d.Name), site)
		}
		defined := p.table.IsDefined(name)
		p.conds.push(defined == (d.Name == "ifdef"))
	case "else":
		if err := p.conds.flip(); err != nil {
			p.report(diag.PreprocessorError, err.Error(), site)
		}
	case "endif":
		if err := p.conds.pop(); err != nil {
			p.report(diag.PreprocessorError, err.Error(), site)
		}
	case "":
		p.report(diag.EmptyInput, "missing directive name", site)
	default:
		p.report(diag.PreprocessorError, fmt.Sprintf("unknown directive #%s", d.Name), site)
	}
}

// define handles the text after #define: NAME, optional parameter list
// directly after the name, then the body.
func (p *Preprocessor) define(arg string, site macro.Site) {
	arg = strings.TrimLeft(arg, " \t")
	end := 0
	for end < len(arg) && isNameByte(arg[end]) {
		end++
	}
	name := arg[:end]
	if name == "" {
		p.report(diag.EmptyInput, "#define without a macro name", site)
		return
	}
	rest := arg[end:]
	var params []string
	if strings.HasPrefix(rest, "(") {
		var list string
		closeIdx := strings.IndexByte(rest, ')')
		if closeIdx < 0 {
			p.report(diag.UnclosedParenthesis, fmt.Sprintf("parameter list of %s is not closed", name), site)
			list, rest = rest[1:], ""
		} else {
			list, rest = rest[1:closeIdx], rest[closeIdx+1:]
		}
		params = p.parseParams(name, list, site)
	}
	body := strings.Trim(rest, " \t\r\n")

	seg, issues := macro.Parse(body, params)
	for _, issue := range issues {
		p.report(issue.Kind, fmt.Sprintf("%s in body of %s", issue.Message, name), site)
	}
	if p.table.Define(&macro.Macro{Name: name, Params: params, Body: seg}) {
		p.report(diag.MacroOverwritten, fmt.Sprintf("macro %s redefined", name), site)
	}
	p.log.Debug("macro defined", zap.String("macro", name), zap.Strings("params", params))
}

// parseParams splits a parameter list. Malformed parameters are reported
// and kept, trimmed, so the macro keeps its arity.
func (p *Preprocessor) parseParams(name, list string, site macro.Site) []string {
	if strings.TrimSpace(list) == "" {
		if list != "" {
			p.report(diag.WhitespaceInMacroArgument, fmt.Sprintf("blank parameter list of %s", name), site)
		}
		return nil
	}
	raw := strings.Split(list, ",")
	params := make([]string, 0, len(raw))
	for i, param := range raw {
		trimmed := strings.TrimSpace(param)
		switch {
		case trimmed == "":
			p.report(diag.EmptyInput, fmt.Sprintf("parameter %d of %s is empty", i+1, name), site)
		case trimmed != param:
			p.report(diag.WhitespaceInMacroArgument,
				fmt.Sprintf("whitespace around parameter %q of %s", trimmed, name), site)
		}
		if trimmed != "" && !macro.IsIdentifier(trimmed) {
			p.report(diag.PreprocessorError, fmt.Sprintf("parameter %q of %s is not an identifier", trimmed, name), site)
		}
		params = append(params, trimmed)
	}
	return params
}

func (p *Preprocessor) undef(arg string, site macro.Site) {
	name := firstWord(arg)
	if name == "" {
		p.report(diag.EmptyInput, "#undef without a macro name", site)
		return
	}
	if !p.table.Undefine(name) {
		p.report(diag.MacroNotDefined, fmt.Sprintf("macro %s is not defined", name), site)
	}
}

// include resolves the target and pushes it. Any failure is reported and
// the directive has no further effect.
func (p *Preprocessor) include(arg string, site macro.Site) {
	path, kind, err := include.ParseTarget(arg)
	if err != nil {
		p.report(diag.InvalidIncludePath, err.Error(), site)
		return
	}
	if p.opts.Resolver == nil {
		p.report(diag.PreprocessorError, fmt.Sprintf("cannot include %s: no include resolver", path), site)
		return
	}
	files := p.stack.Files()
	for _, f := range files {
		if strings.EqualFold(f, path) {
			cerr := &include.CycleError{Path: path, Stack: files}
			p.report(diag.PreprocessorError, cerr.Error(), site)
			return
		}
	}
	rc, err := p.opts.Resolver.Resolve(path)
	if err != nil {
		kind := diag.PreprocessorError
		if errors.Is(err, include.ErrInvalidPath) || errors.Is(err, include.ErrNotFound) {
			kind = diag.InvalidIncludePath
		}
		p.report(kind, err.Error(), site)
		return
	}
	if err := p.stack.PushReader(path, rc); err != nil {
		p.report(diag.PreprocessorError, err.Error(), site)
		return
	}
	p.log.Debug("include pushed",
		zap.String("path", path),
		zap.Stringer("kind", kind),
		zap.Int("depth", p.stack.Depth()))
}

func firstWord(s string) string {
	s = strings.TrimLeft(s, " \t")
	end := 0
	for end < len(s) && isNameByte(s[end]) {
		end++
	}
	return s[:end]
}

func isNameByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
