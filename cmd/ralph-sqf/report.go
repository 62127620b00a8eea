package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/raymyers/ralph-sqf/pkg/diag"
)

// fileProblems collects the problems of one file.
type fileProblems struct {
	diag.Collector
	file string
}

// reporter prints problems, coloured when writing to a terminal.
type reporter struct {
	w         io.Writer
	errColor  *color.Color
	warnColor *color.Color
}

func newReporter(w io.Writer) *reporter {
	r := &reporter{
		w:         w,
		errColor:  color.New(color.FgRed, color.Bold),
		warnColor: color.New(color.FgYellow),
	}
	if isTerminal(w) {
		r.errColor.EnableColor()
		r.warnColor.EnableColor()
	} else {
		r.errColor.DisableColor()
		r.warnColor.DisableColor()
	}
	return r
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// print writes every problem of p and returns errProblems if one of them
// is an error.
func (r *reporter) print(p *fileProblems) error {
	if p == nil {
		return nil
	}
	for _, prob := range p.Problems {
		where := p.file
		if prob.Line != diag.UnknownLine {
			where = fmt.Sprintf("%s:%d", p.file, prob.Line)
		}
		sev := r.warnColor
		if prob.Kind.Severity() == diag.SeverityError {
			sev = r.errColor
		}
		fmt.Fprintf(r.w, "ralph-sqf: %s: %s: %s [%s]\n", where, sev.Sprint(prob.Kind.Severity()), prob.Message, prob.Kind)
	}
	if p.HasErrors() {
		return errProblems
	}
	return nil
}
