package main

import (
	"fmt"
	"io"
	"io/fs"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/raymyers/ralph-sqf/pkg/diag"
	"github.com/raymyers/ralph-sqf/pkg/intern"
	"github.com/raymyers/ralph-sqf/pkg/lexer"
	"github.com/raymyers/ralph-sqf/pkg/sink"
	"github.com/raymyers/ralph-sqf/pkg/source"
)

// tokenView is a token with its id resolved to text.
type tokenView struct {
	Kind sink.Kind       `yaml:"kind"`
	Text string          `yaml:"text,omitempty"`
	Pos  source.Position `yaml:",inline"`
}

type fileTokens struct {
	File     string         `yaml:"file"`
	Tokens   []tokenView    `yaml:"tokens"`
	Problems []diag.Problem `yaml:"problems,omitempty"`
}

// collectFiles expands directories to the files matching the configured
// pattern. Files named explicitly are always taken.
func collectFiles(e *env, paths []string) ([]string, error) {
	match, err := e.cfg.Matcher()
	if err != nil {
		return nil, err
	}
	var files []string
	for _, p := range paths {
		info, err := appFs.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = afero.Walk(appFs, p, func(path string, info fs.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && match.Match(info.Name()) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func doTokens(e *env, paths []string, out io.Writer) error {
	if format != "text" && format != "yaml" {
		return fmt.Errorf("unknown format %q", format)
	}
	files, err := collectFiles(e, paths)
	if err != nil {
		return err
	}

	global := intern.NewGlobal()
	results := make([]fileTokens, len(files))
	problems := make([]*fileProblems, len(files))
	var scanned atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(e.cfg.Jobs)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			var rec sink.Recorder
			p, l, size, err := e.lexFile(global, file, &rec)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			scanned.Add(int64(size))
			results[i] = render(file, l, &rec)
			results[i].Problems = p.Problems
			problems[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if format == "yaml" {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(results); err != nil {
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}
	} else {
		count := 0
		for _, r := range results {
			fmt.Fprintf(out, "%s:\n", r.File)
			for _, t := range r.Tokens {
				fmt.Fprintf(out, "  %-18s %-24s %q\n", t.Kind, t.Pos, t.Text)
			}
			count += len(r.Tokens)
		}
		fmt.Fprintf(out, "%s files, %s tokens, %s scanned, %s global names\n",
			humanize.Comma(int64(len(files))),
			humanize.Comma(int64(count)),
			humanize.Bytes(uint64(scanned.Load())),
			humanize.Comma(int64(global.Len())))
	}

	var failed error
	for _, p := range problems {
		if err := e.report.print(p); err != nil {
			failed = err
		}
	}
	return failed
}

// render resolves the ids of recorded tokens while the lexer's local
// table is still live.
func render(file string, l *lexer.Lexer, rec *sink.Recorder) fileTokens {
	tokens := rec.Tokens
	if !allTokens {
		tokens = rec.Significant()
	}
	in := l.Interner()
	ft := fileTokens{File: file, Tokens: make([]tokenView, 0, len(tokens))}
	for _, t := range tokens {
		v := tokenView{Kind: t.Kind, Text: t.Text, Pos: t.Pos}
		switch t.Kind {
		case sink.Command:
			v.Text, _ = in.CommandName(t.ID)
		case sink.LocalVariable, sink.GlobalVariable:
			v.Text, _ = in.FromID(t.ID)
		}
		ft.Tokens = append(ft.Tokens, v)
	}
	return ft
}
