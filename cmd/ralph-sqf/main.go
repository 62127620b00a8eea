package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/raymyers/ralph-sqf/pkg/config"
	"github.com/raymyers/ralph-sqf/pkg/include"
	"github.com/raymyers/ralph-sqf/pkg/intern"
	"github.com/raymyers/ralph-sqf/pkg/lexer"
	"github.com/raymyers/ralph-sqf/pkg/sink"
)

var version = "0.1.0"

// appFs is the filesystem every command reads from.
var appFs afero.Fs = afero.NewOsFs()

// errProblems is returned when an error-severity problem was reported. The
// problems themselves are already printed.
var errProblems = errors.New("problems reported")

var (
	verbose      bool
	keepComments bool
	format       string
	allTokens    bool
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errProblems) {
			fmt.Fprintf(os.Stderr, "ralph-sqf: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ralph-sqf",
		Short: "ralph-sqf scans and preprocesses SQF scripts",
		Long: `ralph-sqf is the front end of an SQF toolchain: it resolves #include
and #define directives, expands macros and turns the result into a
stream of interned tokens that keeps track of original positions.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	config.RegisterFlags(rootCmd.PersistentFlags())
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log preprocessor activity to stderr")

	tokensCmd := &cobra.Command{
		Use:   "tokens PATH...",
		Short: "Print the token stream of files or directories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, errOut)
			if err != nil {
				return err
			}
			return doTokens(e, args, out)
		},
	}
	tokensCmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text or yaml")
	tokensCmd.Flags().BoolVarP(&allTokens, "all", "a", false, "Include whitespace and comments")

	preprocessCmd := &cobra.Command{
		Use:   "preprocess FILE",
		Short: "Print the preprocessed text of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, errOut)
			if err != nil {
				return err
			}
			return doPreprocess(e, args[0], out)
		},
	}
	preprocessCmd.Flags().BoolVar(&keepComments, "keep-comments", false, "Keep comments in the output")

	macrosCmd := &cobra.Command{
		Use:   "macros FILE",
		Short: "Print the macros defined after processing a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, errOut)
			if err != nil {
				return err
			}
			return doMacros(e, args[0], out)
		},
	}

	rootCmd.AddCommand(tokensCmd, preprocessCmd, macrosCmd)
	return rootCmd
}

// env is what a command needs once flags are parsed.
type env struct {
	cfg    config.Config
	log    *zap.Logger
	report *reporter

	mu        sync.Mutex
	resolvers map[string]*include.FileResolver
}

func newEnv(cmd *cobra.Command, errOut io.Writer) (*env, error) {
	cfg, err := config.FromFlags(appFs, cmd.Flags())
	if err != nil {
		return nil, err
	}
	log := zap.NewNop()
	if verbose {
		log = zap.New(zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.AddSync(errOut),
			zap.DebugLevel,
		))
	}
	return &env{
		cfg:       cfg,
		log:       log,
		report:    newReporter(errOut),
		resolvers: make(map[string]*include.FileResolver),
	}, nil
}

// resolver returns the include resolver for a file. Without a configured
// work directory relative includes resolve against the file's directory.
func (e *env) resolver(file string) (*include.FileResolver, error) {
	cfg := e.cfg
	if cfg.WorkDir == "" {
		cfg.WorkDir = filepath.Dir(file)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if r, ok := e.resolvers[cfg.WorkDir]; ok {
		return r, nil
	}
	r, err := cfg.Resolver(appFs, e.log)
	if err != nil {
		return nil, err
	}
	e.resolvers[cfg.WorkDir] = r
	return r, nil
}

// lexFile runs one file through a fresh lexer.
func (e *env) lexFile(global *intern.Global, file string, s sink.Sink) (*fileProblems, *lexer.Lexer, int, error) {
	res, err := e.resolver(file)
	if err != nil {
		return nil, nil, 0, err
	}
	data, err := afero.ReadFile(appFs, file)
	if err != nil {
		return nil, nil, 0, err
	}
	problems := &fileProblems{file: file}
	l := lexer.New(intern.New(global, nil), e.cfg.LexerOptions(res, problems, e.log.With(zap.String("file", file))))
	if err := l.Lex(filepath.Base(file), bytes.NewReader(data), s); err != nil {
		return problems, l, len(data), err
	}
	return problems, l, len(data), nil
}

func doPreprocess(e *env, file string, out io.Writer) error {
	p := sink.NewPrinter(out)
	p.KeepComments = keepComments
	problems, _, _, err := e.lexFile(nil, file, p)
	if err != nil {
		return err
	}
	if err := p.Err(); err != nil {
		return err
	}
	return e.report.print(problems)
}

func doMacros(e *env, file string, out io.Writer) error {
	problems, l, _, err := e.lexFile(nil, file, sink.Nop{})
	if err != nil {
		return err
	}
	table := l.Macros()
	for _, name := range table.Names() {
		fmt.Fprintln(out, table.Lookup(name).Definition())
	}
	return e.report.print(problems)
}
