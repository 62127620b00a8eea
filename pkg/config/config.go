// Package config holds the settings shared by the ralph-sqf commands. A
// YAML file supplies them first; command-line flags override it.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/gobwas/glob"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/raymyers/ralph-sqf/pkg/diag"
	"github.com/raymyers/ralph-sqf/pkg/include"
	"github.com/raymyers/ralph-sqf/pkg/lexer"
	"github.com/raymyers/ralph-sqf/pkg/source"
)

// Config is the complete tool configuration.
type Config struct {
	Roots            []string `yaml:"roots"`
	WorkDir          string   `yaml:"workdir"`
	PrefixFile       string   `yaml:"prefix_file"`
	CacheSize        int      `yaml:"cache_size"`
	Defines          []string `yaml:"defines"`
	Undefines        []string `yaml:"undefines"`
	Preprocess       bool     `yaml:"preprocess"`
	PreserveNewlines bool     `yaml:"preserve_newlines"`
	MaxDepth         int      `yaml:"max_depth"`
	Jobs             int      `yaml:"jobs"`
	Match            string   `yaml:"match"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		PrefixFile: include.DefaultPrefixFile,
		CacheSize:  include.DefaultCacheSize,
		Preprocess: true,
		MaxDepth:   source.DefaultMaxDepth,
		Jobs:       runtime.GOMAXPROCS(0),
		Match:      "*.sqf",
	}
}

// Load reads a YAML configuration file on top of the defaults. Unknown
// keys are rejected.
func Load(fs afero.Fs, path string) (Config, error) {
	cfg := Default()
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges and the match pattern.
func (c Config) Validate() error {
	if c.MaxDepth <= 0 {
		return fmt.Errorf("max_depth must be positive, got %d", c.MaxDepth)
	}
	if c.Jobs <= 0 {
		return fmt.Errorf("jobs must be positive, got %d", c.Jobs)
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("cache_size must be positive, got %d", c.CacheSize)
	}
	for _, d := range c.Defines {
		if name, _, _ := strings.Cut(d, "="); strings.TrimSpace(name) == "" {
			return fmt.Errorf("define %q has no name", d)
		}
	}
	for _, u := range c.Undefines {
		if strings.TrimSpace(u) == "" {
			return errors.New("undefine without a macro name")
		}
	}
	if _, err := c.Matcher(); err != nil {
		return err
	}
	return nil
}

// Matcher compiles the file name pattern.
func (c Config) Matcher() (glob.Glob, error) {
	g, err := glob.Compile(c.Match)
	if err != nil {
		return nil, fmt.Errorf("match pattern %q: %w", c.Match, err)
	}
	return g, nil
}

// Resolver builds the include resolver for the configured roots.
func (c Config) Resolver(fs afero.Fs, log *zap.Logger) (*include.FileResolver, error) {
	return include.NewFileResolver(fs, include.Options{
		Roots:      c.Roots,
		WorkDir:    c.WorkDir,
		PrefixFile: c.PrefixFile,
		CacheSize:  c.CacheSize,
		Logger:     log,
	})
}

// LexerOptions translates the configuration for one lexer.
func (c Config) LexerOptions(res include.Resolver, d diag.Listener, log *zap.Logger) lexer.Options {
	return lexer.Options{
		Preprocess:       c.Preprocess,
		PreserveNewlines: c.PreserveNewlines,
		Resolver:         res,
		Diagnostics:      d,
		Logger:           log,
		MaxDepth:         c.MaxDepth,
		Defines:          c.Defines,
		Undefines:        c.Undefines,
	}
}

// Flag names.
const (
	FlagConfig           = "config"
	FlagRoot             = "root"
	FlagWorkDir          = "workdir"
	FlagPrefixFile       = "prefix-file"
	FlagDefine           = "define"
	FlagUndefine         = "undefine"
	FlagNoPreprocess     = "no-preprocess"
	FlagPreserveNewlines = "preserve-newlines"
	FlagMaxDepth         = "max-depth"
	FlagJobs             = "jobs"
	FlagMatch            = "match"
)

// RegisterFlags adds the configuration flags to flags.
func RegisterFlags(flags *pflag.FlagSet) {
	d := Default()
	flags.String(FlagConfig, "", "Read settings from a YAML file")
	flags.StringArrayP(FlagRoot, "I", nil, "Add an include root for absolute include paths")
	flags.String(FlagWorkDir, "", "Directory relative includes resolve against (default: the file's directory)")
	flags.String(FlagPrefixFile, d.PrefixFile, "Name of the prefix file that mounts a directory")
	flags.StringArrayP(FlagDefine, "D", nil, "Define macro (NAME or NAME=VALUE)")
	flags.StringArrayP(FlagUndefine, "U", nil, "Undefine macro")
	flags.Bool(FlagNoPreprocess, false, "Skip directives and macro expansion")
	flags.Bool(FlagPreserveNewlines, false, "Keep the line structure of removed text")
	flags.Int(FlagMaxDepth, d.MaxDepth, "Maximum include and expansion nesting")
	flags.IntP(FlagJobs, "j", d.Jobs, "Files lexed in parallel")
	flags.String(FlagMatch, d.Match, "File name pattern used when walking directories")
}

// FromFlags loads the file named by --config, if any, and applies every
// flag the user set on top of it.
func FromFlags(fs afero.Fs, flags *pflag.FlagSet) (Config, error) {
	cfg := Default()
	if path, _ := flags.GetString(FlagConfig); path != "" {
		var err error
		if cfg, err = Load(fs, path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyFlags(flags); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// ApplyFlags overrides c with the flags that were set explicitly. Repeated
// flags append to values from the file.
func (c *Config) ApplyFlags(flags *pflag.FlagSet) error {
	var err error
	get := func(name string, apply func() error) {
		if err == nil && flags.Changed(name) {
			err = apply()
		}
	}
	get(FlagRoot, func() error {
		v, err := flags.GetStringArray(FlagRoot)
		c.Roots = append(c.Roots, v...)
		return err
	})
	get(FlagDefine, func() error {
		v, err := flags.GetStringArray(FlagDefine)
		c.Defines = append(c.Defines, v...)
		return err
	})
	get(FlagUndefine, func() error {
		v, err := flags.GetStringArray(FlagUndefine)
		c.Undefines = append(c.Undefines, v...)
		return err
	})
	get(FlagWorkDir, func() (err error) {
		c.WorkDir, err = flags.GetString(FlagWorkDir)
		return
	})
	get(FlagPrefixFile, func() (err error) {
		c.PrefixFile, err = flags.GetString(FlagPrefixFile)
		return
	})
	get(FlagNoPreprocess, func() error {
		v, err := flags.GetBool(FlagNoPreprocess)
		c.Preprocess = !v
		return err
	})
	get(FlagPreserveNewlines, func() (err error) {
		c.PreserveNewlines, err = flags.GetBool(FlagPreserveNewlines)
		return
	})
	get(FlagMaxDepth, func() (err error) {
		c.MaxDepth, err = flags.GetInt(FlagMaxDepth)
		return
	})
	get(FlagJobs, func() (err error) {
		c.Jobs, err = flags.GetInt(FlagJobs)
		return
	})
	get(FlagMatch, func() (err error) {
		c.Match, err = flags.GetString(FlagMatch)
		return
	})
	return err
}
