package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/raymyers/ralph-sqf/pkg/diag"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Preprocess)
	assert.Equal(t, "*.sqf", cfg.Match)
	assert.Positive(t, cfg.Jobs)
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/ralph-sqf.yaml", []byte(`
roots: [/game, /p]
workdir: /mission
defines: [DEBUG, "LIMIT=5"]
preserve_newlines: true
max_depth: 50
jobs: 2
match: "*.{sqf,hpp}"
`), 0o644))

	cfg, err := Load(fs, "/ralph-sqf.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"/game", "/p"}, cfg.Roots)
	assert.Equal(t, "/mission", cfg.WorkDir)
	assert.Equal(t, []string{"DEBUG", "LIMIT=5"}, cfg.Defines)
	assert.True(t, cfg.PreserveNewlines)
	assert.True(t, cfg.Preprocess, "unset keys keep their defaults")
	assert.Equal(t, 50, cfg.MaxDepth)
	assert.Equal(t, 2, cfg.Jobs)

	g, err := cfg.Matcher()
	require.NoError(t, err)
	assert.True(t, g.Match("init.hpp"))
	assert.False(t, g.Match("init.txt"))
}

func TestLoadErrors(t *testing.T) {
	tests := map[string]string{
		"unknown key":    "colour: red\n",
		"bad depth":      "max_depth: 0\n",
		"bad jobs":       "jobs: -1\n",
		"bad pattern":    "match: \"[\"\n",
		"unnamed define": "defines: [\"=1\"]\n",
		"blank undefine": "undefines: [\" \"]\n",
		"not yaml":       "roots: [\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "/c.yaml", []byte(content), 0o644))
			_, err := Load(fs, "/c.yaml")
			assert.Error(t, err)
		})
	}

	_, err := Load(afero.NewMemMapFs(), "/missing.yaml")
	assert.Error(t, err)
}

func TestEmptyFileKeepsDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/c.yaml", nil, 0o644))
	cfg, err := Load(fs, "/c.yaml")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestFromFlags(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/c.yaml", []byte("defines: [A]\njobs: 3\n"), 0o644))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	require.NoError(t, flags.Parse([]string{
		"--config", "/c.yaml", "-D", "B=1", "-U", "A", "-I", "/game", "--no-preprocess", "-j", "4",
	}))

	cfg, err := FromFlags(fs, flags)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B=1"}, cfg.Defines)
	assert.Equal(t, []string{"A"}, cfg.Undefines)
	assert.Equal(t, []string{"/game"}, cfg.Roots)
	assert.False(t, cfg.Preprocess)
	assert.Equal(t, 4, cfg.Jobs)
	assert.Equal(t, "*.sqf", cfg.Match)
}

func TestFromFlagsValidates(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	require.NoError(t, flags.Parse([]string{"--max-depth", "0"}))
	_, err := FromFlags(afero.NewMemMapFs(), flags)
	assert.Error(t, err)
}

func TestLexerOptions(t *testing.T) {
	cfg := Default()
	cfg.Defines = []string{"X=1"}
	cfg.Undefines = []string{"__LINE__"}
	cfg.WorkDir = "/mission"
	res, err := cfg.Resolver(afero.NewMemMapFs(), zap.NewNop())
	require.NoError(t, err)

	var c diag.Collector
	opts := cfg.LexerOptions(res, &c, nil)
	assert.True(t, opts.Preprocess)
	assert.Equal(t, cfg.MaxDepth, opts.MaxDepth)
	assert.Equal(t, []string{"X=1"}, opts.Defines)
	assert.Equal(t, []string{"__LINE__"}, opts.Undefines)
	assert.Same(t, res, opts.Resolver)
}
