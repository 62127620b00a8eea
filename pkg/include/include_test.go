package include

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, fs afero.Fs, name, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, filepath.FromSlash(name), []byte(content), 0o644))
}

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func newTestResolver(t *testing.T, fs afero.Fs) *FileResolver {
	t.Helper()
	r, err := NewFileResolver(fs, Options{
		Roots:   []string{filepath.FromSlash("/p"), filepath.FromSlash("/game")},
		WorkDir: filepath.FromSlash("/mission"),
	})
	require.NoError(t, err)
	return r
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		arg  string
		path string
		kind Kind
		err  bool
	}{
		{arg: `"script_component.hpp"`, path: "script_component.hpp", kind: Quoted},
		{arg: ` <\x\cba\main.hpp> `, path: `\x\cba\main.hpp`, kind: Angled},
		{arg: `""`, err: true},
		{arg: `"open`, err: true},
		{arg: `file.hpp`, err: true},
		{arg: ``, err: true},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			path, kind, err := ParseTarget(tt.arg)
			if tt.err {
				assert.ErrorIs(t, err, ErrInvalidPath)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.path, path)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestSplit(t *testing.T) {
	parts, abs, err := Split(`\x\cba\.\main.hpp`)
	require.NoError(t, err)
	assert.True(t, abs)
	assert.Equal(t, []string{"x", "cba", "main.hpp"}, parts)

	parts, abs, err = Split(`..\common\defs.hpp`)
	require.NoError(t, err)
	assert.False(t, abs)
	assert.Equal(t, []string{"..", "common", "defs.hpp"}, parts)

	for _, bad := range []string{"", `\`, "a/b.hpp", `a\\b`, `C:\x.hpp`, "a\tb"} {
		_, _, err := Split(bad)
		assert.ErrorIs(t, err, ErrInvalidPath, bad)
	}
}

func TestResolveRelative(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/mission/script_component.hpp", "#define COMPONENT main")
	writeFile(t, fs, "/common/defs.hpp", "#define X 1")
	r := newTestResolver(t, fs)

	rc, err := r.Resolve("script_component.hpp")
	require.NoError(t, err)
	assert.Equal(t, "#define COMPONENT main", readAll(t, rc))

	rc, err = r.Resolve(`..\common\defs.hpp`)
	require.NoError(t, err)
	assert.Equal(t, "#define X 1", readAll(t, rc))
}

func TestResolveAbsoluteRootPriority(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/game/a3/ui_f/hpp/defineDIKCodes.inc", "game")
	writeFile(t, fs, "/p/a3/ui_f/hpp/defineDIKCodes.inc", "override")
	writeFile(t, fs, "/game/a3/only.inc", "only in game")
	r := newTestResolver(t, fs)

	rc, err := r.Resolve(`\a3\ui_f\hpp\defineDIKCodes.inc`)
	require.NoError(t, err)
	assert.Equal(t, "override", readAll(t, rc))

	rc, err = r.Resolve(`\a3\only.inc`)
	require.NoError(t, err)
	assert.Equal(t, "only in game", readAll(t, rc))
}

func TestResolvePrefixFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/p/cba_src/addons/main/$PBOPREFIX$", "x\\cba\\addons\\main\n")
	writeFile(t, fs, "/p/cba_src/addons/main/script_macros.hpp", "#define PREFIX cba")
	r := newTestResolver(t, fs)

	name, err := r.Locate(`\x\cba\addons\main\script_macros.hpp`)
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/p/cba_src/addons/main/script_macros.hpp"), name)

	rc, err := r.Resolve(`\X\CBA\addons\main\script_macros.hpp`)
	require.NoError(t, err)
	assert.Equal(t, "#define PREFIX cba", readAll(t, rc))
}

func TestResolveErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/mission/dir/file.hpp", "")
	r := newTestResolver(t, fs)

	tests := []struct {
		path string
		want error
	}{
		{path: "missing.hpp", want: ErrNotFound},
		{path: `\nowhere\missing.hpp`, want: ErrNotFound},
		{path: "dir", want: ErrNotFound},
		{path: `\addons\main.pbo\config.cpp`, want: ErrUnsupported},
		{path: "a/b.hpp", want: ErrInvalidPath},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, err := r.Resolve(tt.path)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			var ie *Error
			require.True(t, errors.As(err, &ie))
			assert.Equal(t, tt.path, ie.Path)
		})
	}
}

func TestResolveCachesContent(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/mission/a.hpp", "first")
	r := newTestResolver(t, fs)

	rc, err := r.Resolve("a.hpp")
	require.NoError(t, err)
	assert.Equal(t, "first", readAll(t, rc))

	writeFile(t, fs, "/mission/a.hpp", "second")
	rc, err = r.Resolve("a.hpp")
	require.NoError(t, err)
	assert.Equal(t, "first", readAll(t, rc))

	r.Purge()
	rc, err = r.Resolve("a.hpp")
	require.NoError(t, err)
	assert.Equal(t, "second", readAll(t, rc))
}

func TestCycleError(t *testing.T) {
	err := &CycleError{Path: "a.hpp", Stack: []string{"main.sqf", "a.hpp"}}
	assert.Contains(t, err.Error(), "circular include detected: a.hpp")
	assert.Contains(t, err.Error(), "    a.hpp")
}
