package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// withFiles points the commands at an in-memory filesystem.
func withFiles(t *testing.T, files map[string]string) {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		if err := afero.WriteFile(fs, name, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	old := appFs
	appFs = fs
	t.Cleanup(func() { appFs = old })
}

func execute(args ...string) (string, string, error) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestVersion(t *testing.T) {
	if version == "" {
		t.Error("version should not be empty")
	}
}

func TestSubcommandsExist(t *testing.T) {
	cmd := newRootCmd(&bytes.Buffer{}, &bytes.Buffer{})
	for _, name := range []string{"tokens", "preprocess", "macros"} {
		sub, _, err := cmd.Find([]string{name})
		if err != nil || sub.Name() != name {
			t.Errorf("expected subcommand %s, got %v (%v)", name, sub, err)
		}
	}
	for _, flag := range []string{"config", "root", "define", "undefine", "no-preprocess", "preserve-newlines", "jobs", "match", "verbose"} {
		if cmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("expected flag --%s to exist", flag)
		}
	}
}

func TestTokensText(t *testing.T) {
	withFiles(t, map[string]string{"/m/init.sqf": "a = 1;"})
	out, errOut, err := execute("tokens", "/m/init.sqf")
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, errOut)
	}
	for _, want := range []string{"/m/init.sqf:", "GlobalVariable", `"a"`, "NumberLiteral", "1 files, 4 tokens"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Whitespace") {
		t.Errorf("whitespace should be hidden without --all:\n%s", out)
	}
}

func TestTokensYAML(t *testing.T) {
	withFiles(t, map[string]string{
		"/m/init.sqf":    "#include \"defs.hpp\"\nx = LIMIT;",
		"/m/defs.hpp":    "#define LIMIT 10\n",
		"/m/sub/fn.sqf":  "_y = x;",
		"/m/readme.txt":  "not sqf",
		"/m/sub/fn2.sqf": "",
	})
	out, errOut, err := execute("tokens", "--format", "yaml", "/m")
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, errOut)
	}
	var files []map[string]any
	if err := yaml.Unmarshal([]byte(out), &files); err != nil {
		t.Fatalf("invalid yaml: %v\n%s", err, out)
	}
	if len(files) != 3 {
		t.Fatalf("expected 3 files, got %d:\n%s", len(files), out)
	}
	if files[0]["file"] != "/m/init.sqf" {
		t.Errorf("expected files in walk order, got %v", files[0]["file"])
	}
	if !strings.Contains(out, "text: \"10\"") {
		t.Errorf("expected expanded macro in output:\n%s", out)
	}
}

func TestTokensAll(t *testing.T) {
	withFiles(t, map[string]string{"/m/a.sqf": "a // c\n"})
	out, _, err := execute("tokens", "--all", "/m/a.sqf")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Whitespace") || !strings.Contains(out, "Comment") {
		t.Errorf("expected whitespace and comments with --all:\n%s", out)
	}
}

func TestTokensUnknownFormat(t *testing.T) {
	withFiles(t, map[string]string{"/m/a.sqf": "a"})
	_, _, err := execute("tokens", "--format", "json", "/m/a.sqf")
	if err == nil || !strings.Contains(err.Error(), "json") {
		t.Errorf("expected unknown format error, got %v", err)
	}
}

func TestPreprocess(t *testing.T) {
	withFiles(t, map[string]string{"/m/a.sqf": "#define X 1\nhint str X; // done"})
	out, _, err := execute("preprocess", "/m/a.sqf")
	if err != nil {
		t.Fatal(err)
	}
	if out != "\nhint str 1; " {
		t.Errorf("unexpected output %q", out)
	}

	out, _, err = execute("preprocess", "--keep-comments", "-D", "X=2", "/m/a.sqf")
	if err != nil {
		t.Fatal(err)
	}
	if out != "\nhint str 1; // done" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestUndefine(t *testing.T) {
	withFiles(t, map[string]string{"/m/a.sqf": "#ifdef DEBUG\nd\n#endif\nLIMIT"})
	out, _, err := execute("preprocess", "-D", "DEBUG", "-D", "LIMIT=3", "-U", "DEBUG", "/m/a.sqf")
	if err != nil {
		t.Fatal(err)
	}
	if out != "\n3" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestMacros(t *testing.T) {
	withFiles(t, map[string]string{"/m/a.sqf": "#define ADD(a,b) a + b\n#define EMPTY\n"})
	out, _, err := execute("macros", "/m/a.sqf")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"#define ADD(a,b) a + b", "#define EMPTY", "__LINE__"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in:\n%s", want, out)
		}
	}
}

func TestProblemsSetExitStatus(t *testing.T) {
	withFiles(t, map[string]string{
		"/m/bad.sqf":  "#include \"missing.hpp\"\n",
		"/m/warn.sqf": "#undef NOPE\n",
	})

	_, errOut, err := execute("tokens", "/m/bad.sqf")
	if !errors.Is(err, errProblems) {
		t.Errorf("expected errProblems, got %v", err)
	}
	if !strings.Contains(errOut, "ralph-sqf: /m/bad.sqf:1: error:") || !strings.Contains(errOut, "[invalid-include-path]") {
		t.Errorf("unexpected diagnostics:\n%s", errOut)
	}

	_, errOut, err = execute("tokens", "/m/warn.sqf")
	if err != nil {
		t.Errorf("warnings should not fail the run: %v", err)
	}
	if !strings.Contains(errOut, "warning") {
		t.Errorf("expected a warning, got:\n%s", errOut)
	}
}

func TestConfigFile(t *testing.T) {
	withFiles(t, map[string]string{
		"/cfg.yaml": "defines: [\"LIMIT=7\"]\npreserve_newlines: true\n",
		"/m/a.sqf":  "#ifdef NOPE\nx\n#endif\nLIMIT",
	})
	out, _, err := execute("preprocess", "--config", "/cfg.yaml", "/m/a.sqf")
	if err != nil {
		t.Fatal(err)
	}
	if out != "\n\n\n7" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestMissingFile(t *testing.T) {
	withFiles(t, nil)
	if _, _, err := execute("tokens", "/nope.sqf"); err == nil {
		t.Error("expected an error for a missing file")
	}
}
