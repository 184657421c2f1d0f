package mods

import (
	"path/filepath"
	"strings"
	"testing"

	"requitec/common"
)

const twoProfiles = `
[module]
name = "hello"
requite-version = ">= 0.1.0"
sources = ["libc_stdio.requite", "main.requite"]

[[module.profiles]]
name = "debug"
target-triple = "x86_64-pc-linux-gnu"
pointer-width = 64
output = "build/debug"
default = true

[[module.profiles]]
name = "small"
pointer-width = 32
`

// Test decoding a project and selecting its default profile.
func TestParseProject(t *testing.T) {
	root := t.TempDir()

	proj, err := ParseProject(root, []byte(twoProfiles), "")
	if err != nil {
		t.Fatal(err)
	}

	if proj.Name != "hello" {
		t.Errorf("expected name hello, got %s", proj.Name)
	}

	if len(proj.Sources) != 2 || proj.Sources[1] != filepath.Join(root, "main.requite") {
		t.Errorf("bad sources: %v", proj.Sources)
	}

	if proj.Profile.Name != "debug" || proj.Profile.TargetTriple != "x86_64-pc-linux-gnu" {
		t.Errorf("expected the debug profile, got %+v", proj.Profile)
	}

	if proj.Profile.OutputPath != filepath.Join(root, "build", "debug") {
		t.Errorf("bad output path: %s", proj.Profile.OutputPath)
	}
}

// Test explicit profile selection.
func TestSelectProfile(t *testing.T) {
	root := t.TempDir()

	proj, err := ParseProject(root, []byte(twoProfiles), "small")
	if err != nil {
		t.Fatal(err)
	}

	if proj.Profile.PointerWidth != 32 || proj.Profile.TargetTriple != "" {
		t.Errorf("expected the small profile, got %+v", proj.Profile)
	}

	if _, err := ParseProject(root, []byte(twoProfiles), "release"); err == nil {
		t.Error("expected an error for a missing profile")
	}
}

// Test that a project without profiles builds for the host.
func TestHostProfile(t *testing.T) {
	proj, err := ParseProject(t.TempDir(), []byte("[module]\nname = \"a\"\nsources = [\"a.requite\"]\n"), "")
	if err != nil {
		t.Fatal(err)
	}

	if proj.Profile.PointerWidth != common.DefaultPointerWidth || proj.Profile.TargetTriple != "" {
		t.Errorf("expected the host profile, got %+v", proj.Profile)
	}
}

// Test project validation failures.
func TestInvalidProjects(t *testing.T) {
	cases := []struct {
		name, src, want string
	}{
		{"no name", "[module]\nsources = [\"a.requite\"]\n", "missing project name"},
		{"bad name", "[module]\nname = \"1a\"\nsources = [\"a.requite\"]\n", "valid identifier"},
		{"no sources", "[module]\nname = \"a\"\n", "at least one source"},
		{"bad extension", "[module]\nname = \"a\"\nsources = [\"a.c\"]\n", "extension"},
		{"future version", "[module]\nname = \"a\"\nrequite-version = \">= 99.0.0\"\nsources = [\"a.requite\"]\n", "requires requite"},
		{"bad constraint", "[module]\nname = \"a\"\nrequite-version = \"not a version\"\nsources = [\"a.requite\"]\n", "invalid requite-version"},
		{"bad width", "[module]\nname = \"a\"\nsources = [\"a.requite\"]\n[[module.profiles]]\nname = \"p\"\npointer-width = 12\n", "pointer width"},
		{
			"two defaults",
			"[module]\nname = \"a\"\nsources = [\"a.requite\"]\n[[module.profiles]]\nname = \"p\"\ndefault = true\n[[module.profiles]]\nname = \"q\"\ndefault = true\n",
			"multiple default",
		},
		{"no table", "name = \"a\"\n", "[module]"},
	}

	for _, c := range cases {
		_, err := ParseProject(t.TempDir(), []byte(c.src), "")
		if err == nil {
			t.Errorf("%s: expected an error", c.name)
		} else if !strings.Contains(err.Error(), c.want) {
			t.Errorf("%s: expected an error containing %q, got: %s", c.name, c.want, err)
		}
	}
}

// Test that an initialized project can be loaded again and that it is not
// overwritten.
func TestInitModule(t *testing.T) {
	dir := t.TempDir()

	if err := InitModule("hello", dir); err != nil {
		t.Fatal(err)
	}

	proj, err := LoadProject(dir, "")
	if err != nil {
		t.Fatal(err)
	}

	if proj.Name != "hello" || proj.Profile.Name != "debug" {
		t.Errorf("bad initialized project: %s with profile %s", proj.Name, proj.Profile.Name)
	}

	if err := InitModule("hello", dir); err == nil {
		t.Error("expected an error for an existing project file")
	}

	if err := InitModule("_____x", t.TempDir()); err == nil {
		t.Error("expected an error for a reserved project name")
	}
}
