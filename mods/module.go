package mods

import (
	"path/filepath"
	"strings"

	"requitec/common"
)

// RequiteProject is the configuration of a project: a named set of source
// files compiled together into one binary.
type RequiteProject struct {
	// Name is the name of the project.
	Name string

	// ProjectRoot is the path to the directory containing the project file.
	ProjectRoot string

	// Sources is the list of absolute paths to the source files of the
	// project in the order they are listed.
	Sources []string

	// Profile is the build profile selected for this build.
	Profile *BuildProfile
}

// BuildProfile is the profile the compiler uses to build a project: the
// target and the place the output is written.
type BuildProfile struct {
	// Name is the name of the profile.  It is empty for the host profile.
	Name string

	// TargetTriple is the LLVM target triple.  It is empty for the host.
	TargetTriple string

	// PointerWidth is the pointer width of the target in bits.
	PointerWidth int

	// OutputPath is the directory emitted files are written to.
	OutputPath string
}

// HostProfile returns the profile used when no profile is given: the host
// target with the default pointer width.
func HostProfile(root string) *BuildProfile {
	return &BuildProfile{
		PointerWidth: common.DefaultPointerWidth,
		OutputPath:   filepath.Join(root, "out"),
	}
}

// NewLooseProject creates a project for source files given directly on the
// command line rather than through a project file.
func NewLooseProject(paths []string) (*RequiteProject, error) {
	proj := &RequiteProject{Name: "main"}

	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}

		proj.Sources = append(proj.Sources, abs)
	}

	if len(proj.Sources) > 0 {
		proj.ProjectRoot = filepath.Dir(proj.Sources[0])
	}

	proj.Profile = HostProfile(proj.ProjectRoot)
	return proj, nil
}

// IsValidIdentifier returns whether or not a given string would be a valid
// identifier (project name, module name, etc.)
func IsValidIdentifier(idstr string) bool {
	if idstr == "" || strings.HasPrefix(idstr, common.ReservedPrefix) {
		return false
	}

	if idstr[0] == '_' || ('a' <= idstr[0] && idstr[0] <= 'z') || ('A' <= idstr[0] && idstr[0] <= 'Z') {
		for _, c := range idstr[1:] {
			if c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') {
				continue
			}

			return false
		}

		return true
	}

	return false
}
