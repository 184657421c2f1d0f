package mods

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"requitec/common"

	"github.com/Masterminds/semver/v3"
	"github.com/pelletier/go-toml"
)

// tomlProjectFile represents the project file as it is encoded in TOML.
type tomlProjectFile struct {
	Module *tomlProject `toml:"module"`
}

// tomlProject represents a project as it is encoded in TOML.
type tomlProject struct {
	Name           string         `toml:"name"`
	RequiteVersion string         `toml:"requite-version"`
	Sources        []string       `toml:"sources"`
	Profiles       []*tomlProfile `toml:"profiles"`
}

// tomlProfile represents a profile as it is encoded in TOML.
type tomlProfile struct {
	Name         string `toml:"name"`
	TargetTriple string `toml:"target-triple,omitempty"`
	PointerWidth int    `toml:"pointer-width"`
	OutputPath   string `toml:"output"`
	DefaultProf  bool   `toml:"default"` // in absence of a selected profile, choose this profile
}

// LoadProject loads and validates the project in the directory `path` and
// selects its build profile.  `selectedProfile` may be empty if no profile
// was selected.
func LoadProject(path, selectedProfile string) (*RequiteProject, error) {
	buff, err := os.ReadFile(filepath.Join(path, common.ModuleFileName))
	if err != nil {
		return nil, err
	}

	return ParseProject(path, buff, selectedProfile)
}

// ParseProject decodes the contents of a project file whose directory is
// `path`.
func ParseProject(path string, buff []byte, selectedProfile string) (*RequiteProject, error) {
	tpf := &tomlProjectFile{}
	if err := toml.Unmarshal(buff, tpf); err != nil {
		return nil, fmt.Errorf("error decoding project file: %s", err.Error())
	} else if tpf.Module == nil {
		return nil, errors.New("project file is missing the [module] table")
	}

	root, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	proj := &RequiteProject{
		Name:        tpf.Module.Name,
		ProjectRoot: root,
	}

	if err := validateProject(proj, tpf.Module); err != nil {
		return nil, err
	}

	for _, src := range tpf.Module.Sources {
		if !filepath.IsAbs(src) {
			src = filepath.Join(root, src)
		}

		proj.Sources = append(proj.Sources, filepath.Clean(src))
	}

	if proj.Profile, err = selectProfile(proj, tpf.Module, selectedProfile); err != nil {
		return nil, err
	}

	return proj, nil
}

// validateProject checks that the top level project contents are valid.
func validateProject(proj *RequiteProject, tp *tomlProject) error {
	if tp.Name == "" {
		return fmt.Errorf("missing project name for project at %s", proj.ProjectRoot)
	}

	if !IsValidIdentifier(tp.Name) {
		return errors.New("project name must be a valid identifier")
	}

	if len(tp.Sources) == 0 {
		return fmt.Errorf("project `%s` must list at least one source file", tp.Name)
	}

	for _, src := range tp.Sources {
		if filepath.Ext(src) != common.SrcFileExt {
			return fmt.Errorf("source file `%s` of project `%s` must have the extension %s", src, tp.Name, common.SrcFileExt)
		}
	}

	return checkVersion(tp)
}

// checkVersion checks the compiler version against the version constraint of
// the project.  Projects without a constraint build with any version.
func checkVersion(tp *tomlProject) error {
	if tp.RequiteVersion == "" {
		return nil
	}

	constraint, err := semver.NewConstraint(tp.RequiteVersion)
	if err != nil {
		return fmt.Errorf("invalid requite-version `%s` in project `%s`: %s", tp.RequiteVersion, tp.Name, err.Error())
	}

	version := semver.MustParse(common.Version)
	if ok, errs := constraint.Validate(version); !ok {
		reason := ""
		if len(errs) > 0 {
			reason = ": " + errs[0].Error()
		}

		return fmt.Errorf("project `%s` requires requite %s but this is v%s%s", tp.Name, tp.RequiteVersion, common.Version, reason)
	}

	return nil
}

// selectProfile selects the build profile: the profile named by
// `selectedProfile` if it is given, otherwise the default profile, otherwise
// the only profile.  Projects without profiles build for the host.
func selectProfile(proj *RequiteProject, tp *tomlProject, selectedProfile string) (*BuildProfile, error) {
	if selectedProfile != "" {
		for _, prof := range tp.Profiles {
			if prof.Name == selectedProfile {
				return convertProfile(proj, prof)
			}
		}

		return nil, fmt.Errorf("project `%s` has no profile `%s`", tp.Name, selectedProfile)
	}

	switch len(tp.Profiles) {
	case 0:
		return HostProfile(proj.ProjectRoot), nil
	case 1:
		return convertProfile(proj, tp.Profiles[0])
	}

	var defaultProf *tomlProfile
	for _, prof := range tp.Profiles {
		if prof.DefaultProf {
			if defaultProf != nil {
				return nil, fmt.Errorf("project `%s` has multiple default profiles", tp.Name)
			}

			defaultProf = prof
		}
	}

	if defaultProf == nil {
		return nil, fmt.Errorf("project `%s` does not specify a default profile; `--profile` argument is required", tp.Name)
	}

	return convertProfile(proj, defaultProf)
}

// convertProfile validates a TOML profile and converts it into a build
// profile.
func convertProfile(proj *RequiteProject, prof *tomlProfile) (*BuildProfile, error) {
	if prof.Name == "" {
		return nil, fmt.Errorf("profile of project `%s` is missing a name", proj.Name)
	}

	bp := &BuildProfile{
		Name:         prof.Name,
		TargetTriple: prof.TargetTriple,
		PointerWidth: prof.PointerWidth,
		OutputPath:   prof.OutputPath,
	}

	switch bp.PointerWidth {
	case 0:
		bp.PointerWidth = common.DefaultPointerWidth
	case 16, 32, 64:
	default:
		return nil, fmt.Errorf("profile `%s` has an invalid pointer width: %d", prof.Name, prof.PointerWidth)
	}

	if bp.OutputPath == "" {
		bp.OutputPath = filepath.Join(proj.ProjectRoot, "out", prof.Name)
	} else if !filepath.IsAbs(bp.OutputPath) {
		bp.OutputPath = filepath.Join(proj.ProjectRoot, bp.OutputPath)
	}

	return bp, nil
}
