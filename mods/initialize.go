package mods

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"requitec/common"

	"github.com/pelletier/go-toml"
)

// InitModule creates a new project file with the given project name in the
// directory `path`.
func InitModule(name, path string) error {
	// convert the project directory to the path to project file
	modFilePath := filepath.Join(path, common.ModuleFileName)

	// check to see if a project already exists
	_, err := os.Stat(modFilePath)
	if err == nil {
		return errors.New("project file already exists")
	}

	if !os.IsNotExist(err) {
		return fmt.Errorf("project file error: %s", err.Error())
	}

	if !IsValidIdentifier(name) {
		return errors.New("project name must be a valid identifier")
	}

	proj := &tomlProject{
		Name:           name,
		RequiteVersion: ">= " + common.Version,
		Sources:        []string{name + common.SrcFileExt},
		Profiles:       []*tomlProfile{newInitProfile("debug", true), newInitProfile("release", false)},
	}

	f, err := os.Create(modFilePath)
	if err != nil {
		return fmt.Errorf("error creating project file: %s", err.Error())
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(&tomlProjectFile{Module: proj}); err != nil {
		return fmt.Errorf("error encoding TOML %s", err.Error())
	}

	return nil
}

// newInitProfile creates a new initial profile for the host.
func newInitProfile(name string, isDefault bool) *tomlProfile {
	prof := &tomlProfile{
		Name:         name,
		PointerWidth: common.DefaultPointerWidth,
		OutputPath:   filepath.Join("out", name),
		DefaultProf:  isDefault,
	}

	switch runtime.GOARCH {
	case "386", "arm", "mips", "mipsle":
		prof.PointerWidth = 32
	}

	return prof
}
