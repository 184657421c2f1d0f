package cmd

import (
	"os"

	"requitec/depm"

	"gopkg.in/yaml.v3"
)

// Schedule is the manifest of the module order of a binary.  A scheduler may
// start compiling a module once the module at its last blocking index has
// been compiled.
type Schedule struct {
	Project string          `yaml:"project"`
	Modules []ScheduleEntry `yaml:"modules"`
}

// ScheduleEntry is the entry of one module in a schedule.
type ScheduleEntry struct {
	Name         string   `yaml:"name"`
	Path         string   `yaml:"path"`
	Order        int      `yaml:"order"`
	LastBlocking int      `yaml:"last-blocking"`
	Imports      []string `yaml:"imports,omitempty"`
}

// NewSchedule builds the schedule of an ordered binary.
func NewSchedule(project string, bin *depm.Binary) *Schedule {
	s := &Schedule{Project: project}

	for _, m := range bin.OrderedModules() {
		entry := ScheduleEntry{
			Name:         m.Name,
			Path:         m.Path,
			Order:        m.ModuleI,
			LastBlocking: m.LastBlockingModuleI,
		}

		for _, id := range m.Imports {
			entry.Imports = append(entry.Imports, bin.Module(id).Name)
		}

		s.Modules = append(s.Modules, entry)
	}

	return s
}

// Marshal encodes the schedule as YAML.
func (s *Schedule) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// WriteFile writes the schedule to a file.  An empty path writes it to
// standard out.
func (s *Schedule) WriteFile(path string) error {
	buff, err := s.Marshal()
	if err != nil {
		return err
	}

	if path == "" {
		_, err = os.Stdout.Write(buff)
		return err
	}

	return os.WriteFile(path, buff, 0o644)
}
