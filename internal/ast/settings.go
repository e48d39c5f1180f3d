package ast

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/adeptlang/adept/internal/diag"
	"github.com/adeptlang/adept/internal/fstree"
)

// Settings is the per-module configuration, declared in module.yaml or
// populated by a build-script pragma.
type Settings struct {
	// Dependencies maps a namespace to the dependency names imported
	// under it.
	Dependencies map[string][]string `yaml:"dependencies"`

	Version string `yaml:"version"`

	// Imports lists namespaces whose public declarations extend this
	// module's scope.
	Imports []string `yaml:"imports"`

	IntAtLeast32Bits bool `yaml:"int_at_least_32_bits"`

	// DependencyModules maps a dependency name to the module root that
	// provides it. Filled during workspace assembly, not from YAML.
	DependencyModules map[string]fstree.NodeID `yaml:"-"`
}

// DefaultSettings applies at the workspace root when no settings file is
// present.
func DefaultSettings() *Settings {
	return &Settings{
		Dependencies:      map[string][]string{},
		DependencyModules: map[string]fstree.NodeID{},
		IntAtLeast32Bits:  true,
	}
}

// LoadSettings decodes a module.yaml stream.
func LoadSettings(r io.Reader, path string) (*Settings, *diag.Report) {
	s := DefaultSettings()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(s); err != nil && err != io.EOF {
		return nil, diag.New(diag.WSP001, "workspace", diag.Span{Path: path},
			"cannot decode settings: %v", err)
	}
	if s.Dependencies == nil {
		s.Dependencies = map[string][]string{}
	}
	if s.DependencyModules == nil {
		s.DependencyModules = map[string]fstree.NodeID{}
	}
	return s, nil
}

// ImportedModules resolves the module roots visible under each imported
// namespace. Unknown dependency names produce WSP002.
func (s *Settings) ImportedModules() (map[string][]fstree.NodeID, *diag.Report) {
	out := map[string][]fstree.NodeID{}
	for _, ns := range s.Imports {
		deps, ok := s.Dependencies[ns]
		if !ok {
			return nil, diag.New(diag.WSP002, "workspace", diag.None,
				"namespace %q imports no known dependency", ns)
		}
		for _, dep := range deps {
			mod, ok := s.DependencyModules[dep]
			if !ok {
				return nil, diag.New(diag.WSP002, "workspace", diag.None,
					"dependency %q is not provided by any module", dep)
			}
			out[ns] = append(out[ns], mod)
		}
	}
	return out, nil
}

func (s *Settings) String() string {
	return fmt.Sprintf("Settings{version=%s imports=%v}", s.Version, s.Imports)
}
