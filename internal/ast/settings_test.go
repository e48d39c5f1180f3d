package ast

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adeptlang/adept/internal/fstree"
)

func TestLoadSettings(t *testing.T) {
	src := `
dependencies:
  math: [bignum]
  io: [fs, net]
version: "3.0"
imports: [math]
int_at_least_32_bits: true
`
	s, rep := LoadSettings(strings.NewReader(src), "module.yaml")
	require.Nil(t, rep)
	assert.Equal(t, "3.0", s.Version)
	assert.Equal(t, []string{"bignum"}, s.Dependencies["math"])
	assert.Equal(t, []string{"fs", "net"}, s.Dependencies["io"])
	assert.Equal(t, []string{"math"}, s.Imports)
	assert.True(t, s.IntAtLeast32Bits)
}

func TestLoadSettingsMalformed(t *testing.T) {
	_, rep := LoadSettings(strings.NewReader("dependencies: ["), "module.yaml")
	require.NotNil(t, rep)
	assert.Equal(t, "WSP001", rep.Code)
}

func TestSettingsInheritanceBFS(t *testing.T) {
	now := time.Now()
	tree := fstree.New()
	ws := NewWorkspace(tree)

	sub := tree.Insert("app/sub", fstree.KindDirectory, now)
	deep := tree.Insert("app/sub/deep/file.adept", fstree.KindFile, now)
	top := tree.Insert("app/top.adept", fstree.KindFile, now)
	stray := tree.Insert("elsewhere/file.adept", fstree.KindFile, now)
	app, _ := tree.Lookup("app")

	appSettings := DefaultSettings()
	appSettings.Version = "app"
	subSettings := DefaultSettings()
	subSettings.Version = "sub"
	ws.SetModuleRoot(app, appSettings)
	ws.SetModuleRoot(sub, subSettings)
	ws.ComputeModules()

	assert.Equal(t, app, ws.ModuleOf(top), "file inherits nearest ancestor module")
	assert.Equal(t, sub, ws.ModuleOf(deep), "nested module root wins over outer")
	assert.Equal(t, fstree.Root, ws.ModuleOf(stray), "default settings at the root")
	assert.Equal(t, "sub", ws.SettingsOf(deep).Version)
}

func TestIsolatedFilesKeepRootSettings(t *testing.T) {
	now := time.Now()
	tree := fstree.New()
	ws := NewWorkspace(tree)

	header := tree.Insert("app/vendor.h", fstree.KindFile, now)
	tree.Node(header).IsolateFromModule = true
	app, _ := tree.Lookup("app")
	ws.SetModuleRoot(app, DefaultSettings())
	ws.ComputeModules()

	assert.Equal(t, fstree.Root, ws.ModuleOf(header),
		"C headers never inherit module settings")
}

func TestImportedModulesUnknownDependency(t *testing.T) {
	s := DefaultSettings()
	s.Imports = []string{"ghost"}
	_, rep := s.ImportedModules()
	require.NotNil(t, rep)
	assert.Equal(t, "WSP002", rep.Code)
}
