package scope

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adeptlang/adept/internal/ast"
	"github.com/adeptlang/adept/internal/diag"
	"github.com/adeptlang/adept/internal/fstree"
)

// fixture builds two library modules and an application module importing
// both under the "lib" namespace.
type fixture struct {
	ws      *ast.Workspace
	scopes  map[fstree.NodeID]*DeclScope
	app     fstree.NodeID
	liba    fstree.NodeID
	libb    fstree.NodeID
	appFile fstree.NodeID
	outside fstree.NodeID
}

func build(t *testing.T, appRaw, libaRaw, libbRaw ast.RawFile) *fixture {
	t.Helper()
	now := time.Now()
	tree := fstree.New()
	ws := ast.NewWorkspace(tree)

	app := tree.Insert("app", fstree.KindDirectory, now)
	liba := tree.Insert("liba", fstree.KindDirectory, now)
	libb := tree.Insert("libb", fstree.KindDirectory, now)
	appFile := tree.Insert("app/main.adept", fstree.KindFile, now)
	libaFile := tree.Insert("liba/lib.adept", fstree.KindFile, now)
	libbFile := tree.Insert("libb/lib.adept", fstree.KindFile, now)
	outside := tree.Insert("other/stray.adept", fstree.KindFile, now)

	appSettings := ast.DefaultSettings()
	appSettings.Dependencies["lib"] = []string{"liba", "libb"}
	appSettings.Imports = []string{"lib"}
	appSettings.DependencyModules["liba"] = liba
	appSettings.DependencyModules["libb"] = libb

	ws.SetModuleRoot(app, appSettings)
	ws.SetModuleRoot(liba, ast.DefaultSettings())
	ws.SetModuleRoot(libb, ast.DefaultSettings())

	ws.AddFile(appFile, appRaw)
	ws.AddFile(libaFile, libaRaw)
	ws.AddFile(libbFile, libbRaw)
	ws.ComputeModules()

	scopes, reports := Build(ws)
	require.Empty(t, reports)
	return &fixture{
		ws: ws, scopes: scopes,
		app: app, liba: liba, libb: libb,
		appFile: appFile, outside: outside,
	}
}

func structDecl(name string, privacy ast.Privacy) ast.Struct {
	return ast.Struct{Name: name, Privacy: privacy, Span: diag.Span{Path: name}}
}

func TestPrivateVisibility(t *testing.T) {
	f := build(t,
		ast.RawFile{Structs: []ast.Struct{structDecl("Secret", ast.Private)}},
		ast.RawFile{}, ast.RawFile{})

	q := Search{Name: "Secret", Category: CategoryType, Arity: 0, From: f.appFile}
	head, rep := f.scopes[f.app].FindSymbol(q)
	require.Nil(t, rep)
	assert.Equal(t, "Secret", head.Name)

	q.From = f.outside
	_, rep = f.scopes[f.app].FindSymbol(q)
	require.NotNil(t, rep)
	assert.Equal(t, diag.SCP001, rep.Code)
}

func TestAmbiguityAcrossImports(t *testing.T) {
	f := build(t,
		ast.RawFile{},
		ast.RawFile{Structs: []ast.Struct{structDecl("Foo", ast.Public)}},
		ast.RawFile{Structs: []ast.Struct{structDecl("Foo", ast.Public)}})

	q := Search{Name: "Foo", Category: CategoryType, Arity: 0, From: f.appFile}
	_, rep := f.scopes[f.app].FindSymbol(q)
	require.NotNil(t, rep)
	assert.Equal(t, diag.SCP002, rep.Code)
}

func TestLocalShadowsImports(t *testing.T) {
	f := build(t,
		ast.RawFile{Structs: []ast.Struct{structDecl("Foo", ast.Public)}},
		ast.RawFile{Structs: []ast.Struct{structDecl("Foo", ast.Public)}},
		ast.RawFile{Structs: []ast.Struct{structDecl("Foo", ast.Public)}})

	q := Search{Name: "Foo", Category: CategoryType, Arity: 0, From: f.appFile}
	head, rep := f.scopes[f.app].FindSymbol(q)
	require.Nil(t, rep)
	assert.Equal(t, f.app, head.Module, "local declaration shadows imports")
}

func TestPrivateImportsInvisible(t *testing.T) {
	f := build(t,
		ast.RawFile{},
		ast.RawFile{Structs: []ast.Struct{structDecl("Hidden", ast.Private)}},
		ast.RawFile{})

	q := Search{Name: "Hidden", Category: CategoryType, Arity: 0, From: f.appFile}
	_, rep := f.scopes[f.app].FindSymbol(q)
	require.NotNil(t, rep)
	assert.Equal(t, diag.SCP001, rep.Code)
}

func TestArityDisambiguates(t *testing.T) {
	f := build(t,
		ast.RawFile{Structs: []ast.Struct{
			{Name: "Box", Privacy: ast.Public},
			{Name: "Box", TypeParams: []string{"T"}, Privacy: ast.Public},
		}},
		ast.RawFile{}, ast.RawFile{})

	q := Search{Name: "Box", Category: CategoryType, Arity: 1, From: f.appFile}
	head, rep := f.scopes[f.app].FindSymbol(q)
	require.Nil(t, rep)
	assert.Equal(t, 1, head.Arity)
}

func TestNamespacedLookup(t *testing.T) {
	f := build(t,
		ast.RawFile{},
		ast.RawFile{Structs: []ast.Struct{structDecl("Widget", ast.Public)}},
		ast.RawFile{})

	q := Search{Namespace: []string{"lib"}, Name: "Widget", Category: CategoryType, Arity: 0, From: f.appFile}
	head, rep := f.scopes[f.app].FindSymbol(q)
	require.Nil(t, rep)
	assert.Equal(t, f.liba, head.Module)
}

func TestSameModuleDuplicateReported(t *testing.T) {
	now := time.Now()
	tree := fstree.New()
	ws := ast.NewWorkspace(tree)
	file := tree.Insert("src/a.adept", fstree.KindFile, now)
	ws.AddFile(file, ast.RawFile{Structs: []ast.Struct{
		structDecl("Twice", ast.Public),
		structDecl("Twice", ast.Public),
	}})
	ws.ComputeModules()

	_, reports := Build(ws)
	require.Len(t, reports, 1)
	assert.Equal(t, diag.SCP003, reports[0].Code)
}

func TestFunctionOverloadsCoexist(t *testing.T) {
	f := build(t,
		ast.RawFile{Funcs: []ast.Func{
			{Name: "get", Privacy: ast.Public},
			{Name: "get", Params: []ast.Param{{Name: "i", Type: ast.TypePrimitive{Prim: ast.PrimI32}}}, Privacy: ast.Public},
		}},
		ast.RawFile{}, ast.RawFile{})

	heads := f.scopes[f.app].FindFuncs(Search{Name: "get", From: f.appFile})
	assert.Len(t, heads, 2)
}
