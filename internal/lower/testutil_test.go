package lower

import (
	"testing"
	"time"

	"github.com/adeptlang/adept/internal/ast"
	"github.com/adeptlang/adept/internal/fstree"
)

func pragmaWorkspace(t *testing.T, pragmas ...ast.Pragma) *ast.Workspace {
	t.Helper()
	tree := fstree.New()
	ws := ast.NewWorkspace(tree)
	file := tree.Insert("src/main.adept", fstree.KindFile, time.Now())
	ws.AddFile(file, ast.RawFile{Pragmas: pragmas})
	ws.ComputeModules()
	return ws
}

func testWorkspace(t *testing.T) *ast.Workspace {
	t.Helper()
	return pragmaWorkspace(t,
		ast.Pragma{Expr: ast.Call{Name: "project", Args: []ast.Expr{
			ast.StringLit{Value: "app"},
			ast.NameExpr{Name: "ConsoleApp"},
		}}},
		ast.Pragma{Expr: ast.Call{Name: "linkFilename", Args: []ast.Expr{
			ast.StringLit{Value: "libm.a"},
		}}},
	)
}
