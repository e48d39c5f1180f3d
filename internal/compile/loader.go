package compile

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adeptlang/adept/internal/ast"
	"github.com/adeptlang/adept/internal/diag"
	"github.com/adeptlang/adept/internal/fstree"
)

// ParseFile is the external front-end collaborator: it turns one source
// file's bytes into a typed AST. The core never lexes raw bytes itself.
type ParseFile func(path string, src []byte) (ast.RawFile, []*diag.Report)

// LoadWorkspace walks a directory into a workspace: the filesystem tree,
// module.yaml settings at every directory that carries one, and a parsed
// file entry per Adept source. C sources and headers are inserted
// isolated from module settings.
func LoadWorkspace(root string, parse ParseFile) (*ast.Workspace, []*diag.Report) {
	tree := fstree.New()
	ws := ast.NewWorkspace(tree)
	var reports []*diag.Report

	type parsedFile struct {
		node fstree.NodeID
		raw  ast.RawFile
	}
	var files []parsedFile

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			tree.Insert(rel, fstree.KindDirectory, info.ModTime())
			return nil
		}

		switch {
		case strings.HasSuffix(rel, ".adept"):
			node := tree.Insert(rel, fstree.KindFile, info.ModTime())
			src, err := os.ReadFile(path)
			if err != nil {
				reports = append(reports, diag.New(diag.WSP001, "workspace",
					diag.Span{Path: rel}, "cannot read file: %v", err))
				return nil
			}
			if parse == nil {
				reports = append(reports, diag.New(diag.WSP001, "workspace",
					diag.Span{Path: rel}, "no front-end parser is linked into this build"))
				return nil
			}
			raw, reps := parse(rel, src)
			reports = append(reports, reps...)
			files = append(files, parsedFile{node: node, raw: raw})

		case strings.HasSuffix(rel, ".h") || strings.HasSuffix(rel, ".c"):
			node := tree.Insert(rel, fstree.KindFile, info.ModTime())
			tree.Node(node).IsolateFromModule = true

		case filepath.Base(rel) == "module.yaml":
			node := tree.Insert(rel, fstree.KindFile, info.ModTime())
			f, err := os.Open(path)
			if err != nil {
				reports = append(reports, diag.New(diag.WSP001, "workspace",
					diag.Span{Path: rel}, "cannot open settings: %v", err))
				return nil
			}
			defer f.Close()
			settings, rep := ast.LoadSettings(f, rel)
			if rep != nil {
				reports = append(reports, rep)
				return nil
			}
			ws.SetModuleRoot(tree.Node(node).Parent, settings)
		}
		return nil
	})
	if err != nil {
		reports = append(reports, diag.New(diag.WSP001, "workspace", diag.None,
			"cannot walk workspace: %v", err))
		return nil, reports
	}

	for _, pf := range files {
		ws.AddFile(pf.node, pf.raw)
	}
	ws.ComputeModules()
	resolveDependencyModules(ws)
	return ws, reports
}

// resolveDependencyModules points each settings' dependency names at the
// module roots whose directory name matches.
func resolveDependencyModules(ws *ast.Workspace) {
	byName := map[string]fstree.NodeID{}
	for root := range ws.ModuleSettings {
		if root == fstree.Root {
			continue
		}
		byName[ws.Tree.Node(root).Segment] = root
	}
	for _, s := range ws.ModuleSettings {
		for _, deps := range s.Dependencies {
			for _, dep := range deps {
				if mod, ok := byName[dep]; ok {
					s.DependencyModules[dep] = mod
				}
			}
		}
	}
}
