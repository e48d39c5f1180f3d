package ast

import (
	"github.com/adeptlang/adept/internal/arena"
	"github.com/adeptlang/adept/internal/fstree"
)

// File is the per-file view into the workspace arenas: index spans only,
// never owned declarations.
type File struct {
	Node fstree.NodeID

	Funcs      []arena.Idx[Func]
	Structs    []arena.Idx[Struct]
	Enums      []arena.Idx[Enum]
	Globals    []arena.Idx[Global]
	TypeAliases []arena.Idx[TypeAlias]
	ExprAliases []arena.Idx[ExprAlias]
	Traits     []arena.Idx[Trait]
	Impls      []arena.Idx[Impl]

	Pragmas []Pragma
}

// RawFile is what the external parser hands over: owned declaration lists
// for a single file.
type RawFile struct {
	Funcs       []Func
	Structs     []Struct
	Enums       []Enum
	Globals     []Global
	TypeAliases []TypeAlias
	ExprAliases []ExprAlias
	Traits      []Trait
	Impls       []Impl
	Pragmas     []Pragma
}

// Workspace owns parallel arenas for every declaration kind plus the
// per-file index spans and per-module settings.
type Workspace struct {
	Tree *fstree.Tree

	Funcs       arena.Arena[Func]
	Structs     arena.Arena[Struct]
	Enums       arena.Arena[Enum]
	Globals     arena.Arena[Global]
	TypeAliases arena.Arena[TypeAlias]
	ExprAliases arena.Arena[ExprAlias]
	Traits      arena.Arena[Trait]
	Impls       arena.Arena[Impl]

	Files map[fstree.NodeID]*File

	// ModuleSettings holds the settings declared at each module root.
	ModuleSettings map[fstree.NodeID]*Settings

	// moduleOf maps every file to its owning module root, computed by
	// ComputeModules.
	moduleOf map[fstree.NodeID]fstree.NodeID
}

// NewWorkspace creates an empty workspace over the tree.
func NewWorkspace(tree *fstree.Tree) *Workspace {
	return &Workspace{
		Tree:           tree,
		Files:          map[fstree.NodeID]*File{},
		ModuleSettings: map[fstree.NodeID]*Settings{},
		moduleOf:       map[fstree.NodeID]fstree.NodeID{},
	}
}

// AddFile allocates the raw file's declarations into the workspace arenas
// and records the file's index spans.
func (w *Workspace) AddFile(node fstree.NodeID, raw RawFile) *File {
	f := &File{Node: node, Pragmas: raw.Pragmas}
	for _, d := range raw.Funcs {
		f.Funcs = append(f.Funcs, w.Funcs.Alloc(d))
	}
	for _, d := range raw.Structs {
		f.Structs = append(f.Structs, w.Structs.Alloc(d))
	}
	for _, d := range raw.Enums {
		f.Enums = append(f.Enums, w.Enums.Alloc(d))
	}
	for _, d := range raw.Globals {
		f.Globals = append(f.Globals, w.Globals.Alloc(d))
	}
	for _, d := range raw.TypeAliases {
		f.TypeAliases = append(f.TypeAliases, w.TypeAliases.Alloc(d))
	}
	for _, d := range raw.ExprAliases {
		f.ExprAliases = append(f.ExprAliases, w.ExprAliases.Alloc(d))
	}
	for _, d := range raw.Traits {
		f.Traits = append(f.Traits, w.Traits.Alloc(d))
	}
	for _, d := range raw.Impls {
		f.Impls = append(f.Impls, w.Impls.Alloc(d))
	}
	w.Files[node] = f
	return f
}

// SetModuleRoot declares the directory a module root with the given
// settings.
func (w *Workspace) SetModuleRoot(dir fstree.NodeID, s *Settings) {
	w.ModuleSettings[dir] = s
}

// ComputeModules assigns every file its nearest ancestor module root by a
// breadth-first walk from the tree root, inheriting the parent's
// assignment as the default. Files isolated from modules (C sources) keep
// the root default. Call after all files and module roots are registered.
func (w *Workspace) ComputeModules() {
	if _, ok := w.ModuleSettings[fstree.Root]; !ok {
		w.ModuleSettings[fstree.Root] = DefaultSettings()
	}
	queue := []fstree.NodeID{fstree.Root}
	w.moduleOf[fstree.Root] = fstree.Root
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		owner := w.moduleOf[id]
		for _, child := range w.Tree.Children(id) {
			n := w.Tree.Node(child)
			childOwner := owner
			if _, isRoot := w.ModuleSettings[child]; isRoot && n.Kind == fstree.KindDirectory {
				childOwner = child
			}
			if n.IsolateFromModule {
				childOwner = fstree.Root
			}
			w.moduleOf[child] = childOwner
			queue = append(queue, child)
		}
	}
}

// ModuleOf returns the module root owning the node.
func (w *Workspace) ModuleOf(node fstree.NodeID) fstree.NodeID {
	return w.moduleOf[node]
}

// SettingsOf returns the settings in effect for the node.
func (w *Workspace) SettingsOf(node fstree.NodeID) *Settings {
	return w.ModuleSettings[w.moduleOf[node]]
}

// ModuleFiles returns every registered file owned by the module root, in
// deterministic tree order.
func (w *Workspace) ModuleFiles(root fstree.NodeID) []*File {
	var out []*File
	var walk func(fstree.NodeID)
	walk = func(id fstree.NodeID) {
		if f, ok := w.Files[id]; ok && w.moduleOf[id] == root {
			out = append(out, f)
		}
		for _, c := range w.Tree.Children(id) {
			walk(c)
		}
	}
	walk(fstree.Root)
	return out
}
