// Package fstree models the workspace filesystem as a node graph keyed by
// dense node ids. The tree is the spine every other compiler structure
// hangs off: files, module settings, and declaration scopes are all keyed
// by NodeID.
package fstree

import (
	"path"
	"strings"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// NodeID identifies a node. The root directory is always 0.
type NodeID uint32

// Root is the id of the tree root.
const Root NodeID = 0

// Kind distinguishes files from directories.
type Kind int

const (
	KindDirectory Kind = iota
	KindFile
)

// Node is one filesystem entry.
type Node struct {
	Kind    Kind
	Parent  NodeID
	Segment string
	ModTime time.Time

	// IsolateFromModule marks nodes (C sources and headers) that must not
	// inherit module settings from their directory.
	IsolateFromModule bool

	children map[string]NodeID
}

// Tree is the append-only node graph.
type Tree struct {
	nodes []Node
}

// New creates a tree holding only the root directory.
func New() *Tree {
	return &Tree{nodes: []Node{{
		Kind:     KindDirectory,
		Parent:   Root,
		children: map[string]NodeID{},
	}}}
}

// Node returns the node for id.
func (t *Tree) Node(id NodeID) *Node {
	return &t.nodes[id]
}

// Len returns the node count, root included.
func (t *Tree) Len() int { return len(t.nodes) }

func canonical(p string) []string {
	p = path.Clean(strings.TrimPrefix(p, "/"))
	if p == "." || p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// Insert adds the node at the canonical path, creating intermediate
// directories as needed. Insertion is idempotent per path: re-inserting
// leaves the node's kind as first inserted and only raises its
// modification time (never lowers it). The time bubbles to the root by
// max.
func (t *Tree) Insert(p string, kind Kind, mtime time.Time) NodeID {
	cur := Root
	segs := canonical(p)
	for i, seg := range segs {
		k := KindDirectory
		if i == len(segs)-1 {
			k = kind
		}
		next, ok := t.nodes[cur].children[seg]
		if !ok {
			t.nodes = append(t.nodes, Node{
				Kind:     k,
				Parent:   cur,
				Segment:  seg,
				children: map[string]NodeID{},
			})
			next = NodeID(len(t.nodes) - 1)
			t.nodes[cur].children[seg] = next
		}
		cur = next
	}
	if t.nodes[cur].ModTime.Before(mtime) {
		t.nodes[cur].ModTime = mtime
	}
	t.bubbleModTime(cur)
	return cur
}

func (t *Tree) bubbleModTime(id NodeID) {
	mt := t.nodes[id].ModTime
	for id != Root {
		id = t.nodes[id].Parent
		if t.nodes[id].ModTime.Before(mt) {
			t.nodes[id].ModTime = mt
		}
	}
}

// Lookup finds the node at the canonical path.
func (t *Tree) Lookup(p string) (NodeID, bool) {
	cur := Root
	for _, seg := range canonical(p) {
		next, ok := t.nodes[cur].children[seg]
		if !ok {
			return 0, false
		}
		cur = next
	}
	return cur, true
}

// Path reconstructs the slash-separated path of a node.
func (t *Tree) Path(id NodeID) string {
	if id == Root {
		return "/"
	}
	var segs []string
	for id != Root {
		segs = append(segs, t.nodes[id].Segment)
		id = t.nodes[id].Parent
	}
	slices.Reverse(segs)
	return "/" + strings.Join(segs, "/")
}

// Children returns the node's children ids in segment order, so traversal
// is deterministic regardless of insertion order.
func (t *Tree) Children(id NodeID) []NodeID {
	segs := maps.Keys(t.nodes[id].children)
	slices.Sort(segs)
	out := make([]NodeID, len(segs))
	for i, s := range segs {
		out[i] = t.nodes[id].children[s]
	}
	return out
}

// IsUnder reports whether node id lives at or below ancestor.
func (t *Tree) IsUnder(id, ancestor NodeID) bool {
	for {
		if id == ancestor {
			return true
		}
		if id == Root {
			return false
		}
		id = t.nodes[id].Parent
	}
}
