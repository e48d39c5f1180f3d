package fstree

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertIdempotent(t *testing.T) {
	tr := New()
	t1 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	a := tr.Insert("src/main.adept", KindFile, t1)
	b := tr.Insert("src/main.adept", KindFile, t2)
	assert.Equal(t, a, b, "same canonical path yields one node")
	assert.Equal(t, t2, tr.Node(a).ModTime, "re-insert updates the timestamp")

	c := tr.Insert("./src/../src/main.adept", KindFile, t1)
	assert.Equal(t, a, c, "paths are canonicalized before insertion")
}

func TestModTimeBubblesToRoot(t *testing.T) {
	tr := New()
	t1 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	tr.Insert("a/b/one.adept", KindFile, t1)
	tr.Insert("a/c/two.adept", KindFile, t2)

	assert.Equal(t, t2, tr.Node(Root).ModTime, "root carries the max child mtime")
	dirA, ok := tr.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, t2, tr.Node(dirA).ModTime)

	dirB, ok := tr.Lookup("a/b")
	require.True(t, ok)
	assert.Equal(t, t1, tr.Node(dirB).ModTime, "sibling subtree keeps its own time")
}

func TestLookupAndPath(t *testing.T) {
	tr := New()
	id := tr.Insert("pkg/util/strings.adept", KindFile, time.Now())

	got, ok := tr.Lookup("pkg/util/strings.adept")
	require.True(t, ok)
	assert.Equal(t, id, got)
	assert.Equal(t, "/pkg/util/strings.adept", tr.Path(id))

	_, ok = tr.Lookup("pkg/missing")
	assert.False(t, ok)
}

func TestChildrenDeterministicOrder(t *testing.T) {
	tr := New()
	now := time.Now()
	tr.Insert("z.adept", KindFile, now)
	tr.Insert("a.adept", KindFile, now)
	tr.Insert("m.adept", KindFile, now)

	var segs []string
	for _, c := range tr.Children(Root) {
		segs = append(segs, tr.Node(c).Segment)
	}
	assert.Equal(t, []string{"a.adept", "m.adept", "z.adept"}, segs)
}

func TestIsUnder(t *testing.T) {
	tr := New()
	now := time.Now()
	file := tr.Insert("mod/sub/file.adept", KindFile, now)
	mod, _ := tr.Lookup("mod")
	other := tr.Insert("other/file.adept", KindFile, now)

	assert.True(t, tr.IsUnder(file, mod))
	assert.True(t, tr.IsUnder(file, Root))
	assert.False(t, tr.IsUnder(other, mod))
}
