package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// diamond builds A → {B, C} → D with A as block 0.
func diamond() *Graph {
	g := &Graph{Blocks: make([]Block, 4)}
	a, bb, c, dd := BlockID(0), BlockID(1), BlockID(2), BlockID(3)
	g.Blocks[a].Instrs = []Instr{{Kind: InstrBoolLit, Bool: true}}
	g.Blocks[a].End = EndInstr{Kind: EndCondBranch, Cond: InstrRef{Block: a}, True: bb, False: c}
	g.Blocks[bb].End = EndInstr{Kind: EndJump, To: dd}
	g.Blocks[c].End = EndInstr{Kind: EndJump, To: dd}
	g.Blocks[dd].End = EndInstr{Kind: EndReturn}
	return g
}

func TestDominatorsDiamond(t *testing.T) {
	g := diamond()
	d := ComputeDominators(g)

	assert.Equal(t, BlockID(0), d.Idom[1], "idom(B) = A")
	assert.Equal(t, BlockID(0), d.Idom[2], "idom(C) = A")
	assert.Equal(t, BlockID(0), d.Idom[3], "idom(D) = A")

	require.Len(t, d.PostOrder, 4)
	assert.Equal(t, BlockID(3), d.PostOrder[0], "post-order starts at D")
	assert.Equal(t, BlockID(0), d.PostOrder[3], "post-order ends at A")

	assert.True(t, d.Dominates(0, 3))
	assert.False(t, d.Dominates(1, 3))
	assert.True(t, d.Dominates(3, 3))
}

func TestDominatorsLoop(t *testing.T) {
	// A → cond; cond → {body, exit}; body → cond.
	g := &Graph{Blocks: make([]Block, 4)}
	a, cond, body, exit := BlockID(0), BlockID(1), BlockID(2), BlockID(3)
	g.Blocks[a].End = EndInstr{Kind: EndJump, To: cond}
	g.Blocks[cond].Instrs = []Instr{{Kind: InstrBoolLit}}
	g.Blocks[cond].End = EndInstr{Kind: EndCondBranch, Cond: InstrRef{Block: cond}, True: body, False: exit}
	g.Blocks[body].End = EndInstr{Kind: EndJump, To: cond}
	g.Blocks[exit].End = EndInstr{Kind: EndReturn}

	d := ComputeDominators(g)
	assert.Equal(t, a, d.Idom[cond])
	assert.Equal(t, cond, d.Idom[body])
	assert.Equal(t, cond, d.Idom[exit])
}

func TestDomPreorderParentFirst(t *testing.T) {
	d := ComputeDominators(diamond())
	order := d.DomPreorder()
	require.Len(t, order, 4)
	assert.Equal(t, Start, order[0])

	pos := map[BlockID]int{}
	for i, id := range order {
		pos[id] = i
	}
	for _, id := range order[1:] {
		assert.Less(t, pos[d.Idom[id]], pos[id], "idom precedes block %d", id)
	}
}

func TestUnreachableBlocksIgnored(t *testing.T) {
	g := diamond()
	g.Blocks = append(g.Blocks, Block{End: EndInstr{Kind: EndReturn}}) // orphan
	d := ComputeDominators(g)
	assert.Equal(t, -1, d.PostIndex[4])
	assert.Len(t, d.PostOrder, 4)
}
