package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"hydratutor/internal/protocol"
)

func TestPaths(t *testing.T) {
	titles := []string{"X*", "A*", "B"}
	assert.Equal(t, "X*/A*/B", NodePath(titles))
	assert.Equal(t, "X/A/B", AggregationPath(titles))

	path, ops := HitsQuery([]string{"X", "A*"})
	assert.Equal(t, "X/A:+hits", path)
	assert.Equal(t, "title=hits", ops)

	assert.True(t, IsBundle("A*"))
	assert.False(t, IsBundle("A"))
}

func TestSplitPath(t *testing.T) {
	assert.Equal(t, []string{"X", "A*"}, SplitPath("X/A*"))
	assert.Equal(t, []string{"X"}, SplitPath("root/X"))
	assert.Nil(t, SplitPath(""))
	assert.Nil(t, SplitPath("/"))
}

func TestFindAndWalk(t *testing.T) {
	nodes := []protocol.TreeNode{{
		Title: "X",
		Children: []protocol.TreeNode{
			{Title: "A*", Children: []protocol.TreeNode{{Title: "C"}}},
			{Title: "B"},
		},
	}}

	n, ok := Find(nodes, []string{"X", "A*", "C"})
	assert.True(t, ok)
	assert.Equal(t, "C", n.Title)
	_, ok = Find(nodes, []string{"A*"})
	assert.False(t, ok)
	_, ok = Find(nodes, nil)
	assert.False(t, ok)

	var seen []string
	Walk(nodes, func(titles []string, _ protocol.TreeNode) {
		seen = append(seen, NodePath(titles))
	})
	assert.Equal(t, []string{"X", "X/A*", "X/A*/C", "X/B"}, seen)
}
