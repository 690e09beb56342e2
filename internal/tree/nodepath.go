package tree

import (
	"strings"

	"hydratutor/internal/constants"
	"hydratutor/internal/protocol"
)

func IsBundle(title string) bool {
	return strings.HasSuffix(title, constants.BundleMarker)
}

// NodePath is the getData path of a node: titles from the top level down,
// kept verbatim.
func NodePath(titles []string) string {
	return strings.Join(titles, constants.PathSeparator)
}

// AggregationPath is NodePath with the bundle marker stripped from every
// title.
func AggregationPath(titles []string) string {
	clean := make([]string, len(titles))
	for i, t := range titles {
		clean[i] = strings.TrimSuffix(t, constants.BundleMarker)
	}
	return strings.Join(clean, constants.PathSeparator)
}

// HitsQuery is the query run when a node is opened.
func HitsQuery(titles []string) (path, ops string) {
	return AggregationPath(titles) + constants.HitsPathSuffix, constants.HitsOps
}

// SplitPath turns "a/b/c" into titles. A leading "root/" is dropped.
func SplitPath(path string) []string {
	path = strings.Trim(path, constants.PathSeparator)
	path = strings.TrimPrefix(path, constants.RootTitle+constants.PathSeparator)
	if path == "" || path == constants.RootTitle {
		return nil
	}
	return strings.Split(path, constants.PathSeparator)
}

// Find locates the node addressed by titles.
func Find(nodes []protocol.TreeNode, titles []string) (protocol.TreeNode, bool) {
	if len(titles) == 0 {
		return protocol.TreeNode{}, false
	}
	for _, n := range nodes {
		if n.Title != titles[0] {
			continue
		}
		if len(titles) == 1 {
			return n, true
		}
		return Find(n.Children, titles[1:])
	}
	return protocol.TreeNode{}, false
}

// Walk visits every node depth first with its title path.
func Walk(nodes []protocol.TreeNode, fn func(titles []string, n protocol.TreeNode)) {
	walk(nodes, nil, fn)
}

func walk(nodes []protocol.TreeNode, prefix []string, fn func([]string, protocol.TreeNode)) {
	for _, n := range nodes {
		titles := append(append([]string(nil), prefix...), n.Title)
		fn(titles, n)
		walk(n.Children, titles, fn)
	}
}
