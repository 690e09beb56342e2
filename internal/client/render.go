package client

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	lgtree "github.com/charmbracelet/lipgloss/tree"

	"hydratutor/internal/constants"
	"hydratutor/internal/protocol"
	"hydratutor/internal/stash"
)

const cellWidth = 40

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	currentStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2")).Padding(0, 1)
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
	nameStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	bundleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
)

func clip(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > cellWidth {
		return string(r[:cellWidth-1]) + "…"
	}
	return s
}

// RenderLibrary draws the whole stash as a numbered table. The current
// entry is marked.
func RenderLibrary(snap stash.Snapshot) string {
	if len(snap.Entries) == 0 {
		return dimStyle.Render("Nothing stashed yet.")
	}

	headers := []string{"#", "id", "date", "input"}
	if snap.Variant == constants.VariantFilter {
		headers = append(headers, "filter", "type")
	} else {
		headers = append(headers, "config", "path", "ops")
	}

	currentRow := -1
	rows := make([][]string, 0, len(snap.Entries))
	for i, e := range snap.Entries {
		mark := fmt.Sprintf("%d", i+1)
		if e.ID == snap.Current {
			mark += " ●"
			currentRow = i
		}
		row := []string{mark, e.ID, e.Date, clip(e.Input)}
		if snap.Variant == constants.VariantFilter {
			row = append(row, clip(e.Filter), e.FilterType)
		} else {
			row = append(row, clip(e.Config), clip(e.Path), clip(e.Ops))
		}
		rows = append(rows, row)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row == currentRow:
				return currentStyle
			default:
				return cellStyle
			}
		})
	return t.String()
}

// RenderRows draws query results as a grid.
func RenderRows(rows []protocol.Row) string {
	if len(rows) == 0 {
		return dimStyle.Render("No rows.")
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style { return cellStyle })
	for _, r := range rows {
		t.Row(r.Strings()...)
	}
	return t.String()
}

// RenderTree draws the built tree. Bundle nodes are highlighted.
func RenderTree(nodes []protocol.TreeNode) string {
	if len(nodes) == 0 {
		return dimStyle.Render("The tree is empty.")
	}
	root := lgtree.Root(constants.RootTitle)
	for _, n := range nodes {
		root.Child(treeChild(n))
	}
	return root.String()
}

func treeChild(n protocol.TreeNode) any {
	title := n.Title
	if strings.HasSuffix(title, constants.BundleMarker) {
		title = bundleStyle.Render(title)
	}
	if len(n.Children) == 0 {
		return title
	}
	t := lgtree.Root(title)
	for _, c := range n.Children {
		t.Child(treeChild(c))
	}
	return t
}

// RenderNodeData lists each attachment as "name":value followed by the
// documentation links.
func RenderNodeData(nd *protocol.NodeData) string {
	if nd == nil || (nd.None && len(nd.Attachments) == 0) {
		return dimStyle.Render("No data attached to this node.")
	}
	var b strings.Builder
	for _, f := range nd.Attachments {
		fmt.Fprintf(&b, "%s:%s\n", nameStyle.Render(fmt.Sprintf("%q", f.Name)), string(f.Value))
	}
	if len(nd.Links) > 0 {
		b.WriteString(dimStyle.Render("links") + "\n")
		for _, l := range nd.Links {
			fmt.Fprintf(&b, "  %s → %s\n", l.Name, l.URL)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// LibraryView keeps the most recent rendering of a stash.
type LibraryView struct {
	mu   sync.Mutex
	seq  uint64
	text string
}

func (v *LibraryView) Render(snap stash.Snapshot) {
	text := RenderLibrary(snap)
	v.mu.Lock()
	defer v.mu.Unlock()
	if snap.Seq < v.seq {
		return
	}
	v.seq = snap.Seq
	v.text = text
}

func (v *LibraryView) String() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.text
}
