// Package client is the terminal front-end of the tutor: printing helpers,
// lipgloss renderings and the interactive shells.
package client

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"hydratutor/internal/constants"
	"hydratutor/internal/tree"
)

const (
	ColorReset  = constants.ColorReset
	ColorBold   = constants.ColorBold
	ColorDim    = constants.ColorDim
	ColorCyan   = constants.ColorCyan
	ColorGreen  = constants.ColorGreen
	ColorYellow = constants.ColorYellow
	ColorRed    = constants.ColorRed
	ColorPurple = constants.ColorPurple
)

func PrintBanner(w io.Writer, subtitle string) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s%shydratutor%s %sv%s%s\n", ColorBold, ColorCyan, ColorReset, ColorBold, constants.Version, ColorReset)
	fmt.Fprintf(w, "  %s%s%s\n", ColorDim, subtitle, ColorReset)
	fmt.Fprintln(w)
}

func PrintHint(w io.Writer, text string) {
	fmt.Fprintf(w, "  %s%s%s\n", ColorDim, text, ColorReset)
}

func PrintField(w io.Writer, label, value, valueColor string) {
	fmt.Fprintf(w, "  %s%-12s%s %s%s%s\n", ColorDim, label, ColorReset, valueColor, value, ColorReset)
}

func PrintSep(w io.Writer) {
	fmt.Fprintf(w, "  %s%s%s\n", ColorDim, strings.Repeat("─", 50), ColorReset)
}

// PrintMessage shows text from the message area, if any.
func PrintMessage(w io.Writer, msg string) {
	if msg == "" {
		return
	}
	fmt.Fprintf(w, "  %s%s%s\n", ColorYellow, msg, ColorReset)
}

// PrintError shows local refusals as messages and everything else as errors.
func PrintError(w io.Writer, err error) {
	if tree.IsGuard(err) || errors.Is(err, tree.ErrBusy) {
		PrintMessage(w, err.Error())
		return
	}
	fmt.Fprintf(w, "  %s● %s%s\n", ColorRed, err.Error(), ColorReset)
}

// PrintBlock prints multi-line text indented under the banner margin.
func PrintBlock(w io.Writer, text string) {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		fmt.Fprintf(w, "  %s\n", line)
	}
}
