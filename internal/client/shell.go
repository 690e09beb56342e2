package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"hydratutor/internal/stash"
)

// errQuit ends the shell loop.
var errQuit = errors.New("quit")

// endOfText closes a multi-line value.
const endOfText = "."

// longer numbers are taken as ids
const maxPositionDigits = 6

type command struct {
	name string
	args string
	help string
	run  func(ctx context.Context, arg string) error
}

// Shell is a line-oriented command loop shared by the tutor shells.
type Shell struct {
	prompt   string
	in       LineReader
	out      io.Writer
	commands map[string]command
	aliases  map[string]string
}

func newShell(prompt string, in LineReader, out io.Writer) *Shell {
	sh := &Shell{
		prompt:   prompt,
		in:       in,
		out:      out,
		commands: make(map[string]command),
		aliases:  map[string]string{"exit": "quit", "?": "help", "ls": "library"},
	}
	sh.add("help", "", "show this list", func(context.Context, string) error {
		sh.printHelp()
		return nil
	})
	sh.add("quit", "", "leave the shell", func(context.Context, string) error {
		return errQuit
	})
	return sh
}

func (sh *Shell) add(name, args, help string, run func(ctx context.Context, arg string) error) {
	sh.commands[name] = command{name: name, args: args, help: help, run: run}
}

func (sh *Shell) printHelp() {
	names := make([]string, 0, len(sh.commands))
	for name := range sh.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(sh.out, "  commands:")
	for _, name := range names {
		c := sh.commands[name]
		usage := strings.TrimSpace(c.name + " " + c.args)
		fmt.Fprintf(sh.out, "    %s%-22s%s %s\n", ColorBold, usage, ColorReset, c.help)
	}
}

// Run reads commands until quit, end of input or ctx is done.
func (sh *Shell) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line, err := sh.in.ReadLine(sh.prompt)
		if err != nil {
			switch {
			case errors.Is(err, readline.ErrInterrupt):
				fmt.Fprintln(sh.out)
				continue
			case errors.Is(err, io.EOF):
				return nil
			default:
				return fmt.Errorf("read input failed: %w", err)
			}
		}
		if err := sh.Exec(ctx, line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			PrintError(sh.out, err)
		}
	}
}

// Exec runs one command line.
func (sh *Shell) Exec(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	name, arg, _ := strings.Cut(line, " ")
	name = strings.ToLower(name)
	if alias, ok := sh.aliases[name]; ok {
		name = alias
	}
	c, ok := sh.commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q, try help", name)
	}
	return c.run(ctx, strings.TrimSpace(arg))
}

// readText resolves the value of a text command. "@file" reads a file, an
// empty argument reads lines until a lone ".", anything else is taken as is.
func (sh *Shell) readText(arg string) (string, error) {
	if name, ok := strings.CutPrefix(arg, "@"); ok {
		data, err := os.ReadFile(name)
		if err != nil {
			return "", err
		}
		return sanitize(strings.TrimRight(string(data), "\n")), nil
	}
	if arg != "" {
		return sanitize(arg), nil
	}

	PrintHint(sh.out, "enter text, finish with a line holding only "+endOfText)
	var lines []string
	for {
		line, err := sh.in.ReadLine("… ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", err
		}
		if line == endOfText {
			break
		}
		lines = append(lines, line)
	}
	return sanitize(strings.Join(lines, "\n")), nil
}

// sanitize drops NUL and control characters other than line breaks and tabs.
func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= 32 || r == '\n' || r == '\t' || r == '\r' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ResolveID accepts an entry id or its 1-based library position.
func ResolveID(s *stash.Stash, arg string) (string, error) {
	if arg == "" {
		return "", errors.New("which entry? give an id or a library number")
	}
	pos := strings.TrimPrefix(arg, "#")
	if n, err := strconv.Atoi(pos); err == nil && len(pos) <= maxPositionDigits {
		entries := s.Entries()
		if n < 1 || n > len(entries) {
			return "", stash.ErrNotFound
		}
		return entries[n-1].ID, nil
	}
	return arg, nil
}
