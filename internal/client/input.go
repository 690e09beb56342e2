package client

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
)

// LineReader yields one line of user input per call.
type LineReader interface {
	ReadLine(prompt string) (string, error)
	Close() error
}

type basicLineReader struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewBasicLineReader reads lines from in without editing or history.
func NewBasicLineReader(in io.Reader, out io.Writer) LineReader {
	return &basicLineReader{reader: bufio.NewReader(in), out: out}
}

func (b *basicLineReader) ReadLine(prompt string) (string, error) {
	if b.out != nil {
		fmt.Fprint(b.out, prompt)
	}
	line, err := b.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (b *basicLineReader) Close() error { return nil }

type readlineReader struct {
	instance *readline.Instance
}

func newReadlineReader(historyPath string, in *os.File, out io.Writer) (*readlineReader, error) {
	if historyPath != "" {
		if err := os.MkdirAll(filepath.Dir(historyPath), 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	instance, err := readline.NewEx(&readline.Config{
		Prompt:            "> ",
		HistoryFile:       historyPath,
		HistorySearchFold: true,
		Stdin:             readline.NewCancelableStdin(in),
		Stdout:            out,
		Stderr:            out,
	})
	if err != nil {
		return nil, err
	}
	return &readlineReader{instance: instance}, nil
}

func (r *readlineReader) ReadLine(prompt string) (string, error) {
	r.instance.SetPrompt(prompt)
	return r.instance.Readline()
}

func (r *readlineReader) Close() error {
	if r == nil || r.instance == nil {
		return nil
	}
	return r.instance.Close()
}

// NewLineReader reads from in. A terminal gets an editing reader with
// history; anything else, or a terminal readline cannot drive, is read
// line by line.
func NewLineReader(historyPath string, in io.Reader, out io.Writer) (LineReader, error) {
	f, ok := in.(*os.File)
	if !ok || !readline.IsTerminal(int(f.Fd())) {
		return NewBasicLineReader(in, out), nil
	}
	r, err := newReadlineReader(historyPath, f, out)
	if err == nil {
		return r, nil
	}
	return NewBasicLineReader(in, out), err
}
