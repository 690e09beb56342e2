package client

import (
	"context"
	"fmt"
	"io"

	"hydratutor/internal/filter"
)

// NewFilterShell wires the filter tutor commands to sess.
func NewFilterShell(sess *filter.Session, in LineReader, out io.Writer) *Shell {
	sh := newShell("filter> ", in, out)
	library := &LibraryView{}
	sess.Stash().AddRenderer(library)

	sh.add("input", "[text|@file]", "set the input", func(_ context.Context, arg string) error {
		text, err := sh.readText(arg)
		if err != nil {
			return err
		}
		sess.SetInput(text)
		return nil
	})
	sh.add("filter", "[text|@file]", "set the filter expression", func(_ context.Context, arg string) error {
		text, err := sh.readText(arg)
		if err != nil {
			return err
		}
		sess.SetFilter(text)
		return nil
	})
	sh.add("type", "auto|value|bundle", "set the filter type", func(_ context.Context, arg string) error {
		return sess.SetFilterType(arg)
	})
	sh.add("run", "", "submit input and filter", func(ctx context.Context, _ string) error {
		res, err := sess.Submit(ctx)
		if err != nil {
			return err
		}
		printFilterResult(out, res)
		return nil
	})
	sh.add("reset", "", "clear the output and the backend state", func(context.Context, string) error {
		sess.Reset()
		PrintHint(out, "reset")
		return nil
	})
	sh.add("save", "", "stash the current input and filter", func(context.Context, string) error {
		id := sess.Save()
		PrintField(out, "saved", id, ColorGreen)
		return nil
	})
	sh.add("store", "", "print the permalink of the current entry", func(context.Context, string) error {
		PrintField(out, "permalink", "#"+sess.Permalink(), ColorCyan)
		return nil
	})
	sh.add("examples", "", "stash the built-in examples", func(context.Context, string) error {
		ids := sess.AddExamples()
		PrintHint(out, fmt.Sprintf("added %d examples", len(ids)))
		return nil
	})
	sh.add("load", "<id|n>", "put a stashed entry back in the editor", func(_ context.Context, arg string) error {
		id, err := ResolveID(sess.Stash(), arg)
		if err != nil {
			return err
		}
		if _, err := sess.LoadEntry(id); err != nil {
			return err
		}
		printFilterFields(out, sess)
		return nil
	})
	sh.add("delete", "<id|n>", "remove a stashed entry", func(_ context.Context, arg string) error {
		id, err := ResolveID(sess.Stash(), arg)
		if err != nil {
			return err
		}
		if !sess.DeleteEntry(id) {
			PrintHint(out, "nothing to delete")
		}
		return nil
	})
	sh.add("clear", "", "empty the stash", func(context.Context, string) error {
		sess.ClearStash()
		return nil
	})
	sh.add("library", "", "list the stash", func(context.Context, string) error {
		PrintBlock(out, library.String())
		return nil
	})
	sh.add("show", "", "print the editor and the last result", func(context.Context, string) error {
		printFilterFields(out, sess)
		printFilterResult(out, sess.Result())
		return nil
	})
	return sh
}

func printFilterFields(out io.Writer, sess *filter.Session) {
	f := sess.Fields()
	PrintField(out, "type", f.FilterType, ColorCyan)
	PrintField(out, "input", "", ColorReset)
	PrintBlock(out, f.Input)
	PrintField(out, "filter", "", ColorReset)
	PrintBlock(out, f.Filter)
}

func printFilterResult(out io.Writer, res filter.Result) {
	PrintSep(out)
	if res.Output != "" {
		PrintBlock(out, res.Output)
	}
	PrintMessage(out, res.Messages)
}
