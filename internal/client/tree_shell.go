package client

import (
	"context"
	"io"

	"hydratutor/internal/tree"
)

// NewTreeShell wires the tree tutor commands to sess.
func NewTreeShell(sess *tree.Session, in LineReader, out io.Writer) *Shell {
	sh := newShell("tree> ", in, out)
	library := &LibraryView{}
	sess.Stash().AddRenderer(library)

	text := func(set func(string)) func(context.Context, string) error {
		return func(_ context.Context, arg string) error {
			v, err := sh.readText(arg)
			if err != nil {
				return err
			}
			set(v)
			return nil
		}
	}
	sh.add("input", "[text|@file]", "set the tree input", text(sess.SetInput))
	sh.add("config", "[text|@file]", "set the tree configuration", text(sess.SetConfig))
	sh.add("path", "[path]", "set the query path", func(_ context.Context, arg string) error {
		sess.SetPath(arg)
		return nil
	})
	sh.add("ops", "[ops]", "set the query ops", func(_ context.Context, arg string) error {
		sess.SetOps(arg)
		return nil
	})

	grow := func(call func(context.Context) error) func(context.Context, string) error {
		return func(ctx context.Context, _ string) error {
			if err := call(ctx); err != nil {
				return err
			}
			PrintBlock(out, RenderTree(sess.View().Tree))
			return nil
		}
	}
	sh.add("build", "", "build the tree", grow(func(ctx context.Context) error {
		_, err := sess.Build(ctx)
		return err
	}))
	sh.add("step", "", "advance the tree by one step", grow(func(ctx context.Context) error {
		_, err := sess.Step(ctx)
		return err
	}))
	sh.add("back", "", "undo one step", grow(func(ctx context.Context) error {
		_, err := sess.Back(ctx)
		return err
	}))
	sh.add("tree", "", "print the current tree", func(context.Context, string) error {
		PrintBlock(out, RenderTree(sess.View().Tree))
		return nil
	})

	sh.add("query", "", "run path and ops against the tree", func(ctx context.Context, _ string) error {
		rows, err := sess.Query(ctx)
		if err != nil {
			return err
		}
		PrintBlock(out, RenderRows(rows))
		return nil
	})
	sh.add("select", "<node path>", "show the data attached to a node", func(ctx context.Context, arg string) error {
		nd, err := sess.SelectNode(ctx, tree.SplitPath(arg))
		if err != nil {
			return err
		}
		PrintBlock(out, RenderNodeData(nd))
		return nil
	})
	sh.add("open", "<node path>", "query the hits under a node", func(ctx context.Context, arg string) error {
		rows, err := sess.OpenNode(ctx, tree.SplitPath(arg))
		if err != nil {
			return err
		}
		v := sess.View()
		PrintField(out, "path", v.Path, ColorCyan)
		PrintField(out, "ops", v.Ops, ColorCyan)
		PrintBlock(out, RenderRows(rows))
		return nil
	})

	// stash changes reach the backend in the background; wait for its
	// answer so it lands under the command that caused it
	synced := func(ctx context.Context) {
		_ = sess.SyncStash(ctx)
		PrintMessage(out, sess.Message())
	}
	sh.add("save", "", "stash input, configuration, path and ops", func(ctx context.Context, _ string) error {
		id, err := sess.Save()
		if err != nil {
			return err
		}
		PrintField(out, "saved", id, ColorGreen)
		synced(ctx)
		return nil
	})
	sh.add("load", "<id|n>", "put a stashed entry back in the editors", func(_ context.Context, arg string) error {
		id, err := ResolveID(sess.Stash(), arg)
		if err != nil {
			return err
		}
		if _, err := sess.LoadEntry(id); err != nil {
			return err
		}
		printTreeFields(out, sess.View())
		return nil
	})
	sh.add("delete", "<id|n>", "remove a stashed entry", func(ctx context.Context, arg string) error {
		id, err := ResolveID(sess.Stash(), arg)
		if err != nil {
			return err
		}
		if !sess.DeleteEntry(id) {
			PrintHint(out, "nothing to delete")
			return nil
		}
		synced(ctx)
		return nil
	})
	sh.add("clear", "", "empty the stash", func(ctx context.Context, _ string) error {
		sess.ClearStash()
		synced(ctx)
		return nil
	})
	sh.add("library", "", "list the stash", func(context.Context, string) error {
		PrintBlock(out, library.String())
		return nil
	})
	sh.add("reset", "", "start over and clear the backend session", func(ctx context.Context, _ string) error {
		msg, err := sess.Reset(ctx)
		if err != nil {
			return err
		}
		PrintMessage(out, msg)
		return nil
	})
	sh.add("state", "", "print the editors and the session state", func(context.Context, string) error {
		v := sess.View()
		PrintField(out, "state", v.State.String(), ColorPurple)
		printTreeFields(out, v)
		PrintMessage(out, v.Message)
		return nil
	})
	return sh
}

func printTreeFields(out io.Writer, v tree.View) {
	PrintField(out, "path", v.Path, ColorCyan)
	PrintField(out, "ops", v.Ops, ColorCyan)
	PrintField(out, "input", "", ColorReset)
	PrintBlock(out, v.Input)
	PrintField(out, "config", "", ColorReset)
	PrintBlock(out, v.Config)
}
