package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hydratutor/internal/client"
	"hydratutor/internal/constants"
	"hydratutor/internal/tree"
)

func newTreeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Tree tutor",
	}
	cmd.AddCommand(newTreeShellCmd(opts))
	return cmd
}

func newTreeShellCmd(opts *rootOptions) *cobra.Command {
	var withDashboard bool

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive tree tutor",
		Long: `Interactive tree tutor. A returning identity gets back the input,
configuration, path, ops and library the backend remembers for it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			s, err := a.openStash(ctx, constants.VariantTree)
			if err != nil {
				return err
			}
			sess := tree.New(a.client, s, a.log)
			defer sess.Close()

			out := cmd.OutOrStdout()
			if a.id.Returning {
				local := s.Entries()
				if err := sess.Restore(ctx); err != nil {
					a.log.Warn("could not restore tree state", zap.Error(err))
				} else {
					if err := a.settleTreeLibrary(ctx, s, local); err != nil {
						a.log.Warn("could not persist restored library", zap.Error(err))
					}
					a.transcript.LogEvent("tree state restored")
				}
			}

			client.PrintBanner(out, "tree tutor")
			printSessionFields(out, a, s.Len())
			if withDashboard {
				startDashboard(out, a, s)
			}
			client.PrintSep(out)
			client.PrintMessage(out, sess.Message())
			client.PrintHint(out, "type help for commands")

			in := lineReader(cmd, a, constants.VariantTree)
			defer in.Close()
			return client.NewTreeShell(sess, in, out).Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&withDashboard, "dashboard", false, "serve a live view of the library")
	return cmd
}
